// README: Event fan-out to per-user subscribers, the audit log, and Redis.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"ozra/internal/modules/entity"
	"ozra/internal/observability"
	"ozra/internal/types"
)

// Channel carries events to out-of-process consumers (push/chat transports).
const Channel = "ozra:events"

// EventStore appends accepted events to the durable audit log.
type EventStore interface {
	Append(ctx context.Context, ev *entity.Event) error
}

// Hub delivers every published event to each interested user's streams.
// Delivery is at-least-once: a subscriber that stops draining its buffer is
// closed and must resubscribe, after which it may see events again; consumers
// deduplicate on (entityId, version), which stays unique even across repeated
// seat bookings that share a (fromStatus, toStatus) pair.
type Hub struct {
	mu    sync.RWMutex
	subs  map[types.ID]map[*subscriber]struct{}
	store EventStore
	redis *redis.Client
	log   *slog.Logger
}

type subscriber struct {
	ch chan entity.Event
}

const subscriberBuffer = 64

// NewHub builds a hub. store and rdb are optional; without them events only
// reach in-process subscribers.
func NewHub(store EventStore, rdb *redis.Client, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		subs:  make(map[types.ID]map[*subscriber]struct{}),
		store: store,
		redis: rdb,
		log:   log,
	}
}

// Publish is called synchronously by the transition engine and the
// assignment service before they return, so per-entity event order matches
// accepted mutation order. Audit log or Redis failures are logged, never
// propagated: the mutation has already been accepted.
func (h *Hub) Publish(ctx context.Context, ev entity.Event, recipients []types.ID) {
	if h.store != nil {
		if err := h.store.Append(ctx, &ev); err != nil {
			h.log.Error("event append failed", "entity_id", ev.EntityID, "err", err)
		}
	}
	if h.redis != nil {
		if payload, err := json.Marshal(ev); err == nil {
			if err := h.redis.Publish(ctx, Channel, payload).Err(); err != nil {
				h.log.Warn("redis publish failed", "entity_id", ev.EntityID, "err", err)
			}
		}
	}

	h.mu.Lock()
	seen := make(map[types.ID]struct{}, len(recipients))
	for _, uid := range recipients {
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}
		for sub := range h.subs[uid] {
			select {
			case sub.ch <- ev:
			default:
				// Lagging subscriber: drop it rather than block the
				// mutation path. The client resubscribes and dedupes.
				delete(h.subs[uid], sub)
				close(sub.ch)
				observability.Subscribers.Dec()
				h.log.Warn("dropped lagging subscriber", "user_id", uid)
			}
		}
	}
	h.mu.Unlock()
	observability.EventsPublished.Inc()
}

// Subscribe opens an event stream for the user. The returned cancel func is
// idempotent and safe to call after the hub dropped the subscriber.
func (h *Hub) Subscribe(userID types.ID) (<-chan entity.Event, func()) {
	sub := &subscriber{ch: make(chan entity.Event, subscriberBuffer)}

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscriber]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()
	observability.Subscribers.Inc()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[userID][sub]; !ok {
			return
		}
		delete(h.subs[userID], sub)
		close(sub.ch)
		observability.Subscribers.Dec()
	}
	return sub.ch, cancel
}
