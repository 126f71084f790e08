// README: Courier location updates, gated on the order's delivery window.
package location

import (
	"context"
	"time"

	"ozra/internal/modules/entity"
	"ozra/internal/modules/lifecycle"
	"ozra/internal/types"
)

type Service struct {
	entities entity.Store
	store    *Store
}

// NewService wires courier tracking. store may be nil in tests; the entity
// write is the part that carries the contract.
func NewService(entities entity.Store, store *Store) *Service {
	return &Service{entities: entities, store: store}
}

type UpdateCommand struct {
	EntityID types.ID
	ActorID  types.ID
	Position types.Point
}

// UpdateCourierLocation writes the courier's position onto a food order.
// Only the assigned courier may report, and only while the order is
// picked_up or delivering; outside that window the update is rejected, not
// silently dropped.
func (s *Service) UpdateCourierLocation(ctx context.Context, cmd UpdateCommand) error {
	e, err := s.entities.Get(ctx, cmd.EntityID)
	if err != nil {
		return err
	}
	if e.Family != entity.FamilyFood {
		return lifecycle.ErrBadRequest
	}
	if e.AssigneeID == nil || *e.AssigneeID != cmd.ActorID {
		return lifecycle.ErrUnauthorized
	}

	ok, err := s.entities.UpdateCourierLocation(ctx, e.ID, cmd.Position)
	if err != nil {
		return err
	}
	if !ok {
		return lifecycle.ErrInvalidTransition
	}

	if s.store != nil {
		_ = s.store.SetPresence(ctx, cmd.ActorID, cmd.Position)
		_ = s.store.AppendSnapshot(ctx, Snapshot{
			EntityID:   e.ID,
			CourierID:  cmd.ActorID,
			Position:   cmd.Position,
			RecordedAt: time.Now(),
		})
	}
	return nil
}

// SetPresence lets an idle courier advertise availability for dispatch.
func (s *Service) SetPresence(ctx context.Context, courierID types.ID, pos types.Point) error {
	if courierID == "" {
		return lifecycle.ErrBadRequest
	}
	if s.store == nil {
		return nil
	}
	return s.store.SetPresence(ctx, courierID, pos)
}

// ClearPresence removes the courier from the availability set.
func (s *Service) ClearPresence(ctx context.Context, courierID types.ID) error {
	if courierID == "" {
		return lifecycle.ErrBadRequest
	}
	if s.store == nil {
		return nil
	}
	return s.store.ClearPresence(ctx, courierID)
}
