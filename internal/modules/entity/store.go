// README: Store contract for entity persistence; implemented by PGStore and MemStore.
package entity

import (
	"context"
	"errors"

	"ozra/internal/types"
)

var ErrNotFound = errors.New("entity not found")

// Filter narrows a Query. Zero values mean "any".
type Filter struct {
	Family   Family
	Statuses []Status
	// ParticipantID matches owner, assignee or booked passenger.
	ParticipantID types.ID
	OwnerID       types.ID
	AssigneeID    types.ID
	ServiceID     types.ID
	Limit         int
}

// Store is the persistence boundary. Every conditional write takes the
// version the caller read; a false return means the row moved underneath
// the caller (lost the race) and nothing was written.
type Store interface {
	Create(ctx context.Context, e *Entity) error
	Get(ctx context.Context, id types.ID) (*Entity, error)

	// UpdateStatus applies from→to if and only if the row still carries
	// (from, version). releaseCapacity restores seats_available to
	// seats_total in the same write (terminal transitions).
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, releaseCapacity bool) (bool, error)

	// AssignSeats books seats on a pending ride: decrements availability,
	// records the booking, sets the first passenger as assignee. Fails the
	// compare-and-set when the ride left pending, the version moved, or
	// fewer than seats remain.
	AssignSeats(ctx context.Context, id types.ID, passenger types.ID, seats, version int) (bool, error)

	// AssignExclusive binds the single assignee and advances the status in
	// one conditional write. Fails when an assignee is already bound, the
	// status left pending, or the version moved.
	AssignExclusive(ctx context.Context, id types.ID, assignee types.ID, to Status, version int) (bool, error)

	// UpdatePayment records payment finality reported by the wallet signer.
	UpdatePayment(ctx context.Context, id types.ID, status PaymentStatus) error

	// UpdateCourierLocation writes the courier position while the order is
	// picked_up or delivering; returns false outside that window.
	UpdateCourierLocation(ctx context.Context, id types.ID, pos types.Point) (bool, error)

	Query(ctx context.Context, f Filter) ([]*Entity, error)
}

func statusIn(s Status, set []Status) bool {
	if len(set) == 0 {
		return true
	}
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
