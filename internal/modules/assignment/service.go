// README: Binds a second party to a pending entity under the version discipline.
package assignment

import (
	"context"
	"time"

	"ozra/internal/modules/entity"
	"ozra/internal/modules/lifecycle"
	"ozra/internal/observability"
	"ozra/internal/types"
)

type Service struct {
	store  entity.Store
	events lifecycle.Publisher
}

func NewService(store entity.Store, events lifecycle.Publisher) *Service {
	return &Service{store: store, events: events}
}

type AssignCommand struct {
	EntityID types.ID
	ActorID  types.ID
	// Seats applies to rides only; zero means one seat.
	Seats int
}

// Assign books a seat on a ride, or exclusively binds a courier to a
// delivery or food order. Ride assignment is per-seat and leaves the ride
// pending so further passengers can book until the driver closes it or the
// seats run out; the exclusive families advance to accepted/confirmed in the
// same conditional write that binds the assignee, so two concurrent accepts
// can never both succeed.
func (s *Service) Assign(ctx context.Context, cmd AssignCommand) (*entity.Entity, error) {
	if cmd.ActorID == "" {
		return nil, lifecycle.ErrBadRequest
	}
	e, err := s.store.Get(ctx, cmd.EntityID)
	if err != nil {
		return nil, err
	}
	if cmd.ActorID == e.OwnerID {
		return nil, lifecycle.ErrUnauthorized
	}
	if e.Family == entity.FamilyRide {
		return s.assignSeats(ctx, e, cmd)
	}
	return s.assignExclusive(ctx, e, cmd.ActorID)
}

func (s *Service) assignSeats(ctx context.Context, e *entity.Entity, cmd AssignCommand) (*entity.Entity, error) {
	seats := cmd.Seats
	if seats <= 0 {
		seats = 1
	}
	if e.Status != entity.StatusPending {
		return nil, lifecycle.ErrAlreadyAssigned
	}
	if seats > e.SeatsAvailable {
		return nil, lifecycle.ErrInsufficientCapacity
	}

	ok, err := s.store.AssignSeats(ctx, e.ID, cmd.ActorID, seats, e.StatusVersion)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.classifySeatFailure(ctx, e.ID, seats)
	}

	e.SeatsAvailable -= seats
	e.StatusVersion++
	e.Bookings = append(e.Bookings, entity.Booking{PassengerID: cmd.ActorID, Seats: seats, BookedAt: time.Now()})
	if e.AssigneeID == nil {
		p := cmd.ActorID
		e.AssigneeID = &p
	}
	observability.AssignmentsTotal.WithLabelValues(string(e.Family)).Inc()
	s.publish(ctx, e, entity.Event{
		EntityID:   e.ID,
		Family:     e.Family,
		Kind:       entity.EventAssignment,
		FromStatus: entity.StatusPending,
		ToStatus:   entity.StatusPending,
		Version:    e.StatusVersion,
		ActorID:    cmd.ActorID,
		At:         time.Now(),
	})
	return e, nil
}

func (s *Service) assignExclusive(ctx context.Context, e *entity.Entity, actor types.ID) (*entity.Entity, error) {
	if e.Status != entity.StatusPending || e.AssigneeID != nil {
		return nil, lifecycle.ErrAlreadyAssigned
	}
	target := entity.StatusAccepted
	if e.Family == entity.FamilyFood {
		target = entity.StatusConfirmed
	}

	ok, err := s.store.AssignExclusive(ctx, e.ID, actor, target, e.StatusVersion)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.classifyExclusiveFailure(ctx, e.ID)
	}

	a := actor
	e.AssigneeID = &a
	e.Status = target
	e.StatusVersion++
	observability.AssignmentsTotal.WithLabelValues(string(e.Family)).Inc()
	observability.TransitionsTotal.WithLabelValues(string(e.Family), string(target)).Inc()
	s.publish(ctx, e, entity.Event{
		EntityID:   e.ID,
		Family:     e.Family,
		Kind:       entity.EventAssignment,
		FromStatus: entity.StatusPending,
		ToStatus:   target,
		Version:    e.StatusVersion,
		ActorID:    actor,
		At:         time.Now(),
	})
	return e, nil
}

// classifySeatFailure re-reads the ride after a lost compare-and-set so the
// caller learns whether retry is safe (Conflict) or pointless.
func (s *Service) classifySeatFailure(ctx context.Context, id types.ID, seats int) error {
	cur, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	switch {
	case cur.Status != entity.StatusPending:
		observability.ConflictsTotal.WithLabelValues(string(cur.Family), "already_assigned").Inc()
		return lifecycle.ErrAlreadyAssigned
	case cur.SeatsAvailable < seats:
		observability.ConflictsTotal.WithLabelValues(string(cur.Family), "capacity").Inc()
		return lifecycle.ErrInsufficientCapacity
	default:
		observability.ConflictsTotal.WithLabelValues(string(cur.Family), "version").Inc()
		return lifecycle.ErrConflict
	}
}

func (s *Service) classifyExclusiveFailure(ctx context.Context, id types.ID) error {
	cur, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if cur.AssigneeID != nil || cur.Status != entity.StatusPending {
		observability.ConflictsTotal.WithLabelValues(string(cur.Family), "already_assigned").Inc()
		return lifecycle.ErrAlreadyAssigned
	}
	observability.ConflictsTotal.WithLabelValues(string(cur.Family), "version").Inc()
	return lifecycle.ErrConflict
}

func (s *Service) publish(ctx context.Context, e *entity.Entity, ev entity.Event) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, ev, e.Parties())
}
