// README: In-memory store with the same compare-and-set semantics as PGStore.
package entity

import (
	"context"
	"sort"
	"sync"
	"time"

	"ozra/internal/types"
)

// MemStore backs tests and local development. All conditional writes are
// serialized under one mutex, so the version discipline behaves exactly as
// the SQL WHERE clauses do under concurrent callers.
type MemStore struct {
	mu       sync.Mutex
	entities map[types.ID]*Entity
}

func NewMemStore() *MemStore {
	return &MemStore{entities: make(map[types.ID]*Entity)}
}

func (m *MemStore) Create(_ context.Context, e *Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entities[e.ID] = clone(e)
	return nil
}

func (m *MemStore) Get(_ context.Context, id types.ID) (*Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entities[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(e), nil
}

func (m *MemStore) UpdateStatus(_ context.Context, id types.ID, from, to Status, version int, releaseCapacity bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entities[id]
	if !ok {
		return false, ErrNotFound
	}
	if e.Status != from || e.StatusVersion != version {
		return false, nil
	}
	e.Status = to
	e.StatusVersion++
	if releaseCapacity {
		e.SeatsAvailable = e.SeatsTotal
	}
	e.UpdatedAt = time.Now()
	return true, nil
}

func (m *MemStore) AssignSeats(_ context.Context, id types.ID, passenger types.ID, seats, version int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entities[id]
	if !ok {
		return false, ErrNotFound
	}
	if e.Status != StatusPending || e.StatusVersion != version || e.SeatsAvailable < seats {
		return false, nil
	}
	e.SeatsAvailable -= seats
	e.Bookings = append(e.Bookings, Booking{PassengerID: passenger, Seats: seats, BookedAt: time.Now()})
	if e.AssigneeID == nil {
		p := passenger
		e.AssigneeID = &p
	}
	e.StatusVersion++
	e.UpdatedAt = time.Now()
	return true, nil
}

func (m *MemStore) AssignExclusive(_ context.Context, id types.ID, assignee types.ID, to Status, version int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entities[id]
	if !ok {
		return false, ErrNotFound
	}
	if e.Status != StatusPending || e.StatusVersion != version || e.AssigneeID != nil {
		return false, nil
	}
	a := assignee
	e.AssigneeID = &a
	e.Status = to
	e.StatusVersion++
	e.UpdatedAt = time.Now()
	return true, nil
}

func (m *MemStore) UpdatePayment(_ context.Context, id types.ID, status PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entities[id]
	if !ok {
		return ErrNotFound
	}
	e.PaymentStatus = status
	e.UpdatedAt = time.Now()
	return nil
}

func (m *MemStore) UpdateCourierLocation(_ context.Context, id types.ID, pos types.Point) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entities[id]
	if !ok {
		return false, ErrNotFound
	}
	if e.Food == nil || (e.Status != StatusPickedUp && e.Status != StatusDelivering) {
		return false, nil
	}
	p := pos
	e.Food.CourierLocation = &p
	e.UpdatedAt = time.Now()
	return true, nil
}

func (m *MemStore) Query(_ context.Context, f Filter) ([]*Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Entity
	for _, e := range m.entities {
		if !matches(e, f) {
			continue
		}
		out = append(out, clone(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func matches(e *Entity, f Filter) bool {
	if f.Family != "" && e.Family != f.Family {
		return false
	}
	if !statusIn(e.Status, f.Statuses) {
		return false
	}
	if f.OwnerID != "" && e.OwnerID != f.OwnerID {
		return false
	}
	if f.AssigneeID != "" && (e.AssigneeID == nil || *e.AssigneeID != f.AssigneeID) {
		return false
	}
	if f.ServiceID != "" && (e.ServiceID == nil || *e.ServiceID != f.ServiceID) {
		return false
	}
	if f.ParticipantID != "" && !isParticipant(e, f.ParticipantID) {
		return false
	}
	return true
}

func isParticipant(e *Entity, id types.ID) bool {
	for _, p := range e.Parties() {
		if p == id {
			return true
		}
	}
	return false
}

func clone(e *Entity) *Entity {
	c := *e
	if e.AssigneeID != nil {
		v := *e.AssigneeID
		c.AssigneeID = &v
	}
	if e.ServiceID != nil {
		v := *e.ServiceID
		c.ServiceID = &v
	}
	if e.DepartureTime != nil {
		v := *e.DepartureTime
		c.DepartureTime = &v
	}
	if e.Ride != nil {
		v := *e.Ride
		c.Ride = &v
	}
	if e.Parcel != nil {
		v := *e.Parcel
		if e.Parcel.Insurance != nil {
			ins := *e.Parcel.Insurance
			v.Insurance = &ins
		}
		c.Parcel = &v
	}
	if e.Food != nil {
		v := *e.Food
		v.Items = append([]OrderItem(nil), e.Food.Items...)
		if e.Food.CourierLocation != nil {
			p := *e.Food.CourierLocation
			v.CourierLocation = &p
		}
		c.Food = &v
	}
	c.Bookings = append([]Booking(nil), e.Bookings...)
	return &c
}
