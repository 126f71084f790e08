package lifecycle_test

import (
	"testing"

	"ozra/internal/modules/entity"
	"ozra/internal/modules/lifecycle"
	"ozra/internal/types"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name   string
		family entity.Family
		from   entity.Status
		to     entity.Status
		want   bool
	}{
		{"ride accept", entity.FamilyRide, entity.StatusPending, entity.StatusAccepted, true},
		{"ride start", entity.FamilyRide, entity.StatusAccepted, entity.StatusInProgress, true},
		{"ride complete", entity.FamilyRide, entity.StatusInProgress, entity.StatusCompleted, true},
		{"ride cancel pending", entity.FamilyRide, entity.StatusPending, entity.StatusCancelled, true},
		{"ride cancel in progress", entity.FamilyRide, entity.StatusInProgress, entity.StatusCancelled, false},
		{"ride skip to completed", entity.FamilyRide, entity.StatusPending, entity.StatusCompleted, false},
		{"ride backwards", entity.FamilyRide, entity.StatusAccepted, entity.StatusPending, false},
		{"ride from terminal", entity.FamilyRide, entity.StatusCompleted, entity.StatusCancelled, false},
		{"ride food status", entity.FamilyRide, entity.StatusPending, entity.StatusConfirmed, false},

		{"delivery accept", entity.FamilyDelivery, entity.StatusPending, entity.StatusAccepted, true},
		{"delivery complete", entity.FamilyDelivery, entity.StatusInProgress, entity.StatusCompleted, true},
		{"delivery cancel accepted", entity.FamilyDelivery, entity.StatusAccepted, entity.StatusCancelled, true},
		{"delivery cancel delivered", entity.FamilyDelivery, entity.StatusDelivering, entity.StatusCancelled, false},

		{"food confirm", entity.FamilyFood, entity.StatusPending, entity.StatusConfirmed, true},
		{"food prepare", entity.FamilyFood, entity.StatusConfirmed, entity.StatusPreparing, true},
		{"food ready", entity.FamilyFood, entity.StatusPreparing, entity.StatusReady, true},
		{"food pickup", entity.FamilyFood, entity.StatusReady, entity.StatusPickedUp, true},
		{"food deliver", entity.FamilyFood, entity.StatusPickedUp, entity.StatusDelivering, true},
		{"food delivered", entity.FamilyFood, entity.StatusDelivering, entity.StatusDelivered, true},
		{"food cancel delivering", entity.FamilyFood, entity.StatusDelivering, entity.StatusCancelled, true},
		{"food cancel from delivered", entity.FamilyFood, entity.StatusDelivered, entity.StatusCancelled, false},
		{"food skip preparing", entity.FamilyFood, entity.StatusConfirmed, entity.StatusReady, false},
		{"food ride status", entity.FamilyFood, entity.StatusPending, entity.StatusAccepted, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := lifecycle.CanTransition(tc.family, tc.from, tc.to); got != tc.want {
				t.Errorf("CanTransition(%s, %s, %s) = %v, want %v", tc.family, tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func idPtr(v types.ID) *types.ID { return &v }

func TestRolesOf(t *testing.T) {
	ride := &entity.Entity{
		Family:     entity.FamilyRide,
		OwnerID:    "driver1",
		AssigneeID: idPtr("passenger1"),
		Bookings: []entity.Booking{
			{PassengerID: "passenger1", Seats: 1},
			{PassengerID: "passenger2", Seats: 2},
		},
	}
	if roles := lifecycle.RolesOf(ride, "driver1"); len(roles) != 1 || roles[0] != lifecycle.RoleOwner {
		t.Errorf("driver roles = %v", roles)
	}
	if roles := lifecycle.RolesOf(ride, "passenger2"); len(roles) != 1 || roles[0] != lifecycle.RoleAssignee {
		t.Errorf("booked passenger roles = %v", roles)
	}
	if roles := lifecycle.RolesOf(ride, "stranger"); len(roles) != 0 {
		t.Errorf("stranger roles = %v", roles)
	}

	food := &entity.Entity{
		Family:     entity.FamilyFood,
		OwnerID:    "customer1",
		AssigneeID: idPtr("courier1"),
		ServiceID:  idPtr("restaurant1"),
	}
	if roles := lifecycle.RolesOf(food, "restaurant1"); len(roles) != 1 || roles[0] != lifecycle.RoleService {
		t.Errorf("restaurant roles = %v", roles)
	}
}

func TestAuthorized(t *testing.T) {
	delivery := &entity.Entity{
		Family:     entity.FamilyDelivery,
		OwnerID:    "sender1",
		AssigneeID: idPtr("courier1"),
	}
	cases := []struct {
		name  string
		actor types.ID
		from  entity.Status
		to    entity.Status
		want  bool
	}{
		{"courier advances", "courier1", entity.StatusAccepted, entity.StatusInProgress, true},
		{"sender cannot advance", "sender1", entity.StatusAccepted, entity.StatusInProgress, false},
		{"sender cancels pending", "sender1", entity.StatusPending, entity.StatusCancelled, true},
		{"courier cannot cancel pending", "courier1", entity.StatusPending, entity.StatusCancelled, false},
		{"both cancel accepted", "courier1", entity.StatusAccepted, entity.StatusCancelled, true},
		{"stranger", "other", entity.StatusAccepted, entity.StatusInProgress, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := lifecycle.Authorized(delivery, tc.actor, tc.from, tc.to); got != tc.want {
				t.Errorf("Authorized(%s, %s→%s) = %v, want %v", tc.actor, tc.from, tc.to, got, tc.want)
			}
		})
	}

	food := &entity.Entity{
		Family:     entity.FamilyFood,
		OwnerID:    "customer1",
		AssigneeID: idPtr("courier1"),
		ServiceID:  idPtr("restaurant1"),
	}
	if !lifecycle.Authorized(food, "restaurant1", entity.StatusConfirmed, entity.StatusPreparing) {
		t.Error("restaurant should drive confirmed→preparing")
	}
	if lifecycle.Authorized(food, "courier1", entity.StatusConfirmed, entity.StatusPreparing) {
		t.Error("courier must not drive confirmed→preparing")
	}
	if !lifecycle.Authorized(food, "courier1", entity.StatusReady, entity.StatusPickedUp) {
		t.Error("courier should drive ready→picked_up")
	}
	if lifecycle.Authorized(food, "customer1", entity.StatusPreparing, entity.StatusCancelled) {
		t.Error("customer must not cancel once preparing")
	}
}
