// README: Entity record shared by the ride, delivery and food order families.
package entity

import (
	"time"

	"ozra/internal/types"
)

type Family string

const (
	FamilyRide     Family = "ride"
	FamilyDelivery Family = "delivery"
	FamilyFood     Family = "food_order"
)

func (f Family) Valid() bool {
	switch f {
	case FamilyRide, FamilyDelivery, FamilyFood:
		return true
	}
	return false
}

type Status string

const (
	StatusNone       Status = "none"
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusInProgress Status = "inProgress"
	StatusCompleted  Status = "completed"
	StatusConfirmed  Status = "confirmed"
	StatusPreparing  Status = "preparing"
	StatusReady      Status = "ready"
	StatusPickedUp   Status = "picked_up"
	StatusDelivering Status = "delivering"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further transition leaves the status.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return true
	}
	return false
}

// Entity is the tagged record backing all three families. Common lifecycle
// fields live in columns; family-specific payloads hang off the detail
// pointers and exactly one of them is set, matching the Family tag.
type Entity struct {
	ID             types.ID
	Family         Family
	OwnerID        types.ID
	AssigneeID     *types.ID
	ServiceID      *types.ID // restaurant for food orders
	Status         Status
	StatusVersion  int
	Pickup         types.Location
	Destination    types.Location
	Price          types.Money
	PaymentStatus  PaymentStatus
	// OwnerRating is the owner's profile rating snapshotted at creation,
	// used by search filtering. 5.0 when the profile carries none.
	OwnerRating    float64
	SeatsTotal     int
	SeatsAvailable int
	DepartureTime  *time.Time

	Ride   *RideDetails   `json:"ride,omitempty"`
	Parcel *ParcelDetails `json:"parcel,omitempty"`
	Food   *FoodDetails   `json:"food,omitempty"`

	Bookings []Booking

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Parties returns every user holding read/event rights on the entity.
func (e *Entity) Parties() []types.ID {
	ids := []types.ID{e.OwnerID}
	if e.AssigneeID != nil {
		ids = append(ids, *e.AssigneeID)
	}
	if e.ServiceID != nil {
		ids = append(ids, *e.ServiceID)
	}
	for _, b := range e.Bookings {
		if e.AssigneeID == nil || b.PassengerID != *e.AssigneeID {
			ids = append(ids, b.PassengerID)
		}
	}
	return ids
}

type Preferences struct {
	Smoking     bool   `json:"smoking"`
	Pets        bool   `json:"pets"`
	Music       bool   `json:"music"`
	LuggageSize string `json:"luggage_size,omitempty"`
}

type RideDetails struct {
	Preferences Preferences `json:"preferences"`
	Description string      `json:"description,omitempty"`
}

type ParcelDetails struct {
	Size        string       `json:"size"` // small | medium | large
	WeightKg    float64      `json:"weight_kg"`
	Fragile     bool         `json:"fragile"`
	Description string       `json:"description,omitempty"`
	Insurance   *types.Money `json:"insurance,omitempty"`
}

type OrderItem struct {
	ItemID    types.ID `json:"item_id"`
	Name      string   `json:"name"`
	Quantity  int      `json:"quantity"`
	UnitPrice int64    `json:"unit_price"`
}

type FoodDetails struct {
	Items           []OrderItem    `json:"items"`
	DeliveryFee     int64          `json:"delivery_fee"`
	RewardPoints    int64          `json:"reward_points"`
	PaymentMethod   string         `json:"payment_method"`
	DeliveryAddress types.Location `json:"delivery_address"`
	Instructions    string         `json:"instructions,omitempty"`
	// CourierLocation is only written while the order is picked_up or
	// delivering; the store enforces the status gate.
	CourierLocation *types.Point `json:"courier_location,omitempty"`
}

// Booking is one passenger's seat reservation on a ride.
type Booking struct {
	PassengerID types.ID
	Seats       int
	BookedAt    time.Time
}

// Event is one accepted mutation, appended to the audit log and fanned out
// to subscribers. Kind distinguishes plain transitions from assignments and
// payment finality reports.
type Event struct {
	ID         int64
	EntityID   types.ID
	Family     Family
	Kind       string // transition | assignment | payment
	FromStatus Status
	ToStatus   Status
	// Version is the entity's status_version after the mutation.
	// (EntityID, Version) identifies an event uniquely even when repeated
	// seat bookings share the same (FromStatus, ToStatus) pair, so it is
	// the consumer-side dedup key.
	Version int
	ActorID types.ID
	At      time.Time
}

const (
	EventTransition = "transition"
	EventAssignment = "assignment"
	EventPayment    = "payment"
)
