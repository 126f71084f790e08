// README: Status transition engine; the sole writer of the status field.
package lifecycle

import (
	"context"
	"time"

	"ozra/internal/geocode"
	"ozra/internal/modules/entity"
	"ozra/internal/observability"
	"ozra/internal/types"
)

// Publisher receives one event per accepted mutation, synchronously, before
// the mutating call returns. Event ordering therefore matches transition
// ordering per entity.
type Publisher interface {
	Publish(ctx context.Context, ev entity.Event, recipients []types.ID)
}

// Indexer keeps the proximity index in step with entity lifetimes. Entries
// are added on creation and dropped on terminal transitions; readers filter
// by status after hydration, so index staleness is never a correctness
// concern and index errors are not allowed to fail a mutation.
type Indexer interface {
	IndexPickup(ctx context.Context, f entity.Family, id types.ID, p types.Point) error
	RemovePickup(ctx context.Context, f entity.Family, id types.ID) error
}

type Service struct {
	store    entity.Store
	events   Publisher
	resolver geocode.Resolver
	index    Indexer
}

// NewService wires the engine. events, resolver and index may be nil:
// without a resolver, creation requires coordinates on every location.
func NewService(store entity.Store, events Publisher, resolver geocode.Resolver, index Indexer) *Service {
	return &Service{store: store, events: events, resolver: resolver, index: index}
}

type CreateRideCommand struct {
	DriverID      types.ID
	Pickup        types.Location
	Destination   types.Location
	Price         types.Money
	SeatsTotal    int
	DepartureTime time.Time
	Preferences   entity.Preferences
	Description   string
	// OwnerRating snapshots the driver's profile rating; zero means unrated
	// and defaults to 5.0.
	OwnerRating float64
}

type CreateDeliveryCommand struct {
	SenderID    types.ID
	Pickup      types.Location
	Destination types.Location
	Price       types.Money
	ParcelSize  string
	WeightKg    float64
	Fragile     bool
	Description string
	Insurance   *types.Money
	OwnerRating float64
}

type CreateFoodOrderCommand struct {
	CustomerID      types.ID
	RestaurantID    types.ID
	Pickup          types.Location // restaurant location
	DeliveryAddress types.Location
	Items           []entity.OrderItem
	Amount          types.Money
	DeliveryFee     int64
	RewardPoints    int64
	PaymentMethod   string
	Instructions    string
	OwnerRating     float64
}

type TransitionCommand struct {
	EntityID types.ID
	ActorID  types.ID
	Target   entity.Status
}

type PaymentCommand struct {
	EntityID types.ID
	ActorID  types.ID
	Status   entity.PaymentStatus
}

func (s *Service) CreateRide(ctx context.Context, cmd CreateRideCommand) (*entity.Entity, error) {
	if cmd.DriverID == "" || cmd.SeatsTotal <= 0 || cmd.Price.Amount <= 0 || cmd.DepartureTime.IsZero() {
		return nil, ErrBadRequest
	}
	if err := s.resolveLocation(ctx, &cmd.Pickup); err != nil {
		return nil, err
	}
	if err := s.resolveLocation(ctx, &cmd.Destination); err != nil {
		return nil, err
	}
	dep := cmd.DepartureTime
	e := s.newEntity(entity.FamilyRide, cmd.DriverID, cmd.Pickup, cmd.Destination, cmd.Price, cmd.OwnerRating)
	e.SeatsTotal = cmd.SeatsTotal
	e.SeatsAvailable = cmd.SeatsTotal
	e.DepartureTime = &dep
	e.Ride = &entity.RideDetails{Preferences: cmd.Preferences, Description: cmd.Description}
	return s.create(ctx, e)
}

func (s *Service) CreateDelivery(ctx context.Context, cmd CreateDeliveryCommand) (*entity.Entity, error) {
	if cmd.SenderID == "" || cmd.Price.Amount <= 0 || cmd.WeightKg <= 0 || !validParcelSize(cmd.ParcelSize) {
		return nil, ErrBadRequest
	}
	if err := s.resolveLocation(ctx, &cmd.Pickup); err != nil {
		return nil, err
	}
	if err := s.resolveLocation(ctx, &cmd.Destination); err != nil {
		return nil, err
	}
	e := s.newEntity(entity.FamilyDelivery, cmd.SenderID, cmd.Pickup, cmd.Destination, cmd.Price, cmd.OwnerRating)
	e.Parcel = &entity.ParcelDetails{
		Size:        cmd.ParcelSize,
		WeightKg:    cmd.WeightKg,
		Fragile:     cmd.Fragile,
		Description: cmd.Description,
		Insurance:   cmd.Insurance,
	}
	return s.create(ctx, e)
}

func (s *Service) CreateFoodOrder(ctx context.Context, cmd CreateFoodOrderCommand) (*entity.Entity, error) {
	if cmd.CustomerID == "" || cmd.RestaurantID == "" || len(cmd.Items) == 0 || cmd.Amount.Amount <= 0 {
		return nil, ErrBadRequest
	}
	for _, it := range cmd.Items {
		if it.Quantity <= 0 {
			return nil, ErrBadRequest
		}
	}
	if err := s.resolveLocation(ctx, &cmd.Pickup); err != nil {
		return nil, err
	}
	if err := s.resolveLocation(ctx, &cmd.DeliveryAddress); err != nil {
		return nil, err
	}
	rest := cmd.RestaurantID
	e := s.newEntity(entity.FamilyFood, cmd.CustomerID, cmd.Pickup, cmd.DeliveryAddress, cmd.Amount, cmd.OwnerRating)
	e.ServiceID = &rest
	e.Food = &entity.FoodDetails{
		Items:           cmd.Items,
		DeliveryFee:     cmd.DeliveryFee,
		RewardPoints:    cmd.RewardPoints,
		PaymentMethod:   cmd.PaymentMethod,
		DeliveryAddress: cmd.DeliveryAddress,
		Instructions:    cmd.Instructions,
	}
	return s.create(ctx, e)
}

func (s *Service) newEntity(f entity.Family, owner types.ID, pickup, dest types.Location, price types.Money, rating float64) *entity.Entity {
	if rating <= 0 {
		rating = 5.0
	}
	now := time.Now()
	return &entity.Entity{
		ID:            entity.NewID(),
		Family:        f,
		OwnerID:       owner,
		Status:        entity.StatusPending,
		StatusVersion: 0,
		Pickup:        pickup,
		Destination:   dest,
		Price:         price,
		PaymentStatus: entity.PaymentPending,
		OwnerRating:   rating,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (s *Service) create(ctx context.Context, e *entity.Entity) (*entity.Entity, error) {
	if err := s.store.Create(ctx, e); err != nil {
		return nil, err
	}
	if s.index != nil {
		_ = s.index.IndexPickup(ctx, e.Family, e.ID, e.Pickup.Point)
	}
	s.publish(ctx, entity.Event{
		EntityID:   e.ID,
		Family:     e.Family,
		Kind:       entity.EventTransition,
		FromStatus: entity.StatusNone,
		ToStatus:   entity.StatusPending,
		Version:    e.StatusVersion,
		ActorID:    e.OwnerID,
		At:         e.CreatedAt,
	}, e)
	return e, nil
}

// Transition validates the edge against the family graph, then the actor
// against the edge's role table, then applies the write under the version
// read here. Order matters: an off-graph target reports InvalidTransition
// even for an actor with no standing at all.
func (s *Service) Transition(ctx context.Context, cmd TransitionCommand) (*entity.Entity, error) {
	e, err := s.store.Get(ctx, cmd.EntityID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(e.Family, e.Status, cmd.Target) {
		observability.ConflictsTotal.WithLabelValues(string(e.Family), "invalid_transition").Inc()
		return nil, ErrInvalidTransition
	}
	if !Authorized(e, cmd.ActorID, e.Status, cmd.Target) {
		observability.ConflictsTotal.WithLabelValues(string(e.Family), "unauthorized").Inc()
		return nil, ErrUnauthorized
	}

	release := cmd.Target.Terminal()
	ok, err := s.store.UpdateStatus(ctx, e.ID, e.Status, cmd.Target, e.StatusVersion, release)
	if err != nil {
		return nil, err
	}
	if !ok {
		observability.ConflictsTotal.WithLabelValues(string(e.Family), "version").Inc()
		return nil, ErrConflict
	}

	from := e.Status
	e.Status = cmd.Target
	e.StatusVersion++
	if release {
		e.SeatsAvailable = e.SeatsTotal
		if s.index != nil {
			_ = s.index.RemovePickup(ctx, e.Family, e.ID)
		}
	}
	observability.TransitionsTotal.WithLabelValues(string(e.Family), string(cmd.Target)).Inc()
	s.publish(ctx, entity.Event{
		EntityID:   e.ID,
		Family:     e.Family,
		Kind:       entity.EventTransition,
		FromStatus: from,
		ToStatus:   cmd.Target,
		Version:    e.StatusVersion,
		ActorID:    cmd.ActorID,
		At:         time.Now(),
	}, e)
	return e, nil
}

// Cancel is sugar for a transition to cancelled; it follows the same
// concurrency discipline as any other edge.
func (s *Service) Cancel(ctx context.Context, entityID, actorID types.ID) (*entity.Entity, error) {
	return s.Transition(ctx, TransitionCommand{EntityID: entityID, ActorID: actorID, Target: entity.StatusCancelled})
}

// ReportPayment records payment finality reported back by the wallet signer.
// Cancellation after a completed payment does not touch paymentStatus here;
// reversal is the signer's concern.
func (s *Service) ReportPayment(ctx context.Context, cmd PaymentCommand) (*entity.Entity, error) {
	if !cmd.Status.Valid() {
		return nil, ErrBadRequest
	}
	e, err := s.store.Get(ctx, cmd.EntityID)
	if err != nil {
		return nil, err
	}
	if len(RolesOf(e, cmd.ActorID)) == 0 {
		return nil, ErrUnauthorized
	}
	if err := s.store.UpdatePayment(ctx, e.ID, cmd.Status); err != nil {
		return nil, err
	}
	e.PaymentStatus = cmd.Status
	s.publish(ctx, entity.Event{
		EntityID:   e.ID,
		Family:     e.Family,
		Kind:       entity.EventPayment,
		FromStatus: e.Status,
		ToStatus:   e.Status,
		Version:    e.StatusVersion,
		ActorID:    cmd.ActorID,
		At:         time.Now(),
	}, e)
	return e, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*entity.Entity, error) {
	return s.store.Get(ctx, id)
}

// ListForUser returns entities the user participates in, optionally narrowed
// to one side of the relationship.
func (s *Service) ListForUser(ctx context.Context, f entity.Family, userID types.ID, side string) ([]*entity.Entity, error) {
	filter := entity.Filter{Family: f}
	switch side {
	case "owner":
		filter.OwnerID = userID
	case "assignee":
		filter.AssigneeID = userID
	case "":
		filter.ParticipantID = userID
	default:
		return nil, ErrBadRequest
	}
	return s.store.Query(ctx, filter)
}

func (s *Service) resolveLocation(ctx context.Context, loc *types.Location) error {
	if !loc.Zero() {
		return nil
	}
	addr := loc.Address
	if addr == "" {
		addr = loc.Name
	}
	if addr == "" {
		return ErrBadRequest
	}
	if s.resolver == nil {
		return ErrBadRequest
	}
	p, err := s.resolver.Resolve(ctx, addr)
	if err != nil {
		return err
	}
	loc.Point = p
	return nil
}

func (s *Service) publish(ctx context.Context, ev entity.Event, e *entity.Entity) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, ev, e.Parties())
}

func validParcelSize(v string) bool {
	switch v {
	case "small", "medium", "large":
		return true
	}
	return false
}
