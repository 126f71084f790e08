// README: Entity store backed by PostgreSQL.
package entity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ozra/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// detailsDoc is the JSONB payload; exactly one member set per row.
type detailsDoc struct {
	Ride   *RideDetails   `json:"ride,omitempty"`
	Parcel *ParcelDetails `json:"parcel,omitempty"`
	Food   *FoodDetails   `json:"food,omitempty"`
}

const entityColumns = `
	id, family, owner_id, assignee_id, service_id, status, status_version,
	pickup_name, pickup_address, pickup_lat, pickup_lng,
	dest_name, dest_address, dest_lat, dest_lng,
	price_amount, price_currency, payment_status, owner_rating,
	seats_total, seats_available, departure_time,
	details, created_at, updated_at`

func (s *PGStore) Create(ctx context.Context, e *Entity) error {
	doc, err := json.Marshal(detailsDoc{Ride: e.Ride, Parcel: e.Parcel, Food: e.Food})
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO entities (`+entityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
		        $8, $9, $10, $11,
		        $12, $13, $14, $15,
		        $16, $17, $18, $19,
		        $20, $21, $22,
		        $23, $24, $25)`,
		string(e.ID), string(e.Family), string(e.OwnerID),
		idPtr(e.AssigneeID), idPtr(e.ServiceID),
		string(e.Status), e.StatusVersion,
		e.Pickup.Name, e.Pickup.Address, e.Pickup.Lat, e.Pickup.Lng,
		e.Destination.Name, e.Destination.Address, e.Destination.Lat, e.Destination.Lng,
		e.Price.Amount, e.Price.Currency, string(e.PaymentStatus), e.OwnerRating,
		e.SeatsTotal, e.SeatsAvailable, e.DepartureTime,
		doc, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Entity, error) {
	row := s.db.QueryRow(ctx, `SELECT `+entityColumns+` FROM entities WHERE id = $1`, string(id))
	e, err := scanEntity(row)
	if err != nil {
		return nil, err
	}
	if e.Family == FamilyRide {
		if err := s.loadBookings(ctx, e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (s *PGStore) loadBookings(ctx context.Context, e *Entity) error {
	rows, err := s.db.Query(ctx, `
		SELECT passenger_id, seats, booked_at
		FROM ride_bookings
		WHERE entity_id = $1
		ORDER BY booked_at`, string(e.ID))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var b Booking
		var pid string
		if err := rows.Scan(&pid, &b.Seats, &b.BookedAt); err != nil {
			return err
		}
		b.PassengerID = types.ID(pid)
		e.Bookings = append(e.Bookings, b)
	}
	return rows.Err()
}

func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, releaseCapacity bool) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE entities
		SET status = $1,
		    status_version = status_version + 1,
		    seats_available = CASE WHEN $2 THEN seats_total ELSE seats_available END,
		    updated_at = NOW()
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to), releaseCapacity, string(id), string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) AssignSeats(ctx context.Context, id types.ID, passenger types.ID, seats, version int) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE entities
		SET seats_available = seats_available - $1,
		    assignee_id = COALESCE(assignee_id, $2),
		    status_version = status_version + 1,
		    updated_at = NOW()
		WHERE id = $3 AND family = 'ride' AND status = 'pending'
		  AND status_version = $4 AND seats_available >= $1`,
		seats, string(passenger), string(id), version,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO ride_bookings (entity_id, passenger_id, seats, booked_at)
		VALUES ($1, $2, $3, NOW())`,
		string(id), string(passenger), seats,
	); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

func (s *PGStore) AssignExclusive(ctx context.Context, id types.ID, assignee types.ID, to Status, version int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE entities
		SET assignee_id = $1,
		    status = $2,
		    status_version = status_version + 1,
		    updated_at = NOW()
		WHERE id = $3 AND status = 'pending'
		  AND assignee_id IS NULL AND status_version = $4`,
		string(assignee), string(to), string(id), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) UpdatePayment(ctx context.Context, id types.ID, status PaymentStatus) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE entities SET payment_status = $1, updated_at = NOW() WHERE id = $2`,
		string(status), string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) UpdateCourierLocation(ctx context.Context, id types.ID, pos types.Point) (bool, error) {
	doc, err := json.Marshal(pos)
	if err != nil {
		return false, err
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE entities
		SET details = jsonb_set(details, '{food,courier_location}', $1::jsonb),
		    updated_at = NOW()
		WHERE id = $2 AND family = 'food_order'
		  AND status IN ('picked_up', 'delivering')`,
		doc, string(id),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) Query(ctx context.Context, f Filter) ([]*Entity, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Family != "" {
		add("family = $%d", string(f.Family))
	}
	if len(f.Statuses) > 0 {
		set := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			set[i] = string(st)
		}
		add("status = ANY($%d)", set)
	}
	if f.OwnerID != "" {
		add("owner_id = $%d", string(f.OwnerID))
	}
	if f.AssigneeID != "" {
		add("assignee_id = $%d", string(f.AssigneeID))
	}
	if f.ServiceID != "" {
		add("service_id = $%d", string(f.ServiceID))
	}
	if f.ParticipantID != "" {
		args = append(args, string(f.ParticipantID))
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			`(owner_id = $%d OR assignee_id = $%d OR service_id = $%d
			  OR id IN (SELECT entity_id FROM ride_bookings WHERE passenger_id = $%d))`,
			n, n, n, n))
	}

	q := `SELECT ` + entityColumns + ` FROM entities`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.loadBookingsBatch(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadBookingsBatch attaches bookings to every ride row in one query, so
// Query results carry the same shape Get does.
func (s *PGStore) loadBookingsBatch(ctx context.Context, entities []*Entity) error {
	byID := make(map[types.ID]*Entity)
	var ids []string
	for _, e := range entities {
		if e.Family == FamilyRide {
			byID[e.ID] = e
			ids = append(ids, string(e.ID))
		}
	}
	if len(ids) == 0 {
		return nil
	}
	rows, err := s.db.Query(ctx, `
		SELECT entity_id, passenger_id, seats, booked_at
		FROM ride_bookings
		WHERE entity_id = ANY($1)
		ORDER BY booked_at`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var b Booking
		var eid, pid string
		if err := rows.Scan(&eid, &pid, &b.Seats, &b.BookedAt); err != nil {
			return err
		}
		b.PassengerID = types.ID(pid)
		if e := byID[types.ID(eid)]; e != nil {
			e.Bookings = append(e.Bookings, b)
		}
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*Entity, error) {
	var (
		e         Entity
		id, fam   string
		owner     string
		assignee  *string
		service   *string
		status    string
		payStatus string
		departure *time.Time
		doc       []byte
	)
	err := row.Scan(
		&id, &fam, &owner, &assignee, &service, &status, &e.StatusVersion,
		&e.Pickup.Name, &e.Pickup.Address, &e.Pickup.Lat, &e.Pickup.Lng,
		&e.Destination.Name, &e.Destination.Address, &e.Destination.Lat, &e.Destination.Lng,
		&e.Price.Amount, &e.Price.Currency, &payStatus, &e.OwnerRating,
		&e.SeatsTotal, &e.SeatsAvailable, &departure,
		&doc, &e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	e.ID = types.ID(id)
	e.Family = Family(fam)
	e.OwnerID = types.ID(owner)
	if assignee != nil {
		v := types.ID(*assignee)
		e.AssigneeID = &v
	}
	if service != nil {
		v := types.ID(*service)
		e.ServiceID = &v
	}
	e.Status = Status(status)
	e.PaymentStatus = PaymentStatus(payStatus)
	e.DepartureTime = departure

	var d detailsDoc
	if len(doc) > 0 {
		if err := json.Unmarshal(doc, &d); err != nil {
			return nil, err
		}
	}
	e.Ride, e.Parcel, e.Food = d.Ride, d.Parcel, d.Food
	return &e, nil
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
