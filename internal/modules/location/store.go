// README: Courier presence in Redis GEO plus Postgres snapshot history.
package location

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"ozra/internal/types"
)

const courierGeoKey = "location:couriers"

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, redis *redis.Client) *Store {
	return &Store{db: db, redis: redis}
}

// SetPresence publishes the courier's latest position for proximity lookups.
func (s *Store) SetPresence(ctx context.Context, courierID types.ID, pos types.Point) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.GeoAdd(ctx, courierGeoKey, &redis.GeoLocation{
		Name:      string(courierID),
		Longitude: pos.Lng,
		Latitude:  pos.Lat,
	}).Err()
}

// ClearPresence removes a courier that went offline.
func (s *Store) ClearPresence(ctx context.Context, courierID types.ID) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.ZRem(ctx, courierGeoKey, string(courierID)).Err()
}

// AppendSnapshot records the position against the order for later replay.
func (s *Store) AppendSnapshot(ctx context.Context, snap Snapshot) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO courier_location_snapshots (
			entity_id, courier_id, lat, lng, recorded_at
		) VALUES ($1, $2, $3, $4, $5)`,
		string(snap.EntityID),
		string(snap.CourierID),
		snap.Position.Lat,
		snap.Position.Lng,
		snap.RecordedAt,
	)
	return err
}
