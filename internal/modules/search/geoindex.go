// README: Redis GEO index of entity pickup points, one set per family.
package search

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"ozra/internal/modules/entity"
	"ozra/internal/types"
)

type GeoIndex struct {
	redis *redis.Client
}

func NewGeoIndex(rdb *redis.Client) *GeoIndex {
	return &GeoIndex{redis: rdb}
}

func geoKey(f entity.Family) string {
	return fmt.Sprintf("search:%s:pickups", string(f))
}

func (g *GeoIndex) IndexPickup(ctx context.Context, f entity.Family, id types.ID, p types.Point) error {
	return g.redis.GeoAdd(ctx, geoKey(f), &redis.GeoLocation{
		Name:      string(id),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	}).Err()
}

func (g *GeoIndex) RemovePickup(ctx context.Context, f entity.Family, id types.ID) error {
	return g.redis.ZRem(ctx, geoKey(f), string(id)).Err()
}

// Nearby returns entity ids within radiusKm of p, nearest first. Stale
// members (entities that left a searchable state) are filtered out by the
// caller after hydration.
func (g *GeoIndex) Nearby(ctx context.Context, f entity.Family, p types.Point, radiusKm float64) ([]types.ID, error) {
	results, err := g.redis.GeoSearch(ctx, geoKey(f), &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(results))
	for i, r := range results {
		ids[i] = types.ID(r)
	}
	return ids, nil
}
