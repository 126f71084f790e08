// README: Read-only query interface over entities, with proximity filtering.
package search

import (
	"context"
	"errors"

	"ozra/internal/modules/entity"
	"ozra/internal/types"
)

var ErrBadQuery = errors.New("bad search query")

type Near struct {
	Point    types.Point
	RadiusKm float64
}

type Query struct {
	Family   entity.Family
	Statuses []entity.Status
	Near     *Near
	// Family-specific constraints; zero values mean "any".
	MinSeats    int     // rides: at least this many free seats
	ParcelSize  string  // deliveries
	MaxWeightKg float64 // deliveries: courier's carrying limit
	MinRating   float64 // owner rating floor, any family
	Limit       int
}

type Result struct {
	Entity     *entity.Entity
	DistanceKm float64 // from query point to pickup; 0 when Near is unset
}

// Service has no side effects. When a GeoIndex is wired and the query
// carries a Near filter, candidates come from Redis; otherwise the store is
// scanned directly.
type Service struct {
	store entity.Store
	geo   *GeoIndex
}

func NewService(store entity.Store, geo *GeoIndex) *Service {
	return &Service{store: store, geo: geo}
}

func (s *Service) Search(ctx context.Context, q Query) ([]Result, error) {
	if !q.Family.Valid() {
		return nil, ErrBadQuery
	}
	if q.Near != nil && q.Near.RadiusKm <= 0 {
		return nil, ErrBadQuery
	}

	candidates, err := s.candidates(ctx, q)
	if err != nil {
		return nil, err
	}

	var out []Result
	for _, e := range candidates {
		if !keep(e, q) {
			continue
		}
		r := Result{Entity: e}
		if q.Near != nil {
			r.DistanceKm = haversineKm(q.Near.Point, e.Pickup.Point)
			if r.DistanceKm > q.Near.RadiusKm {
				continue
			}
		}
		out = append(out, r)
	}

	if q.Near != nil {
		sortByDistance(out, func(r Result) float64 { return r.DistanceKm })
	}
	// Without Near, candidates already arrive newest-first from the store.

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Service) candidates(ctx context.Context, q Query) ([]*entity.Entity, error) {
	if s.geo != nil && q.Near != nil {
		ids, err := s.geo.Nearby(ctx, q.Family, q.Near.Point, q.Near.RadiusKm)
		if err == nil {
			out := make([]*entity.Entity, 0, len(ids))
			for _, id := range ids {
				e, err := s.store.Get(ctx, id)
				if errors.Is(err, entity.ErrNotFound) {
					continue
				}
				if err != nil {
					return nil, err
				}
				out = append(out, e)
			}
			return out, nil
		}
		// Index unavailable: fall through to a store scan.
	}
	return s.store.Query(ctx, entity.Filter{Family: q.Family, Statuses: q.Statuses})
}

func keep(e *entity.Entity, q Query) bool {
	if e.Family != q.Family {
		return false
	}
	if len(q.Statuses) > 0 {
		found := false
		for _, st := range q.Statuses {
			if e.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.MinSeats > 0 && e.SeatsAvailable < q.MinSeats {
		return false
	}
	if q.ParcelSize != "" && (e.Parcel == nil || e.Parcel.Size != q.ParcelSize) {
		return false
	}
	if q.MaxWeightKg > 0 && (e.Parcel == nil || e.Parcel.WeightKg > q.MaxWeightKg) {
		return false
	}
	if q.MinRating > 0 && e.OwnerRating < q.MinRating {
		return false
	}
	return true
}
