// README: Pricing service computes fare quotes from great-circle distance.
package pricing

import (
	"context"
	"math"

	"ozra/internal/modules/entity"
	"ozra/internal/types"
)

type Service struct {
	store *Store
}

// NewService builds the quote service. store may be nil, in which case the
// compiled-in defaults apply.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

type Quote struct {
	Price      types.Money
	DistanceKm float64
}

// Estimate quotes a fare for the pickup→destination leg. Distance is
// great-circle; routing detours are a provider concern, the quote is only a
// creation-time suggestion.
func (s *Service) Estimate(ctx context.Context, f entity.Family, pickup, dest types.Point) (Quote, error) {
	rate, ok := defaultRates[f]
	if !ok {
		return Quote{}, ErrNoRate
	}
	if s.store != nil {
		if r, err := s.store.GetRate(ctx, f); err == nil {
			rate = r
		}
	}
	km := distanceKm(pickup, dest)
	amount := rate.BaseFare + int64(math.Ceil(km))*rate.PerKm
	return Quote{
		Price:      types.Money{Amount: amount, Currency: rate.Currency},
		DistanceKm: km,
	}, nil
}

func distanceKm(a, b types.Point) float64 {
	const r = 6371.0
	lat1 := a.Lat * math.Pi / 180.0
	lat2 := b.Lat * math.Pi / 180.0
	dlat := (b.Lat - a.Lat) * math.Pi / 180.0
	dlng := (b.Lng - a.Lng) * math.Pi / 180.0
	h := math.Sin(dlat/2)*math.Sin(dlat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlng/2)*math.Sin(dlng/2)
	return 2 * r * math.Asin(math.Sqrt(h))
}
