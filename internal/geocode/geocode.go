// README: Address resolution through the Google Maps Geocoding API.
package geocode

import (
	"context"
	"errors"
	"fmt"

	"googlemaps.github.io/maps"

	"ozra/internal/types"
)

// ErrResolution marks a geocoding failure. It is distinct from the lifecycle
// taxonomy so clients can offer "retry address" instead of "retry booking".
var ErrResolution = errors.New("location resolution failed")

// Resolver turns an address into coordinates.
type Resolver interface {
	Resolve(ctx context.Context, address string) (types.Point, error)
}

type GoogleResolver struct {
	client *maps.Client
}

func NewGoogleResolver(apiKey string) (*GoogleResolver, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("maps client: %w", err)
	}
	return &GoogleResolver{client: client}, nil
}

func (g *GoogleResolver) Resolve(ctx context.Context, address string) (types.Point, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return types.Point{}, fmt.Errorf("%w: %v", ErrResolution, err)
	}
	if len(results) == 0 {
		return types.Point{}, fmt.Errorf("%w: no match for %q", ErrResolution, address)
	}
	loc := results[0].Geometry.Location
	return types.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}
