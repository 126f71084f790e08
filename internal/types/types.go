// README: Shared value objects used across modules.
package types

// ID is an opaque entity or user identifier.
type ID string

// Point is a WGS84 coordinate pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Zero reports whether the point carries no coordinates. (0,0) is in the
// Gulf of Guinea and is treated as unset, matching the client contract.
func (p Point) Zero() bool {
	return p.Lat == 0 && p.Lng == 0
}

// Location is a named place. Coordinates may be absent on input, in which
// case they are resolved through the geocoder before the entity is stored.
type Location struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Point
}

// Money is an amount in minor units of the given currency.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}
