// README: Fare rate definition per entity family.
package pricing

import "ozra/internal/modules/entity"

type Rate struct {
	Family   entity.Family
	BaseFare int64 // minor units
	PerKm    int64 // minor units per kilometre
	Currency string
}

// defaultRates back the quote path when the rates table is empty or
// unreachable; overridden by rows in pricing_rates.
var defaultRates = map[entity.Family]Rate{
	entity.FamilyRide:     {Family: entity.FamilyRide, BaseFare: 150, PerKm: 80, Currency: "OZR"},
	entity.FamilyDelivery: {Family: entity.FamilyDelivery, BaseFare: 100, PerKm: 60, Currency: "OZR"},
	entity.FamilyFood:     {Family: entity.FamilyFood, BaseFare: 50, PerKm: 40, Currency: "OZR"},
}
