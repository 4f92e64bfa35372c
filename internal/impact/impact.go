package impact

import (
	"github.com/shopspring/decimal"

	"github.com/mealbridge/mealbridge-backend/pkg/enums"
)

// Per-kilogram factors for rescued food. CO2 follows the commonly cited
// footprint of landfilled food waste; water is the embedded production cost.
var (
	co2PerKg   = decimal.RequireFromString("2.5")
	waterPerKg = decimal.RequireFromString("1250")
	kgPerMeal  = decimal.RequireFromString("0.5")
)

// Approximate mass per unit, used to normalize non-weight units.
var kgPerUnit = map[enums.QuantityUnit]decimal.Decimal{
	enums.UnitKilograms: decimal.RequireFromString("1"),
	enums.UnitGrams:     decimal.RequireFromString("0.001"),
	enums.UnitLiters:    decimal.RequireFromString("1"),
	enums.UnitPieces:    decimal.RequireFromString("0.3"),
	enums.UnitPortions:  decimal.RequireFromString("0.5"),
	enums.UnitPacks:     decimal.RequireFromString("0.75"),
}

// Summary is the environmental and social impact of a delivered quantity.
type Summary struct {
	CO2SavedKg   decimal.Decimal
	WaterSavedL  decimal.Decimal
	PeopleServed int
}

// Points awarded to a receiver per completed delivery.
const PointsPerCompletedClaim = 10

// Calculate derives the impact of a delivered quantity. Unknown units fall
// back to the portion weight.
func Calculate(quantity decimal.Decimal, unit enums.QuantityUnit) Summary {
	if !quantity.IsPositive() {
		return Summary{CO2SavedKg: decimal.Zero, WaterSavedL: decimal.Zero}
	}

	factor, ok := kgPerUnit[unit]
	if !ok {
		factor = kgPerMeal
	}
	kg := quantity.Mul(factor)

	people := kg.Div(kgPerMeal).Floor().IntPart()
	if people < 1 {
		people = 1
	}

	return Summary{
		CO2SavedKg:   kg.Mul(co2PerKg),
		WaterSavedL:  kg.Mul(waterPerKg),
		PeopleServed: int(people),
	}
}

// LevelForPoints maps accumulated points to a receiver level, one level per
// 100 points starting at level 1.
func LevelForPoints(points int) int {
	if points < 0 {
		points = 0
	}
	return points/100 + 1
}
