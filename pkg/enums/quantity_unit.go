package enums

import "fmt"

// QuantityUnit tags a listing's total quantity with its measurement unit.
type QuantityUnit string

const (
	UnitKilograms QuantityUnit = "kg"
	UnitGrams     QuantityUnit = "g"
	UnitLiters    QuantityUnit = "liters"
	UnitPieces    QuantityUnit = "pieces"
	UnitPortions  QuantityUnit = "portions"
	UnitPacks     QuantityUnit = "packs"
)

var validQuantityUnits = []QuantityUnit{
	UnitKilograms,
	UnitGrams,
	UnitLiters,
	UnitPieces,
	UnitPortions,
	UnitPacks,
}

// String implements fmt.Stringer.
func (u QuantityUnit) String() string {
	return string(u)
}

// IsValid reports whether the value is a known QuantityUnit.
func (u QuantityUnit) IsValid() bool {
	for _, candidate := range validQuantityUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseQuantityUnit converts raw input into a QuantityUnit.
func ParseQuantityUnit(value string) (QuantityUnit, error) {
	for _, candidate := range validQuantityUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quantity unit %q", value)
}
