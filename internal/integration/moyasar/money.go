package moyasar

import (
	"github.com/shopspring/decimal"
)

var minorUnitFactor = decimal.NewFromInt(MinorUnitsPerMajor)

// ToMinorUnits converts a major unit amount to halalas, rounding half away
// from zero: 199.00 -> 19900, 199.5 -> 19950, 10.005 -> 1001.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(minorUnitFactor).Round(0).IntPart()
}

// FromMinorUnits converts halalas back to a major unit amount
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(minorUnitFactor)
}
