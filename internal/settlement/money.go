package settlement

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance below which a balance is treated as zero.
var Epsilon = decimal.New(1, -5)

// microScale is the number of decimal places kept by the solver's integer
// representation. It must resolve amounts finer than Epsilon.
const microScale = 6

// epsilonMicros is Epsilon expressed in micro-units.
var epsilonMicros = Epsilon.Shift(microScale).IntPart()

// ParseAmount parses a payment amount such as "12.50".
// Non-numeric, zero and negative amounts are rejected with ErrInvalidInput.
func ParseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q is not a number", ErrInvalidInput, s)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: amount %s must be positive", ErrInvalidInput, amount)
	}
	return amount, nil
}

// RoundCents rounds an amount to cent precision.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func toMicros(d decimal.Decimal) (int64, error) {
	m := d.Shift(microScale).Round(0)
	if !m.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: amount %s out of range", ErrInvalidInput, d)
	}
	return m.IntPart(), nil
}

func fromMicros(m int64) decimal.Decimal {
	return decimal.New(m, -microScale)
}

// snap clears residues at or below Epsilon left over by repeated subtraction.
func snap(m int64) int64 {
	if m <= epsilonMicros {
		return 0
	}
	return m
}
