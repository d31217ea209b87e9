package pricing

import (
	"fmt"
	"math"
)

// Cents is a monetary amount in integer minor units (euro cents).
// All pricing arithmetic accumulates in Cents so repeated evaluation of the
// same inputs yields bit-identical totals.
type Cents int64

// Float returns the amount in major units, for display only.
func (c Cents) Float() float64 {
	return float64(c) / 100
}

func (c Cents) String() string {
	return fmt.Sprintf("%d.%02d", c/100, abs(c%100))
}

func abs(c Cents) Cents {
	if c < 0 {
		return -c
	}
	return c
}

// mulRate multiplies a physical quantity (kg, m³) by a per-unit rate,
// rounding half away from zero to whole cents. Invalid quantities price at 0.
func mulRate(qty float64, rate Cents) Cents {
	return Cents(math.Round(sanitize(qty) * float64(rate)))
}

// sanitize coerces NaN, infinite and negative measures to 0. The estimator is
// best-effort: a half-filled form must still produce a number.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func maxCents(values ...Cents) Cents {
	var out Cents
	for _, v := range values {
		if v > out {
			out = v
		}
	}
	return out
}
