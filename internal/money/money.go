// Package money holds the rounding rules applied to every persisted amount.
//
// Amounts are stored as floating point columns, so each computed value is
// rounded to cents before it is written. Arithmetic goes through
// shopspring/decimal on the shortest decimal representation of the inputs,
// which keeps 100.005 as 100.005 (not 100.00499...) and rounds it half away
// from zero to 100.01.
package money

import "github.com/shopspring/decimal"

// Places is the number of decimal places kept for every amount.
const Places = 2

// Round2 rounds x to cents.
func Round2(x float64) float64 {
	return decimal.NewFromFloat(x).Round(Places).InexactFloat64()
}

// Sub returns round2(a - b).
func Sub(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(Places).InexactFloat64()
}

// Add returns round2(a + b).
func Add(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(Places).InexactFloat64()
}

// SubFloor returns round2(max(0, a - b)).
func SubFloor(a, b float64) float64 {
	d := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b))
	if d.IsNegative() {
		return 0
	}
	return d.Round(Places).InexactFloat64()
}

// Sum adds the amounts exactly and rounds the total once.
func Sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.Round(Places).InexactFloat64()
}

// Equal reports whether a and b are the same amount once rounded to cents.
func Equal(a, b float64) bool {
	return decimal.NewFromFloat(a).Round(Places).Equal(decimal.NewFromFloat(b).Round(Places))
}
