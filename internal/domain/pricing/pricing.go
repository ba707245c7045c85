// Package pricing turns catalog prices into charged line prices and order
// totals. All arithmetic is exact decimal; results are rounded to the
// currency's minor unit only where a price is captured.
package pricing

import (
	"math"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places of the currency (cents).
const Scale = 2

// Discount bounds, in percent.
const (
	MinDiscount = 0
	MaxDiscount = 100
)

// MaxQuantity is the largest quantity one order line can hold.
const MaxQuantity = math.MaxInt32

// MaxAmount is the largest price or total that can be stored: twelve digits,
// two of them after the point.
var MaxAmount = decimal.New(999_999_999_999, -Scale)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// ErrDiscountOutOfRange is returned when a discount is outside [0, 100].
var ErrDiscountOutOfRange = errors.New("discount percentage must be between 0 and 100")

// Line is one priced order line.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// DiscountedUnitPrice returns base minus pct percent of base, rounded half-up
// to two places and never negative.
func DiscountedUnitPrice(base decimal.Decimal, pct int) (decimal.Decimal, error) {
	if pct < MinDiscount || pct > MaxDiscount {
		return zero, ErrDiscountOutOfRange
	}
	off := base.Mul(decimal.NewFromInt(int64(pct))).Div(hundred)
	return floorAtZero(base.Sub(off)).Round(Scale), nil
}

// LineSubtotal returns unit * quantity.
func LineSubtotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(quantity)))
}

// OrderTotal returns the sum of the line subtotals. Summation stays in
// decimal; the final value is rounded to two places.
func OrderTotal(lines []Line) decimal.Decimal {
	sum := zero
	for _, l := range lines {
		sum = sum.Add(LineSubtotal(l.UnitPrice, l.Quantity))
	}
	return sum.Round(Scale)
}

// WithinLimit reports whether amount fits MaxAmount.
func WithinLimit(amount decimal.Decimal) bool {
	return amount.LessThanOrEqual(MaxAmount)
}

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return zero
	}
	return d
}
