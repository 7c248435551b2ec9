// Package money handles whole-rupiah amounts.
package money

import (
	"fmt"

	"waste-billing/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

// ToIDR converts a decoded amount to whole rupiah. Fractional or negative
// amounts are rejected.
func ToIDR(d decimal.Decimal) (int64, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: amount cannot be negative", apperrors.ErrInvalidPaymentAmount)
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("%w: amount must be a whole rupiah value", apperrors.ErrInvalidPaymentAmount)
	}
	if d.GreaterThan(decimal.NewFromInt(1 << 53)) {
		return 0, fmt.Errorf("%w: amount is too large", apperrors.ErrInvalidPaymentAmount)
	}
	return d.IntPart(), nil
}

// PerMonthShare splits a payment evenly over the months it covers, rounded
// down to whole rupiah. It is used for receipts only.
func PerMonthShare(total int64, months int) int64 {
	if months <= 0 {
		return 0
	}
	return decimal.NewFromInt(total).
		Div(decimal.NewFromInt(int64(months))).
		Floor().
		IntPart()
}

func Format(amount int64) string {
	return "Rp " + decimal.NewFromInt(amount).StringFixedBank(0)
}
