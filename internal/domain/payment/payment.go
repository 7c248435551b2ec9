package payment

import (
	"fmt"
	"strings"
	"time"

	"waste-billing/internal/pkg/apperrors"
	"waste-billing/internal/pkg/money"
	"waste-billing/internal/pkg/period"
)

type Method string

const (
	MethodCash     Method = "tunai"
	MethodTransfer Method = "transfer"
	MethodQRIS     Method = "qris"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodTransfer, MethodQRIS:
		return true
	}
	return false
}

type Payment struct {
	ID           int64          `json:"id"`
	CustomerID   int64          `json:"customer_id"`
	CustomerName string         `json:"customer_nama"`
	PaidAt       time.Time      `json:"tanggal_bayar"`
	Months       []period.Month `json:"bulan_dibayar"`
	Amount       int64          `json:"jumlah_bayar"`
	Method       Method         `json:"metode_bayar"`
	Note         string         `json:"catatan,omitempty"`
	IsDeposited  bool           `json:"is_deposited"`
	DepositID    *int64         `json:"deposit_id,omitempty"`
	CreatedBy    string         `json:"created_by,omitempty"`
	CancelledAt  *time.Time     `json:"cancelled_at,omitempty"`
	CancelReason string         `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (p *Payment) Live() bool { return p.CancelledAt == nil }

// PerMonthShare is the receipt amount shown against each covered month. A
// month counts as fully paid regardless of this figure.
func (p *Payment) PerMonthShare() int64 {
	return money.PerMonthShare(p.Amount, len(p.Months))
}

// Validate checks a new payment against the customer's join month. The
// already-paid check runs in the repository under a row lock.
func (p *Payment) Validate(join period.Month) error {
	p.Method = Method(strings.ToLower(strings.TrimSpace(string(p.Method))))
	p.Note = strings.TrimSpace(p.Note)

	if len(p.Months) == 0 {
		return apperrors.NewValidationError("bulan_dibayar", "must contain at least one month")
	}
	seen := make(map[period.Month]bool, len(p.Months))
	for _, m := range p.Months {
		if seen[m] {
			return apperrors.NewValidationError("bulan_dibayar", fmt.Sprintf("month %s is listed twice", m))
		}
		seen[m] = true
		if m.Before(join) {
			return apperrors.NewValidationError("bulan_dibayar", fmt.Sprintf("month %s is before the join month %s", m, join))
		}
	}
	if p.Amount < 0 {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidPaymentAmount, apperrors.NewValidationError("jumlah_bayar", "cannot be negative"))
	}
	if !p.Method.Valid() {
		return apperrors.NewValidationError("metode_bayar", "must be one of tunai, transfer, qris")
	}
	period.Sort(p.Months)
	return nil
}

type Deposit struct {
	ID          int64     `json:"id"`
	Reference   string    `json:"reference"`
	DepositedAt time.Time `json:"tanggal_setor"`
	PaymentIDs  []int64   `json:"payment_ids"`
	Total       int64     `json:"total"`
	Note        string    `json:"catatan,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (d *Deposit) Normalize() error {
	d.Note = strings.TrimSpace(d.Note)
	seen := make(map[int64]bool, len(d.PaymentIDs))
	ids := make([]int64, 0, len(d.PaymentIDs))
	for _, id := range d.PaymentIDs {
		if id <= 0 {
			return apperrors.NewValidationError("payment_ids", fmt.Sprintf("invalid payment id %d", id))
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return apperrors.NewValidationError("payment_ids", "must contain at least one payment")
	}
	d.PaymentIDs = ids
	return nil
}
