package dto

import (
	"fmt"
	"time"

	"waste-billing/internal/domain/payment"
	"waste-billing/internal/pkg/apperrors"
	"waste-billing/internal/pkg/money"
	"waste-billing/internal/pkg/period"

	"github.com/shopspring/decimal"
)

type CreatePaymentRequest struct {
	CustomerID   int64            `json:"customer_id" validate:"required,gt=0"`
	TanggalBayar string           `json:"tanggal_bayar"`
	BulanDibayar []string         `json:"bulan_dibayar" validate:"required,min=1,dive,month"`
	JumlahBayar  *decimal.Decimal `json:"jumlah_bayar" validate:"required"`
	MetodeBayar  string           `json:"metode_bayar" validate:"required,oneof=tunai transfer qris"`
	Catatan      string           `json:"catatan" validate:"max=500"`
}

// ToDomain builds the payment. A missing tanggal_bayar defaults to now.
func (r *CreatePaymentRequest) ToDomain(createdBy string, now time.Time) (*payment.Payment, error) {
	paidAt, err := parseDate("tanggal_bayar", r.TanggalBayar)
	if err != nil {
		return nil, err
	}
	if paidAt.IsZero() {
		paidAt = now
	}
	months, err := period.ParseAll(r.BulanDibayar)
	if err != nil {
		return nil, apperrors.NewValidationError("bulan_dibayar", err.Error())
	}
	amount, err := money.ToIDR(*r.JumlahBayar)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", err, apperrors.NewValidationError("jumlah_bayar", "must be a non-negative whole rupiah amount"))
	}
	return &payment.Payment{
		CustomerID: r.CustomerID,
		PaidAt:     paidAt,
		Months:     months,
		Amount:     amount,
		Method:     payment.Method(r.MetodeBayar),
		Note:       r.Catatan,
		CreatedBy:  createdBy,
	}, nil
}

type CancelPaymentRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type PaymentResponse struct {
	ID              int64          `json:"id"`
	CustomerID      int64          `json:"customer_id"`
	CustomerNama    string         `json:"customer_nama"`
	TanggalBayar    string         `json:"tanggal_bayar"`
	BulanDibayar    []string       `json:"bulan_dibayar"`
	JumlahBayar     int64          `json:"jumlah_bayar"`
	NominalPerBulan int64          `json:"nominal_per_bulan"`
	MetodeBayar     payment.Method `json:"metode_bayar"`
	Catatan         string         `json:"catatan,omitempty"`
	IsDeposited     bool           `json:"is_deposited"`
	DepositID       *int64         `json:"deposit_id,omitempty"`
	CreatedBy       string         `json:"created_by,omitempty"`
	CancelledAt     *time.Time     `json:"cancelled_at,omitempty"`
	CancelReason    string         `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

func NewPaymentResponse(p *payment.Payment) PaymentResponse {
	if p == nil {
		return PaymentResponse{}
	}
	return PaymentResponse{
		ID:              p.ID,
		CustomerID:      p.CustomerID,
		CustomerNama:    p.CustomerName,
		TanggalBayar:    formatDate(p.PaidAt),
		BulanDibayar:    period.Strings(p.Months),
		JumlahBayar:     p.Amount,
		NominalPerBulan: p.PerMonthShare(),
		MetodeBayar:     p.Method,
		Catatan:         p.Note,
		IsDeposited:     p.IsDeposited,
		DepositID:       p.DepositID,
		CreatedBy:       p.CreatedBy,
		CancelledAt:     p.CancelledAt,
		CancelReason:    p.CancelReason,
		CreatedAt:       p.CreatedAt,
	}
}

func NewPaymentListResponse(payments []payment.Payment) []PaymentResponse {
	resp := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		resp = append(resp, NewPaymentResponse(&payments[i]))
	}
	return resp
}

type CreateDepositRequest struct {
	PaymentIDs   []int64 `json:"payment_ids" validate:"required,min=1,dive,gt=0"`
	TanggalSetor string  `json:"tanggal_setor"`
	Catatan      string  `json:"catatan" validate:"max=500"`
}

func (r *CreateDepositRequest) ToDomain(createdBy string, now time.Time) (*payment.Deposit, error) {
	depositedAt, err := parseDate("tanggal_setor", r.TanggalSetor)
	if err != nil {
		return nil, err
	}
	if depositedAt.IsZero() {
		depositedAt = now
	}
	return &payment.Deposit{
		PaymentIDs:  r.PaymentIDs,
		DepositedAt: depositedAt,
		Note:        r.Catatan,
		CreatedBy:   createdBy,
	}, nil
}

type DepositResponse struct {
	ID           int64     `json:"id"`
	Reference    string    `json:"reference"`
	TanggalSetor string    `json:"tanggal_setor"`
	PaymentIDs   []int64   `json:"payment_ids"`
	Total        int64     `json:"total"`
	Catatan      string    `json:"catatan,omitempty"`
	CreatedBy    string    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewDepositResponse(d *payment.Deposit) DepositResponse {
	if d == nil {
		return DepositResponse{}
	}
	ids := d.PaymentIDs
	if ids == nil {
		ids = []int64{}
	}
	return DepositResponse{
		ID:           d.ID,
		Reference:    d.Reference,
		TanggalSetor: formatDate(d.DepositedAt),
		PaymentIDs:   ids,
		Total:        d.Total,
		Catatan:      d.Note,
		CreatedBy:    d.CreatedBy,
		CreatedAt:    d.CreatedAt,
	}
}

func NewDepositListResponse(deposits []*payment.Deposit) []DepositResponse {
	resp := make([]DepositResponse, 0, len(deposits))
	for _, d := range deposits {
		resp = append(resp, NewDepositResponse(d))
	}
	return resp
}
