package tariff

import (
	"strings"
	"time"

	"waste-billing/internal/pkg/apperrors"
	"waste-billing/internal/pkg/period"
)

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"nama_kategori"`
	MonthlyRate int64     `json:"harga_per_bulan"`
	Description string    `json:"deskripsi,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Category) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	if c.Name == "" {
		return apperrors.NewValidationError("nama_kategori", "cannot be empty")
	}
	if c.MonthlyRate < 0 {
		return apperrors.NewValidationError("harga_per_bulan", "cannot be negative")
	}
	return nil
}

// History is a rate that applied to one customer over [EffectiveFrom,
// EffectiveTo), interpreted at month granularity.
type History struct {
	ID            int64     `json:"id"`
	CustomerID    int64     `json:"customer_id"`
	TariffID      *int64    `json:"tarif_id,omitempty"`
	Amount        int64     `json:"amount"`
	EffectiveFrom time.Time `json:"effective_from"`
	EffectiveTo   time.Time `json:"effective_to"`
	CreatedAt     time.Time `json:"created_at"`
}

func (h History) FromMonth() period.Month { return period.Of(h.EffectiveFrom) }

func (h History) ToMonth() period.Month { return period.Of(h.EffectiveTo) }

func (h History) Covers(m period.Month) bool {
	return !m.Before(h.FromMonth()) && m.Before(h.ToMonth())
}

type Override struct {
	ID         int64        `json:"id"`
	CustomerID int64        `json:"customer_id"`
	Month      period.Month `json:"bulan_berlaku"`
	Amount     int64        `json:"tarif_amount"`
	Note       string       `json:"catatan,omitempty"`
	CreatedBy  string       `json:"created_by,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

func (o *Override) Validate() error {
	o.Note = strings.TrimSpace(o.Note)
	if o.CustomerID <= 0 {
		return apperrors.NewValidationError("customer_id", "is required")
	}
	if o.Amount < 0 {
		return apperrors.NewValidationError("tarif_amount", "cannot be negative")
	}
	return nil
}
