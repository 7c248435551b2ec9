package dto

import (
	"time"

	"waste-billing/internal/domain/tariff"
	"waste-billing/internal/pkg/apperrors"
	"waste-billing/internal/pkg/money"
	"waste-billing/internal/pkg/period"

	"github.com/shopspring/decimal"
)

type CreateTariffRequest struct {
	NamaKategori  string           `json:"nama_kategori" validate:"required,max=100"`
	HargaPerBulan *decimal.Decimal `json:"harga_per_bulan" validate:"required"`
	Deskripsi     string           `json:"deskripsi"`
}

func (r *CreateTariffRequest) ToDomain() (*tariff.Category, error) {
	rate, err := toIDR("harga_per_bulan", *r.HargaPerBulan)
	if err != nil {
		return nil, err
	}
	return &tariff.Category{
		Name:        r.NamaKategori,
		MonthlyRate: rate,
		Description: r.Deskripsi,
	}, nil
}

type UpdateTariffRequest struct {
	NamaKategori  *string          `json:"nama_kategori" validate:"omitempty,min=1,max=100"`
	HargaPerBulan *decimal.Decimal `json:"harga_per_bulan"`
	Deskripsi     *string          `json:"deskripsi"`
}

func (r *UpdateTariffRequest) ToDomain() (tariff.CategoryUpdate, error) {
	update := tariff.CategoryUpdate{
		Name:        r.NamaKategori,
		Description: r.Deskripsi,
	}
	if r.HargaPerBulan != nil {
		rate, err := toIDR("harga_per_bulan", *r.HargaPerBulan)
		if err != nil {
			return tariff.CategoryUpdate{}, err
		}
		update.MonthlyRate = &rate
	}
	return update, nil
}

type BulkUpdateRequest struct {
	CustomerIDs    []int64 `json:"customer_ids" validate:"required,min=1,dive,gt=0"`
	TarifID        int64   `json:"tarif_id" validate:"required,gt=0"`
	TanggalEfektif string  `json:"tanggal_efektif" validate:"required"`
}

func (r *BulkUpdateRequest) ToDomain(requestedBy string) (tariff.BulkUpdate, error) {
	effective, err := parseDate("tanggal_efektif", r.TanggalEfektif)
	if err != nil {
		return tariff.BulkUpdate{}, err
	}
	return tariff.BulkUpdate{
		CustomerIDs:   r.CustomerIDs,
		TariffID:      r.TarifID,
		EffectiveDate: effective,
		RequestedBy:   requestedBy,
	}, nil
}

type OverrideRequest struct {
	BulanBerlaku string           `json:"bulan_berlaku" validate:"required,month"`
	TarifAmount  *decimal.Decimal `json:"tarif_amount" validate:"required"`
	Catatan      string           `json:"catatan" validate:"max=500"`
}

func (r *OverrideRequest) ToDomain(customerID int64, createdBy string) (*tariff.Override, error) {
	month, err := period.Parse(r.BulanBerlaku)
	if err != nil {
		return nil, apperrors.NewValidationError("bulan_berlaku", "must be a month in YYYY-MM format")
	}
	amount, err := toIDR("tarif_amount", *r.TarifAmount)
	if err != nil {
		return nil, err
	}
	return &tariff.Override{
		CustomerID: customerID,
		Month:      month,
		Amount:     amount,
		Note:       r.Catatan,
		CreatedBy:  createdBy,
	}, nil
}

type TariffResponse struct {
	ID                   int64     `json:"id"`
	NamaKategori         string    `json:"nama_kategori"`
	HargaPerBulan        int64     `json:"harga_per_bulan"`
	HargaPerBulanDisplay string    `json:"harga_per_bulan_display"`
	Deskripsi            string    `json:"deskripsi,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func NewTariffResponse(c *tariff.Category) TariffResponse {
	if c == nil {
		return TariffResponse{}
	}
	return TariffResponse{
		ID:                   c.ID,
		NamaKategori:         c.Name,
		HargaPerBulan:        c.MonthlyRate,
		HargaPerBulanDisplay: money.Format(c.MonthlyRate),
		Deskripsi:            c.Description,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}

func NewTariffListResponse(categories []*tariff.Category) []TariffResponse {
	resp := make([]TariffResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, NewTariffResponse(c))
	}
	return resp
}

// toIDR reports amount errors against the request field that carried them.
func toIDR(field string, d decimal.Decimal) (int64, error) {
	amount, err := money.ToIDR(d)
	if err != nil {
		return 0, apperrors.NewValidationError(field, err.Error())
	}
	return amount, nil
}
