package dto

import (
	"time"

	"waste-billing/internal/domain/arrears"
	"waste-billing/internal/domain/customer"
)

type CreateCustomerRequest struct {
	Nama                string `json:"nama" validate:"required,max=150"`
	Alamat              string `json:"alamat" validate:"required"`
	Wilayah             string `json:"wilayah" validate:"required,max=100"`
	NoHP                string `json:"no_hp" validate:"omitempty,max=20"`
	TanggalBergabung    string `json:"tanggal_bergabung" validate:"required"`
	TanggalEfektifTarif string `json:"tanggal_efektif_tarif"`
	TarifID             int64  `json:"tarif_id" validate:"required,gt=0"`
	Status              string `json:"status" validate:"omitempty,oneof=aktif nonaktif cuti"`
}

func (r *CreateCustomerRequest) ToDomain() (*customer.Customer, error) {
	joined, err := parseDate("tanggal_bergabung", r.TanggalBergabung)
	if err != nil {
		return nil, err
	}
	effective, err := parseDate("tanggal_efektif_tarif", r.TanggalEfektifTarif)
	if err != nil {
		return nil, err
	}
	return &customer.Customer{
		Name:                r.Nama,
		Address:             r.Alamat,
		Region:              r.Wilayah,
		Phone:               r.NoHP,
		JoinDate:            joined,
		TariffEffectiveDate: effective,
		TariffID:            r.TarifID,
		Status:              customer.Status(r.Status),
	}, nil
}

// UpdateCustomerRequest edits profile fields only. Omitted fields are left
// unchanged.
type UpdateCustomerRequest struct {
	Nama    *string `json:"nama" validate:"omitempty,min=1,max=150"`
	Alamat  *string `json:"alamat" validate:"omitempty,min=1"`
	Wilayah *string `json:"wilayah" validate:"omitempty,min=1,max=100"`
	NoHP    *string `json:"no_hp" validate:"omitempty,max=20"`
}

func (r *UpdateCustomerRequest) ToDomain() customer.ProfileUpdate {
	return customer.ProfileUpdate{
		Name:    r.Nama,
		Address: r.Alamat,
		Region:  r.Wilayah,
		Phone:   r.NoHP,
	}
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=aktif nonaktif cuti"`
	Reason string `json:"reason" validate:"max=500"`
}

type CustomerResponse struct {
	ID                  int64           `json:"id"`
	Nama                string          `json:"nama"`
	Alamat              string          `json:"alamat"`
	Wilayah             string          `json:"wilayah"`
	NoHP                string          `json:"no_hp,omitempty"`
	TanggalBergabung    string          `json:"tanggal_bergabung"`
	TanggalEfektifTarif string          `json:"tanggal_efektif_tarif"`
	TarifID             int64           `json:"tarif_id"`
	Status              customer.Status `json:"status"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	Arrears             *arrears.Result `json:"arrears,omitempty"`
}

func NewCustomerResponse(c *customer.Customer) CustomerResponse {
	if c == nil {
		return CustomerResponse{}
	}
	return CustomerResponse{
		ID:                  c.ID,
		Nama:                c.Name,
		Alamat:              c.Address,
		Wilayah:             c.Region,
		NoHP:                c.Phone,
		TanggalBergabung:    formatDate(c.JoinDate),
		TanggalEfektifTarif: formatDate(c.TariffEffectiveDate),
		TarifID:             c.TariffID,
		Status:              c.Status,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

func NewCustomerDetailResponse(c *customer.Customer, result *arrears.Result) CustomerResponse {
	resp := NewCustomerResponse(c)
	resp.Arrears = result
	return resp
}

func NewCustomerListResponse(customers []*customer.Customer) []CustomerResponse {
	resp := make([]CustomerResponse, 0, len(customers))
	for _, c := range customers {
		resp = append(resp, NewCustomerResponse(c))
	}
	return resp
}
