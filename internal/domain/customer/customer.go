package customer

import (
	"sort"
	"strings"
	"time"

	"waste-billing/internal/pkg/apperrors"
	"waste-billing/internal/pkg/period"
)

type Status string

const (
	StatusActive   Status = "aktif"
	StatusInactive Status = "nonaktif"
	StatusOnLeave  Status = "cuti"
)

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", apperrors.NewValidationError("status", "must be one of aktif, nonaktif, cuti")
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusOnLeave:
		return true
	}
	return false
}

// Billable reports whether a month in this status accrues a charge when the
// inactive policy suppresses billing.
func (s Status) Billable() bool {
	return s == StatusActive
}

type Customer struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"nama"`
	Address             string    `json:"alamat"`
	Region              string    `json:"wilayah"`
	Phone               string    `json:"no_hp,omitempty"`
	JoinDate            time.Time `json:"tanggal_bergabung"`
	TariffEffectiveDate time.Time `json:"tanggal_efektif_tarif"`
	TariffID            int64     `json:"tarif_id"`
	Status              Status    `json:"status"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (c *Customer) JoinMonth() period.Month {
	return period.Of(c.JoinDate)
}

func (c *Customer) EffectiveMonth() period.Month {
	return period.Of(c.TariffEffectiveDate)
}

// Normalize trims text fields and defaults the tariff effective date to the
// join date.
func (c *Customer) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Address = strings.TrimSpace(c.Address)
	c.Region = strings.TrimSpace(c.Region)
	c.Phone = strings.TrimSpace(c.Phone)
	if c.TariffEffectiveDate.IsZero() {
		c.TariffEffectiveDate = c.JoinDate
	}
	if c.Status == "" {
		c.Status = StatusActive
	}
}

func (c *Customer) Validate() error {
	switch {
	case c.Name == "":
		return apperrors.NewValidationError("nama", "cannot be empty")
	case c.Address == "":
		return apperrors.NewValidationError("alamat", "cannot be empty")
	case c.Region == "":
		return apperrors.NewValidationError("wilayah", "cannot be empty")
	case c.JoinDate.IsZero():
		return apperrors.NewValidationError("tanggal_bergabung", "is required")
	case c.TariffID <= 0:
		return apperrors.NewValidationError("tarif_id", "is required")
	case !c.Status.Valid():
		return apperrors.NewValidationError("status", "must be one of aktif, nonaktif, cuti")
	}
	return nil
}

// ValidateNew adds the checks that only hold when a customer is registered.
// Bulk tariff updates later move the effective date past the join date.
func (c *Customer) ValidateNew() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.TariffEffectiveDate.After(c.JoinDate) {
		return apperrors.NewValidationError("tanggal_efektif_tarif", "must not be later than tanggal_bergabung")
	}
	return nil
}

type StatusChange struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	OldStatus  Status    `json:"old_status"`
	NewStatus  Status    `json:"new_status"`
	Reason     string    `json:"reason,omitempty"`
	ChangedBy  string    `json:"changed_by,omitempty"`
	ChangedAt  time.Time `json:"changed_at"`
}

// StatusOn returns the status in effect at the given instant. Before the first
// recorded change the customer held that change's old status; with no history
// the current status has always applied.
func StatusOn(current Status, history []StatusChange, at time.Time) Status {
	if len(history) == 0 {
		return current
	}
	sorted := make([]StatusChange, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ChangedAt.Before(sorted[j].ChangedAt)
	})

	status := sorted[0].OldStatus
	for _, ch := range sorted {
		if ch.ChangedAt.After(at) {
			break
		}
		status = ch.NewStatus
	}
	return status
}

type Filter struct {
	Region string
	Status Status
}

// ProfileUpdate carries the editable profile fields. Tariff assignment goes
// through the bulk tariff update so history stays consistent.
type ProfileUpdate struct {
	Name    *string
	Address *string
	Region  *string
	Phone   *string
}

func (u ProfileUpdate) Apply(c *Customer) bool {
	changed := false
	set := func(dst *string, src *string) {
		if src == nil {
			return
		}
		v := strings.TrimSpace(*src)
		if v != *dst {
			*dst = v
			changed = true
		}
	}
	set(&c.Name, u.Name)
	set(&c.Address, u.Address)
	set(&c.Region, u.Region)
	set(&c.Phone, u.Phone)
	return changed
}
