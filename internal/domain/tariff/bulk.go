package tariff

import (
	"fmt"
	"sort"
	"time"

	"waste-billing/internal/pkg/apperrors"
	"waste-billing/internal/pkg/period"
)

type BulkUpdate struct {
	CustomerIDs   []int64
	TariffID      int64
	EffectiveDate time.Time
	RequestedBy   string
}

func (b *BulkUpdate) Normalize() error {
	if b.TariffID <= 0 {
		return apperrors.NewValidationError("tarif_id", "is required")
	}
	if b.EffectiveDate.IsZero() {
		return apperrors.NewValidationError("tanggal_efektif", "is required")
	}
	seen := make(map[int64]bool, len(b.CustomerIDs))
	ids := make([]int64, 0, len(b.CustomerIDs))
	for _, id := range b.CustomerIDs {
		if id <= 0 {
			return apperrors.NewValidationError("customer_ids", fmt.Sprintf("invalid customer id %d", id))
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return apperrors.NewValidationError("customer_ids", "must contain at least one customer")
	}
	// Locks are taken in ascending id order so concurrent bulk updates
	// cannot deadlock each other.
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	b.CustomerIDs = ids
	return nil
}

// CustomerTariffState is the locked snapshot of a customer a boundary is
// planned from.
type CustomerTariffState struct {
	CustomerID    int64
	JoinDate      time.Time
	EffectiveDate time.Time
	TariffID      int64
	CurrentRate   int64
	HasHistory    bool
}

type BoundaryPlan struct {
	CustomerID int64
	Skip       bool
	History    *History
}

type PlanFunc func(state CustomerTariffState, target Category, effective time.Time) (BoundaryPlan, error)

// PlanBoundary closes the customer's old rate at effective. The closed range
// starts at the current effective date, or at the join date for customers
// whose pre-effective months were never recorded in history.
func PlanBoundary(state CustomerTariffState, target Category, effective time.Time) (BoundaryPlan, error) {
	plan := BoundaryPlan{CustomerID: state.CustomerID}
	if state.TariffID == target.ID {
		plan.Skip = true
		return plan, nil
	}

	newMonth := period.Of(effective)
	if newMonth.Before(period.Of(state.EffectiveDate)) {
		return plan, fmt.Errorf("%w: customer %d: tanggal_efektif %s is before the current effective month %s",
			apperrors.ErrInvalidArgument, state.CustomerID, newMonth, period.Of(state.EffectiveDate))
	}

	from := state.EffectiveDate
	if !state.HasHistory && state.JoinDate.Before(from) {
		from = state.JoinDate
	}
	if period.Of(from) == newMonth {
		return plan, nil
	}

	oldTariff := state.TariffID
	plan.History = &History{
		CustomerID:    state.CustomerID,
		TariffID:      &oldTariff,
		Amount:        state.CurrentRate,
		EffectiveFrom: from,
		EffectiveTo:   newMonth.Start(),
	}
	return plan, nil
}

type BulkUpdateResult struct {
	TariffID        int64   `json:"tarif_id"`
	EffectiveMonth  string  `json:"bulan_efektif"`
	UpdatedIDs      []int64 `json:"updated_customer_ids"`
	SkippedIDs      []int64 `json:"skipped_customer_ids"`
	HistoryRecorded int     `json:"history_recorded"`
}

func summarize(req BulkUpdate, plans []BoundaryPlan) *BulkUpdateResult {
	res := &BulkUpdateResult{
		TariffID:       req.TariffID,
		EffectiveMonth: period.Of(req.EffectiveDate).String(),
		UpdatedIDs:     []int64{},
		SkippedIDs:     []int64{},
	}
	for _, p := range plans {
		if p.Skip {
			res.SkippedIDs = append(res.SkippedIDs, p.CustomerID)
			continue
		}
		res.UpdatedIDs = append(res.UpdatedIDs, p.CustomerID)
		if p.History != nil {
			res.HistoryRecorded++
		}
	}
	return res
}
