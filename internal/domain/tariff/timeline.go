package tariff

import (
	"sort"

	"waste-billing/internal/pkg/apperrors"
	"waste-billing/internal/pkg/period"
)

// Timeline answers the standard monthly rate for one customer from their
// tariff history and current tariff.
type Timeline struct {
	customerID  int64
	currentRate int64
	effective   period.Month
	entries     []History
}

// NewTimeline validates and indexes history. Entries whose end precedes their
// start, and entries whose month ranges overlap, are data-integrity errors.
func NewTimeline(customerID, currentRate int64, effective period.Month, history []History) (*Timeline, error) {
	entries := make([]History, 0, len(history))
	for _, h := range history {
		if h.EffectiveTo.Before(h.EffectiveFrom) {
			return nil, apperrors.NewIntegrityError(customerID,
				"tariff history %d ends (%s) before it starts (%s)",
				h.ID, h.EffectiveTo.Format("2006-01-02"), h.EffectiveFrom.Format("2006-01-02"))
		}
		if h.FromMonth() == h.ToMonth() {
			continue
		}
		entries = append(entries, h)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].FromMonth().Before(entries[j].FromMonth())
	})
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if cur.FromMonth().Before(prev.ToMonth()) {
			return nil, apperrors.NewIntegrityError(customerID,
				"tariff history ranges %d [%s, %s) and %d [%s, %s) overlap",
				prev.ID, prev.FromMonth(), prev.ToMonth(), cur.ID, cur.FromMonth(), cur.ToMonth())
		}
	}

	return &Timeline{
		customerID:  customerID,
		currentRate: currentRate,
		effective:   effective,
		entries:     entries,
	}, nil
}

func (t *Timeline) CurrentRate() int64 { return t.currentRate }

func (t *Timeline) Effective() period.Month { return t.effective }

// Lookup returns the history entry covering m, if any.
func (t *Timeline) Lookup(m period.Month) (History, bool) {
	i := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].ToMonth().After(m)
	})
	if i < len(t.entries) && t.entries[i].Covers(m) {
		return t.entries[i], true
	}
	return History{}, false
}

// RateFor prices m from history when an entry covers it and from the current
// tariff otherwise, including months before the current effective date.
func (t *Timeline) RateFor(m period.Month) (amount int64, fromHistory bool) {
	if h, ok := t.Lookup(m); ok {
		return h.Amount, true
	}
	return t.currentRate, false
}

// Uncovered lists months in [join, effective) that no history entry prices.
func (t *Timeline) Uncovered(join period.Month) []period.Month {
	if !join.Before(t.effective) {
		return nil
	}
	var out []period.Month
	for _, m := range period.Range(join, t.effective.AddMonths(-1)) {
		if _, ok := t.Lookup(m); !ok {
			out = append(out, m)
		}
	}
	return out
}
