package tariff

import (
	"sort"

	"waste-billing/internal/pkg/period"
)

type OverrideIndex struct {
	byMonth    map[period.Month]Override
	duplicates []period.Month
}

// NewOverrideIndex keys overrides by month. When a month has several, the most
// recently created one wins, with the higher ID breaking ties.
func NewOverrideIndex(overrides []Override) *OverrideIndex {
	ix := &OverrideIndex{byMonth: make(map[period.Month]Override, len(overrides))}
	dup := make(map[period.Month]bool)
	for _, o := range overrides {
		existing, ok := ix.byMonth[o.Month]
		if !ok {
			ix.byMonth[o.Month] = o
			continue
		}
		dup[o.Month] = true
		if newer(o, existing) {
			ix.byMonth[o.Month] = o
		}
	}
	for m := range dup {
		ix.duplicates = append(ix.duplicates, m)
	}
	sort.Slice(ix.duplicates, func(i, j int) bool { return ix.duplicates[i] < ix.duplicates[j] })
	return ix
}

func newer(a, b Override) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func (ix *OverrideIndex) For(m period.Month) (Override, bool) {
	o, ok := ix.byMonth[m]
	return o, ok
}

func (ix *OverrideIndex) Duplicates() []period.Month {
	return ix.duplicates
}

func (ix *OverrideIndex) Len() int { return len(ix.byMonth) }
