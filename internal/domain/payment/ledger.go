package payment

import (
	"sort"

	"waste-billing/internal/pkg/period"
)

// Ledger is the set of months covered by a customer's live payments. It is
// rebuilt from the payment rows on every arrears query.
type Ledger struct {
	paidBy     map[period.Month]int64
	duplicates []period.Month
}

func PaidMonths(payments []Payment) *Ledger {
	l := &Ledger{paidBy: make(map[period.Month]int64)}
	dup := make(map[period.Month]bool)
	for i := range payments {
		p := &payments[i]
		if !p.Live() {
			continue
		}
		for _, m := range p.Months {
			if _, ok := l.paidBy[m]; ok {
				dup[m] = true
				continue
			}
			l.paidBy[m] = p.ID
		}
	}
	for m := range dup {
		l.duplicates = append(l.duplicates, m)
	}
	sort.Slice(l.duplicates, func(i, j int) bool { return l.duplicates[i] < l.duplicates[j] })
	return l
}

func (l *Ledger) Contains(m period.Month) bool {
	_, ok := l.paidBy[m]
	return ok
}

func (l *Ledger) PaymentFor(m period.Month) (int64, bool) {
	id, ok := l.paidBy[m]
	return id, ok
}

func (l *Ledger) Months() []period.Month {
	out := make([]period.Month, 0, len(l.paidBy))
	for m := range l.paidBy {
		out = append(out, m)
	}
	period.Sort(out)
	return out
}

// Duplicates lists months covered by more than one live payment.
func (l *Ledger) Duplicates() []period.Month {
	return l.duplicates
}
