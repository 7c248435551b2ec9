// Package arrears computes the unpaid months (tunggakan) of a customer and
// the amount owed for each, from tariff history, per-month overrides and the
// payment ledger.
package arrears

import (
	"fmt"
	"strings"
	"time"

	"waste-billing/internal/domain/customer"
	"waste-billing/internal/domain/payment"
	"waste-billing/internal/domain/tariff"
	"waste-billing/internal/pkg/apperrors"
	"waste-billing/internal/pkg/period"
)

// RateSource tags where a month's amount came from. Precedence is
// override, then history, then the current tariff.
type RateSource string

const (
	SourceOverride RateSource = "override"
	SourceHistory  RateSource = "history"
	SourceDefault  RateSource = "default"
)

type InactivePolicy string

const (
	// PolicyAccrue bills every month from the join month regardless of status.
	PolicyAccrue InactivePolicy = "accrue"
	// PolicySuppress skips months whose status on the 1st is nonaktif or cuti.
	PolicySuppress InactivePolicy = "suppress"
)

func ParsePolicy(s string) (InactivePolicy, error) {
	switch p := InactivePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", PolicyAccrue:
		return PolicyAccrue, nil
	case PolicySuppress:
		return PolicySuppress, nil
	default:
		return "", fmt.Errorf("%w: unknown inactive policy %q", apperrors.ErrInvalidArgument, s)
	}
}

type IssueKind string

const (
	IssueUncoveredMonths   IssueKind = "uncovered_pre_effective_months"
	IssueDuplicateOverride IssueKind = "duplicate_override"
	IssueDoublePaid        IssueKind = "double_paid_month"
)

// Issue is a data-integrity finding that did not prevent the computation.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Months  []string  `json:"months"`
	Message string    `json:"message"`
}

type ArrearMonth struct {
	Month   period.Month `json:"month"`
	Amount  int64        `json:"amount"`
	Source  RateSource   `json:"source"`
	Details string       `json:"details,omitempty"`
}

type Result struct {
	CustomerID       int64          `json:"customerId"`
	AsOf             period.Month   `json:"asOf"`
	TotalArrears     int64          `json:"totalArrears"`
	TotalMonths      int            `json:"totalMonths"`
	ArrearMonths     []ArrearMonth  `json:"arrearMonths"`
	SuppressedMonths []period.Month `json:"suppressedMonths,omitempty"`
	Issues           []Issue        `json:"issues,omitempty"`
}

func (r *Result) add(m ArrearMonth) {
	r.ArrearMonths = append(r.ArrearMonths, m)
	r.TotalArrears += m.Amount
	r.TotalMonths++
}

func (r *Result) Months() []string {
	keys := make([]string, len(r.ArrearMonths))
	for i, m := range r.ArrearMonths {
		keys[i] = m.Month.String()
	}
	return keys
}

// Input is everything already fetched for one customer.
type Input struct {
	Customer      *customer.Customer
	CurrentRate   int64
	History       []tariff.History
	Overrides     []tariff.Override
	Payments      []payment.Payment
	StatusHistory []customer.StatusChange
}

type Resolution struct {
	Amount  int64
	Source  RateSource
	Details string
}

// Resolve prices one month.
func Resolve(m period.Month, overrides *tariff.OverrideIndex, timeline *tariff.Timeline) Resolution {
	if o, ok := overrides.For(m); ok {
		details := "manual override"
		if o.Note != "" {
			details += ": " + o.Note
		}
		return Resolution{Amount: o.Amount, Source: SourceOverride, Details: details}
	}
	if h, ok := timeline.Lookup(m); ok {
		return Resolution{
			Amount:  h.Amount,
			Source:  SourceHistory,
			Details: fmt.Sprintf("tariff history %s..%s", h.FromMonth(), h.ToMonth().AddMonths(-1)),
		}
	}
	return Resolution{Amount: timeline.CurrentRate(), Source: SourceDefault, Details: "current tariff"}
}

// Engine holds no per-call state and is safe for concurrent use.
type Engine struct {
	policy InactivePolicy
}

func NewEngine(policy InactivePolicy) *Engine {
	if policy == "" {
		policy = PolicyAccrue
	}
	return &Engine{policy: policy}
}

func (e *Engine) Policy() InactivePolicy { return e.policy }

// Compute enumerates months from the join month through the month of asOf,
// oldest first, skipping paid months. Malformed tariff history is returned as
// a data-integrity error.
func (e *Engine) Compute(in Input, asOf time.Time) (*Result, error) {
	if in.Customer == nil {
		return nil, fmt.Errorf("%w: customer is required", apperrors.ErrInvalidArgument)
	}
	cust := in.Customer
	asOfMonth := period.Of(asOf)
	result := &Result{
		CustomerID:   cust.ID,
		AsOf:         asOfMonth,
		ArrearMonths: []ArrearMonth{},
	}

	join := cust.JoinMonth()
	if join.After(asOfMonth) {
		return result, nil
	}

	timeline, err := tariff.NewTimeline(cust.ID, in.CurrentRate, cust.EffectiveMonth(), in.History)
	if err != nil {
		return nil, err
	}
	overrides := tariff.NewOverrideIndex(in.Overrides)
	ledger := payment.PaidMonths(in.Payments)

	uncovered := make(map[period.Month]bool)
	for _, m := range timeline.Uncovered(join) {
		uncovered[m] = true
	}
	var pricedUncovered []period.Month

	for _, m := range period.Range(join, asOfMonth) {
		if ledger.Contains(m) {
			continue
		}
		if e.policy == PolicySuppress && !customer.StatusOn(cust.Status, in.StatusHistory, m.Start()).Billable() {
			result.SuppressedMonths = append(result.SuppressedMonths, m)
			continue
		}
		res := Resolve(m, overrides, timeline)
		if res.Source == SourceDefault && uncovered[m] {
			pricedUncovered = append(pricedUncovered, m)
		}
		result.add(ArrearMonth{Month: m, Amount: res.Amount, Source: res.Source, Details: res.Details})
	}

	if len(pricedUncovered) > 0 {
		result.Issues = append(result.Issues, Issue{
			Kind:    IssueUncoveredMonths,
			Months:  period.Strings(pricedUncovered),
			Message: fmt.Sprintf("months before tanggal_efektif_tarif %s have no tariff history and were priced at the current tariff", cust.EffectiveMonth()),
		})
	}
	if dups := overrides.Duplicates(); len(dups) > 0 {
		result.Issues = append(result.Issues, Issue{
			Kind:    IssueDuplicateOverride,
			Months:  period.Strings(dups),
			Message: "several overrides exist for the same month; the most recently created one was used",
		})
	}
	if dups := ledger.Duplicates(); len(dups) > 0 {
		result.Issues = append(result.Issues, Issue{
			Kind:    IssueDoublePaid,
			Months:  period.Strings(dups),
			Message: "months are covered by more than one live payment",
		})
	}
	return result, nil
}
