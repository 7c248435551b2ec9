// Package period implements the billing month used as the key of every
// monthly charge, override and payment ("YYYY-MM").
package period

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"waste-billing/internal/pkg/apperrors"
)

var monthKeyRegex = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Month counts calendar months since January of year 0, so ordinary integer
// comparison is chronological order.
type Month int

func New(year int, m time.Month) Month {
	return Month(year*12 + int(m) - 1)
}

// Of returns the month containing t, evaluated in t's own location.
func Of(t time.Time) Month {
	return New(t.Year(), t.Month())
}

func Parse(s string) (Month, error) {
	if !monthKeyRegex.MatchString(s) {
		return 0, fmt.Errorf("%w: invalid month key %q, expected YYYY-MM", apperrors.ErrInvalidArgument, s)
	}
	year, _ := strconv.Atoi(s[:4])
	mon, _ := strconv.Atoi(s[5:])
	if mon < 1 || mon > 12 {
		return 0, fmt.Errorf("%w: invalid month key %q, month must be 01-12", apperrors.ErrInvalidArgument, s)
	}
	return New(year, time.Month(mon)), nil
}

// MustParse is Parse for constants in tests and seed data.
func MustParse(s string) Month {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Month) Year() int {
	return int(m) / 12
}

func (m Month) MonthOfYear() time.Month {
	return time.Month(int(m)%12 + 1)
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year(), int(m.MonthOfYear()))
}

func (m Month) Next() Month {
	return m + 1
}

func (m Month) AddMonths(n int) Month {
	return m + Month(n)
}

func (m Month) Before(other Month) bool {
	return m < other
}

func (m Month) After(other Month) bool {
	return m > other
}

// Start is midnight UTC on the first day of the month.
func (m Month) Start() time.Time {
	return time.Date(m.Year(), m.MonthOfYear(), 1, 0, 0, 0, 0, time.UTC)
}

// Range lists every month from from through to inclusive, oldest first.
// It is empty when to precedes from.
func Range(from, to Month) []Month {
	if to < from {
		return nil
	}
	months := make([]Month, 0, int(to-from)+1)
	for m := from; m <= to; m++ {
		months = append(months, m)
	}
	return months
}

func (m Month) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Month) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseAll parses a list of keys, failing on the first malformed one.
func ParseAll(keys []string) ([]Month, error) {
	months := make([]Month, 0, len(keys))
	for _, k := range keys {
		m, err := Parse(k)
		if err != nil {
			return nil, err
		}
		months = append(months, m)
	}
	return months, nil
}

func Strings(months []Month) []string {
	keys := make([]string, len(months))
	for i, m := range months {
		keys[i] = m.String()
	}
	return keys
}

func Sort(months []Month) {
	sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })
}
