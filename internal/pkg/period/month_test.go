package period_test

import (
	"encoding/json"
	"testing"
	"time"

	"waste-billing/internal/pkg/apperrors"
	"waste-billing/internal/pkg/period"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "valid", input: "2025-01", want: "2025-01"},
		{name: "december", input: "2024-12", want: "2024-12"},
		{name: "missing zero padding", input: "2025-1", wantErr: true},
		{name: "month thirteen", input: "2025-13", wantErr: true},
		{name: "month zero", input: "2025-00", wantErr: true},
		{name: "full date", input: "2025-01-15", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := period.Parse(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.String())
		})
	}
}

func TestMonthOrderingMatchesKeyOrdering(t *testing.T) {
	a := period.MustParse("2024-12")
	b := period.MustParse("2025-01")

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, b, a.Next())
	assert.Less(t, a.String(), b.String())
	assert.Equal(t, period.MustParse("2026-02"), a.AddMonths(14))
}

func TestOf(t *testing.T) {
	ts := time.Date(2025, time.March, 31, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2025-03", period.Of(ts).String())
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), period.Of(ts).Start())
}

func TestRange(t *testing.T) {
	months := period.Range(period.MustParse("2024-11"), period.MustParse("2025-02"))
	assert.Equal(t, []string{"2024-11", "2024-12", "2025-01", "2025-02"}, period.Strings(months))

	assert.Empty(t, period.Range(period.MustParse("2025-02"), period.MustParse("2025-01")))
	assert.Len(t, period.Range(period.MustParse("2025-02"), period.MustParse("2025-02")), 1)
}

func TestMonthJSON(t *testing.T) {
	payload := struct {
		Month period.Month `json:"month"`
	}{Month: period.MustParse("2025-04")}

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"month":"2025-04"}`, string(raw))

	var decoded struct {
		Month period.Month `json:"month"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"month":"2025-07"}`), &decoded))
	assert.Equal(t, "2025-07", decoded.Month.String())

	assert.Error(t, json.Unmarshal([]byte(`{"month":"July"}`), &decoded))
}

func TestParseAll(t *testing.T) {
	months, err := period.ParseAll([]string{"2025-01", "2025-02"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01", "2025-02"}, period.Strings(months))

	_, err = period.ParseAll([]string{"2025-01", "bad"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestSort(t *testing.T) {
	months := []period.Month{period.MustParse("2025-03"), period.MustParse("2024-12"), period.MustParse("2025-01")}
	period.Sort(months)
	assert.Equal(t, []string{"2024-12", "2025-01", "2025-03"}, period.Strings(months))
}
