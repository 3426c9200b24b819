package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanessald/chatbot-payroll/types"
)

func TestParsePeriodKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2025-05", "2025-05"},
		{"2025-5", "2025-05"},
		{"2025-05-29", "2025-05"},
		{"05/2025", "2025-05"},
		{"5/2025", "2025-05"},
		{"maio/2025", "2025-05"},
		{"Maio de 2025", "2025-05"},
		{"MAIO 2025", "2025-05"},
		{"março-2025", "2025-03"},
		{"marco/2025", "2025-03"},
		{"mai/2025", "2025-05"},
		{"Dez/2024", "2024-12"},
		{"2025-maio", "2025-05"},
		{"mai/25", "2025-05"},
		{"jan-26", "2026-01"},
		{"  2025-01  ", "2025-01"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizePeriodKey(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePeriodKeyRejects(t *testing.T) {
	for _, in := range []string{"", "2025-13", "13/2025", "2025-02-30", "maiô/2025", "foo", "ontem", "2025"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParsePeriodKey(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrParse)

			var perr *types.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, in, perr.Input)
		})
	}
}

func TestFormatMonthYear(t *testing.T) {
	assert.Equal(t, "Mai/2025", FormatMonthYear(YearMonth{Year: 2025, Month: time.May}))
	assert.Equal(t, "Fev/2024", FormatMonthYear(YearMonth{Year: 2024, Month: time.February}))
	assert.Equal(t, "Mai/2025", FormatPeriodKey("2025-05"))
	assert.Equal(t, "sem data", FormatPeriodKey("sem data"))
}

func TestPeriodKeyRoundTrip(t *testing.T) {
	for year := 2024; year <= 2025; year++ {
		for m := time.January; m <= time.December; m++ {
			ym := YearMonth{Year: year, Month: m}

			got, err := ParsePeriodKey(ym.String())
			require.NoError(t, err)
			assert.Equal(t, ym, got)

			got, err = ParsePeriodKey(FormatMonthYear(ym))
			require.NoError(t, err)
			assert.Equal(t, ym, got)
		}
	}
}

func TestMonthByName(t *testing.T) {
	m, ok := MonthByName("Setembro")
	assert.True(t, ok)
	assert.Equal(t, time.September, m)

	_, ok = MonthByName("mais")
	assert.False(t, ok)
}
