package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	currencyPrefix = "R$ "
	notAvailable   = "N/A"
	isoDate        = "2006-01-02"
	brDate         = "02/01/2006"
)

// FormatCurrency renders a BRL amount, e.g. 1234.567 -> "R$ 1.234,57".
// A null amount renders as "N/A".
func FormatCurrency(v decimal.NullDecimal) string {
	if !v.Valid {
		return notAvailable
	}
	return FormatAmount(v.Decimal)
}

// FormatAmount rounds half away from zero to two places and swaps the
// separators to the pt-BR convention.
func FormatAmount(d decimal.Decimal) string {
	fixed := d.Round(2).StringFixed(2)

	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	intPart, fracPart, _ := strings.Cut(fixed, ".")
	return currencyPrefix + sign + groupThousands(intPart) + "," + fracPart
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// ParseCurrency is the inverse of FormatCurrency.
func ParseCurrency(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == notAvailable {
		return decimal.NullDecimal{}, nil
	}
	s = strings.TrimSpace(strings.TrimPrefix(s, strings.TrimSpace(currencyPrefix)))
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid currency text: %w", err)
	}
	return decimal.NewNullDecimal(d), nil
}

// FormatDate converts YYYY-MM-DD to DD/MM/YYYY. Anything else is returned
// unchanged.
func FormatDate(value string) string {
	t, err := time.Parse(isoDate, value)
	if err != nil {
		return value
	}
	return t.Format(brDate)
}
