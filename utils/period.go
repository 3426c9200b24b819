package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wanessald/chatbot-payroll/types"
)

// YearMonth is a competency key.
type YearMonth struct {
	Year  int
	Month time.Month
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

var monthNames = map[string]time.Month{
	"janeiro":   time.January,
	"fevereiro": time.February,
	"março":     time.March,
	"marco":     time.March,
	"abril":     time.April,
	"maio":      time.May,
	"junho":     time.June,
	"julho":     time.July,
	"agosto":    time.August,
	"setembro":  time.September,
	"outubro":   time.October,
	"novembro":  time.November,
	"dezembro":  time.December,
	"jan":       time.January,
	"fev":       time.February,
	"mar":       time.March,
	"abr":       time.April,
	"mai":       time.May,
	"jun":       time.June,
	"jul":       time.July,
	"ago":       time.August,
	"set":       time.September,
	"out":       time.October,
	"nov":       time.November,
	"dez":       time.December,
}

var monthAbbrev = [...]string{"", "Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

// MonthNamePattern matches any Portuguese month name or abbreviation; full
// names come first so they win over their own prefixes.
const MonthNamePattern = `janeiro|fevereiro|março|marco|abril|maio|junho|julho|agosto|setembro|outubro|novembro|dezembro|jan|fev|mar|abr|mai|jun|jul|ago|set|out|nov|dez`

// MonthByName looks up a Portuguese month name or 3-letter abbreviation,
// case-insensitively.
func MonthByName(name string) (time.Month, bool) {
	m, ok := monthNames[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

// FormatMonthYear renders a competency as "Mai/2025".
func FormatMonthYear(ym YearMonth) string {
	return fmt.Sprintf("%s/%04d", monthAbbrev[ym.Month], ym.Year)
}

// FormatPeriodKey renders a period text as "Mai/2025", or returns it
// unchanged when it cannot be parsed.
func FormatPeriodKey(text string) string {
	ym, err := ParsePeriodKey(text)
	if err != nil {
		return text
	}
	return FormatMonthYear(ym)
}

var (
	isoMonthRe      = regexp.MustCompile(`^(\d{4})-(\d{1,2})$`)
	isoDayRe        = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	slashMonthRe    = regexp.MustCompile(`^(\d{1,2})/(\d{4})$`)
	nameYearRe      = regexp.MustCompile(`^(\pL+)\s*(?:/|-|\s+de\s+|\s+)\s*(\d{4})$`)
	yearNameRe      = regexp.MustCompile(`^(\d{4})\s*[-/]\s*(\pL+)$`)
	nameShortYearRe = regexp.MustCompile(`^(\pL+)\s*[-/\s]\s*(\d{2})$`)
)

// ParsePeriodKey accepts YYYY-MM, YYYY-MM-DD, MM/YYYY, month name with a
// 4-digit year (maio/2025, maio de 2025, 2025-maio) and month name with a
// 2-digit year in the 2000s (mai/25).
func ParsePeriodKey(text string) (YearMonth, error) {
	s := strings.ToLower(strings.TrimSpace(text))

	if m := isoMonthRe.FindStringSubmatch(s); m != nil {
		return newYearMonth(text, m[1], m[2])
	}
	if m := isoDayRe.FindStringSubmatch(s); m != nil {
		ym, err := newYearMonth(text, m[1], m[2])
		if err != nil {
			return YearMonth{}, err
		}
		day, _ := strconv.Atoi(m[3])
		if day < 1 || time.Date(ym.Year, ym.Month, day, 0, 0, 0, 0, time.UTC).Month() != ym.Month {
			return YearMonth{}, &types.ParseError{Input: text}
		}
		return ym, nil
	}
	if m := slashMonthRe.FindStringSubmatch(s); m != nil {
		return newYearMonth(text, m[2], m[1])
	}
	if m := nameYearRe.FindStringSubmatch(s); m != nil {
		return namedYearMonth(text, m[1], m[2])
	}
	if m := yearNameRe.FindStringSubmatch(s); m != nil {
		return namedYearMonth(text, m[2], m[1])
	}
	if m := nameShortYearRe.FindStringSubmatch(s); m != nil {
		return namedYearMonth(text, m[1], "20"+m[2])
	}
	return YearMonth{}, &types.ParseError{Input: text}
}

// NormalizePeriodKey returns the canonical YYYY-MM form of a period text.
func NormalizePeriodKey(text string) (string, error) {
	ym, err := ParsePeriodKey(text)
	if err != nil {
		return "", err
	}
	return ym.String(), nil
}

func namedYearMonth(input, name, year string) (YearMonth, error) {
	month, ok := MonthByName(name)
	if !ok {
		return YearMonth{}, &types.ParseError{Input: input}
	}
	return newYearMonth(input, year, strconv.Itoa(int(month)))
}

func newYearMonth(input, year, month string) (YearMonth, error) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return YearMonth{}, &types.ParseError{Input: input}
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return YearMonth{}, &types.ParseError{Input: input}
	}
	return YearMonth{Year: y, Month: time.Month(m)}, nil
}
