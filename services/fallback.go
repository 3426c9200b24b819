package services

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wanessald/chatbot-payroll/models"
	"github.com/wanessald/chatbot-payroll/utils"
)

// Gazetteer maps lowercase aliases to canonical employee names.
type Gazetteer map[string]string

func DefaultGazetteer() Gazetteer {
	return Gazetteer{
		"ana":        "Ana Souza",
		"ana souza":  "Ana Souza",
		"bruno":      "Bruno Lima",
		"bruno lima": "Bruno Lima",
	}
}

type gazetteerFile struct {
	Employees []struct {
		Name    string   `yaml:"name"`
		Aliases []string `yaml:"aliases"`
	} `yaml:"employees"`
}

// LoadGazetteer reads a YAML file of the form
//
//	employees:
//	  - name: Ana Souza
//	    aliases: [Ana]
func LoadGazetteer(path string) (Gazetteer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file gazetteerFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse gazetteer: %w", err)
	}

	g := Gazetteer{}
	for _, e := range file.Employees {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		g[normalizeAlias(name)] = name
		for _, alias := range e.Aliases {
			if a := normalizeAlias(alias); a != "" {
				g[a] = name
			}
		}
	}
	if len(g) == 0 {
		return nil, fmt.Errorf("gazetteer %q has no employees", path)
	}
	return g, nil
}

func normalizeAlias(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// keywordRule sets a data type when any of its phrases occurs in the text
// as whole words.
type keywordRule struct {
	dataType models.DataType
	re       *regexp.Regexp
}

func keywords(dt models.DataType, phrases ...string) keywordRule {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(p), " ", `\s+`)
	}
	return keywordRule{
		dataType: dt,
		re:       regexp.MustCompile(`(?:^|[^\pL])(?:` + strings.Join(quoted, "|") + `)(?:[^\pL]|$)`),
	}
}

// dataTypeKeywords is checked in order; the first rule with a hit wins.
var dataTypeKeywords = []keywordRule{
	keywords(models.DataTypePaymentDate, "data de pagamento", "data do pagamento", "quando foi pago", "quando foi paga", "dia do pagamento"),
	keywords(models.DataTypeNetPay, "líquido", "liquido", "recebi"),
	keywords(models.DataTypeBonus, "bônus", "bonus"),
	keywords(models.DataTypeINSSDeduction, "inss"),
	keywords(models.DataTypeIRRFDeduction, "irrf"),
}

var (
	monthYearRe      = regexp.MustCompile(`(?i)(?:^|[^\pL])(` + utils.MonthNamePattern + `)(?:[^\pL\d]\D*)?(\d{4})`)
	quarterDigitRe   = regexp.MustCompile(`(?i)(?:^|\D)([1-4])\s*[º°ªo]?\s*trimestre` + quarterYearPattern)
	quarterOrdinalRe = regexp.MustCompile(`(?i)(primeiro|segundo|terceiro|quarto)\s+trimestre` + quarterYearPattern)
)

// quarterYearPattern captures a year written right after the quarter, as in
// "1º trimestre de 2024" or "2º trimestre/2024".
const quarterYearPattern = `(?:\s*(?:de\s+|do\s+ano\s+de\s+|/|-)?\s*((?:19|20)\d{2})(?:\D|$))?`

var quarterOrdinals = map[string]int{"primeiro": 1, "segundo": 2, "terceiro": 3, "quarto": 4}

// FallbackExtractor derives query parameters from keywords and patterns. It
// is deterministic and needs no external service.
type FallbackExtractor struct {
	gazetteer   Gazetteer
	namesRe     *regexp.Regexp
	defaultYear int
}

// NewFallbackExtractor builds the extractor. defaultYear is used for quarter
// phrases that carry no explicit year.
func NewFallbackExtractor(g Gazetteer, defaultYear int) *FallbackExtractor {
	aliases := make([]string, 0, len(g))
	for alias := range g {
		aliases = append(aliases, alias)
	}
	// Longest first so "ana souza" wins over "ana".
	sort.Slice(aliases, func(i, j int) bool {
		if len(aliases[i]) != len(aliases[j]) {
			return len(aliases[i]) > len(aliases[j])
		}
		return aliases[i] < aliases[j]
	})

	quoted := make([]string, len(aliases))
	for i, a := range aliases {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(a), " ", `\s+`)
	}

	f := &FallbackExtractor{gazetteer: g, defaultYear: defaultYear}
	if len(quoted) > 0 {
		f.namesRe = regexp.MustCompile(`(?i)(?:^|[^\pL])(` + strings.Join(quoted, "|") + `)(?:[^\pL]|$)`)
	}
	return f
}

func (f *FallbackExtractor) Extract(text string) models.QueryParameters {
	params := models.QueryParameters{Intent: models.IntentGeneralChat}
	lower := strings.ToLower(text)
	matched := false

	if f.namesRe != nil {
		if m := f.namesRe.FindStringSubmatch(text); m != nil {
			if name, ok := f.gazetteer[normalizeAlias(m[1])]; ok {
				params.Name = name
				matched = true
			}
		}
	}

	if m := monthYearRe.FindStringSubmatch(text); m != nil {
		if month, ok := utils.MonthByName(m[1]); ok {
			year, _ := strconv.Atoi(m[2])
			params.Competency = utils.YearMonth{Year: year, Month: month}.String()
			matched = true
		}
	}

	if q, year := f.quarter(lower); q > 0 {
		first := (q-1)*3 + 1
		params.PeriodStart = fmt.Sprintf("%04d-%02d", year, first)
		params.PeriodEnd = fmt.Sprintf("%04d-%02d", year, first+2)
		matched = true
	}

	for _, rule := range dataTypeKeywords {
		if rule.re.MatchString(lower) {
			params.DataType = rule.dataType
			matched = true
			break
		}
	}

	if matched {
		params.Intent = models.IntentPayrollQuery
	}
	return params
}

// quarter returns the quarter named in the text and its year. Only a year
// written next to the quarter counts; otherwise defaultYear applies.
func (f *FallbackExtractor) quarter(lower string) (int, int) {
	var q int
	m := quarterDigitRe.FindStringSubmatch(lower)
	if m != nil {
		q, _ = strconv.Atoi(m[1])
	} else if m = quarterOrdinalRe.FindStringSubmatch(lower); m != nil {
		q = quarterOrdinals[m[1]]
	} else {
		return 0, 0
	}

	year := f.defaultYear
	if m[2] != "" {
		year, _ = strconv.Atoi(m[2])
	}
	return q, year
}
