package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wanessald/chatbot-payroll/models"
	"github.com/wanessald/chatbot-payroll/types"
	"github.com/wanessald/chatbot-payroll/utils"
)

// Planner rule names.
const (
	RuleNetPayPeriodTotal = "net_pay_period_total"
	RulePaymentDate       = "payment_date"
	RuleTopBonus          = "top_bonus"
	RuleColumnListing     = "column_listing"
	RuleFullRecord        = "full_record"
	RuleNotUnderstood     = "not_understood"
)

// DispatchOrder is the priority of the planner rules: the first rule whose
// predicate holds answers the question.
var DispatchOrder = []string{
	RuleNetPayPeriodTotal,
	RulePaymentDate,
	RuleTopBonus,
	RuleColumnListing,
	RuleFullRecord,
	RuleNotUnderstood,
}

const (
	msgNotUnderstood = "Não consegui entender sua consulta de folha de pagamento ou faltam informações."
	msgParseFailure  = "Não consegui entender o período '%s'. Use, por exemplo, 2025-05, 05/2025 ou maio/2025."
)

// RecordReader is the part of the record store the planner reads from.
type RecordReader interface {
	Query(ctx context.Context, q Query) ([]models.PayrollRecord, error)
	SumWithRows(ctx context.Context, q Query, column string) (decimal.NullDecimal, []models.PayrollRecord, error)
}

type rule struct {
	name   string
	match  func(p models.QueryParameters) bool
	answer func(ctx context.Context, p models.QueryParameters) (string, models.Evidence, error)
}

// Planner picks a response strategy for a set of query parameters, runs it
// against the record store and renders the answer.
type Planner struct {
	store RecordReader
	rules []rule
}

func NewPlanner(store RecordReader) *Planner {
	p := &Planner{store: store}

	byName := map[string]rule{
		RuleNetPayPeriodTotal: {match: matchNetPayPeriod, answer: p.netPayPeriodTotal},
		RulePaymentDate:       {match: matchPaymentDate, answer: p.paymentDate},
		RuleTopBonus:          {match: matchTopBonus, answer: p.topBonus},
		RuleColumnListing:     {match: matchColumnListing, answer: p.columnListing},
		RuleFullRecord:        {match: matchFullRecord, answer: p.fullRecord},
		RuleNotUnderstood:     {match: func(models.QueryParameters) bool { return true }, answer: notUnderstood},
	}
	for _, name := range DispatchOrder {
		r, ok := byName[name]
		if !ok {
			panic("planner: no rule named " + name)
		}
		r.name = name
		p.rules = append(p.rules, r)
	}
	return p
}

func matchNetPayPeriod(p models.QueryParameters) bool {
	return p.DataType == models.DataTypeNetPay && p.HasPeriod()
}

func matchPaymentDate(p models.QueryParameters) bool {
	return p.DataType == models.DataTypePaymentDate
}

func matchTopBonus(p models.QueryParameters) bool {
	return p.DataType == models.DataTypeBonus && p.Name != ""
}

func matchColumnListing(p models.QueryParameters) bool {
	_, ok := p.DataType.Column()
	return ok
}

func matchFullRecord(p models.QueryParameters) bool {
	return p.Name != "" && p.Competency != ""
}

// Select returns the name of the rule that would answer p.
func (pl *Planner) Select(p models.QueryParameters) string {
	return pl.selectRule(p).name
}

func (pl *Planner) selectRule(p models.QueryParameters) rule {
	for _, r := range pl.rules {
		if r.match(p) {
			return r
		}
	}
	return pl.rules[len(pl.rules)-1]
}

// Answer renders the response to a payroll question. Questions that match no
// rows, or carry an unreadable period, get a polite message and no evidence;
// only store failures are returned as errors.
func (pl *Planner) Answer(ctx context.Context, p models.QueryParameters) (string, models.Evidence, error) {
	p, err := normalizePeriods(p)
	if err != nil {
		var perr *types.ParseError
		if errors.As(err, &perr) {
			return fmt.Sprintf(msgParseFailure, perr.Input), nil, nil
		}
		return "", nil, err
	}

	r := pl.selectRule(p)
	plannerRuleTotal.WithLabelValues(r.name).Inc()
	utils.Logger.Debug("Planner rule selected", zap.String("rule", r.name))
	return r.answer(ctx, p)
}

func normalizePeriods(p models.QueryParameters) (models.QueryParameters, error) {
	for _, f := range []*string{&p.Competency, &p.PeriodStart, &p.PeriodEnd} {
		if *f == "" {
			continue
		}
		key, err := utils.NormalizePeriodKey(*f)
		if err != nil {
			return p, err
		}
		*f = key
	}
	return p, nil
}

func (pl *Planner) netPayPeriodTotal(ctx context.Context, p models.QueryParameters) (string, models.Evidence, error) {
	filter := FilterFromParams(p)
	start, end := utils.FormatPeriodKey(p.PeriodStart), utils.FormatPeriodKey(p.PeriodEnd)

	total, rows, err := pl.store.SumWithRows(ctx, Query{
		Filter:  filter,
		Columns: []string{models.ColumnEmployeeID, models.ColumnCompetency},
	}, models.ColumnNetPay)
	if err != nil {
		return "", nil, err
	}
	if !total.Valid {
		return fmt.Sprintf("Não encontrei dados de folha de pagamento para %s no período de %s a %s.",
			subject(p.Name), start, end), nil, nil
	}
	evidence := citeAll(rows)

	return fmt.Sprintf("O total líquido de %s de %s a %s foi de **%s**. Fonte: `%s`.",
		subject(p.Name), start, end, utils.FormatCurrency(total), joinCitations(evidence)), evidence, nil
}

func (pl *Planner) paymentDate(ctx context.Context, p models.QueryParameters) (string, models.Evidence, error) {
	rows, err := pl.store.Query(ctx, Query{Filter: FilterFromParams(p), Limit: 1})
	if err != nil {
		return "", nil, err
	}
	if len(rows) == 0 {
		return fmt.Sprintf("Não encontrei dados de pagamento para %s%s.", subject(p.Name), scope(p)), nil, nil
	}

	r := rows[0]
	evidence := models.Evidence{models.CiteRecord(r)}
	return fmt.Sprintf("O salário de %s referente a %s foi pago em **%s** no valor líquido de **%s**. Fonte: `%s`.",
		r.Name, utils.FormatPeriodKey(r.Competency), formatDate(r.PaymentDate),
		utils.FormatCurrency(r.NetPay.Null()), evidence[0]), evidence, nil
}

func (pl *Planner) topBonus(ctx context.Context, p models.QueryParameters) (string, models.Evidence, error) {
	rows, err := pl.store.Query(ctx, Query{
		Filter:    FilterFromParams(p),
		Columns:   []string{models.ColumnBonus, models.ColumnEmployeeID, models.ColumnCompetency},
		OrderDesc: models.ColumnBonus,
		Limit:     1,
	})
	if err != nil {
		return "", nil, err
	}
	if len(rows) == 0 {
		return fmt.Sprintf("Não encontrei dados de bônus para %s.", p.Name), nil, nil
	}

	r := rows[0]
	evidence := models.Evidence{models.CiteRecord(r)}
	return fmt.Sprintf("O maior bônus recebido por %s foi de **%s** em %s. Fonte: `%s`.",
		p.Name, utils.FormatCurrency(r.Bonus.Null()), utils.FormatPeriodKey(r.Competency), evidence[0]), evidence, nil
}

func (pl *Planner) columnListing(ctx context.Context, p models.QueryParameters) (string, models.Evidence, error) {
	column, _ := p.DataType.Column()

	columns := []string{column}
	for _, c := range []string{models.ColumnEmployeeID, models.ColumnCompetency} {
		if c != column {
			columns = append(columns, c)
		}
	}

	rows, err := pl.store.Query(ctx, Query{Filter: FilterFromParams(p), Columns: columns})
	if err != nil {
		return "", nil, err
	}
	if len(rows) == 0 {
		return fmt.Sprintf("Não encontrei dados de folha de pagamento para %s%s para o item solicitado.",
			subject(p.Name), scope(p)), nil, nil
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		value, _ := r.ColumnValue(column)
		lines = append(lines, fmt.Sprintf("%s: **%s**. Fonte: `%s`",
			r.Competency, formatColumnValue(column, value), models.CiteRecord(r)))
	}
	return "Os dados solicitados são:\n" + strings.Join(lines, "\n"), citeAll(rows), nil
}

func (pl *Planner) fullRecord(ctx context.Context, p models.QueryParameters) (string, models.Evidence, error) {
	rows, err := pl.store.Query(ctx, Query{Filter: FilterFromParams(p), Limit: 1})
	if err != nil {
		return "", nil, err
	}
	if len(rows) == 0 {
		return fmt.Sprintf("Não encontrei dados para %s em %s.", p.Name, utils.FormatPeriodKey(p.Competency)), nil, nil
	}

	r := rows[0]
	evidence := models.Evidence{models.CiteRecord(r)}
	var b strings.Builder
	fmt.Fprintf(&b, "Aqui estão os detalhes da folha de pagamento de %s em %s:\n", r.Name, utils.FormatPeriodKey(r.Competency))
	fmt.Fprintf(&b, "- Salário Base: %s\n", utils.FormatCurrency(r.BaseSalary.Null()))
	fmt.Fprintf(&b, "- Bônus: %s\n", utils.FormatCurrency(r.Bonus.Null()))
	fmt.Fprintf(&b, "- Líquido: %s\n", utils.FormatCurrency(r.NetPay.Null()))
	fmt.Fprintf(&b, "- INSS: %s\n", utils.FormatCurrency(r.DeductionsINSS.Null()))
	fmt.Fprintf(&b, "- IRRF: %s\n", utils.FormatCurrency(r.DeductionsIRRF.Null()))
	fmt.Fprintf(&b, "- Data de Pagamento: %s\n", formatDate(r.PaymentDate))
	fmt.Fprintf(&b, "Fonte: `%s`.", evidence[0])
	return b.String(), evidence, nil
}

func notUnderstood(context.Context, models.QueryParameters) (string, models.Evidence, error) {
	return msgNotUnderstood, nil, nil
}

// formatColumnValue renders amounts as currency (N/A when blank), the payment date as
// DD/MM/YYYY and anything else verbatim.
func formatColumnValue(column string, value interface{}) string {
	switch v := value.(type) {
	case models.Amount:
		return utils.FormatCurrency(v.Null())
	case string:
		if column == models.ColumnPaymentDate {
			return formatDate(v)
		}
		return v
	}
	return fmt.Sprint(value)
}

func formatDate(value string) string {
	if value == "" {
		return "N/A"
	}
	return utils.FormatDate(value)
}

func subject(name string) string {
	if name == "" {
		return "todos os funcionários"
	}
	return name
}

func scope(p models.QueryParameters) string {
	switch {
	case p.Competency != "":
		return " em " + utils.FormatPeriodKey(p.Competency)
	case p.HasPeriod():
		return fmt.Sprintf(" no período de %s a %s", utils.FormatPeriodKey(p.PeriodStart), utils.FormatPeriodKey(p.PeriodEnd))
	}
	return ""
}

func citeAll(rows []models.PayrollRecord) models.Evidence {
	evidence := make(models.Evidence, 0, len(rows))
	for _, r := range rows {
		evidence = append(evidence, models.CiteRecord(r))
	}
	return evidence
}

func joinCitations(evidence models.Evidence) string {
	parts := make([]string, len(evidence))
	for i, c := range evidence {
		parts[i] = c.String()
	}
	return strings.Join(parts, "; ")
}
