package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wanessald/chatbot-payroll/models"
	"github.com/wanessald/chatbot-payroll/types"
)

func payroll(name, competency string, dt models.DataType) models.QueryParameters {
	return models.QueryParameters{Intent: models.IntentPayrollQuery, Name: name, Competency: competency, DataType: dt}
}

func payrollPeriod(name, start, end string, dt models.DataType) models.QueryParameters {
	return models.QueryParameters{Intent: models.IntentPayrollQuery, Name: name, PeriodStart: start, PeriodEnd: end, DataType: dt}
}

func cites(pairs ...string) models.Evidence {
	var ev models.Evidence
	for i := 0; i < len(pairs); i += 2 {
		ev = append(ev, models.Citation{EmployeeID: pairs[i], Competency: pairs[i+1]})
	}
	return ev
}

func TestDispatchOrder(t *testing.T) {
	assert.Equal(t, []string{
		"net_pay_period_total",
		"payment_date",
		"top_bonus",
		"column_listing",
		"full_record",
		"not_understood",
	}, DispatchOrder)
}

func TestPlannerSelect(t *testing.T) {
	p := NewPlanner(newTestStore(t))

	tests := []struct {
		name   string
		params models.QueryParameters
		want   string
	}{
		{"net pay with range", payrollPeriod("Ana Souza", "2025-01", "2025-03", models.DataTypeNetPay), RuleNetPayPeriodTotal},
		{"net pay with range and competency", models.QueryParameters{Intent: models.IntentPayrollQuery, DataType: models.DataTypeNetPay,
			Competency: "2025-02", PeriodStart: "2025-01", PeriodEnd: "2025-03"}, RuleNetPayPeriodTotal},
		{"net pay with half range", models.QueryParameters{Intent: models.IntentPayrollQuery, DataType: models.DataTypeNetPay, PeriodStart: "2025-01"}, RuleColumnListing},
		{"net pay with competency", payroll("Ana Souza", "2025-05", models.DataTypeNetPay), RuleColumnListing},
		{"payment date", payroll("", "", models.DataTypePaymentDate), RulePaymentDate},
		{"payment date with range", payrollPeriod("Bruno Lima", "2025-01", "2025-03", models.DataTypePaymentDate), RulePaymentDate},
		{"bonus with name", payroll("Ana Souza", "", models.DataTypeBonus), RuleTopBonus},
		{"bonus without name", payroll("", "2025-05", models.DataTypeBonus), RuleColumnListing},
		{"inss", payroll("Bruno Lima", "", models.DataTypeINSSDeduction), RuleColumnListing},
		{"other column", payroll("Ana Souza", "2025-05", models.DataType(models.ColumnBaseSalary)), RuleColumnListing},
		{"name and competency", payroll("Ana Souza", "2025-05", models.DataTypeNone), RuleFullRecord},
		{"unknown data type with name and competency", payroll("Ana Souza", "2025-05", models.DataType("vale_transporte")), RuleFullRecord},
		{"unknown data type alone", payroll("", "", models.DataType("vale_transporte")), RuleNotUnderstood},
		{"name only", payroll("Ana Souza", "", models.DataTypeNone), RuleNotUnderstood},
		{"nothing", payroll("", "", models.DataTypeNone), RuleNotUnderstood},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Select(tt.params))
		})
	}
}

func TestPlannerAnswers(t *testing.T) {
	p := NewPlanner(newLoadedStore(t))

	tests := []struct {
		name     string
		params   models.QueryParameters
		contains []string
		evidence models.Evidence
	}{
		{
			"net pay by month",
			payroll("Ana Souza", "2025-05", models.DataTypeNetPay),
			[]string{"R$ 8.418,75", "E001, 2025-05"},
			cites("E001", "2025-05"),
		},
		{
			"quarter total",
			payrollPeriod("Ana Souza", "2025-01", "2025-03", models.DataTypeNetPay),
			[]string{"R$ 23.221,25", "E001, 2025-01", "E001, 2025-02", "E001, 2025-03", "Ana Souza de Jan/2025 a Mar/2025"},
			cites("E001", "2025-01", "E001", "2025-02", "E001", "2025-03"),
		},
		{
			"quarter total for everyone",
			payrollPeriod("", "2025-01", "2025-03", models.DataTypeNetPay),
			[]string{"R$ 38.128,91", "todos os funcionários"},
			cites("E001", "2025-01", "E001", "2025-02", "E001", "2025-03", "E002", "2025-01", "E002", "2025-02", "E002", "2025-03"),
		},
		{
			"payment date with net pay",
			payroll("Bruno Lima", "2025-04", models.DataTypePaymentDate),
			[]string{"28/04/2025", "R$ 5.756,25", "E002, 2025-04", "Abr/2025"},
			cites("E002", "2025-04"),
		},
		{
			"payment date takes the first row",
			payroll("", "", models.DataTypePaymentDate),
			[]string{"Ana Souza", "30/01/2025", "R$ 7.740,42", "E001, 2025-01"},
			cites("E001", "2025-01"),
		},
		{
			"top bonus",
			payroll("Ana Souza", "", models.DataTypeBonus),
			[]string{"maior bônus recebido por Ana Souza", "R$ 2.500,00", "Mai/2025", "E001, 2025-05"},
			cites("E001", "2025-05"),
		},
		{
			"full record",
			payroll("Ana Souza", "2025-05", models.DataTypeNone),
			[]string{
				"Salário Base: R$ 8.000,00",
				"Bônus: R$ 2.500,00",
				"Líquido: R$ 8.418,75",
				"INSS: R$ 908,86",
				"IRRF: R$ 1.172,39",
				"Data de Pagamento: 29/05/2025",
				"E001, 2025-05",
			},
			cites("E001", "2025-05"),
		},
		{
			"full record with a loose competency",
			payroll("Bruno Lima", "junho/2025", models.DataTypeNone),
			[]string{"Jun/2025", "Líquido: R$ 5.466,22", "E002, 2025-06"},
			cites("E002", "2025-06"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, evidence, err := p.Answer(context.Background(), tt.params)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, answer, s)
			}
			assert.Equal(t, tt.evidence, evidence)
		})
	}
}

func TestPlannerColumnListing(t *testing.T) {
	p := NewPlanner(newLoadedStore(t))
	ctx := context.Background()

	answer, evidence, err := p.Answer(ctx, payroll("Bruno Lima", "", models.DataTypeINSSDeduction))
	require.NoError(t, err)

	lines := strings.Split(answer, "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "Os dados solicitados são:", lines[0])
	assert.Equal(t, "2025-01: **R$ 676,38**. Fonte: `E002, 2025-01`", lines[1])
	assert.Equal(t, "2025-06: **R$ 676,38**. Fonte: `E002, 2025-06`", lines[6])
	assert.Len(t, evidence, 6)

	answer, _, err = p.Answer(ctx, payroll("Ana Souza", "2025-02", models.DataType(models.ColumnName)))
	require.NoError(t, err)
	assert.Contains(t, answer, "2025-02: **Ana Souza**. Fonte: `E001, 2025-02`")

	answer, evidence, err = p.Answer(ctx, payroll("", "2025-05", models.DataTypeBonus))
	require.NoError(t, err)
	assert.Contains(t, answer, "2025-05: **R$ 2.500,00**. Fonte: `E001, 2025-05`")
	assert.Contains(t, answer, "2025-05: **R$ 0,00**. Fonte: `E002, 2025-05`")
	assert.Equal(t, cites("E001", "2025-05", "E002", "2025-05"), evidence)
}

func TestPlannerNotFound(t *testing.T) {
	p := NewPlanner(newLoadedStore(t))

	tests := []struct {
		name   string
		params models.QueryParameters
		want   string
	}{
		{"period total", payrollPeriod("Ana Souza", "2024-01", "2024-03", models.DataTypeNetPay),
			"Não encontrei dados de folha de pagamento para Ana Souza no período de Jan/2024 a Mar/2024."},
		{"payment date", payroll("Carla Dias", "2025-04", models.DataTypePaymentDate),
			"Não encontrei dados de pagamento para Carla Dias em Abr/2025."},
		{"top bonus", payroll("Carla Dias", "", models.DataTypeBonus),
			"Não encontrei dados de bônus para Carla Dias."},
		{"column listing", payroll("Ana Souza", "2024-12", models.DataTypeIRRFDeduction),
			"Não encontrei dados de folha de pagamento para Ana Souza em Dez/2024 para o item solicitado."},
		{"full record", payroll("Ana Souza", "2024-01", models.DataTypeNone),
			"Não encontrei dados para Ana Souza em Jan/2024."},
		{"not understood", payroll("Ana Souza", "", models.DataTypeNone),
			"Não consegui entender sua consulta de folha de pagamento ou faltam informações."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, evidence, err := p.Answer(context.Background(), tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, answer)
			assert.Empty(t, evidence)
		})
	}
}

func TestPlannerParseFailure(t *testing.T) {
	p := NewPlanner(newLoadedStore(t))

	for _, params := range []models.QueryParameters{
		payroll("Ana Souza", "mês passado", models.DataTypeNone),
		payrollPeriod("Ana Souza", "2025-01", "fim do ano", models.DataTypeNetPay),
	} {
		answer, evidence, err := p.Answer(context.Background(), params)
		require.NoError(t, err)
		assert.Contains(t, answer, "Não consegui entender o período")
		assert.Empty(t, evidence)
	}
}

func TestPlannerStoreNotReady(t *testing.T) {
	p := NewPlanner(newTestStore(t))

	_, _, err := p.Answer(context.Background(), payroll("Ana Souza", "2025-05", models.DataTypeNone))
	assert.ErrorIs(t, err, types.ErrStoreNotReady)
}

func TestPlannerBlankAmountIsNA(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r := record("E001", "Ana Souza", "2025-05", "8418.75")
	r.Seq = 1
	r.BaseSalary = models.MustAmount("8000")
	r.PaymentDate = "2025-05-29"
	require.NoError(t, store.Reload(ctx, []models.PayrollRecord{r}))

	p := NewPlanner(store)

	answer, _, err := p.Answer(ctx, payroll("Ana Souza", "2025-05", models.DataTypeNone))
	require.NoError(t, err)
	assert.Contains(t, answer, "- Salário Base: R$ 8.000,00\n")
	assert.Contains(t, answer, "- Bônus: N/A\n")
	assert.Contains(t, answer, "- INSS: N/A\n")
	assert.NotContains(t, answer, "R$ 0,00")

	answer, evidence, err := p.Answer(ctx, payroll("", "2025-05", models.DataTypeBonus))
	require.NoError(t, err)
	assert.Contains(t, answer, "2025-05: **N/A**. Fonte: `E001, 2025-05`")
	assert.Equal(t, cites("E001", "2025-05"), evidence)
}

// reloadingReader swaps the record set after every read.
type reloadingReader struct {
	*RecordStore
	t    *testing.T
	next []models.PayrollRecord
}

func (r *reloadingReader) Query(ctx context.Context, q Query) ([]models.PayrollRecord, error) {
	defer r.reload(ctx)
	return r.RecordStore.Query(ctx, q)
}

func (r *reloadingReader) SumWithRows(ctx context.Context, q Query, column string) (decimal.NullDecimal, []models.PayrollRecord, error) {
	defer r.reload(ctx)
	return r.RecordStore.SumWithRows(ctx, q, column)
}

func (r *reloadingReader) reload(ctx context.Context) {
	require.NoError(r.t, r.RecordStore.Reload(ctx, r.next))
}

func TestPlannerPeriodTotalMatchesCitationsAcrossReload(t *testing.T) {
	store := newLoadedStore(t)
	full, err := LoadRecords(fixturePath)
	require.NoError(t, err)

	p := NewPlanner(&reloadingReader{RecordStore: store, t: t, next: full[:1]})

	answer, evidence, err := p.Answer(context.Background(),
		payrollPeriod("Ana Souza", "2025-01", "2025-03", models.DataTypeNetPay))
	require.NoError(t, err)
	assert.Equal(t, "O total líquido de Ana Souza de Jan/2025 a Mar/2025 foi de **R$ 23.221,25**. "+
		"Fonte: `E001, 2025-01; E001, 2025-02; E001, 2025-03`.", answer)
	assert.Equal(t, cites("E001", "2025-01", "E001", "2025-02", "E001", "2025-03"), evidence)
}

func TestPlannerPeriodTotalDuringConcurrentReloads(t *testing.T) {
	store := newLoadedStore(t)
	ctx := context.Background()
	full, err := LoadRecords(fixturePath)
	require.NoError(t, err)

	p := NewPlanner(store)
	params := payrollPeriod("Ana Souza", "2025-01", "2025-03", models.DataTypeNetPay)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			set := full
			if i%2 == 0 {
				set = full[:1]
			}
			assert.NoError(t, store.Reload(ctx, set))
		}
	}()

	for j := 0; j < 50; j++ {
		answer, evidence, err := p.Answer(ctx, params)
		require.NoError(t, err)
		switch len(evidence) {
		case 1:
			assert.Contains(t, answer, "**R$ 7.740,42**")
		case 3:
			assert.Contains(t, answer, "**R$ 23.221,25**")
		default:
			t.Fatalf("unexpected citations %v", evidence)
		}
	}
	wg.Wait()
}
