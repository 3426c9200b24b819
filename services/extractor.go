package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/wanessald/chatbot-payroll/models"
	"github.com/wanessald/chatbot-payroll/types"
	"github.com/wanessald/chatbot-payroll/utils"
)

const extractionPrompt = `Analise a pergunta do usuário e extraia o máximo de informações possível relacionadas à folha de pagamento: nome do funcionário, mês/ano (competência) e o tipo de dado solicitado (líquido, bônus, INSS, IRRF, data de pagamento, etc.).
Se a pergunta não for sobre folha de pagamento, use "general_chat" como intent.
Para perguntas de período, como "1º trimestre", preencha period_start e period_end.
Responda SOMENTE com JSON válido no formato:
{"intent": "payroll_query" | "general_chat", "name": "...", "competency": "YYYY-MM", "data_type": "net_pay" | "bonus" | "payment_date" | "deductions_inss" | "deductions_irrf" | "base_salary", "period_start": "YYYY-MM", "period_end": "YYYY-MM"}
Omita os campos que não puder determinar.`

// Extractor turns free text into query parameters. The language model is
// tried first; any failure falls back to the deterministic extractor, so
// Extract always returns parameters.
type Extractor struct {
	llm      LLMClient
	fallback *FallbackExtractor
	timeout  time.Duration
	cache    *cache.Cache
}

// NewExtractor wires the two stages. llm may be nil, in which case only the
// fallback runs. Successful model extractions are cached for cacheTTL.
func NewExtractor(llm LLMClient, fallback *FallbackExtractor, timeout, cacheTTL time.Duration) *Extractor {
	return &Extractor{
		llm:      llm,
		fallback: fallback,
		timeout:  timeout,
		cache:    cache.New(cacheTTL, 2*cacheTTL),
	}
}

func (e *Extractor) Extract(ctx context.Context, text string) models.QueryParameters {
	if e.llm == nil {
		extractionTotal.WithLabelValues("fallback").Inc()
		return e.fallback.Extract(text)
	}

	key := normalizeAlias(text)
	if cached, ok := e.cache.Get(key); ok {
		extractionTotal.WithLabelValues("cache").Inc()
		return cached.(models.QueryParameters)
	}

	params, err := e.extractWithLLM(ctx, text)
	if err != nil {
		utils.Logger.Warn("LLM extraction failed, using fallback", zap.Error(err))
		extractionTotal.WithLabelValues("fallback").Inc()
		return e.fallback.Extract(text)
	}

	extractionTotal.WithLabelValues("llm").Inc()
	e.cache.Set(key, params, cache.DefaultExpiration)
	return params
}

func (e *Extractor) extractWithLLM(ctx context.Context, text string) (models.QueryParameters, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	content, err := e.llm.Complete(ctx, CompletionRequest{
		Purpose: "extraction",
		Messages: []models.ChatMessage{
			{Role: models.RoleSystem, Content: extractionPrompt},
			{Role: models.RoleUser, Content: text},
		},
		JSON:        true,
		Temperature: 0,
	})
	if err != nil {
		return models.QueryParameters{}, fmt.Errorf("%w: %v", types.ErrExtraction, err)
	}
	return ParseExtraction(content)
}

type rawExtraction struct {
	Intent      *string `json:"intent"`
	Name        *string `json:"name"`
	Competency  *string `json:"competency"`
	DataType    *string `json:"data_type"`
	PeriodStart *string `json:"period_start"`
	PeriodEnd   *string `json:"period_end"`
}

// ParseExtraction decodes the model's JSON answer. A missing or unknown
// intent makes the answer unusable.
func ParseExtraction(content string) (models.QueryParameters, error) {
	var raw rawExtraction
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &raw); err != nil {
		return models.QueryParameters{}, fmt.Errorf("%w: %v", types.ErrExtraction, err)
	}

	intent := models.Intent(field(raw.Intent))
	if !intent.Valid() {
		return models.QueryParameters{}, fmt.Errorf("%w: intent %q", types.ErrExtraction, intent)
	}

	return models.QueryParameters{
		Intent:      intent,
		Name:        field(raw.Name),
		Competency:  periodField(raw.Competency),
		DataType:    NormalizeDataType(field(raw.DataType)),
		PeriodStart: periodField(raw.PeriodStart),
		PeriodEnd:   periodField(raw.PeriodEnd),
	}, nil
}

// stripCodeFence unwraps ```json ... ``` answers.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}

	var lines []string
	in := false
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			in = !in
			continue
		}
		if in {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func field(v *string) string {
	if v == nil {
		return ""
	}
	s := strings.TrimSpace(*v)
	switch strings.ToLower(s) {
	case "null", "none", "n/a", "...":
		return ""
	}
	return s
}

// periodField canonicalizes a period text when possible. Unparseable text is
// kept so the planner can report it.
func periodField(v *string) string {
	s := field(v)
	if s == "" {
		return ""
	}
	if key, err := utils.NormalizePeriodKey(s); err == nil {
		return key
	}
	return s
}

var dataTypeSynonyms = map[string]models.DataType{
	"líquido":           models.DataTypeNetPay,
	"liquido":           models.DataTypeNetPay,
	"salário líquido":   models.DataTypeNetPay,
	"salario liquido":   models.DataTypeNetPay,
	"valor líquido":     models.DataTypeNetPay,
	"net":               models.DataTypeNetPay,
	"net pay":           models.DataTypeNetPay,
	"bônus":             models.DataTypeBonus,
	"data de pagamento": models.DataTypePaymentDate,
	"data_pagamento":    models.DataTypePaymentDate,
	"payment date":      models.DataTypePaymentDate,
	"inss":              models.DataTypeINSSDeduction,
	"irrf":              models.DataTypeIRRFDeduction,
	"salário base":      models.ColumnBaseSalary,
	"salario base":      models.ColumnBaseSalary,
	"salário":           models.ColumnBaseSalary,
	"salario":           models.ColumnBaseSalary,
}

// NormalizeDataType maps common wordings to column names. Unknown values
// are returned as-is.
func NormalizeDataType(s string) models.DataType {
	s = normalizeAlias(s)
	if s == "" {
		return models.DataTypeNone
	}
	if dt, ok := dataTypeSynonyms[s]; ok {
		return dt
	}
	return models.DataType(strings.ReplaceAll(s, " ", "_"))
}
