package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wanessald/chatbot-payroll/models"
	"github.com/wanessald/chatbot-payroll/types"
	"github.com/wanessald/chatbot-payroll/utils"
)

const systemPrompt = "Você é um chatbot especializado em folha de pagamento, mas também capaz de conversar sobre assuntos gerais. " +
	"Para perguntas sobre folha de pagamento, consulte os dados disponíveis. " +
	"Sempre que responder a uma pergunta sobre folha de pagamento, cite a fonte usando 'employee_id' e 'competency'. " +
	"Formate valores monetários em BRL (Ex: R$ 1.234,56) e datas em dd/mm/aaaa. " +
	"Se não encontrar informações específicas sobre folha de pagamento, informe ao usuário."

// MsgChatUnavailable is the answer when general conversation cannot reach the
// language model.
const MsgChatUnavailable = "Desculpe, não consegui processar sua solicitação no momento. Tente novamente mais tarde."

var errEmptyAnswer = errors.New("empty answer from language model")

type Reply struct {
	Response string
	Evidence types.ChatEvidence
}

// Chatbot runs one chat turn: extraction, then either the planner or general
// conversation.
type Chatbot struct {
	extractor   *Extractor
	planner     *Planner
	llm         LLMClient
	history     *History
	chatTimeout time.Duration
}

// NewChatbot wires a chat session. llm may be nil; general chat then always
// gets the apologetic answer.
func NewChatbot(extractor *Extractor, planner *Planner, llm LLMClient, history *History, chatTimeout time.Duration) *Chatbot {
	return &Chatbot{
		extractor:   extractor,
		planner:     planner,
		llm:         llm,
		history:     history,
		chatTimeout: chatTimeout,
	}
}

// Chat answers one message. Only store failures are returned as errors; the
// history is appended only when the turn succeeds.
func (c *Chatbot) Chat(ctx context.Context, text string) (Reply, error) {
	params := c.extractor.Extract(ctx, text)
	utils.Logger.Debug("Parameters extracted",
		zap.String("intent", string(params.Intent)),
		zap.String("name", params.Name),
		zap.String("competency", params.Competency),
		zap.String("data_type", string(params.DataType)),
		zap.String("period_start", params.PeriodStart),
		zap.String("period_end", params.PeriodEnd))

	if params.IsPayrollQuery() {
		return c.payroll(ctx, text, params)
	}
	return c.general(ctx, text), nil
}

func (c *Chatbot) payroll(ctx context.Context, text string, params models.QueryParameters) (Reply, error) {
	answer, evidence, err := c.planner.Answer(ctx, params)
	if err != nil {
		chatTotal.WithLabelValues("payroll", "error").Inc()
		return Reply{}, err
	}

	reply := Reply{Response: answer}
	if len(evidence) > 0 {
		source := params
		reply.Evidence = types.ChatEvidence{Source: &source, Citations: evidence}
	}
	outcome := "answered"
	if reply.Evidence.Empty() {
		outcome = "not_found"
	}
	chatTotal.WithLabelValues("payroll", outcome).Inc()

	c.history.Append(text, answer)
	return reply, nil
}

func (c *Chatbot) general(ctx context.Context, text string) Reply {
	if c.llm == nil {
		utils.Logger.Warn("General chat skipped", zap.Error(types.ErrNoLLM))
		chatTotal.WithLabelValues("general", "unavailable").Inc()
		return Reply{Response: MsgChatUnavailable}
	}

	messages := append([]models.ChatMessage{{Role: models.RoleSystem, Content: systemPrompt}}, c.history.Messages()...)
	messages = append(messages, models.ChatMessage{Role: models.RoleUser, Content: text})

	ctx, cancel := context.WithTimeout(ctx, c.chatTimeout)
	defer cancel()

	answer, err := c.llm.Complete(ctx, CompletionRequest{
		Purpose:     "chat",
		Messages:    messages,
		Temperature: 0.7,
	})
	if err == nil && strings.TrimSpace(answer) == "" {
		err = errEmptyAnswer
	}
	if err != nil {
		utils.Logger.Error("General chat failed", zap.Error(err))
		chatTotal.WithLabelValues("general", "error").Inc()
		return Reply{Response: MsgChatUnavailable}
	}

	chatTotal.WithLabelValues("general", "answered").Inc()
	c.history.Append(text, answer)
	return Reply{Response: answer}
}
