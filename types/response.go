package types

import "github.com/wanessald/chatbot-payroll/models"

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

// ChatEvidence is empty for general chat and for answers that matched no rows.
type ChatEvidence struct {
	Source    *models.QueryParameters `json:"source,omitempty"`
	Citations models.Evidence         `json:"citations,omitempty"`
}

func (e ChatEvidence) Empty() bool {
	return e.Source == nil && len(e.Citations) == 0
}

type ChatResponse struct {
	Response     string       `json:"response"`
	ResponseHTML string       `json:"response_html,omitempty"`
	Evidence     ChatEvidence `json:"evidence"`
}
