package services

import (
	"sync"

	"github.com/wanessald/chatbot-payroll/models"
)

// History keeps the most recent conversation turns. A turn is a user message
// and the answer it got; the oldest turn is dropped once maxTurns is reached.
type History struct {
	mu       sync.Mutex
	maxTurns int
	messages []models.ChatMessage
}

func NewHistory(maxTurns int) *History {
	if maxTurns < 1 {
		maxTurns = 1
	}
	return &History{maxTurns: maxTurns}
}

func (h *History) Append(user, assistant string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages,
		models.ChatMessage{Role: models.RoleUser, Content: user},
		models.ChatMessage{Role: models.RoleAssistant, Content: assistant},
	)
	if over := len(h.messages) - 2*h.maxTurns; over > 0 {
		h.messages = append([]models.ChatMessage(nil), h.messages[over:]...)
	}
}

// Messages returns a copy of the retained messages, oldest first.
func (h *History) Messages() []models.ChatMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]models.ChatMessage(nil), h.messages...)
}
