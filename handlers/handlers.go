package handlers

import (
	"context"

	"github.com/wanessald/chatbot-payroll/services"
)

type ChatService interface {
	Chat(ctx context.Context, text string) (services.Reply, error)
}

type StoreStatus interface {
	Ready() bool
	Count(ctx context.Context) (int64, error)
}

type DataReloader interface {
	Reload(ctx context.Context) (int, error)
}

var (
	Chatbot  ChatService
	Store    StoreStatus
	Reloader DataReloader
)

func InitHandlers(chat ChatService, store StoreStatus, reloader DataReloader) {
	Chatbot = chat
	Store = store
	Reloader = reloader
}
