package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/wanessald/chatbot-payroll/types"
	"github.com/wanessald/chatbot-payroll/utils"
)

// Chat answers one user message.
func Chat(c *fiber.Ctx) error {
	var req types.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrEmptyMessage,
		})
	}

	if !Store.Ready() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrNotReady,
		})
	}

	reply, err := Chatbot.Chat(c.UserContext(), req.Message)
	if err != nil {
		utils.Logger.Error("Chat turn failed",
			zap.Any("request_id", c.Locals("request_id")),
			zap.Error(err))
		if errors.Is(err, types.ErrStoreNotReady) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(types.APIResponse{
				Success: false,
				Error:   types.ErrNotReady,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInternalError,
		})
	}

	return c.JSON(types.ChatResponse{
		Response:     reply.Response,
		ResponseHTML: utils.RenderMarkdown(reply.Response),
		Evidence:     reply.Evidence,
	})
}

// Health is the liveness probe. It also reports how many records are loaded.
func Health(c *fiber.Ctx) error {
	count, err := Store.Count(c.UserContext())
	if err != nil {
		utils.Logger.Error("Failed to count payroll records", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrDatabaseError,
		})
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Message: "Chatbot está funcionando!",
		Data: fiber.Map{
			"status":  "ok",
			"ready":   Store.Ready(),
			"records": count,
		},
	})
}

// Ready fails until the first record set is loaded.
func Ready(c *fiber.Ctx) error {
	if !Store.Ready() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrNotReady,
		})
	}
	return c.JSON(types.APIResponse{Success: true, Message: "ready"})
}

// ReloadData rebuilds the record store from its source. A failed reload keeps
// the current records.
func ReloadData(c *fiber.Ctx) error {
	n, err := Reloader.Reload(c.UserContext())
	if err != nil {
		utils.Logger.Error("Payroll reload failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrReloadFailed,
		})
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Message: "Payroll data reloaded",
		Data:    fiber.Map{"records": n},
	})
}
