package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wanessald/chatbot-payroll/middleware"
)

func SetupRoutes(app fiber.Router) {
	app.Post("/chat", Chat)
	app.Get("/health", Health)
	app.Get("/ready", Ready)

	admin := app.Group("/admin", middleware.RequireAdmin)
	admin.Post("/reload", ReloadData)
}
