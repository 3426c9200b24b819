package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wanessald/chatbot-payroll/config"
	"github.com/wanessald/chatbot-payroll/handlers"
	"github.com/wanessald/chatbot-payroll/middleware"
	"github.com/wanessald/chatbot-payroll/services"
	"github.com/wanessald/chatbot-payroll/utils"
)

func initServices(ctx context.Context) (*services.RecordStore, *services.Reloader, *services.Chatbot, error) {
	cfg := config.AppConfig

	logLevel := gormlogger.Warn
	if cfg.IsDevelopment() {
		logLevel = gormlogger.Info
	}
	store, err := services.OpenStore(cfg.DBDSN, logLevel)
	if err != nil {
		return nil, nil, nil, err
	}

	// The service must not start half-loaded.
	reloader := services.NewReloader(store, cfg.DataSource)
	if _, err := reloader.Reload(ctx); err != nil {
		store.Close()
		return nil, nil, nil, err
	}

	gazetteer := services.DefaultGazetteer()
	if cfg.GazetteerPath != "" {
		gazetteer, err = services.LoadGazetteer(cfg.GazetteerPath)
		if err != nil {
			store.Close()
			return nil, nil, nil, err
		}
	}

	var llm services.LLMClient
	if cfg.LLMAPIKey != "" {
		llm = services.NewOpenAIClient(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel, cfg.LLMRatePerSecond, cfg.LLMBurst)
	} else {
		utils.Logger.Warn("LLM_API_KEY not set, using keyword extraction only")
	}

	extractor := services.NewExtractor(llm,
		services.NewFallbackExtractor(gazetteer, cfg.FallbackYear),
		cfg.ExtractionTimeout, cfg.ExtractionCacheTTL)
	chatbot := services.NewChatbot(extractor,
		services.NewPlanner(store), llm,
		services.NewHistory(cfg.HistoryMaxTurns), cfg.ChatTimeout)

	return store, reloader, chatbot, nil
}

func main() {
	config.LoadConfig()
	utils.InitLogger()
	defer utils.Logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, reloader, chatbot, err := initServices(ctx)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer store.Close()

	handlers.InitHandlers(chatbot, store, reloader)

	if config.AppConfig.WatchSource {
		if err := services.WatchSource(ctx, reloader); err != nil {
			utils.Logger.Warn("Failed to watch payroll source", zap.Error(err))
		}
	}

	if schedule := config.AppConfig.ReloadCron; schedule != "" {
		scheduler, err := services.NewReloadScheduler(schedule, reloader)
		if err != nil {
			utils.Logger.Fatal("Failed to schedule payroll reload", zap.Error(err))
		}
		scheduler.Start()
		defer scheduler.Shutdown()
	}

	app := fiber.New(fiber.Config{AppName: "chatbot-payroll"})
	app.Use(recover.New())
	app.Use(middleware.RequestLogger)

	prometheus := fiberprometheus.New("chatbot_payroll")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	handlers.SetupRoutes(app)

	go func() {
		addr := ":" + config.AppConfig.Port
		utils.Logger.Info("Server starting", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			utils.Logger.Error("Server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	utils.Logger.Info("Shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		utils.Logger.Error("Shutdown failed", zap.Error(err))
	}
}
