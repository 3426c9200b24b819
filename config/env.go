package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	DataSource string
	DBDSN      string

	LLMAPIKey          string
	LLMBaseURL         string
	LLMModel           string
	ExtractionTimeout  time.Duration
	ChatTimeout        time.Duration
	LLMRatePerSecond   float64
	LLMBurst           int
	ExtractionCacheTTL time.Duration

	HistoryMaxTurns int
	GazetteerPath   string
	FallbackYear    int

	ReloadCron  string
	WatchSource bool
	JWTSecret   string
}

var (
	AppConfig Config
)

const defaultLLMBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// LoadConfig reads the nearest .env file, if any, and then the environment.
func LoadConfig() {
	if err := loadEnvFile(".env"); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	AppConfig = Config{
		Port:     getEnvOrDefault("PORT", "8000"),
		AppEnv:   getEnvOrDefault("APP_ENV", "production"),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),

		DataSource: getEnvOrDefault("DATA_SOURCE", "data/payroll.csv"),
		DBDSN:      getEnvOrDefault("DB_DSN", "file:payroll?mode=memory&cache=shared"),

		LLMAPIKey:          getEnvOrDefault("LLM_API_KEY", os.Getenv("GEMINI_API_KEY")),
		LLMBaseURL:         getEnvOrDefault("LLM_BASE_URL", defaultLLMBaseURL),
		LLMModel:           getEnvOrDefault("LLM_MODEL", "gemini-2.5-flash"),
		ExtractionTimeout:  getEnvDuration("EXTRACTION_TIMEOUT", 10*time.Second),
		ChatTimeout:        getEnvDuration("CHAT_TIMEOUT", 30*time.Second),
		LLMRatePerSecond:   getEnvFloat("LLM_RATE_PER_SECOND", 2),
		LLMBurst:           getEnvInt("LLM_BURST", 4),
		ExtractionCacheTTL: getEnvDuration("EXTRACTION_CACHE_TTL", 10*time.Minute),

		HistoryMaxTurns: getEnvInt("HISTORY_MAX_TURNS", 20),
		GazetteerPath:   os.Getenv("GAZETTEER_PATH"),
		FallbackYear:    getEnvInt("FALLBACK_YEAR", 2025),

		ReloadCron:  os.Getenv("RELOAD_CRON"),
		WatchSource: getEnvBool("WATCH_SOURCE", false),
		JWTSecret:   os.Getenv("JWT_SECRET"),
	}
}

func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %g", key, value, defaultValue)
		return defaultValue
	}
	return f
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %t", key, value, defaultValue)
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
