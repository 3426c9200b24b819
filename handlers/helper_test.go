package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/wanessald/chatbot-payroll/config"
	"github.com/wanessald/chatbot-payroll/handlers"
	"github.com/wanessald/chatbot-payroll/services"
	"github.com/wanessald/chatbot-payroll/utils"
)

const testSecret = "test-secret"

var fixture = filepath.Join("..", "services", "testdata", "payroll.csv")

func init() {
	config.LoadTestConfig()
	utils.InitLogger()
}

type testEnv struct {
	app      *fiber.App
	store    *services.RecordStore
	reloader *services.Reloader
}

// SetupTest builds an app over a fresh in-memory store. When load is false
// the store stays empty, as before the first load.
func SetupTest(t *testing.T, source string, load bool) *testEnv {
	t.Helper()

	config.AppConfig.JWTSecret = testSecret

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	store, err := services.OpenStore(dsn, logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reloader := services.NewReloader(store, source)
	if load {
		_, err := reloader.Reload(context.Background())
		require.NoError(t, err)
	}

	extractor := services.NewExtractor(nil, services.NewFallbackExtractor(services.DefaultGazetteer(), 2025), time.Second, time.Minute)
	chatbot := services.NewChatbot(extractor, services.NewPlanner(store), nil, services.NewHistory(5), time.Second)
	handlers.InitHandlers(chatbot, store, reloader)

	app := fiber.New()
	handlers.SetupRoutes(app)
	return &testEnv{app: app, store: store, reloader: reloader}
}

// Helper function to create test JWT token
func createTestToken(t *testing.T, role, secret string, ttl time.Duration) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "tester",
		"role": role,
		"exp":  time.Now().Add(ttl).Unix(),
	})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func postJSON(t *testing.T, app *fiber.App, path string, body interface{}, token string) (int, []byte) {
	t.Helper()

	var payload io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		payload = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		payload = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest("POST", path, payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func copyFixture(t *testing.T) string {
	t.Helper()

	data, err := os.ReadFile(fixture)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "payroll.csv")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
