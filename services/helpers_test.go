package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/wanessald/chatbot-payroll/models"
)

const fixturePath = "testdata/payroll.csv"

// newTestStore opens a private in-memory store.
func newTestStore(t *testing.T) *RecordStore {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	store, err := OpenStore(dsn, logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// newLoadedStore is newTestStore filled with the fixture records.
func newLoadedStore(t *testing.T) *RecordStore {
	t.Helper()

	store := newTestStore(t)
	records, err := LoadRecords(fixturePath)
	require.NoError(t, err)
	require.NoError(t, store.Reload(context.Background(), records))
	return store
}

// fakeLLM returns canned answers in order and records every request.
type fakeLLM struct {
	mu       sync.Mutex
	answers  []string
	err      error
	requests []CompletionRequest
}

func (f *fakeLLM) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.answers) == 0 {
		return "", fmt.Errorf("no canned answer")
	}
	answer := f.answers[0]
	f.answers = f.answers[1:]
	return answer, nil
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// blockingLLM waits for the caller's context to end.
type blockingLLM struct{}

func (blockingLLM) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func record(id, name, competency, netPay string) models.PayrollRecord {
	return models.PayrollRecord{
		EmployeeID: id,
		Name:       name,
		Competency: competency,
		NetPay:     models.MustAmount(netPay),
	}
}
