package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchSourceReloadsOnChange(t *testing.T) {
	store := newTestStore(t)
	path := writeFile(t, "payroll.csv", csvHeader+"E001,Ana Souza,2025-01,1,0,0,0,1,2025-01-30\n")
	reloader := NewReloader(store, path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := reloader.Reload(ctx)
	require.NoError(t, err)
	require.NoError(t, WatchSource(ctx, reloader))

	require.NoError(t, os.WriteFile(path, []byte(csvHeader+
		"E001,Ana Souza,2025-01,1,0,0,0,1,2025-01-30\n"+
		"E001,Ana Souza,2025-02,1,0,0,0,1,2025-02-27\n"), 0o644))

	assert.Eventually(t, func() bool {
		n, err := store.Count(ctx)
		return err == nil && n == 2
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatchSourceMissingDirectory(t *testing.T) {
	store := newTestStore(t)
	reloader := NewReloader(store, "/nonexistent/dir/payroll.csv")

	assert.Error(t, WatchSource(context.Background(), reloader))
}

func TestReloadScheduler(t *testing.T) {
	store := newTestStore(t)
	reloader := NewReloader(store, fixturePath)

	_, err := NewReloadScheduler("not a cron", reloader)
	assert.Error(t, err)

	s, err := NewReloadScheduler("*/5 * * * *", reloader)
	require.NoError(t, err)
	s.Start()
	assert.NoError(t, s.Shutdown())
}
