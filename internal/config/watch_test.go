package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatchReloadsOnWrite(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "resolver.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{"history_capacity": 16}`), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *ResolverConfig, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, configPath, func(cfg *ResolverConfig) { reloaded <- cfg })
	}()

	// Give the watcher a moment to register before editing.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case cfg := <-reloaded:
			if cfg.GetHistoryCapacity() == 24 {
				cancel()
				require.ErrorIs(t, <-done, context.Canceled)
				return
			}
		case <-tick.C:
			require.NoError(t, os.WriteFile(configPath, []byte(`{"history_capacity": 24}`), 0644))
		case <-deadline:
			t.Fatal("timed out waiting for config reload")
		}
	}
}
