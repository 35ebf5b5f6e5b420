package configwatcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"agri_training_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func configBody(dir string, packets int) string {
	return fmt.Sprintf(`
admin:
  password: admin123
storage:
  type: local
  local_path: %s
calculator:
  seeds_per_packet: %d
`, filepath.Join(dir, "m"), packets)
}

func TestWatchConfigReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(configBody(dir, 7500)), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *config.Config, 1)
	done := make(chan error, 1)
	go func() {
		done <- WatchConfig(ctx, file, func(cfg *config.Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// 监听器启动前的写入可能丢失；间隔要大于 1 秒的防抖时间
	deadline := time.After(15 * time.Second)
	ticker := time.NewTicker(1500 * time.Millisecond)
	defer ticker.Stop()
	var got *config.Config
	for got == nil {
		select {
		case got = <-reloaded:
		case <-ticker.C:
			require.NoError(t, os.WriteFile(file, []byte(configBody(dir, 5000)), 0644))
		case <-deadline:
			t.Fatal("config was not reloaded")
		}
	}
	assert.InDelta(t, 5000, got.Calculator.SeedsPerPacket, 1e-9)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
