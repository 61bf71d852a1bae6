package storage

import (
	"BillionairesDashboard/src/config"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*Logger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, err := NewLogger(path)
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })
	return logger, path
}

func TestLoggerWritesStructuredEntries(t *testing.T) {
	logger, path := newTestLogger(t)

	logger.With("cycle", "abc").Info("数据集加载完成", "rows", 3)
	logger.Warning("slow")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	assert.Contains(t, lines[0], "level=INFO")
	assert.Contains(t, lines[0], "msg=数据集加载完成")
	assert.Contains(t, lines[0], "cycle=abc")
	assert.Contains(t, lines[0], "rows=3")
	assert.Contains(t, lines[1], "level=WARNING")
	assert.NotContains(t, lines[1], "cycle=abc")
}

func TestLoggerSubscribers(t *testing.T) {
	logger, _ := newTestLogger(t)
	sub := logger.Subscribe()

	logger.Error("boom")

	select {
	case msg := <-sub:
		assert.Contains(t, msg, "level=ERROR")
		assert.Contains(t, msg, "msg=boom")
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive entry")
	}

	logger.Unsubscribe(sub)
	_, ok := <-sub
	assert.False(t, ok)

	// 取消订阅后继续写日志不应阻塞
	logger.Info("after")
}

func TestLoggerRotate(t *testing.T) {
	logger, path := newTestLogger(t)
	cfg := config.Default()
	cfg.LogMaxSize = "10"

	logger.Info("this line is longer than ten bytes")
	require.NoError(t, logger.CheckRotate(cfg))

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "app.*.log"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestLoggerReopen(t *testing.T) {
	logger, path := newTestLogger(t)
	logger.Info("first")

	moved := path + ".old"
	require.NoError(t, os.Rename(path, moved))
	require.NoError(t, logger.Reopen(""))
	logger.Info("second")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=second")
	assert.NotContains(t, string(data), "msg=first")
}

func TestParseSize(t *testing.T) {
	n, err := ParseSize("10 * 1024 * 1024")
	require.NoError(t, err)
	assert.Equal(t, int64(10*1024*1024), n)

	_, err = ParseSize("10 * MB")
	assert.Error(t, err)
}
