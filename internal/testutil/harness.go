// Package testutil provides shared helpers for tests: a thread-safe log
// buffer, temp-dir sweep fixtures, and an app harness.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/juelinl/pebble/internal/app"
	"github.com/juelinl/pebble/internal/config"
	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteSweepFiles materializes the given relative-path -> content map in a
// fresh temp directory and returns its root.
func WriteSweepFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	tmpDir := t.TempDir()
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}
	return tmpDir
}

// HarnessResult holds the outcomes of an app harness run.
type HarnessResult struct {
	Logs     *SafeBuffer
	App      *app.App
	StartErr error
}

// SetupApp builds an App over the given sweep fixture files using the
// provided loader, capturing log output and recovering startup panics into
// StartErr.
func SetupApp(t *testing.T, appConfig *app.Config, loader config.Loader) *HarnessResult {
	t.Helper()

	logBuffer := &SafeBuffer{}
	appConfig.LogLevel = "debug"

	res := &HarnessResult{Logs: logBuffer}
	func() {
		defer func() {
			if r := recover(); r != nil {
				if err, ok := r.(error); ok {
					res.StartErr = err
				} else {
					t.Fatalf("app startup panicked with non-error: %v", r)
				}
			}
		}()
		res.App = app.NewApp(logBuffer, appConfig, loader)
	}()

	t.Cleanup(func() {
		if os.Getenv("PEBBLE_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return res
}
