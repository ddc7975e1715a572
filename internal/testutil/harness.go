package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/vk/framegraph/internal/app"
	"github.com/vk/framegraph/internal/hcl"
	"github.com/vk/framegraph/internal/registry"
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

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
}

// NewTestApp writes files into a temporary pipeline directory and creates an
// app for it. A startup panic is returned as an error.
func NewTestApp(t *testing.T, files map[string]string, cfg app.Config, modules ...registry.Module) (*app.App, *SafeBuffer, error) {
	t.Helper()

	cfg.PipelinePath = WriteHCL(t, files)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.Frames == 0 && !cfg.Watch {
		cfg.Frames = 1
	}
	appConfig, err := app.NewConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	logBuffer := &SafeBuffer{}
	t.Cleanup(func() {
		if os.Getenv("FRAMEGRAPH_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(logBuffer, appConfig, hcl.NewLoader(), modules...)
	}()
	if panicErr != nil {
		return nil, logBuffer, fmt.Errorf("application startup panicked | %v", panicErr)
	}
	return testApp, logBuffer, nil
}

// RunIntegrationTest provides a standardized harness for running a pipeline
// end to end with a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, cfg app.Config, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, cfg, modules...)
}

// RunIntegrationTestWithContext is RunIntegrationTest with a caller-provided
// context.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, cfg app.Config, modules ...registry.Module) *HarnessResult {
	t.Helper()

	testApp, logs, err := NewTestApp(t, files, cfg, modules...)
	if err != nil {
		out := ""
		if logs != nil {
			out = logs.String()
		}
		return &HarnessResult{LogOutput: out, Err: err}
	}

	runErr := testApp.Run(ctx)
	return &HarnessResult{
		LogOutput: logs.String(),
		Err:       runErr,
		App:       testApp,
	}
}
