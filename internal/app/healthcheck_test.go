package app

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/framegraph/internal/hcl"
	"github.com/vk/framegraph/internal/rendergraph"
)

func newHealthApp(t *testing.T, pipeline string) *App {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.hcl")
	require.NoError(t, os.WriteFile(path, []byte(pipeline), 0o644))
	cfg, err := NewConfig(Config{PipelinePath: path, Frames: 1, LogLevel: "error"})
	require.NoError(t, err)
	return NewApp(&bytes.Buffer{}, cfg, hcl.NewLoader())
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	a := newHealthApp(t, `
pipeline { final = "screen" }
task "geometry" {
  kind = "geometry"
  output "screen" {}
}`)
	require.NoError(t, a.Graph().Execute(context.Background(), rendergraph.FrameInfo{}))

	code, body := get(t, a.routes(), "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "OK idle")

	code, body = get(t, a.routes(), "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "framegraph_graph_frames_total 1")
}

func TestHealthHandler_UnbuildablePipeline(t *testing.T) {
	t.Parallel()

	a := newHealthApp(t, `
pipeline { final = "screen" }
task "lighting" {
  kind     = "lighting"
  requires = ["gbuffer"]
  output "screen" {}
}`)
	require.Error(t, a.Graph().Execute(context.Background(), rendergraph.FrameInfo{}))

	code, _ := get(t, a.routes(), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestHealthHandler_ServedWhileRunning(t *testing.T) {
	t.Parallel()

	// Arrange
	a := newHealthApp(t, `
pipeline { final = "screen" }
task "geometry" {
  kind = "geometry"
  output "screen" {}
}`)
	a.config.Frames = 20
	a.config.FrameInterval = time.Millisecond

	// Act: hit the handler from several goroutines while frames run.
	var wg sync.WaitGroup
	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				rec := httptest.NewRecorder()
				a.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
				assert.Contains(t, []int{http.StatusOK, http.StatusServiceUnavailable}, rec.Code)
			}
		}()
	}
	wg.Wait()

	// Assert
	require.NoError(t, <-done)
	code, body := get(t, a.routes(), "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "OK idle")
}
