package telemetry_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/framegraph/internal/rendergraph"
	"github.com/vk/framegraph/internal/telemetry"
	"github.com/vk/framegraph/internal/testutil"
)

func TestMetrics_RecordsGraphActivity(t *testing.T) {
	t.Parallel()

	// Arrange
	m := telemetry.NewMetrics()
	tr := &testutil.Trace{}
	pool := rendergraph.NewPool()
	pool.RegisterFactory("lit", testutil.StubFactory(tr, nil))
	pool.RegisterFactory("final", testutil.StubFactory(tr, nil))
	g := rendergraph.NewGraph(pool, "final", rendergraph.WithHooks(m))
	g.AddTask(testutil.NewStubTask(tr, "lighting", nil, "lit"))
	g.AddTask(testutil.NewStubTask(tr, "tonemap", []string{"lit"}, "final"))

	// Act
	for i := uint64(0); i < 3; i++ {
		require.NoError(t, g.Execute(context.Background(), rendergraph.FrameInfo{Index: i}))
	}
	m.BuildFailed(context.Background(), errors.New("boom"))

	// Assert
	body := scrape(t, m)
	assert.Contains(t, body, `framegraph_graph_builds_total{status="success"} 1`)
	assert.Contains(t, body, `framegraph_graph_builds_total{status="error"} 1`)
	assert.Contains(t, body, "framegraph_graph_frames_total 3")
	assert.Contains(t, body, "framegraph_graph_timeline_stages 2")
	assert.Contains(t, body, `framegraph_pool_resources_initialized_total{resource="lit"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestMetrics_Collectors(t *testing.T) {
	t.Parallel()

	m := telemetry.NewMetrics()
	families, err := m.Registry().Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "framegraph_graph_frames_total")
	assert.Contains(t, names, "framegraph_graph_timeline_stages")
}

func scrape(t *testing.T, m *telemetry.Metrics) string {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	buf := new(strings.Builder)
	_, err = io.Copy(buf, resp.Body)
	require.NoError(t, err)
	return buf.String()
}
