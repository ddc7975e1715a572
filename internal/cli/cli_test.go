package cli_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/framegraph/internal/cli"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		args       []string
		wantExit   bool
		wantCode   int
		wantErr    string
		wantPath   string
		wantFrames int
	}{
		{name: "positional path", args: []string{"pipeline.hcl"}, wantPath: "pipeline.hcl", wantFrames: 1},
		{name: "long flag wins", args: []string{"-pipeline", "a.hcl", "-p", "b.hcl"}, wantPath: "a.hcl", wantFrames: 1},
		{name: "shorthand", args: []string{"-p", "dir", "-frames", "10"}, wantPath: "dir", wantFrames: 10},
		{name: "help", args: []string{"-h"}, wantExit: true},
		{name: "no path prints usage", args: nil, wantExit: true},
		{name: "unknown flag", args: []string{"-nope"}, wantCode: 2, wantErr: "flag provided but not defined"},
		{name: "bad log format", args: []string{"-log-format", "xml", "p.hcl"}, wantCode: 2, wantErr: "invalid log-format"},
		{name: "bad log level", args: []string{"-log-level", "loud", "p.hcl"}, wantCode: 2, wantErr: "invalid log-level"},
		{name: "negative frames", args: []string{"-frames", "-1", "p.hcl"}, wantCode: 2, wantErr: "frames must not be negative"},
		{name: "bad inspector url", args: []string{"-inspector-url", "nowhere", "p.hcl"}, wantCode: 2, wantErr: "inspector URL"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			out := &bytes.Buffer{}

			// Act
			cfg, exit, err := cli.Parse(tc.args, out)

			// Assert
			if tc.wantErr != "" {
				var exitErr *cli.ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, tc.wantCode, exitErr.Code)
				assert.Contains(t, exitErr.Message, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantExit, exit)
			if tc.wantExit {
				assert.Contains(t, out.String(), "Usage:")
				return
			}
			assert.Equal(t, tc.wantPath, cfg.PipelinePath)
			assert.Equal(t, tc.wantFrames, cfg.Frames)
		})
	}
}

func TestParse_AllOptions(t *testing.T) {
	t.Parallel()

	cfg, exit, err := cli.Parse([]string{
		"-frames", "3", "-frame-interval", "16ms", "-log-format", "JSON", "-log-level", "DEBUG",
		"-healthcheck-port", "9090", "-watch", "-inspector-url", "http://localhost:3000/socket.io/",
		"pipelines",
	}, &bytes.Buffer{})

	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, 3, cfg.Frames)
	assert.Equal(t, 16*time.Millisecond, cfg.FrameInterval)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.HealthcheckPort)
	assert.True(t, cfg.Watch)
	assert.Equal(t, "http://localhost:3000/socket.io/", cfg.InspectorURL)
}
