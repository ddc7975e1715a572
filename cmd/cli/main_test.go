package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A syntax error makes app.NewApp panic while loading.
	invalidHCL := `
		pipeline {
			final = "final"
		// Missing closing brace here
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	err := os.WriteFile(filePath, []byte(invalidHCL), 0600)
	require.NoError(t, err, "failed to set up test file")

	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(context.Background(), out, []string{filePath})

	// --- Assert ---
	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")
	require.Contains(t, runErr.Error(), "application startup panicked")
	require.Contains(t, runErr.Error(), "failed to load configuration")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_ExecutesPipeline(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	pipeline := `
pipeline {
  final = "screen"
}

resource "screen" {
  kind     = "swapframe"
  external = true
}

task "geometry" {
  kind = "geometry"
  output "gbuffer" {}
}

task "tonemap" {
  kind     = "tonemap"
  requires = ["gbuffer"]
  output "screen" {
    create = "external"
  }
}
`
	filePath := filepath.Join(t.TempDir(), "pipeline.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(pipeline), 0600))
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, []string{"-frames", "2", filePath})

	// --- Assert ---
	require.NoError(t, err)
	require.Contains(t, out.String(), "Frame executed.")
	require.Contains(t, out.String(), "tonemap: tonemap op=aces")
}

func TestRun_BundledPipeline(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}

	err := run(context.Background(), out, []string{"-frames", "2", "-log-level", "info", "../../pipelines"})

	require.NoError(t, err)
	require.Contains(t, out.String(), "Frame executed.")
	require.Contains(t, out.String(), "overlay: text")
}
