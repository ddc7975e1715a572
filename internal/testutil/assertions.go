package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertFrameRan checks the log output within a HarnessResult to confirm that
// the given frame was executed. It abstracts the log format, making tests
// more resilient to logging changes.
func AssertFrameRan(t *testing.T, result *HarnessResult, frame uint64) {
	t.Helper()

	attr := fmt.Sprintf(" frame=%d ", frame)
	for _, line := range strings.Split(result.LogOutput, "\n") {
		if strings.Contains(line, `msg="Frame executed."`) && strings.Contains(line, attr) {
			return
		}
	}
	require.Fail(t, "frame not executed", "expected log output for frame %d was not found in logs", frame)
}
