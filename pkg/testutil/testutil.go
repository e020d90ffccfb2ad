// Package testutil provides testing utilities for csvcols
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/csvcols/pkg/columnar"
)

// TestLogger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout that is
// cancelled when the test completes.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// WriteFile writes content to name inside a fresh temporary directory and
// returns the full path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// Document builds a string Document from name/values pairs, failing the
// test on a construction error.
//
//	doc := testutil.Document(t, "id", []string{"1", "2"}, "name", []string{"ann", "bob"})
func Document(t *testing.T, namesAndValues ...any) *columnar.Document[string] {
	t.Helper()
	require.Zero(t, len(namesAndValues)%2, "names and values must come in pairs")

	pairs := make([]columnar.Pair[string], 0, len(namesAndValues)/2)
	for i := 0; i < len(namesAndValues); i += 2 {
		name, ok := namesAndValues[i].(string)
		require.True(t, ok, "argument %d must be a column name", i)
		values, ok := namesAndValues[i+1].([]string)
		require.True(t, ok, "argument %d must be a []string", i+1)
		pairs = append(pairs, columnar.P(name, columnar.NewColumn(values...)))
	}

	doc, err := columnar.New(pairs...)
	require.NoError(t, err)
	return doc
}

// AssertEventually asserts that a condition becomes true within the specified timeout.
// It checks the condition every 10ms until it succeeds or the timeout expires.
func AssertEventually(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("condition not met within %v: %s", timeout, msg)
}
