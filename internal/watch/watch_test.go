package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/csvcols/pkg/errors"
	"github.com/ajitpratap0/csvcols/pkg/testutil"
)

func start(t *testing.T, w *Watcher, fn func(context.Context) error) (context.CancelFunc, chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(testutil.TestContext(t))
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, fn) }()
	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	return cancel, done
}

func TestRunCallsOnChange(t *testing.T) {
	path := testutil.WriteFile(t, "data.csv", "a\n1\n")

	var calls atomic.Int32
	w := New(path, Options{Debounce: 20 * time.Millisecond})
	cancel, done := start(t, w, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	require.NoError(t, os.WriteFile(path, []byte("a\n2\n"), 0o600))
	testutil.AssertEventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, "callback not called")

	cancel()
	assert.NoError(t, <-done)
}

func TestRunIgnoresOtherFiles(t *testing.T) {
	path := testutil.WriteFile(t, "data.csv", "a\n")
	dir := filepath.Dir(path)

	var calls atomic.Int32
	w := New(path, Options{Debounce: 10 * time.Millisecond})
	cancel, done := start(t, w, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.csv"), []byte("b\n"), 0o600))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())

	cancel()
	assert.NoError(t, <-done)
}

func TestRunDebouncesBursts(t *testing.T) {
	path := testutil.WriteFile(t, "data.csv", "a\n")

	var calls atomic.Int32
	w := New(path, Options{Debounce: 300 * time.Millisecond})
	cancel, done := start(t, w, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o600))
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 3*time.Second, 10*time.Millisecond)
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	cancel()
	assert.NoError(t, <-done)
}

func TestRunLogsCallbackErrors(t *testing.T) {
	path := testutil.WriteFile(t, "data.csv", "a\n")

	core, logs := observer.New(zapcore.ErrorLevel)
	var calls atomic.Int32
	w := New(path, Options{Debounce: 10 * time.Millisecond, Logger: zap.New(core)})
	cancel, done := start(t, w, func(context.Context) error {
		calls.Add(1)
		return errors.New(errors.ErrorTypeParse, "bad csv")
	})

	require.NoError(t, os.WriteFile(path, []byte("a,\"\n"), 0o600))
	require.Eventually(t, func() bool {
		return logs.FilterMessage("reload failed").Len() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestRunMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing", "data.csv"), Options{})
	err := w.Run(context.Background(), func(context.Context) error { return nil })
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}
