package executor

import (
	"bytes"
	"log/slog"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor() (*Executor, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(logger), &buf
}

func run(t *testing.T, e *Executor, label, command string) *Result {
	t.Helper()
	results := make(chan *Result, 1)
	done := make(chan struct{})
	defer close(done)

	_, err := e.Start(label, command, results, done)
	require.NoError(t, err)

	select {
	case r := <-results:
		return r
	case <-time.After(10 * time.Second):
		t.Fatalf("command %q did not finish", command)
		return nil
	}
}

func TestExecutor_Success(t *testing.T) {
	e, buf := newTestExecutor()

	r := run(t, e, "lock", "echo hello")
	e.Report(r)

	assert.Equal(t, 0, r.ExitCode)
	assert.Equal(t, "hello\n", string(r.Stdout))
	assert.NotEmpty(t, r.RunID)

	out := buf.String()
	assert.Contains(t, out, "Executing lock command: echo hello")
	assert.Contains(t, out, "lock command completed successfully")
	assert.Contains(t, out, "Output: hello")
}

func TestExecutor_NonZeroExit(t *testing.T) {
	e, buf := newTestExecutor()

	r := run(t, e, "unlock", "echo oops >&2; exit 3")
	e.Report(r)

	assert.Equal(t, 3, r.ExitCode)
	out := buf.String()
	assert.Contains(t, out, "unlock command exited with status 3")
	assert.Contains(t, out, "Error output: oops")
	assert.NotContains(t, out, "completed successfully")
}

func TestExecutor_NonZeroExitWithoutStderr(t *testing.T) {
	e, buf := newTestExecutor()

	e.Report(run(t, e, "lock", "exit 3"))

	out := buf.String()
	assert.Contains(t, out, "status 3")
	assert.NotContains(t, out, "Error output")
}

func TestExecutor_LongOutputIsNotLogged(t *testing.T) {
	e, buf := newTestExecutor()

	r := run(t, e, "lock", "printf '%0150d' 0")
	e.Report(r)

	assert.Len(t, r.Stdout, 150)
	out := buf.String()
	assert.Contains(t, out, "lock command completed successfully")
	assert.NotContains(t, out, "Output:")
}

func TestExecutor_OutputLengthBoundary(t *testing.T) {
	tests := []struct {
		length int
		logged bool
	}{
		{length: 99, logged: true},
		{length: 100, logged: false},
	}

	for _, tt := range tests {
		e, buf := newTestExecutor()
		e.Report(&Result{Label: "lock", Stdout: []byte(strings.Repeat("x", tt.length))})

		assert.Equal(t, tt.logged, strings.Contains(buf.String(), "Output:"), "length %d", tt.length)
	}
}

func TestExecutor_EmptyOutputIsNotLogged(t *testing.T) {
	e, buf := newTestExecutor()

	e.Report(run(t, e, "lock", "true"))

	assert.NotContains(t, buf.String(), "Output:")
}

func TestExecutor_SpawnFailure(t *testing.T) {
	e, buf := newTestExecutor()
	e.Shell = "/nonexistent/sh"

	results := make(chan *Result, 1)
	_, err := e.Start("lock", "echo hello", results, nil)

	assert.Error(t, err)
	assert.Contains(t, buf.String(), "Error executing lock command")
	assert.Len(t, results, 0)
}

func TestExecutor_KilledBySignal(t *testing.T) {
	e, buf := newTestExecutor()

	r := run(t, e, "lock", "kill -KILL $$")
	e.Report(r)

	assert.Equal(t, -1, r.ExitCode)
	assert.NotEmpty(t, r.Signal)
	assert.Contains(t, buf.String(), "lock command exited with status -1")
}

func TestExecutor_OutputIsCapped(t *testing.T) {
	e, buf := newTestExecutor()
	e.MaxOutput = 10

	r := run(t, e, "lock", "printf '%050d' 0")
	e.Report(r)

	assert.Len(t, r.Stdout, 10)
	assert.True(t, r.Truncated)
	assert.Contains(t, buf.String(), "truncated=true")
}

func TestExecutor_OutputAtCapIsNotTruncated(t *testing.T) {
	e, buf := newTestExecutor()
	e.MaxOutput = 10

	r := run(t, e, "lock", "printf '%010d' 0")
	e.Report(r)

	assert.Equal(t, "0000000000", string(r.Stdout))
	assert.False(t, r.Truncated)
	assert.NotContains(t, buf.String(), "truncated")
}

func TestExecutor_BackgroundChildDoesNotHoldResult(t *testing.T) {
	e, buf := newTestExecutor()
	e.WaitDelay = 100 * time.Millisecond

	r := run(t, e, "lock", "sleep 3 &")
	e.Report(r)

	assert.Equal(t, 0, r.ExitCode)
	assert.ErrorIs(t, r.Err, exec.ErrWaitDelay)
	assert.Less(t, r.Duration, 2*time.Second)
	assert.Contains(t, buf.String(), "lock command completed successfully")
}

func TestLimitWriter(t *testing.T) {
	w := &limitWriter{buf: &bytes.Buffer{}, limit: 4}

	n, err := w.Write([]byte("abcd"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.False(t, w.truncated)

	n, err = w.Write([]byte("ef"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, w.truncated)
	assert.Equal(t, "abcd", w.buf.String())
}

func TestExecutor_StartDoesNotWaitForCompletion(t *testing.T) {
	e, _ := newTestExecutor()
	results := make(chan *Result, 1)
	done := make(chan struct{})
	defer close(done)

	began := time.Now()
	_, err := e.Start("lock", "sleep 1", results, done)
	require.NoError(t, err)

	assert.Less(t, time.Since(began), 500*time.Millisecond)
	assert.Len(t, results, 0)
}
