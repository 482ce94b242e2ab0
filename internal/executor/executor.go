// Package executor runs user commands through a shell without blocking the caller and logs
// their outcome.
package executor

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxLoggedOutput is the output length, in characters, from which successful output is no
// longer logged.
const MaxLoggedOutput = 100

// Default values.
const (
	DefaultShell     = "/bin/sh"
	DefaultMaxOutput = 1 << 20 // 1 MB
	DefaultWaitDelay = 5 * time.Second
)

// Executor starts shell commands and reports their results.
type Executor struct {
	Shell     string
	MaxOutput int // bytes, per stream
	// WaitDelay bounds the wait for output pipes that stay open after the shell exits, e.g.
	// because the command started a background process.
	WaitDelay time.Duration
	Log       *slog.Logger
}

// New creates an Executor with default settings that logs to logger.
func New(logger *slog.Logger) *Executor {
	return &Executor{
		Shell:     DefaultShell,
		MaxOutput: DefaultMaxOutput,
		WaitDelay: DefaultWaitDelay,
		Log:       logger,
	}
}

// Start runs command through the shell. label describes why the command runs, e.g. "lock".
//
// Start returns once the process is started. The wait for completion happens on a separate
// goroutine which sends the Result to results. If done is closed before results accepts the
// Result, it is dropped.
//
// If the process cannot be started, the error is logged and returned.
func (e *Executor) Start(label, command string, results chan<- *Result, done <-chan struct{}) (string, error) {
	runID := uuid.New().String()
	e.Log.Info(fmt.Sprintf("Executing %s command: %s", label, command), "run", runID)

	cmd := exec.Command(e.Shell, "-c", command)
	cmd.WaitDelay = e.WaitDelay

	stdout := &limitWriter{buf: &bytes.Buffer{}, limit: e.MaxOutput}
	stderr := &limitWriter{buf: &bytes.Buffer{}, limit: e.MaxOutput}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	started := time.Now()
	if err := cmd.Start(); err != nil {
		e.Log.Error(fmt.Sprintf("Error executing %s command", label), "run", runID, "error", err)
		return runID, fmt.Errorf("starting %s command: %w", label, err)
	}

	go func() {
		waitErr := cmd.Wait()
		state := cmd.ProcessState

		result := &Result{
			RunID:     runID,
			Label:     label,
			Command:   command,
			ExitCode:  state.ExitCode(),
			Stdout:    stdout.buf.Bytes(),
			Stderr:    stderr.buf.Bytes(),
			Truncated: stdout.truncated || stderr.truncated,
			Duration:  time.Since(started),
		}
		if state != nil {
			if status, ok := state.Sys().(syscall.WaitStatus); ok && status.Signaled() {
				result.Signal = status.Signal().String()
			}
		}
		var exitErr *exec.ExitError
		if waitErr != nil && !errors.As(waitErr, &exitErr) {
			result.Err = waitErr
		}

		select {
		case results <- result:
		case <-done:
		}
	}()

	return runID, nil
}

// Report logs the outcome of a finished command.
func (e *Executor) Report(r *Result) {
	attrs := []any{"run", r.RunID, "duration", r.Duration.Round(time.Millisecond)}
	if r.Truncated {
		attrs = append(attrs, "truncated", true)
	}

	if r.ExitCode != 0 {
		if r.Signal != "" {
			attrs = append(attrs, "signal", r.Signal)
		}
		e.Log.Warn(fmt.Sprintf("%s command exited with status %d", r.Label, r.ExitCode), attrs...)
		if len(r.Stderr) > 0 {
			e.Log.Warn("Error output: "+string(r.Stderr), "run", r.RunID)
		}
		return
	}

	if r.Err != nil {
		attrs = append(attrs, "error", r.Err)
	}
	e.Log.Info(fmt.Sprintf("%s command completed successfully", r.Label), attrs...)

	output := string(r.Stdout)
	if output != "" && utf8.RuneCountInString(output) < MaxLoggedOutput {
		e.Log.Info("Output: "+strings.TrimSpace(output), "run", r.RunID)
	}
}

// limitWriter writes up to limit bytes to buf, then silently discards the rest.
type limitWriter struct {
	buf       *bytes.Buffer
	limit     int
	truncated bool // set once a byte was discarded
}

func (w *limitWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	remaining := w.limit - w.buf.Len()
	if remaining <= 0 {
		w.truncated = true
		return len(p), nil
	}
	if len(p) > remaining {
		// Report all bytes as consumed to avoid short write errors from io.Copy.
		w.buf.Write(p[:remaining])
		w.truncated = true
		return len(p), nil
	}
	return w.buf.Write(p)
}
