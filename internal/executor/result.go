package executor

import "time"

// Result holds the outcome of a command execution.
type Result struct {
	RunID     string        // unique identifier for this run
	Label     string        // why the command ran, e.g. "lock"
	Command   string        // the shell command
	ExitCode  int           // process exit code, -1 when killed by a signal
	Signal    string        // signal that killed the process, if any
	Stdout    []byte        // captured stdout (may be truncated)
	Stderr    []byte        // captured stderr (may be truncated)
	Truncated bool          // true if output was discarded because of the size cap
	Duration  time.Duration // time from start to exit
	// Err is set when waiting for the process failed for another reason than a non-zero exit,
	// e.g. when output pipes were still open after WaitDelay.
	Err error
}
