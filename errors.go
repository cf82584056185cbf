package claudecode

import (
	"errors"
	"fmt"
)

// decodeErrorLineLimit bounds how much of an offending line is echoed
// into error messages.
const decodeErrorLineLimit = 200

// CLINotFoundError indicates the Claude Code executable could not be
// located on this host. It is returned by Query before any process is
// spawned.
type CLINotFoundError struct {
	// Path is the explicit override that failed to resolve, if one was set.
	Path string
}

func (e *CLINotFoundError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("claude-code CLI not found at %s", e.Path)
	}
	return "claude-code CLI not found; install it with: npm install -g @anthropic-ai/claude-code"
}

// CLIConnectionError indicates the CLI process could not be spawned for
// an environmental reason (permissions, resource limits, bad working
// directory). It is returned by Query before any message is produced.
type CLIConnectionError struct {
	Message string
	Err     error
}

func (e *CLIConnectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("CLI connection error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("CLI connection error: %s", e.Message)
}

func (e *CLIConnectionError) Unwrap() error { return e.Err }

// ProcessError indicates the CLI process exited with a non-zero status.
// It is the terminal item of a stream, delivered after every message the
// process produced beforehand. Stderr holds the captured standard-error
// text accumulated during the run.
type ProcessError struct {
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("process failed with exit code %d: %s", e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("process failed with exit code %d", e.ExitCode)
}

// JSONDecodeError indicates a single output line failed to parse or
// validate as a known message shape. It is recoverable: by default the
// stream yields it as one item and continues with subsequent lines.
type JSONDecodeError struct {
	Message string
	Line    string // offending line, verbatim
	Err     error
}

func (e *JSONDecodeError) Error() string {
	line := e.Line
	if len(line) > decodeErrorLineLimit {
		line = line[:decodeErrorLineLimit] + "..."
	}
	msg := fmt.Sprintf("failed to decode CLI output: %s", e.Message)
	if line != "" {
		msg += fmt.Sprintf(" (line: %q)", line)
	}
	return msg
}

func (e *JSONDecodeError) Unwrap() error { return e.Err }

// IOError indicates a low-level read failure on the process pipes. It is
// terminal: the stream aborts immediately without waiting for process
// exit, after terminating the process to avoid leaking it.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("I/O error during %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsFatal reports whether err ends the stream. Decode errors are the only
// recoverable kind; everything else in the taxonomy is terminal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var decodeErr *JSONDecodeError
	return !errors.As(err, &decodeErr)
}
