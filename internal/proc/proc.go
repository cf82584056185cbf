// Package proc owns the lifecycle of a single Claude Code CLI process:
// spawn, stdout/stderr plumbing, termination, and exit reaping. The
// process handle is exclusively owned by the stream that launched it;
// callers of the SDK never touch it directly.
package proc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// stderrCap bounds the captured stderr text. A crashing CLI can emit an
// arbitrary amount of diagnostics; only the head is useful in errors.
const stderrCap = 1 << 20

// Options configures a Launch.
type Options struct {
	Path string   // resolved CLI executable
	Args []string // argv, excluding the executable itself
	Dir  string   // working directory; empty means inherit
	Env  []string // nil means inherit the parent environment
}

// Process is a handle to a spawned CLI process. Stdout is consumed by the
// owner; stderr is captured out-of-band and surfaced only at failure time.
type Process struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *cappedBuffer
	cancel context.CancelFunc

	done    chan struct{} // closed once the process has been reaped
	waitErr error         // set before done is closed

	waitOnce sync.Once

	mu      sync.Mutex
	stopped bool
}

// Launch spawns the CLI with its stdout and stderr attached and stdin
// closed. It does not block on the child. The caller must eventually call
// Wait (directly or via Stop) so the child is reaped.
func Launch(ctx context.Context, opts Options) (*Process, error) {
	ctx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(ctx, opts.Path, opts.Args...)
	cmd.Dir = opts.Dir
	if opts.Env != nil {
		cmd.Env = opts.Env
	}

	// Send SIGTERM (instead of the default SIGKILL) on cancellation so the
	// CLI can flush its session state. Go escalates to SIGKILL after
	// WaitDelay if the process ignores the signal.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = 5 * time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	stderr := &cappedBuffer{cap: stderrCap}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, err
	}

	return &Process{
		cmd:    cmd,
		stdout: stdout,
		stderr: stderr,
		cancel: cancel,
		done:   make(chan struct{}),
	}, nil
}

// Stdout returns the process's standard output pipe. Reading it to EOF
// before calling Wait is the owner's responsibility; Wait closes the pipe.
func (p *Process) Stdout() io.Reader {
	return p.stdout
}

// Wait reaps the process, blocking until it exits, and returns the exit
// error from the underlying command. Safe to call multiple times.
func (p *Process) Wait() error {
	p.waitOnce.Do(func() {
		p.waitErr = p.cmd.Wait()
		close(p.done)
	})
	<-p.done
	return p.waitErr
}

// Done is closed once the process has been reaped by Wait.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Exited reports, without blocking, whether the process has been reaped,
// and with what exit code if so.
func (p *Process) Exited() (bool, int) {
	select {
	case <-p.done:
		return true, p.ExitCode()
	default:
		return false, 0
	}
}

// ExitCode returns the process exit code after Wait has completed.
// A process killed by a signal reports -1, mirroring os.ProcessState.
func (p *Process) ExitCode() int {
	if p.cmd.ProcessState == nil {
		return -1
	}
	return p.cmd.ProcessState.ExitCode()
}

// Stop forcefully terminates the process if it is still running. Used on
// cancellation; a normally-exiting process never needs it. Idempotent.
func (p *Process) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	p.cancel()
}

// Stopped reports whether Stop was called.
func (p *Process) Stopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// Stderr returns the stderr text captured so far.
func (p *Process) Stderr() string {
	return p.stderr.String()
}

// cappedBuffer is a size-bounded, concurrency-safe append-only buffer.
// exec copies the child's stderr into it from an internal goroutine while
// the owner may read it at failure time.
type cappedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	cap int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.cap - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	// Report full consumption so the child never blocks on a full buffer.
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
