package claudecode

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/ReOpsIL/claude-code-sdk-go/internal/lineio"
	"github.com/ReOpsIL/claude-code-sdk-go/internal/metrics"
	"github.com/ReOpsIL/claude-code-sdk-go/internal/proc"
)

// ErrStreamClosed is returned by Next after Close has been called.
var ErrStreamClosed = errors.New("stream is closed")

type streamItem struct {
	msg Message
	err error
}

// Stream is a lazily-produced sequence of messages from one CLI process.
//
// Messages are yielded in the exact order their lines were written by the
// process; the stream reads at most one item ahead of consumer demand.
// A *JSONDecodeError item is recoverable (keep calling Next); any other
// error is terminal. A clean process exit ends the stream with io.EOF.
//
// A Stream owns its process. Callers that stop consuming before the end
// must call Close so the process is terminated and reaped.
type Stream struct {
	proc     *proc.Process
	failFast bool
	log      *slog.Logger

	items  chan streamItem
	closed chan struct{}

	closeOnce sync.Once
}

func newStream(p *proc.Process, failFast bool) *Stream {
	queryID, err := gonanoid.Generate("abcdefghijklmnopqrstuvwxyz0123456789", 12)
	if err != nil {
		queryID = "unknown"
	}

	s := &Stream{
		proc:     p,
		failFast: failFast,
		log:      slog.Default().With("query_id", queryID),
		items:    make(chan streamItem), // unbuffered: bounds readahead to one item
		closed:   make(chan struct{}),
	}

	metrics.QueriesStarted.Inc()
	metrics.ActiveQueries.Inc()
	go s.run()
	return s
}

// Next returns the next message from the stream, blocking until one is
// available, the stream ends, or ctx is done.
//
// It returns io.EOF after a clean end of stream, ErrStreamClosed after
// Close, and otherwise one error from the taxonomy. Only *JSONDecodeError
// leaves the stream consumable.
func (s *Stream) Next(ctx context.Context) (Message, error) {
	select {
	case <-s.closed:
		return nil, ErrStreamClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case item, ok := <-s.items:
		if !ok {
			return nil, io.EOF
		}
		return item.msg, item.err
	}
}

// All returns a single-use iterator over the stream for range-over-func
// consumption. The stream is closed when the loop finishes or breaks, so
// abandoning the loop never leaks the process. Decode errors are yielded
// with a nil message and iteration continues; any other error is yielded
// and ends the iteration.
func (s *Stream) All(ctx context.Context) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		defer s.Close()
		for {
			msg, err := s.Next(ctx)
			if err == io.EOF {
				return
			}
			if !yield(msg, err) {
				return
			}
			if IsFatal(err) {
				return
			}
		}
	}
}

// Close terminates the underlying process if it is still running, waits
// for it to be reaped, and releases the stream. Idempotent. Redundant
// after the stream has already ended, but always safe.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.proc.Stop()
		_ = s.proc.Wait()
	})
	return nil
}

// run drives the process: decode lines, parse messages, deliver items,
// then finalize on end-of-stream. It is the only goroutine touching the
// process pipes.
func (s *Stream) run() {
	defer metrics.ActiveQueries.Dec()

	dec := lineio.NewDecoder(s.proc.Stdout())
	for {
		line, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.fail(readError(err))
			return
		}

		metrics.StdoutBytesTotal.Add(float64(len(line) + 1))
		if len(line) == 0 {
			continue
		}

		msg, perr := ParseMessage(line)
		if perr != nil {
			metrics.DecodeErrorsTotal.Inc()
			s.log.Debug("undecodable output line", "error", perr)
			if s.failFast {
				s.fail(perr)
				return
			}
			if !s.deliver(streamItem{err: perr}) {
				return
			}
			continue
		}

		metrics.MessagesTotal.WithLabelValues(msg.Type()).Inc()
		if !s.deliver(streamItem{msg: msg}) {
			return
		}
	}

	// Draining: stdout is closed but the process may still be finishing.
	waitErr := s.proc.Wait()
	code := s.proc.ExitCode()

	switch {
	case s.proc.Stopped():
		// Consumer-initiated termination; Close reports nothing further.
		metrics.ProcessExits.WithLabelValues(metrics.OutcomeKilled).Inc()
	case code != 0:
		metrics.ProcessExits.WithLabelValues(metrics.OutcomeFailed).Inc()
		stderr := s.proc.Stderr()
		s.log.Warn("process exited with error",
			"exit_code", code,
			"error", waitErr,
			"stderr", stderr,
		)
		s.deliver(streamItem{err: &ProcessError{ExitCode: code, Stderr: stderr}})
	default:
		metrics.ProcessExits.WithLabelValues(metrics.OutcomeClean).Inc()
		s.log.Debug("process exited cleanly")
	}

	close(s.items)
}

// fail delivers a terminal error, then terminates and reaps the process
// so nothing is leaked. Used for the abort paths that do not wait for a
// natural process exit.
func (s *Stream) fail(err error) {
	s.deliver(streamItem{err: err})
	s.proc.Stop()
	_ = s.proc.Wait()
	metrics.ProcessExits.WithLabelValues(metrics.OutcomeKilled).Inc()
	close(s.items)
}

// deliver hands one item to the consumer. It returns false when the
// stream was closed instead, in which case Close owns process cleanup.
func (s *Stream) deliver(item streamItem) bool {
	select {
	case s.items <- item:
		return true
	case <-s.closed:
		return false
	}
}

// readError maps a pipe read failure into the taxonomy. An oversized
// line is a decode-class failure (the bytes were readable, just not
// frameable); everything else is an I/O failure.
func readError(err error) error {
	if errors.Is(err, lineio.ErrLineTooLong) {
		metrics.DecodeErrorsTotal.Inc()
		return &JSONDecodeError{Message: err.Error(), Err: err}
	}
	return &IOError{Op: "read stdout", Err: err}
}
