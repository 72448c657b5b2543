package chat

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInterrupted is returned when the user presses Ctrl+C while the terminal
// is in raw mode and no interrupt signal is delivered.
var ErrInterrupted = errors.New("interrupted by user")

// LineReader reads one line of user input.
type LineReader interface {
	ReadLine(ctx context.Context) (string, error)
}

// Acknowledger blocks until the user acknowledges a displayed result.
type Acknowledger interface {
	Wait(ctx context.Context) error
}

type lineResult struct {
	line string
	err  error
}

// Reader reads lines from an io.Reader on demand. A single goroutine owns the
// underlying reader and only reads when a caller asks for a line, so other
// consumers (such as a keypress prompt) can use the same input in between.
type Reader struct {
	requests chan struct{}
	lines    chan lineResult
	quit     chan struct{}
	done     chan struct{}
	once     sync.Once

	mu      sync.Mutex
	pending bool // a request was issued but its line not yet taken
	err     error
}

// NewReader starts a reader over r.
func NewReader(r io.Reader) *Reader {
	lr := &Reader{
		requests: make(chan struct{}),
		lines:    make(chan lineResult, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go lr.loop(bufio.NewReader(r))
	return lr
}

func (r *Reader) loop(br *bufio.Reader) {
	defer close(r.done)
	for {
		select {
		case <-r.quit:
			return
		case <-r.requests:
		}

		line, err := br.ReadString('\n')
		if err == io.EOF && line != "" {
			err = nil // final line without newline
		}
		res := lineResult{line: strings.TrimRight(line, "\r\n"), err: err}

		select {
		case r.lines <- res:
		case <-r.quit:
			return
		}
		if err != nil {
			r.mu.Lock()
			r.err = err
			r.mu.Unlock()
			return
		}
	}
}

// ReadLine returns the next line without its terminator. It returns io.EOF
// once input is exhausted. A canceled read keeps its request outstanding,
// so the line is delivered to the next caller.
func (r *Reader) ReadLine(ctx context.Context) (string, error) {
	r.mu.Lock()
	pending := r.pending
	r.mu.Unlock()

	if !pending {
		select {
		case r.requests <- struct{}{}:
			r.setPending(true)
		case res := <-r.lines:
			// leftover from a reader that finished while we were idle
			return res.line, res.err
		case <-r.done:
			return "", r.finalErr()
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	select {
	case res := <-r.lines:
		r.setPending(false)
		return res.line, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *Reader) setPending(v bool) {
	r.mu.Lock()
	r.pending = v
	r.mu.Unlock()
}

func (r *Reader) finalErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	return io.EOF
}

// Close stops the reader goroutine once it is idle.
func (r *Reader) Close() {
	r.once.Do(func() { close(r.quit) })
}

// LineAck acknowledges with one line of input (Enter).
type LineAck struct {
	Input LineReader
}

// Wait reads and discards one line. EOF counts as acknowledgment.
func (a LineAck) Wait(ctx context.Context) error {
	_, err := a.Input.ReadLine(ctx)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
