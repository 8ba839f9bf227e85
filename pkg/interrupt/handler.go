package interrupt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"syscall"

	"golang.org/x/term"
	errs "xscraper/pkg/errors"
	"xscraper/pkg/logger"
)

// Reason identifies what ended a run early
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonSignal    Reason = "signal"
	ReasonQuitKey   Reason = "quit_key"
	ReasonStop      Reason = "stop_requested"
	ReasonCancelled Reason = "cancelled"
	ReasonPanic     Reason = "panic"
)

// State is the terminal state of a run
type State string

const (
	StateCompleted State = "completed"
	StateStopped   State = "stopped"
	StateFailed    State = "failed"
)

// FinalFlush persists whatever the run has accumulated and reports the
// store size afterwards
type FinalFlush func(ctx context.Context, reason Reason) (persisted int, err error)

// Outcome is the classified end of a run
type Outcome struct {
	State     State
	Reason    Reason
	Persisted int
	// Err is the run error joined with any final flush error
	Err      error
	FlushErr error
}

// ExitCode maps the state to a process exit status
func (o Outcome) ExitCode() int {
	switch o.State {
	case StateCompleted:
		return 0
	case StateStopped:
		return 130
	default:
		return 1
	}
}

// PanicError carries a recovered panic out of Guard
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Option configures a Handler
type Option func(*Handler)

// WithSignals overrides the signals that stop the run. With no arguments
// the handler does not subscribe to signals at all.
func WithSignals(sigs ...os.Signal) Option {
	return func(h *Handler) { h.signals = sigs }
}

// WithQuitKey stops the run when 'q' or Ctrl+C is typed on in, which must
// be a terminal. The terminal is put in raw mode until Finalize.
func WithQuitKey(in *os.File) Option {
	return func(h *Handler) { h.quitInput = in }
}

// WithLogger sets the handler logger
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// Handler guarantees one final flush for a single collection run, however
// the run ends: normal completion, an operator stop, a signal, a collaborator
// failure or a panic.
type Handler struct {
	flush     FinalFlush
	signals   []os.Signal
	quitInput *os.File
	logger    logger.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	reason Reason

	sigCh     chan os.Signal
	done      chan struct{}
	termState *term.State

	startOnce    sync.Once
	stopOnce     sync.Once
	finalizeOnce sync.Once
	outcome      Outcome
}

// New creates a handler whose Context is derived from parent. Listeners are
// not active until Start.
func New(parent context.Context, flush FinalFlush, opts ...Option) *Handler {
	ctx, cancel := context.WithCancel(parent)
	h := &Handler{
		flush:   flush,
		signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
		logger:  logger.NewNopLogger(),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Context is cancelled as soon as the handler is triggered
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Start subscribes to the configured signals and quit key
func (h *Handler) Start() error {
	var startErr error
	h.startOnce.Do(func() {
		if len(h.signals) > 0 {
			h.sigCh = make(chan os.Signal, 1)
			signal.Notify(h.sigCh, h.signals...)
			go h.watchSignals()
		}
		if h.quitInput != nil {
			startErr = h.watchQuitKey()
		}
	})
	return startErr
}

func (h *Handler) watchSignals() {
	select {
	case sig := <-h.sigCh:
		h.logger.WarnWithFields("Received signal, saving collected records", map[string]interface{}{
			"signal": sig.String(),
		})
		h.Trigger(ReasonSignal)
	case <-h.done:
	}
}

func (h *Handler) watchQuitKey() error {
	fd := int(h.quitInput.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("quit key needs a terminal")
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	h.termState = state

	// The read blocks until the next key press; after Finalize the
	// goroutine exits on that key without side effects.
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := h.quitInput.Read(buf)
			if err != nil {
				return
			}
			select {
			case <-h.done:
				return
			default:
			}
			if n == 1 && (buf[0] == 'q' || buf[0] == 'Q' || buf[0] == 0x03) {
				h.logger.Warn("Quit key pressed, saving collected records")
				h.Trigger(ReasonQuitKey)
				return
			}
		}
	}()
	return nil
}

// Trigger stops the run for reason. Only the first trigger is recorded.
func (h *Handler) Trigger(reason Reason) {
	h.mu.Lock()
	if h.reason == ReasonNone {
		h.reason = reason
	}
	h.mu.Unlock()
	h.cancel()
}

// Reason returns the first trigger reason, if any
func (h *Handler) Reason() Reason {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reason
}

// Guard runs fn and turns a panic into a *PanicError so that Finalize
// still runs the final flush
func (h *Handler) Guard(fn func(ctx context.Context) error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v, Stack: debug.Stack()}
			h.logger.ErrorWithFields("Collection panicked", map[string]interface{}{
				"panic": fmt.Sprint(v),
			})
			h.Trigger(ReasonPanic)
		}
	}()
	return fn(h.ctx)
}

// Finalize releases the listeners, runs the final flush exactly once and
// classifies the run. Later calls return the first outcome.
func (h *Handler) Finalize(runErr error) Outcome {
	h.finalizeOnce.Do(func() {
		h.stop()

		reason := h.Reason()
		if reason == ReasonNone && runErr != nil && errs.TypeOf(runErr) == errs.ErrorTypeInterrupted {
			reason = ReasonCancelled
		}

		persisted, flushErr := h.flush(context.WithoutCancel(h.ctx), reason)
		if flushErr != nil {
			h.logger.WithError(flushErr).ErrorWithFields("Final flush failed", map[string]interface{}{
				"reason": string(reason),
			})
		}

		h.outcome = Outcome{
			State:     classify(reason, runErr, flushErr),
			Reason:    reason,
			Persisted: persisted,
			Err:       errors.Join(runErr, flushErr),
			FlushErr:  flushErr,
		}
		if h.outcome.State == StateStopped && errs.TypeOf(runErr) == errs.ErrorTypeInterrupted && flushErr == nil {
			// A requested stop is not an error.
			h.outcome.Err = nil
		}
		h.cancel()
	})
	return h.outcome
}

func classify(reason Reason, runErr, flushErr error) State {
	if flushErr != nil || reason == ReasonPanic {
		return StateFailed
	}
	if runErr != nil && errs.TypeOf(runErr) != errs.ErrorTypeInterrupted {
		return StateFailed
	}
	if reason != ReasonNone {
		return StateStopped
	}
	return StateCompleted
}

func (h *Handler) stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		if h.sigCh != nil {
			signal.Stop(h.sigCh)
		}
		if h.termState != nil {
			_ = term.Restore(int(h.quitInput.Fd()), h.termState)
		}
	})
}

// RawModeWriter translates "\n" to "\r\n" so that log lines stay aligned
// while the terminal is in raw mode
func RawModeWriter(w io.Writer) io.Writer {
	return &crlfWriter{w: w}
}

type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	out := make([]byte, 0, len(p)+8)
	for i, b := range p {
		if b == '\n' && (i == 0 || p[i-1] != '\r') {
			out = append(out, '\r')
		}
		out = append(out, b)
	}
	if _, err := c.w.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}
