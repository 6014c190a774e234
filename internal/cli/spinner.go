package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner animates a status line on w while a Digikey call is in flight.
// An optional status func is polled on every frame and appended to the
// message, so long lookups can show live request counts.
type spinner struct {
	w       io.Writer
	message string
	status  func() string
	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}

	mu       sync.Mutex
	width    int
	started  bool
	stopOnce sync.Once
}

// newSpinner returns a stopped spinner that draws on stderr and stops
// drawing when ctx is cancelled.
func newSpinner(ctx context.Context, message string) *spinner {
	return newSpinnerTo(ctx, os.Stderr, message)
}

func newSpinnerTo(ctx context.Context, w io.Writer, message string) *spinner {
	sctx, cancel := context.WithCancel(ctx)
	return &spinner{
		w:       w,
		message: message,
		parent:  ctx,
		ctx:     sctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// withStatus sets a func whose result is shown after the message.
func (s *spinner) withStatus(fn func() string) *spinner {
	s.status = fn
	return s
}

func (s *spinner) line() string {
	if s.status == nil {
		return s.message
	}
	if st := s.status(); st != "" {
		return s.message + " " + st
	}
	return s.message
}

func (s *spinner) Start() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

func (s *spinner) draw(frame string) {
	text := s.line()
	s.mu.Lock()
	defer s.mu.Unlock()
	// Pad over a longer previous status so no stale characters remain.
	pad := ""
	if n := len(text) + 2; n < s.width {
		pad = strings.Repeat(" ", s.width-n)
	} else {
		s.width = n
	}
	fmt.Fprintf(s.w, "\r%s %s%s", styleIconSpinner.Render(frame), StyleDim.Render(text), pad)
}

func (s *spinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width == 0 {
		return
	}
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
	s.width = 0
}

// Stop halts the animation and clears the line. It is safe to call more
// than once and on a spinner that was never started.
func (s *spinner) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if started {
			<-s.stopped
		}
		s.clearLine()
	})
}

func (s *spinner) StopWithSuccess(msg string) {
	s.Stop()
	fmt.Fprintln(s.w, statusLine(styleIconSuccess, iconSuccess, msg))
}

func (s *spinner) StopWithError(msg string) {
	s.Stop()
	fmt.Fprintln(s.w, statusLine(styleIconError, iconError, msg))
}

// Interrupted reports whether the parent context ended the spinner,
// as opposed to an explicit Stop.
func (s *spinner) Interrupted() bool {
	return s.parent.Err() != nil
}
