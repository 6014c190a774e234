package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns the diagnostics logger. It writes to w (stderr in
// main) so lookup output on stdout stays clean for pipes.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one lookup run.
type progress struct {
	logger *log.Logger
	start  time.Time
	parts  int
}

func newProgress(l *log.Logger, parts int) *progress {
	return &progress{logger: l, start: time.Now(), parts: parts}
}

// done logs the run with its traffic summary, e.g.
// `12 parts looked up requests="1 request, avg 230ms" elapsed=1.234s`.
func (p *progress) done(traffic string) {
	p.logger.Info(plural(p.parts, "part", "parts")+" looked up",
		"requests", traffic,
		"elapsed", time.Since(p.start).Round(time.Millisecond))
}
