package cli

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// requestStats counts Digikey traffic for the current invocation.
// It is registered as both the HTTP and the auth hook set.
type requestStats struct {
	logger *log.Logger

	mu        sync.Mutex
	requests  int
	failures  int
	throttled int
	refreshes int
	latency   time.Duration
}

func newRequestStats(logger *log.Logger) *requestStats {
	return &requestStats{logger: logger}
}

func (s *requestStats) OnRequest(context.Context, string, string, string) {
	s.mu.Lock()
	s.requests++
	s.mu.Unlock()
}

func (s *requestStats) OnResponse(_ context.Context, _, _, _ string, status int, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency += d
	if status == http.StatusTooManyRequests {
		s.throttled++
	}
}

func (s *requestStats) OnError(_ context.Context, method, host, path string, err error) {
	s.mu.Lock()
	s.failures++
	s.mu.Unlock()
	s.logger.Debug("transport failure", "method", method, "host", host, "path", path, "err", err)
}

func (s *requestStats) OnTokenIssued(_ context.Context, grant string, expiresIn time.Duration) {
	s.mu.Lock()
	if grant == "refresh_token" {
		s.refreshes++
	}
	s.mu.Unlock()
	s.logger.Debug("token issued", "grant", grant, "expires_in", expiresIn)
}

func (s *requestStats) OnTokenError(_ context.Context, grant string, err error) {
	s.logger.Debug("token request rejected", "grant", grant, "err", err)
}

// reset clears the counters, keeping the logger.
func (s *requestStats) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests, s.failures, s.throttled, s.refreshes = 0, 0, 0, 0
	s.latency = 0
}

// summary renders the counters, e.g. "4 requests, 1 throttled, 1 refresh".
func (s *requestStats) summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := plural(s.requests, "request", "requests")
	if s.throttled > 0 {
		out += fmt.Sprintf(", %d throttled", s.throttled)
	}
	if s.failures > 0 {
		out += fmt.Sprintf(", %d failed", s.failures)
	}
	if s.refreshes > 0 {
		out += ", " + plural(s.refreshes, "refresh", "refreshes")
	}
	if answered := s.requests - s.failures; answered > 0 {
		out += fmt.Sprintf(", avg %s", (s.latency / time.Duration(answered)).Round(time.Millisecond))
	}
	return out
}

// progress is the live spinner suffix, e.g. "(3 requests, 1 throttled)".
func (s *requestStats) progress() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requests == 0 {
		return ""
	}
	out := plural(s.requests, "request", "requests")
	if s.throttled > 0 {
		out += fmt.Sprintf(", %d throttled", s.throttled)
	}
	return "(" + out + ")"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
