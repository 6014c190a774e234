package cli

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/bomcheck/pkg/digikey"
)

// callbackServer captures the authorization redirect on a local listener so
// the user does not have to paste the redirect URL.
type callbackServer struct {
	server      *http.Server
	listener    net.Listener
	redirectURI string
	state       string
	logger      *log.Logger
	result      chan callbackResult
}

type callbackResult struct {
	code string
	err  error
}

// newCallbackServer listens on the host and port of redirectURI. The URI
// must use http and point at the local machine. Port 0 picks a free port;
// RedirectURI then reports the actual one.
func newCallbackServer(redirectURI, state string, logger *log.Logger) (*callbackServer, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("parse redirect_uri: %w", err)
	}
	if u.Scheme != "http" {
		return nil, fmt.Errorf("--listen needs an http redirect_uri on localhost, got %q", redirectURI)
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
	default:
		return nil, fmt.Errorf("--listen needs a localhost redirect_uri, got host %q", u.Hostname())
	}

	addr := u.Host
	if u.Port() == "" {
		addr = net.JoinHostPort(u.Hostname(), "80")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	if u.Port() == "0" {
		u.Host = net.JoinHostPort(u.Hostname(), fmt.Sprint(ln.Addr().(*net.TCPAddr).Port))
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	s := &callbackServer{
		listener:    ln,
		redirectURI: u.String(),
		state:       state,
		logger:      logger,
		result:      make(chan callbackResult, 1),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get(path, s.handleCallback)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not the authorization callback", http.StatusNotFound)
	})

	s.server = &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("callback server stopped", "err", err)
		}
	}()
	logger.Debug("listening for authorization callback", "addr", ln.Addr().String(), "path", path)
	return s, nil
}

// RedirectURI returns the redirect URI the server answers on.
func (s *callbackServer) RedirectURI() string { return s.redirectURI }

func (s *callbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if s.state != "" && q.Get("state") != s.state {
		s.logger.Warn("callback with unexpected state")
		http.Error(w, "state mismatch", http.StatusBadRequest)
		return
	}
	if e := q.Get("error"); e != "" {
		msg := e
		if d := q.Get("error_description"); d != "" {
			msg += ": " + d
		}
		s.deliver(callbackResult{err: fmt.Errorf("authorization denied: %s", msg)})
		writeCallbackPage(w, http.StatusBadRequest, "Authorization failed", msg)
		return
	}

	code, err := digikey.ParseCode(r.URL.RawQuery)
	if err != nil {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}
	s.deliver(callbackResult{code: code})
	writeCallbackPage(w, http.StatusOK, "bomcheck is authorized", "You can close this window and return to the terminal.")
}

// deliver keeps the first result only.
func (s *callbackServer) deliver(res callbackResult) {
	select {
	case s.result <- res:
	default:
	}
}

// Wait blocks until the browser hits the callback or ctx is done.
func (s *callbackServer) Wait(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-s.result:
		return res.code, res.err
	}
}

// Close stops the listener.
func (s *callbackServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func writeCallbackPage(w http.ResponseWriter, status int, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, "<!doctype html><title>%s</title><h1>%s</h1><p>%s</p>\n",
		html.EscapeString(title), html.EscapeString(title), html.EscapeString(body))
}
