package httputil

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bomcheck/pkg/buildinfo"
	"github.com/matzehuels/bomcheck/pkg/observability"
)

// Transport issues GET and POST requests relative to a fixed base URL.
//
// Transport never interprets HTTP status codes; the raw response is returned
// and classifying it is the caller's job. Transport-level failures (DNS,
// refused connections, timeouts, cancellation) are logged and returned
// unchanged so callers can still match them with errors.Is and errors.As.
//
// Every request carries a bomcheck User-Agent unless headers override it.
// The caller owns the returned response and must close its body.
type Transport struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

// Option configures a Transport.
type Option func(*Transport)

// WithHTTPClient replaces the underlying *http.Client.
// Use it to set timeouts, proxies, or to point tests at an httptest server.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) {
		if c != nil {
			t.http = c
		}
	}
}

// NewTransport creates a Transport rooted at baseURL.
// A trailing slash is appended to baseURL when missing, so
// "https://api.digikey.com" and "https://api.digikey.com/" behave the same.
// A nil logger discards all output.
func NewTransport(baseURL string, logger *log.Logger, opts ...Option) *Transport {
	t := &Transport{
		baseURL: NormalizeBaseURL(baseURL),
		http:    &http.Client{},
		logger:  orDiscard(logger),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NormalizeBaseURL guarantees exactly the one trailing slash the transport
// relies on when joining relative paths.
func NormalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	return raw
}

// BaseURL returns the normalized base URL (always ends with "/").
func (t *Transport) BaseURL() string { return t.baseURL }

// URL joins the base URL with a relative path.
func (t *Transport) URL(path string) string {
	return t.baseURL + strings.TrimPrefix(path, "/")
}

// Get sends a GET request to path with params encoded as the query string.
func (t *Transport) Get(ctx context.Context, path string, params url.Values, headers map[string]string) (*http.Response, error) {
	u := t.URL(path)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	t.logger.Debug("sending request", "method", http.MethodGet, "url", u)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return t.do(req, headers)
}

// Post sends form as an application/x-www-form-urlencoded body to path.
// Only the form field names are logged; values may carry secrets.
func (t *Transport) Post(ctx context.Context, path string, form url.Values, headers map[string]string) (*http.Response, error) {
	u := t.URL(path)
	t.logger.Debug("sending request", "method", http.MethodPost, "url", u, "fields", fieldNames(form))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return t.do(req, headers)
}

func (t *Transport) do(req *http.Request, headers map[string]string) (*http.Response, error) {
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	ctx, host, path := req.Context(), req.URL.Host, req.URL.Path
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := t.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		t.logger.Error("request failed", "method", req.Method, "url", req.URL.String(), "err", err)
		return nil, err
	}
	elapsed := time.Since(start)
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, elapsed)
	t.logger.Debug("received response", "method", req.Method, "url", req.URL.String(), "status", resp.StatusCode, "elapsed", elapsed)
	return resp, nil
}

// ReadBody drains and closes resp.Body, returning its contents as a string.
// A read error yields whatever was read before the failure.
func ReadBody(resp *http.Response) string {
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return string(data)
}

func fieldNames(form url.Values) []string {
	names := make([]string, 0, len(form))
	for k := range form {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func orDiscard(l *log.Logger) *log.Logger {
	if l != nil {
		return l
	}
	return log.New(io.Discard)
}
