// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries emit events through the registered hooks without depending on any
// observability backend. Applications register hooks once at startup:
//
//	func main() {
//	    observability.SetHTTPHooks(&myHTTPHooks{})
//	    observability.SetAuthHooks(&myAuthHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.HTTP().OnRequest(ctx, method, host, path)
//	// ... send request ...
//	observability.HTTP().OnResponse(ctx, method, host, path, status, duration)
//
// Hooks never receive token values or request bodies.
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response of any status.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records a transport failure (network failure, timeout, cancellation).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// Auth Hooks
// =============================================================================

// AuthHooks receives events from the OAuth2 token endpoint.
// grant is "authorization_code" or "refresh_token".
type AuthHooks interface {
	// OnTokenIssued records a successful exchange or refresh.
	OnTokenIssued(ctx context.Context, grant string, expiresIn time.Duration)

	// OnTokenError records a failed exchange or refresh.
	OnTokenError(ctx context.Context, grant string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// NoopAuthHooks is a no-op implementation of AuthHooks.
type NoopAuthHooks struct{}

func (NoopAuthHooks) OnTokenIssued(context.Context, string, time.Duration) {}
func (NoopAuthHooks) OnTokenError(context.Context, string, error)          {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	httpHooks HTTPHooks = NoopHTTPHooks{}
	authHooks AuthHooks = NoopAuthHooks{}
	hooksMu   sync.RWMutex
)

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// SetAuthHooks registers custom auth hooks.
func SetAuthHooks(h AuthHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		authHooks = h
	}
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Auth returns the registered auth hooks.
func Auth() AuthHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return authHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	httpHooks = NoopHTTPHooks{}
	authHooks = NoopAuthHooks{}
}
