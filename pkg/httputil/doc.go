// Package httputil provides the HTTP plumbing shared by distributor clients.
//
// # Overview
//
//   - [Transport]: GET/POST relative to a base URL, with debug logging
//   - [Retry]: caller-side retry with exponential backoff
//
// # Transport
//
// [Transport] joins a normalized base URL (always ending in "/") with a
// relative path, forwards query parameters, form bodies and headers verbatim,
// and returns the raw *http.Response:
//
//	t := httputil.NewTransport("https://sandbox-api.digikey.com", logger)
//	resp, err := t.Get(ctx, "Search/v3/Products/P5555-ND", params, headers)
//	if err != nil {
//	    // DNS failure, refused connection, timeout: returned unchanged
//	}
//	defer resp.Body.Close()
//
// Status codes are never interpreted here.
//
// # Retry
//
// Client operations do not retry on their own. Callers that want retries
// wrap the transient failures they care about with [Retryable] and run the
// call under [Retry]:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    _, err := client.LookupByPartNumbers(ctx, parts)
//	    if errors.IsRateLimit(err) {
//	        return httputil.Retryable(err, errors.RetryAfter(err))
//	    }
//	    return err
//	})
//
// A positive Retry-After hint replaces the backoff delay for that attempt.
package httputil
