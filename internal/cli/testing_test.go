package cli

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bomcheck/pkg/observability"
)

// fakeDigikey serves the token and product endpoints. Lookups succeed only
// with the current access token.
type fakeDigikey struct {
	mu          sync.Mutex
	access      string
	nextAccess  string
	refreshes   int
	lookups     int
	rateLimited int // number of lookups to answer with 429 before succeeding
	retryAfter  string
}

func newFakeDigikey(t *testing.T, access string) (*fakeDigikey, *httptest.Server) {
	t.Helper()
	f := &fakeDigikey{access: access, nextAccess: "fresh", retryAfter: "1"}
	server := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeDigikey) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/v1/oauth2/token":
		_ = r.ParseForm()
		if r.PostForm.Get("grant_type") == "refresh_token" && r.PostForm.Get("refresh_token") != "refresh" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
			return
		}
		f.refreshes++
		f.access = f.nextAccess
		fmt.Fprintf(w, `{"access_token":%q,"refresh_token":"refresh","expires_in":1799,"refresh_token_expires_in":7776000,"token_type":"Bearer"}`, f.access)
	case strings.HasPrefix(r.URL.Path, "/Search/v3/Products/"):
		f.lookups++
		if r.Header.Get("Authorization") != "Bearer "+f.access {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"ErrorMessage":"Bearer token expired"}`)
			return
		}
		if f.rateLimited > 0 {
			f.rateLimited--
			w.Header().Set("Retry-After", f.retryAfter)
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		pn := strings.TrimPrefix(r.URL.Path, "/Search/v3/Products/")
		fmt.Fprintf(w, `{
			"ProductDescription": "desc %[1]s",
			"DigiKeyPartNumber": "%[1]s-ND",
			"Manufacturer": {"Value": "Acme"},
			"ManufacturerLeadWeeks": "8",
			"QuantityAvailable": 100,
			"StandardPricing": [
				{"BreakQuantity": 1, "UnitPrice": 1.0},
				{"BreakQuantity": 10, "UnitPrice": 0.5},
				{"BreakQuantity": 100, "UnitPrice": 0.25}
			],
			"ProductStatus": "Active"
		}`, pn)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeDigikey) setRateLimited(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rateLimited = n
}

func (f *fakeDigikey) counts() (refreshes, lookups int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshes, f.lookups
}

// testCLI returns a CLI whose config points at baseURL and stores sessions
// under a temp dir.
func testCLI(t *testing.T, baseURL string) *CLI {
	t.Helper()
	for _, env := range []string{envBaseURL, envClientID, envClientSecret, envRedirectURI, envPriceBreak} {
		t.Setenv(env, "")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	cfg := fmt.Sprintf(`base_url = %q
client_id = "id"
client_secret = "secret"

[store]
backend = "file"
dir = %q
`, baseURL, filepath.Join(dir, "sessions"))
	if err := os.WriteFile(path, []byte(cfg), 0600); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, log.InfoLevel)
	t.Cleanup(observability.Reset)
	c.configPath = path
	return c
}
