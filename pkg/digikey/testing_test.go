package digikey

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeAPI is an in-memory stand-in for the Digikey endpoints.
type fakeAPI struct {
	mu       sync.Mutex
	requests []*http.Request
	forms    []map[string][]string

	// products maps part number to a status code and JSON body.
	products map[string]fakeResponse
	token    fakeResponse
}

type fakeResponse struct {
	status  int
	body    string
	headers map[string]string
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{products: map[string]fakeResponse{}}
	server := httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(server.Close)
	return api, server
}

func (a *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.requests = append(a.requests, r.Clone(r.Context()))

	var resp fakeResponse
	switch {
	case r.URL.Path == "/"+tokenPath:
		_ = r.ParseForm()
		a.forms = append(a.forms, r.PostForm)
		resp = a.token
	case strings.HasPrefix(r.URL.Path, "/"+searchPath):
		pn := strings.TrimPrefix(r.URL.Path, "/"+searchPath)
		var ok bool
		if resp, ok = a.products[pn]; !ok {
			resp = fakeResponse{status: http.StatusNotFound, body: `{"ErrorMessage":"not found"}`}
		}
	default:
		resp = fakeResponse{status: http.StatusNotFound}
	}

	for k, v := range resp.headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_, _ = w.Write([]byte(resp.body))
}

func (a *fakeAPI) setProduct(pn string, resp fakeResponse) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.products[pn] = resp
}

func (a *fakeAPI) setToken(resp fakeResponse) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = resp
}

func (a *fakeAPI) requestCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

func (a *fakeAPI) lastRequest() *http.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.requests) == 0 {
		return nil
	}
	return a.requests[len(a.requests)-1]
}

func (a *fakeAPI) lastForm() map[string][]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.forms) == 0 {
		return nil
	}
	return a.forms[len(a.forms)-1]
}

// productFixture is a trimmed real response for GRM1555C1H2R2BA01D.
const productFixture = `{
  "ProductDescription": "CAP CER 2.2PF 50V C0G/NP0 0402",
  "DigiKeyPartNumber": "490-3253-1-ND",
  "MediaLinks": [
    {"MediaType": "Datasheets", "Title": "GRM Series", "Url": "https://psearch.en.murata.com/capacitor/product/GRM1555C1H2R2BA01%23.pdf"},
    {"MediaType": "Product Photos", "Title": "0402", "Url": "https://media.digikey.com/photos/0402.jpg"}
  ],
  "Manufacturer": {"ParameterId": -1, "ValueId": "490", "Parameter": "Manufacturer", "Value": "Murata Electronics"},
  "ManufacturerLeadWeeks": "15",
  "QuantityAvailable": 1523456,
  "StandardPricing": [
    {"BreakQuantity": 1, "UnitPrice": 0.1, "TotalPrice": 0.1},
    {"BreakQuantity": 10, "UnitPrice": 0.045, "TotalPrice": 0.45},
    {"BreakQuantity": 100, "UnitPrice": 0.0215, "TotalPrice": 2.15},
    {"BreakQuantity": 1000, "UnitPrice": 0.00831, "TotalPrice": 8.31}
  ],
  "ProductStatus": "Active",
  "ProductUrl": "https://www.digikey.com/product-detail/en/murata-electronics/GRM1555C1H2R2BA01D/490-3253-1-ND/587177"
}`

func okProduct(body string) fakeResponse {
	return fakeResponse{status: http.StatusOK, body: body}
}

func tokenBody(access, refresh string, expiresIn, refreshExpiresIn int) string {
	data, _ := json.Marshal(map[string]any{
		"access_token":             access,
		"refresh_token":            refresh,
		"expires_in":               expiresIn,
		"refresh_token_expires_in": refreshExpiresIn,
		"token_type":               "Bearer",
	})
	return string(data)
}

func testClient(server *httptest.Server, opts ...Option) *Client {
	opts = append([]Option{WithHTTPClient(server.Client())}, opts...)
	return NewClient(server.URL, "client-id", "client-secret", opts...)
}
