package digikey

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	perrors "github.com/matzehuels/bomcheck/pkg/errors"
	"github.com/matzehuels/bomcheck/pkg/part"
)

func TestLookupWithoutToken(t *testing.T) {
	api, server := newFakeAPI(t)
	api.setProduct("A", okProduct(productFixture))

	infos, err := testClient(server).LookupByPartNumbers(context.Background(), []string{"A"})
	if infos != nil {
		t.Errorf("LookupByPartNumbers() = %v, want nil", infos)
	}
	if !perrors.IsAuth(err) {
		t.Errorf("error = %v, want auth error", err)
	}
	if api.requestCount() != 0 {
		t.Errorf("sent %d requests, want none", api.requestCount())
	}
}

func TestLookupFieldMapping(t *testing.T) {
	api, server := newFakeAPI(t)
	api.setProduct("GRM1555C1H2R2BA01D", okProduct(productFixture))

	c := testClient(server, WithTokens("tok", "ref"))
	infos, err := c.LookupByPartNumbers(context.Background(), []string{"GRM1555C1H2R2BA01D"})
	if err != nil {
		t.Fatalf("LookupByPartNumbers() error: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("got %d results, want 1", len(infos))
	}

	want := part.Info{
		Name:         "CAP CER 2.2PF 50V C0G/NP0 0402",
		PartNumber:   "490-3253-1-ND",
		Distributor:  "DigiKey",
		Manufacturer: "Murata Electronics",
		LeadTime:     "15",
		Quantity:     1523456,
		UnitPrice:    decimal.RequireFromString("0.0215"),
		LifeCycle:    "Active",
		URL:          "https://www.digikey.com/product-detail/en/murata-electronics/GRM1555C1H2R2BA01D/490-3253-1-ND/587177",
		DatasheetURL: "https://psearch.en.murata.com/capacitor/product/GRM1555C1H2R2BA01%23.pdf",
	}
	if !infos[0].Equal(want) {
		t.Errorf("got  %+v\nwant %+v", infos[0], want)
	}
}

func TestLookupRequestShape(t *testing.T) {
	api, server := newFakeAPI(t)
	api.setProduct("P 5555#ND", okProduct(productFixture))

	c := testClient(server,
		WithTokens("tok", "ref"),
		WithLocale(Locale{Site: "DE", Language: "de", Currency: "EUR"}),
	)
	if _, err := c.LookupByPartNumbers(context.Background(), []string{"P 5555#ND"}); err != nil {
		t.Fatalf("LookupByPartNumbers() error: %v", err)
	}

	req := api.lastRequest()
	if req.Method != http.MethodGet {
		t.Errorf("method = %s, want GET", req.Method)
	}
	if req.URL.Path != "/Search/v3/Products/P 5555#ND" {
		t.Errorf("path = %q", req.URL.Path)
	}
	if req.Header.Get("X-DIGIKEY-Client-Id") != "client-id" {
		t.Errorf("X-DIGIKEY-Client-Id = %q", req.Header.Get("X-DIGIKEY-Client-Id"))
	}
	if req.Header.Get("Authorization") != "Bearer tok" {
		t.Errorf("Authorization = %q", req.Header.Get("Authorization"))
	}

	q := req.URL.Query()
	if got := q.Get("includes"); got != strings.Join(includeFields, ",") {
		t.Errorf("includes = %q", got)
	}
	for _, f := range []string{"ProductDescription", "DigiKeyPartNumber", "MediaLinks", "Manufacturer",
		"ManufacturerLeadWeeks", "QuantityAvailable", "StandardPricing", "ProductStatus", "ProductUrl"} {
		if !strings.Contains(q.Get("includes"), f) {
			t.Errorf("includes missing %s", f)
		}
	}
	locale := map[string]string{
		"X-DIGIKEY-Locale-Site":     "DE",
		"X-DIGIKEY-Locale-Language": "de",
		"X-DIGIKEY-Locale-Currency": "EUR",
	}
	for k, v := range locale {
		if q.Get(k) != v {
			t.Errorf("%s = %q, want %q", k, q.Get(k), v)
		}
	}
}

func TestLookupStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		code   perrors.Code
	}{
		{http.StatusBadRequest, perrors.ErrCodeBadRequest},
		{http.StatusUnauthorized, perrors.ErrCodeAuth},
		{http.StatusForbidden, perrors.ErrCodeAuth},
		{http.StatusNotFound, perrors.ErrCodeConnection},
		{http.StatusTooManyRequests, perrors.ErrCodeRateLimited},
		{http.StatusServiceUnavailable, perrors.ErrCodeConnection},
		{http.StatusInternalServerError, perrors.ErrCodePartSearch},
		{http.StatusConflict, perrors.ErrCodePartSearch},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			api, server := newFakeAPI(t)
			api.setProduct("X", fakeResponse{status: tt.status, body: `{"ErrorMessage":"boom"}`})

			c := testClient(server, WithTokens("tok", "ref"))
			infos, err := c.LookupByPartNumbers(context.Background(), []string{"X"})
			if infos != nil {
				t.Errorf("results = %v, want nil", infos)
			}
			if got := perrors.GetCode(err); got != tt.code {
				t.Fatalf("code = %v, want %v (err %v)", got, tt.code, err)
			}
			var pe *perrors.Error
			if !errors.As(err, &pe) {
				t.Fatalf("error = %T, want *errors.Error", err)
			}
			if pe.StatusCode != tt.status || !strings.Contains(pe.Body, "boom") {
				t.Errorf("error should carry status and body: %+v", pe)
			}
		})
	}
}

func TestLookupAllOrNothing(t *testing.T) {
	api, server := newFakeAPI(t)
	api.setProduct("A", okProduct(productFixture))
	// B is unknown to the fake and answers 404.

	c := testClient(server, WithTokens("tok", "ref"))
	infos, err := c.LookupByPartNumbers(context.Background(), []string{"A", "B"})
	if infos != nil {
		t.Errorf("results = %v, want nil even though A succeeded", infos)
	}
	if !perrors.IsConnection(err) {
		t.Errorf("error = %v, want connection error", err)
	}
	if api.requestCount() != 2 {
		t.Errorf("sent %d requests, want 2", api.requestCount())
	}
}

func TestLookupStopsAtFirstFailure(t *testing.T) {
	api, server := newFakeAPI(t)
	api.setProduct("A", fakeResponse{status: http.StatusUnauthorized})
	api.setProduct("B", okProduct(productFixture))

	c := testClient(server, WithTokens("tok", "ref"))
	if _, err := c.LookupByPartNumbers(context.Background(), []string{"A", "B"}); !perrors.IsAuth(err) {
		t.Errorf("error = %v, want auth error", err)
	}
	if api.requestCount() != 1 {
		t.Errorf("sent %d requests, want 1", api.requestCount())
	}
}

func TestLookupOrderPreserved(t *testing.T) {
	api, server := newFakeAPI(t)
	api.setProduct("A", okProduct(strings.Replace(productFixture, "490-3253-1-ND", "A-ND", 1)))
	api.setProduct("B", okProduct(strings.Replace(productFixture, "490-3253-1-ND", "B-ND", 1)))

	c := testClient(server, WithTokens("tok", "ref"))
	infos, err := c.LookupByPartNumbers(context.Background(), []string{"B", "A", "B"})
	if err != nil {
		t.Fatalf("LookupByPartNumbers() error: %v", err)
	}
	var got []string
	for _, i := range infos {
		got = append(got, i.PartNumber)
	}
	if strings.Join(got, ",") != "B-ND,A-ND,B-ND" {
		t.Errorf("order = %v", got)
	}
}

func TestLookupEmptyInput(t *testing.T) {
	api, server := newFakeAPI(t)

	infos, err := testClient(server, WithTokens("tok", "ref")).LookupByPartNumbers(context.Background(), nil)
	if err != nil {
		t.Fatalf("LookupByPartNumbers(nil) error: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("got %d results, want 0", len(infos))
	}
	if api.requestCount() != 0 {
		t.Errorf("sent %d requests, want none", api.requestCount())
	}
}

func TestLookupRetryAfter(t *testing.T) {
	api, server := newFakeAPI(t)
	api.setProduct("X", fakeResponse{
		status:  http.StatusTooManyRequests,
		headers: map[string]string{"Retry-After": "42"},
	})

	_, err := testClient(server, WithTokens("tok", "ref")).LookupByPartNumbers(context.Background(), []string{"X"})
	if !perrors.IsRateLimit(err) {
		t.Fatalf("error = %v, want rate-limit error", err)
	}
	if got := perrors.RetryAfter(err); got != 42*time.Second {
		t.Errorf("RetryAfter = %v, want 42s", got)
	}
}

func TestLookupBaseURLNormalization(t *testing.T) {
	api, server := newFakeAPI(t)
	api.setProduct("A", okProduct(productFixture))

	var paths []string
	for _, base := range []string{server.URL, server.URL + "/"} {
		c := NewClient(base, "client-id", "client-secret",
			WithHTTPClient(server.Client()), WithTokens("tok", "ref"))
		if _, err := c.LookupByPartNumbers(context.Background(), []string{"A"}); err != nil {
			t.Fatalf("base %q: %v", base, err)
		}
		paths = append(paths, api.lastRequest().URL.String())
	}
	if paths[0] != paths[1] {
		t.Errorf("request URLs differ: %q vs %q", paths[0], paths[1])
	}
}

func TestLookupPriceTiers(t *testing.T) {
	reordered := strings.Replace(productFixture,
		`{"BreakQuantity": 1, "UnitPrice": 0.1, "TotalPrice": 0.1},`, "", 1)
	reordered = strings.Replace(reordered,
		`{"BreakQuantity": 1000, "UnitPrice": 0.00831, "TotalPrice": 8.31}`,
		`{"BreakQuantity": 1000, "UnitPrice": 0.00831, "TotalPrice": 8.31}, {"BreakQuantity": 1, "UnitPrice": 0.1, "TotalPrice": 0.1}`, 1)

	twoTiers := strings.Replace(productFixture,
		`{"BreakQuantity": 100, "UnitPrice": 0.0215, "TotalPrice": 2.15},
    {"BreakQuantity": 1000, "UnitPrice": 0.00831, "TotalPrice": 8.31}`,
		`{"BreakQuantity": 100, "UnitPrice": 0.0215, "TotalPrice": 2.15}`, 1)
	twoTiers = strings.Replace(twoTiers,
		`{"BreakQuantity": 1, "UnitPrice": 0.1, "TotalPrice": 0.1},`, "", 1)

	tests := []struct {
		name       string
		body       string
		priceBreak int
		want       string
		wantErr    bool
	}{
		{"positional", productFixture, 0, "0.0215", false},
		{"positional follows position", reordered, 0, "0.00831", false},
		{"by break quantity", reordered, 100, "0.0215", false},
		{"too few tiers", twoTiers, 0, "", true},
		{"break missing", productFixture, 250, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, server := newFakeAPI(t)
			api.setProduct("X", okProduct(tt.body))

			opts := []Option{WithTokens("tok", "ref")}
			if tt.priceBreak > 0 {
				opts = append(opts, WithPriceBreak(tt.priceBreak))
			}
			infos, err := testClient(server, opts...).LookupByPartNumbers(context.Background(), []string{"X"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if perrors.GetCode(err) != perrors.ErrCodePartSearch {
					t.Errorf("code = %v, want PART_SEARCH", perrors.GetCode(err))
				}
				return
			}
			if got := infos[0].UnitPrice.String(); got != tt.want {
				t.Errorf("UnitPrice = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLookupMissingMediaLinks(t *testing.T) {
	body := productFixture[:strings.Index(productFixture, `"MediaLinks"`)] +
		productFixture[strings.Index(productFixture, `"Manufacturer"`):]

	api, server := newFakeAPI(t)
	api.setProduct("X", okProduct(body))

	infos, err := testClient(server, WithTokens("tok", "ref")).LookupByPartNumbers(context.Background(), []string{"X"})
	if err != nil {
		t.Fatalf("LookupByPartNumbers() error: %v", err)
	}
	if infos[0].DatasheetURL != "" {
		t.Errorf("DatasheetURL = %q, want empty", infos[0].DatasheetURL)
	}
}

func TestLookupNumericLeadWeeks(t *testing.T) {
	body := strings.Replace(productFixture, `"ManufacturerLeadWeeks": "15"`, `"ManufacturerLeadWeeks": 15`, 1)

	api, server := newFakeAPI(t)
	api.setProduct("X", okProduct(body))

	infos, err := testClient(server, WithTokens("tok", "ref")).LookupByPartNumbers(context.Background(), []string{"X"})
	if err != nil {
		t.Fatalf("LookupByPartNumbers() error: %v", err)
	}
	if infos[0].LeadTime != "15" {
		t.Errorf("LeadTime = %q, want %q", infos[0].LeadTime, "15")
	}
}

func TestLookupMalformedBody(t *testing.T) {
	api, server := newFakeAPI(t)
	api.setProduct("X", okProduct(`{"ProductDescription": `))

	_, err := testClient(server, WithTokens("tok", "ref")).LookupByPartNumbers(context.Background(), []string{"X"})
	if perrors.GetCode(err) != perrors.ErrCodePartSearch {
		t.Errorf("error = %v, want PART_SEARCH", err)
	}
}

func TestLookupTransportError(t *testing.T) {
	_, server := newFakeAPI(t)
	c := testClient(server, WithTokens("tok", "ref"))
	server.Close()

	_, err := c.LookupByPartNumbers(context.Background(), []string{"X"})
	if err == nil {
		t.Fatal("expected transport error")
	}
	if perrors.IsPartSearch(err) {
		t.Errorf("transport error must not be classified: %v", err)
	}
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		t.Errorf("error = %T, want *url.Error", err)
	}
}

func TestCallerRefreshAndRetry(t *testing.T) {
	api, server := newFakeAPI(t)
	api.setProduct("A", fakeResponse{status: http.StatusUnauthorized})
	api.setToken(fakeResponse{status: http.StatusOK, body: tokenBody("fresh", "fresh-refresh", 1799, 0)})

	c := testClient(server, WithTokens("expired", "ref"))
	ctx := context.Background()

	_, err := c.LookupByPartNumbers(ctx, []string{"A"})
	if !perrors.IsAuth(err) {
		t.Fatalf("first call error = %v, want auth error", err)
	}
	if _, err := c.RefreshTokens(ctx); err != nil {
		t.Fatalf("RefreshTokens() error: %v", err)
	}

	api.setProduct("A", okProduct(productFixture))

	infos, err := c.LookupByPartNumbers(ctx, []string{"A"})
	if err != nil {
		t.Fatalf("retry error: %v", err)
	}
	if len(infos) != 1 {
		t.Errorf("got %d results, want 1", len(infos))
	}
	if api.lastRequest().Header.Get("Authorization") != "Bearer fresh" {
		t.Error("retry should use the refreshed token")
	}
}
