package digikey

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bomcheck/pkg/httputil"
	"github.com/matzehuels/bomcheck/pkg/part"
)

const (
	// ProductionURL is the base URL of the Digikey production API.
	ProductionURL = "https://api.digikey.com/"

	// SandboxURL is the base URL of the Digikey sandbox API.
	SandboxURL = "https://sandbox-api.digikey.com/"

	// Distributor is the value written to part.Info.Distributor.
	Distributor = "DigiKey"
)

const (
	authorizePath = "v1/oauth2/authorize"
	tokenPath     = "v1/oauth2/token"
	searchPath    = "Search/v3/Products/"
)

// Locale selects the site, language and currency Digikey answers in.
type Locale struct {
	Site     string `toml:"site"`
	Language string `toml:"language"`
	Currency string `toml:"currency"`
}

// DefaultLocale returns the US/en/USD locale.
func DefaultLocale() Locale {
	return Locale{Site: "US", Language: "en", Currency: "USD"}
}

// Client talks to the Digikey API on behalf of one registered application.
//
// A Client owns its credentials and tokens. Only [Client.ExchangeCode],
// [Client.RefreshTokens] and [Client.SetTokens] change the tokens. Clients
// do not persist tokens; use [Client.Tokens] to snapshot them.
//
// A Client is meant for one logical caller and is not safe for concurrent use.
type Client struct {
	transport *httputil.Transport
	logger    *log.Logger
	now       func() time.Time

	clientID     string
	clientSecret string
	token        Token

	locale     Locale
	priceBreak int

	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithLogger injects the logger used for request and token logging.
// Without it the client logs nothing.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient replaces the *http.Client used for all requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokens restores a previously obtained token pair.
func WithTokens(access, refresh string) Option {
	return func(c *Client) {
		c.token.AccessToken = access
		c.token.RefreshToken = refresh
	}
}

// WithLocale overrides the default US/en/USD locale.
// Empty fields keep their defaults.
func WithLocale(l Locale) Option {
	return func(c *Client) {
		if l.Site != "" {
			c.locale.Site = l.Site
		}
		if l.Language != "" {
			c.locale.Language = l.Language
		}
		if l.Currency != "" {
			c.locale.Currency = l.Currency
		}
	}
}

// WithPriceBreak makes lookups read the unit price from the tier whose
// BreakQuantity equals qty instead of the third tier. A lookup fails with a
// part-search error when no tier matches.
func WithPriceBreak(qty int) Option {
	return func(c *Client) { c.priceBreak = qty }
}

// NewClient creates a Client for the API at baseURL.
// baseURL may omit the trailing slash.
func NewClient(baseURL, clientID, clientSecret string, opts ...Option) *Client {
	c := &Client{
		now:          time.Now,
		clientID:     clientID,
		clientSecret: clientSecret,
		locale:       DefaultLocale(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}

	var topts []httputil.Option
	if c.httpClient != nil {
		topts = append(topts, httputil.WithHTTPClient(c.httpClient))
	}
	c.transport = httputil.NewTransport(baseURL, c.logger, topts...)
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.transport.BaseURL() }

// ClientID returns the application client id.
func (c *Client) ClientID() string { return c.clientID }

// Locale returns the locale sent with every lookup.
func (c *Client) Locale() Locale { return c.locale }

// Tokens returns a snapshot of the current token pair.
func (c *Client) Tokens() Token { return c.token }

// SetTokens replaces the token pair, clearing any known expiry.
func (c *Client) SetTokens(access, refresh string) {
	c.token = Token{AccessToken: access, RefreshToken: refresh}
}

// HasToken reports whether an access token is present.
func (c *Client) HasToken() bool { return c.token.AccessToken != "" }

var _ part.Searcher = (*Client)(nil)
