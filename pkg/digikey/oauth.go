package digikey

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	perrors "github.com/matzehuels/bomcheck/pkg/errors"
	"github.com/matzehuels/bomcheck/pkg/httputil"
	"github.com/matzehuels/bomcheck/pkg/observability"
)

// AuthorizationURL returns the browser-facing URL that starts the
// authorization code grant. The client never requests it; a human opens it,
// signs in, and is redirected to redirectURI with a one-time code.
func (c *Client) AuthorizationURL(redirectURI string) string {
	params := url.Values{
		"response_type": {"code"},
		"client_id":     {c.clientID},
		"redirect_uri":  {redirectURI},
	}
	return c.transport.URL(authorizePath) + "?" + params.Encode()
}

// AwaitCode reads one line from r (typically stdin) holding the redirect URL
// the browser landed on, and returns the authorization code in it.
// It blocks until a full line or EOF is read.
func (c *Client) AwaitCode(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", perrors.Wrap(perrors.ErrCodePartSearch, err, "read authorization code")
	}
	code, err := ParseCode(line)
	if err != nil {
		c.logger.Error("no authorization code in input")
		return "", err
	}
	return code, nil
}

// ParseCode extracts the value of the code parameter from a redirect URL or
// a query string fragment such as "code=abc&state=x". Input without a
// "code=" marker, or with an empty code, is a part-search error.
func ParseCode(input string) (string, error) {
	s := strings.TrimSpace(input)
	idx := codeMarker(s)
	if idx < 0 {
		return "", perrors.New(perrors.ErrCodePartSearch, "no code= marker in input")
	}
	code, _, _ := strings.Cut(s[idx+len("code="):], "&")
	code, _, _ = strings.Cut(code, "#")
	// PathUnescape decodes %XX only; a literal '+' is part of the code.
	if unescaped, err := url.PathUnescape(code); err == nil {
		code = unescaped
	}
	if code == "" {
		return "", perrors.New(perrors.ErrCodePartSearch, "empty authorization code")
	}
	return code, nil
}

// codeMarker finds "code=" as a whole parameter name, so "error_code=" or
// "barcode=" do not match.
func codeMarker(s string) int {
	for off := 0; off < len(s); {
		i := strings.Index(s[off:], "code=")
		if i < 0 {
			return -1
		}
		i += off
		if i == 0 || s[i-1] == '?' || s[i-1] == '&' {
			return i
		}
		off = i + 1
	}
	return -1
}

// ExchangeCode trades a one-time authorization code for a token pair.
// On success the pair is stored on the client and returned. A non-200
// response is an auth error carrying the status and body; a transport
// failure is returned unchanged.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*Token, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"redirect_uri":  {redirectURI},
	}
	return c.requestToken(ctx, form, "exchange authorization code")
}

// RefreshTokens obtains a new token pair using the stored refresh token.
// It has the same contract as [Client.ExchangeCode]. Without a stored
// refresh token it fails with an auth error and sends nothing.
func (c *Client) RefreshTokens(ctx context.Context) (*Token, error) {
	if c.token.RefreshToken == "" {
		err := perrors.New(perrors.ErrCodeAuth, "refresh token is empty, authorize first")
		c.logger.Error("cannot refresh", "err", err)
		return nil, err
	}
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {c.token.RefreshToken},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	return c.requestToken(ctx, form, "refresh token")
}

// requestToken posts a token grant and reports the outcome to the
// registered auth hooks.
func (c *Client) requestToken(ctx context.Context, form url.Values, op string) (*Token, error) {
	grant := form.Get("grant_type")
	tok, err := c.postTokenForm(ctx, form, op)
	if err != nil {
		observability.Auth().OnTokenError(ctx, grant, err)
		return nil, err
	}
	var expiresIn time.Duration
	if !tok.ExpiresAt.IsZero() {
		expiresIn = tok.ExpiresAt.Sub(c.now())
	}
	observability.Auth().OnTokenIssued(ctx, grant, expiresIn)
	return tok, nil
}

func (c *Client) postTokenForm(ctx context.Context, form url.Values, op string) (*Token, error) {
	resp, err := c.transport.Post(ctx, tokenPath, form, nil)
	if err != nil {
		return nil, err
	}
	body := httputil.ReadBody(resp)

	if resp.StatusCode != http.StatusOK {
		err := &perrors.Error{
			Code:       perrors.ErrCodeAuth,
			Message:    op,
			StatusCode: resp.StatusCode,
			Body:       body,
		}
		c.logger.Error("token request failed", "op", op, "status", resp.StatusCode)
		return nil, err
	}

	var data tokenResponse
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodePartSearch, err, "%s: decode token response", op)
	}
	if data.AccessToken == "" {
		return nil, &perrors.Error{
			Code:       perrors.ErrCodeAuth,
			Message:    op + ": response carries no access token",
			StatusCode: resp.StatusCode,
			Body:       body,
		}
	}

	now := c.now()
	tok := Token{
		AccessToken:  data.AccessToken,
		RefreshToken: data.RefreshToken,
	}
	if data.ExpiresIn > 0 {
		tok.ExpiresAt = now.Add(time.Duration(data.ExpiresIn) * time.Second)
	}
	if data.RefreshTokenExpiresIn > 0 {
		tok.RefreshExpiresAt = now.Add(time.Duration(data.RefreshTokenExpiresIn) * time.Second)
	}
	// A refresh response may omit the refresh token; the old one stays valid.
	if tok.RefreshToken == "" && form.Get("grant_type") == "refresh_token" {
		tok.RefreshToken = c.token.RefreshToken
		tok.RefreshExpiresAt = c.token.RefreshExpiresAt
	}
	c.token = tok

	c.logger.Info("obtained tokens", "op", op, "expires_in", data.ExpiresIn, "refresh_expires_in", data.RefreshTokenExpiresIn)
	out := tok
	return &out, nil
}
