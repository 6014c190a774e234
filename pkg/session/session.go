// Package session persists Digikey token pairs between CLI invocations.
//
// A [Session] is one authorized login: the token pair returned by the token
// endpoint plus the application and API it belongs to. Sessions are stored
// under a name derived from the API base URL and client id (see [Key]), so
// sandbox and production logins never overwrite each other.
//
// Backends:
//   - [FileStore]: JSON files under ~/.config/bomcheck/sessions (default)
//   - [RedisStore]: shared storage for several machines or CI runners
//   - [MongoStore]: for setups that already run MongoDB
//   - [MemoryStore]: in-process storage for tests
//
// # Usage
//
//	store, err := session.NewFileStore("")
//	if err != nil {
//	    return err
//	}
//	key := session.Key(client.BaseURL(), client.ClientID())
//	sess, err := store.Get(ctx, key)
//	switch {
//	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrExpired):
//	    // run the authorization flow again
//	case err != nil:
//	    return err
//	}
//	client.SetTokens(sess.Token.AccessToken, sess.Token.RefreshToken)
//
// Token values are stored in clear text; file stores restrict permissions to
// the current user.
package session

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/bomcheck/pkg/digikey"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when no session is stored under a key.
	ErrNotFound = errors.New("session not found")

	// ErrExpired is returned when the stored refresh token has expired.
	// The expired session is removed.
	ErrExpired = errors.New("session expired")
)

// Session stores one authorized token pair.
type Session struct {
	ID        string        `json:"id"`
	Key       string        `json:"key"`
	BaseURL   string        `json:"base_url"`
	ClientID  string        `json:"client_id"`
	Token     digikey.Token `json:"token"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// New creates a session for a fresh login. The ID is a random UUID that
// identifies the login across refreshes.
func New(baseURL, clientID string, tok digikey.Token) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Key:       Key(baseURL, clientID),
		BaseURL:   baseURL,
		ClientID:  clientID,
		Token:     tok,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Update replaces the token pair after a refresh.
func (s *Session) Update(tok digikey.Token) {
	s.Token = tok
	s.UpdatedAt = time.Now()
}

// IsExpired reports whether the refresh token has expired, which makes the
// session unusable. A session without a known refresh expiry never expires.
func (s *Session) IsExpired() bool {
	return s.Token.RefreshExpired(time.Now())
}

// TTL returns how long the session stays usable, or 0 when unbounded.
func (s *Session) TTL() time.Duration {
	if s.Token.RefreshExpiresAt.IsZero() {
		return 0
	}
	if d := time.Until(s.Token.RefreshExpiresAt); d > 0 {
		return d
	}
	return 0
}

// Key derives the storage key for a base URL and client id,
// e.g. "sandbox-api.digikey.com_my-client".
func Key(baseURL, clientID string) string {
	host := baseURL
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		host = u.Host
	}
	return sanitize(host) + "_" + sanitize(clientID)
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves the session stored under key.
	// Returns ErrNotFound if none exists and ErrExpired if it has expired.
	Get(ctx context.Context, key string) (*Session, error)

	// Set stores a session under sess.Key.
	Set(ctx context.Context, sess *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
