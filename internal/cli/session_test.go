package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/bomcheck/pkg/digikey"
	"github.com/matzehuels/bomcheck/pkg/session"
)

func TestDescribeExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"zero", time.Time{}, "unknown"},
		{"past", now.Add(-time.Minute), "expired"},
		{"now", now, "expired"},
		{"future", now.Add(90 * time.Second), "(in 1m30s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeExpiry(tt.at, now); !strings.Contains(got, tt.want) {
				t.Errorf("describeExpiry() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestLoadSession(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	cfg := defaultConfig()
	cfg.ClientID = "id"

	if _, err := loadSession(ctx, store, cfg); err == nil || !strings.Contains(err.Error(), "login") {
		t.Errorf("loadSession() error = %v, want login hint", err)
	}

	expired := session.New(cfg.BaseURL, cfg.ClientID, digikey.Token{
		AccessToken:      "a",
		RefreshToken:     "r",
		RefreshExpiresAt: time.Now().Add(-time.Hour),
	})
	_ = store.Set(ctx, expired)
	if _, err := loadSession(ctx, store, cfg); err == nil || !strings.Contains(err.Error(), "expired") {
		t.Errorf("loadSession() error = %v, want expiry hint", err)
	}
}

func TestSaveTokens(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	cfg := defaultConfig()
	cfg.ClientID = "id"

	sess, err := saveTokens(ctx, store, cfg, nil, digikey.Token{AccessToken: "a1", RefreshToken: "r1"})
	if err != nil {
		t.Fatalf("saveTokens() error: %v", err)
	}
	if sess.Key != session.Key(cfg.BaseURL, cfg.ClientID) {
		t.Errorf("Key = %q", sess.Key)
	}

	updated, err := saveTokens(ctx, store, cfg, sess, digikey.Token{AccessToken: "a2", RefreshToken: "r2"})
	if err != nil {
		t.Fatalf("saveTokens() error: %v", err)
	}
	if updated.ID != sess.ID {
		t.Error("update should keep the session ID")
	}

	got, err := loadSession(ctx, store, cfg)
	if err != nil {
		t.Fatalf("loadSession() error: %v", err)
	}
	if got.Token.AccessToken != "a2" {
		t.Errorf("AccessToken = %q, want a2", got.Token.AccessToken)
	}
}

func TestOtherApplicationSessionIsolated(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()

	sandbox := defaultConfig()
	sandbox.ClientID = "id"
	production := defaultConfig()
	production.ClientID = "id"
	production.BaseURL = digikey.ProductionURL

	if _, err := saveTokens(ctx, store, sandbox, nil, digikey.Token{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatal(err)
	}
	if _, err := loadSession(ctx, store, production); err == nil {
		t.Error("production should not see the sandbox login")
	}
}
