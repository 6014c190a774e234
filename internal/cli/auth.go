package cli

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bomcheck/pkg/digikey"
	"github.com/matzehuels/bomcheck/pkg/session"
)

// loginCommand creates the login command.
func (c *CLI) loginCommand() *cobra.Command {
	var (
		listen    bool
		noBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize bomcheck with your Digikey application",
		Long: `Run the OAuth2 authorization code flow against Digikey.

bomcheck prints (and opens) the authorization URL. After signing in, the
browser is redirected to your application's redirect_uri with a one-time
code. Paste that redirect URL back into the terminal, or use --listen to
have bomcheck capture it on a local http redirect_uri such as
http://localhost:8139/callback.

Tokens are stored in the configured session store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.requireCredentials(); err != nil {
				return err
			}
			store, err := c.openStore(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			defer store.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), loginTimeout)
			defer cancel()

			sess, err := c.runLogin(ctx, cfg, store, listen, !noBrowser)
			if err != nil {
				return err
			}
			printSuccess("Logged in to %s", cfg.BaseURL)
			printKeyValue("Session", sess.ID)
			printKeyValue("Expires", describeExpiry(sess.Token.ExpiresAt, time.Now()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&listen, "listen", false, "capture the redirect on a local listener instead of pasting it")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "print the authorization URL without opening a browser")
	return cmd
}

// runLogin walks the user through the authorization flow and stores the
// resulting tokens.
func (c *CLI) runLogin(ctx context.Context, cfg *Config, store session.Store, listen, browser bool) (*session.Session, error) {
	client := c.newClient(cfg)

	redirectURI := cfg.RedirectURI
	var cb *callbackServer
	if listen {
		state := uuid.NewString()
		var err error
		cb, err = newCallbackServer(cfg.RedirectURI, state, c.Logger)
		if err != nil {
			return nil, err
		}
		defer cb.Close()
		redirectURI = cb.RedirectURI()
	}

	authURL := client.AuthorizationURL(redirectURI)
	if cb != nil {
		authURL += "&" + url.Values{"state": {cb.state}}.Encode()
	}

	printNewline()
	fmt.Println(StyleTitle.Render("Digikey Authorization"))
	printNewline()
	printKeyValue("URL", StyleLink.Render(authURL))
	printNewline()

	if !browser {
		printDetail("Open the URL above in your browser")
	} else if err := openBrowser(authURL); err != nil {
		c.Logger.Debug("open browser", "err", err)
		printDetail("Copy the URL above and paste it in your browser")
	} else {
		printDetail("Opening browser...")
	}

	var (
		code string
		err  error
	)
	if cb != nil {
		printInline("Waiting for authorization...")
		code, err = cb.Wait(ctx)
		fmt.Println()
	} else {
		printInline("Paste the URL your browser was redirected to: ")
		code, err = c.awaitCode(ctx, client)
	}
	if err != nil {
		return nil, fmt.Errorf("authorization failed: %w", err)
	}

	spinner := newSpinner(ctx, "Exchanging authorization code...")
	spinner.Start()
	tok, err := client.ExchangeCode(ctx, code, redirectURI)
	spinner.Stop()
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	return saveTokens(ctx, store, cfg, nil, *tok)
}

// awaitCode reads the pasted redirect URL, giving up when ctx is done.
func (c *CLI) awaitCode(ctx context.Context, client *digikey.Client) (string, error) {
	type result struct {
		code string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		code, err := client.AwaitCode(c.in)
		ch <- result{code, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.code, r.err
	}
}

// refreshCommand creates the refresh command.
func (c *CLI) refreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the stored refresh token for a new token pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.requireCredentials(); err != nil {
				return err
			}
			store, err := c.openStore(ctx, cfg)
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			defer store.Close()

			sess, err := loadSession(ctx, store, cfg)
			if err != nil {
				return err
			}

			spinner := newSpinner(ctx, "Refreshing tokens...")
			spinner.Start()
			sess, err = c.refreshSession(ctx, cfg, store, sess)
			if err != nil {
				spinner.StopWithError("Refresh failed")
				return err
			}
			spinner.StopWithSuccess("Tokens refreshed")
			printKeyValue("Expires", describeExpiry(sess.Token.ExpiresAt, time.Now()))
			return nil
		},
	}
}

// refreshSession refreshes sess's tokens and stores the new pair.
func (c *CLI) refreshSession(ctx context.Context, cfg *Config, store session.Store, sess *session.Session) (*session.Session, error) {
	client := c.newClient(cfg, digikey.WithTokens(sess.Token.AccessToken, sess.Token.RefreshToken))
	tok, err := client.RefreshTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh tokens: %w", err)
	}
	return saveTokens(ctx, store, cfg, sess, *tok)
}

// statusCommand creates the status command.
func (c *CLI) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored Digikey login",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store, err := c.openStore(ctx, cfg)
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			defer store.Close()

			sess, err := store.Get(ctx, session.Key(cfg.BaseURL, cfg.ClientID))
			if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrExpired) {
				printWarning("Not logged in")
				printNextStep("Authorize", appName+" login")
				return nil
			}
			if err != nil {
				return fmt.Errorf("get session: %w", err)
			}

			now := time.Now()
			printSuccess("Digikey Session")
			printKeyValue("API", cfg.BaseURL)
			printKeyValue("Client ID", StyleHighlight.Render(cfg.ClientID))
			printKeyValue("Session", sess.ID)
			printKeyValue("Logged in", sess.CreatedAt.Local().Format(time.DateTime))
			printKeyValue("Refreshed", sess.UpdatedAt.Local().Format(time.DateTime))
			printKeyValue("Access", renderExpiry(sess.Token.ExpiresAt, now))
			printKeyValue("Refresh", renderExpiry(sess.Token.RefreshExpiresAt, now))
			if sess.Token.Expired(now) {
				printNextStep("Access token expired, refresh with", appName+" refresh")
			}
			return nil
		},
	}
}

// logoutCommand creates the logout command.
func (c *CLI) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored Digikey tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store, err := c.openStore(ctx, cfg)
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			defer store.Close()

			if err := store.Delete(ctx, session.Key(cfg.BaseURL, cfg.ClientID)); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
			printSuccess("Logged out")
			return nil
		},
	}
}

func openBrowser(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "linux":
		cmd = exec.Command("xdg-open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
