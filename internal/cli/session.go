package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bomcheck/pkg/digikey"
	"github.com/matzehuels/bomcheck/pkg/session"
)

// =============================================================================
// Session Management
// =============================================================================

// loadSession loads the stored login for cfg's application.
func loadSession(ctx context.Context, store session.Store, cfg *Config) (*session.Session, error) {
	sess, err := store.Get(ctx, session.Key(cfg.BaseURL, cfg.ClientID))
	switch {
	case errors.Is(err, session.ErrNotFound):
		return nil, fmt.Errorf("not logged in (run '%s login' first)", appName)
	case errors.Is(err, session.ErrExpired):
		return nil, fmt.Errorf("session expired (run '%s login' again)", appName)
	case err != nil:
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// saveTokens persists tok into sess, creating a session when sess is nil.
func saveTokens(ctx context.Context, store session.Store, cfg *Config, sess *session.Session, tok digikey.Token) (*session.Session, error) {
	if sess == nil {
		sess = session.New(cfg.BaseURL, cfg.ClientID, tok)
	} else {
		sess.Update(tok)
	}
	if err := store.Set(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// describeExpiry renders a token deadline for status output.
func describeExpiry(at time.Time, now time.Time) string {
	switch {
	case at.IsZero():
		return "unknown"
	case !now.Before(at):
		return "expired " + at.Local().Format(time.DateTime)
	default:
		return fmt.Sprintf("%s (in %s)", at.Local().Format(time.DateTime), at.Sub(now).Round(time.Second))
	}
}

// renderExpiry styles describeExpiry's output by state.
func renderExpiry(at time.Time, now time.Time) string {
	s := describeExpiry(at, now)
	switch {
	case at.IsZero():
		return StyleDim.Render(s)
	case !now.Before(at):
		return StyleWarning.Render(s)
	default:
		return StyleSuccess.Render(s)
	}
}

// =============================================================================
// Commands
// =============================================================================

// sessionsCommand creates the token store management command.
func (c *CLI) sessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage stored Digikey tokens",
	}

	cmd.AddCommand(c.sessionsPruneCommand())
	cmd.AddCommand(c.sessionsPathCommand())

	return cmd
}

// sessionsPruneCommand creates the "sessions prune" subcommand.
func (c *CLI) sessionsPruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove stored sessions whose refresh token has expired",
		Long: `Remove stored sessions whose refresh token has expired.

Only the file store keeps expired sessions around; Redis and MongoDB expire
them on their own.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			switch cfg.Store.Backend {
			case storeRedis:
				printInfo("Redis expires sessions automatically")
				return nil
			case storeMongo:
				printInfo("MongoDB expires sessions through a TTL index")
				return nil
			}

			store, err := session.NewFileStore(cfg.Store.Dir)
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			removed, err := store.Cleanup(cmd.Context())
			if err != nil {
				return err
			}
			printSuccess("Removed %s expired sessions", StyleNumber.Render(fmt.Sprint(removed)))
			printDetail("Directory: %s", store.Dir())
			return nil
		},
	}
}

// sessionsPathCommand creates the "sessions path" subcommand.
func (c *CLI) sessionsPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the session for the configured application is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			key := session.Key(cfg.BaseURL, cfg.ClientID)
			switch cfg.Store.Backend {
			case storeRedis:
				fmt.Fprintf(cmd.OutOrStdout(), "redis://%s/%d %s%s\n", cfg.Store.Redis.Addr, cfg.Store.Redis.DB,
					redisPrefix(cfg), key)
				return nil
			case storeMongo:
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s.%s _id=%s\n", redactURI(cfg.Store.Mongo.URI),
					orDefault(cfg.Store.Mongo.Database, session.DefaultMongoDatabase),
					orDefault(cfg.Store.Mongo.Collection, session.DefaultMongoCollection), key)
				return nil
			}
			store, err := session.NewFileStore(cfg.Store.Dir)
			if err != nil {
				return fmt.Errorf("open session store: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.Path(key))
			return nil
		},
	}
}

func redisPrefix(cfg *Config) string {
	if cfg.Store.Redis.Prefix != "" {
		return cfg.Store.Redis.Prefix
	}
	return session.DefaultRedisPrefix
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
