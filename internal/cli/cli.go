// Package cli implements the bomcheck command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bomcheck/pkg/buildinfo"
	"github.com/matzehuels/bomcheck/pkg/digikey"
	"github.com/matzehuels/bomcheck/pkg/observability"
	"github.com/matzehuels/bomcheck/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "bomcheck"

	// requestTimeout bounds every single HTTP request to Digikey.
	requestTimeout = 30 * time.Second

	// loginTimeout bounds the interactive authorization flow.
	loginTimeout = 5 * time.Minute
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	in         io.Reader
	httpClient *http.Client
	stats      *requestStats
}

// New creates a new CLI instance with a default logger and registers its
// request counters as the process-wide HTTP and auth hooks.
func New(w io.Writer, level log.Level) *CLI {
	logger := newLogger(w, level)
	stats := newRequestStats(logger)
	observability.SetHTTPHooks(stats)
	observability.SetAuthHooks(stats)
	return &CLI{
		Logger:     logger,
		in:         os.Stdin,
		httpClient: &http.Client{Timeout: requestTimeout},
		stats:      stats,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "bomcheck looks up BOM parts on Digikey",
		Long: `bomcheck checks parts of a bill of materials against the Digikey API:
stock, lifecycle status, lead time and the 100-unit price.

Authorize once with 'bomcheck login', then look parts up by number or
straight from a CSV BOM with 'bomcheck lookup'.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/bomcheck/config.toml)")

	root.AddCommand(c.loginCommand())
	root.AddCommand(c.refreshCommand())
	root.AddCommand(c.statusCommand())
	root.AddCommand(c.logoutCommand())
	root.AddCommand(c.lookupCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.sessionsCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Client & Store Factories
// =============================================================================

// newClient builds a Digikey client from cfg.
func (c *CLI) newClient(cfg *Config, opts ...digikey.Option) *digikey.Client {
	base := []digikey.Option{
		digikey.WithLogger(c.Logger),
		digikey.WithHTTPClient(c.httpClient),
		digikey.WithLocale(cfg.Locale),
	}
	if cfg.PriceBreak > 0 {
		base = append(base, digikey.WithPriceBreak(cfg.PriceBreak))
	}
	return digikey.NewClient(cfg.BaseURL, cfg.ClientID, cfg.ClientSecret, append(base, opts...)...)
}

// openStore opens the token store selected in cfg.
func (c *CLI) openStore(ctx context.Context, cfg *Config) (session.Store, error) {
	switch cfg.Store.Backend {
	case "", storeFile:
		return session.NewFileStore(cfg.Store.Dir)
	case storeRedis:
		return session.NewRedisStore(ctx, cfg.Store.Redis)
	case storeMongo:
		return session.NewMongoStore(ctx, cfg.Store.Mongo)
	default:
		return nil, fmt.Errorf("unknown store backend %q (want %q, %q or %q)", cfg.Store.Backend, storeFile, storeRedis, storeMongo)
	}
}
