package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bomcheck/pkg/digikey"
	perrors "github.com/matzehuels/bomcheck/pkg/errors"
	"github.com/matzehuels/bomcheck/pkg/httputil"
	"github.com/matzehuels/bomcheck/pkg/part"
	"github.com/matzehuels/bomcheck/pkg/session"
)

// defaultRetryDelay is the first backoff delay when Digikey gives no
// Retry-After hint.
const defaultRetryDelay = 2 * time.Second

// lookupOptions holds the lookup command flags.
type lookupOptions struct {
	bom        string
	column     string
	json       bool
	retries    int
	priceBreak int
	pickColumn bool
}

// lookupCommand creates the lookup command.
func (c *CLI) lookupCommand() *cobra.Command {
	var opts lookupOptions

	cmd := &cobra.Command{
		Use:   "lookup [PART...]",
		Short: "Look up parts on Digikey",
		Long: `Look up parts by number, or every part listed in a CSV BOM.

The lookup is all or nothing: if any part fails, nothing is printed. An
expired access token is refreshed once and the lookup repeated; rate
limited lookups are retried after the delay Digikey asks for.`,
		Example: `  bomcheck lookup GRM1555C1H2R2BA01D LM317T
  bomcheck lookup --bom board.csv --column "MPN" --json
  bomcheck lookup --bom board.csv --pick-column`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLookup(cmd.Context(), cmd.OutOrStdout(), args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.bom, "bom", "", "CSV bill of materials to read part numbers from")
	cmd.Flags().StringVar(&opts.column, "column", defaultBOMColumn, "BOM column holding part numbers")
	cmd.Flags().BoolVar(&opts.pickColumn, "pick-column", false, "choose the part number column from the BOM header interactively")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print results as JSON")
	cmd.Flags().IntVar(&opts.retries, "retries", 3, "attempts per lookup when rate limited")
	cmd.Flags().IntVar(&opts.priceBreak, "price-break", 0, "read the unit price at this break quantity instead of the third tier")
	registerLookupCompletions(cmd)
	return cmd
}

func (c *CLI) runLookup(ctx context.Context, w io.Writer, args []string, opts lookupOptions) error {
	if opts.pickColumn && opts.bom == "" {
		return fmt.Errorf("--pick-column needs a BOM file (--bom)")
	}
	if opts.priceBreak < 0 {
		return fmt.Errorf("--price-break must not be negative, got %d", opts.priceBreak)
	}
	if opts.pickColumn {
		col, err := c.pickBOMColumn(opts.bom, opts.column)
		if err != nil {
			return err
		}
		c.Logger.Debug("selected BOM column", "column", col)
		opts.column = col
	}

	parts, err := collectParts(args, opts)
	if err != nil {
		return err
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.priceBreak > 0 {
		cfg.PriceBreak = opts.priceBreak
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

	c.stats.reset()
	spinner := newSpinner(ctx, fmt.Sprintf("Looking up %d parts...", len(parts))).withStatus(c.stats.progress)
	spinner.Start()
	p := newProgress(c.Logger, len(parts))
	infos, err := c.lookupParts(ctx, cfg, store, sess, parts, opts.retries)
	spinner.Stop()
	if err != nil {
		return err
	}
	p.done(c.stats.summary())

	if opts.json {
		return writeJSON(w, infos)
	}
	return writeTable(w, infos)
}

// collectParts merges part arguments with the BOM column and validates them.
func collectParts(args []string, opts lookupOptions) ([]string, error) {
	parts := make([]string, 0, len(args))
	for _, pn := range args {
		if err := perrors.ValidatePartNumber(pn); err != nil {
			return nil, err
		}
		parts = append(parts, pn)
	}
	if opts.bom != "" {
		bom, err := readBOMFile(opts.bom, opts.column)
		if err != nil {
			return nil, err
		}
		parts = append(parts, bom...)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("no part numbers given (pass them as arguments or use --bom)")
	}
	return parts, nil
}

// lookupParts runs the lookup with caller-side recovery: a known-expired
// access token is refreshed up front, an UNAUTHORIZED answer triggers one
// refresh and a repeat, and RATE_LIMITED answers are retried with the
// server's Retry-After delay. Refreshed tokens are saved to store.
func (c *CLI) lookupParts(ctx context.Context, cfg *Config, store session.Store, sess *session.Session, parts []string, retries int) ([]part.Info, error) {
	if sess.Token.Expired(time.Now()) {
		c.Logger.Debug("access token expired, refreshing before lookup")
		var err error
		if sess, err = c.refreshSession(ctx, cfg, store, sess); err != nil {
			return nil, err
		}
	}

	client := c.newClient(cfg, digikey.WithTokens(sess.Token.AccessToken, sess.Token.RefreshToken))
	infos, err := lookupWithRetry(ctx, client, parts, retries)
	if !perrors.IsAuth(err) {
		return infos, err
	}

	c.Logger.Info("access token rejected, refreshing", "status", statusOf(err))
	tok, rerr := client.RefreshTokens(ctx)
	if rerr != nil {
		return nil, fmt.Errorf("refresh after rejected token: %w", rerr)
	}
	if _, serr := saveTokens(ctx, store, cfg, sess, *tok); serr != nil {
		return nil, serr
	}
	return lookupWithRetry(ctx, client, parts, retries)
}

// lookupWithRetry retries rate-limited lookups only.
func lookupWithRetry(ctx context.Context, s part.Searcher, parts []string, attempts int) ([]part.Info, error) {
	var infos []part.Info
	err := httputil.Retry(ctx, attempts, defaultRetryDelay, func() error {
		var err error
		infos, err = s.LookupByPartNumbers(ctx, parts)
		if perrors.IsRateLimit(err) {
			return httputil.Retryable(err, perrors.RetryAfter(err))
		}
		return err
	})
	if err != nil {
		return nil, unwrapRetryable(err)
	}
	return infos, nil
}

// unwrapRetryable strips the retry marker so callers see the lookup error.
func unwrapRetryable(err error) error {
	var re *httputil.RetryableError
	if errors.As(err, &re) {
		return re.Err
	}
	return err
}

func statusOf(err error) int {
	var e *perrors.Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// =============================================================================
// Output
// =============================================================================

func writeJSON(w io.Writer, infos []part.Info) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(infos)
}

func writeTable(w io.Writer, infos []part.Info) error {
	table := uitable.New()
	table.MaxColWidth = 40
	table.Separator = "  "
	table.AddRow("PART", "MANUFACTURER", "DESCRIPTION", "STOCK", "UNIT PRICE", "LEAD (WK)", "STATUS")
	for _, i := range infos {
		table.AddRow(i.PartNumber, i.Manufacturer, i.Name, i.Quantity, i.UnitPrice.String(), i.LeadTime, i.LifeCycle)
	}
	_, err := fmt.Fprintln(w, table)
	return err
}
