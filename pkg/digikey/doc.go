// Package digikey provides an HTTP client for the Digikey Product Search API.
//
// # Overview
//
// The client looks up parts by number and normalizes each product into a
// [part.Info]. It also drives the OAuth2 authorization code grant Digikey
// requires: building the authorization URL, reading the one-time code back
// from the user, exchanging it for a token pair, and refreshing that pair.
//
// # Usage
//
//	c := digikey.NewClient(digikey.SandboxURL, clientID, clientSecret,
//	    digikey.WithLogger(logger))
//
//	fmt.Println("Open:", c.AuthorizationURL("https://localhost"))
//	code, err := c.AwaitCode(os.Stdin)
//	if err != nil {
//	    return err
//	}
//	if _, err := c.ExchangeCode(ctx, code, "https://localhost"); err != nil {
//	    return err
//	}
//
//	infos, err := c.LookupByPartNumbers(ctx, []string{"GRM1555C1H2R2BA01D"})
//
// # Tokens
//
// Access tokens live about 30 minutes, refresh tokens about 90 days. The
// client keeps the current pair in memory only; callers persist it with
// [Client.Tokens] and restore it with [WithTokens] or [Client.SetTokens].
//
// # Errors and Retries
//
// Lookups never retry. Failures are classified into the taxonomy of
// [errors] so the caller decides:
//
//	infos, err := c.LookupByPartNumbers(ctx, parts)
//	if errors.IsAuth(err) {
//	    if _, err := c.RefreshTokens(ctx); err != nil {
//	        return err
//	    }
//	    infos, err = c.LookupByPartNumbers(ctx, parts)
//	}
//
// Network failures are returned unchanged and are not part of the taxonomy.
//
// # Unit Price
//
// The unit price is read from the third StandardPricing tier, which is the
// 100-unit break for cut-tape parts. Products that price in other steps
// (reels, minimum order quantities) report a different break at that
// position. [WithPriceBreak] selects the tier by BreakQuantity instead.
//
// [errors]: github.com/matzehuels/bomcheck/pkg/errors
package digikey
