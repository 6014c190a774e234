package digikey

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	perrors "github.com/matzehuels/bomcheck/pkg/errors"
	"github.com/matzehuels/bomcheck/pkg/httputil"
	"github.com/matzehuels/bomcheck/pkg/part"
)

// includeFields limits the product payload to what part.Info needs.
var includeFields = []string{
	"ProductDescription",
	"DigiKeyPartNumber",
	"MediaLinks",
	"Manufacturer",
	"ManufacturerLeadWeeks",
	"QuantityAvailable",
	"StandardPricing",
	"ProductStatus",
	"ProductUrl",
}

// priceTierIndex is the position of the 100-unit break in StandardPricing
// for cut-tape parts (1, 10, 100, ...).
const priceTierIndex = 2

// LookupByPartNumbers fetches one part.Info per part number, in input order.
//
// It issues one GET per number, sequentially. The lookup is all or nothing:
// the first failure aborts the call and no results are returned. Status
// codes map to the error taxonomy as follows:
//
//	400        BAD_REQUEST
//	401, 403   UNAUTHORIZED
//	404, 503   CONNECTION
//	429        RATE_LIMITED (RetryAfter set from the Retry-After header)
//	other      PART_SEARCH
//
// Without an access token it fails with UNAUTHORIZED before any request.
// Nothing is retried here: on UNAUTHORIZED callers may [Client.RefreshTokens]
// and call again; on RATE_LIMITED they may wait and call again.
func (c *Client) LookupByPartNumbers(ctx context.Context, partNumbers []string) ([]part.Info, error) {
	if !c.HasToken() {
		err := perrors.New(perrors.ErrCodeAuth, "access token is empty, obtain a token first")
		c.logger.Error("lookup refused", "err", err)
		return nil, err
	}

	headers := map[string]string{
		"X-DIGIKEY-Client-Id": c.clientID,
		"Authorization":       "Bearer " + c.token.AccessToken,
	}
	params := url.Values{
		"includes":                  {strings.Join(includeFields, ",")},
		"X-DIGIKEY-Locale-Site":     {c.locale.Site},
		"X-DIGIKEY-Locale-Language": {c.locale.Language},
		"X-DIGIKEY-Locale-Currency": {c.locale.Currency},
	}

	infos := make([]part.Info, 0, len(partNumbers))
	for _, pn := range partNumbers {
		info, err := c.lookup(ctx, pn, params, headers)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}

	c.logger.Info("looked up parts", "count", len(infos))
	return infos, nil
}

func (c *Client) lookup(ctx context.Context, pn string, params url.Values, headers map[string]string) (part.Info, error) {
	resp, err := c.transport.Get(ctx, searchPath+url.PathEscape(pn), params, headers)
	if err != nil {
		return part.Info{}, err
	}

	if resp.StatusCode != http.StatusOK {
		body := httputil.ReadBody(resp)
		e := perrors.FromStatus(resp.StatusCode, body, "lookup %s", pn)
		if resp.StatusCode == http.StatusTooManyRequests {
			e.RetryAfter = perrors.ParseRetryAfter(resp.Header.Get("Retry-After"), c.now())
		}
		c.logger.Error("lookup failed", "part", pn, "status", resp.StatusCode, "code", e.Code)
		return part.Info{}, e
	}
	defer resp.Body.Close()

	var data productResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return part.Info{}, perrors.Wrap(perrors.ErrCodePartSearch, err, "decode product %s", pn)
	}
	return c.toInfo(pn, &data)
}

func (c *Client) toInfo(pn string, data *productResponse) (part.Info, error) {
	price, err := c.unitPrice(data.StandardPricing)
	if err != nil {
		err.Message = "lookup " + pn + ": " + err.Message
		return part.Info{}, err
	}

	info := part.Info{
		Name:         data.ProductDescription,
		PartNumber:   data.DigiKeyPartNumber,
		Distributor:  Distributor,
		Manufacturer: data.Manufacturer.Value,
		LeadTime:     string(data.ManufacturerLeadWeeks),
		Quantity:     data.QuantityAvailable,
		UnitPrice:    price,
		LifeCycle:    data.ProductStatus,
		URL:          data.ProductURL,
	}
	if len(data.MediaLinks) > 0 {
		info.DatasheetURL = data.MediaLinks[0].URL
	}
	return info, nil
}

// unitPrice picks the 100-unit price. By default it trusts the tier position;
// with WithPriceBreak it matches BreakQuantity instead.
func (c *Client) unitPrice(tiers []priceBreak) (decimal.Decimal, *perrors.Error) {
	if c.priceBreak > 0 {
		for _, t := range tiers {
			if t.BreakQuantity == c.priceBreak {
				return t.UnitPrice, nil
			}
		}
		return decimal.Zero, perrors.New(perrors.ErrCodePartSearch, "no %d-unit price break", c.priceBreak)
	}
	if len(tiers) <= priceTierIndex {
		return decimal.Zero, perrors.New(perrors.ErrCodePartSearch,
			"standard pricing has %d tiers, need at least %d", len(tiers), priceTierIndex+1)
	}
	return tiers[priceTierIndex].UnitPrice, nil
}
