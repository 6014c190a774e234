// Package part defines the distributor-neutral part record and the lookup
// capability distributor clients implement.
//
// # Info
//
// [Info] is a plain record filled once per lookup response:
//
//   - Name, PartNumber, Distributor, Manufacturer: identity
//   - LeadTime (weeks), Quantity (units in stock): availability
//   - UnitPrice: price at the 100-unit price break
//   - LifeCycle: status as reported (Active, Obsolete, Not For New Designs, ...)
//   - URL, DatasheetURL: links
//
// Records have no identity beyond field equality and are not persisted.
package part

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Info holds normalized part data from one distributor response.
type Info struct {
	Name         string          `json:"name"`
	PartNumber   string          `json:"part_number"`
	Distributor  string          `json:"distributor"`
	Manufacturer string          `json:"manufacturer"`
	LeadTime     string          `json:"lead_time"` // Manufacturer lead time in weeks, as reported
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LifeCycle    string          `json:"life_cycle"`
	URL          string          `json:"url"`
	DatasheetURL string          `json:"datasheet_url"`
}

// Searcher looks up parts by number.
//
// Implementations return one Info per input in input order, or an error and
// no results at all.
type Searcher interface {
	LookupByPartNumbers(ctx context.Context, partNumbers []string) ([]Info, error)
}

// String renders the record on one line.
func (i Info) String() string {
	return fmt.Sprintf("%s (%s) by %s from %s: %s, qty %d @ %s, lead %s weeks",
		i.PartNumber, i.Name, i.Manufacturer, i.Distributor,
		i.LifeCycle, i.Quantity, i.UnitPrice.String(), i.LeadTime)
}

// Map renders the record as a map keyed by snake_case field names.
// UnitPrice is rendered as its exact decimal string.
func (i Info) Map() map[string]any {
	return map[string]any{
		"name":          i.Name,
		"part_number":   i.PartNumber,
		"distributor":   i.Distributor,
		"manufacturer":  i.Manufacturer,
		"lead_time":     i.LeadTime,
		"quantity":      i.Quantity,
		"unit_price":    i.UnitPrice.String(),
		"life_cycle":    i.LifeCycle,
		"url":           i.URL,
		"datasheet_url": i.DatasheetURL,
	}
}

// Equal reports field equality. Prices compare numerically, so 0.1 and 0.10
// are equal.
func (i Info) Equal(o Info) bool {
	return i.Name == o.Name &&
		i.PartNumber == o.PartNumber &&
		i.Distributor == o.Distributor &&
		i.Manufacturer == o.Manufacturer &&
		i.LeadTime == o.LeadTime &&
		i.Quantity == o.Quantity &&
		i.UnitPrice.Equal(o.UnitPrice) &&
		i.LifeCycle == o.LifeCycle &&
		i.URL == o.URL &&
		i.DatasheetURL == o.DatasheetURL
}
