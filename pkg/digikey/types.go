package digikey

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Token is an OAuth2 access/refresh token pair.
//
// ExpiresAt and RefreshExpiresAt are zero when the token endpoint did not
// report lifetimes or the pair was restored with [Client.SetTokens].
type Token struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	ExpiresAt        time.Time `json:"expires_at,omitzero"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at,omitzero"`
}

// Expired reports whether the access token is known to be expired at now.
// A token without a known expiry is never reported as expired.
func (t Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// RefreshExpired reports whether the refresh token is known to be expired.
func (t Token) RefreshExpired(now time.Time) bool {
	return !t.RefreshExpiresAt.IsZero() && !now.Before(t.RefreshExpiresAt)
}

// tokenResponse is the token endpoint payload.
type tokenResponse struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	ExpiresIn             int    `json:"expires_in"`
	RefreshTokenExpiresIn int    `json:"refresh_token_expires_in"`
	TokenType             string `json:"token_type"`
}

// productResponse holds the fields requested through the includes parameter.
type productResponse struct {
	ProductDescription    string       `json:"ProductDescription"`
	DigiKeyPartNumber     string       `json:"DigiKeyPartNumber"`
	MediaLinks            []mediaLink  `json:"MediaLinks"`
	Manufacturer          pidVid       `json:"Manufacturer"`
	ManufacturerLeadWeeks flexString   `json:"ManufacturerLeadWeeks"`
	QuantityAvailable     int          `json:"QuantityAvailable"`
	StandardPricing       []priceBreak `json:"StandardPricing"`
	ProductStatus         string       `json:"ProductStatus"`
	ProductURL            string       `json:"ProductUrl"`
}

type mediaLink struct {
	MediaType string `json:"MediaType"`
	Title     string `json:"Title"`
	URL       string `json:"Url"`
}

type pidVid struct {
	ParameterID int    `json:"ParameterId"`
	ValueID     string `json:"ValueId"`
	Parameter   string `json:"Parameter"`
	Value       string `json:"Value"`
}

type priceBreak struct {
	BreakQuantity int             `json:"BreakQuantity"`
	UnitPrice     decimal.Decimal `json:"UnitPrice"`
	TotalPrice    decimal.Decimal `json:"TotalPrice"`
}

// flexString accepts a JSON string or number. Digikey reports lead weeks as
// a string but older payloads carry a bare number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
