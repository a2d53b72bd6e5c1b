package domain

import (
	"fmt"
	"time"
)

// PriceNotAvailable is the captured price text when no price could be located on a page
const PriceNotAvailable = "N/A"

// Product represents a captured product, normalized for comparison
type Product struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	PriceRaw       string    `json:"price"`
	PriceUSD       *float64  `json:"priceUSD,omitempty"` // absent when the price could not be parsed or converted
	CurrencyCode   string    `json:"currency"`
	CurrencySymbol string    `json:"currencySymbol"`
	CountryFlag    string    `json:"countryFlag"`
	Description    string    `json:"description"`
	Image          string    `json:"image"`
	URL            string    `json:"url"`
	Timestamp      time.Time `json:"timestamp"`
}

// HasUSDPrice reports whether the product carries a converted USD price
func (p *Product) HasUSDPrice() bool {
	return p.PriceUSD != nil
}

// PriceDisplay renders the price the way the cart card shows it:
// original currency and flag, plus the USD conversion when one exists.
func (p *Product) PriceDisplay() string {
	if p.PriceUSD != nil && p.CurrencyCode != CurrencyUSD {
		return fmt.Sprintf("%s %s %s ≈ USD $%.2f", p.CurrencyCode, p.PriceRaw, p.CountryFlag, *p.PriceUSD)
	}
	if p.CountryFlag != "" {
		return fmt.Sprintf("%s %s", p.CountryFlag, p.PriceRaw)
	}
	return p.PriceRaw
}

// CaptureRequest represents a request to capture a product from a page.
// HTML is the serialized page markup; when empty the page is fetched from URL.
type CaptureRequest struct {
	URL  string `json:"url" binding:"required"`
	HTML string `json:"html,omitempty"`
}

// CompareRequest selects cart products for comparison
type CompareRequest struct {
	ProductIDs []string `json:"productIds"`
}
