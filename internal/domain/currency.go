package domain

import "time"

// Supported currency codes
const (
	CurrencyUSD = "USD"
	CurrencyGBP = "GBP"
	CurrencyEUR = "EUR"
	CurrencyINR = "INR"
	CurrencyJPY = "JPY"
	CurrencyCAD = "CAD"
	CurrencyAUD = "AUD"
	CurrencyCNY = "CNY"
	CurrencyBRL = "BRL"
	CurrencyMXN = "MXN"
	CurrencySGD = "SGD"
	CurrencyAED = "AED"
	CurrencySEK = "SEK"
	CurrencyCHF = "CHF"
	CurrencyKRW = "KRW"
)

// CurrencyInfo describes the currency used by a storefront
type CurrencyInfo struct {
	Code         string `json:"code"`
	Symbol       string `json:"symbol"`
	Flag         string `json:"flag"`
	CountryLabel string `json:"country"`
}

// DefaultCurrency is used for unrecognized or malformed storefront URLs
var DefaultCurrency = CurrencyInfo{
	Code:         CurrencyUSD,
	Symbol:       "$",
	Flag:         "🇺🇸",
	CountryLabel: "United States",
}

// RateTable maps a currency code to units per 1 USD
type RateTable map[string]float64

// ExchangeRateTable is a rate table captured at a point in time
type ExchangeRateTable struct {
	Base      string    `json:"base"`
	Rates     RateTable `json:"rates"`
	FetchedAt time.Time `json:"fetchedAt"`
	Source    string    `json:"source"` // "network", "store" or "fallback"
}

// Age returns how old the table is relative to now
func (t *ExchangeRateTable) Age(now time.Time) time.Duration {
	return now.Sub(t.FetchedAt)
}

// Rate returns the units-per-USD rate for code, if present and usable
func (t RateTable) Rate(code string) (float64, bool) {
	rate, ok := t[code]
	if !ok || rate <= 0 {
		return 0, false
	}
	return rate, true
}

// Clone returns an independent copy of the table
func (t RateTable) Clone() RateTable {
	out := make(RateTable, len(t))
	for code, rate := range t {
		out[code] = rate
	}
	return out
}
