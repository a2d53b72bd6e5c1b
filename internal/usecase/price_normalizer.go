package usecase

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/betterbuy/backend/internal/domain"
)

var leadingNumberPattern = regexp.MustCompile(`^\d+(\.\d+)?`)

// RateProvider supplies the current units-per-USD table
type RateProvider interface {
	GetRates(ctx context.Context) domain.RateTable
}

// PriceNormalizer parses price text and converts it to USD
type PriceNormalizer struct {
	rates RateProvider
}

// NewPriceNormalizer creates a normalizer backed by rates
func NewPriceNormalizer(rates RateProvider) *PriceNormalizer {
	return &PriceNormalizer{rates: rates}
}

// ParsePrice extracts a number from free-form price text.
// Every character except digits and a dot directly after a digit is dropped,
// then the longest leading number is parsed. Separators are treated
// locale-naively: "1,234.56" reads as 1234.56 but "1.234,56" reads as 1.23456.
func ParsePrice(text string) (float64, bool) {
	var b strings.Builder
	prevDigit := false
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDigit = true
		case r == '.' && prevDigit:
			b.WriteRune(r)
			prevDigit = false
		default:
			// thousands separators keep the digit run alive
			if r != ',' && r != ' ' && r != '\u00a0' && r != '\'' {
				prevDigit = false
			}
		}
	}

	return parseLeadingNumber(b.String())
}

func parseLeadingNumber(s string) (float64, bool) {
	match := leadingNumberPattern.FindString(s)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// ToUSD converts priceText in currency code to USD.
// ok is false when no number could be parsed or no rate exists for code.
func (n *PriceNormalizer) ToUSD(ctx context.Context, priceText, code string) (float64, bool) {
	value, ok := ParsePrice(priceText)
	if !ok {
		return 0, false
	}

	if code == "" || code == domain.CurrencyUSD {
		return value, true
	}

	rate, ok := n.rates.GetRates(ctx).Rate(code)
	if !ok {
		return 0, false
	}
	return value / rate, true
}
