package exchangerate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/betterbuy/backend/internal/domain"
)

var errNoRates = errors.New("response contains no usable rates")

// ParseRates decodes a rate response into a RateTable.
// Accepted shapes: {"rates": {"EUR": 0.92, ...}, ...} as served by most
// providers, or a bare {"EUR": 0.92, ...} mapping. Codes are upper-cased and
// non-positive or non-numeric entries are dropped. USD is always 1.
func ParseRates(body []byte) (domain.RateTable, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if nested, ok := envelope["rates"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(nested, &inner); err != nil {
			return nil, fmt.Errorf("failed to decode rates object: %w", err)
		}
		envelope = inner
	}

	rates := make(domain.RateTable, len(envelope))
	for code, raw := range envelope {
		var value float64
		if err := json.Unmarshal(raw, &value); err != nil {
			continue
		}
		code = strings.ToUpper(strings.TrimSpace(code))
		if len(code) != 3 || value <= 0 {
			continue
		}
		rates[code] = value
	}

	if len(rates) == 0 {
		return nil, errNoRates
	}

	rates[domain.CurrencyUSD] = 1
	return rates, nil
}

// FallbackRates returns a static table used when no network or stored table
// is available. It covers every currency the resolver can produce.
func FallbackRates() domain.RateTable {
	return domain.RateTable{
		domain.CurrencyUSD: 1,
		domain.CurrencyGBP: 0.79,
		domain.CurrencyEUR: 0.92,
		domain.CurrencyINR: 83.2,
		domain.CurrencyJPY: 149.5,
		domain.CurrencyCAD: 1.36,
		domain.CurrencyAUD: 1.52,
		domain.CurrencyCNY: 7.24,
		domain.CurrencyBRL: 4.97,
		domain.CurrencyMXN: 17.1,
		domain.CurrencySGD: 1.34,
		domain.CurrencyAED: 3.67,
		domain.CurrencySEK: 10.4,
		domain.CurrencyCHF: 0.88,
		domain.CurrencyKRW: 1330,
	}
}
