package exchangerate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betterbuy/backend/internal/domain"
)

func TestParseRates(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    domain.RateTable
		wantErr bool
	}{
		{
			name: "rates envelope",
			body: `{"base":"USD","time_last_updated":1700000000,"rates":{"USD":1,"EUR":0.92,"INR":83.2}}`,
			want: domain.RateTable{"USD": 1, "EUR": 0.92, "INR": 83.2},
		},
		{
			name: "bare mapping",
			body: `{"EUR":0.92,"GBP":0.79}`,
			want: domain.RateTable{"USD": 1, "EUR": 0.92, "GBP": 0.79},
		},
		{
			name: "codes are normalized and junk dropped",
			body: `{"rates":{" eur ":0.92,"JPY":-1,"CHF":0,"LONGCODE":2,"SEK":"ten"}}`,
			want: domain.RateTable{"USD": 1, "EUR": 0.92},
		},
		{
			name: "upstream USD is forced to identity",
			body: `{"rates":{"USD":1.01,"CAD":1.36}}`,
			want: domain.RateTable{"USD": 1, "CAD": 1.36},
		},
		{
			name: "envelope metadata is not read as rates",
			body: `{"ttl":3600,"eur":2,"rates":{"EUR":0.9}}`,
			want: domain.RateTable{"USD": 1, "EUR": 0.9},
		},
		{name: "empty rates object", body: `{"ttl":3600,"rates":{}}`, wantErr: true},
		{name: "empty object", body: `{}`, wantErr: true},
		{name: "not an object", body: `[1,2,3]`, wantErr: true},
		{name: "rates not an object", body: `{"rates":[0.9]}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRates([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFallbackRates_CoversSupportedCurrencies(t *testing.T) {
	rates := FallbackRates()

	codes := []string{
		domain.CurrencyUSD, domain.CurrencyGBP, domain.CurrencyEUR, domain.CurrencyINR,
		domain.CurrencyJPY, domain.CurrencyCAD, domain.CurrencyAUD, domain.CurrencyCNY,
		domain.CurrencyBRL, domain.CurrencyMXN, domain.CurrencySGD, domain.CurrencyAED,
		domain.CurrencySEK, domain.CurrencyCHF, domain.CurrencyKRW,
	}
	for _, code := range codes {
		rate, ok := rates.Rate(code)
		assert.True(t, ok, code)
		assert.Greater(t, rate, 0.0, code)
	}

	// Each call returns an independent table
	rates["EUR"] = 5
	assert.Equal(t, 0.92, FallbackRates()["EUR"])
}
