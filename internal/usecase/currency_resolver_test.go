package usecase

import (
	"testing"

	"github.com/betterbuy/backend/internal/domain"
	"github.com/betterbuy/backend/internal/infrastructure/exchangerate"
)

func TestCurrencyResolver_Resolve(t *testing.T) {
	r := NewCurrencyResolver()

	testCases := []struct {
		name    string
		url     string
		code    string
		country string
	}{
		{name: "generic com", url: "https://www.amazon.com/dp/B0001", code: "USD", country: "United States"},
		{name: "compound uk", url: "https://www.amazon.co.uk/dp/B0001", code: "GBP", country: "United Kingdom"},
		{name: "compound au beats com", url: "https://www.amazon.com.au/dp/B0001", code: "AUD", country: "Australia"},
		{name: "compound br", url: "https://www.mercadolivre.com.br/p/1", code: "BRL", country: "Brazil"},
		{name: "compound mx", url: "https://www.amazon.com.mx/dp/1", code: "MXN", country: "Mexico"},
		{name: "india", url: "https://www.flipkart.co.in/item", code: "INR", country: "India"},
		{name: "bare in", url: "https://www.amazon.in/dp/1", code: "INR", country: "India"},
		{name: "germany", url: "https://www.amazon.de/dp/1", code: "EUR", country: "Germany"},
		{name: "japan upper case and trailing dot", url: "https://WWW.AMAZON.CO.JP./dp/1", code: "JPY", country: "Japan"},
		{name: "korea", url: "https://www.coupang.co.kr/vp/1", code: "KRW", country: "South Korea"},
		{name: "port is ignored", url: "https://shop.example.ca:8443/x", code: "CAD", country: "Canada"},
		{name: "suffix must be a whole label", url: "https://fakeau/x", code: "USD", country: "United States"},
		{name: "uk inside a com host", url: "https://shop-uk.com/x", code: "USD", country: "United States"},
		{name: "unknown tld", url: "https://shop.example.xyz/x", code: "USD", country: "United States"},
		{name: "no scheme", url: "amazon.co.uk/dp/1", code: "USD", country: "United States"},
		{name: "malformed", url: "http://[::1", code: "USD", country: "United States"},
		{name: "empty", url: "", code: "USD", country: "United States"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.Resolve(tc.url)
			if got.Code != tc.code {
				t.Errorf("Resolve(%q).Code = %q, want %q", tc.url, got.Code, tc.code)
			}
			if got.CountryLabel != tc.country {
				t.Errorf("Resolve(%q).CountryLabel = %q, want %q", tc.url, got.CountryLabel, tc.country)
			}
		})
	}
}

func TestCurrencyResolver_DefaultDescriptor(t *testing.T) {
	got := NewCurrencyResolver().Resolve("::::")
	if got != domain.DefaultCurrency {
		t.Errorf("expected default currency, got %+v", got)
	}
	if got.Symbol != "$" || got.Flag != "🇺🇸" {
		t.Errorf("unexpected default descriptor %+v", got)
	}
}

func TestCurrencyResolver_CodesHaveFallbackRates(t *testing.T) {
	fallback := exchangerate.FallbackRates()
	for _, code := range NewCurrencyResolver().Codes() {
		if _, ok := fallback.Rate(code); !ok {
			t.Errorf("fallback table has no rate for %s", code)
		}
	}
}
