package usecase

import (
	"net/url"
	"sort"
	"strings"

	"github.com/betterbuy/backend/internal/domain"
)

type currencyEntry struct {
	suffix string // domain suffix without leading dot, e.g. "co.uk"
	info   domain.CurrencyInfo
}

func entry(suffix, code, symbol, flag, country string) currencyEntry {
	return currencyEntry{
		suffix: suffix,
		info:   domain.CurrencyInfo{Code: code, Symbol: symbol, Flag: flag, CountryLabel: country},
	}
}

// storefrontCurrencies maps storefront domain suffixes to their currency.
// Order does not matter: the resolver sorts by specificity.
var storefrontCurrencies = []currencyEntry{
	entry("com", domain.CurrencyUSD, "$", "🇺🇸", "United States"),
	entry("us", domain.CurrencyUSD, "$", "🇺🇸", "United States"),
	entry("co.uk", domain.CurrencyGBP, "£", "🇬🇧", "United Kingdom"),
	entry("uk", domain.CurrencyGBP, "£", "🇬🇧", "United Kingdom"),
	entry("de", domain.CurrencyEUR, "€", "🇩🇪", "Germany"),
	entry("fr", domain.CurrencyEUR, "€", "🇫🇷", "France"),
	entry("it", domain.CurrencyEUR, "€", "🇮🇹", "Italy"),
	entry("es", domain.CurrencyEUR, "€", "🇪🇸", "Spain"),
	entry("nl", domain.CurrencyEUR, "€", "🇳🇱", "Netherlands"),
	entry("ie", domain.CurrencyEUR, "€", "🇮🇪", "Ireland"),
	entry("be", domain.CurrencyEUR, "€", "🇧🇪", "Belgium"),
	entry("at", domain.CurrencyEUR, "€", "🇦🇹", "Austria"),
	entry("in", domain.CurrencyINR, "₹", "🇮🇳", "India"),
	entry("co.in", domain.CurrencyINR, "₹", "🇮🇳", "India"),
	entry("jp", domain.CurrencyJPY, "¥", "🇯🇵", "Japan"),
	entry("co.jp", domain.CurrencyJPY, "¥", "🇯🇵", "Japan"),
	entry("ca", domain.CurrencyCAD, "C$", "🇨🇦", "Canada"),
	entry("au", domain.CurrencyAUD, "A$", "🇦🇺", "Australia"),
	entry("com.au", domain.CurrencyAUD, "A$", "🇦🇺", "Australia"),
	entry("cn", domain.CurrencyCNY, "¥", "🇨🇳", "China"),
	entry("com.br", domain.CurrencyBRL, "R$", "🇧🇷", "Brazil"),
	entry("com.mx", domain.CurrencyMXN, "MX$", "🇲🇽", "Mexico"),
	entry("sg", domain.CurrencySGD, "S$", "🇸🇬", "Singapore"),
	entry("com.sg", domain.CurrencySGD, "S$", "🇸🇬", "Singapore"),
	entry("ae", domain.CurrencyAED, "AED", "🇦🇪", "United Arab Emirates"),
	entry("se", domain.CurrencySEK, "kr", "🇸🇪", "Sweden"),
	entry("ch", domain.CurrencyCHF, "CHF", "🇨🇭", "Switzerland"),
	entry("kr", domain.CurrencyKRW, "₩", "🇰🇷", "South Korea"),
	entry("co.kr", domain.CurrencyKRW, "₩", "🇰🇷", "South Korea"),
}

// CurrencyResolver maps a storefront URL to the currency it prices in
type CurrencyResolver struct {
	entries []currencyEntry
}

// NewCurrencyResolver creates a resolver over the built-in storefront table
func NewCurrencyResolver() *CurrencyResolver {
	entries := append([]currencyEntry(nil), storefrontCurrencies...)

	// Most labels first so "com.au" is tried before "au" and "com"
	sort.SliceStable(entries, func(i, j int) bool {
		li, lj := strings.Count(entries[i].suffix, "."), strings.Count(entries[j].suffix, ".")
		if li != lj {
			return li > lj
		}
		return len(entries[i].suffix) > len(entries[j].suffix)
	})

	return &CurrencyResolver{entries: entries}
}

// Resolve returns the currency for rawURL's host.
// Unknown hosts and malformed URLs resolve to domain.DefaultCurrency.
func (r *CurrencyResolver) Resolve(rawURL string) domain.CurrencyInfo {
	host := hostOf(rawURL)
	if host == "" {
		return domain.DefaultCurrency
	}

	for _, e := range r.entries {
		if host == e.suffix || strings.HasSuffix(host, "."+e.suffix) {
			return e.info
		}
	}
	return domain.DefaultCurrency
}

// Codes returns every currency code the resolver can produce, sorted
func (r *CurrencyResolver) Codes() []string {
	seen := map[string]bool{domain.CurrencyUSD: true}
	for _, e := range r.entries {
		seen[e.info.Code] = true
	}

	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
}
