package usecase

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	multiSpacePattern  = regexp.MustCompile(`\s+`)
	storeSuffixPattern = regexp.MustCompile(`\.(com|org|net|io|co|uk|ca|au)$`)
)

// CollapseWhitespace replaces every whitespace run with one space and trims the result
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(multiSpacePattern.ReplaceAllString(s, " "))
}

// Truncate cuts s to at most max runes
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// TruncateWithMarker cuts s to max runes and appends marker when it was cut
func TruncateWithMarker(s string, max int, marker string) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return Truncate(s, max) + marker
}

// StoreName derives a display name from a product URL:
// "https://www.amazon.co.uk/x" becomes "Amazon.co".
func StoreName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "Unknown"
	}

	name := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	name = storeSuffixPattern.ReplaceAllString(name, "")
	if name == "" {
		return "Unknown"
	}

	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}

func containsDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}
