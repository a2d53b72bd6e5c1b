package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// A ttl of zero or less stores the value without expiry.
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CartRepository persists the collection of captured products
type CartRepository interface {
	List(ctx context.Context) ([]Product, error)
	Append(ctx context.Context, product Product) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// RateSource fetches a fresh exchange-rate table (units per 1 USD)
type RateSource interface {
	FetchRates(ctx context.Context) (*ExchangeRateTable, error)
}

// Node is a read-only element of a page document
type Node interface {
	Text() string
	Attr(name string) (string, bool)
}

// Document is read-only query access to a parsed page
type Document interface {
	URL() string
	Title() string
	// Find returns the nodes matching a CSS selector, in document order
	Find(selector string) []Node
	// XPath returns the nodes matching an XPath expression, in document order
	XPath(expr string) []Node
}

// PageFetcher retrieves raw page markup
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// ImageSize holds decoded image dimensions in pixels
type ImageSize struct {
	Width  int
	Height int
}

// Area returns width x height
func (s ImageSize) Area() int {
	return s.Width * s.Height
}

// ImageProber resolves the natural size of an image.
// Implementations must honor ctx cancellation so callers can bound the wait.
type ImageProber interface {
	Probe(ctx context.Context, url string) (ImageSize, error)
}

// DocumentParser parses page markup captured from pageURL
type DocumentParser interface {
	Parse(pageURL, markup string) (Document, error)
}
