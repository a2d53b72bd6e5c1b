package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/betterbuy/backend/internal/domain"
)

// Strategy proposes candidate values for one attribute, best first
type Strategy interface {
	Name() string
	Candidates(doc domain.Document) []string
}

// SelectorStrategy reads the nodes matching a CSS selector.
// Each node yields its text, or Attr when the text is empty. With
// PreferAttr the attribute is read first.
type SelectorStrategy struct {
	Selector   string
	Attr       string
	PreferAttr bool
}

func (s SelectorStrategy) Name() string {
	return "css:" + s.Selector
}

func (s SelectorStrategy) Candidates(doc domain.Document) []string {
	nodes := doc.Find(s.Selector)
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, s.read(n))
	}
	return out
}

func (s SelectorStrategy) read(n domain.Node) string {
	attr := ""
	if s.Attr != "" {
		attr, _ = n.Attr(s.Attr)
		attr = strings.TrimSpace(attr)
	}
	text := strings.TrimSpace(n.Text())

	if s.PreferAttr {
		if attr != "" {
			return attr
		}
		return text
	}
	if text != "" {
		return text
	}
	return attr
}

// JSONLDStrategy reads a field of the first schema.org Product found in
// the page's JSON-LD blocks. Field is "name", "description", "image" or
// "price" (offers.price, prefixed with offers.priceCurrency when present).
type JSONLDStrategy struct {
	Field string
}

const jsonLDXPath = `//script[@type="application/ld+json"]`

func (s JSONLDStrategy) Name() string {
	return "jsonld:" + s.Field
}

func (s JSONLDStrategy) Candidates(doc domain.Document) []string {
	var out []string
	for _, n := range doc.XPath(jsonLDXPath) {
		var payload interface{}
		if err := json.Unmarshal([]byte(n.Text()), &payload); err != nil {
			continue
		}
		for _, product := range findProducts(payload) {
			if v := s.read(product); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func (s JSONLDStrategy) read(product map[string]interface{}) string {
	switch s.Field {
	case "price":
		offer := firstObject(product["offers"])
		if offer == nil {
			return ""
		}
		price := scalarString(offer["price"])
		if price == "" {
			price = scalarString(offer["lowPrice"])
		}
		if price == "" {
			return ""
		}
		if currency := scalarString(offer["priceCurrency"]); currency != "" {
			return currency + " " + price
		}
		return price
	case "image":
		switch img := product["image"].(type) {
		case string:
			return img
		case []interface{}:
			for _, item := range img {
				if s, ok := item.(string); ok && s != "" {
					return s
				}
				if obj, ok := item.(map[string]interface{}); ok {
					return scalarString(obj["url"])
				}
			}
		case map[string]interface{}:
			return scalarString(img["url"])
		}
		return ""
	default:
		return scalarString(product[s.Field])
	}
}

// findProducts walks a JSON-LD payload (object, array or @graph) for Product nodes
func findProducts(v interface{}) []map[string]interface{} {
	var out []map[string]interface{}
	switch node := v.(type) {
	case []interface{}:
		for _, item := range node {
			out = append(out, findProducts(item)...)
		}
	case map[string]interface{}:
		if isProductType(node["@type"]) {
			out = append(out, node)
		}
		if graph, ok := node["@graph"]; ok {
			out = append(out, findProducts(graph)...)
		}
	}
	return out
}

func isProductType(t interface{}) bool {
	switch v := t.(type) {
	case string:
		return v == "Product"
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "Product" {
				return true
			}
		}
	}
	return false
}

func firstObject(v interface{}) map[string]interface{} {
	switch node := v.(type) {
	case map[string]interface{}:
		return node
	case []interface{}:
		for _, item := range node {
			if obj, ok := item.(map[string]interface{}); ok {
				return obj
			}
		}
	}
	return nil
}

func scalarString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return fmt.Sprintf("%g", s)
	}
	return ""
}

// AttributeResolver resolves one attribute by trying strategies in order.
// The first candidate that passes Accept after Normalize wins.
type AttributeResolver struct {
	Attribute  string
	Strategies []Strategy
	Normalize  func(string) string
	Accept     func(string) bool
}

// Resolve returns the accepted value and the strategy that produced it
func (r AttributeResolver) Resolve(doc domain.Document) (value, strategy string, ok bool) {
	for _, s := range r.Strategies {
		for _, candidate := range s.Candidates(doc) {
			if r.Normalize != nil {
				candidate = r.Normalize(candidate)
			}
			if candidate == "" {
				continue
			}
			if r.Accept != nil && !r.Accept(candidate) {
				continue
			}
			return candidate, s.Name(), true
		}
	}
	return "", "", false
}

func selectors(attr string, preferAttr bool, sels ...string) []Strategy {
	out := make([]Strategy, 0, len(sels))
	for _, sel := range sels {
		out = append(out, SelectorStrategy{Selector: sel, Attr: attr, PreferAttr: preferAttr})
	}
	return out
}

// NameResolver resolves the product title
func NameResolver() AttributeResolver {
	strategies := selectors("content", false,
		`h1[class*="product"]`,
		`h1[class*="title"]`,
		`#productTitle`,
		`[itemprop="name"]`,
	)
	strategies = append(strategies, JSONLDStrategy{Field: "name"}, SelectorStrategy{Selector: "h1"})

	return AttributeResolver{
		Attribute:  "name",
		Strategies: strategies,
		Normalize:  CollapseWhitespace,
	}
}

// PriceResolver resolves the displayed price text. Candidates without a digit are skipped.
func PriceResolver() AttributeResolver {
	strategies := selectors("content", false,
		`[class*="price"]`,
		`[id*="price"]`,
		`[data-price]`,
		`.a-price .a-offscreen`,
		`.price`,
		`[itemprop="price"]`,
	)
	strategies = append(strategies, JSONLDStrategy{Field: "price"})

	return AttributeResolver{
		Attribute:  "price",
		Strategies: strategies,
		Normalize:  CollapseWhitespace,
		Accept:     containsDigit,
	}
}

// DescriptionResolver resolves the product description. Candidates shorter
// than minLength are skipped; accepted text is cut to maxLength.
func DescriptionResolver(minLength, maxLength int) AttributeResolver {
	strategies := selectors("content", true,
		`meta[name="description"]`,
		`meta[property="og:description"]`,
		`#feature-bullets`,
		`#productDescription`,
		`[class*="product-description"]`,
		`[class*="description"]`,
		`[itemprop="description"]`,
	)
	strategies = append(strategies, JSONLDStrategy{Field: "description"})

	return AttributeResolver{
		Attribute:  "description",
		Strategies: strategies,
		Normalize: func(s string) string {
			s = CollapseWhitespace(s)
			if len([]rune(s)) < minLength {
				return ""
			}
			return Truncate(s, maxLength)
		},
	}
}

// ExtractorConfig holds configuration for the extractor
type ExtractorConfig struct {
	DescriptionMin int
	DescriptionMax int
}

// Extractor turns a page document into a normalized Product
type Extractor struct {
	name        AttributeResolver
	price       AttributeResolver
	description AttributeResolver
	images      *ImageScorer
	currencies  *CurrencyResolver
	prices      *PriceNormalizer
	metrics     domain.MetricsRecorder
	now         func() time.Time
	newID       func() string
}

// NewExtractor creates an extractor
func NewExtractor(
	images *ImageScorer,
	currencies *CurrencyResolver,
	prices *PriceNormalizer,
	metrics domain.MetricsRecorder,
	config ExtractorConfig,
) *Extractor {
	if config.DescriptionMin <= 0 {
		config.DescriptionMin = 20
	}
	if config.DescriptionMax <= 0 {
		config.DescriptionMax = 800
	}
	if metrics == nil {
		metrics = domain.NopMetrics{}
	}

	return &Extractor{
		name:        NameResolver(),
		price:       PriceResolver(),
		description: DescriptionResolver(config.DescriptionMin, config.DescriptionMax),
		images:      images,
		currencies:  currencies,
		prices:      prices,
		metrics:     metrics,
		now:         time.Now,
		newID:       newProductID,
	}
}

func newProductID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Extract resolves every product attribute from doc. Missing attributes
// fall back to defaults: the page title for the name, "N/A" for the price
// and empty strings for image and description.
func (e *Extractor) Extract(ctx context.Context, doc domain.Document) *domain.Product {
	product := &domain.Product{
		ID:        e.newID(),
		URL:       doc.URL(),
		Timestamp: e.now(),
	}

	product.Name = e.resolve(doc, e.name, "")
	if product.Name == "" {
		product.Name = CollapseWhitespace(doc.Title())
	}
	if product.Name == "" {
		product.Name = "Unknown product"
	}

	product.PriceRaw = e.resolve(doc, e.price, domain.PriceNotAvailable)
	product.Description = e.resolve(doc, e.description, "")

	if e.images != nil {
		product.Image = e.images.Select(ctx, doc)
	}

	currency := e.currencies.Resolve(product.URL)
	product.CurrencyCode = currency.Code
	product.CurrencySymbol = currency.Symbol
	product.CountryFlag = currency.Flag

	if product.PriceRaw != domain.PriceNotAvailable {
		if usd, ok := e.prices.ToUSD(ctx, product.PriceRaw, product.CurrencyCode); ok {
			product.PriceUSD = &usd
		}
	}

	log.Debug().
		Str("component", "extractor").
		Str("url", product.URL).
		Str("name", product.Name).
		Str("price", product.PriceRaw).
		Str("currency", product.CurrencyCode).
		Bool("image", product.Image != "").
		Msg("product extracted")

	return product
}

func (e *Extractor) resolve(doc domain.Document, r AttributeResolver, fallback string) string {
	value, strategy, ok := r.Resolve(doc)
	if !ok {
		return fallback
	}
	e.metrics.StrategyMatched(r.Attribute, strategyKind(strategy))
	return value
}

// strategyKind keeps metric label cardinality bounded
func strategyKind(name string) string {
	if i := strings.IndexByte(name, ':'); i > 0 {
		return name[:i]
	}
	return name
}
