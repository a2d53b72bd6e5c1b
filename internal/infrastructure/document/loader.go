// Package document loads page markup into a queryable domain.Document and
// fetches pages and images over HTTP.
package document

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"

	"github.com/betterbuy/backend/internal/domain"
)

// MaxHTMLSize bounds the markup accepted by Load
const MaxHTMLSize = 10 * 1024 * 1024

// Page is a parsed page document. It answers CSS queries through goquery and
// XPath queries through htmlquery over the same node tree.
type Page struct {
	url string
	doc *goquery.Document
}

// Load parses markup captured from pageURL
func Load(pageURL, markup string) (*Page, error) {
	if markup == "" {
		return nil, fmt.Errorf("%w: empty markup", domain.ErrDocumentUnavailable)
	}
	if len(markup) > MaxHTMLSize {
		return nil, fmt.Errorf("%w: markup exceeds %d bytes", domain.ErrDocumentUnavailable, MaxHTMLSize)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(ToUTF8([]byte(markup), "")))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDocumentUnavailable, err)
	}

	return &Page{url: pageURL, doc: doc}, nil
}

// ToUTF8 converts page bytes to UTF-8. An explicit charset in contentType
// wins; valid UTF-8 passes through; anything else is sniffed with chardet.
func ToUTF8(data []byte, contentType string) []byte {
	if _, params, err := mime.ParseMediaType(contentType); err == nil && params["charset"] != "" {
		return decode(data, contentType)
	}
	if utf8.Valid(data) {
		return data
	}
	return decode(data, "text/html; charset="+DetectCharset(data))
}

// DetectCharset detects and returns the charset of data, defaulting to utf-8
func DetectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

func decode(data []byte, contentType string) []byte {
	reader, err := charset.NewReader(bytes.NewReader(data), contentType)
	if err != nil {
		return data
	}
	out, err := io.ReadAll(reader)
	if err != nil {
		return data
	}
	return out
}

// URL returns the page's source URL
func (p *Page) URL() string {
	return p.url
}

// Title returns the trimmed <title> text
func (p *Page) Title() string {
	return strings.TrimSpace(p.doc.Find("title").First().Text())
}

// Find returns the nodes matching a CSS selector. Invalid selectors match nothing.
func (p *Page) Find(selector string) []domain.Node {
	return wrap(p.doc.Find(selector))
}

// XPath returns the nodes matching an XPath expression. Invalid expressions match nothing.
func (p *Page) XPath(expr string) []domain.Node {
	if len(p.doc.Nodes) == 0 {
		return nil
	}
	matches, err := htmlquery.QueryAll(p.doc.Nodes[0], expr)
	if err != nil || len(matches) == 0 {
		return nil
	}
	return wrap(p.doc.FindNodes(matches...))
}

func wrap(sel *goquery.Selection) []domain.Node {
	nodes := make([]domain.Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, node{sel: s})
	})
	return nodes
}

type node struct {
	sel *goquery.Selection
}

func (n node) Text() string {
	return n.sel.Text()
}

func (n node) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

// Parser implements domain.DocumentParser with Load
type Parser struct{}

// Parse parses markup captured from pageURL
func (Parser) Parse(pageURL, markup string) (domain.Document, error) {
	page, err := Load(pageURL, markup)
	if err != nil {
		return nil, err
	}
	return page, nil
}
