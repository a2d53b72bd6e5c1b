package usecase

import (
	"context"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/betterbuy/backend/internal/domain"
)

// defaultImageTiers are tried in order; the first tier with an accepted image wins
var defaultImageTiers = []string{
	`#landingImage`,
	`[itemprop="image"]`,
	`img[class*="main"]`,
	`img[class*="product"]`,
	`[class*="product"] img[src*="http"]`,
	`img[data-src*="http"]`,
	`meta[property="og:image"]`,
}

// ImageScorerConfig holds configuration for the image scorer
type ImageScorerConfig struct {
	MinDimension  int
	ProbeTimeout  time.Duration
	MaxCandidates int // per tier
	Concurrency   int
}

// ImageScorer picks the product image: the largest candidate, by area, of
// the first selector tier that has any candidate at least MinDimension
// pixels in both directions.
type ImageScorer struct {
	prober domain.ImageProber
	tiers  []string
	config ImageScorerConfig
}

// NewImageScorer creates a scorer. A nil prober sizes images from their
// width and height attributes only.
func NewImageScorer(prober domain.ImageProber, config ImageScorerConfig) *ImageScorer {
	if config.MinDimension <= 0 {
		config.MinDimension = 100
	}
	if config.ProbeTimeout <= 0 {
		config.ProbeTimeout = time.Second
	}
	if config.MaxCandidates <= 0 {
		config.MaxCandidates = 20
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 4
	}
	return &ImageScorer{prober: prober, tiers: defaultImageTiers, config: config}
}

type imageCandidate struct {
	url        string
	attrWidth  int
	attrHeight int
	size       domain.ImageSize
}

// Select returns the chosen image URL, or "" when no candidate qualifies
func (s *ImageScorer) Select(ctx context.Context, doc domain.Document) string {
	for _, selector := range s.tiers {
		candidates := s.candidates(doc, selector)
		if len(candidates) == 0 {
			continue
		}

		s.measure(ctx, candidates)

		if best := s.best(candidates); best != "" {
			return best
		}
	}
	return ""
}

func (s *ImageScorer) candidates(doc domain.Document, selector string) []*imageCandidate {
	var out []*imageCandidate
	for _, n := range doc.Find(selector) {
		src := imageSource(n)
		if src == "" {
			continue
		}
		out = append(out, &imageCandidate{
			url:        src,
			attrWidth:  intAttr(n, "width"),
			attrHeight: intAttr(n, "height"),
		})
		if len(out) == s.config.MaxCandidates {
			break
		}
	}
	return out
}

// measure sizes every candidate. A probe that fails or outlives its
// deadline leaves the attribute dimensions in place, which may be zero.
func (s *ImageScorer) measure(ctx context.Context, candidates []*imageCandidate) {
	for _, c := range candidates {
		c.size = domain.ImageSize{Width: c.attrWidth, Height: c.attrHeight}
	}
	if s.prober == nil {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)
	for _, c := range candidates {
		c := c
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(gctx, s.config.ProbeTimeout)
			defer cancel()

			size, err := s.prober.Probe(probeCtx, c.url)
			if err == nil && size.Width > 0 && size.Height > 0 {
				c.size = size
			}
			return nil
		})
	}
	_ = g.Wait()
}

// best returns the largest qualifying candidate; ties keep the earlier one
func (s *ImageScorer) best(candidates []*imageCandidate) string {
	bestURL, bestArea := "", 0
	for _, c := range candidates {
		if c.size.Width < s.config.MinDimension || c.size.Height < s.config.MinDimension {
			continue
		}
		if area := c.size.Area(); area > bestArea {
			bestURL, bestArea = c.url, area
		}
	}
	return bestURL
}

// imageSource returns the first absolute network URL among the direct and
// lazy-load source attributes
func imageSource(n domain.Node) string {
	for _, attr := range []string{"src", "data-src", "content", "href"} {
		if v, ok := n.Attr(attr); ok && isNetworkURL(strings.TrimSpace(v)) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func isNetworkURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func intAttr(n domain.Node, name string) int {
	v, ok := n.Attr(name)
	if !ok {
		return 0
	}
	i, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if err != nil || i < 0 {
		return 0
	}
	return i
}
