package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/betterbuy/backend/internal/domain"
)

const (
	summaryMinLength      = 50
	translationConfidence = 0.5
	targetLanguage        = "en"
	summarySharedContext  = "Product description for shopping comparison"
)

// CaptureCapabilities are the optional AI steps applied to descriptions.
// Any of them may be nil.
type CaptureCapabilities struct {
	Detector   domain.LanguageDetector
	Translator domain.Translator
	Summarizer domain.Summarizer
}

// CaptureService turns a page into a Product, enriching its description
// with the available AI capabilities
type CaptureService struct {
	parser    domain.DocumentParser
	fetcher   domain.PageFetcher
	extractor *Extractor
	ai        CaptureCapabilities
	cart      *CartService
	metrics   domain.MetricsRecorder
}

// NewCaptureService creates a capture service. fetcher may be nil, in which
// case requests must carry their markup.
func NewCaptureService(
	parser domain.DocumentParser,
	fetcher domain.PageFetcher,
	extractor *Extractor,
	ai CaptureCapabilities,
	cart *CartService,
	metrics domain.MetricsRecorder,
) *CaptureService {
	if metrics == nil {
		metrics = domain.NopMetrics{}
	}
	return &CaptureService{
		parser:    parser,
		fetcher:   fetcher,
		extractor: extractor,
		ai:        ai,
		cart:      cart,
		metrics:   metrics,
	}
}

// Capture extracts and enriches the product described by req
func (s *CaptureService) Capture(ctx context.Context, req *domain.CaptureRequest) (*domain.Product, error) {
	if req == nil || strings.TrimSpace(req.URL) == "" {
		return nil, domain.ErrInvalidRequest
	}

	markup := req.HTML
	if markup == "" {
		if s.fetcher == nil {
			return nil, fmt.Errorf("%w: no markup supplied", domain.ErrInvalidRequest)
		}
		fetched, err := s.fetcher.Fetch(ctx, req.URL)
		if err != nil {
			return nil, err
		}
		markup = fetched
	}

	doc, err := s.parser.Parse(req.URL, markup)
	if err != nil {
		return nil, err
	}

	product := s.extractor.Extract(ctx, doc)

	enriched := false
	if utf8.RuneCountInString(product.Description) > summaryMinLength {
		product.Description, enriched = s.enrich(ctx, product.Description)
	}
	s.metrics.ProductCaptured(enriched)

	return product, nil
}

// CaptureToCart captures the product and appends it to the cart
func (s *CaptureService) CaptureToCart(ctx context.Context, req *domain.CaptureRequest) (*domain.Product, error) {
	product, err := s.Capture(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.cart.Add(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// enrich runs detect, translate and summarize in turn. A step runs only when
// its capability is available; a failing step keeps the current text.
func (s *CaptureService) enrich(ctx context.Context, description string) (string, bool) {
	changed := false

	if translated, ok := s.translate(ctx, description); ok {
		description, changed = translated, true
	}

	if summary, ok := s.summarize(ctx, description); ok {
		description, changed = summary, true
	}

	return description, changed
}

func (s *CaptureService) translate(ctx context.Context, text string) (string, bool) {
	if !ready(ctx, s.ai.Detector) || !ready(ctx, s.ai.Translator) {
		return "", false
	}

	candidates, err := s.ai.Detector.Detect(ctx, text)
	if err != nil || len(candidates) == 0 {
		if err != nil {
			log.Debug().Err(err).Str("component", "capture").Msg("language detection skipped")
		}
		return "", false
	}

	top := candidates[0]
	if top.Language == targetLanguage || top.Confidence < translationConfidence {
		return "", false
	}

	translated, err := s.ai.Translator.Translate(ctx, text, top.Language, targetLanguage)
	if err != nil || strings.TrimSpace(translated) == "" {
		log.Debug().Err(err).Str("component", "capture").Str("from", top.Language).Msg("translation skipped")
		return "", false
	}
	return strings.TrimSpace(translated), true
}

func (s *CaptureService) summarize(ctx context.Context, text string) (string, bool) {
	if !ready(ctx, s.ai.Summarizer) {
		return "", false
	}

	summary, err := s.ai.Summarizer.Summarize(ctx, text, domain.SummaryOptions{
		Type:          "tldr",
		Length:        "short",
		Format:        "plain-text",
		SharedContext: summarySharedContext,
	})
	if err != nil || strings.TrimSpace(summary) == "" {
		log.Debug().Err(err).Str("component", "capture").Msg("summarization skipped")
		return "", false
	}
	return strings.TrimSpace(summary), true
}

type availabilityReporter interface {
	Availability(ctx context.Context) domain.Availability
}

func ready(ctx context.Context, capability availabilityReporter) bool {
	if capability == nil {
		return false
	}
	return capability.Availability(ctx) == domain.AvailabilityAvailable
}
