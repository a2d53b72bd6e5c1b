package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/betterbuy/backend/internal/domain"
)

// ComparisonSystemPrompt frames the comparison session
const ComparisonSystemPrompt = "You are a helpful shopping assistant that provides honest, concise product comparisons."

// ComparisonEngine produces one comparison artifact per request. It makes a
// single attempt at an AI narrative and falls back to the deterministic
// table when the model is unavailable or the attempt fails.
type ComparisonEngine struct {
	model   domain.LanguageModel
	metrics domain.MetricsRecorder
}

// NewComparisonEngine creates an engine. model may be nil.
func NewComparisonEngine(model domain.LanguageModel, metrics domain.MetricsRecorder) *ComparisonEngine {
	if metrics == nil {
		metrics = domain.NopMetrics{}
	}
	return &ComparisonEngine{model: model, metrics: metrics}
}

// Compare renders products. Fewer than two products is rejected with
// domain.ErrNotEnoughProducts before either path runs; every other failure
// ends in the deterministic table.
func (e *ComparisonEngine) Compare(ctx context.Context, products []domain.Product) (*domain.ComparisonArtifact, error) {
	if len(products) < 2 {
		return nil, domain.ErrNotEnoughProducts
	}

	if e.model == nil || e.model.Availability(ctx) == domain.AvailabilityUnavailable {
		log.Info().Str("component", "comparison").Msg("AI unavailable, using deterministic table")
		return e.fallback(products, domain.FallbackUnavailable), nil
	}

	narrative, err := e.narrate(ctx, products)
	if err != nil {
		log.Warn().Err(err).Str("component", "comparison").Msg("AI comparison failed, using deterministic table")
		return e.fallback(products, domain.FallbackFailed), nil
	}

	e.metrics.ComparisonRendered(domain.ArtifactAINarrative, domain.FallbackNone)
	return &domain.ComparisonArtifact{
		Kind:         domain.ArtifactAINarrative,
		ProductCount: len(products),
		HTML:         RenderMarkdown(narrative),
	}, nil
}

func (e *ComparisonEngine) narrate(ctx context.Context, products []domain.Product) (string, error) {
	session, err := e.model.CreateSession(ctx, ComparisonSystemPrompt)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	defer session.Destroy()

	reply, err := session.Prompt(ctx, BuildComparisonPrompt(products))
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		return "", domain.ErrEmptyResponse
	}
	return reply, nil
}

func (e *ComparisonEngine) fallback(products []domain.Product, reason domain.FallbackReason) *domain.ComparisonArtifact {
	table := BuildComparisonTable(products, reason)
	e.metrics.ComparisonRendered(domain.ArtifactDeterministicTable, reason)

	return &domain.ComparisonArtifact{
		Kind:           domain.ArtifactDeterministicTable,
		ProductCount:   len(products),
		Text:           table.Text,
		Table:          table,
		FallbackReason: reason,
	}
}

// BuildComparisonPrompt embeds every product's name, best price and
// description in one comparison request
func BuildComparisonPrompt(products []domain.Product) string {
	converted := true
	blocks := make([]string, len(products))
	for i, p := range products {
		if !p.HasUSDPrice() {
			converted = false
		}
		description := p.Description
		if description == "" {
			description = "N/A"
		}
		blocks[i] = fmt.Sprintf("Product %d:\nName: %s\nPrice: %s\nDescription: %s",
			i+1, p.Name, promptPrice(p), description)
	}

	priceNote := "(all prices are already converted to USD for fair comparison)"
	if !converted {
		priceNote = "(prices are in USD where a conversion was available, otherwise as listed on the store)"
	}

	return "You are a helpful shopping assistant. Compare these products and provide a recommendation on which one offers the best value.\n\n" +
		strings.Join(blocks, "\n\n") +
		"\n\nPlease provide:\n" +
		"1. A brief comparison of key features\n" +
		"2. Price analysis " + priceNote + "\n" +
		"3. Your recommendation and why\n" +
		"4. Any important considerations\n\n" +
		"Keep your response concise and helpful."
}

func promptPrice(p domain.Product) string {
	switch {
	case p.HasUSDPrice() && p.CurrencyCode != "" && p.CurrencyCode != domain.CurrencyUSD:
		return fmt.Sprintf("USD $%.2f (original: %s %s)", *p.PriceUSD, p.CurrencyCode, p.PriceRaw)
	case p.HasUSDPrice():
		return fmt.Sprintf("USD $%.2f", *p.PriceUSD)
	default:
		return p.PriceRaw
	}
}
