package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/betterbuy/backend/internal/domain"
)

func TestComparisonEngine_RequiresTwoProducts(t *testing.T) {
	model := &fakeModel{availability: domain.AvailabilityAvailable, reply: "ok"}
	metrics := &recordingMetrics{}
	engine := NewComparisonEngine(model, metrics)

	for _, products := range [][]domain.Product{nil, productsWithPrices("$1")} {
		artifact, err := engine.Compare(context.Background(), products)
		if !errors.Is(err, domain.ErrNotEnoughProducts) {
			t.Errorf("expected ErrNotEnoughProducts, got %v", err)
		}
		if artifact != nil {
			t.Errorf("expected no artifact, got %+v", artifact)
		}
	}

	if model.sessions != 0 || len(metrics.comparisons) != 0 {
		t.Errorf("no path should run: sessions=%d comparisons=%v", model.sessions, metrics.comparisons)
	}
}

func TestComparisonEngine_Unavailable(t *testing.T) {
	testCases := []struct {
		name  string
		model domain.LanguageModel
	}{
		{name: "nil model", model: nil},
		{name: "unavailable model", model: &fakeModel{availability: domain.AvailabilityUnavailable, reply: "never"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			metrics := &recordingMetrics{}
			engine := NewComparisonEngine(tc.model, metrics)

			artifact, err := engine.Compare(context.Background(), productsWithPrices("$10", "$7.50", "N/A"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if artifact.Kind != domain.ArtifactDeterministicTable || artifact.FallbackReason != domain.FallbackUnavailable {
				t.Errorf("unexpected artifact %s/%s", artifact.Kind, artifact.FallbackReason)
			}
			if artifact.HTML != "" {
				t.Error("deterministic artifact must not carry HTML")
			}
			if artifact.Table == nil || artifact.Table.CheapestIndex != 1 || artifact.Text != artifact.Table.Text {
				t.Errorf("unexpected table %+v", artifact.Table)
			}
			if artifact.ProductCount != 3 {
				t.Errorf("ProductCount = %d", artifact.ProductCount)
			}
			if fm, ok := tc.model.(*fakeModel); ok && fm.sessions != 0 {
				t.Errorf("an unavailable model must not be prompted, got %d sessions", fm.sessions)
			}
			if len(metrics.comparisons) != 1 || metrics.comparisons[0] != "deterministic_table/ai_unavailable" {
				t.Errorf("comparisons = %v", metrics.comparisons)
			}
		})
	}
}

func TestComparisonEngine_Narrative(t *testing.T) {
	testCases := []struct {
		name         string
		availability domain.Availability
	}{
		{name: "available", availability: domain.AvailabilityAvailable},
		{name: "downloadable", availability: domain.AvailabilityDownloadable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			model := &fakeModel{availability: tc.availability, reply: "**Product 2** is the better deal\n* cheaper"}
			metrics := &recordingMetrics{}
			engine := NewComparisonEngine(model, metrics)

			artifact, err := engine.Compare(context.Background(), productsWithPrices("$10", "$7.50"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if artifact.Kind != domain.ArtifactAINarrative {
				t.Fatalf("Kind = %s", artifact.Kind)
			}
			if !strings.Contains(artifact.HTML, "<strong>Product 2</strong>") {
				t.Errorf("HTML = %q", artifact.HTML)
			}
			if artifact.Table != nil || artifact.Text != "" || artifact.FallbackReason != domain.FallbackNone {
				t.Error("narrative artifact must not carry the table")
			}
			if model.sessions != 1 || model.destroyed != 1 {
				t.Errorf("sessions=%d destroyed=%d, want 1/1", model.sessions, model.destroyed)
			}
			if len(model.prompts) != 1 || model.systems[0] != ComparisonSystemPrompt {
				t.Errorf("expected a single prompt in one session")
			}
			if len(metrics.comparisons) != 1 || metrics.comparisons[0] != "ai_narrative/" {
				t.Errorf("comparisons = %v", metrics.comparisons)
			}
		})
	}
}

func TestComparisonEngine_FailureFallsBack(t *testing.T) {
	testCases := []struct {
		name          string
		model         *fakeModel
		wantDestroyed int
	}{
		{
			name:          "session creation fails",
			model:         &fakeModel{availability: domain.AvailabilityAvailable, createErr: errors.New("quota")},
			wantDestroyed: 0,
		},
		{
			name:          "prompt fails",
			model:         &fakeModel{availability: domain.AvailabilityAvailable, promptErr: context.DeadlineExceeded},
			wantDestroyed: 1,
		},
		{
			name:          "empty reply",
			model:         &fakeModel{availability: domain.AvailabilityAvailable, reply: "  \n "},
			wantDestroyed: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			metrics := &recordingMetrics{}
			engine := NewComparisonEngine(tc.model, metrics)

			artifact, err := engine.Compare(context.Background(), productsWithPrices("$10", "$7.50"))
			if err != nil {
				t.Fatalf("failures must not surface, got %v", err)
			}

			if artifact.Kind != domain.ArtifactDeterministicTable || artifact.FallbackReason != domain.FallbackFailed {
				t.Errorf("unexpected artifact %s/%s", artifact.Kind, artifact.FallbackReason)
			}
			if !strings.Contains(artifact.Text, "could not be completed") {
				t.Error("expected the failure footer")
			}
			if tc.model.destroyed != tc.wantDestroyed {
				t.Errorf("destroyed = %d, want %d", tc.model.destroyed, tc.wantDestroyed)
			}
			if len(tc.model.prompts) > 1 {
				t.Errorf("expected at most one attempt, got %d prompts", len(tc.model.prompts))
			}
			if len(metrics.comparisons) != 1 || metrics.comparisons[0] != "deterministic_table/ai_failed" {
				t.Errorf("comparisons = %v", metrics.comparisons)
			}
		})
	}
}

func TestBuildComparisonPrompt(t *testing.T) {
	products := []domain.Product{
		{Name: "Kettle", PriceRaw: "€20,00", CurrencyCode: domain.CurrencyEUR, PriceUSD: float(21.5), Description: "Steel kettle"},
		{Name: "Toaster", PriceRaw: "$30", CurrencyCode: domain.CurrencyUSD, PriceUSD: float(30)},
		{Name: "Blender", PriceRaw: "N/A", CurrencyCode: domain.CurrencyGBP},
	}

	prompt := BuildComparisonPrompt(products)

	for _, want := range []string{
		"Product 1:\nName: Kettle\nPrice: USD $21.50 (original: EUR €20,00)\nDescription: Steel kettle",
		"Product 2:\nName: Toaster\nPrice: USD $30.00\nDescription: N/A",
		"Product 3:\nName: Blender\nPrice: N/A\nDescription: N/A",
		"prices are in USD where a conversion was available, otherwise as listed on the store",
		"Keep your response concise and helpful.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "all prices are already converted") {
		t.Errorf("prompt claims every price is in USD although one is not:\n%s", prompt)
	}

	converted := BuildComparisonPrompt(products[:2])
	if !strings.Contains(converted, "all prices are already converted to USD for fair comparison") {
		t.Errorf("fully converted prompt missing the USD note:\n%s", converted)
	}
}
