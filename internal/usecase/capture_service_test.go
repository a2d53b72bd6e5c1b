package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/betterbuy/backend/internal/domain"
	"github.com/betterbuy/backend/internal/infrastructure/document"
)

type fakeFetcher struct {
	pages map[string]string
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.pages[url], nil
}

const germanDescription = "Eine robuste Trinkflasche aus Edelstahl, die Getränke vierundzwanzig Stunden lang kalt hält."

func capturePage(description string) string {
	return `<html><head><title>Flasche</title>` +
		`<meta name="description" content="` + description + `"></head>` +
		`<body><h1 class="product-name">Trinkflasche</h1><div class="price">€20.00</div></body></html>`
}

func newTestCaptureService(fetcher domain.PageFetcher, ai CaptureCapabilities, metrics domain.MetricsRecorder) (*CaptureService, *memoryCart) {
	repo := &memoryCart{}
	cart := NewCartService(repo, NewComparisonEngine(nil, nil))
	svc := NewCaptureService(document.Parser{}, fetcher, newTestExtractor(nil), ai, cart, metrics)
	return svc, repo
}

func TestCaptureService_Validation(t *testing.T) {
	svc, _ := newTestCaptureService(nil, CaptureCapabilities{}, nil)
	ctx := context.Background()

	testCases := []struct {
		name string
		req  *domain.CaptureRequest
	}{
		{name: "nil request", req: nil},
		{name: "blank url", req: &domain.CaptureRequest{URL: "  ", HTML: "<html></html>"}},
		{name: "no markup and no fetcher", req: &domain.CaptureRequest{URL: "https://www.amazon.de/dp/1"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Capture(ctx, tc.req); !errors.Is(err, domain.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestCaptureService_FetchesWhenMarkupMissing(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]string{
		"https://www.amazon.de/dp/1": capturePage("Short"),
	}}
	svc, _ := newTestCaptureService(fetcher, CaptureCapabilities{}, nil)

	p, err := svc.Capture(context.Background(), &domain.CaptureRequest{URL: "https://www.amazon.de/dp/1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("expected 1 fetch, got %d", fetcher.calls)
	}
	if p.Name != "Trinkflasche" || p.PriceRaw != "€20.00" || p.CurrencyCode != domain.CurrencyEUR {
		t.Errorf("unexpected product %+v", p)
	}

	fetcher.err = domain.ErrDocumentUnavailable
	if _, err := svc.Capture(context.Background(), &domain.CaptureRequest{URL: "https://www.amazon.de/dp/1"}); !errors.Is(err, domain.ErrDocumentUnavailable) {
		t.Errorf("expected ErrDocumentUnavailable, got %v", err)
	}
}

func TestCaptureService_SuppliedMarkupSkipsFetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	svc, _ := newTestCaptureService(fetcher, CaptureCapabilities{}, nil)

	_, err := svc.Capture(context.Background(), &domain.CaptureRequest{
		URL:  "https://www.amazon.de/dp/1",
		HTML: capturePage("Short"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fetcher.calls != 0 {
		t.Errorf("expected no fetch, got %d", fetcher.calls)
	}
}

func TestCaptureService_Enrichment(t *testing.T) {
	available := domain.AvailabilityAvailable

	testCases := []struct {
		name          string
		description   string
		ai            *fakeCapabilities
		wantDesc      string
		wantTranslate int
		wantSummarize int
		wantEnriched  bool
	}{
		{
			name:        "translate then summarize",
			description: germanDescription,
			ai: &fakeCapabilities{
				availability: available,
				languages:    []domain.LanguageCandidate{{Language: "de", Confidence: 0.93}},
				translation:  "A sturdy stainless steel bottle that keeps drinks cold for twenty-four hours.",
				summary:      "Steel bottle, cold for 24h.",
			},
			wantDesc:      "Steel bottle, cold for 24h.",
			wantTranslate: 1,
			wantSummarize: 1,
			wantEnriched:  true,
		},
		{
			name:        "english is not translated",
			description: germanDescription,
			ai: &fakeCapabilities{
				availability: available,
				languages:    []domain.LanguageCandidate{{Language: "en", Confidence: 0.99}},
				summary:      "Summary.",
			},
			wantDesc:      "Summary.",
			wantSummarize: 1,
			wantEnriched:  true,
		},
		{
			name:        "low confidence is not translated",
			description: germanDescription,
			ai: &fakeCapabilities{
				availability: available,
				languages:    []domain.LanguageCandidate{{Language: "de", Confidence: 0.3}},
				summary:      "Summary.",
			},
			wantDesc:      "Summary.",
			wantSummarize: 1,
			wantEnriched:  true,
		},
		{
			name:        "failed steps keep the text",
			description: germanDescription,
			ai: &fakeCapabilities{
				availability: available,
				languages:    []domain.LanguageCandidate{{Language: "de", Confidence: 0.9}},
				translateErr: errors.New("translator crashed"),
				summarizeErr: errors.New("summarizer crashed"),
			},
			wantDesc:      germanDescription,
			wantTranslate: 1,
			wantSummarize: 1,
		},
		{
			name:        "downloadable capabilities are skipped",
			description: germanDescription,
			ai: &fakeCapabilities{
				availability: domain.AvailabilityDownloadable,
				summary:      "never",
			},
			wantDesc: germanDescription,
		},
		{
			name:        "short descriptions are left alone",
			description: "Stainless steel bottle, 750 ml.",
			ai: &fakeCapabilities{
				availability: available,
				languages:    []domain.LanguageCandidate{{Language: "de", Confidence: 0.9}},
				summary:      "never",
			},
			wantDesc: "Stainless steel bottle, 750 ml.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			metrics := &recordingMetrics{}
			svc, _ := newTestCaptureService(nil, CaptureCapabilities{
				Detector:   tc.ai,
				Translator: tc.ai,
				Summarizer: tc.ai,
			}, metrics)

			p, err := svc.Capture(context.Background(), &domain.CaptureRequest{
				URL:  "https://www.amazon.de/dp/1",
				HTML: capturePage(tc.description),
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if p.Description != tc.wantDesc {
				t.Errorf("Description = %q, want %q", p.Description, tc.wantDesc)
			}
			if tc.ai.translateCalls != tc.wantTranslate {
				t.Errorf("translate calls = %d, want %d", tc.ai.translateCalls, tc.wantTranslate)
			}
			if tc.ai.summarizeCalls != tc.wantSummarize {
				t.Errorf("summarize calls = %d, want %d", tc.ai.summarizeCalls, tc.wantSummarize)
			}
			if len(metrics.captures) != 1 || metrics.captures[0] != tc.wantEnriched {
				t.Errorf("captures = %v, want [%v]", metrics.captures, tc.wantEnriched)
			}
		})
	}
}

func TestCaptureService_SummarizesTranslatedText(t *testing.T) {
	ai := &fakeCapabilities{
		availability: domain.AvailabilityAvailable,
		languages:    []domain.LanguageCandidate{{Language: "fr", Confidence: 0.8}},
		translation:  "  translated text  ",
		summary:      "short",
	}
	svc, _ := newTestCaptureService(nil, CaptureCapabilities{Detector: ai, Translator: ai, Summarizer: ai}, nil)

	_, err := svc.Capture(context.Background(), &domain.CaptureRequest{
		URL:  "https://www.amazon.fr/dp/1",
		HTML: capturePage(germanDescription),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ai.translatedFrom != "fr" {
		t.Errorf("translated from %q, want fr", ai.translatedFrom)
	}
	if ai.summarizedText != "translated text" {
		t.Errorf("summarized %q, want the translated text", ai.summarizedText)
	}
	want := domain.SummaryOptions{Type: "tldr", Length: "short", Format: "plain-text", SharedContext: summarySharedContext}
	if ai.summaryOpts != want {
		t.Errorf("summary options = %+v", ai.summaryOpts)
	}
}

func TestCaptureService_NoCapabilities(t *testing.T) {
	svc, _ := newTestCaptureService(nil, CaptureCapabilities{}, nil)

	p, err := svc.Capture(context.Background(), &domain.CaptureRequest{
		URL:  "https://www.amazon.de/dp/1",
		HTML: capturePage(germanDescription),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Description != germanDescription {
		t.Errorf("Description = %q", p.Description)
	}
}

func TestCaptureService_CaptureToCart(t *testing.T) {
	svc, repo := newTestCaptureService(nil, CaptureCapabilities{}, nil)
	ctx := context.Background()

	p, err := svc.CaptureToCart(ctx, &domain.CaptureRequest{
		URL:  "https://www.amazon.de/dp/1",
		HTML: capturePage("Short"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.items) != 1 || repo.items[0].ID != p.ID {
		t.Errorf("expected the captured product in the cart, got %+v", repo.items)
	}

	if _, err := svc.CaptureToCart(ctx, &domain.CaptureRequest{URL: "https://www.amazon.de/dp/2"}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest without markup, got %v", err)
	}
	if len(repo.items) != 1 {
		t.Errorf("a failed capture must not touch the cart, got %d items", len(repo.items))
	}
	if !strings.Contains(p.URL, "amazon.de") {
		t.Errorf("URL = %q", p.URL)
	}
}
