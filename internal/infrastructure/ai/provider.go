// Package ai adapts hosted language models to the generative capability
// interfaces of the domain: prompt sessions, language detection, translation
// and summarization are all served by prompting the same chat model.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/betterbuy/backend/internal/domain"
)

// Provider names accepted by New
const (
	ProviderNone   = "none"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

const (
	roleUser      = "user"
	roleAssistant = "assistant"
)

type message struct {
	Role    string
	Content string
}

// completer sends one chat turn to a hosted model
type completer interface {
	Complete(ctx context.Context, system string, history []message) (string, error)
	Close() error
}

// Options configures a provider
type Options struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// Provider implements domain.LanguageModel, domain.LanguageDetector,
// domain.Translator and domain.Summarizer on top of one chat backend.
// A provider without a backend reports every capability as unavailable.
type Provider struct {
	name    string
	backend completer
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
}

// New builds the provider selected by opts.Provider
func New(ctx context.Context, opts Options) (*Provider, error) {
	switch opts.Provider {
	case "", ProviderNone:
		return NewUnavailable(), nil
	case ProviderOpenAI:
		return newProvider(ProviderOpenAI, newOpenAIBackend(opts), opts.Timeout), nil
	case ProviderGemini:
		backend, err := newGeminiBackend(ctx, opts)
		if err != nil {
			return nil, err
		}
		return newProvider(ProviderGemini, backend, opts.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", opts.Provider)
	}
}

// NewUnavailable returns a provider whose capabilities are all unavailable
func NewUnavailable() *Provider {
	return &Provider{name: ProviderNone}
}

func newProvider(name string, backend completer, timeout time.Duration) *Provider {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Provider{name: name, backend: backend, timeout: timeout}
}

// Name returns the configured provider name
func (p *Provider) Name() string {
	return p.name
}

// Availability reports whether the backing model can be called now
func (p *Provider) Availability(ctx context.Context) domain.Availability {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.backend == nil || p.closed {
		return domain.AvailabilityUnavailable
	}
	return domain.AvailabilityAvailable
}

// Close releases the backend. Afterwards every capability is unavailable.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.backend == nil {
		p.closed = true
		return nil
	}
	p.closed = true
	return p.backend.Close()
}

func (p *Provider) complete(ctx context.Context, system string, history []message) (string, error) {
	if p.Availability(ctx) != domain.AvailabilityAvailable {
		return "", domain.ErrAIUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	text, err := p.backend.Complete(ctx, system, history)
	if err != nil {
		log.Warn().Err(err).Str("component", "ai").Str("provider", p.name).Msg("completion failed")
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.ErrEmptyResponse
	}

	log.Debug().
		Str("component", "ai").
		Str("provider", p.name).
		Dur("took", time.Since(start)).
		Int("chars", len(text)).
		Msg("completion finished")

	return text, nil
}

// CreateSession starts a conversation framed by systemPrompt
func (p *Provider) CreateSession(ctx context.Context, systemPrompt string) (domain.Session, error) {
	if p.Availability(ctx) != domain.AvailabilityAvailable {
		return nil, domain.ErrAIUnavailable
	}
	return &session{provider: p, system: systemPrompt}, nil
}

type session struct {
	provider *Provider
	system   string

	mu        sync.Mutex
	history   []message
	destroyed bool
}

func (s *session) Prompt(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return "", fmt.Errorf("%w: session destroyed", domain.ErrAIUnavailable)
	}

	turn := append(append([]message(nil), s.history...), message{Role: roleUser, Content: text})
	reply, err := s.provider.complete(ctx, s.system, turn)
	if err != nil {
		return "", err
	}

	s.history = append(turn, message{Role: roleAssistant, Content: reply})
	return reply, nil
}

func (s *session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
	s.history = nil
}

const detectSystemPrompt = `You identify the language of text. Reply only with a JSON array of ` +
	`objects {"language": "<ISO 639-1 code>", "confidence": <0..1>}, most likely first, at most 3 entries.`

// Detect ranks the probable languages of text, most confident first
func (p *Provider) Detect(ctx context.Context, text string) ([]domain.LanguageCandidate, error) {
	reply, err := p.complete(ctx, detectSystemPrompt, []message{{Role: roleUser, Content: text}})
	if err != nil {
		return nil, err
	}
	return parseCandidates(reply)
}

func parseCandidates(reply string) ([]domain.LanguageCandidate, error) {
	reply = stripCodeFence(reply)

	var candidates []domain.LanguageCandidate
	if err := json.Unmarshal([]byte(reply), &candidates); err != nil {
		var single domain.LanguageCandidate
		if errSingle := json.Unmarshal([]byte(reply), &single); errSingle != nil || single.Language == "" {
			return nil, fmt.Errorf("failed to parse language detection reply: %w", err)
		}
		candidates = []domain.LanguageCandidate{single}
	}

	out := candidates[:0]
	for _, c := range candidates {
		c.Language = strings.ToLower(strings.TrimSpace(c.Language))
		if c.Language == "" {
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, domain.ErrEmptyResponse
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// Translate translates text from source to target language codes
func (p *Provider) Translate(ctx context.Context, text, source, target string) (string, error) {
	system := fmt.Sprintf("You translate text from language %q to language %q. "+
		"Reply with the translation only, without notes or quotes.", source, target)
	return p.complete(ctx, system, []message{{Role: roleUser, Content: text}})
}

// Summarize condenses text following opts
func (p *Provider) Summarize(ctx context.Context, text string, opts domain.SummaryOptions) (string, error) {
	return p.complete(ctx, summarySystemPrompt(opts), []message{{Role: roleUser, Content: text}})
}

func summarySystemPrompt(opts domain.SummaryOptions) string {
	var b strings.Builder
	b.WriteString("You summarize text.")

	switch opts.Type {
	case "key-points":
		b.WriteString(" List the key points.")
	case "headline":
		b.WriteString(" Write a single headline.")
	default:
		b.WriteString(" Write a tl;dr.")
	}

	switch opts.Length {
	case "long":
		b.WriteString(" Use up to five sentences.")
	case "medium":
		b.WriteString(" Use up to three sentences.")
	default:
		b.WriteString(" Use one sentence.")
	}

	if opts.Format == "markdown" {
		b.WriteString(" Markdown is allowed.")
	} else {
		b.WriteString(" Reply in plain text without markdown.")
	}

	if opts.SharedContext != "" {
		b.WriteString(" Context: ")
		b.WriteString(opts.SharedContext)
		b.WriteString(".")
	}
	return b.String()
}
