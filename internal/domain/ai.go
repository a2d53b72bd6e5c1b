package domain

import "context"

// Availability is the tri-state signal reported by a generative capability
type Availability string

const (
	AvailabilityUnavailable  Availability = "unavailable"
	AvailabilityAvailable    Availability = "available"
	AvailabilityDownloadable Availability = "downloadable"
)

// LanguageModel creates prompt sessions against a generative model
type LanguageModel interface {
	Availability(ctx context.Context) Availability
	CreateSession(ctx context.Context, systemPrompt string) (Session, error)
}

// Session is a conversation with a generative model.
// Destroy releases the session and must be called once the caller is done.
type Session interface {
	Prompt(ctx context.Context, text string) (string, error)
	Destroy()
}

// LanguageCandidate is one ranked guess of a text's language
type LanguageCandidate struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// LanguageDetector ranks the probable languages of a text
type LanguageDetector interface {
	Availability(ctx context.Context) Availability
	Detect(ctx context.Context, text string) ([]LanguageCandidate, error)
}

// Translator translates text between two language codes
type Translator interface {
	Availability(ctx context.Context) Availability
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// SummaryOptions controls summarizer output
type SummaryOptions struct {
	Type          string // "tldr", "key-points", ...
	Length        string // "short", "medium", "long"
	Format        string // "plain-text" or "markdown"
	SharedContext string
}

// Summarizer condenses text
type Summarizer interface {
	Availability(ctx context.Context) Availability
	Summarize(ctx context.Context, text string, opts SummaryOptions) (string, error)
}
