package domain

// ArtifactKind identifies which comparison path produced an artifact
type ArtifactKind string

const (
	ArtifactAINarrative        ArtifactKind = "ai_narrative"
	ArtifactDeterministicTable ArtifactKind = "deterministic_table"
)

// FallbackReason explains why the deterministic table was produced
type FallbackReason string

const (
	FallbackNone        FallbackReason = ""
	FallbackUnavailable FallbackReason = "ai_unavailable"
	FallbackFailed      FallbackReason = "ai_failed"
)

// ComparisonArtifact is the rendered result of one comparison request.
// Exactly one of HTML (AI narrative) or Table/Text (deterministic) is set.
type ComparisonArtifact struct {
	Kind           ArtifactKind     `json:"kind"`
	ProductCount   int              `json:"productCount"`
	HTML           string           `json:"html,omitempty"`
	Text           string           `json:"text,omitempty"`
	Table          *ComparisonTable `json:"table,omitempty"`
	FallbackReason FallbackReason   `json:"fallbackReason,omitempty"`
}

// ComparisonRow is one product block in the deterministic table
type ComparisonRow struct {
	Position    int      `json:"position"` // 1-based
	Name        string   `json:"name"`
	PriceRaw    string   `json:"price"`
	Description string   `json:"description"`
	Price       *float64 `json:"priceValue,omitempty"` // first numeric token of PriceRaw
}

// ComparisonTable is the structured output of the deterministic comparator
type ComparisonTable struct {
	Rows          []ComparisonRow `json:"rows"`
	CheapestIndex int             `json:"cheapestIndex"` // -1 when no price could be read
	Text          string          `json:"text"`
}

// Cheapest returns the cheapest row, if one could be determined
func (t *ComparisonTable) Cheapest() (*ComparisonRow, bool) {
	if t == nil || t.CheapestIndex < 0 || t.CheapestIndex >= len(t.Rows) {
		return nil, false
	}
	return &t.Rows[t.CheapestIndex], true
}
