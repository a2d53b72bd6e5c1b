package domain

// MetricsRecorder receives pipeline counters
type MetricsRecorder interface {
	ComparisonRendered(kind ArtifactKind, reason FallbackReason)
	RateRefresh(result string)
	ProductCaptured(enriched bool)
	StrategyMatched(attribute, strategy string)
}

// NopMetrics discards all counters
type NopMetrics struct{}

func (NopMetrics) ComparisonRendered(ArtifactKind, FallbackReason) {}
func (NopMetrics) RateRefresh(string)                              {}
func (NopMetrics) ProductCaptured(bool)                            {}
func (NopMetrics) StrategyMatched(string, string)                  {}
