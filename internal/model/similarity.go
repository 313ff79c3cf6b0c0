package model

const (
	SimilaritySourceVector   = "vector"
	SimilaritySourceFallback = "fallback"
)

// SimilarityResult pairs a historical quote request with its similarity
// score. Score is nil for fallback-source results, where no semantic
// ranking exists.
type SimilarityResult struct {
	Quote *QuoteRequest `json:"quote"`
	Score *float64      `json:"score"`
}
