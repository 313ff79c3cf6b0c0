package model

const (
	ComplexityLow    = "low"
	ComplexityMedium = "medium"
	ComplexityHigh   = "high"
)

// TriageAnalysis is the AI-assisted classification staff use to prioritize
// incoming quote requests.
type TriageAnalysis struct {
	RequestID  string  `json:"request_id"`
	Complexity string  `json:"complexity"`
	BudgetMin  int     `json:"budget_min"`
	BudgetMax  int     `json:"budget_max"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	Ctime      int64   `json:"ctime"`
}
