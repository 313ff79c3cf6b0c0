package model

const (
	EstimateSourceRules = "rules"
	EstimateSourceAI    = "ai"
)

type BudgetEstimate struct {
	Min        int     `json:"min"`
	Max        int     `json:"max"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	Source     string  `json:"source"`
}
