package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"quotedesk/internal/ai"
	"quotedesk/internal/model"
	appErr "quotedesk/internal/pkg/errors"
)

const minDescriptionLength = 20

// ErrDescriptionTooShort is an explicit "no estimate" signal, distinct
// from a zero-value estimate.
var ErrDescriptionTooShort = errors.New("description too short for an estimate")

type budgetRange struct {
	min int
	max int
}

var serviceBaseRanges = map[string]budgetRange{
	model.ServiceWebsite:   {min: 500, max: 15000},
	model.ServiceWebshop:   {min: 1500, max: 30000},
	model.ServiceMarketing: {min: 300, max: 10000},
	model.ServiceDesign:    {min: 250, max: 7500},
	model.ServiceOther:     {min: 250, max: 20000},
}

var (
	highComplexityTerms = []string{
		"maatwerk", "koppeling", "integratie", "api", "platform", "meertalig",
		"migratie", "custom", "integration", "realtime", "multilingual", "migration",
	}
	lowComplexityTerms = []string{
		"simpel", "simpele", "eenvoudig", "eenvoudige", "klein", "kleine",
		"aanpassing", "simple", "basic", "small", "landing",
	}
	urgencyTerms = []string{"spoed", "urgent", "asap", "deadline", "zo snel mogelijk"}
)

// estimateStrategy produces an estimate or reports "try next" via error.
type estimateStrategy interface {
	name() string
	estimate(ctx context.Context, serviceType, description string) (*model.BudgetEstimate, error)
}

// Estimator produces a quick min/max budget indication. Strategies run in
// declared order: the AI path is strictly an enhancement, the rule-based
// path always succeeds, so a provider failure is invisible to the caller.
type Estimator struct {
	strategies []estimateStrategy
}

func NewEstimator(generator ai.IGenerator, timeout time.Duration) *Estimator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var strategies []estimateStrategy
	if generator != nil {
		strategies = append(strategies, &aiEstimate{generator: generator, timeout: timeout})
	}
	strategies = append(strategies, &ruleEstimate{})
	return &Estimator{strategies: strategies}
}

func (e *Estimator) Estimate(ctx context.Context, serviceType, description string) (*model.BudgetEstimate, error) {
	if !model.IsValidServiceType(serviceType) {
		return nil, appErr.ErrInvalid
	}
	if len(strings.TrimSpace(description)) < minDescriptionLength {
		return nil, ErrDescriptionTooShort
	}
	var lastErr error
	for _, strategy := range e.strategies {
		est, err := strategy.estimate(ctx, serviceType, description)
		if err == nil {
			return est, nil
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("estimate strategy failed, trying next",
			zap.String("strategy", strategy.name()), zap.Error(err))
	}
	return nil, lastErr
}

type ruleEstimate struct{}

func (s *ruleEstimate) name() string { return "rules" }

func (s *ruleEstimate) estimate(ctx context.Context, serviceType, description string) (*model.BudgetEstimate, error) {
	base := serviceBaseRanges[serviceType]
	lower := strings.ToLower(description)

	multiplier := 1.0
	confidence := 0.5
	var reasons []string

	if containsAny(lower, highComplexityTerms) {
		multiplier = 1.5
		confidence += 0.1
		reasons = append(reasons, "high-complexity indicators")
	} else if containsAny(lower, lowComplexityTerms) {
		multiplier = 0.7
		confidence += 0.1
		reasons = append(reasons, "low-complexity indicators")
	}
	if containsAny(lower, urgencyTerms) {
		multiplier *= 1.2
		reasons = append(reasons, "urgency surcharge")
	}
	if len(description) > 500 {
		multiplier *= 1.1
		confidence += 0.1
		reasons = append(reasons, "detailed description")
	}
	if confidence > 0.8 {
		confidence = 0.8
	}
	reasoning := "base range for " + serviceType
	if len(reasons) > 0 {
		reasoning += ": " + strings.Join(reasons, ", ")
	}
	return &model.BudgetEstimate{
		Min:        int(math.Round(float64(base.min) * multiplier)),
		Max:        int(math.Round(float64(base.max) * multiplier)),
		Confidence: confidence,
		Reasoning:  reasoning,
		Source:     model.EstimateSourceRules,
	}, nil
}

type aiEstimate struct {
	generator ai.IGenerator
	timeout   time.Duration
}

func (s *aiEstimate) name() string { return "ai" }

func (s *aiEstimate) estimate(ctx context.Context, serviceType, description string) (*model.BudgetEstimate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := fmt.Sprintf(`You are a budget estimator for a web agency.
Estimate a realistic budget range in euros for the request below and respond with ONLY a JSON object:
{"min": <int>, "max": <int>, "confidence": <float 0..1>, "reasoning": "<max 2 sentences>"}

SERVICE TYPE: %s
DESCRIPTION:
%s`, serviceType, description)

	resp, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var est model.BudgetEstimate
	if err := ai.DecodeJSONObject(resp, &est); err != nil {
		return nil, err
	}
	if est.Min < 0 || est.Max < est.Min {
		return nil, fmt.Errorf("invalid estimate range: %d..%d", est.Min, est.Max)
	}
	if est.Confidence < 0 || est.Confidence > 1 {
		return nil, fmt.Errorf("invalid estimate confidence: %f", est.Confidence)
	}
	est.Source = model.EstimateSourceAI
	return &est, nil
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
