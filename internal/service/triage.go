package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quotedesk/internal/ai"
	"quotedesk/internal/kvstore"
	"quotedesk/internal/model"
	appErr "quotedesk/internal/pkg/errors"
)

const keyAnalysis = "analysis:"

type TriageConfig struct {
	CacheTTL time.Duration
	Timeout  time.Duration
}

// TriageService computes-or-retrieves the AI-assisted classification staff
// use to prioritize requests. A valid cache entry is authoritative: hits
// never touch the provider, and a failed recompute never clobbers one.
type TriageService struct {
	store     kvstore.Store
	generator ai.IGenerator
	cfg       TriageConfig
	now       func() time.Time
}

func NewTriageService(store kvstore.Store, generator ai.IGenerator, cfg TriageConfig) *TriageService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 90 * 24 * time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &TriageService{store: store, generator: generator, cfg: cfg, now: time.Now}
}

// GetCached returns the cached analysis or ErrNotFound. It never computes.
func (s *TriageService) GetCached(ctx context.Context, requestID string) (*model.TriageAnalysis, error) {
	raw, err := s.store.Get(ctx, keyAnalysis+requestID)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var analysis model.TriageAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// Compute returns the cached analysis when present (unless force), else
// asks the provider and caches the result. An unconfigured provider yields
// ErrProviderUnavailable; compute failures are never cached.
func (s *TriageService) Compute(ctx context.Context, req *model.QuoteRequest, force bool) (*model.TriageAnalysis, error) {
	if !force {
		analysis, err := s.GetCached(ctx, req.ID)
		if err == nil {
			return analysis, nil
		}
		if !errors.Is(err, appErr.ErrNotFound) {
			return nil, err
		}
	}
	if s.generator == nil {
		return nil, appErr.ErrProviderUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	resp, err := s.generator.Generate(ctx, triagePrompt(req))
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			return nil, appErr.ErrProviderUnavailable
		}
		return nil, err
	}
	analysis, err := parseTriageResponse(resp)
	if err != nil {
		return nil, err
	}
	analysis.RequestID = req.ID
	analysis.Ctime = s.now().Unix()

	data, err := json.Marshal(analysis)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, keyAnalysis+req.ID, string(data), s.cfg.CacheTTL); err != nil {
		return nil, err
	}
	return analysis, nil
}

func triagePrompt(req *model.QuoteRequest) string {
	return fmt.Sprintf(`You are a triage assistant for a web agency CRM.
Classify the quote request below and respond with ONLY a JSON object of this exact shape:
{"complexity": "low|medium|high", "budget_min": <int, euros>, "budget_max": <int, euros>, "confidence": <float 0..1>, "reasoning": "<max 2 sentences>"}

SERVICE TYPE: %s
COMPANY: %s
BUDGET HINT: %s
DESCRIPTION:
%s`, req.ServiceType, req.Company, req.BudgetHint, req.Description)
}

func parseTriageResponse(resp string) (*model.TriageAnalysis, error) {
	var analysis model.TriageAnalysis
	if err := ai.DecodeJSONObject(resp, &analysis); err != nil {
		return nil, err
	}
	switch analysis.Complexity {
	case model.ComplexityLow, model.ComplexityMedium, model.ComplexityHigh:
	default:
		return nil, fmt.Errorf("invalid complexity tier: %q", analysis.Complexity)
	}
	if analysis.BudgetMin < 0 || analysis.BudgetMax < analysis.BudgetMin {
		return nil, fmt.Errorf("invalid budget range: %d..%d", analysis.BudgetMin, analysis.BudgetMax)
	}
	if analysis.Confidence < 0 || analysis.Confidence > 1 {
		return nil, fmt.Errorf("invalid confidence: %f", analysis.Confidence)
	}
	return &analysis, nil
}
