package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"quotedesk/internal/ai"
	"quotedesk/internal/model"
	"quotedesk/internal/repo"
)

// QuoteFinder is the slice of the persistence collaborator the matcher
// needs: recency-ordered same-type listing and id-list fetches.
type QuoteFinder interface {
	GetByID(ctx context.Context, id string) (*model.QuoteRequest, error)
	ListByServiceType(ctx context.Context, serviceType string, limit int) ([]*model.QuoteRequest, error)
	ListByIDs(ctx context.Context, ids []string) ([]*model.QuoteRequest, error)
}

// VectorIndex is the optional vector-search collaborator; nil means absent.
type VectorIndex interface {
	Upsert(ctx context.Context, requestID, modelName string, embedding []float32, mtime int64) error
	Search(ctx context.Context, embedding []float32, serviceType, excludeID string, limit int, minScore float64) ([]repo.VectorMatch, error)
}

type SimilarityConfig struct {
	Limit        int
	MinScore     float64
	EmbedTimeout time.Duration
}

// SimilarityService finds comparable historical quote requests. The vector
// branch ranks by semantic similarity; when the backend is absent or finds
// nothing above the score threshold it degrades to the most recent requests
// of the same service type, tagged with nil scores so callers can tell the
// two sources apart.
type SimilarityService struct {
	quotes     QuoteFinder
	vectors    VectorIndex
	embedder   ai.IEmbedder
	embedCache *lru.Cache[string, []float32]
	cfg        SimilarityConfig
}

func NewSimilarityService(quotes QuoteFinder, vectors VectorIndex, embedder ai.IEmbedder, cfg SimilarityConfig) *SimilarityService {
	if cfg.Limit <= 0 {
		cfg.Limit = 5
	}
	if cfg.MinScore <= 0 {
		cfg.MinScore = 0.65
	}
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = 10 * time.Second
	}
	cache, _ := lru.New[string, []float32](512)
	return &SimilarityService{
		quotes:     quotes,
		vectors:    vectors,
		embedder:   embedder,
		embedCache: cache,
		cfg:        cfg,
	}
}

func (s *SimilarityService) FindSimilar(ctx context.Context, requestID string) ([]model.SimilarityResult, string, error) {
	req, err := s.quotes.GetByID(ctx, requestID)
	if err != nil {
		return nil, "", err
	}
	if s.vectors == nil || s.embedder == nil {
		return s.fallback(ctx, req)
	}

	embedding, err := s.embedQuery(ctx, similarityQuery(req))
	if err != nil {
		logutil.GetLogger(ctx).Warn("query embedding failed, using fallback", zap.Error(err))
		return s.fallback(ctx, req)
	}
	matches, err := s.vectors.Search(ctx, embedding, req.ServiceType, req.ID, s.cfg.Limit, s.cfg.MinScore)
	if err != nil {
		logutil.GetLogger(ctx).Warn("vector search failed, using fallback", zap.Error(err))
		return s.fallback(ctx, req)
	}
	if len(matches) == 0 {
		return s.fallback(ctx, req)
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.RequestID)
	}
	quotes, err := s.quotes.ListByIDs(ctx, ids)
	if err != nil {
		return nil, "", err
	}
	byID := make(map[string]*model.QuoteRequest, len(quotes))
	for _, q := range quotes {
		byID[q.ID] = q
	}
	// matches are already ordered by descending score; vector ranking takes
	// precedence over recency here.
	results := make([]model.SimilarityResult, 0, len(matches))
	for _, m := range matches {
		quote, ok := byID[m.RequestID]
		if !ok {
			continue
		}
		score := m.Score
		results = append(results, model.SimilarityResult{Quote: quote, Score: &score})
	}
	return results, model.SimilaritySourceVector, nil
}

// EmbedAndIndex computes and stores the embedding for a request so it
// becomes searchable. Used by the intake background path and the backfill
// job.
func (s *SimilarityService) EmbedAndIndex(ctx context.Context, req *model.QuoteRequest) error {
	if s.vectors == nil || s.embedder == nil {
		return nil
	}
	embedding, err := s.embedQuery(ctx, similarityQuery(req))
	if err != nil {
		return err
	}
	return s.vectors.Upsert(ctx, req.ID, s.embedder.ModelName(), embedding, time.Now().Unix())
}

func (s *SimilarityService) fallback(ctx context.Context, req *model.QuoteRequest) ([]model.SimilarityResult, string, error) {
	// Fetch one extra so the request itself can be filtered out.
	quotes, err := s.quotes.ListByServiceType(ctx, req.ServiceType, s.cfg.Limit+1)
	if err != nil {
		return nil, "", err
	}
	results := make([]model.SimilarityResult, 0, s.cfg.Limit)
	for _, q := range quotes {
		if q.ID == req.ID {
			continue
		}
		results = append(results, model.SimilarityResult{Quote: q})
		if len(results) >= s.cfg.Limit {
			break
		}
	}
	return results, model.SimilaritySourceFallback, nil
}

func (s *SimilarityService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	cacheKey := hashQuery(query)
	if cached, ok := s.embedCache.Get(cacheKey); ok {
		return cached, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.EmbedTimeout)
	defer cancel()
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	s.embedCache.Add(cacheKey, embedding)
	return embedding, nil
}

func similarityQuery(req *model.QuoteRequest) string {
	parts := []string{req.Description, req.ServiceType}
	if req.Company != "" {
		parts = append(parts, req.Company)
	}
	return strings.Join(parts, "\n")
}

func hashQuery(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])
}
