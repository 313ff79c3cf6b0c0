package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"quotedesk/internal/model"
	appErr "quotedesk/internal/pkg/errors"
	"quotedesk/internal/repo"
)

type fakeQuoteFinder struct {
	byID   map[string]*model.QuoteRequest
	byType []*model.QuoteRequest
}

func (f *fakeQuoteFinder) GetByID(ctx context.Context, id string) (*model.QuoteRequest, error) {
	q, ok := f.byID[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return q, nil
}

func (f *fakeQuoteFinder) ListByServiceType(ctx context.Context, serviceType string, limit int) ([]*model.QuoteRequest, error) {
	out := make([]*model.QuoteRequest, 0, limit)
	for _, q := range f.byType {
		if q.ServiceType != serviceType {
			continue
		}
		out = append(out, q)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeQuoteFinder) ListByIDs(ctx context.Context, ids []string) ([]*model.QuoteRequest, error) {
	out := make([]*model.QuoteRequest, 0, len(ids))
	for _, id := range ids {
		if q, ok := f.byID[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

type fakeVectorIndex struct {
	matches   []repo.VectorMatch
	searchErr error
	upserts   []string
}

func (f *fakeVectorIndex) Upsert(ctx context.Context, requestID, modelName string, embedding []float32, mtime int64) error {
	f.upserts = append(f.upserts, requestID)
	return nil
}

func (f *fakeVectorIndex) Search(ctx context.Context, embedding []float32, serviceType, excludeID string, limit int, minScore float64) ([]repo.VectorMatch, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.matches, nil
}

type fakeEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-embed" }

func similarityQuotes() *fakeQuoteFinder {
	target := &model.QuoteRequest{ID: "req-1", ServiceType: model.ServiceWebsite, Description: "website voor kapper"}
	a := &model.QuoteRequest{ID: "req-2", ServiceType: model.ServiceWebsite, Description: "website voor restaurant"}
	b := &model.QuoteRequest{ID: "req-3", ServiceType: model.ServiceWebsite, Description: "website voor sportschool"}
	other := &model.QuoteRequest{ID: "req-4", ServiceType: model.ServiceWebshop, Description: "webshop"}
	return &fakeQuoteFinder{
		byID:   map[string]*model.QuoteRequest{"req-1": target, "req-2": a, "req-3": b, "req-4": other},
		byType: []*model.QuoteRequest{target, a, b, other},
	}
}

func TestFindSimilarVectorRankingWins(t *testing.T) {
	quotes := similarityQuotes()
	index := &fakeVectorIndex{matches: []repo.VectorMatch{
		{RequestID: "req-3", Score: 0.91},
		{RequestID: "req-2", Score: 0.72},
	}}
	svc := NewSimilarityService(quotes, index, &fakeEmbedder{vec: []float32{0.1, 0.2}}, SimilarityConfig{})

	results, source, err := svc.FindSimilar(context.Background(), "req-1")
	require.NoError(t, err)
	require.Equal(t, model.SimilaritySourceVector, source)
	require.Len(t, results, 2)

	// Order follows descending score, not recency.
	require.Equal(t, "req-3", results[0].Quote.ID)
	require.NotNil(t, results[0].Score)
	require.InDelta(t, 0.91, *results[0].Score, 1e-9)
	require.Equal(t, "req-2", results[1].Quote.ID)
	require.InDelta(t, 0.72, *results[1].Score, 1e-9)
}

func TestFindSimilarNoVectorBackendFallsBack(t *testing.T) {
	svc := NewSimilarityService(similarityQuotes(), nil, nil, SimilarityConfig{})

	results, source, err := svc.FindSimilar(context.Background(), "req-1")
	require.NoError(t, err)
	require.Equal(t, model.SimilaritySourceFallback, source)
	require.Len(t, results, 2)
	for _, r := range results {
		require.Equal(t, model.ServiceWebsite, r.Quote.ServiceType)
		require.NotEqual(t, "req-1", r.Quote.ID)
		require.Nil(t, r.Score)
	}
}

func TestFindSimilarEmptyVectorResultFallsBack(t *testing.T) {
	svc := NewSimilarityService(similarityQuotes(), &fakeVectorIndex{}, &fakeEmbedder{vec: []float32{0.1}}, SimilarityConfig{})

	results, source, err := svc.FindSimilar(context.Background(), "req-1")
	require.NoError(t, err)
	require.Equal(t, model.SimilaritySourceFallback, source)
	require.Len(t, results, 2)
}

func TestFindSimilarSearchErrorFallsBack(t *testing.T) {
	index := &fakeVectorIndex{searchErr: errors.New("pgvector down")}
	svc := NewSimilarityService(similarityQuotes(), index, &fakeEmbedder{vec: []float32{0.1}}, SimilarityConfig{})

	_, source, err := svc.FindSimilar(context.Background(), "req-1")
	require.NoError(t, err)
	require.Equal(t, model.SimilaritySourceFallback, source)
}

func TestFindSimilarEmbedErrorFallsBack(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("embedding quota exceeded")}
	svc := NewSimilarityService(similarityQuotes(), &fakeVectorIndex{}, embedder, SimilarityConfig{})

	_, source, err := svc.FindSimilar(context.Background(), "req-1")
	require.NoError(t, err)
	require.Equal(t, model.SimilaritySourceFallback, source)
}

func TestFindSimilarUnknownRequest(t *testing.T) {
	svc := NewSimilarityService(similarityQuotes(), nil, nil, SimilarityConfig{})
	_, _, err := svc.FindSimilar(context.Background(), "missing")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestFindSimilarEmbeddingCached(t *testing.T) {
	embedder := &fakeEmbedder{vec: []float32{0.5}}
	index := &fakeVectorIndex{matches: []repo.VectorMatch{{RequestID: "req-2", Score: 0.8}}}
	svc := NewSimilarityService(similarityQuotes(), index, embedder, SimilarityConfig{})
	ctx := context.Background()

	_, _, err := svc.FindSimilar(ctx, "req-1")
	require.NoError(t, err)
	_, _, err = svc.FindSimilar(ctx, "req-1")
	require.NoError(t, err)
	require.Equal(t, 1, embedder.calls)
}

func TestEmbedAndIndex(t *testing.T) {
	quotes := similarityQuotes()
	index := &fakeVectorIndex{}
	svc := NewSimilarityService(quotes, index, &fakeEmbedder{vec: []float32{0.1}}, SimilarityConfig{})

	require.NoError(t, svc.EmbedAndIndex(context.Background(), quotes.byID["req-2"]))
	require.Equal(t, []string{"req-2"}, index.upserts)

	// Without a backend indexing is a silent no-op.
	bare := NewSimilarityService(quotes, nil, nil, SimilarityConfig{})
	require.NoError(t, bare.EmbedAndIndex(context.Background(), quotes.byID["req-2"]))
}
