package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"quotedesk/internal/repo"
	"quotedesk/internal/service"
)

// EmbeddingBackfillJob embeds quote requests that predate the vector index
// (or whose background embedding failed) so they become searchable.
type EmbeddingBackfillJob struct {
	vectors    *repo.VectorRepo
	similarity *service.SimilarityService
	batchSize  int
}

func NewEmbeddingBackfillJob(vectors *repo.VectorRepo, similarity *service.SimilarityService, batchSize int) *EmbeddingBackfillJob {
	if batchSize <= 0 {
		batchSize = 20
	}
	return &EmbeddingBackfillJob{vectors: vectors, similarity: similarity, batchSize: batchSize}
}

func (j *EmbeddingBackfillJob) Name() string {
	return "embedding_backfill"
}

func (j *EmbeddingBackfillJob) Run(ctx context.Context) error {
	quotes, err := j.vectors.ListUnembedded(ctx, j.batchSize)
	if err != nil {
		return err
	}
	for _, quote := range quotes {
		if err := j.similarity.EmbedAndIndex(ctx, quote); err != nil {
			// One bad request should not block the rest of the batch.
			logutil.GetLogger(ctx).Warn("backfill embedding failed",
				zap.String("request_id", quote.ID), zap.Error(err))
		}
	}
	return nil
}
