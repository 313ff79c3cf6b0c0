package repo

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"

	"quotedesk/internal/model"
)

// VectorRepo stores quote-request embeddings in a pgvector column and runs
// cosine-similarity searches against them. Vector operators cannot be
// expressed through the query builder, so this repo uses raw SQL.
type VectorRepo struct {
	db *sql.DB
}

func NewVectorRepo(db *sql.DB) *VectorRepo {
	return &VectorRepo{db: db}
}

type VectorMatch struct {
	RequestID string
	Score     float64
}

func (r *VectorRepo) Upsert(ctx context.Context, requestID, modelName string, embedding []float32, mtime int64) error {
	const query = `
		INSERT INTO quote_embeddings (request_id, model, embedding, mtime)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (request_id)
		DO UPDATE SET model = $2, embedding = $3, mtime = $4
	`
	_, err := r.db.ExecContext(ctx, query, requestID, modelName, pgvector.NewVector(embedding), mtime)
	return err
}

// Search returns requests ranked by cosine similarity, best first. Results
// below minScore are dropped. excludeID keeps the request being matched out
// of its own result set.
func (r *VectorRepo) Search(ctx context.Context, embedding []float32, serviceType, excludeID string, limit int, minScore float64) ([]VectorMatch, error) {
	const query = `
		SELECT e.request_id, 1 - (e.embedding <=> $1) AS score
		FROM quote_embeddings e
		JOIN quote_requests q ON q.id = e.request_id
		WHERE q.service_type = $2 AND e.request_id <> $3 AND 1 - (e.embedding <=> $1) >= $4
		ORDER BY e.embedding <=> $1
		LIMIT $5
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(embedding), serviceType, excludeID, minScore, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var matches []VectorMatch
	for rows.Next() {
		var m VectorMatch
		if err := rows.Scan(&m.RequestID, &m.Score); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// ListUnembedded returns requests that have no embedding row yet, oldest
// first. Used by the backfill job.
func (r *VectorRepo) ListUnembedded(ctx context.Context, limit int) ([]*model.QuoteRequest, error) {
	const query = `
		SELECT q.id, q.email, q.name, q.company, q.phone,
		       q.service_type, q.description, q.budget_hint, q.status, q.ctime, q.mtime
		FROM quote_requests q
		LEFT JOIN quote_embeddings e ON q.id = e.request_id
		WHERE e.request_id IS NULL
		ORDER BY q.ctime ASC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var quotes []*model.QuoteRequest
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}
