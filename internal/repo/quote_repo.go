package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"quotedesk/internal/model"
	"quotedesk/internal/pkg/dbutil"
	appErr "quotedesk/internal/pkg/errors"
)

var quoteColumns = []string{
	"id", "email", "name", "company", "phone",
	"service_type", "description", "budget_hint", "status", "ctime", "mtime",
}

type QuoteRepo struct {
	db *sql.DB
}

func NewQuoteRepo(db *sql.DB) *QuoteRepo {
	return &QuoteRepo{db: db}
}

func (r *QuoteRepo) Create(ctx context.Context, q *model.QuoteRequest) error {
	data := map[string]interface{}{
		"id":           q.ID,
		"email":        q.Email,
		"name":         q.Name,
		"company":      q.Company,
		"phone":        q.Phone,
		"service_type": q.ServiceType,
		"description":  q.Description,
		"budget_hint":  q.BudgetHint,
		"status":       q.Status,
		"ctime":        q.Ctime,
		"mtime":        q.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("quote_requests", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *QuoteRepo) GetByID(ctx context.Context, id string) (*model.QuoteRequest, error) {
	where := map[string]interface{}{"id": id}
	sqlStr, args, err := builder.BuildSelect("quote_requests", where, quoteColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	q, err := scanQuote(row)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	return q, err
}

// ListByServiceType returns the most recent requests sharing a service
// type, newest first. Used by the similarity fallback path.
func (r *QuoteRepo) ListByServiceType(ctx context.Context, serviceType string, limit int) ([]*model.QuoteRequest, error) {
	where := map[string]interface{}{
		"service_type": serviceType,
		"_orderby":     "ctime desc",
		"_limit":       []uint{0, uint(limit)},
	}
	sqlStr, args, err := builder.BuildSelect("quote_requests", where, quoteColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return r.queryQuotes(ctx, sqlStr, args)
}

func (r *QuoteRepo) ListByIDs(ctx context.Context, ids []string) ([]*model.QuoteRequest, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	where := map[string]interface{}{"id in": ids}
	sqlStr, args, err := builder.BuildSelect("quote_requests", where, quoteColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return r.queryQuotes(ctx, sqlStr, args)
}

func (r *QuoteRepo) UpdateStatus(ctx context.Context, id, status string, mtime int64) error {
	where := map[string]interface{}{"id": id}
	update := map[string]interface{}{"status": status, "mtime": mtime}
	sqlStr, args, err := builder.BuildUpdate("quote_requests", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *QuoteRepo) queryQuotes(ctx context.Context, sqlStr string, args []interface{}) ([]*model.QuoteRequest, error) {
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQuote(row rowScanner) (*model.QuoteRequest, error) {
	var q model.QuoteRequest
	if err := row.Scan(
		&q.ID, &q.Email, &q.Name, &q.Company, &q.Phone,
		&q.ServiceType, &q.Description, &q.BudgetHint, &q.Status, &q.Ctime, &q.Mtime,
	); err != nil {
		return nil, err
	}
	return &q, nil
}
