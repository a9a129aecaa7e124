package repository

import (
	"context"
	"database/sql"

	"github.com/Astemirdum/bookstore/bookstore/internal/model"
	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Reviews struct {
	base
}

func NewReviews(db *sqlx.DB, log *zap.Logger) *Reviews {
	return &Reviews{base: newBase(db, reviewTableName, log)}
}

// Get reports false without an error when no review was written for bookID.
func (r *Reviews) Get(ctx context.Context, bookID int64) (model.Review, bool, error) {
	q, args, err := r.qb.Select("id", "review").
		From(reviewTableName).
		Where(sq.Eq{"id": bookID}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Review{}, false, r.done("get", err)
	}

	var review model.Review
	if err := r.db.GetContext(ctx, &review, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Review{}, false, r.done("get", nil)
		}
		return model.Review{}, false, r.done("get", err)
	}
	return review, true, r.done("get", nil)
}

// Save overwrites whatever was stored for bookID.
func (r *Reviews) Save(ctx context.Context, bookID int64, text string) error {
	q, args, err := r.qb.Insert(reviewTableName).
		Columns("id", "review").
		Values(bookID, text).
		Suffix("on conflict (id) do update set review = excluded.review").
		ToSql()
	if err != nil {
		return r.done("save", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	return r.done("save", err)
}
