package repository

import (
	"context"

	"github.com/Astemirdum/bookstore/bookstore/internal/model"
	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type History struct {
	base
	policy model.HistoryPolicy
}

func NewHistory(db *sqlx.DB, policy model.HistoryPolicy, log *zap.Logger) *History {
	return &History{
		base:   newBase(db, historyTableName, log),
		policy: policy,
	}
}

// Append stores keyword as the newest entry. With the default policy
// duplicates accumulate and the table grows without bound.
func (r *History) Append(ctx context.Context, keyword string) error {
	return r.done("append", r.append(ctx, keyword))
}

func (r *History) append(ctx context.Context, keyword string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if r.policy.Dedupe {
		q, args, err := r.qb.Delete(historyTableName).Where(sq.Eq{"keyword": keyword}).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}

	q, args, err := r.qb.Insert(historyTableName).Columns("keyword").Values(keyword).ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return err
	}

	if r.policy.MaxEntries > 0 {
		q, args, err := r.qb.Delete(historyTableName).
			Where(sq.Expr("id not in (select id from "+historyTableName+" order by id desc limit ?)", r.policy.MaxEntries)).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListAll returns every entry, most recently appended first.
func (r *History) ListAll(ctx context.Context) ([]model.HistoryEntry, error) {
	q, args, err := r.qb.Select("id", "keyword").
		From(historyTableName).
		OrderBy("id desc").
		ToSql()
	if err != nil {
		return nil, r.done("list", err)
	}
	items := make([]model.HistoryEntry, 0)
	if err := r.db.SelectContext(ctx, &items, q, args...); err != nil {
		return nil, r.done("list", err)
	}
	return items, r.done("list", nil)
}

// Remove deletes every entry whose keyword equals keyword exactly.
func (r *History) Remove(ctx context.Context, keyword string) error {
	q, args, err := r.qb.Delete(historyTableName).Where(sq.Eq{"keyword": keyword}).ToSql()
	if err != nil {
		return r.done("remove", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	return r.done("remove", err)
}
