package repository

import (
	"context"

	"github.com/Astemirdum/bookstore/bookstore/internal/errs"
	"github.com/Astemirdum/bookstore/bookstore/internal/metrics"
	"github.com/Astemirdum/bookstore/pkg/database"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	historyTableName = `history`
	reviewTableName  = `review`
)

type base struct {
	db      *sqlx.DB
	qb      sq.StatementBuilderType
	log     *zap.Logger
	metrics *metrics.Metrics
	table   string
}

func newBase(db *sqlx.DB, table string, log *zap.Logger) base {
	return base{
		db:      db,
		qb:      sq.StatementBuilder.PlaceholderFormat(database.Placeholder(db.DriverName())),
		log:     log.Named("repo").With(zap.String("table", table)),
		metrics: metrics.New(),
		table:   table,
	}
}

// done records the operation outcome and maps any failure to
// ErrStorageUnavailable.
func (b base) done(op string, err error) error {
	b.metrics.StoreOperations.WithLabelValues(b.table, op, metrics.Outcome(err)).Inc()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		// the caller went away, the store is fine
		return err
	}
	b.log.Error(op, zap.Error(err))

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
		return errors.Wrapf(errs.ErrStorageUnavailable, "%s: schema is not migrated: %v", op, err)
	}
	return errors.Wrapf(errs.ErrStorageUnavailable, "%s: %v", op, err)
}
