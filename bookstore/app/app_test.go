package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Astemirdum/bookstore/bookstore/config"
	"github.com/Astemirdum/bookstore/pkg/database"
	"github.com/Astemirdum/bookstore/pkg/logger"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{
		Database: database.Config{
			Driver:       database.DriverSQLite,
			DSN:          filepath.Join(t.TempDir(), "bookstore.db"),
			MaxOpenConns: 1,
		},
		Log: logger.Log{LogLevel: zapcore.ErrorLevel},
	}

	tables := func() int {
		db, err := database.Open(ctx, cfg.Database)
		require.NoError(t, err)
		defer db.Close()
		var n int
		require.NoError(t, db.Get(&n,
			`select count(*) from sqlite_master where type = 'table' and name in ('history', 'review')`))
		return n
	}

	require.NoError(t, Migrate(ctx, cfg, "up"))
	require.Equal(t, 2, tables())
	require.NoError(t, Migrate(ctx, cfg, "status"))

	require.NoError(t, Migrate(ctx, cfg, "down"))
	require.Zero(t, tables())

	require.ErrorContains(t, Migrate(ctx, cfg, "sideways"), "unknown migrate command")
}
