package browse

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Astemirdum/bookstore/bookstore/internal/catalog"
	"github.com/Astemirdum/bookstore/bookstore/internal/controller"
	"github.com/Astemirdum/bookstore/bookstore/internal/model"
	"github.com/Astemirdum/bookstore/bookstore/internal/repository"
	"github.com/Astemirdum/bookstore/bookstore/migrations"
	"github.com/Astemirdum/bookstore/pkg/database"
	"github.com/Astemirdum/bookstore/pkg/worker"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBrowser_Session(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/bestSeller.api" {
			_, _ = w.Write([]byte(`{"item":[{"itemId":42,"title":"Dune","description":"Spice"}]}`))
			return
		}
		_, _ = fmt.Fprintf(w, `{"item":[{"itemId":7,"title":"About %s"}]}`, r.URL.Query().Get("query"))
	}))
	defer srv.Close()

	log := zaptest.NewLogger(t)
	db, err := database.NewDB(context.Background(),
		database.Config{Driver: database.DriverSQLite, DSN: ":memory:"},
		migrations.MigrationFiles, log)
	require.NoError(t, err)
	defer db.Close()

	deps := controller.Deps{
		APIKey:  "key",
		Catalog: catalog.NewClient(log, catalog.Config{BaseURL: srv.URL, Timeout: 5 * time.Second}),
		History: repository.NewHistory(db, model.HistoryPolicy{}, log),
		Reviews: repository.NewReviews(db, log),
		Pool:    worker.Config{Size: 2, LaneBuffer: 8},
	}

	script := strings.Join([]string{
		"open 1",
		"w Great read",
		"b",
		"s rust",
		"s go",
		"h",
		"open 1",
		"b",
		"open 9",
		"q",
	}, "\n")
	var out bytes.Buffer
	require.NoError(t, New(strings.NewReader(script), &out, deps, log).Run(context.Background()))

	got := out.String()
	require.Contains(t, got, "  1. Dune\n")
	require.Contains(t, got, "review: (none)\n")
	require.Contains(t, got, "review saved\n")
	require.Contains(t, got, "  1. About go\n")
	require.Contains(t, got, "history:\n  - go\n  - rust\n")
	require.Contains(t, got, "no book \"9\" in the list\n")

	review, found, err := deps.Reviews.Get(context.Background(), 42)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Great read", review.Text())
}

func TestSplitCommand(t *testing.T) {
	cmd, arg := splitCommand("s  a&b=c \r")
	require.Equal(t, "s", cmd)
	require.Equal(t, " a&b=c ", arg)

	cmd, arg = splitCommand("s")
	require.Equal(t, "s", cmd)
	require.Equal(t, "", arg)
}
