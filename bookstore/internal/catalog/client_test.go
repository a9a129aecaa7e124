package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/Astemirdum/bookstore/bookstore/internal/errs"
	"github.com/Astemirdum/bookstore/bookstore/internal/model"
	"github.com/Astemirdum/bookstore/pkg/circuit_breaker"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const apiKey = "test-key"

type recorder struct {
	mu      sync.Mutex
	queries []url.Values
	paths   []string
}

func (r *recorder) last() (string, url.Values) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paths[len(r.paths)-1], r.queries[len(r.queries)-1]
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.paths = append(rec.paths, r.URL.Path)
		rec.queries = append(rec.queries, r.URL.Query())
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func newTestClient(t *testing.T, baseURL string) *Client {
	return NewClient(zaptest.NewLogger(t), Config{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	})
}

const twoBooks = `{"title":"bestseller","item":[
	{"itemId":1001,"title":"First","description":"one","coverSmallUrl":"http://img/1.jpg"},
	{"itemId":"1002","title":"Second","description":"two","coverSmallUrl":"http://img/2.jpg"}
]}`

func TestClient_FetchBestSellers(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, twoBooks)
	c := newTestClient(t, srv.URL)

	books, err := c.FetchBestSellers(context.Background(), apiKey)
	require.NoError(t, err)
	require.Equal(t, []model.Book{
		{ID: "1001", Title: "First", Description: "one", CoverSmallURL: "http://img/1.jpg"},
		{ID: "1002", Title: "Second", Description: "two", CoverSmallURL: "http://img/2.jpg"},
	}, books)

	path, q := rec.last()
	require.Equal(t, "/api/bestSeller.api", path)
	require.Equal(t, "json", q.Get("output"))
	require.Equal(t, "100", q.Get("categoryId"))
	require.Equal(t, apiKey, q.Get("key"))
}

func TestClient_SearchByKeyword_ForwardsVerbatim(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, `{"item":[]}`)
	c := newTestClient(t, srv.URL)

	for _, kw := range []string{"", "go", "  padded  ", "a&b=c", "100%", "해리 포터", "?#/"} {
		books, err := c.SearchByKeyword(context.Background(), apiKey, kw)
		require.NoError(t, err)
		require.NotNil(t, books)
		require.Empty(t, books)

		path, q := rec.last()
		require.Equal(t, "/api/search.api", path)
		require.Contains(t, q, "query")
		require.Equal(t, kw, q.Get("query"))
		require.Equal(t, apiKey, q.Get("key"))
	}
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{}`, wantErr: errs.ErrUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, body: `{}`, wantErr: errs.ErrUnauthorized},
		{name: "server error", status: http.StatusBadGateway, body: ``, wantErr: errs.ErrUnavailable},
		{name: "not found", status: http.StatusNotFound, body: ``, wantErr: errs.ErrUnavailable},
		{name: "malformed", status: http.StatusOK, body: `<html>`, wantErr: errs.ErrMalformed},
		{name: "wrong shape", status: http.StatusOK, body: `{"item":{"itemId":1}}`, wantErr: errs.ErrMalformed},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, tt.status, tt.body)
			c := newTestClient(t, srv.URL)

			books, err := c.FetchBestSellers(context.Background(), apiKey)
			require.ErrorIs(t, err, tt.wantErr)
			require.Nil(t, books)
		})
	}
}

func TestClient_NetworkUnavailable(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, twoBooks)
	baseURL := srv.URL
	srv.Close()

	c := newTestClient(t, baseURL)
	_, err := c.SearchByKeyword(context.Background(), apiKey, "go")
	require.ErrorIs(t, err, errs.ErrNetworkUnavailable)
	require.True(t, errs.IsCatalog(err))
}

func TestClient_CircuitOpens(t *testing.T) {
	srv, rec := newServer(t, http.StatusServiceUnavailable, ``)
	c := NewClient(zaptest.NewLogger(t), Config{
		BaseURL: srv.URL,
		Timeout: time.Second,
		CircuitBreaker: circuit_breaker.Config{
			Window:       2,
			Cooldown:     time.Hour,
			FailureRatio: 0.5,
			Probes:       1,
		},
	})

	_, err := c.FetchBestSellers(context.Background(), apiKey)
	require.ErrorIs(t, err, errs.ErrUnavailable)
	require.Equal(t, circuit_breaker.Open, c.CB().State())

	_, err = c.FetchBestSellers(context.Background(), apiKey)
	require.ErrorIs(t, err, errs.ErrUnavailable)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.paths, 1)
}

func TestClient_EveryCallHitsNetworkByDefault(t *testing.T) {
	srv, rec := newServer(t, http.StatusServiceUnavailable, ``)
	c := newTestClient(t, srv.URL)

	for i := 0; i < 5; i++ {
		_, err := c.FetchBestSellers(context.Background(), apiKey)
		require.ErrorIs(t, err, errs.ErrUnavailable)
	}
	require.Equal(t, circuit_breaker.Closed, c.CB().State())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.paths, 5)
}

func TestClient_RateLimit(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, twoBooks)
	c := NewClient(zaptest.NewLogger(t), Config{
		BaseURL: srv.URL,
		Timeout: time.Second,
		RPS:     5,
	})
	start := time.Now()

	_, err := c.FetchBestSellers(context.Background(), apiKey)
	require.NoError(t, err)

	// the next token is 200ms away
	short, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.FetchBestSellers(short, apiKey)
	require.ErrorIs(t, err, errs.ErrUnavailable)
	require.True(t, errs.IsCatalog(err))

	canceled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	_, err = c.SearchByKeyword(canceled, apiKey, "go")
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, errs.ErrUnavailable)

	_, err = c.SearchByKeyword(context.Background(), apiKey, "go")
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.paths, 2)
}
