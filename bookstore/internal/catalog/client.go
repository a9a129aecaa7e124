package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Astemirdum/bookstore/bookstore/internal/errs"
	"github.com/Astemirdum/bookstore/bookstore/internal/metrics"
	"github.com/Astemirdum/bookstore/bookstore/internal/model"
	"github.com/Astemirdum/bookstore/pkg/circuit_breaker"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	bestSellerPath = "/api/bestSeller.api"
	searchPath     = "/api/search.api"

	bestSellerCategoryID = "100"
)

type Config struct {
	BaseURL string        `envconfig:"CATALOG_BASE_URL" default:"https://book.interpark.com"`
	APIKey  string        `envconfig:"CATALOG_API_KEY"`
	Timeout time.Duration `envconfig:"CATALOG_TIMEOUT" default:"30s"`
	// RPS caps outbound requests per second, 0 disables the limiter.
	RPS            float64 `envconfig:"CATALOG_RPS" default:"0"`
	CircuitBreaker circuit_breaker.Config
}

type Client struct {
	log     *zap.Logger
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	cb      circuit_breaker.CircuitBreaker
	metrics *metrics.Metrics
}

func NewClient(log *zap.Logger, cfg Config) *Client {
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	return &Client{
		log:     log.Named("catalog"),
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		limiter: rate.NewLimiter(limit, 1),
		cb:      circuit_breaker.New(cfg.CircuitBreaker),
		metrics: metrics.New(),
	}
}

func (c *Client) CB() circuit_breaker.CircuitBreaker {
	return c.cb
}

// FetchBestSellers returns the bestseller feed in server order.
func (c *Client) FetchBestSellers(ctx context.Context, apiKey string) ([]model.Book, error) {
	q := url.Values{}
	q.Set("output", "json")
	q.Set("categoryId", bestSellerCategoryID)
	q.Set("key", apiKey)
	return c.get(ctx, "bestsellers", bestSellerPath, q)
}

// SearchByKeyword forwards keyword as the query parameter without trimming
// or validation; an empty keyword is sent as is.
func (c *Client) SearchByKeyword(ctx context.Context, apiKey, keyword string) ([]model.Book, error) {
	q := url.Values{}
	q.Set("output", "json")
	q.Set("key", apiKey)
	q.Set("query", keyword)
	return c.get(ctx, "search", searchPath, q)
}

func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values) (books []model.Book, err error) {
	start := time.Now()
	defer func() {
		c.metrics.CatalogDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		c.metrics.CatalogRequests.WithLabelValues(endpoint, outcome(err)).Inc()
		if err != nil {
			c.log.Warn("catalog request", zap.String("endpoint", endpoint), zap.Error(err))
		}
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		// the deadline expires before a token would be available
		return nil, fmt.Errorf("%w: %v", errs.ErrUnavailable, err)
	}

	var (
		status int
		body   []byte
	)
	cbErr := c.cb.Call(func() error {
		var callErr error
		status, body, callErr = c.do(ctx, path, query)
		if callErr != nil {
			return callErr
		}
		if status >= http.StatusInternalServerError {
			return fmt.Errorf("%w: status %d", errs.ErrUnavailable, status)
		}
		return nil
	})
	switch {
	case errors.Is(cbErr, circuit_breaker.ErrOpen):
		return nil, fmt.Errorf("%w: %v", errs.ErrUnavailable, cbErr)
	case cbErr != nil:
		return nil, cbErr
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", errs.ErrUnauthorized, status)
	case status < http.StatusOK || status >= http.StatusMultipleChoices:
		return nil, fmt.Errorf("%w: status %d", errs.ErrUnavailable, status)
	}

	var resp model.CatalogResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformed, err)
	}
	if resp.Items == nil {
		resp.Items = []model.Book{}
	}
	return resp.Items, nil
}

func (c *Client) do(ctx context.Context, path string, query url.Values) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), http.NoBody)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", errs.ErrMalformed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", errs.ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", errs.ErrNetworkUnavailable, err)
	}
	return resp.StatusCode, data, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errs.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, errs.ErrMalformed):
		return "malformed"
	case errors.Is(err, errs.ErrNetworkUnavailable):
		return "network"
	}
	return "unavailable"
}
