package handler

import (
	"net/http"

	"github.com/Astemirdum/bookstore/bookstore/internal/errs"
	"github.com/Astemirdum/bookstore/bookstore/internal/model"
	md "github.com/Astemirdum/bookstore/pkg/middleware"
	"github.com/Astemirdum/bookstore/pkg/validate"
	_ "github.com/Astemirdum/bookstore/swagger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
)

type Handler struct {
	svc BookstoreService
	log *zap.Logger
}

func New(svc BookstoreService, log *zap.Logger) *Handler {
	return &Handler{
		svc: svc,
		log: log.Named("handler"),
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodDelete},
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.GET("/bestsellers", h.GetBestSellers)
	api.GET("/books/search", h.SearchBooks)

	api.GET("/history", h.GetHistory)
	api.DELETE("/history", h.DeleteHistory)

	api.GET("/reviews/:bookId", h.GetReview)
	api.PUT("/reviews/:bookId", h.SaveReview)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// GetBestSellers
// @Summary Bestseller feed
// @Tags books
// @Produce json
// @Success 200 {array} model.Book
// @Failure 502 {object} echo.HTTPError
// @Failure 503 {object} echo.HTTPError
// @Router /api/v1/bestsellers [get]
func (h *Handler) GetBestSellers(c echo.Context) error {
	books, err := h.svc.BestSellers(c.Request().Context())
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

// SearchBooks
// @Summary Search the catalog and record the keyword in history
// @Tags books
// @Produce json
// @Param query query string true "keyword, forwarded verbatim"
// @Success 200 {array} model.Book
// @Failure 400 {object} echo.HTTPError
// @Failure 502 {object} echo.HTTPError
// @Failure 503 {object} echo.HTTPError
// @Router /api/v1/books/search [get]
func (h *Handler) SearchBooks(c echo.Context) error {
	if !c.QueryParams().Has("query") {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	books, err := h.svc.Search(c.Request().Context(), c.QueryParam("query"))
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, books)
}

// GetHistory
// @Summary Search history, newest first
// @Tags history
// @Produce json
// @Success 200 {array} model.HistoryEntry
// @Failure 503 {object} echo.HTTPError
// @Router /api/v1/history [get]
func (h *Handler) GetHistory(c echo.Context) error {
	entries, err := h.svc.History(c.Request().Context())
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, entries)
}

// DeleteHistory
// @Summary Remove every history entry equal to keyword
// @Tags history
// @Param keyword query string true "keyword"
// @Success 204
// @Failure 400 {object} echo.HTTPError
// @Failure 503 {object} echo.HTTPError
// @Router /api/v1/history [delete]
func (h *Handler) DeleteHistory(c echo.Context) error {
	if !c.QueryParams().Has("keyword") {
		return echo.NewHTTPError(http.StatusBadRequest, "keyword is required")
	}
	if err := h.svc.DeleteHistory(c.Request().Context(), c.QueryParam("keyword")); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetReview
// @Summary Stored review of a book
// @Tags reviews
// @Produce json
// @Param bookId path string true "catalog item id"
// @Success 200 {object} model.Review
// @Failure 400 {object} echo.HTTPError
// @Failure 404 {object} echo.HTTPError
// @Failure 503 {object} echo.HTTPError
// @Router /api/v1/reviews/{bookId} [get]
func (h *Handler) GetReview(c echo.Context) error {
	id, err := model.BookID(c.Param("bookId")).Int64()
	if err != nil {
		return h.httpError(err)
	}
	review, found, err := h.svc.GetReview(c.Request().Context(), id)
	if err != nil {
		return h.httpError(err)
	}
	if !found {
		return h.httpError(errs.ErrNotFound)
	}
	return c.JSON(http.StatusOK, review)
}

// SaveReview
// @Summary Create or replace the review of a book
// @Tags reviews
// @Accept json
// @Param bookId path string true "catalog item id"
// @Param review body model.SaveReviewRequest true "review"
// @Success 204
// @Failure 400 {object} echo.HTTPError
// @Failure 503 {object} echo.HTTPError
// @Router /api/v1/reviews/{bookId} [put]
func (h *Handler) SaveReview(c echo.Context) error {
	id, err := model.BookID(c.Param("bookId")).Int64()
	if err != nil {
		return h.httpError(err)
	}
	var req model.SaveReviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SaveReview(c.Request().Context(), id, req.Review); err != nil {
		return h.httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) httpError(err error) *echo.HTTPError {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrInvalidBookID):
		code = http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, errs.ErrUnauthorized), errors.Is(err, errs.ErrMalformed):
		// the upstream catalog misbehaved, not the caller
		code = http.StatusBadGateway
	case errors.Is(err, errs.ErrUnavailable),
		errors.Is(err, errs.ErrNetworkUnavailable),
		errors.Is(err, errs.ErrStorageUnavailable):
		code = http.StatusServiceUnavailable
	}
	if code == http.StatusInternalServerError {
		h.log.Error("unexpected error", zap.Error(err))
	}
	return echo.NewHTTPError(code, err.Error())
}
