package service

import (
	"context"

	"github.com/Astemirdum/bookstore/bookstore/internal/events"
	"github.com/Astemirdum/bookstore/bookstore/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Catalog interface {
	FetchBestSellers(ctx context.Context, apiKey string) ([]model.Book, error)
	SearchByKeyword(ctx context.Context, apiKey, keyword string) ([]model.Book, error)
}

type HistoryStore interface {
	Append(ctx context.Context, keyword string) error
	ListAll(ctx context.Context) ([]model.HistoryEntry, error)
	Remove(ctx context.Context, keyword string) error
}

type ReviewStore interface {
	Get(ctx context.Context, bookID int64) (model.Review, bool, error)
	Save(ctx context.Context, bookID int64, text string) error
}

// Service is the synchronous facade used by the HTTP API: every call returns
// only after its writes are done.
type Service struct {
	log       *zap.Logger
	apiKey    string
	catalog   Catalog
	history   HistoryStore
	reviews   ReviewStore
	publisher events.Publisher
}

func NewService(log *zap.Logger, apiKey string, catalog Catalog, history HistoryStore, reviews ReviewStore, publisher events.Publisher) *Service {
	return &Service{
		log:       log.Named("service"),
		apiKey:    apiKey,
		catalog:   catalog,
		history:   history,
		reviews:   reviews,
		publisher: publisher,
	}
}

func (s *Service) BestSellers(ctx context.Context) ([]model.Book, error) {
	return s.catalog.FetchBestSellers(ctx, s.apiKey)
}

// Search records the keyword and queries the catalog concurrently. A failed
// history write is logged and does not hide the search result.
func (s *Service) Search(ctx context.Context, keyword string) ([]model.Book, error) {
	var books []model.Book
	gg, gctx := errgroup.WithContext(ctx)
	gg.Go(func() error {
		var err error
		books, err = s.catalog.SearchByKeyword(gctx, s.apiKey, keyword)
		return err
	})
	gg.Go(func() error {
		if err := s.history.Append(ctx, keyword); err != nil {
			s.log.Warn("history append", zap.String("keyword", keyword), zap.Error(err))
			return nil
		}
		s.publish(ctx, events.SearchSubmitted(keyword))
		return nil
	})
	if err := gg.Wait(); err != nil {
		return nil, err
	}
	return books, nil
}

func (s *Service) History(ctx context.Context) ([]model.HistoryEntry, error) {
	return s.history.ListAll(ctx)
}

func (s *Service) DeleteHistory(ctx context.Context, keyword string) error {
	return s.history.Remove(ctx, keyword)
}

func (s *Service) GetReview(ctx context.Context, bookID int64) (model.Review, bool, error) {
	return s.reviews.Get(ctx, bookID)
}

func (s *Service) SaveReview(ctx context.Context, bookID int64, text string) error {
	if err := s.reviews.Save(ctx, bookID, text); err != nil {
		return err
	}
	s.publish(ctx, events.ReviewSaved(bookID))
	return nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn("publish event", zap.String("type", e.Type), zap.Error(err))
	}
}
