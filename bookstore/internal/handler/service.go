package handler

import (
	"context"

	"github.com/Astemirdum/bookstore/bookstore/internal/model"
	"github.com/Astemirdum/bookstore/bookstore/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookstoreService interface {
	BestSellers(ctx context.Context) ([]model.Book, error)
	Search(ctx context.Context, keyword string) ([]model.Book, error)
	History(ctx context.Context) ([]model.HistoryEntry, error)
	DeleteHistory(ctx context.Context, keyword string) error
	GetReview(ctx context.Context, bookID int64) (model.Review, bool, error)
	SaveReview(ctx context.Context, bookID int64, text string) error
}

var _ BookstoreService = (*service.Service)(nil)
