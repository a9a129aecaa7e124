// Package controller holds the screen logic of the bookstore front-end:
// the search session (bestsellers, search, history panel) and the book
// detail screen (review editing). Rendering is delegated to a view.
//
// View methods are invoked one at a time while the controller holds its
// lock; a view must not call back into its controller synchronously.
package controller

import (
	"context"
	"errors"

	"github.com/Astemirdum/bookstore/bookstore/internal/events"
	"github.com/Astemirdum/bookstore/bookstore/internal/model"
	"github.com/Astemirdum/bookstore/bookstore/internal/service"
	"github.com/Astemirdum/bookstore/pkg/worker"
	"go.uber.org/zap"
)

type SearchView interface {
	ShowBooks(books []model.Book)
	SetHistoryVisible(visible bool)
	ShowHistory(entries []model.HistoryEntry)
	ShowError(err error)
}

type DetailView interface {
	ShowBook(book model.Book)
	ShowReview(text string)
	ReviewSaved()
	ShowError(err error)
}

type Deps struct {
	APIKey    string
	Catalog   service.Catalog
	History   service.HistoryStore
	Reviews   service.ReviewStore
	Publisher events.Publisher
	Pool      worker.Config
}

// eventQueue publishes a screen's events off its lanes.
func (d Deps) eventQueue(log *zap.Logger) *events.Queue {
	next := d.Publisher
	if next == nil {
		next = events.NewPublisher(nil, log)
	}
	return events.NewQueue(next, d.Pool.LaneBuffer, log)
}

// silent reports errors that only mean the screen went away.
func silent(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, worker.ErrClosed)
}
