package controller

import (
	"context"
	"strconv"
	"sync"

	"github.com/Astemirdum/bookstore/bookstore/internal/events"
	"github.com/Astemirdum/bookstore/bookstore/internal/model"
	"github.com/Astemirdum/bookstore/bookstore/internal/service"
	"github.com/Astemirdum/bookstore/pkg/worker"
	"go.uber.org/zap"
)

// BookDetail drives the detail screen of one book. The stored review is
// loaded and saved on a single lane, so saves land in click order and a
// load never observes a half-applied sequence of saves.
type BookDetail struct {
	log     *zap.Logger
	reviews service.ReviewStore
	queue   *events.Queue
	pool    *worker.Pool
	view    DetailView

	book   model.Book
	bookID int64
	idErr  error

	mu     sync.Mutex
	closed bool
}

// OpenBookDetail renders book synchronously and starts loading its review.
func OpenBookDetail(ctx context.Context, book model.Book, deps Deps, view DetailView, log *zap.Logger) *BookDetail {
	log = log.Named("detail").With(zap.String("book", string(book.ID)))
	d := &BookDetail{
		log:     log,
		reviews: deps.Reviews,
		queue:   deps.eventQueue(log),
		pool:    worker.NewPool(ctx, deps.Pool, log),
		view:    view,
		book:    book,
	}
	d.bookID, d.idErr = book.ID.Int64()

	view.ShowBook(book)
	if d.idErr != nil {
		view.ShowError(d.idErr)
		return d
	}

	id := d.bookID
	d.dispatch(d.pool.Serial(d.lane(), "review.get", func(ctx context.Context) error {
		review, _, err := d.reviews.Get(ctx, id)
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.closed {
			return err
		}
		if err != nil {
			if !silent(err) {
				d.view.ShowError(err)
			}
			return err
		}
		d.view.ShowReview(review.Text())
		return nil
	}))
	return d
}

func (d *BookDetail) Book() model.Book {
	return d.book
}

// Save stores text as the review of this book, replacing any earlier one.
func (d *BookDetail) Save(text string) {
	if d.idErr != nil {
		d.reportError(d.idErr)
		return
	}
	id := d.bookID
	d.dispatch(d.pool.Serial(d.lane(), "review.save", func(ctx context.Context) error {
		if err := d.reviews.Save(ctx, id, text); err != nil {
			d.reportError(err)
			return err
		}
		if err := d.queue.Publish(ctx, events.ReviewSaved(id)); err != nil {
			d.log.Warn("queue review event", zap.Error(err))
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		if !d.closed {
			d.view.ReviewSaved()
		}
		return nil
	}))
}

func (d *BookDetail) Wait() {
	d.pool.Wait()
}

// Close cancels pending work. A load that resolves later is dropped.
func (d *BookDetail) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.pool.Close()
	d.queue.Detach()
}

func (d *BookDetail) lane() string {
	return "review:" + strconv.FormatInt(d.bookID, 10)
}

func (d *BookDetail) reportError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || silent(err) {
		return
	}
	d.view.ShowError(err)
}

func (d *BookDetail) dispatch(err error) {
	if err != nil {
		d.log.Debug("dispatch", zap.Error(err))
	}
}
