package service

import (
	"context"
	"sync"
	"testing"

	"github.com/Astemirdum/bookstore/bookstore/internal/errs"
	"github.com/Astemirdum/bookstore/bookstore/internal/events"
	"github.com/Astemirdum/bookstore/bookstore/internal/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeCatalog struct {
	books []model.Book
	err   error

	mu       sync.Mutex
	keywords []string
}

func (f *fakeCatalog) FetchBestSellers(context.Context, string) ([]model.Book, error) {
	return f.books, f.err
}

func (f *fakeCatalog) SearchByKeyword(_ context.Context, _ string, keyword string) ([]model.Book, error) {
	f.mu.Lock()
	f.keywords = append(f.keywords, keyword)
	f.mu.Unlock()
	return f.books, f.err
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []string
	err     error
}

func (f *fakeHistory) Append(_ context.Context, keyword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append([]string{keyword}, f.entries...)
	return nil
}

func (f *fakeHistory) ListAll(context.Context) ([]model.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.HistoryEntry, 0, len(f.entries))
	for _, kw := range f.entries {
		out = append(out, model.HistoryEntry{Keyword: kw})
	}
	return out, f.err
}

func (f *fakeHistory) Remove(context.Context, string) error { return f.err }

type fakeReviews struct {
	saved map[int64]string
}

func (f *fakeReviews) Get(_ context.Context, id int64) (model.Review, bool, error) {
	text, ok := f.saved[id]
	if !ok {
		return model.Review{}, false, nil
	}
	return model.Review{ID: id, Review: &text}, true, nil
}

func (f *fakeReviews) Save(_ context.Context, id int64, text string) error {
	f.saved[id] = text
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestService_Search(t *testing.T) {
	books := []model.Book{{ID: "1", Title: "Go"}}

	t.Run("records keyword and returns results", func(t *testing.T) {
		catalog := &fakeCatalog{books: books}
		history := &fakeHistory{}
		pub := &recordingPublisher{}
		svc := NewService(zaptest.NewLogger(t), "key", catalog, history, &fakeReviews{}, pub)

		got, err := svc.Search(context.Background(), "go")
		require.NoError(t, err)
		require.Equal(t, books, got)
		require.Equal(t, []string{"go"}, catalog.keywords)
		require.Equal(t, []string{"go"}, history.entries)
		require.Len(t, pub.events, 1)
		require.Equal(t, events.TypeSearchSubmitted, pub.events[0].Type)
	})

	t.Run("catalog failure still records keyword", func(t *testing.T) {
		catalog := &fakeCatalog{err: errs.ErrUnauthorized}
		history := &fakeHistory{}
		svc := NewService(zaptest.NewLogger(t), "key", catalog, history, &fakeReviews{}, events.NewPublisher(nil, zaptest.NewLogger(t)))

		got, err := svc.Search(context.Background(), "rust")
		require.ErrorIs(t, err, errs.ErrUnauthorized)
		require.Nil(t, got)
		require.Equal(t, []string{"rust"}, history.entries)
	})

	t.Run("history failure does not hide results", func(t *testing.T) {
		catalog := &fakeCatalog{books: books}
		history := &fakeHistory{err: errs.ErrStorageUnavailable}
		svc := NewService(zaptest.NewLogger(t), "key", catalog, history, &fakeReviews{}, events.NewPublisher(nil, zaptest.NewLogger(t)))

		got, err := svc.Search(context.Background(), "go")
		require.NoError(t, err)
		require.Equal(t, books, got)
	})
}

func TestService_Reviews(t *testing.T) {
	pub := &recordingPublisher{}
	svc := NewService(zaptest.NewLogger(t), "key", &fakeCatalog{}, &fakeHistory{}, &fakeReviews{saved: map[int64]string{}}, pub)
	ctx := context.Background()

	_, found, err := svc.GetReview(ctx, 42)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, svc.SaveReview(ctx, 42, "Great read"))
	review, found, err := svc.GetReview(ctx, 42)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Great read", review.Text())

	require.Len(t, pub.events, 1)
	require.Equal(t, int64(42), pub.events[0].BookID)
}
