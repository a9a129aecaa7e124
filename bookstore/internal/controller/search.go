package controller

import (
	"context"
	"sync"

	"github.com/Astemirdum/bookstore/bookstore/internal/events"
	"github.com/Astemirdum/bookstore/bookstore/internal/model"
	"github.com/Astemirdum/bookstore/bookstore/internal/service"
	"github.com/Astemirdum/bookstore/pkg/worker"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ListState uint8

const (
	Idle ListState = iota
	BestsellersLoading
	BestsellersShown
	SearchInFlight
	ResultsShown
)

func (s ListState) String() string {
	switch s {
	case Idle:
		return "idle"
	case BestsellersLoading:
		return "bestsellers-loading"
	case BestsellersShown:
		return "bestsellers-shown"
	case SearchInFlight:
		return "search-in-flight"
	case ResultsShown:
		return "results-shown"
	}
	return "unknown"
}

const historyLane = "history"

// SearchSession drives the main screen. History operations share one FIFO
// lane, so a keyword recorded on submit is listed by the next focus.
type SearchSession struct {
	id      uuid.UUID
	log     *zap.Logger
	apiKey  string
	catalog service.Catalog
	history service.HistoryStore
	queue   *events.Queue
	pool    *worker.Pool
	view    SearchView

	mu sync.Mutex
	// state is where the list is, settled where it falls back to on failure
	state          ListState
	settled        ListState
	books          []model.Book
	listSeq        uint64
	historyVisible bool
	historySeq     uint64
	closed         bool
}

func NewSearchSession(ctx context.Context, deps Deps, view SearchView, log *zap.Logger) *SearchSession {
	id := uuid.New()
	log = log.Named("search").With(zap.Stringer("session", id))
	return &SearchSession{
		id:      id,
		log:     log,
		apiKey:  deps.APIKey,
		catalog: deps.Catalog,
		history: deps.History,
		queue:   deps.eventQueue(log),
		pool:    worker.NewPool(ctx, deps.Pool, log),
		view:    view,
		books:   []model.Book{},
	}
}

func (s *SearchSession) ID() uuid.UUID {
	return s.id
}

// Start loads the bestseller feed.
func (s *SearchSession) Start() {
	seq := s.beginList(BestsellersLoading)
	s.dispatch(s.pool.Go("bestsellers", func(ctx context.Context) error {
		books, err := s.catalog.FetchBestSellers(ctx, s.apiKey)
		s.finishList(seq, books, err, BestsellersShown)
		return err
	}))
}

// FocusSearch shows the history panel at once and fills it when the
// stored keywords arrive.
func (s *SearchSession) FocusSearch() {
	s.mu.Lock()
	seq := s.showHistoryLocked()
	s.mu.Unlock()

	s.dispatch(s.pool.Serial(historyLane, "history.list", func(ctx context.Context) error {
		entries, err := s.history.ListAll(ctx)
		s.finishHistory(seq, entries, err)
		return err
	}))
}

// Submit hides the history panel, searches for keyword and records it.
func (s *SearchSession) Submit(keyword string) {
	s.mu.Lock()
	s.hideHistoryLocked()
	s.mu.Unlock()

	seq := s.beginList(SearchInFlight)
	s.dispatch(s.pool.Go("search", func(ctx context.Context) error {
		books, err := s.catalog.SearchByKeyword(ctx, s.apiKey, keyword)
		s.finishList(seq, books, err, ResultsShown)
		return err
	}))
	s.dispatch(s.pool.Serial(historyLane, "history.append", func(ctx context.Context) error {
		if err := s.history.Append(ctx, keyword); err != nil {
			s.reportError(err)
			return err
		}
		if err := s.queue.Publish(ctx, events.SearchSubmitted(keyword)); err != nil {
			s.log.Warn("queue search event", zap.Error(err))
		}
		return nil
	}))
}

// DeleteHistory removes every entry for keyword and re-renders the panel.
func (s *SearchSession) DeleteHistory(keyword string) {
	s.mu.Lock()
	seq := s.showHistoryLocked()
	s.mu.Unlock()

	s.dispatch(s.pool.Serial(historyLane, "history.remove", func(ctx context.Context) error {
		if err := s.history.Remove(ctx, keyword); err != nil {
			s.reportError(err)
		}
		entries, err := s.history.ListAll(ctx)
		s.finishHistory(seq, entries, err)
		return err
	}))
}

func (s *SearchSession) HideHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hideHistoryLocked()
}

// Book returns the i-th book of the current list, the value handed to the
// detail screen.
func (s *SearchSession) Book(i int) (model.Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.books) {
		return model.Book{}, false
	}
	return s.books[i], true
}

func (s *SearchSession) Books() []model.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Book, len(s.books))
	copy(out, s.books)
	return out
}

func (s *SearchSession) State() ListState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *SearchSession) HistoryVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historyVisible
}

// Wait blocks until every operation dispatched so far has completed.
func (s *SearchSession) Wait() {
	s.pool.Wait()
}

// Close cancels in-flight operations; nothing is rendered afterwards.
func (s *SearchSession) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.pool.Close()
	s.queue.Detach()
}

func (s *SearchSession) beginList(state ListState) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listSeq++
	s.state = state
	return s.listSeq
}

func (s *SearchSession) finishList(seq uint64, books []model.Book, err error, state ListState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || seq != s.listSeq {
		return
	}
	if err != nil {
		s.state = s.settled
		if !silent(err) {
			s.view.ShowError(err)
		}
		return
	}
	s.books = books
	s.state = state
	s.settled = state
	s.view.ShowBooks(books)
}

func (s *SearchSession) showHistoryLocked() uint64 {
	s.historySeq++
	if !s.historyVisible && !s.closed {
		s.view.SetHistoryVisible(true)
	}
	s.historyVisible = true
	return s.historySeq
}

func (s *SearchSession) hideHistoryLocked() {
	// invalidates any listing still in flight
	s.historySeq++
	if s.historyVisible && !s.closed {
		s.view.SetHistoryVisible(false)
	}
	s.historyVisible = false
}

func (s *SearchSession) finishHistory(seq uint64, entries []model.HistoryEntry, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || seq != s.historySeq || !s.historyVisible {
		return
	}
	if err != nil {
		if !silent(err) {
			s.view.ShowError(err)
		}
		return
	}
	s.view.ShowHistory(entries)
}

func (s *SearchSession) reportError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || silent(err) {
		return
	}
	s.view.ShowError(err)
}

func (s *SearchSession) dispatch(err error) {
	if err != nil {
		s.log.Debug("dispatch", zap.Error(err))
	}
}
