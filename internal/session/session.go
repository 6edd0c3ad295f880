// Package session implements the transaction table session: one logical
// owner of query state, the cached page, the selection set, the bulk
// mutation dispatcher, and the undo/redo history.
package session

import (
	"context"
	"sync"

	"github.com/radup/fintable/internal/common"
	"github.com/radup/fintable/internal/model"
	"github.com/radup/fintable/internal/service"
)

// DefaultMaxBulkTargets bounds how many records one bulk command may touch.
const DefaultMaxBulkTargets = 1000

// Config holds construction options for a table session.
type Config struct {
	Store          service.TransactionStore
	MaxBulkTargets int
	PageSize       int
	RetryOptions   common.RetryOptions
}

// Session owns all transient table state. All remote work goes through its
// methods; a single lock covers the state and a single-in-flight rule covers
// mutations, so interleaved async callers cannot race the pre-mutation
// snapshot.
type Session struct {
	store     service.TransactionStore
	governor  *Governor
	selection *Selection
	history   *History

	mu          sync.Mutex
	query       model.QueryState
	records     []model.Transaction
	totalCount  int
	fetchErr    error
	fetchSeq    uint64
	inFlight    bool
	lastMessage string

	maxTargets int
	retryOpts  common.RetryOptions
}

// New creates a table session over the given store with default query state.
func New(cfg Config) *Session {
	maxTargets := cfg.MaxBulkTargets
	if maxTargets <= 0 {
		maxTargets = DefaultMaxBulkTargets
	}
	query := model.DefaultQueryState()
	if cfg.PageSize > 0 {
		query.PageSize = cfg.PageSize
	}
	return &Session{
		store:      cfg.Store,
		governor:   NewGovernor(cfg.Store),
		selection:  NewSelection(),
		history:    NewHistory(),
		query:      query,
		maxTargets: maxTargets,
		retryOpts:  cfg.RetryOptions,
	}
}

// Snapshot is the read-only view the UI renders from.
type Snapshot struct {
	FetchErr    error
	LastMessage string
	Records     []model.Transaction
	SelectedIDs []string
	Query       model.QueryState
	TotalCount  int
	Busy        bool
	CanUndo     bool
	CanRedo     bool
}

// Snapshot returns a consistent copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]model.Transaction, len(s.records))
	copy(records, s.records)
	return Snapshot{
		Query:       s.query,
		Records:     records,
		TotalCount:  s.totalCount,
		SelectedIDs: s.selection.IDs(),
		Busy:        s.inFlight,
		LastMessage: s.lastMessage,
		FetchErr:    s.fetchErr,
		CanUndo:     s.history.CanUndo(),
		CanRedo:     s.history.CanRedo(),
	}
}

// SetFilter replaces the filter from raw string values, resets to page 1,
// clears the selection, and refetches.
func (s *Session) SetFilter(ctx context.Context, raw map[string]string) error {
	filter, err := model.NewFilter(raw)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.query = s.query.WithFilter(filter)
	s.selection.Clear()
	seq, query := s.nextFetchLocked()
	s.mu.Unlock()
	return s.fetch(ctx, seq, query)
}

// SetSort changes the sort order, resets to page 1, clears the selection,
// and refetches.
func (s *Session) SetSort(ctx context.Context, field model.SortField, direction model.SortDirection) error {
	s.mu.Lock()
	next, err := s.query.WithSort(field, direction)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.query = next
	s.selection.Clear()
	seq, query := s.nextFetchLocked()
	s.mu.Unlock()
	return s.fetch(ctx, seq, query)
}

// SetPage moves to the given page, leaving filter and sort untouched, clears
// the selection, and refetches.
func (s *Session) SetPage(ctx context.Context, page int) error {
	s.mu.Lock()
	next, err := s.query.WithPage(page)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.query = next
	s.selection.Clear()
	seq, query := s.nextFetchLocked()
	s.mu.Unlock()
	return s.fetch(ctx, seq, query)
}

// SetPageSize changes the page size, resets to page 1, clears the selection,
// and refetches.
func (s *Session) SetPageSize(ctx context.Context, size int) error {
	s.mu.Lock()
	next, err := s.query.WithPageSize(size)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.query = next
	s.selection.Clear()
	seq, query := s.nextFetchLocked()
	s.mu.Unlock()
	return s.fetch(ctx, seq, query)
}

// Refresh refetches the current page without changing the query. Used for
// external refresh signals, e.g. after an import elsewhere.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	seq, query := s.nextFetchLocked()
	s.mu.Unlock()
	return s.fetch(ctx, seq, query)
}

// nextFetchLocked claims a new fetch generation. Callers must hold the lock.
func (s *Session) nextFetchLocked() (uint64, model.QueryState) {
	s.fetchSeq++
	return s.fetchSeq, s.query
}

// fetch issues the page read and the count read concurrently and commits
// both atomically. A response belonging to a superseded generation is
// discarded so a slow earlier fetch can never overwrite a newer one.
func (s *Session) fetch(ctx context.Context, seq uint64, query model.QueryState) error {
	type listOut struct {
		err     error
		records []model.Transaction
	}
	type countOut struct {
		err   error
		count int
	}

	listCh := make(chan listOut, 1)
	countCh := make(chan countOut, 1)

	go func() {
		var records []model.Transaction
		err := common.WithRetry(ctx, func() error {
			var lerr error
			records, lerr = s.store.ListTransactions(ctx, query)
			return lerr
		}, s.retryOpts)
		listCh <- listOut{records: records, err: err}
	}()
	go func() {
		var count int
		err := common.WithRetry(ctx, func() error {
			var cerr error
			count, cerr = s.store.CountTransactions(ctx, query.Filter)
			return cerr
		}, s.retryOpts)
		countCh <- countOut{count: count, err: err}
	}()

	list := <-listCh
	count := <-countCh

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.fetchSeq {
		// A newer fetch was issued while this one was in flight.
		return nil
	}
	if list.err != nil {
		s.fetchErr = list.err
		return list.err
	}
	if count.err != nil {
		s.fetchErr = count.err
		return count.err
	}
	s.records = list.records
	s.totalCount = count.count
	s.fetchErr = nil
	return nil
}

// ToggleSelection flips the selection state of one record id.
func (s *Session) ToggleSelection(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Toggle(id)
}

// SelectAll toggles selection of the whole visible page.
func (s *Session) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.SelectAll(s.records)
}

// DeselectAll empties the selection.
func (s *Session) DeselectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Clear()
}

// SelectByAttribute selects every visible record sharing an attribute value,
// e.g. all rows from the same vendor.
func (s *Session) SelectByAttribute(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.SelectByAttribute(s.records, name, value)
}

// SelectedIDs returns the current selection in stable order.
func (s *Session) SelectedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.IDs()
}
