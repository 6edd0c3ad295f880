package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radup/fintable/internal/common"
	"github.com/radup/fintable/internal/model"
)

func rec(id, vendor, category string, amount float64) model.Transaction {
	return model.Transaction{
		ID:            id,
		Date:          time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Description:   vendor + " purchase",
		Vendor:        vendor,
		Category:      category,
		Amount:        amount,
		IsCategorized: category != "",
	}
}

func newTestSession(store *MemoryStore) *Session {
	return New(Config{
		Store:        store,
		RetryOptions: common.RetryOptions{MaxAttempts: 1, InitialDelay: time.Millisecond},
	})
}

func TestSession_RefreshPopulatesSnapshot(t *testing.T) {
	store := NewMemoryStore(
		rec("a", "Shell", "Transport", 40),
		rec("b", "Metro", "", 2.50),
		rec("c", "Cafe", "Food", 8),
	)
	s := newTestSession(store)

	require.NoError(t, s.Refresh(context.Background()))

	snap := s.Snapshot()
	assert.Len(t, snap.Records, 3)
	assert.Equal(t, 3, snap.TotalCount)
	assert.NoError(t, snap.FetchErr)
	assert.False(t, snap.Busy)
	assert.False(t, snap.CanUndo)
}

func TestSession_QueryChangeClearsSelection(t *testing.T) {
	store := NewMemoryStore(
		rec("a", "Shell", "", 40),
		rec("b", "Metro", "", 2.50),
	)
	s := newTestSession(store)
	ctx := context.Background()
	require.NoError(t, s.Refresh(ctx))

	tests := []struct {
		change func() error
		name   string
	}{
		{name: "filter", change: func() error { return s.SetFilter(ctx, map[string]string{"vendor": "Shell"}) }},
		{name: "sort", change: func() error { return s.SetSort(ctx, model.SortByAmount, model.SortAsc) }},
		{name: "page", change: func() error { return s.SetPage(ctx, 1) }},
		{name: "page size", change: func() error { return s.SetPageSize(ctx, 10) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.ToggleSelection("a")
			require.Equal(t, []string{"a"}, s.SelectedIDs())

			require.NoError(t, tt.change())
			assert.Empty(t, s.SelectedIDs())
		})
	}
}

func TestSession_FilterAndSortResetPage(t *testing.T) {
	store := NewMemoryStore(
		rec("a", "Shell", "", 40),
		rec("b", "Metro", "", 2.50),
		rec("c", "Cafe", "", 8),
	)
	s := New(Config{Store: store, PageSize: 2})
	ctx := context.Background()

	require.NoError(t, s.SetPage(ctx, 2))
	assert.Equal(t, 2, s.Snapshot().Query.PageIndex)

	require.NoError(t, s.SetSort(ctx, model.SortByAmount, model.SortAsc))
	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Query.PageIndex)
	require.Len(t, snap.Records, 2)
	assert.Equal(t, "b", snap.Records[0].ID)
}

func TestSession_InvalidFilterLeavesStateUntouched(t *testing.T) {
	store := NewMemoryStore(rec("a", "Shell", "", 40))
	s := newTestSession(store)
	ctx := context.Background()
	require.NoError(t, s.Refresh(ctx))
	listBefore, _, _ := store.Calls()

	err := s.SetFilter(ctx, map[string]string{"is_income": "maybe"})
	require.Error(t, err)
	assert.True(t, common.IsValidation(err))

	listAfter, _, _ := store.Calls()
	assert.Equal(t, listBefore, listAfter)
	assert.Len(t, s.Snapshot().Records, 1)
}

func TestSession_FetchErrorKeepsLastGoodPage(t *testing.T) {
	store := NewMemoryStore(rec("a", "Shell", "", 40))
	s := newTestSession(store)
	ctx := context.Background()
	require.NoError(t, s.Refresh(ctx))

	store.FailList = errors.New("connection refused")
	err := s.Refresh(ctx)
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Error(t, snap.FetchErr)
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "a", snap.Records[0].ID)

	// Recovery clears the fetch error.
	store.FailList = nil
	require.NoError(t, s.Refresh(ctx))
	assert.NoError(t, s.Snapshot().FetchErr)
}

func TestSession_StaleFetchIsDiscarded(t *testing.T) {
	store := NewMemoryStore(
		rec("a", "Shell", "", 40),
		rec("b", "Metro", "", 2.50),
	)
	s := newTestSession(store)
	ctx := context.Background()

	slowStarted := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	store.ListHook = func(query model.QueryState) {
		if query.Filter["vendor"] == "Shell" {
			once.Do(func() { close(slowStarted) })
			<-release
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- s.SetFilter(ctx, map[string]string{"vendor": "Shell"})
	}()
	<-slowStarted

	// A newer query lands while the first fetch is still in flight.
	require.NoError(t, s.SetFilter(ctx, map[string]string{"vendor": "Metro"}))

	close(release)
	require.NoError(t, <-done)

	// The slow response belongs to a superseded generation and is dropped.
	snap := s.Snapshot()
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "b", snap.Records[0].ID)
	assert.Equal(t, "Metro", snap.Query.Filter["vendor"])
}

func TestSession_SelectByAttributeOverVisiblePage(t *testing.T) {
	store := NewMemoryStore(
		rec("a", "Shell", "", 40),
		rec("b", "shell", "", 55),
		rec("c", "Metro", "", 2.50),
	)
	s := newTestSession(store)
	require.NoError(t, s.Refresh(context.Background()))

	s.SelectByAttribute("vendor", "shell")
	assert.Equal(t, []string{"a", "b"}, s.SelectedIDs())

	s.DeselectAll()
	assert.Empty(t, s.SelectedIDs())
}
