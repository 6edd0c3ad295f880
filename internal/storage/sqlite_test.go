package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radup/fintable/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedStore(t *testing.T, store *SQLiteStore, records ...model.Transaction) {
	t.Helper()
	require.NoError(t, store.SaveTransactions(context.Background(), records))
}

func txn(id string, day int, vendor, category string, amount float64) model.Transaction {
	return model.Transaction{
		ID:            id,
		Date:          time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
		Description:   vendor + " purchase",
		Vendor:        vendor,
		Category:      category,
		Amount:        amount,
		IsCategorized: category != "",
	}
}

func TestNewSQLiteStore_RequiresPath(t *testing.T) {
	_, err := NewSQLiteStore("")
	assert.Error(t, err)
}

func TestSQLiteStore_ListSortAndPaginate(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store,
		txn("a", 3, "Shell", "Transport", 40),
		txn("b", 1, "Metro", "", 2.50),
		txn("c", 2, "Cafe", "Food", 8),
	)
	ctx := context.Background()

	// Default ordering is newest first.
	records, err := store.ListTransactions(ctx, model.DefaultQueryState())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[2].ID)

	// Amount ascending.
	query, err := model.DefaultQueryState().WithSort(model.SortByAmount, model.SortAsc)
	require.NoError(t, err)
	records, err = store.ListTransactions(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, "b", records[0].ID)
	assert.Equal(t, "a", records[2].ID)

	// Page 2 of size 2.
	query, err = model.DefaultQueryState().WithPageSize(2)
	require.NoError(t, err)
	query, err = query.WithPage(2)
	require.NoError(t, err)
	records, err = store.ListTransactions(ctx, query)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "b", records[0].ID)

	// Past the end is an empty page, not an error.
	query, err = query.WithPage(5)
	require.NoError(t, err)
	records, err = store.ListTransactions(ctx, query)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSQLiteStore_FilterAndCount(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store,
		txn("a", 1, "Shell", "Transport", 40),
		txn("b", 2, "shell", "", 55),
		txn("c", 3, "Metro", "Transport", 2.50),
	)
	ctx := context.Background()

	// Text filters match case-insensitively.
	query := model.DefaultQueryState().WithFilter(model.Filter{"vendor": "SHELL"})
	records, err := store.ListTransactions(ctx, query)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	count, err := store.CountTransactions(ctx, model.Filter{"vendor": "SHELL"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Boolean filter.
	count, err = store.CountTransactions(ctx, model.Filter{"is_categorized": false})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Free-text search hits the description.
	count, err = store.CountTransactions(ctx, model.Filter{"search": "metro"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Unknown filter keys are ignored rather than failing the query.
	count, err = store.CountTransactions(ctx, model.Filter{"nonsense": "x"})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSQLiteStore_SaveIgnoresDuplicates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	original := txn("a", 1, "Shell", "", 40)
	seedStore(t, store, original)

	changed := original
	changed.Vendor = "Somebody Else"
	seedStore(t, store, changed)

	count, err := store.CountTransactions(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	records, err := store.ListTransactions(ctx, model.DefaultQueryState())
	require.NoError(t, err)
	assert.Equal(t, "Shell", records[0].Vendor)
}

func TestSQLiteStore_BulkCategorize(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store,
		txn("a", 1, "Shell", "", 40),
		txn("b", 2, "Metro", "", 2.50),
	)
	ctx := context.Background()

	result, err := store.ApplyBulk(ctx, model.BulkCommand{
		Kind:      model.CommandCategorize,
		TargetIDs: []string{"a", "b"},
		Payload:   model.Payload{Category: "Transport", Subcategory: "Fuel"},
	})
	require.NoError(t, err)
	assert.Len(t, result.SucceededIDs, 2)
	assert.NotEmpty(t, result.CommandID)
	assert.NoError(t, result.Validate([]string{"a", "b"}))

	count, err := store.CountTransactions(ctx, model.Filter{"category": "Transport", "is_categorized": true})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSQLiteStore_BulkPartialFailure(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store, txn("a", 1, "Shell", "", 40))
	ctx := context.Background()

	result, err := store.ApplyBulk(ctx, model.BulkCommand{
		Kind:      model.CommandDelete,
		TargetIDs: []string{"a", "ghost"},
	})
	require.NoError(t, err)

	// The missing id fails, the present one still commits.
	assert.Equal(t, []string{"a"}, result.SucceededIDs)
	assert.Contains(t, result.FailedIDs["ghost"], "not found")

	count, err := store.CountTransactions(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSQLiteStore_BulkUpdateWithOverrides(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store,
		txn("a", 1, "Shell", "Transport", 40),
		txn("b", 2, "Metro", "Transport", 2.50),
	)
	ctx := context.Background()

	result, err := store.ApplyBulk(ctx, model.BulkCommand{
		Kind:      model.CommandUpdate,
		TargetIDs: []string{"a", "b"},
		PerRecord: map[string]model.Payload{
			"a": {Fields: map[string]any{"category": "Fuel"}},
			"b": {Fields: map[string]any{"category": "Travel", "is_categorized": false}},
		},
	})
	require.NoError(t, err)
	assert.Len(t, result.SucceededIDs, 2)

	count, err := store.CountTransactions(ctx, model.Filter{"category": "Fuel"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = store.CountTransactions(ctx, model.Filter{"category": "Travel", "is_categorized": false})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSQLiteStore_BulkUpdateRejectsUnknownField(t *testing.T) {
	store := newTestStore(t)
	seedStore(t, store, txn("a", 1, "Shell", "", 40))

	result, err := store.ApplyBulk(context.Background(), model.BulkCommand{
		Kind:      model.CommandUpdate,
		TargetIDs: []string{"a"},
		Payload:   model.Payload{Fields: map[string]any{"id": "b"}},
	})
	require.NoError(t, err)
	assert.Empty(t, result.SucceededIDs)
	assert.Contains(t, result.FailedIDs["a"], "unknown field")
}

func TestSQLiteStore_BulkDeleteCreateRoundTrip(t *testing.T) {
	store := newTestStore(t)
	confidence := 0.93
	original := txn("a", 1, "Shell", "Transport", 40)
	original.Confidence = &confidence
	seedStore(t, store, original)
	ctx := context.Background()

	_, err := store.ApplyBulk(ctx, model.BulkCommand{
		Kind:      model.CommandDelete,
		TargetIDs: []string{"a"},
	})
	require.NoError(t, err)

	result, err := store.ApplyBulk(ctx, model.BulkCommand{
		Kind:      model.CommandCreate,
		TargetIDs: []string{"a"},
		Payload:   model.Payload{Records: []model.Transaction{original}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, result.SucceededIDs)

	records, err := store.ListTransactions(ctx, model.DefaultQueryState())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Shell", records[0].Vendor)
	assert.Equal(t, "Transport", records[0].Category)
	require.NotNil(t, records[0].Confidence)
	assert.Equal(t, 0.93, *records[0].Confidence)
}
