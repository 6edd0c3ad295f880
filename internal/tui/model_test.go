package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/radup/fintable/internal/model"
	"github.com/radup/fintable/internal/session"
)

func TestSplitCategory(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantCat string
		wantSub string
	}{
		{name: "category only", input: "Food", wantCat: "Food"},
		{name: "category and subcategory", input: "Food/Dining", wantCat: "Food", wantSub: "Dining"},
		{name: "whitespace trimmed", input: " Food / Dining ", wantCat: "Food", wantSub: "Dining"},
		{name: "extra slash stays in subcategory", input: "Food/Dining/Out", wantCat: "Food", wantSub: "Dining/Out"},
		{name: "empty", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, sub := splitCategory(tt.input)
			assert.Equal(t, tt.wantCat, cat)
			assert.Equal(t, tt.wantSub, sub)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "long stor…", truncate("long story indeed", 10))
	assert.Equal(t, "l", truncate("long", 1))
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		pageSize int
		want     int
	}{
		{name: "empty table still has one page", total: 0, pageSize: 50, want: 1},
		{name: "exact fit", total: 100, pageSize: 50, want: 2},
		{name: "remainder adds a page", total: 101, pageSize: 50, want: 3},
		{name: "zero size falls back to default", total: 75, pageSize: 0, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Model{snap: session.Snapshot{
				TotalCount: tt.total,
				Query:      model.QueryState{PageSize: tt.pageSize},
			}}
			assert.Equal(t, tt.want, m.totalPages())
		})
	}
}

func TestNextSortCycles(t *testing.T) {
	m := Model{snap: session.Snapshot{Query: model.QueryState{
		SortField:     sortCycle[0],
		SortDirection: model.SortDesc,
	}}}

	field, direction := m.nextSort()
	assert.Equal(t, sortCycle[1], field)
	assert.Equal(t, model.SortDesc, direction)

	// The last entry wraps back to the first.
	m.snap.Query.SortField = sortCycle[len(sortCycle)-1]
	field, _ = m.nextSort()
	assert.Equal(t, sortCycle[0], field)
}
