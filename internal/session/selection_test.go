package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/radup/fintable/internal/model"
)

func page(ids ...string) []model.Transaction {
	out := make([]model.Transaction, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Transaction{ID: id, Vendor: "Shell"})
	}
	return out
}

func TestSelection_Toggle(t *testing.T) {
	sel := NewSelection()

	sel.Toggle("a")
	assert.True(t, sel.Has("a"))
	assert.Equal(t, 1, sel.Len())

	sel.Toggle("a")
	assert.False(t, sel.Has("a"))
	assert.Equal(t, 0, sel.Len())
}

func TestSelection_SelectAllToggles(t *testing.T) {
	sel := NewSelection()
	visible := page("a", "b", "c")

	sel.SelectAll(visible)
	assert.Equal(t, []string{"a", "b", "c"}, sel.IDs())

	// Every visible row is selected, so a second invocation clears.
	sel.SelectAll(visible)
	assert.Equal(t, 0, sel.Len())

	// A partial selection flips to the full page, not to empty.
	sel.Toggle("b")
	sel.SelectAll(visible)
	assert.Equal(t, []string{"a", "b", "c"}, sel.IDs())
}

func TestSelection_SelectAllReplacesStaleIDs(t *testing.T) {
	sel := NewSelection()
	sel.Toggle("stale")

	sel.SelectAll(page("a", "b"))
	assert.Equal(t, []string{"a", "b"}, sel.IDs())
	assert.False(t, sel.Has("stale"))
}

func TestSelection_SelectByAttribute(t *testing.T) {
	visible := []model.Transaction{
		{ID: "a", Vendor: "Shell"},
		{ID: "b", Vendor: "shell"},
		{ID: "c", Vendor: "Metro"},
	}

	sel := NewSelection()
	sel.SelectByAttribute(visible, "vendor", "SHELL")
	assert.Equal(t, []string{"a", "b"}, sel.IDs())

	// An empty value never matches anything.
	sel.Clear()
	sel.SelectByAttribute(visible, "vendor", "")
	assert.Equal(t, 0, sel.Len())
}
