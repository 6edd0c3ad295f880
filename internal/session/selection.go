package session

import (
	"sort"

	"github.com/radup/fintable/internal/model"
)

// Selection is the set of record identifiers marked for bulk action. It is
// only meaningful relative to one cache snapshot and is cleared whenever the
// query changes or a bulk command lands. Not safe for concurrent use on its
// own; the session's lock guards it.
type Selection struct {
	ids map[string]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{ids: make(map[string]struct{})}
}

// Toggle flips the selection state of one id.
func (s *Selection) Toggle(id string) {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
		return
	}
	s.ids[id] = struct{}{}
}

// Has reports whether id is selected.
func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	return len(s.ids)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.ids = make(map[string]struct{})
}

// IDs returns the selected ids in a stable order.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// SelectAll toggles against "is every visible row currently selected": if
// the whole page is already selected it empties the selection, otherwise it
// selects exactly the visible page.
func (s *Selection) SelectAll(visible []model.Transaction) {
	if len(visible) > 0 && s.allSelected(visible) {
		s.Clear()
		return
	}
	s.Clear()
	for _, t := range visible {
		s.ids[t.ID] = struct{}{}
	}
}

func (s *Selection) allSelected(visible []model.Transaction) bool {
	for _, t := range visible {
		if !s.Has(t.ID) {
			return false
		}
	}
	return true
}

// SelectByAttribute adds every visible record whose named attribute matches
// value, case-insensitively. An absent value is a no-op.
func (s *Selection) SelectByAttribute(visible []model.Transaction, name, value string) {
	if value == "" {
		return
	}
	for _, t := range visible {
		if t.AttributeEquals(name, value) {
			s.ids[t.ID] = struct{}{}
		}
	}
}
