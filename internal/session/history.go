package session

import "github.com/radup/fintable/internal/model"

// History is the linear undo/redo log of applied bulk commands. Entries are
// append-only and never rewritten; undo moves an entry to the reversed stack
// and redo moves it back. Guarded by the session's lock.
type History struct {
	applied  []model.HistoryEntry
	reversed []model.HistoryEntry
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{}
}

// Record appends a new forward command to the applied stack. Any redo
// entries are invalidated: the timeline has branched.
func (h *History) Record(entry model.HistoryEntry) {
	h.applied = append(h.applied, entry)
	h.reversed = nil
}

// PopApplied removes and returns the most recently applied entry.
func (h *History) PopApplied() (model.HistoryEntry, bool) {
	if len(h.applied) == 0 {
		return model.HistoryEntry{}, false
	}
	entry := h.applied[len(h.applied)-1]
	h.applied = h.applied[:len(h.applied)-1]
	return entry, true
}

// PushReversed marks an entry as undone, making it redoable.
func (h *History) PushReversed(entry model.HistoryEntry) {
	h.reversed = append(h.reversed, entry)
}

// PopReversed removes and returns the most recently undone entry.
func (h *History) PopReversed() (model.HistoryEntry, bool) {
	if len(h.reversed) == 0 {
		return model.HistoryEntry{}, false
	}
	entry := h.reversed[len(h.reversed)-1]
	h.reversed = h.reversed[:len(h.reversed)-1]
	return entry, true
}

// PushApplied marks an entry as re-applied after a redo.
func (h *History) PushApplied(entry model.HistoryEntry) {
	h.applied = append(h.applied, entry)
}

// CanUndo reports whether there is an applied entry to reverse.
func (h *History) CanUndo() bool {
	return len(h.applied) > 0
}

// CanRedo reports whether there is an undone entry to re-apply.
func (h *History) CanRedo() bool {
	return len(h.reversed) > 0
}
