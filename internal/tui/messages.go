package tui

import (
	"github.com/radup/fintable/internal/model"
	"github.com/radup/fintable/internal/service"
	"github.com/radup/fintable/internal/session"
)

// snapshotMsg carries a fresh session snapshot after any session operation.
type snapshotMsg struct {
	err  error
	snap session.Snapshot
}

// bulkDoneMsg signals a completed bulk command, undo, or redo.
type bulkDoneMsg struct {
	result *model.BulkResult
	err    error
	snap   session.Snapshot
}

// suggestionMsg carries an AI suggestion for one record.
type suggestionMsg struct {
	suggestion *service.Suggestion
	err        error
	id         string
}
