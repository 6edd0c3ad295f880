package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/radup/fintable/internal/common"
	"github.com/radup/fintable/internal/model"
)

// DispatchBulk validates and executes one bulk command as a single batched
// request. The pre-mutation snapshot for the inverse command is taken
// synchronously from the cached page before anything is sent, so it reflects
// exactly the targeted records' state at invocation time. A history entry is
// recorded on every dispatched outcome, and a refetch follows regardless of
// the success/failure mix.
func (s *Session) DispatchBulk(ctx context.Context, cmd model.BulkCommand) (*model.BulkResult, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, common.ErrOperationInProgress
	}
	if err := s.validateCommand(cmd); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	snapshot := s.snapshotTargetsLocked(cmd.TargetIDs)
	s.inFlight = true
	s.mu.Unlock()

	inverse := model.ComputeInverse(cmd, snapshot)
	result, dispatchErr := s.governor.Apply(ctx, cmd)
	if dispatchErr != nil {
		// Nothing landed server-side, so the recorded inverse is a no-op.
		inverse = model.BulkCommand{Kind: inverse.Kind}
		result = model.AllFailed(model.NewCommandID(), cmd.TargetIDs, dispatchErr.Error())
	}
	if result.CommandID == "" {
		result.CommandID = model.NewCommandID()
	}

	entry := model.HistoryEntry{
		Timestamp: time.Now(),
		CommandID: result.CommandID,
		Forward:   cmd,
		Inverse:   inverse,
		Result:    *result,
	}

	s.mu.Lock()
	s.history.Record(entry)
	if len(result.SucceededIDs) > 0 {
		s.selection.Clear()
	}
	s.lastMessage = outcomeMessage(string(cmd.Kind), result, dispatchErr)
	s.inFlight = false
	seq, query := s.nextFetchLocked()
	s.mu.Unlock()

	if err := s.fetch(ctx, seq, query); err != nil {
		slog.Warn("Refetch after bulk command failed", "error", err)
	}

	return result, dispatchErr
}

// CategorizeSelected dispatches a categorize command over the current
// selection.
func (s *Session) CategorizeSelected(ctx context.Context, category, subcategory string) (*model.BulkResult, error) {
	return s.DispatchBulk(ctx, model.BulkCommand{
		Kind:      model.CommandCategorize,
		TargetIDs: s.SelectedIDs(),
		Payload:   model.Payload{Category: category, Subcategory: subcategory},
	})
}

// DeleteSelected dispatches a delete command over the current selection.
func (s *Session) DeleteSelected(ctx context.Context) (*model.BulkResult, error) {
	return s.DispatchBulk(ctx, model.BulkCommand{
		Kind:      model.CommandDelete,
		TargetIDs: s.SelectedIDs(),
	})
}

// Undo reverses the most recent applied bulk command by dispatching its
// inverse. The entry moves to the redo side regardless of the outcome: the
// stack records intent, the returned result records what actually happened.
// An empty stack is a no-op, not an error.
func (s *Session) Undo(ctx context.Context) (*model.BulkResult, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, common.ErrOperationInProgress
	}
	entry, ok := s.history.PopApplied()
	if !ok {
		s.lastMessage = "nothing to undo"
		s.mu.Unlock()
		return model.ZeroResult(), nil
	}
	s.inFlight = true
	s.mu.Unlock()

	result, err := s.replay(ctx, entry.Inverse)

	s.mu.Lock()
	s.history.PushReversed(entry)
	if len(result.SucceededIDs) > 0 {
		s.selection.Clear()
	}
	s.lastMessage = outcomeMessage("undo", result, err)
	s.inFlight = false
	seq, query := s.nextFetchLocked()
	s.mu.Unlock()

	if ferr := s.fetch(ctx, seq, query); ferr != nil {
		slog.Warn("Refetch after undo failed", "error", ferr)
	}

	return result, err
}

// Redo re-applies the most recently undone bulk command. An empty stack is a
// no-op, not an error.
func (s *Session) Redo(ctx context.Context) (*model.BulkResult, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, common.ErrOperationInProgress
	}
	entry, ok := s.history.PopReversed()
	if !ok {
		s.lastMessage = "nothing to redo"
		s.mu.Unlock()
		return model.ZeroResult(), nil
	}
	s.inFlight = true
	s.mu.Unlock()

	result, err := s.replay(ctx, entry.Forward)

	s.mu.Lock()
	s.history.PushApplied(entry)
	if len(result.SucceededIDs) > 0 {
		s.selection.Clear()
	}
	s.lastMessage = outcomeMessage("redo", result, err)
	s.inFlight = false
	seq, query := s.nextFetchLocked()
	s.mu.Unlock()

	if ferr := s.fetch(ctx, seq, query); ferr != nil {
		slog.Warn("Refetch after redo failed", "error", ferr)
	}

	return result, err
}

// replay dispatches a command replayed from history. A no-op inverse (no
// targets) resolves immediately without touching the store.
func (s *Session) replay(ctx context.Context, cmd model.BulkCommand) (*model.BulkResult, error) {
	if len(cmd.TargetIDs) == 0 {
		return model.ZeroResult(), nil
	}
	result, err := s.governor.Apply(ctx, cmd)
	if err != nil {
		return model.AllFailed(model.NewCommandID(), cmd.TargetIDs, err.Error()), err
	}
	return result, nil
}

// validateCommand checks dispatch preconditions. Callers must hold the lock.
func (s *Session) validateCommand(cmd model.BulkCommand) error {
	if len(cmd.TargetIDs) == 0 {
		return common.NewValidationError("target_ids", common.ErrEmptySelection)
	}
	if len(cmd.TargetIDs) > s.maxTargets {
		return common.NewValidationError("target_ids",
			fmt.Errorf("%w: %d exceeds limit of %d", common.ErrTooManyTargets, len(cmd.TargetIDs), s.maxTargets))
	}
	switch cmd.Kind {
	case model.CommandCategorize:
		if cmd.Payload.Category == "" {
			return common.NewValidationError("category", common.ErrMissingCategory)
		}
	case model.CommandUpdate, model.CommandDelete, model.CommandCreate:
	default:
		return common.NewValidationError("kind", fmt.Errorf("unknown command kind %q", cmd.Kind))
	}
	return nil
}

// snapshotTargetsLocked copies the targeted records out of the cached page.
// Callers must hold the lock.
func (s *Session) snapshotTargetsLocked(targetIDs []string) []model.Transaction {
	wanted := make(map[string]bool, len(targetIDs))
	for _, id := range targetIDs {
		wanted[id] = true
	}
	snapshot := make([]model.Transaction, 0, len(targetIDs))
	for _, t := range s.records {
		if wanted[t.ID] {
			snapshot = append(snapshot, t)
		}
	}
	return snapshot
}

// outcomeMessage renders the human-readable outcome line for an operation.
func outcomeMessage(op string, result *model.BulkResult, err error) string {
	if err != nil {
		if after, ok := common.RetryAfter(err); ok {
			return fmt.Sprintf("%s rate limited, wait %s and try again", op, after)
		}
		return fmt.Sprintf("%s failed: %v", op, err)
	}
	return fmt.Sprintf("%s: %s", op, result.Summary())
}
