package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CommandKind distinguishes the bulk mutation variants.
type CommandKind string

const (
	// CommandCategorize assigns a category/subcategory to every target.
	CommandCategorize CommandKind = "categorize"
	// CommandUpdate applies arbitrary field updates to every target.
	CommandUpdate CommandKind = "update"
	// CommandDelete removes every target.
	CommandDelete CommandKind = "delete"
	// CommandCreate recreates records with given values. It only occurs as
	// the inverse of a delete.
	CommandCreate CommandKind = "create"
)

// Payload carries the values a bulk command applies. Which fields are
// meaningful depends on the command kind.
type Payload struct {
	Category    string         // categorize
	Subcategory string         // categorize
	Fields      map[string]any // update: field name -> new value
	Records     []Transaction  // create: full records to recreate
}

// BulkCommand is one batched mutation against a set of record identifiers.
// PerRecord, when set, overrides Payload per target id; it is how inverse
// commands restore values that differed between records.
type BulkCommand struct {
	Kind      CommandKind
	TargetIDs []string
	Payload   Payload
	PerRecord map[string]Payload
}

// NewCommandID returns a fresh identifier for a dispatched bulk command.
func NewCommandID() string {
	return uuid.NewString()
}

// BulkResult is the structured per-item outcome of one bulk command.
// SucceededIDs and FailedIDs are disjoint and together cover the targets.
type BulkResult struct {
	FailedIDs      map[string]string // id -> error reason
	CommandID      string
	SucceededIDs   []string
	ProcessingTime time.Duration
	TotalTargeted  int
}

// ZeroResult is what an undo/redo on an empty stack returns: nothing was
// targeted, nothing happened.
func ZeroResult() *BulkResult {
	return &BulkResult{FailedIDs: map[string]string{}}
}

// Empty reports whether the result covers no targets at all.
func (r *BulkResult) Empty() bool {
	return r.TotalTargeted == 0
}

// AllFailed builds a result marking every target as failed with the same
// reason. Used when transport fails before any per-item outcome exists.
func AllFailed(commandID string, targetIDs []string, reason string) *BulkResult {
	failed := make(map[string]string, len(targetIDs))
	for _, id := range targetIDs {
		failed[id] = reason
	}
	return &BulkResult{
		CommandID:     commandID,
		TotalTargeted: len(targetIDs),
		FailedIDs:     failed,
	}
}

// Summary renders the user-facing outcome line.
func (r *BulkResult) Summary() string {
	if r.Empty() {
		return "nothing to do"
	}
	return fmt.Sprintf("%d of %d succeeded", len(r.SucceededIDs), r.TotalTargeted)
}

// Validate checks the partition invariant against the targeted ids:
// succeeded and failed are disjoint and their union is exactly targets.
func (r *BulkResult) Validate(targetIDs []string) error {
	seen := make(map[string]bool, len(targetIDs))
	for _, id := range r.SucceededIDs {
		if seen[id] {
			return fmt.Errorf("duplicate id %q in result", id)
		}
		seen[id] = true
	}
	for id := range r.FailedIDs {
		if seen[id] {
			return fmt.Errorf("id %q reported as both succeeded and failed", id)
		}
		seen[id] = true
	}
	if len(seen) != len(targetIDs) {
		return fmt.Errorf("result covers %d ids, command targeted %d", len(seen), len(targetIDs))
	}
	for _, id := range targetIDs {
		if !seen[id] {
			return fmt.Errorf("target id %q missing from result", id)
		}
	}
	return nil
}

// HistoryEntry records one applied bulk command together with everything
// needed to reverse it. Entries are immutable once recorded.
type HistoryEntry struct {
	Timestamp time.Time
	CommandID string
	Forward   BulkCommand
	Inverse   BulkCommand
	Result    BulkResult
}

// ComputeInverse derives the command that restores the pre-mutation state of
// the targeted records. The snapshot must be taken before the forward
// command is applied. Targets absent from the snapshot are dropped from the
// inverse: there is nothing known to restore for them.
func ComputeInverse(cmd BulkCommand, snapshot []Transaction) BulkCommand {
	byID := make(map[string]Transaction, len(snapshot))
	for _, t := range snapshot {
		byID[t.ID] = t
	}

	switch cmd.Kind {
	case CommandDelete:
		records := make([]Transaction, 0, len(cmd.TargetIDs))
		ids := make([]string, 0, len(cmd.TargetIDs))
		for _, id := range cmd.TargetIDs {
			if t, ok := byID[id]; ok {
				records = append(records, t)
				ids = append(ids, id)
			}
		}
		return BulkCommand{
			Kind:      CommandCreate,
			TargetIDs: ids,
			Payload:   Payload{Records: records},
		}

	case CommandCreate:
		return BulkCommand{
			Kind:      CommandDelete,
			TargetIDs: append([]string(nil), cmd.TargetIDs...),
		}

	case CommandCategorize:
		perRecord := make(map[string]Payload, len(cmd.TargetIDs))
		ids := make([]string, 0, len(cmd.TargetIDs))
		for _, id := range cmd.TargetIDs {
			t, ok := byID[id]
			if !ok {
				continue
			}
			perRecord[id] = Payload{
				Fields: map[string]any{
					"category":       t.Category,
					"subcategory":    t.Subcategory,
					"is_categorized": t.IsCategorized,
				},
			}
			ids = append(ids, id)
		}
		return BulkCommand{
			Kind:      CommandUpdate,
			TargetIDs: ids,
			PerRecord: perRecord,
		}

	case CommandUpdate:
		perRecord := make(map[string]Payload, len(cmd.TargetIDs))
		ids := make([]string, 0, len(cmd.TargetIDs))
		for _, id := range cmd.TargetIDs {
			t, ok := byID[id]
			if !ok {
				continue
			}
			prior := make(map[string]any, len(cmd.Payload.Fields))
			for field := range cmd.Payload.Fields {
				if v, ok := fieldValue(t, field); ok {
					prior[field] = v
				}
			}
			perRecord[id] = Payload{Fields: prior}
			ids = append(ids, id)
		}
		return BulkCommand{
			Kind:      CommandUpdate,
			TargetIDs: ids,
			PerRecord: perRecord,
		}
	}

	// Unknown kinds restore nothing.
	return BulkCommand{Kind: cmd.Kind}
}

// fieldValue extracts a named mutable field from a transaction.
func fieldValue(t Transaction, field string) (any, bool) {
	switch field {
	case "description":
		return t.Description, true
	case "vendor":
		return t.Vendor, true
	case "category":
		return t.Category, true
	case "subcategory":
		return t.Subcategory, true
	case "amount":
		return t.Amount, true
	case "is_income":
		return t.IsIncome, true
	case "is_categorized":
		return t.IsCategorized, true
	default:
		return nil, false
	}
}
