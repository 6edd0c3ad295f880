package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/radup/fintable/internal/model"
)

// updateColumns whitelists the fields a bulk update may touch.
var updateColumns = map[string]string{
	"description":    "description",
	"vendor":         "vendor",
	"amount":         "amount",
	"category":       "category",
	"subcategory":    "subcategory",
	"is_income":      "is_income",
	"is_categorized": "is_categorized",
}

// ApplyBulk applies one batched mutation inside a single SQL transaction,
// collecting per-id failures instead of aborting. A missing id is a failed
// operation, not a hard error; successes commit regardless.
func (s *SQLiteStore) ApplyBulk(ctx context.Context, cmd model.BulkCommand) (*model.BulkResult, error) {
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result := &model.BulkResult{
		CommandID:     model.NewCommandID(),
		TotalTargeted: len(cmd.TargetIDs),
		FailedIDs:     make(map[string]string),
	}

	for _, id := range cmd.TargetIDs {
		if err := s.applyOne(ctx, tx, cmd, id); err != nil {
			result.FailedIDs[id] = err.Error()
			continue
		}
		result.SucceededIDs = append(result.SucceededIDs, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit bulk %s: %w", cmd.Kind, err)
	}

	result.ProcessingTime = time.Since(start)
	return result, nil
}

func (s *SQLiteStore) applyOne(ctx context.Context, tx *sql.Tx, cmd model.BulkCommand, id string) error {
	payload := cmd.Payload
	if override, ok := cmd.PerRecord[id]; ok {
		payload = override
	}

	switch cmd.Kind {
	case model.CommandCategorize:
		res, err := tx.ExecContext(ctx, `
			UPDATE transactions
			SET category = ?, subcategory = ?, is_categorized = 1
			WHERE id = ?`,
			payload.Category, payload.Subcategory, id)
		if err != nil {
			return err
		}
		return requireRow(res, id)

	case model.CommandUpdate:
		if len(payload.Fields) == 0 {
			return fmt.Errorf("no fields to update")
		}
		var sets []string
		var args []any
		for field, value := range payload.Fields {
			column, ok := updateColumns[field]
			if !ok {
				return fmt.Errorf("unknown field %q", field)
			}
			sets = append(sets, column+" = ?")
			args = append(args, value)
		}
		args = append(args, id)
		res, err := tx.ExecContext(ctx,
			"UPDATE transactions SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return err
		}
		return requireRow(res, id)

	case model.CommandDelete:
		res, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
		if err != nil {
			return err
		}
		return requireRow(res, id)

	case model.CommandCreate:
		record, ok := findRecord(payload.Records, cmd.Payload.Records, id)
		if !ok {
			return fmt.Errorf("no record values for %q", id)
		}
		var confidence any
		if record.Confidence != nil {
			confidence = *record.Confidence
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO transactions (
				id, date, description, vendor, amount,
				category, subcategory, is_income, is_categorized, confidence
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.ID, record.Date, record.Description, record.Vendor, record.Amount,
			record.Category, record.Subcategory, record.IsIncome, record.IsCategorized, confidence)
		return err

	default:
		return fmt.Errorf("unknown command kind %q", cmd.Kind)
	}
}

func findRecord(primary, fallback []model.Transaction, id string) (model.Transaction, bool) {
	for _, r := range primary {
		if r.ID == id {
			return r, true
		}
	}
	for _, r := range fallback {
		if r.ID == id {
			return r, true
		}
	}
	return model.Transaction{}, false
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("transaction %q not found", id)
	}
	return nil
}
