package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/radup/fintable/internal/model"
)

// sortColumns whitelists ORDER BY targets per sort field. Status sorts on
// the categorized flag.
var sortColumns = map[model.SortField]string{
	model.SortByDate:        "date",
	model.SortByDescription: "description",
	model.SortByVendor:      "vendor",
	model.SortByAmount:      "amount",
	model.SortByCategory:    "category",
	model.SortBySubcategory: "subcategory",
	model.SortByStatus:      "is_categorized",
}

// filterColumns whitelists WHERE targets per filter key.
var filterColumns = map[string]string{
	"vendor":         "vendor",
	"category":       "category",
	"subcategory":    "subcategory",
	"is_income":      "is_income",
	"is_categorized": "is_categorized",
}

// ListTransactions returns one ordered page of records for the query.
func (s *SQLiteStore) ListTransactions(ctx context.Context, query model.QueryState) ([]model.Transaction, error) {
	where, args := buildWhere(query.Filter)

	column, ok := sortColumns[query.SortField]
	if !ok {
		column = "date"
	}
	direction := "DESC"
	if query.SortDirection == model.SortAsc {
		direction = "ASC"
	}

	stmt := fmt.Sprintf(`
		SELECT id, date, description, vendor, amount, category, subcategory,
		       is_income, is_categorized, confidence
		FROM transactions
		%s
		ORDER BY %s %s, id ASC
		LIMIT ? OFFSET ?`, where, column, direction)
	args = append(args, query.PageSize, query.Skip())

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var confidence sql.NullFloat64
		if err := rows.Scan(&t.ID, &t.Date, &t.Description, &t.Vendor, &t.Amount,
			&t.Category, &t.Subcategory, &t.IsIncome, &t.IsCategorized, &confidence); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if confidence.Valid {
			v := confidence.Float64
			t.Confidence = &v
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// CountTransactions returns the total matching count for a filter.
func (s *SQLiteStore) CountTransactions(ctx context.Context, filter model.Filter) (int, error) {
	where, args := buildWhere(filter)

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions "+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// SaveTransactions inserts records, ignoring duplicates. Used by the seed
// path.
func (s *SQLiteStore) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (
			id, date, description, vendor, amount,
			category, subcategory, is_income, is_categorized, confidence
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, t := range transactions {
		var confidence any
		if t.Confidence != nil {
			confidence = *t.Confidence
		}
		if _, err := stmt.ExecContext(ctx,
			t.ID, t.Date, t.Description, t.Vendor, t.Amount,
			t.Category, t.Subcategory, t.IsIncome, t.IsCategorized, confidence,
		); err != nil {
			return fmt.Errorf("failed to insert transaction %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// buildWhere renders a WHERE clause from normalized filter values. Text
// matches are case-insensitive; the free-text search key matches the
// description with a substring LIKE. Unknown keys are skipped.
func buildWhere(filter model.Filter) (string, []any) {
	var clauses []string
	var args []any

	for key, value := range filter {
		if key == "search" {
			clauses = append(clauses, "description LIKE ? COLLATE NOCASE")
			args = append(args, "%"+fmt.Sprint(value)+"%")
			continue
		}
		column, ok := filterColumns[key]
		if !ok {
			slog.Debug("Skipping unknown filter key", "key", key)
			continue
		}
		switch v := value.(type) {
		case bool:
			clauses = append(clauses, column+" = ?")
			args = append(args, v)
		default:
			clauses = append(clauses, column+" = ? COLLATE NOCASE")
			args = append(args, fmt.Sprint(v))
		}
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}
