// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/radup/fintable/internal/model"
)

// TransactionStore is the contract the table session has with the durable
// transaction store, remote or local. List and Count take the same filter;
// Count ignores pagination.
type TransactionStore interface {
	// ListTransactions returns one ordered page of records for the query.
	ListTransactions(ctx context.Context, query model.QueryState) ([]model.Transaction, error)

	// CountTransactions returns the total number of records matching the
	// filter, independent of pagination.
	CountTransactions(ctx context.Context, filter model.Filter) (int, error)

	// ApplyBulk applies one batched mutation and reports per-item outcomes.
	// A mixed result is not an error; the error return is reserved for
	// validation, throttling, and transport failures where no per-item
	// outcome exists.
	ApplyBulk(ctx context.Context, cmd model.BulkCommand) (*model.BulkResult, error)
}

// Suggestion is an AI-proposed categorization for a single record.
type Suggestion struct {
	Category    string
	Subcategory string
	Confidence  float64
}

// Suggester provides read-only category suggestions. It is never on the
// mutation path.
type Suggester interface {
	Suggest(ctx context.Context, txn model.Transaction) (*Suggestion, error)
}
