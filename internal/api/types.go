package api

import (
	"time"

	"github.com/radup/fintable/internal/model"
)

// Wire representation of a transaction record.
type wireTransaction struct {
	Date          time.Time `json:"date"`
	Confidence    *float64  `json:"confidence_score,omitempty"`
	ID            string    `json:"id"`
	Description   string    `json:"description"`
	Vendor        string    `json:"vendor,omitempty"`
	Category      string    `json:"category,omitempty"`
	Subcategory   string    `json:"subcategory,omitempty"`
	Amount        float64   `json:"amount"`
	IsIncome      bool      `json:"is_income"`
	IsCategorized bool      `json:"is_categorized"`
}

func (w wireTransaction) toModel() model.Transaction {
	return model.Transaction{
		ID:            w.ID,
		Date:          w.Date,
		Description:   w.Description,
		Vendor:        w.Vendor,
		Category:      w.Category,
		Subcategory:   w.Subcategory,
		Amount:        w.Amount,
		IsIncome:      w.IsIncome,
		IsCategorized: w.IsCategorized,
		Confidence:    w.Confidence,
	}
}

func toWire(t model.Transaction) wireTransaction {
	return wireTransaction{
		ID:            t.ID,
		Date:          t.Date,
		Description:   t.Description,
		Vendor:        t.Vendor,
		Category:      t.Category,
		Subcategory:   t.Subcategory,
		Amount:        t.Amount,
		IsIncome:      t.IsIncome,
		IsCategorized: t.IsCategorized,
		Confidence:    t.Confidence,
	}
}

type listResponse struct {
	Items []wireTransaction `json:"items"`
}

type countResponse struct {
	Count int `json:"count"`
}

type bulkRequest struct {
	Updates        map[string]any            `json:"updates,omitempty"`
	Overrides      map[string]map[string]any `json:"overrides,omitempty"`
	Category       string                    `json:"category,omitempty"`
	Subcategory    string                    `json:"subcategory,omitempty"`
	TransactionIDs []string                  `json:"transaction_ids"`
	Records        []wireTransaction         `json:"records,omitempty"`
}

type failedOperation struct {
	TransactionID string `json:"transaction_id"`
	Error         string `json:"error"`
}

type bulkResponse struct {
	CommandID      string            `json:"command_id"`
	Successful     []string          `json:"successful_operations"`
	Failed         []failedOperation `json:"failed_operations"`
	ProcessingTime float64           `json:"processing_time"`
	TotalTargeted  int               `json:"total_targeted"`
	UndoAvailable  bool              `json:"undo_available"`
	RedoAvailable  bool              `json:"redo_available"`
}

func (r bulkResponse) toModel() *model.BulkResult {
	failed := make(map[string]string, len(r.Failed))
	for _, f := range r.Failed {
		failed[f.TransactionID] = f.Error
	}
	return &model.BulkResult{
		CommandID:      r.CommandID,
		TotalTargeted:  r.TotalTargeted,
		SucceededIDs:   r.Successful,
		FailedIDs:      failed,
		ProcessingTime: time.Duration(r.ProcessingTime * float64(time.Second)),
	}
}

type rateLimitBody struct {
	RetryAfterSeconds float64 `json:"retry_after_seconds"`
}
