package session

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/radup/fintable/internal/model"
)

// MemoryStore is an in-memory TransactionStore for tests and demos. It
// applies the same filter, sort, and bulk semantics a real store would, and
// records calls so tests can assert on them. Hooks run before each
// operation and can block to exercise interleavings.
type MemoryStore struct {
	ListHook  func(query model.QueryState)
	BulkHook  func(cmd model.BulkCommand)
	FailList  error
	FailCount error
	FailBulk  error

	mu         sync.Mutex
	records    map[string]model.Transaction
	order      []string
	commands   []model.BulkCommand
	listCalls  int
	countCalls int
	bulkCalls  int
}

// NewMemoryStore creates a store pre-loaded with the given records.
func NewMemoryStore(records ...model.Transaction) *MemoryStore {
	m := &MemoryStore{records: make(map[string]model.Transaction, len(records))}
	for _, r := range records {
		m.records[r.ID] = r
		m.order = append(m.order, r.ID)
	}
	return m
}

// ListTransactions returns one filtered, sorted, paginated page.
func (m *MemoryStore) ListTransactions(_ context.Context, query model.QueryState) ([]model.Transaction, error) {
	m.mu.Lock()
	m.listCalls++
	hook := m.ListHook
	failErr := m.FailList
	matched := m.matchedLocked(query.Filter)
	m.mu.Unlock()

	if hook != nil {
		hook(query)
	}
	if failErr != nil {
		return nil, failErr
	}

	sortRecords(matched, query.SortField, query.SortDirection)

	start := query.Skip()
	if start >= len(matched) {
		return nil, nil
	}
	end := start + query.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

// CountTransactions returns the filter-wide count.
func (m *MemoryStore) CountTransactions(_ context.Context, filter model.Filter) (int, error) {
	m.mu.Lock()
	m.countCalls++
	failErr := m.FailCount
	matched := m.matchedLocked(filter)
	m.mu.Unlock()

	if failErr != nil {
		return 0, failErr
	}
	return len(matched), nil
}

// ApplyBulk applies one batched mutation with per-id failure collection.
func (m *MemoryStore) ApplyBulk(_ context.Context, cmd model.BulkCommand) (*model.BulkResult, error) {
	m.mu.Lock()
	m.bulkCalls++
	m.commands = append(m.commands, cmd)
	hook := m.BulkHook
	failErr := m.FailBulk
	m.mu.Unlock()

	if hook != nil {
		hook(cmd)
	}
	if failErr != nil {
		return nil, failErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	result := &model.BulkResult{
		CommandID:      model.NewCommandID(),
		TotalTargeted:  len(cmd.TargetIDs),
		FailedIDs:      make(map[string]string),
		ProcessingTime: time.Millisecond,
	}
	for _, id := range cmd.TargetIDs {
		if err := m.applyOneLocked(cmd, id); err != nil {
			result.FailedIDs[id] = err.Error()
			continue
		}
		result.SucceededIDs = append(result.SucceededIDs, id)
	}
	return result, nil
}

func (m *MemoryStore) applyOneLocked(cmd model.BulkCommand, id string) error {
	payload := cmd.Payload
	if override, ok := cmd.PerRecord[id]; ok {
		payload = override
	}

	switch cmd.Kind {
	case model.CommandCategorize:
		t, ok := m.records[id]
		if !ok {
			return fmt.Errorf("transaction %q not found", id)
		}
		t.Category = payload.Category
		t.Subcategory = payload.Subcategory
		t.IsCategorized = true
		m.records[id] = t
		return nil

	case model.CommandUpdate:
		t, ok := m.records[id]
		if !ok {
			return fmt.Errorf("transaction %q not found", id)
		}
		for field, value := range payload.Fields {
			if err := setField(&t, field, value); err != nil {
				return err
			}
		}
		m.records[id] = t
		return nil

	case model.CommandDelete:
		if _, ok := m.records[id]; !ok {
			return fmt.Errorf("transaction %q not found", id)
		}
		delete(m.records, id)
		for i, other := range m.order {
			if other == id {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
		return nil

	case model.CommandCreate:
		for _, r := range payload.Records {
			if r.ID == id {
				m.records[id] = r
				m.order = append(m.order, id)
				return nil
			}
		}
		return fmt.Errorf("no record values for %q", id)

	default:
		return fmt.Errorf("unknown command kind %q", cmd.Kind)
	}
}

func setField(t *model.Transaction, field string, value any) error {
	switch field {
	case "description":
		t.Description, _ = value.(string)
	case "vendor":
		t.Vendor, _ = value.(string)
	case "category":
		t.Category, _ = value.(string)
	case "subcategory":
		t.Subcategory, _ = value.(string)
	case "amount":
		v, ok := value.(float64)
		if !ok {
			return fmt.Errorf("amount must be a number")
		}
		t.Amount = v
	case "is_income":
		t.IsIncome, _ = value.(bool)
	case "is_categorized":
		t.IsCategorized, _ = value.(bool)
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}

func (m *MemoryStore) matchedLocked(filter model.Filter) []model.Transaction {
	var out []model.Transaction
	for _, id := range m.order {
		t := m.records[id]
		if matches(t, filter) {
			out = append(out, t)
		}
	}
	return out
}

func matches(t model.Transaction, filter model.Filter) bool {
	for key, value := range filter {
		switch key {
		case "vendor":
			if !strings.EqualFold(t.Vendor, fmt.Sprint(value)) {
				return false
			}
		case "category":
			if !strings.EqualFold(t.Category, fmt.Sprint(value)) {
				return false
			}
		case "subcategory":
			if !strings.EqualFold(t.Subcategory, fmt.Sprint(value)) {
				return false
			}
		case "search":
			if !strings.Contains(strings.ToLower(t.Description), strings.ToLower(fmt.Sprint(value))) {
				return false
			}
		case "is_income":
			if v, ok := value.(bool); !ok || t.IsIncome != v {
				return false
			}
		case "is_categorized":
			if v, ok := value.(bool); !ok || t.IsCategorized != v {
				return false
			}
		}
	}
	return true
}

func sortRecords(records []model.Transaction, field model.SortField, direction model.SortDirection) {
	less := func(a, b model.Transaction) bool {
		switch field {
		case model.SortByDescription:
			return a.Description < b.Description
		case model.SortByVendor:
			return a.Vendor < b.Vendor
		case model.SortByAmount:
			return a.Amount < b.Amount
		case model.SortByCategory:
			return a.Category < b.Category
		case model.SortBySubcategory:
			return a.Subcategory < b.Subcategory
		case model.SortByStatus:
			return !a.IsCategorized && b.IsCategorized
		default:
			return a.Date.Before(b.Date)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		if direction == model.SortDesc {
			return less(records[j], records[i])
		}
		return less(records[i], records[j])
	})
}

// Get returns the current state of one record.
func (m *MemoryStore) Get(id string) (model.Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.records[id]
	return t, ok
}

// Calls reports how many list, count, and bulk calls the store has seen.
func (m *MemoryStore) Calls() (list, count, bulk int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls, m.countCalls, m.bulkCalls
}

// Commands returns every bulk command the store received.
func (m *MemoryStore) Commands() []model.BulkCommand {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.BulkCommand(nil), m.commands...)
}
