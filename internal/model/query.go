package model

import (
	"fmt"
	"strings"

	"github.com/radup/fintable/internal/common"
)

// SortField identifies a column the transaction table can be ordered by.
type SortField string

// Sortable fields. Status sorts on the categorized flag.
const (
	SortByDate        SortField = "date"
	SortByDescription SortField = "description"
	SortByVendor      SortField = "vendor"
	SortByAmount      SortField = "amount"
	SortByCategory    SortField = "category"
	SortBySubcategory SortField = "subcategory"
	SortByStatus      SortField = "status"
)

// SortDirection is the ordering direction for a sort field.
type SortDirection string

const (
	// SortAsc sorts ascending.
	SortAsc SortDirection = "asc"
	// SortDesc sorts descending.
	SortDesc SortDirection = "desc"
)

// booleanFilterKeys are the filter keys whose values are coerced to booleans.
var booleanFilterKeys = map[string]bool{
	"is_income":      true,
	"is_categorized": true,
}

// validSortFields is the closed set of accepted sort fields.
var validSortFields = map[SortField]bool{
	SortByDate:        true,
	SortByDescription: true,
	SortByVendor:      true,
	SortByAmount:      true,
	SortByCategory:    true,
	SortBySubcategory: true,
	SortByStatus:      true,
}

// Filter holds normalized filter values keyed by field name. String values
// stay strings; boolean-typed keys hold bools. Absent keys mean "no filter".
type Filter map[string]any

// NewFilter normalizes a set of raw string filter values. Empty strings are
// treated as absent and dropped; boolean-typed keys accept only the literal
// strings "true" and "false".
func NewFilter(raw map[string]string) (Filter, error) {
	f := make(Filter, len(raw))
	for key, value := range raw {
		if value == "" {
			continue
		}
		if booleanFilterKeys[key] {
			switch strings.ToLower(value) {
			case "true":
				f[key] = true
			case "false":
				f[key] = false
			default:
				return nil, common.NewValidationError(key,
					fmt.Errorf("expected \"true\" or \"false\", got %q", value))
			}
			continue
		}
		f[key] = value
	}
	return f, nil
}

// Clone returns an independent copy of the filter.
func (f Filter) Clone() Filter {
	out := make(Filter, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// QueryState captures the full view parameters of the transaction table:
// filter, sort, and pagination. Values are immutable; the With* methods
// return modified copies. PageIndex is 1-based.
type QueryState struct {
	Filter        Filter
	SortField     SortField
	SortDirection SortDirection
	PageIndex     int
	PageSize      int
}

// DefaultPageSize is the page size used when none is configured.
const DefaultPageSize = 50

// DefaultQueryState returns the state the table starts in: newest first,
// no filter, first page.
func DefaultQueryState() QueryState {
	return QueryState{
		Filter:        Filter{},
		SortField:     SortByDate,
		SortDirection: SortDesc,
		PageIndex:     1,
		PageSize:      DefaultPageSize,
	}
}

// WithFilter returns a copy with the given filter and the page reset to 1.
func (q QueryState) WithFilter(f Filter) QueryState {
	q.Filter = f.Clone()
	q.PageIndex = 1
	return q
}

// WithSort returns a copy with the given sort and the page reset to 1.
func (q QueryState) WithSort(field SortField, direction SortDirection) (QueryState, error) {
	if !validSortFields[field] {
		return q, common.NewValidationError("sort_by", fmt.Errorf("unknown sort field %q", field))
	}
	if direction != SortAsc && direction != SortDesc {
		return q, common.NewValidationError("sort_order", fmt.Errorf("unknown sort direction %q", direction))
	}
	q.SortField = field
	q.SortDirection = direction
	q.PageIndex = 1
	return q, nil
}

// WithPage returns a copy on the given page. It is the only transition that
// leaves every other query parameter untouched.
func (q QueryState) WithPage(page int) (QueryState, error) {
	if page < 1 {
		return q, common.NewValidationError("page", fmt.Errorf("page index must be >= 1, got %d", page))
	}
	q.PageIndex = page
	return q, nil
}

// WithPageSize returns a copy with the given page size and the page reset to 1.
func (q QueryState) WithPageSize(size int) (QueryState, error) {
	if size < 1 {
		return q, common.NewValidationError("page_size", fmt.Errorf("page size must be > 0, got %d", size))
	}
	q.PageSize = size
	q.PageIndex = 1
	return q, nil
}

// Skip returns the number of records the store should skip for this page.
func (q QueryState) Skip() int {
	return (q.PageIndex - 1) * q.PageSize
}
