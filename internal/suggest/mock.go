package suggest

import (
	"context"
	"strings"

	"github.com/radup/fintable/internal/model"
	"github.com/radup/fintable/internal/service"
)

// MockSuggester returns canned suggestions keyed by vendor. Useful for the
// demo path and tests when no suggestion service is configured.
type MockSuggester struct {
	ByVendor map[string]service.Suggestion
	Default  service.Suggestion
}

// Suggest implements service.Suggester.
func (m *MockSuggester) Suggest(_ context.Context, txn model.Transaction) (*service.Suggestion, error) {
	if s, ok := m.ByVendor[strings.ToLower(txn.Vendor)]; ok {
		out := s
		return &out, nil
	}
	out := m.Default
	return &out, nil
}
