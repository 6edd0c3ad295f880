// Package model defines the core domain types shared across the application.
package model

import (
	"strings"
	"time"
)

// Transaction represents a single financial transaction as held by the
// table session. The remote store owns the durable copy.
type Transaction struct {
	Date          time.Time
	ID            string
	Description   string
	Vendor        string
	Category      string
	Subcategory   string
	Confidence    *float64 // AI suggestion confidence in [0,1], nil when absent
	Amount        float64
	IsIncome      bool
	IsCategorized bool
}

// Attribute returns the named attribute as a comparable string value and
// whether the attribute exists. Used by selection-by-shared-attribute.
func (t *Transaction) Attribute(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "vendor":
		return t.Vendor, true
	case "category":
		return t.Category, true
	case "subcategory":
		return t.Subcategory, true
	case "description":
		return t.Description, true
	default:
		return "", false
	}
}

// AttributeEquals reports whether the named attribute matches value,
// case-insensitively.
func (t *Transaction) AttributeEquals(name, value string) bool {
	got, ok := t.Attribute(name)
	if !ok {
		return false
	}
	return strings.EqualFold(got, value)
}
