package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransaction_Attribute(t *testing.T) {
	txn := Transaction{Vendor: "Shell", Category: "Transport", Description: "Shell purchase"}

	tests := []struct {
		name   string
		attr   string
		want   string
		wantOK bool
	}{
		{name: "vendor", attr: "vendor", want: "Shell", wantOK: true},
		{name: "case-insensitive name", attr: "Vendor", want: "Shell", wantOK: true},
		{name: "category", attr: "category", want: "Transport", wantOK: true},
		{name: "unknown attribute", attr: "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := txn.Attribute(tt.attr)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTransaction_AttributeEquals(t *testing.T) {
	txn := Transaction{Vendor: "Shell"}

	assert.True(t, txn.AttributeEquals("vendor", "shell"))
	assert.True(t, txn.AttributeEquals("vendor", "SHELL"))
	assert.False(t, txn.AttributeEquals("vendor", "Metro"))
	assert.False(t, txn.AttributeEquals("amount", "40"))
}
