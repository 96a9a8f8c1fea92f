package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewRecord_Normalizes(t *testing.T) {
	record, err := NewRecord("2026-02-15", "  Comida ", "  almuerzo  ", decimal.NewFromFloat(50), DefaultCategories)
	if err != nil {
		t.Fatalf("NewRecord() error = %v", err)
	}
	if record.Category != "comida" {
		t.Errorf("category = %q, want comida", record.Category)
	}
	if record.Description != "almuerzo" {
		t.Errorf("description = %q, want almuerzo", record.Description)
	}
	if got := record.Row(); got[0] != "2026-02-15" || got[3] != "50.00" {
		t.Errorf("row = %v", got)
	}
}

func TestNewRecord_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		category string
		amount   decimal.Decimal
		field    string
	}{
		{"impossible date", "2026-13-40", "comida", decimal.NewFromInt(1), "date"},
		{"non iso date", "15/02/2026", "comida", decimal.NewFromInt(1), "date"},
		{"empty date", "", "comida", decimal.NewFromInt(1), "date"},
		{"unknown category", "2026-02-15", "viajes", decimal.NewFromInt(1), "category"},
		{"zero amount", "2026-02-15", "comida", decimal.Zero, "amount"},
		{"negative amount", "2026-02-15", "comida", decimal.NewFromFloat(-3.5), "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRecord(tt.date, tt.category, "x", tt.amount, DefaultCategories)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if validationErr.Field != tt.field {
				t.Errorf("field = %q, want %q", validationErr.Field, tt.field)
			}
			if validationErr.Error() == "" {
				t.Error("expected a message")
			}
		})
	}
}
