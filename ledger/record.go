// Package ledger persists expense records in an append-only CSV file.
package ledger

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the only accepted date representation.
const DateLayout = "2006-01-02"

// Columns is the fixed column order of the ledger file.
var Columns = []string{"date", "category", "description", "amount"}

// DefaultCategories is the closed category set used when none is configured.
var DefaultCategories = []string{
	"comida",
	"transporte",
	"servicios",
	"entretenimiento",
	"salud",
	"educacion",
	"deporte",
	"otros",
}

// Record is one expense entry.
type Record struct {
	Date        time.Time
	Category    string
	Description string
	Amount      decimal.Decimal
}

// ValidationError reports a field that does not satisfy the record schema.
// Its message is meant to be shown to the user as is.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewRecord normalizes and validates the raw fields of an expense.
func NewRecord(date, category, description string, amount decimal.Decimal, categories []string) (Record, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return Record{}, &ValidationError{
			Field:   "date",
			Value:   date,
			Message: fmt.Sprintf("La fecha '%s' no tiene formato válido (YYYY-MM-DD).", date),
		}
	}

	record := Record{
		Date:        parsed,
		Category:    NormalizeCategory(category),
		Description: strings.TrimSpace(description),
		Amount:      amount,
	}
	if err := record.Validate(categories); err != nil {
		return Record{}, err
	}
	return record, nil
}

// NormalizeCategory trims and lowercases a category tag.
func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// Validate checks the category and amount constraints of an already built record.
func (r Record) Validate(categories []string) error {
	if r.Date.IsZero() {
		return &ValidationError{Field: "date", Message: "La fecha es obligatoria."}
	}
	if !slices.Contains(categories, r.Category) {
		return &ValidationError{
			Field:   "category",
			Value:   r.Category,
			Message: fmt.Sprintf("La categoría '%s' no es válida. Opciones: %s", r.Category, strings.Join(categories, ", ")),
		}
	}
	if !r.Amount.IsPositive() {
		return &ValidationError{
			Field:   "amount",
			Value:   r.Amount.String(),
			Message: fmt.Sprintf("El monto debe ser positivo, se recibió %s.", r.Amount.String()),
		}
	}
	return nil
}

// Row serializes the record in column order.
func (r Record) Row() []string {
	return []string{
		r.Date.Format(DateLayout),
		r.Category,
		r.Description,
		r.Amount.StringFixed(2),
	}
}

func parseRow(row []string) (Record, error) {
	if len(row) != len(Columns) {
		return Record{}, fmt.Errorf("expected %d fields, got %d", len(Columns), len(row))
	}
	date, err := time.Parse(DateLayout, row[0])
	if err != nil {
		return Record{}, fmt.Errorf("parse date %q: %w", row[0], err)
	}
	amount, err := decimal.NewFromString(row[3])
	if err != nil {
		return Record{}, fmt.Errorf("parse amount %q: %w", row[3], err)
	}
	return Record{
		Date:        date,
		Category:    row[1],
		Description: row[2],
		Amount:      amount,
	}, nil
}
