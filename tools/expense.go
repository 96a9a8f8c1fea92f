package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hoangvvo/expense-agent/internal/logger"
	"github.com/hoangvvo/expense-agent/ledger"
	"github.com/shopspring/decimal"
)

type AddExpenseParams struct {
	Date        string  `json:"date" jsonschema:"Fecha del gasto en formato YYYY-MM-DD (ejemplo: 2026-02-15)"`
	Category    string  `json:"category" jsonschema:"Categoría del gasto"`
	Description string  `json:"description" jsonschema:"Descripción breve del gasto (ejemplo: almuerzo en restaurante)"`
	Amount      float64 `json:"amount" jsonschema:"Monto del gasto, número positivo (ejemplo: 50.00)"`
}

// AddExpense records one expense in the ledger.
func (ts *Toolset) AddExpense() Tool {
	t := newTypedTool(AddExpenseName,
		"Registra un nuevo gasto en la base de datos y devuelve una confirmación con los datos guardados.",
		ts.addExpense)
	// The closed set is checked by the ledger after normalization, so the
	// schema only names it.
	if prop, ok := t.schema.Properties["category"]; ok {
		prop.Description = "Categoría del gasto, una de: " + strings.Join(ts.store.Categories(), ", ")
	}
	return t
}

func (ts *Toolset) addExpense(ctx context.Context, p AddExpenseParams) (Result, error) {
	log := logger.FromContext(ctx)

	record, err := ledger.NewRecord(p.Date, p.Category, p.Description, decimal.NewFromFloat(p.Amount), ts.store.Categories())
	var verr *ledger.ValidationError
	if errors.As(err, &verr) {
		log.Debug().Str("field", verr.Field).Str("value", verr.Value).Msg("expense rejected")
		return errorResult("Error: " + verr.Error()), nil
	}
	if err != nil {
		return Result{}, err
	}

	if err := ts.store.Append(record); err != nil {
		return Result{}, fmt.Errorf("failed to append expense: %w", err)
	}
	log.Info().
		Str("date", record.Date.Format(ledger.DateLayout)).
		Str("category", record.Category).
		Str("amount", record.Amount.StringFixed(2)).
		Msg("expense recorded")

	return textResult(fmt.Sprintf(
		"Gasto registrado correctamente:\n"+
			"      Fecha:       %s\n"+
			"      Categoría:   %s\n"+
			"      Descripción: %s\n"+
			"      Monto:       $%s",
		record.Date.Format(ledger.DateLayout),
		record.Category,
		record.Description,
		record.Amount.StringFixed(2),
	)), nil
}
