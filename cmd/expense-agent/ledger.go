package main

import (
	"fmt"
	"strings"

	"github.com/hoangvvo/expense-agent/ledger"
	"github.com/hoangvvo/expense-agent/sandbox"
	"github.com/hoangvvo/expense-agent/tools"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:     "add DATE CATEGORY AMOUNT DESCRIPTION...",
	Short:   "Registra un gasto sin pasar por el modelo",
	Example: "  expense-agent add 2025-01-15 comida 50 almuerzo en el centro",
	Args:    cobra.MinimumNArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		amount, err := decimal.NewFromString(args[2])
		if err != nil {
			return fmt.Errorf("monto inválido %q", args[2])
		}
		record, err := ledger.NewRecord(args[0], args[1], strings.Join(args[3:], " "), amount, a.store.Categories())
		if err != nil {
			return err
		}
		if err := a.store.Append(record); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Gasto registrado: $%s en %s (%s) el %s.\n",
			record.Amount.StringFixed(2), record.Category, record.Description, record.Date.Format(ledger.DateLayout))
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Muestra los gastos registrados",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		records, ok, err := a.store.Load()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !ok {
			fmt.Fprintln(out, tools.NoDataMessage)
			return nil
		}

		total := decimal.Zero
		for _, r := range records {
			total = total.Add(r.Amount)
		}
		fmt.Fprintln(out, sandbox.NewTable(records).String())
		fmt.Fprintf(out, "\n%d gastos, total $%s\n", len(records), total.StringFixed(2))
		return nil
	},
}
