package tools

import (
	"context"
	"time"

	"github.com/hoangvvo/expense-agent/ledger"
	"github.com/hoangvvo/expense-agent/sandbox"
)

type Options struct {
	Store    *ledger.Store
	Executor *sandbox.Executor
	// ChartDir receives generated charts. It is created on demand.
	ChartDir string
	// Now stamps chart file names. Defaults to time.Now.
	Now func() time.Time
}

// Toolset holds the dependencies shared by the expense tools.
type Toolset struct {
	store    *ledger.Store
	executor *sandbox.Executor
	chartDir string
	now      func() time.Time
}

func NewToolset(opts Options) *Toolset {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Executor == nil {
		opts.Executor = sandbox.NewExecutor(sandbox.Options{
			Timeout:  sandbox.DefaultTimeout,
			MaxSteps: sandbox.DefaultMaxSteps,
		})
	}
	return &Toolset{
		store:    opts.Store,
		executor: opts.Executor,
		chartDir: opts.ChartDir,
		now:      opts.Now,
	}
}

// Tools returns the expense tools in a stable order.
func (ts *Toolset) Tools() []Tool {
	return []Tool{ts.AddExpense(), ts.Query(), ts.Chart()}
}

// loadTable reads the ledger. ok is false when there is nothing to analyse.
func (ts *Toolset) loadTable(_ context.Context) (*sandbox.Table, bool, error) {
	records, ok, err := ts.store.Load()
	if err != nil || !ok {
		return nil, false, err
	}
	return sandbox.NewTable(records), true, nil
}
