// Package sandbox runs analysis snippets written by the model. Snippets are
// Starlark programs evaluated against a fresh environment that exposes the
// ledger as a table (df), date helpers and, for charts, a plotting module.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxSteps = 5_000_000
)

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

// Options bounds a single execution.
type Options struct {
	// Timeout cancels the interpreter after this wall-clock duration.
	Timeout time.Duration
	// MaxSteps is the interpreter step budget. Zero means unlimited.
	MaxSteps uint64
	// Now is the clock behind today(). Defaults to time.Now.
	Now func() time.Time
}

// Result is the outcome of one execution. A failed execution still carries
// whatever globals were bound before the fault.
type Result struct {
	OK bool
	// Env is the predeclared environment overlaid with the snippet's globals.
	Env starlark.StringDict
	// Globals holds only the names the snippet itself assigned.
	Globals starlark.StringDict
	Error   string
	Output  string
}

type Executor struct {
	opts Options
}

func NewExecutor(opts Options) *Executor {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Executor{opts: opts}
}

// Exec evaluates code with df bound to table plus the given extras. Faults of
// any kind, including panics raised by builtins, are reported in the Result
// rather than returned.
func (e *Executor) Exec(ctx context.Context, code string, table *Table, extra starlark.StringDict) (res Result) {
	env := predeclared(e.opts.Now)
	env["df"] = table
	for k, v := range extra {
		env[k] = v
	}
	res.Env = env

	var out strings.Builder
	thread := &starlark.Thread{
		Name: "snippet",
		Print: func(_ *starlark.Thread, msg string) {
			out.WriteString(msg)
			out.WriteByte('\n')
		},
	}
	if e.opts.MaxSteps > 0 {
		thread.SetMaxExecutionSteps(e.opts.MaxSteps)
	}

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			thread.Cancel(ctx.Err().Error())
		case <-done:
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			res.OK = false
			res.Error = fmt.Sprintf("panic: %v", r)
			res.Output = out.String()
		}
	}()

	globals, err := starlark.ExecFileOptions(fileOptions, thread, "snippet.star", code, env)
	res.Output = out.String()
	res.Globals = globals
	if len(globals) > 0 {
		merged := make(starlark.StringDict, len(env)+len(globals))
		for k, v := range env {
			merged[k] = v
		}
		for k, v := range globals {
			merged[k] = v
		}
		res.Env = merged
	}
	if err != nil {
		res.Error = errorMessage(err)
		return res
	}
	res.OK = true
	return res
}

func errorMessage(err error) string {
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return evalErr.Backtrace()
	}
	return err.Error()
}
