package sandbox

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/hoangvvo/expense-agent/ledger"
	startime "go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
)

// Table is an immutable, column-ordered view of the ledger exposed to
// snippets as `df`.
type Table struct {
	columns []string
	rows    [][]starlark.Value
}

var (
	_ starlark.Sequence = (*Table)(nil)
	_ starlark.Mapping  = (*Table)(nil)
	_ starlark.HasAttrs = (*Table)(nil)
)

// NewTable converts ledger records into a table with the ledger's columns.
// Dates become time values, amounts floats.
func NewTable(records []ledger.Record) *Table {
	rows := make([][]starlark.Value, 0, len(records))
	for _, r := range records {
		amount, _ := r.Amount.Float64()
		rows = append(rows, []starlark.Value{
			startime.Time(r.Date),
			starlark.String(r.Category),
			starlark.String(r.Description),
			starlark.Float(amount),
		})
	}
	return &Table{columns: slices.Clone(ledger.Columns), rows: rows}
}

func (t *Table) derive(rows [][]starlark.Value) *Table {
	return &Table{columns: t.columns, rows: rows}
}

func (t *Table) String() string        { return t.render(false) }
func (t *Table) Type() string          { return "table" }
func (t *Table) Freeze()               {}
func (t *Table) Truth() starlark.Bool  { return len(t.rows) > 0 }
func (t *Table) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: table") }
func (t *Table) Len() int              { return len(t.rows) }

func (t *Table) Iterate() starlark.Iterator {
	return &rowIterator{table: t}
}

// Get implements df["column"].
func (t *Table) Get(k starlark.Value) (starlark.Value, bool, error) {
	name, ok := starlark.AsString(k)
	if !ok {
		return nil, false, fmt.Errorf("table index must be a column name, got %s", k.Type())
	}
	col, err := t.column(name)
	if err != nil {
		return nil, false, err
	}
	return col, true, nil
}

func (t *Table) columnIndex(name string) (int, error) {
	i := slices.Index(t.columns, name)
	if i < 0 {
		return -1, fmt.Errorf("unknown column %q (columns: %s)", name, strings.Join(t.columns, ", "))
	}
	return i, nil
}

func (t *Table) column(name string) (*Column, error) {
	i, err := t.columnIndex(name)
	if err != nil {
		return nil, err
	}
	values := make([]starlark.Value, len(t.rows))
	for r, row := range t.rows {
		values[r] = row[i]
	}
	return &Column{name: name, values: values}, nil
}

func (t *Table) row(i int) *starlarkstruct.Struct {
	fields := make(starlark.StringDict, len(t.columns))
	for c, name := range t.columns {
		fields[name] = t.rows[i][c]
	}
	return starlarkstruct.FromStringDict(starlark.String("row"), fields)
}

var tableMethods = map[string]*starlark.Builtin{
	"filter":      starlark.NewBuiltin("filter", tableFilter),
	"sort":        starlark.NewBuiltin("sort", tableSort),
	"head":        starlark.NewBuiltin("head", tableHead),
	"tail":        starlark.NewBuiltin("tail", tableTail),
	"nlargest":    starlark.NewBuiltin("nlargest", tableNLargest),
	"nsmallest":   starlark.NewBuiltin("nsmallest", tableNSmallest),
	"groupby":     starlark.NewBuiltin("groupby", tableGroupBy),
	"rows":        starlark.NewBuiltin("rows", tableRows),
	"to_string":   starlark.NewBuiltin("to_string", tableToString),
	"to_markdown": starlark.NewBuiltin("to_markdown", tableToMarkdown),
}

func (t *Table) Attr(name string) (starlark.Value, error) {
	if name == "columns" {
		cols := make([]starlark.Value, len(t.columns))
		for i, c := range t.columns {
			cols[i] = starlark.String(c)
		}
		return starlark.NewList(cols), nil
	}
	if method, ok := tableMethods[name]; ok {
		return method.BindReceiver(t), nil
	}
	return nil, nil
}

func (t *Table) AttrNames() []string {
	names := []string{"columns"}
	for name := range tableMethods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type rowIterator struct {
	table *Table
	i     int
}

func (it *rowIterator) Next(p *starlark.Value) bool {
	if it.i >= len(it.table.rows) {
		return false
	}
	*p = it.table.row(it.i)
	it.i++
	return true
}

func (it *rowIterator) Done() {}

func tableFilter(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var fn starlark.Callable
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &fn); err != nil {
		return nil, err
	}
	t := b.Receiver().(*Table)
	var kept [][]starlark.Value
	for i, row := range t.rows {
		keep, err := starlark.Call(thread, fn, starlark.Tuple{t.row(i)}, nil)
		if err != nil {
			return nil, err
		}
		if keep.Truth() {
			kept = append(kept, row)
		}
	}
	return t.derive(kept), nil
}

// sortedRows returns the rows ordered by column, stable for equal keys.
func (t *Table) sortedRows(column string, reverse bool) ([][]starlark.Value, error) {
	i, err := t.columnIndex(column)
	if err != nil {
		return nil, err
	}
	rows := slices.Clone(t.rows)
	var cmpErr error
	sort.SliceStable(rows, func(a, b int) bool {
		x, y := rows[a][i], rows[b][i]
		if reverse {
			x, y = y, x
		}
		less, err := starlark.Compare(syntax.LT, x, y)
		if err != nil && cmpErr == nil {
			cmpErr = err
		}
		return less
	})
	if cmpErr != nil {
		return nil, cmpErr
	}
	return rows, nil
}

func tableSort(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		by      string
		reverse bool
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "by", &by, "reverse?", &reverse); err != nil {
		return nil, err
	}
	t := b.Receiver().(*Table)
	rows, err := t.sortedRows(by, reverse)
	if err != nil {
		return nil, err
	}
	return t.derive(rows), nil
}

func clampN(n, size int) int {
	if n < 0 {
		return 0
	}
	if n > size {
		return size
	}
	return n
}

func tableHead(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	n := 5
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "n?", &n); err != nil {
		return nil, err
	}
	t := b.Receiver().(*Table)
	return t.derive(t.rows[:clampN(n, len(t.rows))]), nil
}

func tableTail(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	n := 5
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "n?", &n); err != nil {
		return nil, err
	}
	t := b.Receiver().(*Table)
	return t.derive(t.rows[len(t.rows)-clampN(n, len(t.rows)):]), nil
}

func nExtreme(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple, largest bool) (starlark.Value, error) {
	var (
		n      int
		column string
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "n", &n, "column", &column); err != nil {
		return nil, err
	}
	t := b.Receiver().(*Table)
	rows, err := t.sortedRows(column, largest)
	if err != nil {
		return nil, err
	}
	return t.derive(rows[:clampN(n, len(rows))]), nil
}

func tableNLargest(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return nExtreme(b, args, kwargs, true)
}

func tableNSmallest(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return nExtreme(b, args, kwargs, false)
}

func tableGroupBy(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var by string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &by); err != nil {
		return nil, err
	}
	t := b.Receiver().(*Table)
	return newGroupBy(t, by)
}

func tableRows(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	t := b.Receiver().(*Table)
	rows := make([]starlark.Value, len(t.rows))
	for i := range t.rows {
		rows[i] = t.row(i)
	}
	return starlark.NewList(rows), nil
}

func tableToString(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return starlark.String(b.Receiver().(*Table).render(false)), nil
}

func tableToMarkdown(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return starlark.String(b.Receiver().(*Table).render(true)), nil
}

// render formats the table as aligned text, or as a Markdown table.
func (t *Table) render(markdown bool) string {
	cells := make([][]string, 0, len(t.rows)+1)
	cells = append(cells, slices.Clone(t.columns))
	for _, row := range t.rows {
		line := make([]string, len(row))
		for i, v := range row {
			line[i] = formatCell(v)
		}
		cells = append(cells, line)
	}

	var sb strings.Builder
	if markdown {
		for i, line := range cells {
			sb.WriteString("| " + strings.Join(line, " | ") + " |\n")
			if i == 0 {
				sb.WriteString("|" + strings.Repeat("---|", len(line)) + "\n")
			}
		}
		return strings.TrimRight(sb.String(), "\n")
	}

	widths := make([]int, len(t.columns))
	for _, line := range cells {
		for i, cell := range line {
			widths[i] = max(widths[i], len([]rune(cell)))
		}
	}
	for _, line := range cells {
		for i, cell := range line {
			if i > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(cell)
			if i < len(line)-1 {
				sb.WriteString(strings.Repeat(" ", widths[i]-len([]rune(cell))))
			}
		}
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatCell(v starlark.Value) string {
	switch v := v.(type) {
	case starlark.String:
		return string(v)
	case starlark.Float:
		return fmt.Sprintf("%.2f", float64(v))
	case startime.Time:
		return time.Time(v).Format(ledger.DateLayout)
	default:
		return v.String()
	}
}
