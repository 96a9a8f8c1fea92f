package sandbox

import (
	"fmt"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// GroupBy partitions a table's rows by the value of one column. Groups keep
// the order in which their key first appears.
type GroupBy struct {
	table  *Table
	by     string
	keys   []starlark.Value
	groups [][][]starlark.Value
}

var _ starlark.HasAttrs = (*GroupBy)(nil)

func newGroupBy(t *Table, by string) (*GroupBy, error) {
	i, err := t.columnIndex(by)
	if err != nil {
		return nil, err
	}
	g := &GroupBy{table: t, by: by}
	for _, row := range t.rows {
		idx := -1
		for k, key := range g.keys {
			eq, err := starlark.Equal(key, row[i])
			if err != nil {
				return nil, err
			}
			if eq {
				idx = k
				break
			}
		}
		if idx < 0 {
			g.keys = append(g.keys, row[i])
			g.groups = append(g.groups, nil)
			idx = len(g.keys) - 1
		}
		g.groups[idx] = append(g.groups[idx], row)
	}
	return g, nil
}

func (g *GroupBy) String() string        { return fmt.Sprintf("<groupby %s: %d groups>", g.by, len(g.keys)) }
func (g *GroupBy) Type() string          { return "groupby" }
func (g *GroupBy) Freeze()               {}
func (g *GroupBy) Truth() starlark.Bool  { return len(g.keys) > 0 }
func (g *GroupBy) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: groupby") }

var groupByMethods = map[string]*starlark.Builtin{
	"sum":   starlark.NewBuiltin("sum", groupBySum),
	"mean":  starlark.NewBuiltin("mean", groupByMean),
	"count": starlark.NewBuiltin("count", groupByCount),
	"max":   starlark.NewBuiltin("max", groupByMax),
	"min":   starlark.NewBuiltin("min", groupByMin),
}

func (g *GroupBy) Attr(name string) (starlark.Value, error) {
	if method, ok := groupByMethods[name]; ok {
		return method.BindReceiver(g), nil
	}
	return nil, nil
}

func (g *GroupBy) AttrNames() []string {
	return []string{"count", "max", "mean", "min", "sum"}
}

// aggregate applies fn to the named column of every group and collects the
// results into a dict keyed by group.
func (g *GroupBy) aggregate(column string, fn func([]starlark.Value) (starlark.Value, error)) (*starlark.Dict, error) {
	c, err := g.table.columnIndex(column)
	if err != nil {
		return nil, err
	}
	out := starlark.NewDict(len(g.keys))
	for k, rows := range g.groups {
		values := make([]starlark.Value, len(rows))
		for r, row := range rows {
			values[r] = row[c]
		}
		v, err := fn(values)
		if err != nil {
			return nil, err
		}
		if err := out.SetKey(g.keys[k], v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func unpackColumn(b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (string, error) {
	var column string
	err := starlark.UnpackArgs(b.Name(), args, kwargs, "column", &column)
	return column, err
}

func groupBySum(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	column, err := unpackColumn(b, args, kwargs)
	if err != nil {
		return nil, err
	}
	return b.Receiver().(*GroupBy).aggregate(column, func(values []starlark.Value) (starlark.Value, error) {
		total, err := sumValues(b.Name(), values)
		return starlark.Float(total), err
	})
}

func groupByMean(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	column, err := unpackColumn(b, args, kwargs)
	if err != nil {
		return nil, err
	}
	return b.Receiver().(*GroupBy).aggregate(column, func(values []starlark.Value) (starlark.Value, error) {
		return mean(b.Name(), values)
	})
}

func groupByMax(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	column, err := unpackColumn(b, args, kwargs)
	if err != nil {
		return nil, err
	}
	return b.Receiver().(*GroupBy).aggregate(column, func(values []starlark.Value) (starlark.Value, error) {
		return extreme(values, syntax.GT)
	})
}

func groupByMin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	column, err := unpackColumn(b, args, kwargs)
	if err != nil {
		return nil, err
	}
	return b.Receiver().(*GroupBy).aggregate(column, func(values []starlark.Value) (starlark.Value, error) {
		return extreme(values, syntax.LT)
	})
}

func groupByCount(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	g := b.Receiver().(*GroupBy)
	return g.aggregate(g.by, func(values []starlark.Value) (starlark.Value, error) {
		return starlark.MakeInt(len(values)), nil
	})
}
