package sandbox

import (
	"fmt"
	"sort"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Column is a single named column of a Table, as returned by df["name"].
type Column struct {
	name   string
	values []starlark.Value
}

var (
	_ starlark.Indexable = (*Column)(nil)
	_ starlark.Iterable  = (*Column)(nil)
	_ starlark.HasAttrs  = (*Column)(nil)
)

func (c *Column) String() string {
	parts := make([]string, len(c.values))
	for i, v := range c.values {
		parts[i] = formatCell(v)
	}
	return c.name + ": [" + strings.Join(parts, ", ") + "]"
}

func (c *Column) Type() string          { return "column" }
func (c *Column) Freeze()               {}
func (c *Column) Truth() starlark.Bool  { return len(c.values) > 0 }
func (c *Column) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: column") }
func (c *Column) Len() int              { return len(c.values) }
func (c *Column) Index(i int) starlark.Value {
	return c.values[i]
}

func (c *Column) Iterate() starlark.Iterator {
	return &valueIterator{values: c.values}
}

var columnMethods = map[string]*starlark.Builtin{
	"sum":     starlark.NewBuiltin("sum", columnSum),
	"mean":    starlark.NewBuiltin("mean", columnMean),
	"min":     starlark.NewBuiltin("min", columnMin),
	"max":     starlark.NewBuiltin("max", columnMax),
	"count":   starlark.NewBuiltin("count", columnCount),
	"unique":  starlark.NewBuiltin("unique", columnUnique),
	"to_list": starlark.NewBuiltin("to_list", columnToList),
}

func (c *Column) Attr(name string) (starlark.Value, error) {
	if name == "name" {
		return starlark.String(c.name), nil
	}
	if method, ok := columnMethods[name]; ok {
		return method.BindReceiver(c), nil
	}
	return nil, nil
}

func (c *Column) AttrNames() []string {
	names := []string{"name"}
	for name := range columnMethods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type valueIterator struct {
	values []starlark.Value
	i      int
}

func (it *valueIterator) Next(p *starlark.Value) bool {
	if it.i >= len(it.values) {
		return false
	}
	*p = it.values[it.i]
	it.i++
	return true
}

func (it *valueIterator) Done() {}

func sumValues(name string, values []starlark.Value) (float64, error) {
	var total float64
	for _, v := range values {
		f, ok := starlark.AsFloat(v)
		if !ok {
			return 0, fmt.Errorf("%s: cannot sum %s values", name, v.Type())
		}
		total += f
	}
	return total, nil
}

// extreme returns the smallest (op LT) or largest (op GT) value, or None.
func extreme(values []starlark.Value, op syntax.Token) (starlark.Value, error) {
	if len(values) == 0 {
		return starlark.None, nil
	}
	best := values[0]
	for _, v := range values[1:] {
		better, err := starlark.Compare(op, v, best)
		if err != nil {
			return nil, err
		}
		if better {
			best = v
		}
	}
	return best, nil
}

func mean(name string, values []starlark.Value) (starlark.Value, error) {
	if len(values) == 0 {
		return starlark.None, nil
	}
	total, err := sumValues(name, values)
	if err != nil {
		return nil, err
	}
	return starlark.Float(total / float64(len(values))), nil
}

func columnSum(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	total, err := sumValues(b.Name(), b.Receiver().(*Column).values)
	if err != nil {
		return nil, err
	}
	return starlark.Float(total), nil
}

func columnMean(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return mean(b.Name(), b.Receiver().(*Column).values)
}

func columnMin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return extreme(b.Receiver().(*Column).values, syntax.LT)
}

func columnMax(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return extreme(b.Receiver().(*Column).values, syntax.GT)
}

func columnCount(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return starlark.MakeInt(len(b.Receiver().(*Column).values)), nil
}

// columnUnique keeps the first occurrence of each value, in order.
func columnUnique(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	var out []starlark.Value
	for _, v := range b.Receiver().(*Column).values {
		seen := false
		for _, u := range out {
			eq, err := starlark.Equal(u, v)
			if err != nil {
				return nil, err
			}
			if eq {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, v)
		}
	}
	return starlark.NewList(out), nil
}

func columnToList(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	values := b.Receiver().(*Column).values
	return starlark.NewList(append([]starlark.Value(nil), values...)), nil
}
