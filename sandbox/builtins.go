package sandbox

import (
	"fmt"
	"math"
	"strconv"
	"time"

	starjson "go.starlark.net/lib/json"
	starmath "go.starlark.net/lib/math"
	startime "go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// predeclared returns the names every snippet sees besides df.
func predeclared(now func() time.Time) starlark.StringDict {
	return starlark.StringDict{
		"date":      starlark.NewBuiltin("date", builtinDate),
		"today":     starlark.NewBuiltin("today", todayBuiltin(now)),
		"timedelta": starlark.NewBuiltin("timedelta", builtinTimedelta),
		"sum":       starlark.NewBuiltin("sum", builtinSum),
		"round":     starlark.NewBuiltin("round", builtinRound),
		"fixed":     starlark.NewBuiltin("fixed", builtinFixed),
		"time":      startime.Module,
		"math":      starmath.Module,
		"json":      starjson.Module,
	}
}

func builtinDate(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var year, month, day int
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "year", &year, "month", &month, "day", &day); err != nil {
		return nil, err
	}
	return startime.Time(time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)), nil
}

func todayBuiltin(now func() time.Time) func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
	return func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
			return nil, err
		}
		y, m, d := now().Date()
		return startime.Time(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)), nil
	}
}

func builtinTimedelta(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var days, hours, minutes, seconds int
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"days?", &days, "hours?", &hours, "minutes?", &minutes, "seconds?", &seconds); err != nil {
		return nil, err
	}
	d := time.Duration(days)*24*time.Hour +
		time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second
	return startime.Duration(d), nil
}

// builtinSum adds the elements of an iterable to start, keeping ints as ints.
func builtinSum(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		iterable starlark.Iterable
		start    starlark.Value = starlark.MakeInt(0)
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "iterable", &iterable, "start?", &start); err != nil {
		return nil, err
	}
	iter := iterable.Iterate()
	defer iter.Done()
	acc := start
	var x starlark.Value
	for iter.Next(&x) {
		var err error
		if acc, err = starlark.Binary(syntax.PLUS, acc, x); err != nil {
			return nil, fmt.Errorf("%s: %w", b.Name(), err)
		}
	}
	return acc, nil
}

func builtinRound(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		number  starlark.Value
		ndigits int
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "number", &number, "ndigits?", &ndigits); err != nil {
		return nil, err
	}
	f, ok := starlark.AsFloat(number)
	if !ok {
		return nil, fmt.Errorf("%s: want a number, got %s", b.Name(), number.Type())
	}
	scale := math.Pow(10, float64(ndigits))
	return starlark.Float(math.RoundToEven(f*scale) / scale), nil
}

// builtinFixed formats a number with a fixed number of decimals, since
// Starlark's % operator has no precision.
func builtinFixed(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		number starlark.Value
		digits = 2
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "number", &number, "digits?", &digits); err != nil {
		return nil, err
	}
	f, ok := starlark.AsFloat(number)
	if !ok {
		return nil, fmt.Errorf("%s: want a number, got %s", b.Name(), number.Type())
	}
	if digits < 0 || digits > 10 {
		return nil, fmt.Errorf("%s: digits must be between 0 and 10", b.Name())
	}
	return starlark.String(strconv.FormatFloat(f, 'f', digits, 64)), nil
}
