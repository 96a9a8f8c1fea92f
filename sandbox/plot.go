package sandbox

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hoangvvo/expense-agent/ledger"
	"github.com/lucasb-eyer/go-colorful"
	startime "go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	defaultFigWidth  = 10
	defaultFigHeight = 6
	defaultDPI       = 100
	maxDPI           = 300
)

// Canvas holds the plotting state of one chart execution. Snippets reach it
// through the plt module and may only save to its output path.
type Canvas struct {
	outputPath string
	current    *Figure
}

func NewCanvas(outputPath string) *Canvas {
	return &Canvas{outputPath: outputPath}
}

func (c *Canvas) OutputPath() string { return c.outputPath }

// Reset drops every figure built so far.
func (c *Canvas) Reset() { c.current = nil }

// Bindings returns the plt module and OUTPUT_PATH for an execution.
func (c *Canvas) Bindings() starlark.StringDict {
	return starlark.StringDict{
		"plt":         c.module(),
		"OUTPUT_PATH": starlark.String(c.outputPath),
	}
}

func (c *Canvas) figure() *Figure {
	if c.current == nil {
		c.current = newFigure(c, defaultFigWidth, defaultFigHeight)
	}
	return c.current
}

func (c *Canvas) module() *starlarkstruct.Module {
	members := starlark.StringDict{
		"figure":       starlark.NewBuiltin("figure", c.newFigureBuiltin),
		"subplots":     starlark.NewBuiltin("subplots", c.subplots),
		"gcf":          starlark.NewBuiltin("gcf", c.gcf),
		"close":        starlark.NewBuiltin("close", c.close),
		"tight_layout": starlark.NewBuiltin("tight_layout", noop),
		"show":         starlark.NewBuiltin("show", noop),
	}
	aliases := map[string]string{"title": "set_title", "xlabel": "set_xlabel", "ylabel": "set_ylabel"}
	for name, method := range figureMethods {
		members[name] = c.delegate(name, method)
	}
	for alias, name := range aliases {
		members[alias] = c.delegate(alias, figureMethods[name])
	}
	return &starlarkstruct.Module{Name: "plt", Members: members}
}

// delegate binds a figure method to whichever figure is current at call time.
func (c *Canvas) delegate(name string, m figureMethod) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		return m(c.figure(), b.Name(), args, kwargs)
	})
}

func noop(_ *starlark.Thread, _ *starlark.Builtin, _ starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	return starlark.None, nil
}

func figsize(v starlark.Value) (float64, float64, error) {
	if v == nil || v == starlark.None {
		return defaultFigWidth, defaultFigHeight, nil
	}
	xs, err := numbers("figsize", v)
	if err != nil || len(xs) != 2 || xs[0] <= 0 || xs[1] <= 0 {
		return 0, 0, fmt.Errorf("figsize must be a (width, height) pair of positive numbers")
	}
	return xs[0], xs[1], nil
}

func (c *Canvas) newFigureBuiltin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var size, dpi starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "figsize?", &size, "dpi?", &dpi); err != nil {
		return nil, err
	}
	w, h, err := figsize(size)
	if err != nil {
		return nil, err
	}
	c.current = newFigure(c, w, h)
	return c.current, nil
}

func (c *Canvas) subplots(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		nrows, ncols = 1, 1
		size, dpi    starlark.Value
	)
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "nrows?", &nrows, "ncols?", &ncols, "figsize?", &size, "dpi?", &dpi); err != nil {
		return nil, err
	}
	if nrows != 1 || ncols != 1 {
		return nil, fmt.Errorf("subplots: only a single axes per figure is supported")
	}
	w, h, err := figsize(size)
	if err != nil {
		return nil, err
	}
	c.current = newFigure(c, w, h)
	return starlark.Tuple{c.current, c.current}, nil
}

func (c *Canvas) gcf(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0); err != nil {
		return nil, err
	}
	return c.figure(), nil
}

func (c *Canvas) close(_ *starlark.Thread, _ *starlark.Builtin, _ starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	c.Reset()
	return starlark.None, nil
}

type series struct {
	kind    string
	xs      []float64
	ys      []float64
	labels  []string
	timeX   bool
	name    string
	color   color.Color
	autopct bool
}

// Figure is a single-axes chart. It also plays the role of the axes object
// returned by plt.subplots.
type Figure struct {
	canvas         *Canvas
	width, height  float64
	title          string
	xlabel, ylabel string
	series         []series
	grid           bool
	legend         bool
	xTickRotation  float64
}

var _ starlark.HasAttrs = (*Figure)(nil)

func newFigure(c *Canvas, width, height float64) *Figure {
	return &Figure{canvas: c, width: width, height: height}
}

func (f *Figure) String() string        { return fmt.Sprintf("<figure %gx%g>", f.width, f.height) }
func (f *Figure) Type() string          { return "figure" }
func (f *Figure) Freeze()               {}
func (f *Figure) Truth() starlark.Bool  { return starlark.True }
func (f *Figure) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: figure") }

func (f *Figure) Attr(name string) (starlark.Value, error) {
	m, ok := figureMethods[name]
	if !ok {
		return nil, nil
	}
	return starlark.NewBuiltin(name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		return m(f, b.Name(), args, kwargs)
	}), nil
}

func (f *Figure) AttrNames() []string {
	names := make([]string, 0, len(figureMethods))
	for name := range figureMethods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type figureMethod func(f *Figure, fnname string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error)

var figureMethods = map[string]figureMethod{
	"set_title":   setText(func(f *Figure, s string) { f.title = s }),
	"suptitle":    setText(func(f *Figure, s string) { f.title = s }),
	"set_xlabel":  setText(func(f *Figure, s string) { f.xlabel = s }),
	"set_ylabel":  setText(func(f *Figure, s string) { f.ylabel = s }),
	"bar":         (*Figure).bar,
	"barh":        (*Figure).barh,
	"plot":        (*Figure).line,
	"scatter":     (*Figure).scatter,
	"pie":         (*Figure).pie,
	"legend":      (*Figure).enableLegend,
	"grid":        (*Figure).enableGrid,
	"xticks":      (*Figure).xticks,
	"tick_params": (*Figure).tickParams,
	"savefig":     (*Figure).savefig,
}

func setText(set func(*Figure, string)) figureMethod {
	return func(f *Figure, fnname string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var (
			text     string
			fontsize starlark.Value
		)
		if err := starlark.UnpackArgs(fnname, args, kwargs, "label", &text, "fontsize?", &fontsize); err != nil {
			return nil, err
		}
		set(f, text)
		return starlark.None, nil
	}
}

func (f *Figure) bar(fnname string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return f.addBars("bar", fnname, "height?", args, kwargs)
}

func (f *Figure) barh(fnname string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return f.addBars("barh", fnname, "width?", args, kwargs)
}

func (f *Figure) addBars(kind, fnname, sizeParam string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x, y, label, clr, alpha, edge starlark.Value
	if err := starlark.UnpackArgs(fnname, args, kwargs,
		"x", &x, sizeParam, &y, "label?", &label, "color?", &clr, "alpha?", &alpha, "edgecolor?", &edge); err != nil {
		return nil, err
	}
	keys, values, err := pairs(fnname, x, y)
	if err != nil {
		return nil, err
	}
	s := series{kind: kind, ys: values, labels: labelsOf(keys)}
	if err := s.style(label, clr); err != nil {
		return nil, err
	}
	f.series = append(f.series, s)
	return starlark.None, nil
}

func (f *Figure) line(fnname string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return f.addXY("line", fnname, args, kwargs)
}

func (f *Figure) scatter(fnname string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	return f.addXY("scatter", fnname, args, kwargs)
}

func (f *Figure) addXY(kind, fnname string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x, y, label, clr, marker, linewidth, alpha starlark.Value
	if err := starlark.UnpackArgs(fnname, args, kwargs,
		"x", &x, "y?", &y, "label?", &label, "color?", &clr,
		"marker?", &marker, "linewidth?", &linewidth, "alpha?", &alpha); err != nil {
		return nil, err
	}
	keys, values, err := pairs(fnname, x, y)
	if err != nil {
		return nil, err
	}
	s := series{kind: kind, ys: values}
	if xs, timeX, ok := axisValues(keys); ok {
		s.xs, s.timeX = xs, timeX
	} else {
		s.labels = labelsOf(keys)
		s.xs = make([]float64, len(keys))
		for i := range s.xs {
			s.xs[i] = float64(i)
		}
	}
	if err := s.style(label, clr); err != nil {
		return nil, err
	}
	f.series = append(f.series, s)
	return starlark.None, nil
}

func (f *Figure) pie(fnname string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x, labels, autopct, colors, startangle starlark.Value
	if err := starlark.UnpackArgs(fnname, args, kwargs,
		"x", &x, "labels?", &labels, "autopct?", &autopct, "colors?", &colors, "startangle?", &startangle); err != nil {
		return nil, err
	}
	var (
		keys   []starlark.Value
		values []float64
		err    error
	)
	if d, ok := x.(*starlark.Dict); ok {
		keys, values, err = pairs(fnname, d, nil)
	} else {
		values, err = numbers(fnname, x)
	}
	if err != nil {
		return nil, err
	}
	if labels != nil && labels != starlark.None {
		keys, err = elements(fnname, labels)
		if err != nil {
			return nil, err
		}
	}
	if len(keys) > 0 && len(keys) != len(values) {
		return nil, fmt.Errorf("%s: got %d labels for %d values", fnname, len(keys), len(values))
	}
	f.series = append(f.series, series{
		kind:    "pie",
		ys:      values,
		labels:  labelsOf(keys),
		autopct: autopct != nil && autopct != starlark.None && autopct.Truth() == starlark.True,
	})
	return starlark.None, nil
}

func (f *Figure) enableLegend(_ string, _ starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	f.legend = true
	return starlark.None, nil
}

func (f *Figure) enableGrid(fnname string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	visible := true
	var axis, alpha, linestyle starlark.Value
	if err := starlark.UnpackArgs(fnname, args, kwargs, "visible?", &visible, "axis?", &axis, "alpha?", &alpha, "linestyle?", &linestyle); err != nil {
		return nil, err
	}
	f.grid = visible
	return starlark.None, nil
}

func (f *Figure) xticks(fnname string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var ticks, labels, rotation starlark.Value
	if err := starlark.UnpackArgs(fnname, args, kwargs, "ticks?", &ticks, "labels?", &labels, "rotation?", &rotation); err != nil {
		return nil, err
	}
	degrees, err := angle(fnname, "rotation", rotation)
	if err != nil {
		return nil, err
	}
	f.xTickRotation = degrees
	return starlark.None, nil
}

func (f *Figure) tickParams(fnname string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		axis                    = "both"
		rotation, labelrotation starlark.Value
		labelsize               starlark.Value
	)
	if err := starlark.UnpackArgs(fnname, args, kwargs, "axis?", &axis, "rotation?", &rotation, "labelrotation?", &labelrotation, "labelsize?", &labelsize); err != nil {
		return nil, err
	}
	r, err := angle(fnname, "rotation", rotation)
	if err != nil {
		return nil, err
	}
	lr, err := angle(fnname, "labelrotation", labelrotation)
	if err != nil {
		return nil, err
	}
	if axis == "x" || axis == "both" {
		f.xTickRotation = r + lr
	}
	return starlark.None, nil
}

// angle reads an optional int or float rotation in degrees.
func angle(fnname, param string, v starlark.Value) (float64, error) {
	if v == nil || v == starlark.None {
		return 0, nil
	}
	deg, ok := starlark.AsFloat(v)
	if !ok {
		return 0, fmt.Errorf("%s: for parameter %q: got %s, want number", fnname, param, v.Type())
	}
	return deg, nil
}

func (f *Figure) savefig(fnname string, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var (
		fname       string
		dpi         = defaultDPI
		bboxInches  starlark.Value
		format      starlark.Value
		transparent starlark.Value
		facecolor   starlark.Value
	)
	if err := starlark.UnpackArgs(fnname, args, kwargs,
		"fname", &fname, "dpi?", &dpi, "bbox_inches?", &bboxInches,
		"format?", &format, "transparent?", &transparent, "facecolor?", &facecolor); err != nil {
		return nil, err
	}
	if filepath.Clean(fname) != filepath.Clean(f.canvas.outputPath) {
		return nil, fmt.Errorf("%s: charts can only be saved to OUTPUT_PATH (%s)", fnname, f.canvas.outputPath)
	}
	if dpi <= 0 || dpi > maxDPI {
		return nil, fmt.Errorf("%s: dpi must be between 1 and %d", fnname, maxDPI)
	}
	if err := f.save(fname, dpi); err != nil {
		return nil, fmt.Errorf("%s: %w", fnname, err)
	}
	return starlark.None, nil
}

func (f *Figure) save(path string, dpi int) error {
	p, err := f.render()
	if err != nil {
		return err
	}
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(f.width)*vg.Inch, vg.Length(f.height)*vg.Inch),
		vgimg.UseDPI(dpi),
	)
	p.Draw(draw.New(c))

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(out); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	return out.Close()
}

func (f *Figure) render() (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = f.title
	p.X.Label.Text = f.xlabel
	p.Y.Label.Text = f.ylabel
	p.Legend.Top = true
	if f.grid {
		p.Add(plotter.NewGrid())
	}

	colors := palette(len(f.series))
	nbars := 0
	for _, s := range f.series {
		if s.kind == "bar" || s.kind == "barh" {
			nbars++
		}
	}
	barWidth := vg.Points(math.Max(8, 36/float64(max(nbars, 1))))
	bar := 0

	for i, s := range f.series {
		clr := s.color
		if clr == nil {
			clr = colors[i]
		}
		switch s.kind {
		case "bar", "barh":
			bc, err := plotter.NewBarChart(plotter.Values(s.ys), barWidth)
			if err != nil {
				return nil, err
			}
			bc.Color = clr
			bc.LineStyle.Width = 0
			bc.Horizontal = s.kind == "barh"
			bc.Offset = vg.Length(float64(bar)-float64(nbars-1)/2) * barWidth
			bar++
			p.Add(bc)
			if s.kind == "barh" {
				p.NominalY(s.labels...)
			} else {
				p.NominalX(s.labels...)
			}
			if s.name != "" {
				p.Legend.Add(s.name, bc)
			}
		case "line", "scatter":
			xys := make(plotter.XYs, len(s.xs))
			for j := range s.xs {
				xys[j] = plotter.XY{X: s.xs[j], Y: s.ys[j]}
			}
			if s.kind == "line" {
				l, pts, err := plotter.NewLinePoints(xys)
				if err != nil {
					return nil, err
				}
				l.Color = clr
				l.Width = vg.Points(2)
				pts.Color = clr
				p.Add(l, pts)
				if s.name != "" {
					p.Legend.Add(s.name, l, pts)
				}
			} else {
				sc, err := plotter.NewScatter(xys)
				if err != nil {
					return nil, err
				}
				sc.Color = clr
				sc.Radius = vg.Points(3)
				p.Add(sc)
				if s.name != "" {
					p.Legend.Add(s.name, sc)
				}
			}
			switch {
			case s.labels != nil:
				p.NominalX(s.labels...)
			case s.timeX:
				p.X.Tick.Marker = plot.TimeTicks{Format: ledger.DateLayout}
			}
		case "pie":
			wedges := palette(len(s.ys))
			pc, err := newPieChart(s.ys, wedges, s.autopct)
			if err != nil {
				return nil, err
			}
			p.Add(pc)
			p.HideAxes()
			for j, label := range s.labels {
				p.Legend.Add(label, swatch{color: wedges[j]})
			}
		}
	}

	if f.xTickRotation != 0 {
		p.X.Tick.Label.Rotation = f.xTickRotation * math.Pi / 180
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}
	return p, nil
}

func (s *series) style(label, clr starlark.Value) error {
	if label != nil && label != starlark.None {
		if str, ok := starlark.AsString(label); ok {
			s.name = str
		} else {
			s.name = label.String()
		}
	}
	if clr == nil || clr == starlark.None {
		return nil
	}
	str, ok := starlark.AsString(clr)
	if !ok {
		return fmt.Errorf("color must be a hex string like \"#4c72b0\", got %s", clr.Type())
	}
	c, err := colorful.Hex(str)
	if err != nil {
		return fmt.Errorf("color must be a hex string like \"#4c72b0\": %w", err)
	}
	s.color = c
	return nil
}

// palette spreads n hues evenly around the colour wheel.
func palette(n int) []color.Color {
	colors := make([]color.Color, max(n, 1))
	for i := range colors {
		hue := math.Mod(210+float64(i)*360/float64(len(colors)), 360)
		colors[i] = colorful.Hsv(hue, 0.55, 0.85)
	}
	return colors
}

// pairs accepts either a dict (keys on the axis, values as data) or two
// sequences of equal length.
func pairs(fnname string, x, y starlark.Value) ([]starlark.Value, []float64, error) {
	if y == nil || y == starlark.None {
		d, ok := x.(*starlark.Dict)
		if !ok {
			values, err := numbers(fnname, x)
			if err != nil {
				return nil, nil, err
			}
			keys := make([]starlark.Value, len(values))
			for i := range keys {
				keys[i] = starlark.MakeInt(i)
			}
			return keys, values, nil
		}
		items := d.Items()
		keys := make([]starlark.Value, len(items))
		values := make([]float64, len(items))
		for i, item := range items {
			v, ok := starlark.AsFloat(item[1])
			if !ok {
				return nil, nil, fmt.Errorf("%s: dict value for %s is %s, want a number", fnname, item[0], item[1].Type())
			}
			keys[i], values[i] = item[0], v
		}
		return keys, values, nil
	}
	keys, err := elements(fnname, x)
	if err != nil {
		return nil, nil, err
	}
	values, err := numbers(fnname, y)
	if err != nil {
		return nil, nil, err
	}
	if len(keys) != len(values) {
		return nil, nil, fmt.Errorf("%s: x and y must have the same length, got %d and %d", fnname, len(keys), len(values))
	}
	return keys, values, nil
}

func elements(fnname string, v starlark.Value) ([]starlark.Value, error) {
	iter := starlark.Iterate(v)
	if iter == nil {
		return nil, fmt.Errorf("%s: want a sequence, got %s", fnname, v.Type())
	}
	defer iter.Done()
	var out []starlark.Value
	var x starlark.Value
	for iter.Next(&x) {
		out = append(out, x)
	}
	return out, nil
}

func numbers(fnname string, v starlark.Value) ([]float64, error) {
	elems, err := elements(fnname, v)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(elems))
	for i, e := range elems {
		f, ok := starlark.AsFloat(e)
		if !ok {
			return nil, fmt.Errorf("%s: element %d is %s, want a number", fnname, i, e.Type())
		}
		out[i] = f
	}
	return out, nil
}

// axisValues maps numeric or time keys onto a continuous axis. ok is false
// when the keys must be treated as category labels instead.
func axisValues(keys []starlark.Value) (xs []float64, timeX bool, ok bool) {
	if len(keys) == 0 {
		return nil, false, true
	}
	if _, isTime := keys[0].(startime.Time); isTime {
		xs = make([]float64, len(keys))
		for i, k := range keys {
			t, isTime := k.(startime.Time)
			if !isTime {
				return nil, false, false
			}
			xs[i] = float64(time.Time(t).Unix())
		}
		return xs, true, true
	}
	xs = make([]float64, len(keys))
	for i, k := range keys {
		f, isNum := starlark.AsFloat(k)
		if !isNum {
			return nil, false, false
		}
		xs[i] = f
	}
	return xs, false, true
}

func labelsOf(keys []starlark.Value) []string {
	if keys == nil {
		return nil
	}
	labels := make([]string, len(keys))
	for i, k := range keys {
		labels[i] = formatCell(k)
	}
	return labels
}
