package sandbox

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// pieChart draws one wedge per value, clockwise from twelve o'clock.
type pieChart struct {
	values  []float64
	colors  []color.Color
	autopct bool
}

var (
	_ plot.Plotter    = (*pieChart)(nil)
	_ plot.DataRanger = (*pieChart)(nil)
)

func newPieChart(values []float64, colors []color.Color, autopct bool) (*pieChart, error) {
	var total float64
	for _, v := range values {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("pie: invalid wedge value %v", v)
		}
		total += v
	}
	if total == 0 {
		return nil, fmt.Errorf("pie: values sum to zero")
	}
	return &pieChart{values: values, colors: colors, autopct: autopct}, nil
}

func (pc *pieChart) Plot(c draw.Canvas, p *plot.Plot) {
	var total float64
	for _, v := range pc.values {
		total += v
	}
	center := vg.Point{X: (c.Min.X + c.Max.X) / 2, Y: (c.Min.Y + c.Max.Y) / 2}
	radius := min(c.Max.X-c.Min.X, c.Max.Y-c.Min.Y) / 2 * 0.9

	sty := p.Title.TextStyle
	sty.Color = color.White
	sty.Font.Size = vg.Points(10)
	sty.XAlign = draw.XCenter
	sty.YAlign = draw.YCenter

	start := math.Pi / 2
	for i, v := range pc.values {
		sweep := -2 * math.Pi * v / total
		var path vg.Path
		path.Move(center)
		path.Arc(center, radius, start, sweep)
		path.Close()
		c.SetColor(pc.colors[i%len(pc.colors)])
		c.Fill(path)

		if pc.autopct && v > 0 {
			mid := start + sweep/2
			at := vg.Point{
				X: center.X + radius*0.65*vg.Length(math.Cos(mid)),
				Y: center.Y + radius*0.65*vg.Length(math.Sin(mid)),
			}
			c.FillText(sty, at, fmt.Sprintf("%.1f%%", 100*v/total))
		}
		start += sweep
	}
}

func (pc *pieChart) DataRange() (xmin, xmax, ymin, ymax float64) {
	return -1, 1, -1, 1
}

// swatch is a filled-square legend entry.
type swatch struct {
	color color.Color
}

func (s swatch) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(s.color, c.ClipPolygonY(pts))
}

var _ plot.Thumbnailer = swatch{}
