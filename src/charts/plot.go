package charts

import (
	"BillionairesDashboard/src/processor"
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// DefaultBins 直方图默认的分箱数
const DefaultBins = 20

var meanLineColor = color.RGBA{R: 0xdc, G: 0x26, B: 0x26, A: 0xff}

// plotChart gonum/plot实现的直方图、散点图
type plotChart struct {
	base
	p             *plot.Plot
	width, height int
}

func (c *plotChart) Empty() bool { return false }

func (c *plotChart) Render(w io.Writer) error {
	wt, err := c.p.WriterTo(vg.Points(float64(c.width)), vg.Points(float64(c.height)), "svg")
	if err != nil {
		return fmt.Errorf("生成svg失败: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

func newPlot(opts Options) *plot.Plot {
	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	p.Add(plotter.NewGrid())
	return p
}

func wrapPlot(id string, p *plot.Plot, opts Options) Chart {
	return &plotChart{base: base{id: id, title: opts.Title}, p: p, width: opts.width(), height: opts.height()}
}

func newHist(values []float64, bins int, normalize bool, fill color.Color) (*plotter.Histogram, error) {
	if bins <= 0 {
		bins = DefaultBins
	}
	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return nil, fmt.Errorf("创建直方图失败: %w", err)
	}
	if normalize {
		h.Normalize(1)
	}
	h.FillColor = fill
	h.LineStyle.Color = color.White
	return h, nil
}

// Histogram 数值分布直方图
func Histogram(id string, values []float64, bins int, opts Options) (Chart, error) {
	if len(values) == 0 {
		return newEmpty(id, opts), nil
	}

	p := newPlot(opts)
	h, err := newHist(values, bins, false, opts.color(0))
	if err != nil {
		return nil, err
	}
	p.Add(h)
	return wrapPlot(id, p, opts), nil
}

// AgeDistribution 归一化直方图 + KDE曲线 + 均值虚线
func AgeDistribution(id string, ages []float64, density []processor.Point, mean *float64, opts Options) (Chart, error) {
	if len(ages) == 0 {
		return newEmpty(id, opts), nil
	}

	fill := opts.color(0)
	p := newPlot(opts)
	h, err := newHist(ages, DefaultBins, true, fill)
	if err != nil {
		return nil, err
	}
	p.Add(h)

	top := 0.0
	for _, b := range h.Bins {
		top = math.Max(top, b.Weight)
	}

	if len(density) > 0 {
		xys := make(plotter.XYs, len(density))
		for i, pt := range density {
			xys[i].X, xys[i].Y = pt.X, pt.Y
			top = math.Max(top, pt.Y)
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("创建KDE曲线失败: %w", err)
		}
		line.Color = darken(fill)
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add("KDE", line)
	}

	if mean != nil {
		ml, err := plotter.NewLine(plotter.XYs{{X: *mean, Y: 0}, {X: *mean, Y: top * 1.05}})
		if err != nil {
			return nil, fmt.Errorf("创建均值线失败: %w", err)
		}
		ml.Color = meanLineColor
		ml.Width = vg.Points(1.5)
		ml.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		p.Add(ml)
		p.Legend.Add(fmt.Sprintf("Média: %.1f", *mean), ml)
	}
	p.Legend.Top = true

	return wrapPlot(id, p, opts), nil
}

// Scatter 散点图
func Scatter(id string, points []processor.Point, opts Options) (Chart, error) {
	if len(points) == 0 {
		return newEmpty(id, opts), nil
	}

	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X, xys[i].Y = pt.X, pt.Y
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("创建散点图失败: %w", err)
	}
	s.GlyphStyle.Color = opts.color(0)
	s.GlyphStyle.Radius = vg.Points(2)
	s.GlyphStyle.Shape = draw.CircleGlyph{}

	p := newPlot(opts)
	p.Add(s)
	return wrapPlot(id, p, opts), nil
}

func darken(c color.RGBA) color.RGBA {
	return color.RGBA{R: c.R / 2, G: c.G / 2, B: c.B / 2, A: c.A}
}
