package charts

import (
	"BillionairesDashboard/src/processor"
	"fmt"
	"image/color"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type goRenderable interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

// goChart go-chart实现的柱状图、饼图
type goChart struct {
	base
	r goRenderable
}

func (c *goChart) Empty() bool { return false }

func (c *goChart) Render(w io.Writer) error {
	return c.r.Render(chart.SVG, w)
}

func toDrawing(c color.RGBA) drawing.Color {
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

// Bar 柱状图，labels和values一一对应
func Bar(id string, labels []string, values []float64, opts Options) Chart {
	if len(labels) == 0 || len(labels) != len(values) {
		return newEmpty(id, opts)
	}

	fill := toDrawing(opts.color(0))
	bars := make([]chart.Value, len(values))
	max := 0.0
	for i, v := range values {
		bars[i] = chart.Value{
			Label: labels[i],
			Value: v,
			Style: chart.Style{FillColor: fill, StrokeColor: fill, StrokeWidth: 1},
		}
		if v > max {
			max = v
		}
	}
	if max == 0 {
		max = 1
	}

	width := opts.width()
	bc := chart.BarChart{
		Title:  opts.Title,
		Width:  width,
		Height: opts.height(),
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Bottom: 60},
		},
		BarWidth:   barWidth(len(bars), width),
		BarSpacing: 4,
		XAxis:      chart.Style{TextRotationDegrees: 30},
		YAxis: chart.YAxis{
			Name:  opts.YLabel,
			Range: &chart.ContinuousRange{Min: 0, Max: max * 1.1},
		},
		Bars: bars,
	}
	return &goChart{base: base{id: id, title: opts.Title}, r: bc}
}

func barWidth(n, width int) int {
	w := (width - 120) / n
	switch {
	case w > 60:
		return 60
	case w < 8:
		return 8
	}
	return w - 4
}

// CountBar 计数表的柱状图
func CountBar(id string, counts []processor.Count, opts Options) Chart {
	labels := make([]string, len(counts))
	values := make([]float64, len(counts))
	for i, c := range counts {
		labels[i] = c.Key
		values[i] = float64(c.Count)
	}
	return Bar(id, labels, values, opts)
}

// MeanBar 分组均值的柱状图
func MeanBar(id string, means []processor.Mean, opts Options) Chart {
	labels := make([]string, len(means))
	values := make([]float64, len(means))
	for i, m := range means {
		labels[i] = m.Key
		values[i] = m.Value
	}
	return Bar(id, labels, values, opts)
}

// Pie 饼图，标签带上数量
func Pie(id string, counts []processor.Count, opts Options) Chart {
	values := make([]chart.Value, 0, len(counts))
	for i, c := range counts {
		if c.Count <= 0 {
			continue
		}
		col := toDrawing(PaletteColor(i))
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%d)", c.Key, c.Count),
			Value: float64(c.Count),
			Style: chart.Style{FillColor: col, StrokeColor: drawing.ColorWhite},
		})
	}
	if len(values) == 0 {
		return newEmpty(id, opts)
	}

	pc := chart.PieChart{
		Title:  opts.Title,
		Width:  opts.width(),
		Height: opts.height(),
		Values: values,
	}
	return &goChart{base: base{id: id, title: opts.Title}, r: pc}
}

// StackedBar 每个行业一根柱子，按gender堆叠
func StackedBar(id string, pairs []processor.PairCount, opts Options) Chart {
	if len(pairs) == 0 {
		return newEmpty(id, opts)
	}

	genderColor := make(map[string]drawing.Color)
	var bars []chart.StackedBar
	index := make(map[string]int)
	for _, p := range pairs {
		if p.Count <= 0 {
			continue
		}
		col, ok := genderColor[p.Gender]
		if !ok {
			col = toDrawing(PaletteColor(len(genderColor)))
			genderColor[p.Gender] = col
		}
		i, ok := index[p.Industry]
		if !ok {
			i = len(bars)
			index[p.Industry] = i
			bars = append(bars, chart.StackedBar{Name: p.Industry})
		}
		bars[i].Values = append(bars[i].Values, chart.Value{
			Label: fmt.Sprintf("%s: %d", processor.GenderLabel(p.Gender), p.Count),
			Value: float64(p.Count),
			Style: chart.Style{FillColor: col, StrokeColor: col},
		})
	}
	if len(bars) == 0 {
		return newEmpty(id, opts)
	}

	width := opts.width()
	bw := stackedBarWidth(len(bars), width)
	for i := range bars {
		bars[i].Width = bw
	}

	sbc := chart.StackedBarChart{
		Title:  opts.Title,
		Width:  width,
		Height: opts.height(),
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: stackedLeftPadding, Bottom: 60},
		},
		XAxis:      chart.Style{TextRotationDegrees: 30},
		BarSpacing: stackedBarSpacing,
		Bars:       bars,
	}
	return &goChart{base: base{id: id, title: opts.Title}, r: sbc}
}

const (
	stackedLeftPadding = 20
	stackedBarSpacing  = 8
	// 右侧留给百分比刻度
	stackedAxisWidth = 60
)

// stackedBarWidth 所有柱子加间距不超出画布，y轴画在最后一根柱子右侧
func stackedBarWidth(n, width int) int {
	slot := (width - stackedLeftPadding - stackedAxisWidth) / n
	w := slot - stackedBarSpacing
	switch {
	case w > 60:
		return 60
	case w < 4:
		return 4
	}
	return w
}
