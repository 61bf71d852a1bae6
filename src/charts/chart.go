package charts

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"
	"image/color"
	"io"
	"strconv"
	"strings"
)

// Chart 渲染器返回的可显示对象，输出SVG
type Chart interface {
	ID() string
	Title() string
	Empty() bool
	Render(w io.Writer) error
}

// Options 图表样式
type Options struct {
	Title  string
	XLabel string
	YLabel string
	Color  string // "#RRGGBB"，为空时使用调色板
	Width  int
	Height int
}

const (
	defaultWidth  = 640
	defaultHeight = 400
)

func (o Options) width() int {
	if o.Width > 0 {
		return o.Width
	}
	return defaultWidth
}

func (o Options) height() int {
	if o.Height > 0 {
		return o.Height
	}
	return defaultHeight
}

func (o Options) color(i int) color.RGBA {
	if o.Color != "" {
		if c, err := ParseHex(o.Color); err == nil {
			return c
		}
	}
	return PaletteColor(i)
}

// Palette 默认调色板
var Palette = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// PaletteColor 第i个调色板颜色，循环使用
func PaletteColor(i int) color.RGBA {
	c, _ := ParseHex(Palette[i%len(Palette)])
	return c
}

// ParseHex 解析 "#RRGGBB" 或 "RRGGBB"
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

type base struct {
	id    string
	title string
}

func (b base) ID() string    { return b.id }
func (b base) Title() string { return b.title }

// emptyChart 没有数据时的占位图
type emptyChart struct {
	base
	width, height int
}

func newEmpty(id string, opts Options) Chart {
	return &emptyChart{base: base{id: id, title: opts.Title}, width: opts.width(), height: opts.height()}
}

func (c *emptyChart) Empty() bool { return true }

func (c *emptyChart) Render(w io.Writer) error {
	_, err := fmt.Fprintf(w, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
		`<rect width="100%%" height="100%%" fill="#f8fafc"/>`+
		`<text x="50%%" y="30" text-anchor="middle" font-family="sans-serif" font-size="16">%s</text>`+
		`<text x="50%%" y="50%%" text-anchor="middle" font-family="sans-serif" font-size="14" fill="#64748b">Sem dados</text>`+
		`</svg>`,
		c.width, c.height, c.width, c.height, html.EscapeString(c.title))
	return err
}

// DataURI 渲染为可以放进<img src>的data URI
func DataURI(c Chart) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(&buf); err != nil {
		return "", fmt.Errorf("渲染图表%s失败: %w", c.ID(), err)
	}
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
