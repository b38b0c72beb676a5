package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series is a named sequence of values sampled once per day.
type Series struct {
	Name   string
	Values []float64
}

const (
	defaultPlotHeight = 12
	minPlotWidth      = 10
	fallbackWidth     = 80
	plotSeparator     = " ┤"
	colorReset        = "\x1b[0m"
)

var plotColors = []string{"\x1b[36m", "\x1b[33m", "\x1b[35m", "\x1b[32m"}

// PlotOptions controls the size and colouring of a plot. Zero values pick
// defaults from the terminal.
type PlotOptions struct {
	Width  int
	Height int
	Color  bool
}

// Plot draws series as braille lines on one shared vertical scale starting at
// zero. Every series is stretched to the plot width.
func Plot(w io.Writer, heading string, series []Series, opts PlotOptions) error {
	kept := series[:0:0]
	for _, s := range series {
		if len(s.Values) > 0 {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	top := 0.0
	for _, s := range kept {
		for _, v := range s.Values {
			if v > top {
				top = v
			}
		}
	}
	if top <= 0 {
		top = 1
	}

	labels := axisLabels(top, plotHeight(opts.Height))
	labelWidth := 0
	for _, l := range labels {
		labelWidth = max(labelWidth, runewidth.StringWidth(l))
	}
	width := opts.Width
	if width <= 0 {
		width = terminalWidth() - labelWidth - runewidth.StringWidth(plotSeparator)
	}
	width = max(width, minPlotWidth)
	height := len(labels)

	layers := make([][][]uint8, len(kept))
	for i, s := range kept {
		layers[i] = traceSeries(stretch(s.Values, width*2), top, width, height)
	}

	if heading != "" {
		if _, err := fmt.Fprintln(w, heading); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(runewidth.FillLeft(labels[y], labelWidth))
		row.WriteString(plotSeparator)
		for x := 0; x < width; x++ {
			var mask uint8
			owner := -1
			for i, layer := range layers {
				if layer[y][x] != 0 {
					mask |= layer[y][x]
					if owner < 0 {
						owner = i
					}
				}
			}
			cell := rune(0x2800 + int(mask))
			if opts.Color && owner >= 0 {
				row.WriteString(plotColors[owner%len(plotColors)] + string(cell) + colorReset)
				continue
			}
			row.WriteRune(cell)
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}

	legend := make([]string, len(kept))
	for i, s := range kept {
		legend[i] = s.Name
		if opts.Color {
			legend[i] = plotColors[i%len(plotColors)] + s.Name + colorReset
		}
	}
	_, err := fmt.Fprintf(w, "%s%s\n\n", strings.Repeat(" ", labelWidth+2), strings.Join(legend, " / "))
	return err
}

// ColorFor reports whether output to w should be coloured.
func ColorFor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func plotHeight(h int) int {
	if h <= 0 {
		return defaultPlotHeight
	}
	return max(h, 2)
}

func axisLabels(top float64, height int) []string {
	labels := make([]string, height)
	labels[0] = Count(int64(math.Round(top)))
	labels[height/2] = Count(int64(math.Round(top / 2)))
	labels[height-1] = "0"
	return labels
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}

// traceSeries plots dots (two per cell horizontally, four vertically) and
// joins consecutive dots with straight segments.
func traceSeries(values []float64, top float64, width, height int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	rows := height * 4
	prevX, prevY := -1, -1
	for x, v := range values {
		y := int(math.Round((1 - v/top) * float64(rows-1)))
		y = min(max(y, 0), rows-1)
		if prevX < 0 {
			setDot(cells, x, y)
		} else {
			segment(prevX, prevY, x, y, func(px, py int) { setDot(cells, px, py) })
		}
		prevX, prevY = x, y
	}
	return cells
}

// stretch linearly interpolates values onto n evenly spaced positions.
func stretch(values []float64, n int) []float64 {
	out := make([]float64, n)
	if len(values) == 1 || n == 1 {
		for i := range out {
			out[i] = values[0]
		}
		return out
	}
	last := len(values) - 1
	for i := range out {
		pos := float64(i) * float64(last) / float64(n-1)
		lo := int(pos)
		if lo >= last {
			out[i] = values[last]
			continue
		}
		frac := pos - float64(lo)
		out[i] = values[lo] + (values[lo+1]-values[lo])*frac
	}
	return out
}

func segment(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// brailleBits maps a dot position inside a cell to its bit in U+2800..U+28FF.
var brailleBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func setDot(cells [][]uint8, x, y int) {
	cy, cx := y/4, x/2
	if x < 0 || y < 0 || cy >= len(cells) || cx >= len(cells[cy]) {
		return
	}
	cells[cy][cx] |= brailleBits[x%2][y%4]
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
