package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/rigbench/rigview/internal/telemetry"
)

const yLabelWidth = 9

// Plot renders one chart kind as a text line plot of width x height cells.
// Samples with an absent value leave their column blank, so gaps stay gaps.
func Plot(kind Kind, samples []telemetry.DerivedSample, width, height int) string {
	if width < yLabelWidth+8 {
		width = yLabelWidth + 8
	}
	if height < 4 {
		height = 4
	}
	plotW := width - yLabelWidth
	plotH := height - 2 // title row + x-axis row

	type point struct{ x, y float64 }
	var pts []point
	for _, d := range samples {
		if v := kind.Value(d); v != nil {
			pts = append(pts, point{d.THour, *v})
		}
	}

	title := fmt.Sprintf("%s [%s]", kind.Title(), kind.Unit())
	if len(pts) == 0 {
		lines := make([]string, height)
		lines[0] = padLine(title, width)
		lines[height/2] = padLine(strings.Repeat(" ", yLabelWidth)+"no data", width)
		for i, l := range lines {
			if l == "" {
				lines[i] = strings.Repeat(" ", width)
			}
		}
		return strings.Join(lines, "\n")
	}

	xMin, xMax := pts[0].x, pts[0].x
	yMin, yMax := pts[0].y, pts[0].y
	for _, p := range pts[1:] {
		xMin = math.Min(xMin, p.x)
		xMax = math.Max(xMax, p.x)
		yMin = math.Min(yMin, p.y)
		yMax = math.Max(yMax, p.y)
	}
	if xMax == xMin {
		xMax = xMin + 1
	}
	if yMax == yMin {
		// flat line: pad the range so the line sits mid-plot
		yMax = yMin + 1
		yMin = yMin - 1
	}

	grid := make([][]rune, plotH)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", plotW))
	}
	for _, p := range pts {
		col := int((p.x - xMin) / (xMax - xMin) * float64(plotW-1))
		row := plotH - 1 - int((p.y-yMin)/(yMax-yMin)*float64(plotH-1))
		grid[row][col] = '•'
	}

	var b strings.Builder
	b.WriteString(padLine(title, width))
	b.WriteByte('\n')
	for i, rowRunes := range grid {
		label := strings.Repeat(" ", yLabelWidth)
		switch i {
		case 0:
			label = fmt.Sprintf("%8s ", compactNum(yMax))
		case plotH - 1:
			label = fmt.Sprintf("%8s ", compactNum(yMin))
		}
		b.WriteString(label)
		b.WriteString(string(rowRunes))
		b.WriteByte('\n')
	}
	xLabel := fmt.Sprintf("%st=%s..%s h", strings.Repeat(" ", yLabelWidth), compactNum(xMin), compactNum(xMax))
	b.WriteString(padLine(xLabel, width))
	return b.String()
}

func padLine(s string, width int) string {
	if len([]rune(s)) >= width {
		return string([]rune(s)[:width])
	}
	return s + strings.Repeat(" ", width-len([]rune(s)))
}

// compactNum formats an axis bound without trailing noise.
func compactNum(v float64) string {
	av := math.Abs(v)
	switch {
	case av >= 1000:
		return fmt.Sprintf("%.0f", v)
	case av >= 10:
		return fmt.Sprintf("%.1f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
