package chart

import (
	"bytes"
	"fmt"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/rigbench/rigview/internal/telemetry"
)

// lineStyle is the stroke used for every exported series segment.
func lineStyle() gochart.Style {
	return gochart.Style{
		StrokeWidth: 1.5,
		StrokeColor: gochart.ColorBlue,
	}
}

// RenderPNG renders one chart kind to a PNG image. Runs of consecutive
// present values become separate series segments, so an absent value splits
// the line into a visible gap instead of being drawn as zero.
func RenderPNG(kind Kind, samples []telemetry.DerivedSample, width, height int) ([]byte, error) {
	segments := splitSegments(kind, samples)
	if len(segments) == 0 {
		return nil, fmt.Errorf("render %s: no values to plot", kind.Slug())
	}

	var series []gochart.Series
	for _, seg := range segments {
		xs, ys := seg.xs, seg.ys
		if len(xs) == 1 {
			// go-chart draws nothing for a single-point stroke; widen it
			// into a short flat segment so isolated readings stay visible.
			xs = []float64{xs[0], xs[0] + 1e-6}
			ys = []float64{ys[0], ys[0]}
		}
		series = append(series, gochart.ContinuousSeries{
			Name:    kind.Title(),
			XValues: xs,
			YValues: ys,
			Style:   lineStyle(),
		})
	}

	ch := gochart.Chart{
		Title:      kind.Title(),
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 14, Left: 16, Right: 12, Bottom: 14}},
		XAxis:      gochart.XAxis{Name: "t [h]"},
		YAxis:      gochart.YAxis{Name: kind.Unit()},
		Series:     series,
	}

	var buf bytes.Buffer
	if err := ch.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", kind.Slug(), err)
	}
	return buf.Bytes(), nil
}

type segment struct {
	xs []float64
	ys []float64
}

// splitSegments groups consecutive present values into line segments,
// breaking whenever the plotted field is absent.
func splitSegments(kind Kind, samples []telemetry.DerivedSample) []segment {
	var segs []segment
	var cur segment
	flush := func() {
		if len(cur.xs) > 0 {
			segs = append(segs, cur)
			cur = segment{}
		}
	}
	for _, d := range samples {
		v := kind.Value(d)
		if v == nil {
			flush()
			continue
		}
		cur.xs = append(cur.xs, d.THour)
		cur.ys = append(cur.ys, *v)
	}
	flush()
	return segs
}
