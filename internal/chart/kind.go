// Package chart renders derived telemetry sequences as line plots, either as
// text for the terminal or as PNG via go-chart. Rendering is stateless: it
// never mutates the input sequence.
package chart

import "github.com/rigbench/rigview/internal/telemetry"

// Kind selects which derived field a chart plots against elapsed hours.
type Kind int

const (
	KindVDrop Kind = iota
	KindCurrent
	KindRPM
	KindHVMinus
	KindLowerBox
	KindSupport
)

// Kinds returns all chart kinds in dashboard layout order.
func Kinds() []Kind {
	return []Kind{KindVDrop, KindCurrent, KindRPM, KindHVMinus, KindLowerBox, KindSupport}
}

// Title returns the chart heading.
func (k Kind) Title() string {
	switch k {
	case KindVDrop:
		return "Voltage Drop"
	case KindCurrent:
		return "Current"
	case KindRPM:
		return "RPM"
	case KindHVMinus:
		return "HV- Brush Temp"
	case KindLowerBox:
		return "Lower Box Temp"
	case KindSupport:
		return "Support Temp"
	}
	return "?"
}

// Unit returns the Y-axis unit label.
func (k Kind) Unit() string {
	switch k {
	case KindVDrop:
		return "V"
	case KindCurrent:
		return "A"
	case KindRPM:
		return "1/min"
	case KindHVMinus, KindLowerBox, KindSupport:
		return "°C"
	}
	return ""
}

// Slug returns a filename-safe identifier for exports.
func (k Kind) Slug() string {
	switch k {
	case KindVDrop:
		return "vdrop"
	case KindCurrent:
		return "current"
	case KindRPM:
		return "rpm"
	case KindHVMinus:
		return "hv_minus_temp"
	case KindLowerBox:
		return "lower_box_temp"
	case KindSupport:
		return "support_temp"
	}
	return "unknown"
}

// Value extracts the plotted field from a derived sample. Nil means the
// sample contributes a gap, not a zero.
func (k Kind) Value(d telemetry.DerivedSample) *float64 {
	switch k {
	case KindVDrop:
		return d.VDrop
	case KindCurrent:
		return d.Current
	case KindRPM:
		return d.RPM
	case KindHVMinus:
		return d.HVMinusAvg
	case KindLowerBox:
		return d.LowerBox1
	case KindSupport:
		return d.Support
	}
	return nil
}
