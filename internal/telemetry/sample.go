// Package telemetry holds the sample model for bench test runs and the
// derived metrics computed from raw channel readings.
package telemetry

// Sample is one telemetry reading for a test and system. Channel readings
// are optional: a nil pointer means no value was recorded at that index.
type Sample struct {
	Idx   int     `json:"idx"`
	THour float64 `json:"t_hour"`

	RPM     *float64 `json:"rpm,omitempty"`
	Current *float64 `json:"current,omitempty"`

	// Voltage taps across the contact under test.
	Tap1 *float64 `json:"tap1,omitempty"`
	Tap2 *float64 `json:"tap2,omitempty"`
	Tap3 *float64 `json:"tap3,omitempty"`

	// Brush temperatures: 1,2 on the HV- side, 3,4 on the HV+ side.
	Brush1 *float64 `json:"brush1,omitempty"`
	Brush2 *float64 `json:"brush2,omitempty"`
	Brush3 *float64 `json:"brush3,omitempty"`
	Brush4 *float64 `json:"brush4,omitempty"`

	LowerBox1 *float64 `json:"lower_box1,omitempty"`
	LowerBox2 *float64 `json:"lower_box2,omitempty"`
	Support   *float64 `json:"support,omitempty"`
}

// DerivedSample is a Sample augmented with display metrics averaged from
// sensor pairs. A derived field is nil whenever any of its inputs is nil.
type DerivedSample struct {
	Sample

	VDrop      *float64
	HVMinusAvg *float64
	HVPlusAvg  *float64
}

// Derive computes the derived metrics for one sample. It is pure and never
// fails: missing inputs propagate as missing outputs.
func Derive(s Sample) DerivedSample {
	d := DerivedSample{Sample: s}
	if s.Tap1 != nil && s.Tap2 != nil && s.Tap3 != nil {
		d.VDrop = ptr((*s.Tap1 + *s.Tap2 + *s.Tap3) / 3)
	}
	if s.Brush1 != nil && s.Brush2 != nil {
		d.HVMinusAvg = ptr((*s.Brush1 + *s.Brush2) / 2)
	}
	if s.Brush3 != nil && s.Brush4 != nil {
		d.HVPlusAvg = ptr((*s.Brush3 + *s.Brush4) / 2)
	}
	return d
}

// DeriveAll maps Derive over a sequence, preserving order.
func DeriveAll(samples []Sample) []DerivedSample {
	out := make([]DerivedSample, len(samples))
	for i, s := range samples {
		out[i] = Derive(s)
	}
	return out
}

func ptr(v float64) *float64 { return &v }

// Float returns a pointer to v. Convenience for building samples.
func Float(v float64) *float64 { return &v }
