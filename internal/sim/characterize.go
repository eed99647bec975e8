package sim

import (
	"math"
	"sort"
	"strconv"

	"github.com/rigbench/rigview/internal/api"
	"github.com/rigbench/rigview/internal/telemetry"
)

// Default bucket widths for the characterization grid.
const (
	DefaultTempStep    = 5.0   // °C ambient
	DefaultCurrentStep = 50.0  // A
	DefaultRPMStep     = 500.0 // 1/min
)

// Characterize buckets the voltage drop of each row by ambient temperature,
// current and RPM, and aggregates median and p95 per cell. Rows missing any
// of the three axes or any voltage tap contribute nothing.
func Characterize(rows []Row, tempStep, currentStep, rpmStep float64) api.CharGrid {
	vdrops := map[string]map[string]map[string][]float64{}

	for _, r := range rows {
		d := telemetry.Derive(r.Sample)
		if d.VDrop == nil || r.Ambient == nil || r.Current == nil || r.RPM == nil {
			continue
		}
		temp := bucket(*r.Ambient, tempStep)
		cur := bucket(*r.Current, currentStep)
		rpm := bucket(*r.RPM, rpmStep)

		if vdrops[temp] == nil {
			vdrops[temp] = map[string]map[string][]float64{}
		}
		if vdrops[temp][cur] == nil {
			vdrops[temp][cur] = map[string][]float64{}
		}
		vdrops[temp][cur][rpm] = append(vdrops[temp][cur][rpm], *d.VDrop)
	}

	grid := api.CharGrid{}
	for temp, byCur := range vdrops {
		grid[temp] = map[string]map[string]api.CharCell{}
		for cur, byRPM := range byCur {
			grid[temp][cur] = map[string]api.CharCell{}
			for rpm, vals := range byRPM {
				grid[temp][cur][rpm] = api.CharCell{
					Median: median(vals),
					P95:    percentile(vals, 95),
					Count:  len(vals),
				}
			}
		}
	}
	return grid
}

// bucket labels a value with the lower bound of its bucket.
func bucket(v, step float64) string {
	if step <= 0 {
		step = 1
	}
	lower := math.Floor(v/step) * step
	return strconv.FormatFloat(lower, 'f', -1, 64)
}

func median(a []float64) float64 {
	if len(a) == 0 {
		return 0
	}
	cp := append([]float64(nil), a...)
	sort.Float64s(cp)
	return cp[len(cp)/2]
}

// percentile uses the nearest-rank method.
func percentile(a []float64, p float64) float64 {
	if len(a) == 0 {
		return 0
	}
	cp := append([]float64(nil), a...)
	sort.Float64s(cp)
	if p <= 0 {
		return cp[0]
	}
	if p >= 100 {
		return cp[len(cp)-1]
	}
	idx := int(math.Ceil(p/100*float64(len(cp)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(cp) {
		idx = len(cp) - 1
	}
	return cp[idx]
}
