package sim

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// channelColumns maps recognized header names to sample channel setters.
var channelColumns = map[string]func(*Row, float64){
	"rpm":        func(r *Row, v float64) { r.RPM = &v },
	"current":    func(r *Row, v float64) { r.Current = &v },
	"tap1":       func(r *Row, v float64) { r.Tap1 = &v },
	"tap2":       func(r *Row, v float64) { r.Tap2 = &v },
	"tap3":       func(r *Row, v float64) { r.Tap3 = &v },
	"brush1":     func(r *Row, v float64) { r.Brush1 = &v },
	"brush2":     func(r *Row, v float64) { r.Brush2 = &v },
	"brush3":     func(r *Row, v float64) { r.Brush3 = &v },
	"brush4":     func(r *Row, v float64) { r.Brush4 = &v },
	"lower_box1": func(r *Row, v float64) { r.LowerBox1 = &v },
	"lower_box2": func(r *Row, v float64) { r.LowerBox2 = &v },
	"support":    func(r *Row, v float64) { r.Support = &v },
	"ambient":    func(r *Row, v float64) { r.Ambient = &v },
}

// ParseCSV reads an uploaded test-run CSV. Required columns: a time column
// (t_sec or t_hour). Optional: idx (defaults to row order), system (defaults
// to 1) and any subset of the channel columns. Empty cells mean "no reading".
func ParseCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	_, hasTSec := cols["t_sec"]
	_, hasTHour := cols["t_hour"]
	if !hasTSec && !hasTHour {
		return nil, fmt.Errorf("missing time column (t_sec or t_hour)")
	}

	var out []Row
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line+1, err)
		}
		line++

		row := Row{System: 1}
		row.Idx = len(out) + 1

		if i, ok := cols["idx"]; ok && rec[i] != "" {
			idx, err := strconv.Atoi(rec[i])
			if err != nil {
				return nil, fmt.Errorf("line %d: bad idx %q", line, rec[i])
			}
			row.Idx = idx
		}
		if i, ok := cols["system"]; ok && rec[i] != "" {
			sys, err := strconv.Atoi(rec[i])
			if err != nil || sys < 1 || sys > 3 {
				return nil, fmt.Errorf("line %d: bad system %q", line, rec[i])
			}
			row.System = sys
		}

		switch {
		case hasTHour:
			v, err := parseCell(rec, cols["t_hour"])
			if err != nil || v == nil {
				return nil, fmt.Errorf("line %d: bad t_hour", line)
			}
			row.THour = *v
		default:
			v, err := parseCell(rec, cols["t_sec"])
			if err != nil || v == nil {
				return nil, fmt.Errorf("line %d: bad t_sec", line)
			}
			row.THour = *v / 3600
		}

		for name, set := range channelColumns {
			i, ok := cols[name]
			if !ok {
				continue
			}
			v, err := parseCell(rec, i)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad %s %q", line, name, rec[i])
			}
			if v != nil {
				set(&row, *v)
			}
		}

		out = append(out, row)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no data rows")
	}
	return out, nil
}

func parseCell(rec []string, i int) (*float64, error) {
	if i >= len(rec) {
		return nil, nil
	}
	cell := strings.TrimSpace(rec[i])
	if cell == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
