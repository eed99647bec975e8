package telemetry

import "testing"

func TestSeriesStartsEmpty(t *testing.T) {
	s := NewSeries()
	if s.Len() != 0 {
		t.Error("new series should be empty")
	}
	if s.Cursor() != 0 {
		t.Errorf("cursor = %d, want 0", s.Cursor())
	}
}

func TestSeriesAppendAdvancesCursor(t *testing.T) {
	s := NewSeries()
	n := s.Append(s.Epoch(), []Sample{{Idx: 1}, {Idx: 2}})
	if n != 2 {
		t.Fatalf("appended = %d, want 2", n)
	}
	if s.Cursor() != 2 {
		t.Errorf("cursor = %d, want 2", s.Cursor())
	}
	if s.Len() != 2 {
		t.Errorf("len = %d, want 2", s.Len())
	}
}

func TestSeriesAppendEmptyIsNoop(t *testing.T) {
	s := NewSeries()
	s.Append(s.Epoch(), []Sample{{Idx: 4}})
	n := s.Append(s.Epoch(), nil)
	if n != 0 {
		t.Errorf("appended = %d, want 0", n)
	}
	if s.Cursor() != 4 || s.Len() != 1 {
		t.Errorf("cursor/len = %d/%d, want 4/1", s.Cursor(), s.Len())
	}
}

func TestSeriesOrderingAcrossAppends(t *testing.T) {
	s := NewSeries()
	s.Append(s.Epoch(), []Sample{{Idx: 1}, {Idx: 3}})
	s.Append(s.Epoch(), []Sample{{Idx: 4}, {Idx: 9}})
	all := s.All()
	want := []int{1, 3, 4, 9}
	if len(all) != len(want) {
		t.Fatalf("len = %d, want %d", len(all), len(want))
	}
	for i, w := range want {
		if all[i].Idx != w {
			t.Errorf("all[%d].Idx = %d, want %d", i, all[i].Idx, w)
		}
	}
	if s.Cursor() != 9 {
		t.Errorf("cursor = %d, want 9", s.Cursor())
	}
}

func TestSeriesSkipsIndicesAtOrBelowCursor(t *testing.T) {
	s := NewSeries()
	s.Append(s.Epoch(), []Sample{{Idx: 1}, {Idx: 2}})
	n := s.Append(s.Epoch(), []Sample{{Idx: 2}, {Idx: 3}})
	if n != 1 {
		t.Errorf("appended = %d, want 1 (idx 2 is a duplicate)", n)
	}
	if s.Len() != 3 || s.Cursor() != 3 {
		t.Errorf("len/cursor = %d/%d, want 3/3", s.Len(), s.Cursor())
	}
}

func TestSeriesRejectsStaleEpoch(t *testing.T) {
	s := NewSeries()
	stale := s.Epoch()
	s.Reset()
	n := s.Append(stale, []Sample{{Idx: 5}, {Idx: 6}})
	if n != 0 {
		t.Errorf("appended = %d, want 0 for a pre-reset epoch", n)
	}
	if s.Len() != 0 || s.Cursor() != 0 {
		t.Errorf("len/cursor = %d/%d, want 0/0 after reset", s.Len(), s.Cursor())
	}
}

func TestSeriesResetClearsState(t *testing.T) {
	s := NewSeries()
	before := s.Epoch()
	s.Append(before, []Sample{{Idx: 1}, {Idx: 2}, {Idx: 3}})
	s.Reset()
	if s.Len() != 0 || s.Cursor() != 0 {
		t.Errorf("len/cursor = %d/%d after reset, want 0/0", s.Len(), s.Cursor())
	}
	if s.Epoch() == before {
		t.Error("reset should start a new epoch")
	}
}
