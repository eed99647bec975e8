package telemetry

// Series accumulates samples for one live session. It is append-only between
// resets; the epoch token ties appends to the session they were fetched for,
// so a response that raced a reset cannot land in the new session.
//
// Series is not safe for concurrent use. The dashboard owns it from a single
// event loop, which is the only mutation path.
type Series struct {
	samples []Sample
	cursor  int
	epoch   int
}

// NewSeries returns an empty series at epoch 1 with cursor 0.
func NewSeries() *Series {
	return &Series{epoch: 1}
}

// Reset discards all accumulated samples, sets the cursor to zero and starts
// a new epoch. Called on selection change and on live-session start.
func (s *Series) Reset() {
	s.samples = nil
	s.cursor = 0
	s.epoch++
}

// Epoch returns the token identifying the current session. Fetches record it
// at issue time and pass it back to Append.
func (s *Series) Epoch() int { return s.epoch }

// Cursor returns the highest sample index ingested so far.
func (s *Series) Cursor() int { return s.cursor }

// Len returns the number of accumulated samples.
func (s *Series) Len() int { return len(s.samples) }

// Append ingests samples fetched under the given epoch. Batches from a stale
// epoch are dropped whole; within the current epoch, samples at or below the
// cursor are skipped. Returns the number of samples actually appended.
func (s *Series) Append(epoch int, samples []Sample) int {
	if epoch != s.epoch {
		return 0
	}
	n := 0
	for _, smp := range samples {
		if smp.Idx <= s.cursor {
			continue
		}
		s.samples = append(s.samples, smp)
		s.cursor = smp.Idx
		n++
	}
	return n
}

// All returns the accumulated sequence in ingestion order (ascending Idx).
// The slice is shared with the store; callers must not mutate it.
func (s *Series) All() []Sample {
	return s.samples
}
