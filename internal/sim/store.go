package sim

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rigbench/rigview/internal/api"
	"github.com/rigbench/rigview/internal/telemetry"
)

// Row is one stored sample: the wire sample plus the system it belongs to
// and the ambient temperature recorded alongside (used for characterization
// bucketing, not exposed on the live wire).
type Row struct {
	telemetry.Sample
	System  int
	Ambient *float64
}

// Store persists uploaded test runs in SQLite.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS tests (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at REAL NOT NULL
);
CREATE TABLE IF NOT EXISTS samples (
	test_id    TEXT NOT NULL,
	system     INTEGER NOT NULL,
	idx        INTEGER NOT NULL,
	t_hour     REAL NOT NULL,
	rpm        REAL,
	current    REAL,
	tap1       REAL,
	tap2       REAL,
	tap3       REAL,
	brush1     REAL,
	brush2     REAL,
	brush3     REAL,
	brush4     REAL,
	lower_box1 REAL,
	lower_box2 REAL,
	support    REAL,
	ambient    REAL,
	PRIMARY KEY (test_id, system, idx)
);
`

// Open opens (or creates) the database with WAL enabled.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTest registers a test run.
func (s *Store) CreateTest(id, name string) error {
	_, err := s.db.Exec(`INSERT INTO tests (id, name, created_at) VALUES (?, ?, ?)`,
		id, name, float64(time.Now().UnixNano())/1e9)
	if err != nil {
		return fmt.Errorf("insert test: %w", err)
	}
	return nil
}

// InsertRows stores samples for a test in one transaction.
func (s *Store) InsertRows(testID string, rows []Row) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO samples (test_id, system, idx, t_hour, rpm, current,
			tap1, tap2, tap3, brush1, brush2, brush3, brush4,
			lower_box1, lower_box2, support, ambient)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.Exec(testID, r.System, r.Idx, r.THour, r.RPM, r.Current,
			r.Tap1, r.Tap2, r.Tap3, r.Brush1, r.Brush2, r.Brush3, r.Brush4,
			r.LowerBox1, r.LowerBox2, r.Support, r.Ambient)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert sample %d: %w", r.Idx, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Tests lists stored test runs, newest first.
func (s *Store) Tests() ([]api.TestRun, error) {
	rows, err := s.db.Query(`SELECT id, name FROM tests ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query tests: %w", err)
	}
	defer rows.Close()

	runs := []api.TestRun{}
	for rows.Next() {
		var t api.TestRun
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan test: %w", err)
		}
		runs = append(runs, t)
	}
	return runs, rows.Err()
}

// TestExists reports whether a test id is known.
func (s *Store) TestExists(id string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM tests WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query test: %w", err)
	}
	return true, nil
}

const sampleColumns = `idx, t_hour, rpm, current, tap1, tap2, tap3,
	brush1, brush2, brush3, brush4, lower_box1, lower_box2, support, ambient`

// LiveSeries returns samples with idx > fromIdx in ascending order, at most
// limit entries.
func (s *Store) LiveSeries(testID string, system, fromIdx, limit int) ([]telemetry.Sample, error) {
	rows, err := s.db.Query(`
		SELECT `+sampleColumns+`
		FROM samples
		WHERE test_id = ? AND system = ? AND idx > ?
		ORDER BY idx ASC
		LIMIT ?
	`, testID, system, fromIdx, limit)
	if err != nil {
		return nil, fmt.Errorf("query live series: %w", err)
	}
	defer rows.Close()
	return scanSamples(rows)
}

// Series returns the stored sequence for a test and system, optionally
// restricted to a time window (seconds) and downsampled by step or dt.
func (s *Store) Series(testID string, system, step int, dtSec, tStartSec, tEndSec float64) ([]telemetry.Sample, error) {
	rows, err := s.db.Query(`
		SELECT `+sampleColumns+`
		FROM samples
		WHERE test_id = ? AND system = ?
		ORDER BY idx ASC
	`, testID, system)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}
	defer rows.Close()

	all, err := scanSamples(rows)
	if err != nil {
		return nil, err
	}
	return downsample(all, step, dtSec, tStartSec, tEndSec), nil
}

// Rows returns all stored rows of a test and system, for characterization.
func (s *Store) Rows(testID string, system int) ([]Row, error) {
	rows, err := s.db.Query(`
		SELECT `+sampleColumns+`
		FROM samples
		WHERE test_id = ? AND system = ?
		ORDER BY idx ASC
	`, testID, system)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		smp, amb, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, Row{Sample: smp, System: system, Ambient: amb})
	}
	return out, rows.Err()
}

func scanSamples(rows *sql.Rows) ([]telemetry.Sample, error) {
	samples := []telemetry.Sample{}
	for rows.Next() {
		s, _, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

func scanSample(rows *sql.Rows) (telemetry.Sample, *float64, error) {
	var s telemetry.Sample
	var rpm, current, tap1, tap2, tap3 sql.NullFloat64
	var brush1, brush2, brush3, brush4 sql.NullFloat64
	var lowerBox1, lowerBox2, support, ambient sql.NullFloat64

	err := rows.Scan(&s.Idx, &s.THour, &rpm, &current, &tap1, &tap2, &tap3,
		&brush1, &brush2, &brush3, &brush4, &lowerBox1, &lowerBox2, &support, &ambient)
	if err != nil {
		return s, nil, fmt.Errorf("scan sample: %w", err)
	}

	s.RPM = fromNull(rpm)
	s.Current = fromNull(current)
	s.Tap1 = fromNull(tap1)
	s.Tap2 = fromNull(tap2)
	s.Tap3 = fromNull(tap3)
	s.Brush1 = fromNull(brush1)
	s.Brush2 = fromNull(brush2)
	s.Brush3 = fromNull(brush3)
	s.Brush4 = fromNull(brush4)
	s.LowerBox1 = fromNull(lowerBox1)
	s.LowerBox2 = fromNull(lowerBox2)
	s.Support = fromNull(support)

	return s, fromNull(ambient), nil
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// downsample applies the time window, then keeps every step-th sample or the
// first sample of each dt bucket.
func downsample(samples []telemetry.Sample, step int, dtSec, tStartSec, tEndSec float64) []telemetry.Sample {
	windowed := samples[:0:0]
	for _, s := range samples {
		tSec := s.THour * 3600
		if tStartSec > 0 && tSec < tStartSec {
			continue
		}
		if tEndSec > 0 && tSec > tEndSec {
			continue
		}
		windowed = append(windowed, s)
	}

	switch {
	case dtSec > 0:
		out := []telemetry.Sample{}
		nextT := -1.0
		for _, s := range windowed {
			tSec := s.THour * 3600
			if tSec >= nextT {
				out = append(out, s)
				nextT = tSec + dtSec
			}
		}
		return out
	case step > 1:
		out := []telemetry.Sample{}
		for i, s := range windowed {
			if i%step == 0 {
				out = append(out, s)
			}
		}
		return out
	default:
		return windowed
	}
}
