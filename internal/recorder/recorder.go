// Package recorder persists a pool's collection activity to disk: a
// schema-validated session.json manifest, a samples.csv time series,
// a raw.bin/raw_index.csv pair holding the unconditioned bytes behind
// each sample, and a recorder.db SQLite index over the same rows for
// ad-hoc querying after the fact.
package recorder

import (
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"openentropy/internal/apischema"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS samples (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    source_id   TEXT NOT NULL,
    timestamp_ns INTEGER NOT NULL,
    byte_count  INTEGER NOT NULL,
    shannon     REAL NOT NULL,
    raw_offset  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_samples_source ON samples(source_id);
CREATE INDEX IF NOT EXISTS idx_samples_timestamp ON samples(timestamp_ns);
`

// manifest mirrors apischema's session-manifest.json schema.
type manifest struct {
	PoolID       string   `json:"pool_id"`
	StartedAt    string   `json:"started_at"`
	EndedAt      string   `json:"ended_at,omitempty"`
	Sources      []string `json:"sources"`
	Conditioning string   `json:"conditioning"`
	SampleCount  int      `json:"sample_count"`
	RawBytes     uint64   `json:"raw_bytes"`
}

// Session records one pool run to a directory on disk. All methods
// are safe for concurrent use.
type Session struct {
	mu  sync.Mutex
	dir string

	poolID       string
	conditioning string
	startedAt    time.Time
	sources      map[string]struct{}

	samplesCSV *csv.Writer
	samplesF   *os.File

	rawF       *os.File
	rawIndex   *csv.Writer
	rawIndexF  *os.File
	rawOffset  int64
	sampleCount int

	db *sql.DB

	insertStmt *sql.Stmt
}

// NewSession creates dir (and its parents) and opens every artifact a
// session writes. poolID and conditioningMode are recorded verbatim
// into session.json.
func NewSession(dir, poolID, conditioningMode string) (*Session, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("recorder: create session dir: %w", err)
	}

	samplesF, err := os.Create(filepath.Join(dir, "samples.csv"))
	if err != nil {
		return nil, fmt.Errorf("recorder: create samples.csv: %w", err)
	}
	samplesCSV := csv.NewWriter(samplesF)
	if err := samplesCSV.Write([]string{"timestamp_ns", "source_id", "byte_count", "shannon", "raw_offset"}); err != nil {
		samplesF.Close()
		return nil, fmt.Errorf("recorder: write samples.csv header: %w", err)
	}
	samplesCSV.Flush()

	rawF, err := os.Create(filepath.Join(dir, "raw.bin"))
	if err != nil {
		samplesF.Close()
		return nil, fmt.Errorf("recorder: create raw.bin: %w", err)
	}

	rawIndexF, err := os.Create(filepath.Join(dir, "raw_index.csv"))
	if err != nil {
		samplesF.Close()
		rawF.Close()
		return nil, fmt.Errorf("recorder: create raw_index.csv: %w", err)
	}
	rawIndex := csv.NewWriter(rawIndexF)
	if err := rawIndex.Write([]string{"offset", "length", "source_id"}); err != nil {
		samplesF.Close()
		rawF.Close()
		rawIndexF.Close()
		return nil, fmt.Errorf("recorder: write raw_index.csv header: %w", err)
	}
	rawIndex.Flush()

	db, err := sql.Open("sqlite3", filepath.Join(dir, "recorder.db")+"?_journal_mode=WAL")
	if err != nil {
		samplesF.Close()
		rawF.Close()
		rawIndexF.Close()
		return nil, fmt.Errorf("recorder: open recorder.db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		samplesF.Close()
		rawF.Close()
		rawIndexF.Close()
		return nil, fmt.Errorf("recorder: apply recorder.db schema: %w", err)
	}
	insertStmt, err := db.Prepare(`INSERT INTO samples (source_id, timestamp_ns, byte_count, shannon, raw_offset) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		db.Close()
		samplesF.Close()
		rawF.Close()
		rawIndexF.Close()
		return nil, fmt.Errorf("recorder: prepare insert: %w", err)
	}

	return &Session{
		dir:          dir,
		poolID:       poolID,
		conditioning: conditioningMode,
		startedAt:    time.Now(),
		sources:      make(map[string]struct{}),
		samplesCSV:   samplesCSV,
		samplesF:     samplesF,
		rawF:         rawF,
		rawIndex:     rawIndex,
		rawIndexF:    rawIndexF,
		db:           db,
		insertStmt:   insertStmt,
	}, nil
}

// RecordSample appends one collection event to every open artifact:
// a samples.csv row, a raw.bin append plus its raw_index.csv entry,
// and a recorder.db row mirroring both.
func (s *Session) RecordSample(sourceID string, raw []byte, shannon float64, timestampNanos int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	offset := s.rawOffset
	if len(raw) > 0 {
		n, err := s.rawF.Write(raw)
		if err != nil {
			return fmt.Errorf("recorder: write raw.bin: %w", err)
		}
		s.rawOffset += int64(n)
	}

	row := []string{
		strconv.FormatInt(timestampNanos, 10),
		sourceID,
		strconv.Itoa(len(raw)),
		strconv.FormatFloat(shannon, 'f', 6, 64),
		strconv.FormatInt(offset, 10),
	}
	if err := s.samplesCSV.Write(row); err != nil {
		return fmt.Errorf("recorder: write samples.csv row: %w", err)
	}
	s.samplesCSV.Flush()

	if err := s.rawIndex.Write([]string{strconv.FormatInt(offset, 10), strconv.Itoa(len(raw)), sourceID}); err != nil {
		return fmt.Errorf("recorder: write raw_index.csv row: %w", err)
	}
	s.rawIndex.Flush()

	if _, err := s.insertStmt.Exec(sourceID, timestampNanos, len(raw), shannon, offset); err != nil {
		return fmt.Errorf("recorder: insert recorder.db row: %w", err)
	}

	s.sources[sourceID] = struct{}{}
	s.sampleCount++
	return nil
}

// Close finalizes session.json and closes every open artifact. It
// validates the manifest against the recorder's JSON Schema before
// writing it, so a malformed manifest surfaces as an error here
// rather than silently landing on disk.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.sources))
	for id := range s.sources {
		names = append(names, id)
	}

	m := manifest{
		PoolID:       s.poolID,
		StartedAt:    s.startedAt.UTC().Format(time.RFC3339),
		EndedAt:      time.Now().UTC().Format(time.RFC3339),
		Sources:      names,
		Conditioning: s.conditioning,
		SampleCount:  s.sampleCount,
		RawBytes:     uint64(s.rawOffset),
	}
	if err := apischema.ValidateSessionManifest(m); err != nil {
		return fmt.Errorf("recorder: session manifest failed schema validation: %w", err)
	}

	manifestBytes, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("recorder: marshal session.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, "session.json"), manifestBytes, 0o644); err != nil {
		return fmt.Errorf("recorder: write session.json: %w", err)
	}

	var errs []error
	if err := s.insertStmt.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.samplesF.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.rawF.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.rawIndexF.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("recorder: close session artifacts: %v", errs)
	}
	return nil
}
