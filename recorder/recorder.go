// Package recorder appends periodic counter samples to a SQLite file.
package recorder

import (
	"database/sql"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/tebeka/atexit"

	// SQLite driver registered as "sqlite".
	_ "modernc.org/sqlite"
)

// Sample is one observation of the running demo.
type Sample struct {
	Session string
	At      time.Time
	Power   string
	Bits    int
	Modulus int
	FPS     int
	Paused  bool
	Resets  uint64
}

const defaultBatchSize = 256

const schema = `CREATE TABLE IF NOT EXISTS samples (
	session TEXT NOT NULL,
	at_ns   INTEGER NOT NULL,
	power   TEXT NOT NULL,
	bits    INTEGER NOT NULL,
	modulus INTEGER NOT NULL,
	fps     INTEGER NOT NULL,
	paused  INTEGER NOT NULL,
	resets  INTEGER NOT NULL
)`

const insertSample = `INSERT INTO samples
	(session, at_ns, power, bits, modulus, fps, paused, resets)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// Recorder buffers samples and writes them in batches.
type Recorder struct {
	mu        sync.Mutex
	db        *sql.DB
	pending   []Sample
	batchSize int
	closed    bool
}

// Open creates or appends to the SQLite file at path. Buffered samples are
// flushed when the process exits through atexit.
func Open(path string) (*Recorder, error) {
	if path == "" {
		return nil, errors.New("recorder: empty path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "create schema in %s", path)
	}

	r := &Recorder{db: db, batchSize: defaultBatchSize}
	atexit.Register(func() { _ = r.Close() })
	return r, nil
}

// Record buffers s, writing the batch once it is full.
func (r *Recorder) Record(s Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.New("recorder: closed")
	}
	r.pending = append(r.pending, s)
	if len(r.pending) < r.batchSize {
		return nil
	}
	return r.flushLocked()
}

// Flush writes all buffered samples in one transaction.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	return r.flushLocked()
}

func (r *Recorder) flushLocked() error {
	if len(r.pending) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	stmt, err := tx.Prepare(insertSample)
	if err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	for _, s := range r.pending {
		_, err := stmt.Exec(s.Session, s.At.UnixNano(), s.Power, s.Bits, s.Modulus, s.FPS, boolInt(s.Paused), int64(s.Resets))
		if err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, "insert sample")
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}
	r.pending = r.pending[:0]
	return nil
}

// Close flushes and closes the database. It is safe to call more than once.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	flushErr := r.flushLocked()
	r.closed = true
	closeErr := r.db.Close()
	if flushErr != nil {
		return flushErr
	}
	return errors.Wrap(closeErr, "close")
}

// ReadAll returns every sample in path ordered by time.
func ReadAll(path string) ([]Sample, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT session, at_ns, power, bits, modulus, fps, paused, resets
		FROM samples ORDER BY at_ns, rowid`)
	if err != nil {
		return nil, errors.Wrap(err, "query samples")
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var (
			s      Sample
			atNS   int64
			paused int
			resets int64
		)
		if err := rows.Scan(&s.Session, &atNS, &s.Power, &s.Bits, &s.Modulus, &s.FPS, &paused, &resets); err != nil {
			return nil, errors.Wrap(err, "scan sample")
		}
		s.At = time.Unix(0, atNS)
		s.Paused = paused != 0
		s.Resets = uint64(resets)
		out = append(out, s)
	}
	return out, errors.Wrap(rows.Err(), "read samples")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
