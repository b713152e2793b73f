package statsstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	buserr "github.com/randalmurphal/eventbus/pkg/eventbus/errors"
)

// SQLiteStore persists snapshots to a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (creating if needed) the database at path.
// Use ":memory:" for a throwaway database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" databases from splitting per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS stats_snapshots (
			sequence INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			bus_type TEXT NOT NULL,
			log_level TEXT NOT NULL,
			sends INTEGER NOT NULL,
			asks INTEGER NOT NULL,
			broadcasts INTEGER NOT NULL,
			observers INTEGER NOT NULL,
			taken_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_stats_snapshots_name
		ON stats_snapshots(name)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Snapshot{}, buserr.ErrStoreClosed
	}

	if snap.TakenAt.IsZero() {
		snap.TakenAt = time.Now()
	}
	snap.TakenAt = snap.TakenAt.UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO stats_snapshots
			(name, bus_type, log_level, sends, asks, broadcasts, observers, taken_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, snap.Name, snap.Type, snap.LogLevel, snap.Sends, snap.Asks, snap.Broadcasts, snap.On,
		snap.TakenAt.Format(time.RFC3339Nano))
	if err != nil {
		return Snapshot{}, fmt.Errorf("save snapshot: %w", err)
	}

	seq, err := res.LastInsertId()
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot sequence: %w", err)
	}
	snap.Sequence = seq
	return snap, nil
}

const selectColumns = `
	SELECT sequence, name, bus_type, log_level, sends, asks, broadcasts, observers, taken_at
	FROM stats_snapshots`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (Snapshot, error) {
	var snap Snapshot
	var takenAt string
	if err := row.Scan(&snap.Sequence, &snap.Name, &snap.Type, &snap.LogLevel,
		&snap.Sends, &snap.Asks, &snap.Broadcasts, &snap.On, &takenAt); err != nil {
		return Snapshot{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, takenAt)
	if err != nil {
		return Snapshot{}, fmt.Errorf("parse taken_at %q: %w", takenAt, err)
	}
	snap.TakenAt = ts
	return snap, nil
}

// Latest implements Store.
func (s *SQLiteStore) Latest(ctx context.Context, name string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Snapshot{}, buserr.ErrStoreClosed
	}

	row := s.db.QueryRowContext(ctx, selectColumns+`
		WHERE name = ?
		ORDER BY sequence DESC
		LIMIT 1
	`, name)

	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, buserr.ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, name string) ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, buserr.ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, selectColumns+`
		WHERE name = ?
		ORDER BY sequence
	`, name)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return buserr.ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM stats_snapshots WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete snapshots: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
