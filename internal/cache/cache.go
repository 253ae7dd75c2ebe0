// Package cache persists computed climatologies so reruns skip the
// expensive read-and-average step. It replaces ad hoc per-run scratch files
// with a single SQLite database under the configured cache directory, keyed
// by analysis type, data-source slice, and climatology kind.
package cache

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/oceanbgc/climodiag/internal/dataset"
	"github.com/oceanbgc/climodiag/internal/fsutil"
)

// ErrMiss is returned by Get when no entry matches the key.
var ErrMiss = errors.New("cache miss")

const schema = `
CREATE TABLE IF NOT EXISTS climatologies (
	analysis   TEXT NOT NULL,
	slice      TEXT NOT NULL,
	climo      TEXT NOT NULL,
	var_names  TEXT NOT NULL,
	data       BLOB NOT NULL,
	history    TEXT NOT NULL,
	created_at TEXT NOT NULL,
	PRIMARY KEY (analysis, slice, climo)
);
`

// Key identifies one cached climatology.
type Key struct {
	Analysis string // analysis-type name
	Slice    string // data-source slice label, e.g. "PI_control.0271-0300"
	Climo    string // "ann_climo" or "mon_climo"
}

// Store is a climatology cache backed by a SQLite file.
type Store struct {
	db    *sql.DB
	runID string
}

// Open creates (or reuses) the cache database inside dir.
func Open(dir string) (*Store, error) {
	if err := fsutil.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	path := filepath.Join(dir, "climatologies.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache schema: %w", err)
	}
	return &Store{db: db, runID: uuid.NewString()}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Get loads a cached climatology and its variable map. A missing entry
// returns ErrMiss.
func (s *Store) Get(ctx context.Context, key Key) (*dataset.Dataset, map[string]string, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT var_names, data FROM climatologies WHERE analysis = ? AND slice = ? AND climo = ?`,
		key.Analysis, key.Slice, key.Climo)

	var varNamesJSON string
	var blob []byte
	if err := row.Scan(&varNamesJSON, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrMiss
		}
		return nil, nil, fmt.Errorf("reading cache: %w", err)
	}

	var names map[string]string
	if err := json.Unmarshal([]byte(varNamesJSON), &names); err != nil {
		return nil, nil, fmt.Errorf("decoding cached variable map: %w", err)
	}
	var ds dataset.Dataset
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&ds); err != nil {
		return nil, nil, fmt.Errorf("decoding cached dataset: %w", err)
	}
	return &ds, names, nil
}

// Put stores a climatology, replacing any previous entry for the key. The
// history stamp records who computed it and in which run.
func (s *Store) Put(ctx context.Context, key Key, ds *dataset.Dataset, names map[string]string) error {
	var blob bytes.Buffer
	if err := gob.NewEncoder(&blob).Encode(ds); err != nil {
		return fmt.Errorf("encoding dataset: %w", err)
	}
	varNamesJSON, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("encoding variable map: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO climatologies
		 (analysis, slice, climo, var_names, data, history, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		key.Analysis, key.Slice, key.Climo,
		string(varNamesJSON), blob.Bytes(), s.history(), now)
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

func (s *Store) history() string {
	name := "unknown"
	if u, err := user.Current(); err == nil {
		name = u.Username
	} else if env := os.Getenv("USER"); env != "" {
		name = env
	}
	return fmt.Sprintf("created by %s on %s (run %s)",
		name, time.Now().Format("2006-01-02 15:04:05"), s.runID)
}
