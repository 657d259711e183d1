// Package manifest stores pre-computed variant modules in SQLite.
//
// An image pipeline writes one row per resolution key (the module text it
// would have served for that import); the transform reads rows back through
// the enhance.Loader interface. The store can also act as a complete host,
// resolving keys against the paths it knows about.
package manifest

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agentic-research/enhimg/internal/assets"
	"github.com/agentic-research/enhimg/internal/enhance"
)

const schema = `
CREATE TABLE IF NOT EXISTS variants (
	id TEXT PRIMARY KEY,
	path TEXT NOT NULL,
	code TEXT NOT NULL,
	mtime INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_variants_path ON variants(path);
`

// Store is a variant manifest backed by a SQLite file.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (creating if needed) the manifest at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put records the module text for id. The path column is id without its
// query, so every variant of one file resolves through the same path.
func (s *Store) Put(ctx context.Context, id, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, _, _ := strings.Cut(id, "?")
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO variants (id, path, code, mtime) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET code = excluded.code, mtime = excluded.mtime`,
		id, path, code, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("put %s: %w", id, err)
	}
	return nil
}

// Load implements enhance.Loader. An unknown id loads as empty text, which
// the transform reports as a load failure for that id.
func (s *Store) Load(ctx context.Context, id string) (string, error) {
	var code string
	err := s.db.QueryRowContext(ctx, "SELECT code FROM variants WHERE id = ?", id).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load %s: %w", id, err)
	}
	return code, nil
}

// ResolveID implements enhance.Host against the paths recorded in the
// manifest, for setups without a source tree on disk.
func (s *Store) ResolveID(ctx context.Context, key, importer string) (string, bool, error) {
	id, file, ok := assets.ModuleID(key, importer)
	if !ok {
		return "", false, nil
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM variants WHERE path = ?", file).Scan(&n); err != nil {
		return "", false, fmt.Errorf("lookup %s: %w", file, err)
	}
	return id, n > 0, nil
}

// Import reads "id<TAB>code" lines from r and stores each one. Blank lines
// and lines starting with '#' are ignored. It returns the number of rows
// written.
func (s *Store) Import(ctx context.Context, r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	count, line := 0, 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		id, code, ok := strings.Cut(text, "\t")
		if !ok {
			return count, fmt.Errorf("line %d: expected id<TAB>code", line)
		}
		if err := s.Put(ctx, strings.TrimSpace(id), code); err != nil {
			return count, err
		}
		count++
	}
	if err := sc.Err(); err != nil {
		return count, fmt.Errorf("read manifest input: %w", err)
	}
	return count, nil
}

var (
	_ enhance.Host   = (*Store)(nil)
	_ enhance.Loader = (*Store)(nil)
)
