// Package statestore persists window placement between runs in SQLite.
package statestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"chatbar/internal/window"
)

// FileName is the database file created next to the config file.
const FileName = "state.db"

// Store keeps the last geometry of each platform's MAIN window.
type Store struct {
	mu  sync.Mutex
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("state database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configure state database: %w", err)
		}
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS window_geometry (
		platform_id TEXT PRIMARY KEY,
		x           INTEGER NOT NULL,
		y           INTEGER NOT NULL,
		width       INTEGER NOT NULL,
		height      INTEGER NOT NULL,
		updated_at  INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create window_geometry table: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// SaveGeometry records g as the last placement for platformID. Empty
// geometry is ignored.
func (s *Store) SaveGeometry(ctx context.Context, platformID string, g window.Geometry) error {
	if g.Empty() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `INSERT INTO window_geometry (platform_id, x, y, width, height, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(platform_id) DO UPDATE SET
			x=excluded.x,
			y=excluded.y,
			width=excluded.width,
			height=excluded.height,
			updated_at=excluded.updated_at`,
		platformID, g.X, g.Y, g.Width, g.Height, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save geometry for %s: %w", platformID, err)
	}
	return nil
}

// LoadGeometry returns the stored placement for platformID. ok is false when
// nothing was stored.
func (s *Store) LoadGeometry(ctx context.Context, platformID string) (window.Geometry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var g window.Geometry
	err := s.db.QueryRowContext(ctx,
		`SELECT x, y, width, height FROM window_geometry WHERE platform_id = ?`, platformID,
	).Scan(&g.X, &g.Y, &g.Width, &g.Height)
	if errors.Is(err, sql.ErrNoRows) {
		return window.Geometry{}, false, nil
	}
	if err != nil {
		return window.Geometry{}, false, fmt.Errorf("load geometry for %s: %w", platformID, err)
	}
	return g, true, nil
}

// LoadAllGeometry returns every stored placement keyed by platform id.
func (s *Store) LoadAllGeometry(ctx context.Context) (map[string]window.Geometry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx, `SELECT platform_id, x, y, width, height FROM window_geometry`)
	if err != nil {
		return nil, fmt.Errorf("load geometry: %w", err)
	}
	defer rows.Close()
	out := make(map[string]window.Geometry)
	for rows.Next() {
		var (
			platformID string
			g          window.Geometry
		)
		if err := rows.Scan(&platformID, &g.X, &g.Y, &g.Width, &g.Height); err != nil {
			return nil, fmt.Errorf("scan geometry: %w", err)
		}
		out[platformID] = g
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load geometry: %w", err)
	}
	return out, nil
}

// ForgetGeometry deletes the stored placement for platformID.
func (s *Store) ForgetGeometry(ctx context.Context, platformID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM window_geometry WHERE platform_id = ?`, platformID); err != nil {
		return fmt.Errorf("forget geometry for %s: %w", platformID, err)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
