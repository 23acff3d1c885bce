package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aaronzipp/coup-online/internal/apperr"
	"github.com/aaronzipp/coup-online/internal/models"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// SQLiteSnapshotStore persists lobby snapshots in a SQLite file.
type SQLiteSnapshotStore struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// OpenSQLite opens (and creates if needed) the snapshot database at path.
func OpenSQLite(path string) (*SQLiteSnapshotStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	// modernc reads connection pragmas from _pragma parameters; each pooled
	// connection applies them when it opens.
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteSnapshotStore{sqlDB: sqlDB, now: time.Now}, nil
}

// Close releases the underlying SQLite connection.
func (s *SQLiteSnapshotStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveSnapshot upserts the snapshot of one room.
func (s *SQLiteSnapshotStore) SaveSnapshot(ctx context.Context, snap *models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "encode snapshot", err)
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO lobby_snapshots (room_code, state_json, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(room_code) DO UPDATE SET
		    state_json = excluded.state_json,
		    updated_at = excluded.updated_at`,
		snap.Code, data, s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "save snapshot", err)
	}
	return nil
}

// LoadSnapshot reads the latest snapshot of a room.
func (s *SQLiteSnapshotStore) LoadSnapshot(ctx context.Context, code string) (*models.Snapshot, error) {
	var data []byte
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT state_json FROM lobby_snapshots WHERE room_code = ?`, code,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, apperr.Newf(apperr.NotFound, "no snapshot for room %s", code)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "load snapshot", err)
	}
	return decodeSnapshot(data)
}

// DeleteSnapshot forgets a room; deleting an unknown room is not an error.
func (s *SQLiteSnapshotStore) DeleteSnapshot(ctx context.Context, code string) error {
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM lobby_snapshots WHERE room_code = ?`, code); err != nil {
		return apperr.Wrap(apperr.Internal, "delete snapshot", err)
	}
	return nil
}

// ListSnapshots returns every stored room ordered by code.
func (s *SQLiteSnapshotStore) ListSnapshots(ctx context.Context) ([]*models.Snapshot, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT state_json FROM lobby_snapshots ORDER BY room_code`)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list snapshots", err)
	}
	defer rows.Close()

	var out []*models.Snapshot
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, apperr.Wrap(apperr.Internal, "scan snapshot", err)
		}
		snap, err := decodeSnapshot(data)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list snapshots", err)
	}
	return out, nil
}
