// internal/store/sqlite.go
//
// SQLite-backed Store for live sessions.
// Responsibilities:
//   - Opening SQLite with safe defaults (busy timeout, WAL for file databases).
//   - Applying embedded migrations from assets/sql (idempotent, recorded in _migrations).
//   - Saving/loading session snapshots and sweeping idle rows.
//
// Sessions are live state only: rows are swept after SESSION_TTL, so the
// default shared in-memory DSN and a file DSN behave the same way.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/guess/assets"
	"github.com/robalobadob/guess/internal/game"
)

type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if missing) the database at dsn and migrates it.
func OpenSQLite(dsn string) (Store, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

// openDB opens a SQLite database.
//
//   - Ensures the parent directory exists for plain file paths (e.g. ./data/guess.db).
//   - Configures busy timeout; switches file databases to WAL.
func openDB(dsn string) (*sql.DB, error) {
	memory := strings.Contains(dsn, "mode=memory") || strings.HasPrefix(dsn, ":memory:")
	if !memory && !strings.HasPrefix(dsn, "file:") {
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", dsn+sep+"_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	if memory {
		// A shared-cache memory database lives as long as one connection does.
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

// migrate applies the embedded migrations in lexical order.
// A _migrations table tracks applied scripts; each runs in its own transaction.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}
	migrations, err := assets.Migrations()
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	for _, m := range migrations {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, m.Name).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", m.Name).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", m.Name, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, m.Name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", m.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", m.Name, err)
		}
		log.Info().Str("migration", m.Name).Msg("applied")
	}
	return nil
}

func (s *sqliteStore) Save(ctx context.Context, st game.SessionState) error {
	if st.ID == "" {
		return errors.New("save: empty session id")
	}
	r := st.Round
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO sessions
            (id, difficulty, score, range_min, range_max, target, tries_used, tries_max, finished, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            difficulty=excluded.difficulty, score=excluded.score,
            range_min=excluded.range_min, range_max=excluded.range_max,
            target=excluded.target, tries_used=excluded.tries_used,
            tries_max=excluded.tries_max, finished=excluded.finished,
            updated_at=excluded.updated_at`,
		st.ID, st.Difficulty, st.Score, r.Min, r.Max, r.Target, r.TriesUsed, r.TriesMax, r.Finished,
		st.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", st.ID, err)
	}
	return nil
}

func (s *sqliteStore) Get(ctx context.Context, id string) (game.SessionState, error) {
	var (
		st      game.SessionState
		updated int64
	)
	err := s.db.QueryRowContext(ctx, `
        SELECT id, difficulty, score, range_min, range_max, target, tries_used, tries_max, finished, updated_at
        FROM sessions WHERE id=?`, id,
	).Scan(&st.ID, &st.Difficulty, &st.Score, &st.Round.Min, &st.Round.Max, &st.Round.Target,
		&st.Round.TriesUsed, &st.Round.TriesMax, &st.Round.Finished, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return game.SessionState{}, ErrNotFound
	}
	if err != nil {
		return game.SessionState{}, fmt.Errorf("get session %s: %w", id, err)
	}
	st.UpdatedAt = time.UnixMilli(updated).UTC()
	return st, nil
}

func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id=?`, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (s *sqliteStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *sqliteStore) Close() error { return s.db.Close() }
