package scoreboard

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	constants "github.com/CodeAndHammer/guessr/internal/constants"
	models "github.com/CodeAndHammer/guessr/internal/models"
	util "github.com/CodeAndHammer/guessr/internal/util"
)

// SQLiteStore keeps one row per recorded win. Each difficulty is pruned back
// to the cap after every insert, so the table mirrors the JSON document.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS scores (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		difficulty TEXT NOT NULL,
		name TEXT NOT NULL,
		attempts INTEGER NOT NULL CHECK (attempts > 0),
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scores_rank ON scores(difficulty, attempts, id)`,
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := util.EnsureParentDir(cleanPath); err != nil {
		return nil, err
	}

	dsn := cleanPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: cleanPath}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Backend() string  { return constants.BackendSQLite }
func (s *SQLiteStore) Location() string { return s.path }

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) (models.Scoreboard, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT difficulty, name, attempts FROM scores ORDER BY attempts ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	board := Empty()
	for rows.Next() {
		var d, name string
		var attempts int
		if err := rows.Scan(&d, &name, &attempts); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		list, ok := board[models.Difficulty(d)]
		if !ok {
			continue
		}
		board[models.Difficulty(d)] = append(list, models.ScoreEntry{Name: name, Attempts: attempts})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}
	return board, nil
}

func (s *SQLiteStore) Record(ctx context.Context, d models.Difficulty, name string, attempts int) error {
	if err := validateRecord(d, name, attempts); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO scores (difficulty, name, attempts, created_at) VALUES (?, ?, ?, ?)`,
		string(d), name, attempts, time.Now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM scores
		WHERE difficulty = ? AND id NOT IN (
			SELECT id FROM scores WHERE difficulty = ?
			ORDER BY attempts ASC, id ASC LIMIT ?
		)`, string(d), string(d), constants.ScoreboardCap); err != nil {
		return fmt.Errorf("prune scores: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit score: %w", err)
	}
	util.Ctx(ctx).Info().
		Str("difficulty", string(d)).
		Str("player", name).
		Int("attempts", attempts).
		Msg("score recorded")
	return nil
}

func (s *SQLiteStore) View(ctx context.Context) (models.Scoreboard, error) {
	board, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Normalize(board), nil
}
