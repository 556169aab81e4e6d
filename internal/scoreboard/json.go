package scoreboard

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	constants "github.com/CodeAndHammer/guessr/internal/constants"
	models "github.com/CodeAndHammer/guessr/internal/models"
	util "github.com/CodeAndHammer/guessr/internal/util"
)

// JSONStore keeps the board in a single JSON file. There is no locking:
// concurrent writers race and the last write wins.
type JSONStore struct {
	path   string
	atomic bool
}

func NewJSONStore(path string, atomic bool) *JSONStore {
	if path == "" {
		path = constants.DefaultJSONPath
	}
	return &JSONStore{path: path, atomic: atomic}
}

func (s *JSONStore) Backend() string  { return constants.BackendJSON }
func (s *JSONStore) Location() string { return s.path }
func (s *JSONStore) Close() error     { return nil }

// Read returns the persisted board, or an error if the file is missing or
// cannot be decoded.
func (s *JSONStore) Read() (models.Scoreboard, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Load is Read with the empty board substituted for a missing or corrupt
// file.
func (s *JSONStore) Load(ctx context.Context) (models.Scoreboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	board, err := s.Read()
	switch {
	case err == nil:
		return board, nil
	case errors.Is(err, fs.ErrNotExist):
		util.Ctx(ctx).Debug().Str("path", s.path).Msg("scoreboard file missing, starting empty")
	default:
		util.Ctx(ctx).Warn().Err(err).Str("path", s.path).Msg("scoreboard unreadable, starting empty")
	}
	return Empty(), nil
}

func (s *JSONStore) Record(ctx context.Context, d models.Difficulty, name string, attempts int) error {
	if err := validateRecord(d, name, attempts); err != nil {
		return err
	}
	board, err := s.Load(ctx)
	if err != nil {
		return err
	}
	board = Insert(board, d, models.ScoreEntry{Name: name, Attempts: attempts})
	if err := s.Save(board); err != nil {
		return err
	}
	util.Ctx(ctx).Info().
		Str("difficulty", string(d)).
		Str("player", name).
		Int("attempts", attempts).
		Msg("score recorded")
	return nil
}

func (s *JSONStore) View(ctx context.Context) (models.Scoreboard, error) {
	board, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Normalize(board), nil
}

// Save writes board to disk, creating parent directories as needed.
func (s *JSONStore) Save(board models.Scoreboard) error {
	data, err := Encode(board)
	if err != nil {
		return err
	}
	if err := util.EnsureParentDir(s.path); err != nil {
		return err
	}
	if !s.atomic {
		if err := os.WriteFile(s.path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", s.path, err)
		}
		return nil
	}
	return writeAtomic(s.path, data)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename %s: %w", tmpName, err)
	}
	return nil
}
