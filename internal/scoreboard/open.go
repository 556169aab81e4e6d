package scoreboard

import (
	"fmt"

	config "github.com/CodeAndHammer/guessr/internal/config"
	constants "github.com/CodeAndHammer/guessr/internal/constants"
	models "github.com/CodeAndHammer/guessr/internal/models"
)

var (
	_ models.ScoreStore = (*JSONStore)(nil)
	_ models.ScoreStore = (*SQLiteStore)(nil)
)

// Open builds the store selected by cfg.ScoreboardBackend.
func Open(cfg config.Config) (models.ScoreStore, error) {
	path := cfg.StoragePath()
	switch cfg.ScoreboardBackend {
	case constants.BackendJSON, "":
		return NewJSONStore(path, cfg.AtomicWrites), nil
	case constants.BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown scoreboard backend %q", cfg.ScoreboardBackend)
	}
}
