package models

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// GameSession is the state of one round. It lives in the signed session
// cookie between requests.
type GameSession struct {
	PlayerName   string     `json:"name"`
	Difficulty   Difficulty `json:"difficulty"`
	Target       int        `json:"target"`
	AttemptsUsed int        `json:"attempts"`
	MaxAttempts  int        `json:"max_attempts"`
	RangeMax     int        `json:"range_max"`
	LastMessage  string     `json:"last_message"`
}

func (gs *GameSession) AttemptsLeft() int {
	return gs.MaxAttempts - gs.AttemptsUsed
}

type ScoreEntry struct {
	Name     string `json:"name"`
	Attempts int    `json:"attempts"`
}

// Scoreboard maps each difficulty to its entries, ascending by attempts.
type Scoreboard map[Difficulty][]ScoreEntry

// ScoreStore persists the scoreboard. Implementations live in
// internal/scoreboard.
type ScoreStore interface {
	Load(ctx context.Context) (Scoreboard, error)
	Record(ctx context.Context, d Difficulty, name string, attempts int) error
	View(ctx context.Context) (Scoreboard, error)
	Backend() string
	Location() string
	Close() error
}

type RateLimiterEntry struct {
	Limiter    *rate.Limiter
	LastAccess time.Time
}

type App struct {
	Scores         ScoreStore
	SessionSecret  []byte
	SessionTTL     time.Duration
	LimiterMap     map[string]*RateLimiterEntry
	LimiterMutex   sync.RWMutex
	IsProduction   bool
	CSRFEnabled    bool
	StartTime      time.Time
	RateLimitRPS   int
	RateLimitBurst int
	RateLimiterTTL time.Duration

	// FinishedRounds maps ended session ids to the time their last cookie
	// expires.
	FinishedRounds map[string]time.Time
	FinishedMutex  sync.Mutex
}
