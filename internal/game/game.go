package game

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"

	constants "github.com/CodeAndHammer/guessr/internal/constants"
	models "github.com/CodeAndHammer/guessr/internal/models"
	util "github.com/CodeAndHammer/guessr/internal/util"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNoRound      = errors.New("no round in progress")
)

type State string

const (
	StateInProgress State = "in_progress"
	StateWon        State = "won"
	StateLost       State = "lost"
)

// Outcome describes the result of one guess. Target is only set once the
// round is over.
type Outcome struct {
	State        State
	Message      string
	Target       int
	AttemptsUsed int
	AttemptsLeft int
}

func (o Outcome) Terminal() bool {
	return o.State == StateWon || o.State == StateLost
}

// Start begins a new round for name at difficulty d.
func Start(ctx context.Context, name string, d models.Difficulty) *models.GameSession {
	name = strings.TrimSpace(name)
	if name == "" {
		name = constants.DefaultPlayer
	}
	if !IsValidDifficulty(d) {
		d = models.DifficultyEasy
	}
	rangeMax, maxAttempts := Policy(d)
	gs := &models.GameSession{
		PlayerName:   name,
		Difficulty:   d,
		Target:       RandomTarget(ctx, rangeMax),
		AttemptsUsed: 0,
		MaxAttempts:  maxAttempts,
		RangeMax:     rangeMax,
		LastMessage:  "",
	}
	util.Ctx(ctx).Info().
		Str("player", name).
		Str("difficulty", string(d)).
		Int("range_max", rangeMax).
		Msg("round started")
	return gs
}

// RandomTarget picks a number uniformly in [1, rangeMax].
func RandomTarget(ctx context.Context, rangeMax int) int {
	fallback := (rangeMax + 1) / 2
	if rangeMax <= 1 {
		return 1
	}

	select {
	case <-ctx.Done():
		util.Ctx(ctx).Warn().Err(ctx.Err()).Msg("RandomTarget cancelled, using midpoint")
		return fallback
	default:
	}

	n, err := rand.Int(rand.Reader, big.NewInt(int64(rangeMax)))
	if err != nil {
		util.Ctx(ctx).Warn().Err(err).Msg("Error generating random number, using midpoint")
		return fallback
	}
	return int(n.Int64()) + 1
}

// ParseGuess accepts a trimmed, non-empty run of ASCII digits. Values too
// large for int saturate to math.MaxInt.
func ParseGuess(input string) (int, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, ErrInvalidInput
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, ErrInvalidInput
		}
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v > math.MaxInt {
		return math.MaxInt, nil
	}
	return int(v), nil
}

// Guess applies one guess to gs. Invalid input leaves the attempt count
// alone and returns ErrInvalidInput alongside an in-progress outcome.
func Guess(ctx context.Context, gs *models.GameSession, input string) (Outcome, error) {
	if gs == nil || gs.AttemptsUsed >= gs.MaxAttempts {
		return Outcome{}, ErrNoRound
	}

	value, err := ParseGuess(input)
	if err != nil {
		gs.LastMessage = constants.MsgInvalidInput
		return Outcome{
			State:        StateInProgress,
			Message:      gs.LastMessage,
			AttemptsUsed: gs.AttemptsUsed,
			AttemptsLeft: gs.AttemptsLeft(),
		}, err
	}

	gs.AttemptsUsed++
	lg := util.Ctx(ctx)

	if value == gs.Target {
		lg.Info().Str("player", gs.PlayerName).Int("attempts", gs.AttemptsUsed).Msg("round won")
		return Outcome{
			State:        StateWon,
			Message:      "",
			Target:       gs.Target,
			AttemptsUsed: gs.AttemptsUsed,
			AttemptsLeft: gs.AttemptsLeft(),
		}, nil
	}

	if value < gs.Target {
		gs.LastMessage = constants.MsgTooLow
	} else {
		gs.LastMessage = constants.MsgTooHigh
	}

	out := Outcome{
		State:        StateInProgress,
		Message:      gs.LastMessage,
		AttemptsUsed: gs.AttemptsUsed,
		AttemptsLeft: gs.AttemptsLeft(),
	}
	if gs.AttemptsUsed >= gs.MaxAttempts {
		out.State = StateLost
		out.Target = gs.Target
		lg.Info().Str("player", gs.PlayerName).Int("target", gs.Target).Msg("round lost")
	}
	return out, nil
}

// Validate reports whether gs satisfies the round invariants. Sessions that
// fail are treated as absent.
func Validate(gs *models.GameSession) bool {
	if gs == nil || !IsValidDifficulty(gs.Difficulty) {
		return false
	}
	rangeMax, maxAttempts := Policy(gs.Difficulty)
	return gs.RangeMax == rangeMax &&
		gs.MaxAttempts == maxAttempts &&
		gs.Target >= 1 && gs.Target <= gs.RangeMax &&
		gs.AttemptsUsed >= 0 && gs.AttemptsUsed < gs.MaxAttempts
}
