package game

import (
	"context"
	"errors"
	"math"
	"testing"

	constants "github.com/CodeAndHammer/guessr/internal/constants"
	models "github.com/CodeAndHammer/guessr/internal/models"
)

func dummyContext() context.Context {
	return context.Background()
}

func TestPolicy(t *testing.T) {
	cases := []struct {
		d           models.Difficulty
		rangeMax    int
		maxAttempts int
	}{
		{models.DifficultyEasy, 20, 5},
		{models.DifficultyMedium, 50, 7},
		{models.DifficultyHard, 100, 10},
		{models.Difficulty("nightmare"), 20, 5},
	}
	for _, c := range cases {
		rm, ma := Policy(c.d)
		if rm != c.rangeMax || ma != c.maxAttempts {
			t.Errorf("Policy(%q) = (%d, %d), want (%d, %d)", c.d, rm, ma, c.rangeMax, c.maxAttempts)
		}
	}
}

func TestParseDifficulty(t *testing.T) {
	cases := map[string]models.Difficulty{
		"easy":     models.DifficultyEasy,
		" Medium ": models.DifficultyMedium,
		"HARD":     models.DifficultyHard,
		"":         models.DifficultyEasy,
		"extreme":  models.DifficultyEasy,
	}
	for in, want := range cases {
		if got := ParseDifficulty(in); got != want {
			t.Errorf("ParseDifficulty(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDifficultiesOrder(t *testing.T) {
	got := Difficulties()
	want := []models.Difficulty{models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard}
	if len(got) != len(want) {
		t.Fatalf("Difficulties() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Difficulties()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStartTargetInRange(t *testing.T) {
	ctx := dummyContext()
	for _, d := range Difficulties() {
		rangeMax, maxAttempts := Policy(d)
		for i := 0; i < 200; i++ {
			gs := Start(ctx, "Ann", d)
			if gs.Target < 1 || gs.Target > rangeMax {
				t.Fatalf("%s: target %d outside [1, %d]", d, gs.Target, rangeMax)
			}
			if gs.AttemptsUsed != 0 || gs.MaxAttempts != maxAttempts || gs.RangeMax != rangeMax {
				t.Fatalf("%s: unexpected initial session %+v", d, gs)
			}
		}
	}
}

func TestStartDefaults(t *testing.T) {
	gs := Start(dummyContext(), "   ", models.Difficulty("bogus"))
	if gs.PlayerName != constants.DefaultPlayer {
		t.Errorf("PlayerName = %q, want %q", gs.PlayerName, constants.DefaultPlayer)
	}
	if gs.Difficulty != models.DifficultyEasy || gs.RangeMax != 20 || gs.MaxAttempts != 5 {
		t.Errorf("unknown difficulty should default to easy, got %+v", gs)
	}
}

func TestRandomTargetCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := RandomTarget(ctx, 20); got != 10 {
		t.Errorf("RandomTarget on cancelled ctx = %d, want midpoint 10", got)
	}
	if got := RandomTarget(dummyContext(), 1); got != 1 {
		t.Errorf("RandomTarget(1) = %d, want 1", got)
	}
}

func TestParseGuess(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		invalid bool
	}{
		{"7", 7, false},
		{" 12 ", 12, false},
		{"007", 7, false},
		{"0", 0, false},
		{"99999999999999999999999", math.MaxInt, false},
		{"abc", 0, true},
		{"", 0, true},
		{"-3", 0, true},
		{"4.5", 0, true},
		{"1e3", 0, true},
		{"+4", 0, true},
	}
	for _, c := range cases {
		got, err := ParseGuess(c.in)
		if c.invalid {
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("ParseGuess(%q) err = %v, want ErrInvalidInput", c.in, err)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Errorf("ParseGuess(%q) = (%d, %v), want %d", c.in, got, err, c.want)
		}
	}
}

func fixedSession(d models.Difficulty, target int) *models.GameSession {
	rangeMax, maxAttempts := Policy(d)
	return &models.GameSession{
		PlayerName:  "Ann",
		Difficulty:  d,
		Target:      target,
		MaxAttempts: maxAttempts,
		RangeMax:    rangeMax,
	}
}

func TestGuessInvalidInputKeepsAttempts(t *testing.T) {
	gs := fixedSession(models.DifficultyEasy, 9)
	out, err := Guess(dummyContext(), gs, "abc")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if out.State != StateInProgress || out.Message != constants.MsgInvalidInput {
		t.Errorf("unexpected outcome %+v", out)
	}
	if gs.AttemptsUsed != 0 || gs.LastMessage != "invalid input" {
		t.Errorf("attempts = %d, message = %q", gs.AttemptsUsed, gs.LastMessage)
	}
}

func TestGuessTooLowTooHigh(t *testing.T) {
	gs := fixedSession(models.DifficultyMedium, 25)
	out, err := Guess(dummyContext(), gs, "10")
	if err != nil || out.Message != constants.MsgTooLow || out.State != StateInProgress {
		t.Fatalf("low guess: %+v, %v", out, err)
	}
	out, err = Guess(dummyContext(), gs, "40")
	if err != nil || out.Message != constants.MsgTooHigh {
		t.Fatalf("high guess: %+v, %v", out, err)
	}
	if gs.AttemptsUsed != 2 || out.AttemptsLeft != 5 {
		t.Errorf("attempts used %d, left %d", gs.AttemptsUsed, out.AttemptsLeft)
	}
	if out.Target != 0 {
		t.Error("target must not be revealed mid-round")
	}
}

func TestGuessTargetAlwaysWins(t *testing.T) {
	for _, d := range Difficulties() {
		_, maxAttempts := Policy(d)
		for used := 0; used < maxAttempts; used++ {
			gs := fixedSession(d, 3)
			gs.AttemptsUsed = used
			out, err := Guess(dummyContext(), gs, "3")
			if err != nil || out.State != StateWon {
				t.Fatalf("%s after %d attempts: %+v, %v", d, used, out, err)
			}
			if out.AttemptsUsed != used+1 || out.AttemptsUsed > maxAttempts {
				t.Fatalf("%s: attempts used %d", d, out.AttemptsUsed)
			}
			if out.Target != 3 {
				t.Errorf("won outcome should carry target, got %d", out.Target)
			}
		}
	}
}

func TestGuessExhaustionLoses(t *testing.T) {
	gs := fixedSession(models.DifficultyEasy, 20)
	var out Outcome
	var err error
	for i := 0; i < 5; i++ {
		out, err = Guess(dummyContext(), gs, "1")
		if err != nil {
			t.Fatalf("guess %d: %v", i+1, err)
		}
		if i < 4 && out.State != StateInProgress {
			t.Fatalf("guess %d ended round early: %+v", i+1, out)
		}
	}
	if out.State != StateLost || out.Target != 20 || !out.Terminal() {
		t.Fatalf("5th wrong guess should lose and reveal target, got %+v", out)
	}
	if _, err := Guess(dummyContext(), gs, "20"); !errors.Is(err, ErrNoRound) {
		t.Errorf("guess after loss err = %v, want ErrNoRound", err)
	}
}

func TestGuessHugeNumberIsTooHigh(t *testing.T) {
	gs := fixedSession(models.DifficultyHard, 50)
	out, err := Guess(dummyContext(), gs, "123456789012345678901234567890")
	if err != nil || out.Message != constants.MsgTooHigh || gs.AttemptsUsed != 1 {
		t.Errorf("huge guess: %+v, %v", out, err)
	}
}

func TestGuessNilSession(t *testing.T) {
	if _, err := Guess(dummyContext(), nil, "1"); !errors.Is(err, ErrNoRound) {
		t.Errorf("err = %v, want ErrNoRound", err)
	}
}

func TestValidate(t *testing.T) {
	good := fixedSession(models.DifficultyHard, 100)
	if !Validate(good) {
		t.Error("valid session rejected")
	}
	bad := []*models.GameSession{
		nil,
		{Difficulty: "x", Target: 1, RangeMax: 20, MaxAttempts: 5},
		{Difficulty: models.DifficultyEasy, Target: 0, RangeMax: 20, MaxAttempts: 5},
		{Difficulty: models.DifficultyEasy, Target: 21, RangeMax: 20, MaxAttempts: 5},
		{Difficulty: models.DifficultyEasy, Target: 5, RangeMax: 100, MaxAttempts: 5},
		{Difficulty: models.DifficultyEasy, Target: 5, RangeMax: 20, MaxAttempts: 5, AttemptsUsed: 5},
		{Difficulty: models.DifficultyEasy, Target: 5, RangeMax: 20, MaxAttempts: 5, AttemptsUsed: -1},
	}
	for i, gs := range bad {
		if Validate(gs) {
			t.Errorf("case %d: invalid session accepted: %+v", i, gs)
		}
	}
}
