// Package scoreboard persists the best wins per difficulty.
//
// The board is a small document: one list of {name, attempts} per difficulty,
// kept ascending by attempts and capped at constants.ScoreboardCap entries.
// Ties keep insertion order, so an earlier win outranks a later one with the
// same attempt count.
package scoreboard

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	constants "github.com/CodeAndHammer/guessr/internal/constants"
	game "github.com/CodeAndHammer/guessr/internal/game"
	models "github.com/CodeAndHammer/guessr/internal/models"
)

var ErrCorrupt = errors.New("scoreboard document is corrupt")

// Empty returns {easy:[], medium:[], hard:[]}.
func Empty() models.Scoreboard {
	board := make(models.Scoreboard, 3)
	for _, d := range game.Difficulties() {
		board[d] = []models.ScoreEntry{}
	}
	return board
}

type rawEntry struct {
	Name     *string `json:"name"`
	Attempts *int    `json:"attempts"`
}

// Decode parses a persisted document. Anything that is not a JSON object is
// ErrCorrupt. Missing difficulties and lists that are not arrays come back
// empty, and malformed entries are dropped one by one.
func Decode(data []byte) (models.Scoreboard, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: top level is not an object", ErrCorrupt)
	}

	board := Empty()
	for _, d := range game.Difficulties() {
		msg, ok := raw[string(d)]
		if !ok {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(msg, &items); err != nil {
			continue
		}
		board[d] = rank(lo.FilterMap(items, func(item json.RawMessage, _ int) (models.ScoreEntry, bool) {
			return decodeEntry(item)
		}))
	}
	return board, nil
}

func decodeEntry(item json.RawMessage) (models.ScoreEntry, bool) {
	var e rawEntry
	if err := json.Unmarshal(item, &e); err != nil {
		return models.ScoreEntry{}, false
	}
	if e.Name == nil || strings.TrimSpace(*e.Name) == "" || e.Attempts == nil || *e.Attempts <= 0 {
		return models.ScoreEntry{}, false
	}
	return models.ScoreEntry{Name: *e.Name, Attempts: *e.Attempts}, true
}

// Encode renders the board as the persisted document.
func Encode(board models.Scoreboard) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Normalize(board)); err != nil {
		return nil, fmt.Errorf("encode scoreboard: %w", err)
	}
	return buf.Bytes(), nil
}

// Insert appends e to the d list, re-ranks it and truncates it to the cap.
func Insert(board models.Scoreboard, d models.Difficulty, e models.ScoreEntry) models.Scoreboard {
	if board == nil {
		board = Empty()
	}
	list := append(slices.Clone(board[d]), e)
	board[d] = rank(list)
	return board
}

// Normalize returns a copy of board holding exactly the known difficulties,
// each ranked and capped.
func Normalize(board models.Scoreboard) models.Scoreboard {
	out := Empty()
	for _, d := range game.Difficulties() {
		out[d] = rank(slices.Clone(board[d]))
	}
	return out
}

func rank(list []models.ScoreEntry) []models.ScoreEntry {
	if list == nil {
		return []models.ScoreEntry{}
	}
	slices.SortStableFunc(list, func(a, b models.ScoreEntry) int {
		return cmp.Compare(a.Attempts, b.Attempts)
	})
	if len(list) > constants.ScoreboardCap {
		list = list[:constants.ScoreboardCap]
	}
	return list
}

func validateRecord(d models.Difficulty, name string, attempts int) error {
	if !game.IsValidDifficulty(d) {
		return fmt.Errorf("unknown difficulty %q", d)
	}
	if strings.TrimSpace(name) == "" {
		return errors.New("player name is empty")
	}
	if attempts <= 0 {
		return fmt.Errorf("attempts must be positive, got %d", attempts)
	}
	return nil
}
