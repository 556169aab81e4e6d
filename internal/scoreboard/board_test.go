package scoreboard

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	models "github.com/CodeAndHammer/guessr/internal/models"
)

func TestEmpty(t *testing.T) {
	board := Empty()
	for _, d := range []models.Difficulty{models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard} {
		list, ok := board[d]
		if !ok || list == nil || len(list) != 0 {
			t.Errorf("Empty()[%s] = %v, %v", d, list, ok)
		}
	}
}

func TestDecodeCorrupt(t *testing.T) {
	cases := []string{``, `not json`, `[1,2,3]`, `null`, `"text"`}
	for _, c := range cases {
		if _, err := Decode([]byte(c)); !errors.Is(err, ErrCorrupt) {
			t.Errorf("Decode(%q) err = %v, want ErrCorrupt", c, err)
		}
	}
}

func TestDecodeFillsMissingKeysAndDropsBadEntries(t *testing.T) {
	doc := `{
		"hard": [
			{"name": "Ann", "attempts": 3},
			{"name": "", "attempts": 1},
			{"attempts": 2},
			{"name": "Zed"},
			{"name": "Neg", "attempts": -4},
			{"name": "Bo", "attempts": 1}
		],
		"legendary": [{"name": "X", "attempts": 1}]
	}`
	board, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(board[models.DifficultyEasy]) != 0 || len(board[models.DifficultyMedium]) != 0 {
		t.Errorf("missing keys should decode empty: %v", board)
	}
	hard := board[models.DifficultyHard]
	want := []models.ScoreEntry{{Name: "Bo", Attempts: 1}, {Name: "Ann", Attempts: 3}}
	if fmt.Sprint(hard) != fmt.Sprint(want) {
		t.Errorf("hard = %v, want %v", hard, want)
	}
	if _, ok := board["legendary"]; ok {
		t.Error("unknown difficulty should be ignored")
	}
}

func TestDecodeDropsMistypedEntriesOnly(t *testing.T) {
	doc := `{
		"easy": [{"name": "A", "attempts": 2}],
		"medium": 5,
		"hard": [
			{"name": "B", "attempts": "3"},
			{"name": "C", "attempts": 2.5},
			{"name": 5, "attempts": 1},
			"junk",
			{"name": "D", "attempts": 4}
		]
	}`
	board, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if fmt.Sprint(board[models.DifficultyEasy]) != fmt.Sprint([]models.ScoreEntry{{Name: "A", Attempts: 2}}) {
		t.Errorf("easy = %v", board[models.DifficultyEasy])
	}
	if list := board[models.DifficultyMedium]; list == nil || len(list) != 0 {
		t.Errorf("non-array list should reset to empty, got %v", list)
	}
	if fmt.Sprint(board[models.DifficultyHard]) != fmt.Sprint([]models.ScoreEntry{{Name: "D", Attempts: 4}}) {
		t.Errorf("hard = %v", board[models.DifficultyHard])
	}
}

func TestInsertOrdersAscending(t *testing.T) {
	board := Empty()
	board = Insert(board, models.DifficultyHard, models.ScoreEntry{Name: "Ann", Attempts: 3})
	board = Insert(board, models.DifficultyHard, models.ScoreEntry{Name: "Bo", Attempts: 1})
	want := []models.ScoreEntry{{Name: "Bo", Attempts: 1}, {Name: "Ann", Attempts: 3}}
	if fmt.Sprint(board[models.DifficultyHard]) != fmt.Sprint(want) {
		t.Errorf("hard = %v, want %v", board[models.DifficultyHard], want)
	}
}

func TestInsertTiesKeepInsertionOrder(t *testing.T) {
	board := Empty()
	for _, name := range []string{"first", "second", "third"} {
		board = Insert(board, models.DifficultyEasy, models.ScoreEntry{Name: name, Attempts: 2})
	}
	board = Insert(board, models.DifficultyEasy, models.ScoreEntry{Name: "best", Attempts: 1})
	got := board[models.DifficultyEasy]
	names := []string{got[0].Name, got[1].Name, got[2].Name, got[3].Name}
	if strings.Join(names, ",") != "best,first,second,third" {
		t.Errorf("order = %v", names)
	}
}

func TestInsertCapsAtFifty(t *testing.T) {
	board := Empty()
	for i := 60; i >= 1; i-- {
		board = Insert(board, models.DifficultyMedium, models.ScoreEntry{Name: fmt.Sprintf("p%d", i), Attempts: i})
		if n := len(board[models.DifficultyMedium]); n > 50 {
			t.Fatalf("list length %d exceeds cap", n)
		}
	}
	list := board[models.DifficultyMedium]
	if len(list) != 50 {
		t.Fatalf("len = %d, want 50", len(list))
	}
	if list[0].Attempts != 1 || list[49].Attempts != 50 {
		t.Errorf("kept range [%d, %d], want [1, 50]", list[0].Attempts, list[49].Attempts)
	}

	board = Insert(board, models.DifficultyMedium, models.ScoreEntry{Name: "late", Attempts: 99})
	if last := board[models.DifficultyMedium][49]; last.Name == "late" {
		t.Error("an entry worse than the whole full list must not be kept")
	}
}

func TestEncodeRoundTripKeepsNonASCII(t *testing.T) {
	board := Insert(Empty(), models.DifficultyEasy, models.ScoreEntry{Name: "小明 <b>", Attempts: 2})
	data, err := Encode(board)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "小明 <b>") {
		t.Errorf("name should be written verbatim, got %s", text)
	}
	for _, key := range []string{`"easy"`, `"medium"`, `"hard"`} {
		if !strings.Contains(text, key) {
			t.Errorf("encoded document missing %s", key)
		}
	}
	back, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if back[models.DifficultyEasy][0].Name != "小明 <b>" {
		t.Errorf("decoded name = %q", back[models.DifficultyEasy][0].Name)
	}
}

func TestValidateRecord(t *testing.T) {
	if err := validateRecord(models.DifficultyEasy, "Ann", 1); err != nil {
		t.Errorf("valid record rejected: %v", err)
	}
	if validateRecord("extreme", "Ann", 1) == nil {
		t.Error("unknown difficulty accepted")
	}
	if validateRecord(models.DifficultyEasy, " ", 1) == nil {
		t.Error("blank name accepted")
	}
	if validateRecord(models.DifficultyEasy, "Ann", 0) == nil {
		t.Error("zero attempts accepted")
	}
}
