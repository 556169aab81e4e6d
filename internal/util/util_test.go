package util

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	constants "github.com/CodeAndHammer/guessr/internal/constants"
)

func TestDirExists(t *testing.T) {
	dir := t.TempDir()
	if !DirExists(dir) {
		t.Errorf("Expected DirExists to return true for existing dir")
	}
	if DirExists(dir + "-notfound") {
		t.Errorf("Expected DirExists to return false for non-existent dir")
	}
}

func TestEnsureParentDir(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "a", "b", "leaderboard.json")
	if err := EnsureParentDir(target); err != nil {
		t.Fatalf("EnsureParentDir: %v", err)
	}
	if !DirExists(filepath.Join(base, "a", "b")) {
		t.Error("parent directory was not created")
	}
	if err := EnsureParentDir("leaderboard.json"); err != nil {
		t.Errorf("bare file name should need no directory, got %v", err)
	}
}

func TestFormatUptime(t *testing.T) {
	cases := []struct {
		dur      time.Duration
		expected string
	}{
		{time.Second * 5, "5 seconds"},
		{time.Second * 65, "1 minute, 5 seconds"},
		{time.Second * 3665, "1 hour, 1 minute, 5 seconds"},
		{time.Second * 3600, "1 hour, 0 minutes, 0 seconds"},
		{time.Second * 60, "1 minute, 0 seconds"},
		{time.Second * 1, "1 second"},
	}
	for _, c := range cases {
		got := FormatUptime(c.dur)
		if got != c.expected {
			t.Errorf("FormatUptime(%v) = %q, want %q", c.dur, got, c.expected)
		}
	}
}

func TestPlural(t *testing.T) {
	if plural(1) != "" {
		t.Errorf("plural(1) = %q, want \"\"", plural(1))
	}
	if plural(2) != "s" {
		t.Errorf("plural(2) = %q, want \"s\"", plural(2))
	}
	if plural(0) != "s" {
		t.Errorf("plural(0) = %q, want \"s\"", plural(0))
	}
}

func TestCtxCarriesRequestID(t *testing.T) {
	if Ctx(context.Background()) == nil {
		t.Fatal("Ctx returned nil logger")
	}
	ctx := context.WithValue(context.Background(), constants.RequestIDKey, "req-1")
	if Ctx(ctx) == nil {
		t.Fatal("Ctx returned nil logger for request context")
	}
}
