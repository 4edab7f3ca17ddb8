package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"WEREWOLF_MODEL", "WEREWOLF_SEED", "WEREWOLF_DECISION_TIMEOUT", "WEREWOLF_OUTPUT_LEVEL", "WEREWOLF_SAVE_DIR"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	cfg, err := ParseConfig(flag.NewFlagSet("game", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Model != "gemini-2.5-flash" || cfg.Seed != -1 || cfg.DecisionTimeout != time.Minute || cfg.OutputLevel != "all" || cfg.SaveDir != ".saves" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestParseConfigFlagsOverrideEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("WEREWOLF_MODEL", "random")
	t.Setenv("WEREWOLF_SEED", "7")
	cfg, err := ParseConfig(flag.NewFlagSet("game", flag.ContinueOnError), []string{"-seed", "9", "-tui", "-level", "public"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Model != "random" {
		t.Errorf("expected env model, got %q", cfg.Model)
	}
	if cfg.Seed != 9 || !cfg.TUI || cfg.OutputLevel != "public" {
		t.Errorf("flags not applied: %+v", cfg)
	}
}

func TestParseConfigReadsDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")
	os.Unsetenv("GEMINI_API_KEY")
	if err := os.WriteFile(".env", []byte("GEMINI_API_KEY=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := ParseConfig(flag.NewFlagSet("game", flag.ContinueOnError), nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.GeminiAPIKey != "from-file" {
		t.Errorf("expected key from .env, got %q", cfg.GeminiAPIKey)
	}
	os.Unsetenv("GEMINI_API_KEY")
}

func TestParseConfigRejectsNegativeTimeout(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := ParseConfig(flag.NewFlagSet("game", flag.ContinueOnError), []string{"-decision-timeout", "-1s"})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadGame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")
	data := `players: 6
roles:
  werewolf: 2
  knight: 1
custom_players:
  - name: Alice
    role: fortuneteller
    model: random
chat:
  turns_per_day: 2
  day_speakers: random
tie_break: lexicographic
prompts:
  welcome: "Hello!"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	g, err := LoadGame(path)
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}
	if g.Players != 6 || g.Roles["werewolf"] != 2 || g.Roles["knight"] != 1 {
		t.Errorf("unexpected roster: %+v", g)
	}
	if len(g.CustomPlayers) != 1 || g.CustomPlayers[0] != (CustomPlayer{"Alice", "fortuneteller", "random"}) {
		t.Errorf("unexpected custom players: %+v", g.CustomPlayers)
	}
	if g.Chat.TurnsPerDay != 2 || g.Chat.DaySpeakers != "random" || g.Chat.NightSpeakers != "round_robin" {
		t.Errorf("unexpected chat: %+v", g.Chat)
	}
	if g.TieBreak != "lexicographic" || g.Prompts["welcome"] != "Hello!" {
		t.Errorf("unexpected options: %+v", g)
	}
}

func TestGameValidate(t *testing.T) {
	tests := []struct {
		name string
		game Game
	}{
		{"no players", Game{}},
		{"too many custom", Game{Players: 1, CustomPlayers: []CustomPlayer{{}, {}}}},
		{"negative count", Game{Players: 3, Roles: map[string]int{"werewolf": -1}}},
		{"negative turns", Game{Players: 3, Chat: Chat{TurnsPerDay: -1}}},
	}
	for _, tt := range tests {
		if err := tt.game.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", tt.name, err)
		}
	}
	if err := DefaultGame().Validate(); err != nil {
		t.Errorf("default game: %v", err)
	}
}
