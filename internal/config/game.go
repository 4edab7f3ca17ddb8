package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Game is the YAML description of one game.
type Game struct {
	Players           int               `yaml:"players"`
	Roles             map[string]int    `yaml:"roles"`
	CustomPlayers     []CustomPlayer    `yaml:"custom_players"`
	Chat              Chat              `yaml:"chat"`
	TieBreak          string            `yaml:"tie_break"`
	KnightSelfProtect bool              `yaml:"knight_self_protect"`
	Prompts           map[string]string `yaml:"prompts"`
}

// CustomPlayer pins one seat. Empty fields are generated; an empty model
// uses Config.Model.
type CustomPlayer struct {
	Name  string `yaml:"name"`
	Role  string `yaml:"role"`
	Model string `yaml:"model"`
}

type Chat struct {
	TurnsPerDay   int    `yaml:"turns_per_day"`
	DaySpeakers   string `yaml:"day_speakers"`
	NightSpeakers string `yaml:"night_speakers"`
}

// DefaultGame is four players with one werewolf.
func DefaultGame() Game {
	return Game{
		Players: 4,
		Roles:   map[string]int{"werewolf": 1},
		Chat:    Chat{TurnsPerDay: 1, DaySpeakers: "round_robin", NightSpeakers: "round_robin"},
	}
}

// LoadGame reads a game file. Missing fields keep the defaults.
func LoadGame(path string) (Game, error) {
	g := DefaultGame()
	if path == "" {
		return g, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Game{}, err
	}
	if err := yaml.Unmarshal(data, &g); err != nil {
		return Game{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := g.Validate(); err != nil {
		return Game{}, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Validate checks the shape of the game. Role keys and names are checked
// when the roster is built.
func (g Game) Validate() error {
	if g.Players <= 0 {
		return fmt.Errorf("%w: players must be positive, got %d", ErrInvalidConfig, g.Players)
	}
	if len(g.CustomPlayers) > g.Players {
		return fmt.Errorf("%w: %d custom players for %d seats", ErrInvalidConfig, len(g.CustomPlayers), g.Players)
	}
	for key, n := range g.Roles {
		if n < 0 {
			return fmt.Errorf("%w: negative count %d for %s", ErrInvalidConfig, n, key)
		}
	}
	if g.Chat.TurnsPerDay < 0 {
		return fmt.Errorf("%w: negative turns_per_day %d", ErrInvalidConfig, g.Chat.TurnsPerDay)
	}
	return nil
}
