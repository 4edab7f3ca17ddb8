// Package config loads the settings of a werewolf run from the environment,
// command-line flags and a game file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrInvalidConfig reports a setting that cannot be used.
var ErrInvalidConfig = errors.New("invalid config")

// RandomModel selects the offline agent instead of an LLM.
const RandomModel = "random"

// Config holds the application configuration.
type Config struct {
	GeminiAPIKey    string        `env:"GEMINI_API_KEY"`
	Model           string        `env:"WEREWOLF_MODEL" envDefault:"gemini-2.5-flash"`
	SaveDir         string        `env:"WEREWOLF_SAVE_DIR" envDefault:".saves"`
	Seed            int64         `env:"WEREWOLF_SEED" envDefault:"-1"`
	DecisionTimeout time.Duration `env:"WEREWOLF_DECISION_TIMEOUT" envDefault:"60s"`
	OutputLevel     string        `env:"WEREWOLF_OUTPUT_LEVEL" envDefault:"all"`
	GameFile        string        `env:"WEREWOLF_GAME_FILE"`

	OTelEndpoint string `env:"WEREWOLF_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"WEREWOLF_OTEL_ENABLED" envDefault:"true"`

	// Command-line only.
	Output     string
	Transcript string
	TUI        bool
}

// Load reads an optional .env file and then the environment. Variables
// already set win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// ParseConfig loads the environment and lets flags in args override it.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg, err := Load()
	if err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.GameFile, "game", cfg.GameFile, "YAML game file (players, roles, chat, prompts)")
	fs.StringVar(&cfg.Model, "model", cfg.Model, `Default model of the players ("random" plays offline)`)
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed (-1 picks one)")
	fs.DurationVar(&cfg.DecisionTimeout, "decision-timeout", cfg.DecisionTimeout, "Time limit of each player decision (0 for none)")
	fs.StringVar(&cfg.OutputLevel, "level", cfg.OutputLevel, "Messages to show: all, public, off or a player name")
	fs.StringVar(&cfg.SaveDir, "save-dir", cfg.SaveDir, "Directory of saved games")
	fs.StringVar(&cfg.Output, "output", "", "Write the final state to this file instead of the save directory")
	fs.StringVar(&cfg.Transcript, "transcript", "", "Append every message to this file")
	fs.BoolVar(&cfg.TUI, "tui", false, "Watch the game in the terminal UI")
	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings that do not depend on the game file.
func (c Config) Validate() error {
	switch {
	case c.Model == "":
		return fmt.Errorf("%w: model is empty", ErrInvalidConfig)
	case c.DecisionTimeout < 0:
		return fmt.Errorf("%w: negative decision timeout %s", ErrInvalidConfig, c.DecisionTimeout)
	case c.OutputLevel == "":
		return fmt.Errorf("%w: output level is empty", ErrInvalidConfig)
	}
	return nil
}

// Offline reports whether model runs without an API.
func Offline(model string) bool {
	return model == RandomModel
}
