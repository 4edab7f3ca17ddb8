// Package app builds a game from configuration and saves its outcome.
package app

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"

	"github.com/tatianab/werewolf/internal/agent"
	"github.com/tatianab/werewolf/internal/config"
	"github.com/tatianab/werewolf/internal/engine"
	"github.com/tatianab/werewolf/internal/models"
	"github.com/tatianab/werewolf/internal/roles"
	"github.com/tatianab/werewolf/internal/vote"
)

// Session is a game ready to run.
type Session struct {
	Engine  *engine.Engine
	Players []roles.Player
	Seed    uint64

	mu     sync.Mutex
	echo   func(models.GameState)
	client *genai.Client
}

// Setup builds the roster and the engine. Agents use cfg.Model unless a
// custom player pins another model. A negative cfg.Seed picks a random seed.
func Setup(ctx context.Context, cfg config.Config, game config.Game, logger *log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.Default()
	}
	if err := game.Validate(); err != nil {
		return nil, err
	}
	seed := uint64(cfg.Seed)
	if cfg.Seed < 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	s := &Session{Seed: seed}

	reg, err := roles.NewRegistry(roles.DefaultSides(), roles.DefaultRoles(game.KnightSelfProtect))
	if err != nil {
		return nil, err
	}

	newAgent := func(name, model string) (agent.Agent, error) {
		if model == "" {
			model = cfg.Model
		}
		if config.Offline(model) {
			return agent.NewRandom(rng.Uint64()), nil
		}
		if s.client == nil {
			client, err := agent.NewGeminiClient(ctx, cfg.GeminiAPIKey)
			if err != nil {
				return nil, err
			}
			s.client = client
		}
		return agent.NewGemini(s.client, model), nil
	}

	spec := roles.RosterSpec{Players: game.Players, Counts: game.Roles}
	for _, c := range game.CustomPlayers {
		spec.Custom = append(spec.Custom, roles.CustomPlayer{Name: c.Name, Role: c.Role, Model: c.Model})
	}
	players, err := roles.BuildRoster(reg, spec, newAgent, rng)
	if err != nil {
		s.Close()
		return nil, err
	}

	tieBreak, err := vote.ParseTieBreaker(game.TieBreak, rng.Uint64())
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	daySpeakers, ok := engine.ParseSpeakerOrder(game.Chat.DaySpeakers, rng.Uint64())
	if !ok {
		s.Close()
		return nil, fmt.Errorf("%w: unknown day_speakers %q", config.ErrInvalidConfig, game.Chat.DaySpeakers)
	}
	nightSpeakers, ok := engine.ParseSpeakerOrder(game.Chat.NightSpeakers, rng.Uint64())
	if !ok {
		s.Close()
		return nil, fmt.Errorf("%w: unknown night_speakers %q", config.ErrInvalidConfig, game.Chat.NightSpeakers)
	}

	eng, err := engine.New(reg, players, engine.Options{
		TurnsPerDay:     game.Chat.TurnsPerDay,
		DaySpeakers:     daySpeakers,
		NightSpeakers:   nightSpeakers,
		TieBreak:        tieBreak,
		DecisionTimeout: cfg.DecisionTimeout,
		Prompts:         game.Prompts,
		Echo:            s.forward,
		Logger:          logger,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Engine = eng
	s.Players = players
	logger.Printf("seed %d, %d players: %v", seed, len(players), roles.RoleCounts(reg, players))
	return s, nil
}

// Names returns the player names in seat order.
func (s *Session) Names() []string {
	return roles.Names(s.Players)
}

// Run plays the game, calling echo after every step.
func (s *Session) Run(ctx context.Context, echo func(models.GameState)) (models.GameState, error) {
	s.mu.Lock()
	s.echo = echo
	s.mu.Unlock()
	return s.Engine.Run(ctx)
}

func (s *Session) forward(state models.GameState) {
	s.mu.Lock()
	echo := s.echo
	s.mu.Unlock()
	if echo != nil {
		echo(state)
	}
}

// Close releases the LLM client, if any.
func (s *Session) Close() error {
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

// Save writes the final state to cfg.Output, or to a new directory under
// cfg.SaveDir named after the current time. It returns the path written.
func Save(cfg config.Config, state models.GameState) (string, error) {
	if cfg.Output != "" {
		return cfg.Output, models.SaveState(cfg.Output, state)
	}
	dir := cfg.SaveDir
	if dir == "" {
		dir = models.DefaultSaveDir
	}
	return models.SaveGame(dir, time.Now().Format("20060102-150405.000"), state)
}
