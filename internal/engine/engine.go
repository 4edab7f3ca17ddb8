// Package engine runs a werewolf game from preparation to its result.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tatianab/werewolf/internal/models"
	"github.com/tatianab/werewolf/internal/roles"
	"github.com/tatianab/werewolf/internal/vote"
)

// ErrInvalidGame reports a roster or option the engine cannot run with.
var ErrInvalidGame = errors.New("invalid game")

const tracerName = "github.com/tatianab/werewolf/internal/engine"

// Echo receives the state after every step. It may be called with states
// whose messages it has already seen.
type Echo func(models.GameState)

// Options tune a game. The zero value is usable.
type Options struct {
	// TurnsPerDay is the number of utterances per alive participant in a
	// chat round. Defaults to 1.
	TurnsPerDay int
	// DaySpeakers and NightSpeakers order the chat rounds. Default RoundRobin.
	DaySpeakers   SpeakerOrder
	NightSpeakers SpeakerOrder
	// TieBreak picks among plurality-tied candidates. Default vote.FirstCandidate.
	TieBreak vote.TieBreaker
	// DecisionTimeout bounds each call to an agent. Zero means no bound.
	DecisionTimeout time.Duration
	// Parallelism caps concurrent decisions in a vote or night round. Zero
	// means one goroutine per participant.
	Parallelism int
	// Prompts overrides prompt templates by name.
	Prompts map[string]string
	Echo    Echo
	Logger  *log.Logger
}

// Engine owns the state of one game.
type Engine struct {
	registry   *roles.Registry
	players    []roles.Player
	werewolves []roles.Player
	opts       Options
	prompts    *Prompts
	log        *log.Logger
	tracer     trace.Tracer

	daySpeakers   Speakers
	nightSpeakers Speakers

	state models.GameState
}

// New checks the roster and options and returns an engine ready to Run.
func New(reg *roles.Registry, players []roles.Player, opts Options) (*Engine, error) {
	if reg == nil {
		return nil, fmt.Errorf("%w: nil registry", ErrInvalidGame)
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("%w: no players", ErrInvalidGame)
	}
	seen := map[string]bool{models.GameMasterName: true}
	for _, p := range players {
		switch {
		case p.Name == "":
			return nil, fmt.Errorf("%w: player without a name", ErrInvalidGame)
		case seen[p.Name]:
			return nil, fmt.Errorf("%w: %w: %q", ErrInvalidGame, roles.ErrDuplicateName, p.Name)
		case p.Role == nil || p.Agent == nil:
			return nil, fmt.Errorf("%w: %s needs a role and an agent", ErrInvalidGame, p.Name)
		}
		if strings.ContainsRune(p.Name, '|') {
			return nil, fmt.Errorf("%w: player name %q contains '|'", ErrInvalidGame, p.Name)
		}
		if _, err := reg.Lookup(p.Role.Key()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidGame, p.Name, err)
		}
		seen[p.Name] = true
	}
	if opts.TurnsPerDay <= 0 {
		opts.TurnsPerDay = 1
	}
	if opts.DaySpeakers == nil {
		opts.DaySpeakers = RoundRobin
	}
	if opts.NightSpeakers == nil {
		opts.NightSpeakers = RoundRobin
	}
	if opts.TieBreak == nil {
		opts.TieBreak = vote.FirstCandidate
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	prompts, err := LoadPrompts(opts.Prompts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGame, err)
	}

	werewolves := roles.Werewolves(players)
	return &Engine{
		registry:      reg,
		players:       players,
		werewolves:    werewolves,
		opts:          opts,
		prompts:       prompts,
		log:           logger,
		tracer:        otel.Tracer(tracerName),
		daySpeakers:   opts.DaySpeakers(roles.Names(players)),
		nightSpeakers: opts.NightSpeakers(roles.Names(werewolves)),
		state:         models.NewGameState(roles.Names(players)),
	}, nil
}

// State returns the current state.
func (e *Engine) State() models.GameState {
	return e.state
}

// Players returns the roster.
func (e *Engine) Players() []roles.Player {
	return e.players
}

// Run plays the game to its end and returns the final state. On error the
// last valid state is returned with it.
func (e *Engine) Run(ctx context.Context) (models.GameState, error) {
	ctx, span := e.tracer.Start(ctx, "game.run", trace.WithAttributes(
		attribute.Int("game.players", len(e.players)),
		attribute.Int("game.werewolves", len(e.werewolves)),
	))
	defer span.End()

	err := e.run(ctx)
	span.SetAttributes(
		attribute.Int("game.days", e.state.Day),
		attribute.String("game.result", e.state.Result.Label()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return e.state, err
}

func (e *Engine) run(ctx context.Context) error {
	if err := e.prepare(ctx); err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.checkVictory() {
			return nil
		}
		e.apply(models.SetDay(e.state.Day + 1))
		if e.state.Day >= len(e.players) {
			e.log.Printf("day %d reached the limit of %d players; stopping without a result", e.state.Day, len(e.players))
			return nil
		}
		if err := e.runDay(ctx); err != nil {
			return err
		}
		if e.checkVictory() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.runNight(ctx); err != nil {
			return err
		}
	}
}

func (e *Engine) runDay(ctx context.Context) (err error) {
	ctx, span := e.phaseSpan(ctx, "game.day")
	defer func() { endSpan(span, err) }()

	e.log.Printf("day %d begins", e.state.Day)
	e.apply(models.SetTimeSpan(models.Day).Then(models.Reset()))
	if err := models.ValidateState(e.state); err != nil {
		return err
	}
	intro, err := e.prompts.render(PromptDayChat, phaseData{e.state.Day, e.state.AliveNames})
	if err != nil {
		return err
	}
	e.chatRound(ctx, e.players, e.daySpeakers, intro)
	if err := e.voteRound(ctx, models.Day, e.players); err != nil {
		return err
	}
	return e.eliminate(ctx)
}

func (e *Engine) runNight(ctx context.Context) (err error) {
	ctx, span := e.phaseSpan(ctx, "game.night")
	defer func() { endSpan(span, err) }()

	e.log.Printf("night %d begins", e.state.Day)
	e.apply(models.SetTimeSpan(models.Night).Then(models.Reset()))
	if err := models.ValidateState(e.state); err != nil {
		return err
	}
	if err := e.nightActions(ctx); err != nil {
		return err
	}
	intro, err := e.prompts.render(PromptNightChat, phaseData{e.state.Day, e.state.AliveNames})
	if err != nil {
		return err
	}
	e.chatRound(ctx, e.werewolves, e.nightSpeakers, intro)
	if err := e.voteRound(ctx, models.Night, e.werewolves); err != nil {
		return err
	}
	return e.eliminate(ctx)
}

// apply merges u into the state and echoes the result.
func (e *Engine) apply(u models.Update) {
	if u.Result != nil && e.state.Result != models.NoResult {
		u.Result = nil
	}
	e.state = models.Merge(e.state, u)
	if e.opts.Echo != nil {
		e.opts.Echo(e.state)
	}
}

// announce records a game master message to everyone.
func (e *Engine) announce(body string) {
	e.apply(models.RecordChat(models.GameMasterName, roles.Names(e.players), body))
}

func (e *Engine) decisionContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.opts.DecisionTimeout > 0 {
		return context.WithTimeout(ctx, e.opts.DecisionTimeout)
	}
	return context.WithCancel(ctx)
}

func (e *Engine) phaseSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int("game.day", e.state.Day),
		attribute.Int("game.alive", len(e.state.AliveNames)),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
