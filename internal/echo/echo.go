// Package echo shows the messages of a running game to an audience.
package echo

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/tatianab/werewolf/internal/models"
)

// ErrInvalidLevel reports an output level that is neither built in nor a player.
var ErrInvalidLevel = errors.New("invalid output level")

// Level selects whose view of the game is shown.
type Level string

const (
	// LevelAll shows every channel.
	LevelAll Level = "all"
	// LevelPublic shows the channel shared by every player.
	LevelPublic Level = "public"
	// LevelOff shows nothing.
	LevelOff Level = "off"
)

// ParseLevel accepts a built-in level or the name of one of players.
func ParseLevel(s string, players []string) (Level, error) {
	switch l := Level(s); l {
	case LevelAll, LevelPublic, LevelOff:
		return l, nil
	case "":
		return LevelAll, nil
	}
	if slices.Contains(players, s) {
		return Level(s), nil
	}
	return "", fmt.Errorf("%w: %q (use all, public, off or one of %v)", ErrInvalidLevel, s, players)
}

// Observer picks the messages of a level that it has not returned before.
// Each observer has its own memory, so several sinks can watch one game.
type Observer struct {
	mu      sync.Mutex
	level   Level
	players []string
	seen    map[string]struct{}
}

// NewObserver watches the game of players at level.
func NewObserver(level Level, players []string) *Observer {
	return &Observer{level: level, players: slices.Clone(players), seen: map[string]struct{}{}}
}

// Level returns the level being watched.
func (o *Observer) Level() Level {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.level
}

// SetLevel switches the audience. Messages seen under the old level are not repeated.
func (o *Observer) SetLevel(level Level) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.level = level
}

// Fresh returns the unseen messages visible at the level, oldest first,
// and marks them as seen.
func (o *Observer) Fresh(s models.GameState) []models.Identified[models.Message] {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []models.Identified[models.Message]
	for _, m := range o.visible(s) {
		if _, ok := o.seen[m.ID]; ok {
			continue
		}
		o.seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

// All returns every message visible at the level without marking anything.
func (o *Observer) All(s models.GameState) []models.Identified[models.Message] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visible(s)
}

func (o *Observer) visible(s models.GameState) []models.Identified[models.Message] {
	switch o.level {
	case LevelOff:
		return nil
	case LevelAll:
		return models.RelatedMessages(models.GameMasterName, s)
	case LevelPublic:
		return models.ChannelMessages(append([]string{models.GameMasterName}, o.players...), s)
	}
	return models.RelatedMessages(string(o.level), s)
}

// Multi calls every sink in order.
func Multi(sinks ...func(models.GameState)) func(models.GameState) {
	return func(s models.GameState) {
		for _, sink := range sinks {
			if sink != nil {
				sink(s)
			}
		}
	}
}
