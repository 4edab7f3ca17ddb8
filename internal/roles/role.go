// Package roles defines the sides, roles and players of a game.
package roles

import (
	"context"
	"errors"

	"github.com/tatianab/werewolf/internal/models"
)

var (
	ErrUnknownRole    = errors.New("unknown role")
	ErrInvalidRole    = errors.New("invalid role")
	ErrInvalidRoster  = errors.New("invalid roster")
	ErrDuplicateName  = errors.New("duplicate player name")
	ErrPlayerNotFound = errors.New("player not found")
)

// Side is a team with its own victory condition.
type Side string

const (
	VillagerSide Side = "VillagerSide"
	WerewolfSide Side = "WerewolfSide"
)

// SideInfo describes a side to the players.
type SideInfo struct {
	Side             Side
	VictoryCondition string
}

// DefaultSides returns the two standard sides.
func DefaultSides() []SideInfo {
	return []SideInfo{
		{Side: WerewolfSide, VictoryCondition: "The number of alive werewolves equal or outnumber half of the total number of players"},
		{Side: VillagerSide, VictoryCondition: "All werewolves are excluded from the game"},
	}
}

// Role keys of the standard roles.
const (
	KeyVillager      = "villager"
	KeyWerewolf      = "werewolf"
	KeyKnight        = "knight"
	KeyFortuneTeller = "fortuneteller"
)

// NightContext is what a player knows when acting at night.
type NightContext struct {
	Self     Player
	Players  []Player
	Messages []models.Identified[models.Message] // visible to Self, oldest first
	State    models.GameState                    // filtered for Self
}

// Role is the capability set every role must provide.
type Role interface {
	Key() string
	Side() Side
	// NightAction describes the role's ability to the players.
	NightAction() string
	// Question is asked when the role acts at night. Empty for roles
	// without a night action.
	Question() string
	// ActInNight returns the role's night update. It never fails: problems
	// are recorded as private messages.
	ActInNight(ctx context.Context, nc NightContext) models.Update
}
