package roles

import (
	"fmt"
	"slices"

	"github.com/tatianab/werewolf/internal/agent"
	"github.com/tatianab/werewolf/internal/models"
)

// Player is one participant of a game.
type Player struct {
	Name  string
	Role  Role
	Agent agent.Agent
}

// FindPlayer returns the player called name.
func FindPlayer(name string, players []Player) (Player, error) {
	for _, p := range players {
		if p.Name == name {
			return p, nil
		}
	}
	return Player{}, fmt.Errorf("%w: %q", ErrPlayerNotFound, name)
}

// IsWerewolf reports whether p plays for the werewolves.
func IsWerewolf(p Player) bool {
	return p.Role != nil && p.Role.Side() == WerewolfSide
}

// Werewolves returns the werewolf players in roster order.
func Werewolves(players []Player) []Player {
	var out []Player
	for _, p := range players {
		if IsWerewolf(p) {
			out = append(out, p)
		}
	}
	return out
}

// Names returns the names of players in order.
func Names(players []Player) []string {
	out := make([]string, 0, len(players))
	for _, p := range players {
		out = append(out, p.Name)
	}
	return out
}

// CheckVictory evaluates both victory conditions over the alive players.
func CheckVictory(alive []string, players []Player) models.Result {
	n, w := len(alive), 0
	for _, p := range players {
		if IsWerewolf(p) && slices.Contains(alive, p.Name) {
			w++
		}
	}
	switch {
	case w == 0:
		return models.VillagersWin
	case w >= n-w:
		return models.WerewolvesWin
	}
	return models.NoResult
}

// FilterState returns the part of s that p may see: only channels p
// belongs to, no protections, and night votes for werewolves only.
func FilterState(p Player, s models.GameState) models.GameState {
	f := s.Clone()
	f.ChatState = models.RelatedChannels(p.Name, f)
	f.SafeNames = models.NameSet{}
	if !IsWerewolf(p) {
		f.NightVotesHistory = nil
		f.NightVotesCurrent = models.Ballots{}
	}
	return f
}
