package roles

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/tatianab/werewolf/internal/agent"
	"github.com/tatianab/werewolf/internal/models"
)

// NamePrefix is used for generated player names.
const NamePrefix = "Player"

// CustomPlayer pins the name, role or model of one seat. Empty fields are
// generated.
type CustomPlayer struct {
	Name  string
	Role  string
	Model string
}

// RosterSpec describes the players of a game. Counts maps role keys to the
// number of players with that role; villagers fill the remaining seats.
type RosterSpec struct {
	Players int
	Counts  map[string]int
	Custom  []CustomPlayer
}

// AgentFactory creates the agent of a player. model is empty unless the
// seat pins one.
type AgentFactory func(name, model string) (agent.Agent, error)

// BuildRoster creates players for spec. Custom seats come first; generated
// roles are shuffled with rng.
func BuildRoster(reg *Registry, spec RosterSpec, newAgent AgentFactory, rng *rand.Rand) ([]Player, error) {
	if spec.Players <= 0 {
		return nil, fmt.Errorf("%w: need at least one player, got %d", ErrInvalidRoster, spec.Players)
	}
	if len(spec.Custom) > spec.Players {
		return nil, fmt.Errorf("%w: the number of players (%d) is less than the number of custom players (%d)", ErrInvalidRoster, spec.Players, len(spec.Custom))
	}

	counts := map[string]int{}
	total := 0
	for key, n := range spec.Counts {
		role, err := reg.Lookup(key)
		if err != nil {
			return nil, err
		}
		if n < 0 || n > spec.Players {
			return nil, fmt.Errorf("%w: the number of players (%d) does not allow %d %s", ErrInvalidRoster, spec.Players, n, role.Key())
		}
		if role.Key() == KeyVillager {
			continue
		}
		counts[role.Key()] = n
		total += n
	}
	villagers := spec.Players - total
	if villagers < 0 {
		return nil, fmt.Errorf("%w: %d special roles do not fit in %d players", ErrInvalidRoster, total, spec.Players)
	}
	if n, ok := spec.Counts[KeyVillager]; ok && n != villagers {
		return nil, fmt.Errorf("%w: %d villagers requested but %d seats remain", ErrInvalidRoster, n, villagers)
	}
	counts[KeyVillager] = villagers

	taken := map[string]bool{models.GameMasterName: true}
	customRoles := map[string]int{}
	for _, c := range spec.Custom {
		if c.Name != "" {
			if err := validName(c.Name); err != nil {
				return nil, err
			}
			if taken[c.Name] {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateName, c.Name)
			}
			taken[c.Name] = true
		}
		if c.Role != "" {
			role, err := reg.Lookup(c.Role)
			if err != nil {
				return nil, err
			}
			customRoles[role.Key()]++
		}
	}
	for key, n := range customRoles {
		if n > counts[key] {
			return nil, fmt.Errorf("%w: the number of %s (%d) is less than the number of custom %s (%d)", ErrInvalidRoster, key, counts[key], key, n)
		}
	}

	var generated []string
	for _, key := range reg.Keys() {
		for i := 0; i < counts[key]-customRoles[key]; i++ {
			generated = append(generated, key)
		}
	}
	rng.Shuffle(len(generated), func(i, j int) { generated[i], generated[j] = generated[j], generated[i] })

	seats := make([]CustomPlayer, spec.Players)
	copy(seats, spec.Custom)
	players := make([]Player, 0, spec.Players)
	next := 0
	for _, seat := range seats {
		name := seat.Name
		for name == "" {
			candidate := NamePrefix + strconv.Itoa(next)
			next++
			if !taken[candidate] {
				name = candidate
				taken[name] = true
			}
		}
		key := seat.Role
		if key == "" {
			key, generated = generated[0], generated[1:]
		}
		role, err := reg.Lookup(key)
		if err != nil {
			return nil, err
		}
		a, err := newAgent(name, seat.Model)
		if err != nil {
			return nil, fmt.Errorf("agent for %s: %w", name, err)
		}
		players = append(players, Player{Name: name, Role: role, Agent: a})
	}
	return players, nil
}

func validName(name string) error {
	if strings.TrimSpace(name) != name || strings.ContainsAny(name, "|\n") {
		return fmt.Errorf("%w: player name %q", ErrInvalidRoster, name)
	}
	return nil
}

// RoleCounts tallies the roster by role key, in registry order.
func RoleCounts(reg *Registry, players []Player) []RoleCount {
	n := map[string]int{}
	for _, p := range players {
		n[p.Role.Key()]++
	}
	var out []RoleCount
	for _, key := range reg.Keys() {
		if n[key] > 0 {
			out = append(out, RoleCount{Key: key, Count: n[key]})
		}
	}
	return out
}

// RoleCount is one entry of RoleCounts.
type RoleCount struct {
	Key   string
	Count int
}
