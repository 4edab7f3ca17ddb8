// Package vote tallies ballots and resolves eliminations.
package vote

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/tatianab/werewolf/internal/models"
)

// ErrNoRound is returned when the current phase has no completed vote round.
var ErrNoRound = errors.New("no completed vote round")

// TieBreaker picks one name among plurality-tied candidates. Candidates are
// never empty and are given in alive order.
type TieBreaker func(candidates []string) string

// FirstCandidate picks the candidate listed first in alive order.
func FirstCandidate(candidates []string) string {
	return candidates[0]
}

// Lexicographic picks the smallest name.
func Lexicographic(candidates []string) string {
	return slices.Min(candidates)
}

// Seeded picks a pseudo-random candidate. Two breakers built with the same
// seed make the same choices for the same inputs.
func Seeded(seed uint64) TieBreaker {
	var mu sync.Mutex
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return func(candidates []string) string {
		sorted := slices.Clone(candidates)
		slices.Sort(sorted)
		mu.Lock()
		defer mu.Unlock()
		return sorted[rng.IntN(len(sorted))]
	}
}

// ParseTieBreaker resolves a policy name: "first", "lexicographic" or "seeded".
func ParseTieBreaker(name string, seed uint64) (TieBreaker, error) {
	switch name {
	case "", "first":
		return FirstCandidate, nil
	case "lexicographic":
		return Lexicographic, nil
	case "seeded", "random":
		return Seeded(seed), nil
	}
	return nil, fmt.Errorf("unknown tie-break policy %q", name)
}

// Tally is the count of one round's valid ballots.
type Tally struct {
	Valid      models.Ballots
	Counts     map[string]int
	Max        int
	Candidates []string // tied at Max, alive order
}

// Count filters ballots to those cast by an alive voter for an alive,
// unprotected target, and counts them.
func Count(ballots models.Ballots, alive []string, safe models.NameSet) Tally {
	t := Tally{Valid: models.Ballots{}, Counts: map[string]int{}}
	for voter, target := range ballots {
		if !slices.Contains(alive, voter) || !slices.Contains(alive, target) || safe.Has(target) {
			continue
		}
		t.Valid[voter] = target
		t.Counts[target]++
	}
	for _, n := range t.Counts {
		t.Max = max(t.Max, n)
	}
	for _, name := range alive {
		if t.Max > 0 && t.Counts[name] == t.Max {
			t.Candidates = append(t.Candidates, name)
		}
	}
	return t
}

// Outcome describes a resolved round.
type Outcome struct {
	TimeSpan   models.TimeSpan
	Eliminated string // empty when nobody was eliminated
	Ballots    models.Ballots
	Tally      Tally
}

// Eliminate resolves the latest completed round of the current phase. The
// returned update appends the result and, when someone is eliminated, removes
// them from the alive roster.
func Eliminate(s models.GameState, tieBreak TieBreaker) (models.Update, Outcome, error) {
	rounds := s.VotesHistory()
	if len(rounds) == 0 {
		return models.Update{}, Outcome{}, fmt.Errorf("%w for %s", ErrNoRound, s.TimeSpan)
	}
	if tieBreak == nil {
		tieBreak = FirstCandidate
	}
	ballots := rounds[len(rounds)-1].Value
	out := Outcome{TimeSpan: s.TimeSpan, Ballots: ballots, Tally: Count(ballots, s.AliveNames, s.SafeNames)}

	switch len(out.Tally.Candidates) {
	case 0:
		return models.AppendVoteResult(s.TimeSpan, ""), out, nil
	case 1:
		out.Eliminated = out.Tally.Candidates[0]
	default:
		out.Eliminated = tieBreak(slices.Clone(out.Tally.Candidates))
		if !slices.Contains(out.Tally.Candidates, out.Eliminated) {
			return models.Update{}, Outcome{}, fmt.Errorf("tie-break chose %q outside candidates %v", out.Eliminated, out.Tally.Candidates)
		}
	}

	alive := slices.DeleteFunc(slices.Clone(s.AliveNames), func(n string) bool { return n == out.Eliminated })
	u := models.AppendVoteResult(s.TimeSpan, out.Eliminated).Then(models.SetAlive(alive))
	return u, out, nil
}
