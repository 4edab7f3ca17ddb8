package models

import (
	"errors"
	"fmt"
)

// ErrInvalidState reports a state that violates a structural invariant.
var ErrInvalidState = errors.New("invalid game state")

// ValidateState checks that every completed vote round has exactly one
// elimination result.
func ValidateState(s GameState) error {
	if a, b := len(s.DayVoteResultHistory), len(s.DayVotesHistory); a != b {
		return fmt.Errorf("%w: day vote results (%d) do not match day vote rounds (%d)", ErrInvalidState, a, b)
	}
	if a, b := len(s.NightVoteResultHistory), len(s.NightVotesHistory); a != b {
		return fmt.Errorf("%w: night vote results (%d) do not match night vote rounds (%d)", ErrInvalidState, a, b)
	}
	return nil
}
