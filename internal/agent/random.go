package agent

import (
	"context"
	"math/rand/v2"
	"sync"
)

var randomLines = []string{
	"I have been watching everyone closely. Something feels off.",
	"I am just a villager trying to survive. Let's think carefully.",
	"Whoever stayed quiet yesterday worries me.",
	"We should not rush. A wrong vote helps the werewolves.",
	"I trust my instincts on this one.",
	"Let's hear from everyone before we decide.",
}

// Random is an offline agent that answers with canned lines and picks
// targets at random. It needs no API key.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom returns a Random agent seeded with seed.
func NewRandom(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(seed, seed+1))}
}

func (r *Random) Speak(ctx context.Context, p Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return randomLines[r.rng.IntN(len(randomLines))], nil
}

// ExtractName keeps a name the text mentions, otherwise picks one of valid.
func (r *Random) ExtractName(ctx context.Context, text string, valid []string, hint string) (string, error) {
	if name, ok := MatchName(text, valid); ok {
		return name, nil
	}
	if len(valid) == 0 {
		return "", ErrNoValidName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return valid[r.rng.IntN(len(valid))], nil
}
