package engine

import (
	"math/rand/v2"
	"slices"
)

// Speakers yields chat speakers forever. A generator keeps its position
// between chat rounds.
type Speakers interface {
	Next() string
}

// SpeakerOrder builds a generator over a fixed list of names.
type SpeakerOrder func(names []string) Speakers

type roundRobin struct {
	names []string
	i     int
}

// RoundRobin cycles through names in order.
func RoundRobin(names []string) Speakers {
	return &roundRobin{names: slices.Clone(names)}
}

func (r *roundRobin) Next() string {
	if len(r.names) == 0 {
		return ""
	}
	n := r.names[r.i%len(r.names)]
	r.i++
	return n
}

type shuffled struct {
	names []string
	rng   *rand.Rand
	queue []string
}

// Shuffled yields every name once per cycle, in a fresh random order each cycle.
func Shuffled(seed uint64) SpeakerOrder {
	return func(names []string) Speakers {
		return &shuffled{names: slices.Clone(names), rng: rand.New(rand.NewPCG(seed, uint64(len(names))))}
	}
}

func (s *shuffled) Next() string {
	if len(s.names) == 0 {
		return ""
	}
	if len(s.queue) == 0 {
		s.queue = slices.Clone(s.names)
		s.rng.Shuffle(len(s.queue), func(i, j int) { s.queue[i], s.queue[j] = s.queue[j], s.queue[i] })
	}
	n := s.queue[0]
	s.queue = s.queue[1:]
	return n
}

// ParseSpeakerOrder resolves "round_robin" or "random".
func ParseSpeakerOrder(name string, seed uint64) (SpeakerOrder, bool) {
	switch name {
	case "", "round_robin":
		return RoundRobin, true
	case "random", "shuffled":
		return Shuffled(seed), true
	}
	return nil, false
}
