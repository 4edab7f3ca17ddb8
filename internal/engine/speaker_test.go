package engine

import (
	"slices"
	"testing"
)

func TestRoundRobin(t *testing.T) {
	s := RoundRobin([]string{"A", "B", "C"})
	var got []string
	for range 7 {
		got = append(got, s.Next())
	}
	if want := []string{"A", "B", "C", "A", "B", "C", "A"}; !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got := RoundRobin(nil).Next(); got != "" {
		t.Errorf("empty generator returned %q", got)
	}
}

func TestShuffledCoversEveryNamePerCycle(t *testing.T) {
	names := []string{"A", "B", "C", "D"}
	s := Shuffled(7)(names)
	for cycle := range 3 {
		var got []string
		for range names {
			got = append(got, s.Next())
		}
		slices.Sort(got)
		if !slices.Equal(got, names) {
			t.Errorf("cycle %d: expected a permutation of %v, got %v", cycle, names, got)
		}
	}

	a, b := Shuffled(3)(names), Shuffled(3)(names)
	for range 8 {
		if x, y := a.Next(), b.Next(); x != y {
			t.Fatalf("same seed diverged: %s vs %s", x, y)
		}
	}
}

func TestParseSpeakerOrder(t *testing.T) {
	for _, name := range []string{"", "round_robin", "random", "shuffled"} {
		if _, ok := ParseSpeakerOrder(name, 1); !ok {
			t.Errorf("%q not accepted", name)
		}
	}
	if _, ok := ParseSpeakerOrder("alphabetical", 1); ok {
		t.Errorf("unknown order accepted")
	}
}
