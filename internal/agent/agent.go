// Package agent provides the participants' decision makers.
package agent

import (
	"context"
	"errors"
	"regexp"
	"slices"
	"sync"
)

// ErrNoValidName is returned when no valid name can be extracted from a reply.
var ErrNoValidName = errors.New("no valid name in reply")

// Kind tells an agent which decision it is asked for.
type Kind string

const (
	KindChat        Kind = "chat"
	KindVote        Kind = "vote"
	KindNightAction Kind = "night_action"
)

// Prompt is one request to an agent. System carries the participant's
// visible history, User the question.
type Prompt struct {
	Kind   Kind
	System string
	User   string
}

// Agent makes the decisions of one participant.
type Agent interface {
	// Speak returns free-form text in answer to p.
	Speak(ctx context.Context, p Prompt) (string, error)
	// ExtractName coerces text into one of valid. hint describes the question
	// the text answers.
	ExtractName(ctx context.Context, text string, valid []string, hint string) (string, error)
}

var (
	patternsMu sync.Mutex
	patterns   = map[string]*regexp.Regexp{}
)

func namePattern(name string) *regexp.Regexp {
	patternsMu.Lock()
	defer patternsMu.Unlock()
	re, ok := patterns[name]
	if !ok {
		re = regexp.MustCompile(`(^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(name) + `($|[^\p{L}\p{N}_])`)
		patterns[name] = re
	}
	return re
}

// Mentions returns the valid names that appear as whole words in text,
// ordered by their last appearance.
func Mentions(text string, valid []string) []string {
	type hit struct {
		name string
		pos  int
	}
	var hits []hit
	for _, name := range valid {
		if name == "" {
			continue
		}
		locs := namePattern(name).FindAllStringIndex(text, -1)
		if len(locs) == 0 {
			continue
		}
		hits = append(hits, hit{name, locs[len(locs)-1][0]})
	}
	slices.SortStableFunc(hits, func(a, b hit) int { return a.pos - b.pos })
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.name)
	}
	return out
}

// MatchName returns the valid name mentioned last in text. Replies usually
// end with their conclusion.
func MatchName(text string, valid []string) (string, bool) {
	m := Mentions(text, valid)
	if len(m) == 0 {
		return "", false
	}
	return m[len(m)-1], true
}
