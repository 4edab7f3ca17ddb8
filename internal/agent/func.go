package agent

import (
	"context"
	"sync"
)

// Func adapts plain functions to Agent. A nil SpeakFunc answers with an
// empty string; a nil ExtractFunc uses MatchName.
type Func struct {
	SpeakFunc   func(ctx context.Context, p Prompt) (string, error)
	ExtractFunc func(ctx context.Context, text string, valid []string, hint string) (string, error)
}

func (f Func) Speak(ctx context.Context, p Prompt) (string, error) {
	if f.SpeakFunc == nil {
		return "", nil
	}
	return f.SpeakFunc(ctx, p)
}

func (f Func) ExtractName(ctx context.Context, text string, valid []string, hint string) (string, error) {
	if f.ExtractFunc != nil {
		return f.ExtractFunc(ctx, text, valid, hint)
	}
	return extractByMatch(text, valid)
}

func extractByMatch(text string, valid []string) (string, error) {
	if name, ok := MatchName(text, valid); ok {
		return name, nil
	}
	return "", ErrNoValidName
}

// Scripted replies with a fixed sequence of lines, repeating the last one.
type Scripted struct {
	mu      sync.Mutex
	replies []string
	next    int
}

// NewScripted returns an agent that answers with replies in order.
func NewScripted(replies ...string) *Scripted {
	return &Scripted{replies: replies}
}

func (s *Scripted) Speak(ctx context.Context, p Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.replies) == 0 {
		return "", nil
	}
	r := s.replies[min(s.next, len(s.replies)-1)]
	s.next++
	return r, nil
}

func (s *Scripted) ExtractName(ctx context.Context, text string, valid []string, hint string) (string, error) {
	return extractByMatch(text, valid)
}
