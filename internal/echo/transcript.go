package echo

import (
	"io"
	"sync"

	"github.com/tatianab/werewolf/internal/models"
)

// Transcript appends fresh messages as plain text, for log files.
type Transcript struct {
	mu  sync.Mutex
	obs *Observer
	w   io.Writer
	err error
}

func NewTranscript(w io.Writer, level Level, players []string) *Transcript {
	return &Transcript{obs: NewObserver(level, players), w: w}
}

func (t *Transcript) Echo(s models.GameState) {
	msgs := t.obs.Fresh(s)
	if len(msgs) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := io.WriteString(t.w, models.Transcript(msgs)+"\n"); err != nil && t.err == nil {
		t.err = err
	}
}

// Err returns the first write error.
func (t *Transcript) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}
