package echo

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/tatianab/werewolf/internal/models"
)

var palette = []string{"#5FAFFF", "#87D787", "#D7AF5F", "#D787D7", "#5FD7D7", "#FF8787", "#AFAFFF", "#D7D75F"}

// Console writes fresh messages to a terminal, one colour per speaker.
type Console struct {
	mu     sync.Mutex
	obs    *Observer
	w      io.Writer
	styles map[string]lipgloss.Style
	body   lipgloss.Style
	err    error
}

// NewConsole returns a console sink for the game of players. Colours are
// dropped when w is not a terminal.
func NewConsole(w io.Writer, level Level, players []string) *Console {
	r := lipgloss.NewRenderer(w)
	styles := map[string]lipgloss.Style{
		models.GameMasterName: r.NewStyle().Foreground(lipgloss.Color("#FFA500")).Bold(true),
	}
	for i, name := range players {
		styles[name] = r.NewStyle().Foreground(lipgloss.Color(palette[i%len(palette)])).Bold(true)
	}
	return &Console{
		obs:    NewObserver(level, players),
		w:      w,
		styles: styles,
		body:   r.NewStyle(),
	}
}

// Echo prints what is new in s.
func (c *Console) Echo(s models.GameState) {
	msgs := c.obs.Fresh(s)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, m := range msgs {
		if _, err := fmt.Fprintln(c.w, c.render(m.Value)); err != nil && c.err == nil {
			c.err = err
		}
	}
}

// Err returns the first write error.
func (c *Console) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Console) render(m models.Message) string {
	header, body, _ := strings.Cut(m.Format(), "\n")
	style, ok := c.styles[m.Sender]
	if !ok {
		style = c.body
	}
	return style.Render(header) + "\n" + c.body.Render(body) + "\n"
}
