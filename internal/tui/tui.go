// Package tui is a terminal spectator for a running game.
package tui

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tatianab/werewolf/internal/echo"
	"github.com/tatianab/werewolf/internal/models"
)

var (
	masterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true)

	playerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1).
			PaddingRight(1)

	bodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F"))

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)
)

// StartFunc runs a game, calling echo after every step.
type StartFunc func(ctx context.Context, echo func(models.GameState)) (models.GameState, error)

type stateMsg struct{ state models.GameState }

type doneMsg struct {
	state models.GameState
	err   error
}

type model struct {
	players   []string
	observer  *echo.Observer
	state     models.GameState
	started   bool
	done      bool
	err       error
	notice    string
	textInput textinput.Model
	viewport  viewport.Model
	width     int
	height    int
}

func newModel(players []string, level echo.Level) model {
	ti := textinput.New()
	ti.Placeholder = "all, public, off or a player name"
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 40

	return model{
		players:   players,
		observer:  echo.NewObserver(level, players),
		textInput: ti,
		viewport:  viewport.New(80, 20),
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textInput.Value())
			m.textInput.Reset()
			if input == "/quit" {
				return m, tea.Quit
			}
			level, err := echo.ParseLevel(input, m.players)
			if err != nil {
				m.notice = err.Error()
				return m, nil
			}
			m.notice = ""
			m.observer.SetLevel(level)
			m.refresh()
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = int(float64(msg.Width) * 0.75)
		m.viewport.Height = max(msg.Height-6, 1)
		m.refresh()

	case stateMsg:
		m.state = msg.state
		m.started = true
		m.refresh()
		return m, nil

	case doneMsg:
		m.state = msg.state
		m.started = true
		m.done = true
		m.err = msg.err
		m.refresh()
		return m, nil
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// refresh re-renders the transcript for the current audience.
func (m *model) refresh() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderLog())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m model) View() string {
	if !m.started {
		return "\n  Preparing the village... please wait.\n"
	}
	mainView := lipgloss.JoinHorizontal(lipgloss.Top,
		m.viewport.View(),
		m.renderState(),
	)
	help := helpStyle.Render(fmt.Sprintf("Watching %q. Type a level and press Enter to switch. /quit or Esc to leave.", m.observer.Level()))
	if m.notice != "" {
		help = errorStyle.Render(m.notice)
	}
	return "\n" + lipgloss.JoinVertical(lipgloss.Left,
		mainView,
		"\n"+m.textInput.View(),
		"\n"+help,
	) + "\n"
}

func (m model) renderLog() string {
	width := max(m.viewport.Width, 20)
	var b strings.Builder
	for _, msg := range m.observer.All(m.state) {
		v := msg.Value
		style := playerStyle
		if v.Sender == models.GameMasterName {
			style = masterStyle
		}
		to := strings.Join(v.Participants.Names(), ", ")
		b.WriteString(style.Render(v.Sender) + helpStyle.Render(" to "+to+" at "+v.Timestamp.Format("15:04:05")))
		b.WriteString("\n")
		b.WriteString(bodyStyle.Width(width).Render(v.Body))
		b.WriteString("\n\n")
	}
	return b.String()
}

func (m model) renderState() string {
	s := m.state

	phase := titleStyle.Render("PHASE") + "\n"
	if s.Day == 0 {
		phase += "Preparation\n\n"
	} else {
		phase += fmt.Sprintf("Day %d, %s\n\n", s.Day, s.TimeSpan)
	}

	alive := titleStyle.Render("ALIVE") + "\n"
	for _, name := range s.AliveNames {
		marker := "  "
		if name == s.CurrentSpeaker {
			marker = "> "
		}
		alive += marker + name + "\n"
	}
	if len(s.AliveNames) == 0 {
		alive += "(nobody)\n"
	}
	alive += "\n"

	votes := ""
	if ballots := s.VotesCurrent(); len(ballots) > 0 {
		votes = titleStyle.Render("VOTES") + "\n"
		for _, voter := range slices.Sorted(maps.Keys(ballots)) {
			votes += fmt.Sprintf("%s -> %s\n", voter, ballots[voter])
		}
		votes += "\n"
	}

	result := titleStyle.Render("RESULT") + "\n"
	switch {
	case m.err != nil:
		result += errorStyle.Render(m.err.Error())
	case s.Result != models.NoResult:
		result += string(s.Result)
	case m.done:
		result += "Stopped without a winner"
	default:
		result += fmt.Sprintf("Playing (%d turns left in this chat)", s.ChatRemaining)
	}

	width := int(float64(m.width) * 0.23)
	return stateStyle.Width(width).Height(m.viewport.Height).Render(phase + alive + votes + result)
}

// Run shows the game started by start until the user quits. Quitting
// cancels the game. It returns the last state and the game's error.
func Run(ctx context.Context, players []string, level echo.Level, start StartFunc) (models.GameState, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newModel(players, level), tea.WithAltScreen(), tea.WithContext(ctx))
	done := make(chan doneMsg, 1)
	go func() {
		s, err := start(ctx, func(s models.GameState) { p.Send(stateMsg{s}) })
		d := doneMsg{s, err}
		done <- d
		p.Send(d)
	}()

	_, uiErr := p.Run()
	cancel()
	d := <-done
	if uiErr != nil && !errors.Is(uiErr, tea.ErrProgramKilled) {
		return d.state, uiErr
	}
	return d.state, d.err
}
