package engine

import (
	"bytes"
	"embed"
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"
	"text/template"
)

//go:embed prompts/*.txt
var promptFiles embed.FS

// Prompt template names. Each can be overridden through Options.Prompts.
const (
	PromptWelcome      = "welcome"
	PromptRules        = "rules"
	PromptRoleAnnounce = "role_announce"
	PromptSystem       = "system"
	PromptSpeak        = "speak"
	PromptDayChat      = "day_chat"
	PromptNightChat    = "night_chat"
	PromptDayVote      = "day_vote"
	PromptNightVote    = "night_vote"
	PromptNightStart   = "night_start"
	PromptNightAction  = "night_action"
	PromptElimination  = "elimination"
	PromptResult       = "result"
	PromptReveal       = "reveal"
)

type roleInfo struct {
	Key              string
	Side             string
	VictoryCondition string
	NightAction      string
}

type roleCount struct {
	Key   string
	Count int
}

type rulesData struct {
	Roles  []roleInfo
	Counts []roleCount
}

type roleAnnounceData struct {
	Name             string
	Role             string
	Side             string
	VictoryCondition string
	NightAction      string
}

type systemData struct {
	Name     string
	Messages string
}

type nameData struct{ Name string }

type phaseData struct {
	Day        int
	AliveNames []string
}

type nightActionData struct {
	Role        string
	NightAction string
	Question    string
	AliveNames  []string
}

type eliminationData struct {
	Eliminated string
	Votes      string
}

type resultData struct{ Result string }

type revealEntry struct {
	Name  string
	Role  string
	State string
}

type revealData struct{ Players []revealEntry }

// samples are used to check templates before a game starts.
var samples = map[string]any{
	PromptWelcome:      nil,
	PromptRules:        rulesData{Roles: []roleInfo{{"villager", "VillagerSide", "win", "none"}}, Counts: []roleCount{{"villager", 1}}},
	PromptRoleAnnounce: roleAnnounceData{"Player0", "villager", "VillagerSide", "win", "none"},
	PromptSystem:       systemData{"Player0", "(no messages)"},
	PromptSpeak:        nameData{"Player0"},
	PromptDayChat:      phaseData{1, []string{"Player0", "Player1"}},
	PromptNightChat:    phaseData{1, []string{"Player0", "Player1"}},
	PromptDayVote:      phaseData{1, []string{"Player0", "Player1"}},
	PromptNightVote:    phaseData{1, []string{"Player0", "Player1"}},
	PromptNightStart:   phaseData{1, []string{"Player0", "Player1"}},
	PromptNightAction:  nightActionData{"knight", "Save a player", "Who?", []string{"Player0", "Player1"}},
	PromptElimination:  eliminationData{"Player0", "Player1 -> Player0"},
	PromptResult:       resultData{"Villagers Win"},
	PromptReveal:       revealData{[]revealEntry{{"Player0", "villager", "Alive"}}},
}

var funcs = template.FuncMap{
	"join": func(names []string) string { return strings.Join(names, ", ") },
	"inc":  func(i int) int { return i + 1 },
}

// Prompts renders the game master's messages and the players' prompts.
type Prompts struct {
	t map[string]*template.Template
}

// LoadPrompts parses the embedded templates and applies overrides keyed by
// template name. Every template is executed once against sample data so
// that broken overrides fail before the game starts.
func LoadPrompts(overrides map[string]string) (*Prompts, error) {
	p := &Prompts{t: map[string]*template.Template{}}
	for name := range samples {
		data, err := promptFiles.ReadFile(path.Join("prompts", name+".txt"))
		if err != nil {
			return nil, err
		}
		if err := p.set(name, string(data)); err != nil {
			return nil, err
		}
	}
	for name, text := range overrides {
		if _, ok := samples[name]; !ok {
			return nil, fmt.Errorf("unknown prompt %q", name)
		}
		if err := p.set(name, text); err != nil {
			return nil, err
		}
	}
	for _, name := range slices.Sorted(maps.Keys(samples)) {
		if _, err := p.render(name, samples[name]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prompts) set(name, text string) error {
	t, err := template.New(name).Option("missingkey=error").Funcs(funcs).Parse(text)
	if err != nil {
		return fmt.Errorf("prompt %s: %w", name, err)
	}
	p.t[name] = t
	return nil
}

func (p *Prompts) render(name string, data any) (string, error) {
	t, ok := p.t[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("prompt %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
