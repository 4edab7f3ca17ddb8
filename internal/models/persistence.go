package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSaveDir is where finished games are written when no directory is configured.
const DefaultSaveDir = ".saves"

// TimestampLayout is the persisted message timestamp format.
const TimestampLayout = "2006-01-02 15:04:05.000000"

const stateFile = "state.yaml"

type stateDoc struct {
	Day                    int                   `yaml:"day" json:"day"`
	TimeSpan               TimeSpan              `yaml:"time_span" json:"time_span"`
	Result                 string                `yaml:"result" json:"result"`
	AliveNames             []string              `yaml:"alive_names" json:"alive_names"`
	SafeNames              []string              `yaml:"safe_names" json:"safe_names"`
	CurrentSpeaker         *string               `yaml:"current_speaker" json:"current_speaker"`
	ChatRemaining          int                   `yaml:"chat_remaining" json:"chat_remaining"`
	ChatState              map[string]historyDoc `yaml:"chat_state" json:"chat_state"`
	DayVoteResultHistory   []resultDoc           `yaml:"day_vote_result_history" json:"day_vote_result_history"`
	NightVoteResultHistory []resultDoc           `yaml:"night_vote_result_history" json:"night_vote_result_history"`
	DayVotesHistory        []ballotsDoc          `yaml:"day_votes_history" json:"day_votes_history"`
	NightVotesHistory      []ballotsDoc          `yaml:"night_votes_history" json:"night_votes_history"`
	DayVotesCurrent        map[string]string     `yaml:"day_votes_current" json:"day_votes_current"`
	NightVotesCurrent      map[string]string     `yaml:"night_votes_current" json:"night_votes_current"`
}

type historyDoc struct {
	Participants []string     `yaml:"participants" json:"participants"`
	Messages     []messageDoc `yaml:"messages" json:"messages"`
}

type messageDoc struct {
	ID           string   `yaml:"id" json:"id"`
	Sender       string   `yaml:"sender" json:"sender"`
	Timestamp    string   `yaml:"timestamp" json:"timestamp"`
	Body         string   `yaml:"body" json:"body"`
	Participants []string `yaml:"participants" json:"participants"`
}

type resultDoc struct {
	ID    string  `yaml:"id" json:"id"`
	Value *string `yaml:"value" json:"value"`
}

type ballotsDoc struct {
	ID    string            `yaml:"id" json:"id"`
	Value map[string]string `yaml:"value" json:"value"`
}

func toDoc(s GameState) stateDoc {
	d := stateDoc{
		Day:               s.Day,
		TimeSpan:          s.TimeSpan,
		Result:            s.Result.Label(),
		AliveNames:        nonNil(s.AliveNames),
		SafeNames:         nonNil(s.SafeNames.Sorted()),
		ChatRemaining:     s.ChatRemaining,
		ChatState:         make(map[string]historyDoc, len(s.ChatState)),
		DayVotesCurrent:   nonNilMap(s.DayVotesCurrent),
		NightVotesCurrent: nonNilMap(s.NightVotesCurrent),
	}
	if s.CurrentSpeaker != "" {
		d.CurrentSpeaker = &s.CurrentSpeaker
	}
	for key, h := range s.ChatState {
		hd := historyDoc{Participants: nonNil(h.Participants.Names())}
		for _, m := range h.Messages {
			hd.Messages = append(hd.Messages, messageDoc{
				ID:           m.ID,
				Sender:       m.Value.Sender,
				Timestamp:    m.Value.Timestamp.Format(TimestampLayout),
				Body:         m.Value.Body,
				Participants: nonNil(m.Value.Participants.Names()),
			})
		}
		d.ChatState[key] = hd
	}
	d.DayVoteResultHistory = resultDocs(s.DayVoteResultHistory)
	d.NightVoteResultHistory = resultDocs(s.NightVoteResultHistory)
	d.DayVotesHistory = ballotsDocs(s.DayVotesHistory)
	d.NightVotesHistory = ballotsDocs(s.NightVotesHistory)
	return d
}

func resultDocs(in []Identified[string]) []resultDoc {
	out := []resultDoc{}
	for _, r := range in {
		rd := resultDoc{ID: r.ID}
		if r.Value != "" {
			v := r.Value
			rd.Value = &v
		}
		out = append(out, rd)
	}
	return out
}

func ballotsDocs(in []Identified[Ballots]) []ballotsDoc {
	out := []ballotsDoc{}
	for _, b := range in {
		out = append(out, ballotsDoc{ID: b.ID, Value: nonNilMap(b.Value)})
	}
	return out
}

func fromDoc(d stateDoc) (GameState, error) {
	s := GameState{
		Day:               d.Day,
		TimeSpan:          d.TimeSpan,
		AliveNames:        d.AliveNames,
		SafeNames:         NewNameSet(d.SafeNames...),
		ChatRemaining:     d.ChatRemaining,
		ChatState:         make(map[string]ChatHistory, len(d.ChatState)),
		DayVotesCurrent:   Ballots(nonNilMap(d.DayVotesCurrent)),
		NightVotesCurrent: Ballots(nonNilMap(d.NightVotesCurrent)),
	}
	switch d.Result {
	case "", "None":
	case string(VillagersWin), string(WerewolvesWin):
		s.Result = Result(d.Result)
	default:
		return GameState{}, fmt.Errorf("unknown result %q", d.Result)
	}
	if d.CurrentSpeaker != nil {
		s.CurrentSpeaker = *d.CurrentSpeaker
	}
	for key, hd := range d.ChatState {
		set := NewParticipantSet(hd.Participants...)
		if set.Key() != key {
			return GameState{}, fmt.Errorf("chat key %q does not match participants %v", key, hd.Participants)
		}
		h := ChatHistory{Participants: set}
		for _, md := range hd.Messages {
			ts, err := time.ParseInLocation(TimestampLayout, md.Timestamp, time.Local)
			if err != nil {
				return GameState{}, fmt.Errorf("message %s: %w", md.ID, err)
			}
			h.Messages = append(h.Messages, Identified[Message]{
				ID: md.ID,
				Value: Message{
					Sender:       md.Sender,
					Timestamp:    ts,
					Body:         md.Body,
					Participants: NewParticipantSet(md.Participants...),
					seq:          messageSeq.Add(1),
				},
			})
		}
		s.ChatState[key] = h
	}
	for _, r := range d.DayVoteResultHistory {
		s.DayVoteResultHistory = append(s.DayVoteResultHistory, Identified[string]{ID: r.ID, Value: deref(r.Value)})
	}
	for _, r := range d.NightVoteResultHistory {
		s.NightVoteResultHistory = append(s.NightVoteResultHistory, Identified[string]{ID: r.ID, Value: deref(r.Value)})
	}
	for _, b := range d.DayVotesHistory {
		s.DayVotesHistory = append(s.DayVotesHistory, Identified[Ballots]{ID: b.ID, Value: Ballots(nonNilMap(b.Value))})
	}
	for _, b := range d.NightVotesHistory {
		s.NightVotesHistory = append(s.NightVotesHistory, Identified[Ballots]{ID: b.ID, Value: Ballots(nonNilMap(b.Value))})
	}
	return s, nil
}

// MarshalState encodes s as YAML, or as JSON when asJSON is set.
func MarshalState(s GameState, asJSON bool) ([]byte, error) {
	d := toDoc(s)
	if asJSON {
		return json.MarshalIndent(d, "", "  ")
	}
	return yaml.Marshal(d)
}

// UnmarshalState decodes a document written by MarshalState. YAML is a
// superset of JSON, so both formats are accepted.
func UnmarshalState(data []byte) (GameState, error) {
	var d stateDoc
	if err := yaml.Unmarshal(data, &d); err != nil {
		return GameState{}, err
	}
	return fromDoc(d)
}

// SaveState writes s to path. A .json extension selects JSON, anything else YAML.
func SaveState(path string, s GameState) error {
	data, err := MarshalState(s, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// LoadState reads a state written by SaveState.
func LoadState(path string) (GameState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GameState{}, err
	}
	s, err := UnmarshalState(data)
	if err != nil {
		return GameState{}, fmt.Errorf("load %s: %w", path, err)
	}
	return s, nil
}

// SaveGame writes s to dir/name/state.yaml and returns the path.
func SaveGame(dir, name string, s GameState) (string, error) {
	path := filepath.Join(dir, name, stateFile)
	return path, SaveState(path, s)
}

// ListGames returns the names of saved games under dir.
func ListGames(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var games []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, entry.Name(), stateFile)); err == nil {
			games = append(games, entry.Name())
		}
	}
	slices.Sort(games)
	return games, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMap[M ~map[string]string](m M) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
