package models

import (
	"maps"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// GameMasterName is the sender of every announcement. It belongs to every channel.
const GameMasterName = "GameMaster"

// TimeSpan is one half of a game cycle.
type TimeSpan string

const (
	Day   TimeSpan = "day"
	Night TimeSpan = "night"
)

// Result is the terminal outcome of a game. The zero value means the game is still running.
type Result string

const (
	NoResult      Result = ""
	VillagersWin  Result = "Villagers Win"
	WerewolvesWin Result = "Werewolves Win"
)

// Label returns the persisted form of the result.
func (r Result) Label() string {
	if r == NoResult {
		return "None"
	}
	return string(r)
}

// Identified wraps a value with an identity token used for deduplication.
type Identified[T any] struct {
	ID    string
	Value T
}

// NewIdentified wraps v with a fresh identity.
func NewIdentified[T any](v T) Identified[T] {
	return Identified[T]{ID: uuid.NewString(), Value: v}
}

// ParticipantSet is an unordered set of names used as a channel identity.
type ParticipantSet struct {
	names []string // sorted, unique
}

// NewParticipantSet builds a set from names, ignoring duplicates and order.
func NewParticipantSet(names ...string) ParticipantSet {
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	return ParticipantSet{names: slices.Compact(sorted)}
}

// Key is the canonical map key of the set.
func (p ParticipantSet) Key() string {
	return strings.Join(p.names, "|")
}

// Names returns the sorted members.
func (p ParticipantSet) Names() []string {
	return slices.Clone(p.names)
}

// Contains reports whether name is a member.
func (p ParticipantSet) Contains(name string) bool {
	_, ok := slices.BinarySearch(p.names, name)
	return ok
}

// Len returns the number of members.
func (p ParticipantSet) Len() int {
	return len(p.names)
}

// Equal reports whether both sets have the same members.
func (p ParticipantSet) Equal(o ParticipantSet) bool {
	return slices.Equal(p.names, o.names)
}

// Message is one chat utterance.
type Message struct {
	Sender       string
	Timestamp    time.Time
	Body         string
	Participants ParticipantSet

	// seq orders messages created with equal timestamps.
	seq uint64
}

var messageSeq atomic.Uint64

// NewMessage stamps a message with the current time.
func NewMessage(sender string, participants ParticipantSet, body string) Message {
	return Message{
		Sender:       sender,
		Timestamp:    time.Now(),
		Body:         body,
		Participants: participants,
		seq:          messageSeq.Add(1),
	}
}

// before orders messages by timestamp, then by creation order.
func (m Message) before(o Message) bool {
	if !m.Timestamp.Equal(o.Timestamp) {
		return m.Timestamp.Before(o.Timestamp)
	}
	return m.seq < o.seq
}

// ChatHistory is one channel. Participants never change once the channel exists.
type ChatHistory struct {
	Participants ParticipantSet
	Messages     []Identified[Message]
}

// Ballots maps voter to target.
type Ballots map[string]string

// NameSet is a set of player names.
type NameSet map[string]struct{}

// NewNameSet builds a set from names.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the members in lexical order.
func (s NameSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// GameState is the canonical state of a game. It is replaced by merged copies after every step.
type GameState struct {
	Day            int
	TimeSpan       TimeSpan
	Result         Result
	AliveNames     []string
	SafeNames      NameSet
	CurrentSpeaker string
	ChatRemaining  int

	// ChatState is keyed by ParticipantSet.Key.
	ChatState map[string]ChatHistory

	DayVoteResultHistory   []Identified[string] // empty value: no elimination
	NightVoteResultHistory []Identified[string]
	DayVotesHistory        []Identified[Ballots]
	NightVotesHistory      []Identified[Ballots]
	DayVotesCurrent        Ballots
	NightVotesCurrent      Ballots
}

// NewGameState seeds a state for the given roster.
func NewGameState(names []string) GameState {
	return GameState{
		TimeSpan:          Day,
		AliveNames:        slices.Clone(names),
		SafeNames:         NameSet{},
		ChatState:         map[string]ChatHistory{},
		DayVotesCurrent:   Ballots{},
		NightVotesCurrent: Ballots{},
	}
}

// IsAlive reports whether name is still in play.
func (s GameState) IsAlive(name string) bool {
	return slices.Contains(s.AliveNames, name)
}

// VotesCurrent returns the in-progress ballots of the current phase.
func (s GameState) VotesCurrent() Ballots {
	if s.TimeSpan == Night {
		return s.NightVotesCurrent
	}
	return s.DayVotesCurrent
}

// VotesHistory returns the completed ballot snapshots of the current phase.
func (s GameState) VotesHistory() []Identified[Ballots] {
	if s.TimeSpan == Night {
		return s.NightVotesHistory
	}
	return s.DayVotesHistory
}

// VoteResultHistory returns the elimination results of the current phase.
func (s GameState) VoteResultHistory() []Identified[string] {
	if s.TimeSpan == Night {
		return s.NightVoteResultHistory
	}
	return s.DayVoteResultHistory
}

// Clone returns a copy that shares no mutable containers with s.
func (s GameState) Clone() GameState {
	c := s
	c.AliveNames = slices.Clone(s.AliveNames)
	c.SafeNames = maps.Clone(s.SafeNames)
	c.ChatState = make(map[string]ChatHistory, len(s.ChatState))
	for k, h := range s.ChatState {
		c.ChatState[k] = ChatHistory{
			Participants: h.Participants,
			Messages:     slices.Clone(h.Messages),
		}
	}
	c.DayVoteResultHistory = slices.Clone(s.DayVoteResultHistory)
	c.NightVoteResultHistory = slices.Clone(s.NightVoteResultHistory)
	c.DayVotesHistory = slices.Clone(s.DayVotesHistory)
	c.NightVotesHistory = slices.Clone(s.NightVotesHistory)
	c.DayVotesCurrent = maps.Clone(s.DayVotesCurrent)
	c.NightVotesCurrent = maps.Clone(s.NightVotesCurrent)
	return c
}
