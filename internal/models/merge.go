package models

import (
	"maps"
	"slices"
)

// Update is a partial state produced by one step. A nil field is not part
// of the update; to clear a collection, set it to a non-nil empty value.
//
// For DayVotesCurrent and NightVotesCurrent a non-nil empty map resets the
// round, and a non-empty map is merged into the existing ballots.
type Update struct {
	Day            *int
	TimeSpan       *TimeSpan
	Result         *Result
	AliveNames     []string
	SafeNames      NameSet
	CurrentSpeaker *string
	ChatRemaining  *int

	ChatState map[string]ChatHistory

	DayVoteResultHistory   []Identified[string]
	NightVoteResultHistory []Identified[string]
	DayVotesHistory        []Identified[Ballots]
	NightVotesHistory      []Identified[Ballots]
	DayVotesCurrent        Ballots
	NightVotesCurrent      Ballots
}

// Merge applies u to old and returns the new state. old is left untouched.
func Merge(old GameState, u Update) GameState {
	s := old.Clone()
	if u.Day != nil {
		s.Day = *u.Day
	}
	if u.TimeSpan != nil {
		s.TimeSpan = *u.TimeSpan
	}
	if u.Result != nil {
		s.Result = *u.Result
	}
	if u.AliveNames != nil {
		s.AliveNames = slices.Clone(u.AliveNames)
	}
	if u.SafeNames != nil {
		s.SafeNames = maps.Clone(u.SafeNames)
	}
	if u.CurrentSpeaker != nil {
		s.CurrentSpeaker = *u.CurrentSpeaker
	}
	if u.ChatRemaining != nil {
		s.ChatRemaining = *u.ChatRemaining
	}
	s.ChatState = mergeChatState(s.ChatState, u.ChatState)
	s.DayVoteResultHistory = appendByID(s.DayVoteResultHistory, u.DayVoteResultHistory)
	s.NightVoteResultHistory = appendByID(s.NightVoteResultHistory, u.NightVoteResultHistory)
	s.DayVotesHistory = appendByID(s.DayVotesHistory, u.DayVotesHistory)
	s.NightVotesHistory = appendByID(s.NightVotesHistory, u.NightVotesHistory)
	s.DayVotesCurrent = mergeBallots(s.DayVotesCurrent, u.DayVotesCurrent)
	s.NightVotesCurrent = mergeBallots(s.NightVotesCurrent, u.NightVotesCurrent)
	return s
}

// Then combines u with a later update next, so that merging the result is
// the same as merging u and then next.
func (u Update) Then(next Update) Update {
	c := u
	if next.Day != nil {
		c.Day = next.Day
	}
	if next.TimeSpan != nil {
		c.TimeSpan = next.TimeSpan
	}
	if next.Result != nil {
		c.Result = next.Result
	}
	if next.AliveNames != nil {
		c.AliveNames = next.AliveNames
	}
	if next.SafeNames != nil {
		c.SafeNames = next.SafeNames
	}
	if next.CurrentSpeaker != nil {
		c.CurrentSpeaker = next.CurrentSpeaker
	}
	if next.ChatRemaining != nil {
		c.ChatRemaining = next.ChatRemaining
	}
	if len(next.ChatState) > 0 {
		c.ChatState = mergeChatState(cloneChatState(u.ChatState), next.ChatState)
	}
	c.DayVoteResultHistory = appendByID(slices.Clone(u.DayVoteResultHistory), next.DayVoteResultHistory)
	c.NightVoteResultHistory = appendByID(slices.Clone(u.NightVoteResultHistory), next.NightVoteResultHistory)
	c.DayVotesHistory = appendByID(slices.Clone(u.DayVotesHistory), next.DayVotesHistory)
	c.NightVotesHistory = appendByID(slices.Clone(u.NightVotesHistory), next.NightVotesHistory)
	c.DayVotesCurrent = thenBallots(u.DayVotesCurrent, next.DayVotesCurrent)
	c.NightVotesCurrent = thenBallots(u.NightVotesCurrent, next.NightVotesCurrent)
	return c
}

func mergeChatState(old, update map[string]ChatHistory) map[string]ChatHistory {
	if old == nil {
		old = map[string]ChatHistory{}
	}
	for key, h := range update {
		prev, ok := old[key]
		if !ok {
			prev = ChatHistory{Participants: h.Participants}
		}
		prev.Messages = appendByID(prev.Messages, h.Messages)
		old[key] = prev
	}
	return old
}

func cloneChatState(cs map[string]ChatHistory) map[string]ChatHistory {
	out := make(map[string]ChatHistory, len(cs))
	for k, h := range cs {
		out[k] = ChatHistory{Participants: h.Participants, Messages: slices.Clone(h.Messages)}
	}
	return out
}

// appendByID appends the entries of update whose identity is not already in
// old. Existing entries keep their position and value.
func appendByID[T any](old, update []Identified[T]) []Identified[T] {
	if len(update) == 0 {
		return old
	}
	seen := make(map[string]struct{}, len(old)+len(update))
	for _, v := range old {
		seen[v.ID] = struct{}{}
	}
	for _, v := range update {
		if _, ok := seen[v.ID]; ok {
			continue
		}
		seen[v.ID] = struct{}{}
		old = append(old, v)
	}
	return old
}

func mergeBallots(old, update Ballots) Ballots {
	switch {
	case update == nil:
		return old
	case len(update) == 0:
		return Ballots{}
	}
	out := make(Ballots, len(old)+len(update))
	maps.Copy(out, old)
	maps.Copy(out, update)
	return out
}

func thenBallots(first, next Ballots) Ballots {
	switch {
	case next == nil:
		return first
	case len(next) == 0 || first == nil:
		return maps.Clone(next)
	}
	return mergeBallots(first, next)
}

func ptr[T any](v T) *T { return &v }

// RecordChat appends body from sender to the channel made of sender and participants.
func RecordChat(sender string, participants []string, body string) Update {
	set := NewParticipantSet(append([]string{sender}, participants...)...)
	return Update{
		ChatState: map[string]ChatHistory{
			set.Key(): {
				Participants: set,
				Messages:     []Identified[Message]{NewIdentified(NewMessage(sender, set, body))},
			},
		},
	}
}

// Reset clears the per-phase fields when a day or night begins.
func Reset() Update {
	return Update{
		SafeNames:         NameSet{},
		CurrentSpeaker:    ptr(""),
		ChatRemaining:     ptr(0),
		DayVotesCurrent:   Ballots{},
		NightVotesCurrent: Ballots{},
	}
}

func SetDay(day int) Update { return Update{Day: ptr(day)} }

func SetTimeSpan(ts TimeSpan) Update { return Update{TimeSpan: ptr(ts)} }

func SetResult(r Result) Update { return Update{Result: ptr(r)} }

func SetCurrentSpeaker(name string) Update { return Update{CurrentSpeaker: ptr(name)} }

func SetChatRemaining(n int) Update { return Update{ChatRemaining: ptr(n)} }

// SetAlive replaces the alive roster.
func SetAlive(names []string) Update {
	if names == nil {
		names = []string{}
	}
	return Update{AliveNames: slices.Clone(names)}
}

// Protect marks names as safe for the current phase. It overwrites the set.
func Protect(names ...string) Update {
	return Update{SafeNames: NewNameSet(names...)}
}

// SetVotesCurrent merges ballots into the current round of ts. An empty
// non-nil map resets the round.
func SetVotesCurrent(ts TimeSpan, ballots Ballots) Update {
	if ballots == nil {
		ballots = Ballots{}
	}
	if ts == Night {
		return Update{NightVotesCurrent: maps.Clone(ballots)}
	}
	return Update{DayVotesCurrent: maps.Clone(ballots)}
}

// AppendVotesSnapshot records a completed round of ballots for ts.
func AppendVotesSnapshot(ts TimeSpan, ballots Ballots) Update {
	snap := maps.Clone(ballots)
	if snap == nil {
		snap = Ballots{}
	}
	entry := []Identified[Ballots]{NewIdentified(snap)}
	if ts == Night {
		return Update{NightVotesHistory: entry}
	}
	return Update{DayVotesHistory: entry}
}

// AppendVoteResult records the eliminated name of a round for ts. An empty
// name means nobody was eliminated.
func AppendVoteResult(ts TimeSpan, eliminated string) Update {
	entry := []Identified[string]{NewIdentified(eliminated)}
	if ts == Night {
		return Update{NightVoteResultHistory: entry}
	}
	return Update{DayVoteResultHistory: entry}
}
