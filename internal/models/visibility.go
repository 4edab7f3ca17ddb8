package models

import (
	"fmt"
	"slices"
	"strings"
)

// RelatedChannels returns every channel that includes name, keyed as in
// GameState.ChatState.
func RelatedChannels(name string, s GameState) map[string]ChatHistory {
	out := map[string]ChatHistory{}
	for key, h := range s.ChatState {
		if h.Participants.Contains(name) {
			out[key] = h
		}
	}
	return out
}

// RelatedMessages returns the messages of every channel that includes name,
// oldest first.
func RelatedMessages(name string, s GameState) []Identified[Message] {
	var msgs []Identified[Message]
	for _, h := range RelatedChannels(name, s) {
		msgs = append(msgs, h.Messages...)
	}
	sortMessages(msgs)
	return msgs
}

// ChannelMessages returns the messages of the channel whose participants are
// exactly names, oldest first.
func ChannelMessages(names []string, s GameState) []Identified[Message] {
	h, ok := s.ChatState[NewParticipantSet(names...).Key()]
	if !ok {
		return nil
	}
	msgs := slices.Clone(h.Messages)
	sortMessages(msgs)
	return msgs
}

func sortMessages(msgs []Identified[Message]) {
	slices.SortStableFunc(msgs, func(a, b Identified[Message]) int {
		switch {
		case a.Value.before(b.Value):
			return -1
		case b.Value.before(a.Value):
			return 1
		}
		return 0
	})
}

// Format renders a message the way participants read it in their prompts.
func (m Message) Format() string {
	return fmt.Sprintf("[(%s) %s spoke to %s]\n%s\n%s\n",
		m.Timestamp.Format(TimestampLayout), m.Sender,
		strings.Join(m.Participants.Names(), ", "),
		strings.Repeat("=", 30), m.Body)
}

// Transcript joins formatted messages in order.
func Transcript(msgs []Identified[Message]) string {
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.Value.Format())
	}
	return b.String()
}
