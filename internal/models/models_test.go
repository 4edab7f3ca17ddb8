package models

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func seeded() GameState {
	s := NewGameState([]string{"Alice", "Bob", "Carol"})
	s = Merge(s, RecordChat(GameMasterName, []string{"Alice", "Bob", "Carol"}, "welcome"))
	s = Merge(s, RecordChat(GameMasterName, []string{"Alice"}, "you are a werewolf"))
	return s
}

func TestMergeIdempotent(t *testing.T) {
	s := seeded()
	u := RecordChat("Alice", []string{GameMasterName, "Bob", "Carol"}, "hello").
		Then(AppendVoteResult(Day, "Bob")).
		Then(AppendVotesSnapshot(Day, Ballots{"Alice": "Bob"}))

	once := Merge(s, u)
	twice := Merge(once, u)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("merging the same update twice changed the state")
	}
}

func TestMergeDoesNotMutateOld(t *testing.T) {
	s := seeded()
	before := s.Clone()
	_ = Merge(s, SetVotesCurrent(Day, Ballots{"Alice": "Bob"}).Then(SetAlive([]string{"Alice"})))
	if !reflect.DeepEqual(s, before) {
		t.Errorf("Merge mutated its input")
	}
}

func TestMergeAssociative(t *testing.T) {
	s := seeded()
	a := SetDay(2).Then(RecordChat("Bob", []string{GameMasterName}, "a"))
	b := SetTimeSpan(Night).Then(AppendVoteResult(Night, ""))
	c := RecordChat("Bob", []string{GameMasterName}, "c").Then(SetCurrentSpeaker("Carol"))

	left := Merge(Merge(Merge(s, a), b), c)
	right := Merge(s, a.Then(b.Then(c)))
	if !reflect.DeepEqual(left, right) {
		t.Errorf("sequential merge and combined merge disagree")
	}
	if left.Day != 2 || left.TimeSpan != Night || left.CurrentSpeaker != "Carol" {
		t.Errorf("unexpected scalars: %+v", left)
	}
	msgs := ChannelMessages([]string{GameMasterName, "Bob"}, left)
	if len(msgs) != 2 || msgs[0].Value.Body != "a" || msgs[1].Value.Body != "c" {
		t.Errorf("unexpected channel messages: %+v", msgs)
	}
}

func TestVotesCurrentResetAndUnion(t *testing.T) {
	s := NewGameState([]string{"A", "B", "C"})
	s = Merge(s, SetVotesCurrent(Day, Ballots{"A": "B"}))
	s = Merge(s, SetVotesCurrent(Day, Ballots{"B": "A"}))
	if want := (Ballots{"A": "B", "B": "A"}); !reflect.DeepEqual(s.DayVotesCurrent, want) {
		t.Fatalf("expected union %v, got %v", want, s.DayVotesCurrent)
	}

	s = Merge(s, Update{})
	if len(s.DayVotesCurrent) != 2 {
		t.Errorf("absent field should keep ballots, got %v", s.DayVotesCurrent)
	}

	s = Merge(s, SetVotesCurrent(Day, nil))
	if len(s.DayVotesCurrent) != 0 {
		t.Errorf("empty ballots should reset, got %v", s.DayVotesCurrent)
	}
}

func TestResetClearsPhaseFields(t *testing.T) {
	s := NewGameState([]string{"A", "B"})
	s = Merge(s, Protect("A").Then(SetCurrentSpeaker("B")).Then(SetChatRemaining(3)).
		Then(SetVotesCurrent(Night, Ballots{"A": "B"})))
	s = Merge(s, Reset())
	if len(s.SafeNames) != 0 || s.CurrentSpeaker != "" || s.ChatRemaining != 0 || len(s.NightVotesCurrent) != 0 {
		t.Errorf("reset left phase fields behind: %+v", s)
	}
}

func TestChatChannelKeyIgnoresOrder(t *testing.T) {
	s := NewGameState(nil)
	s = Merge(s, RecordChat("B", []string{"A", GameMasterName}, "one"))
	s = Merge(s, RecordChat("A", []string{GameMasterName, "B", "B"}, "two"))
	if len(s.ChatState) != 1 {
		t.Fatalf("expected one channel, got %d", len(s.ChatState))
	}
	h := s.ChatState["A|B|"+GameMasterName]
	if len(h.Messages) != 2 {
		t.Errorf("expected 2 messages, got %d", len(h.Messages))
	}
}

func TestVisibilityPartitioning(t *testing.T) {
	s := seeded()
	s = Merge(s, RecordChat("Bob", []string{GameMasterName}, "bob private"))

	for _, m := range RelatedMessages("Carol", s) {
		if !m.Value.Participants.Contains("Carol") {
			t.Errorf("Carol saw a message outside her channels: %q", m.Value.Body)
		}
		if m.Value.Body == "you are a werewolf" || m.Value.Body == "bob private" {
			t.Errorf("Carol saw a private message: %q", m.Value.Body)
		}
	}
	if got := len(RelatedMessages(GameMasterName, s)); got != 3 {
		t.Errorf("GameMaster should see every message, got %d", got)
	}
	if got := ChannelMessages([]string{"Alice", GameMasterName}, s); len(got) != 1 {
		t.Errorf("expected exactly the private channel, got %d messages", len(got))
	}
	if got := ChannelMessages([]string{"Nobody"}, s); got != nil {
		t.Errorf("expected no messages for unknown channel, got %v", got)
	}
}

func TestRelatedMessagesOrdered(t *testing.T) {
	s := NewGameState(nil)
	for _, body := range []string{"1", "2", "3", "4"} {
		to := "A"
		if body == "2" || body == "4" {
			to = "B"
		}
		s = Merge(s, RecordChat(GameMasterName, []string{to}, body))
	}
	var got []string
	for _, m := range RelatedMessages(GameMasterName, s) {
		got = append(got, m.Value.Body)
	}
	if strings.Join(got, "") != "1234" {
		t.Errorf("expected chronological order, got %v", got)
	}
}

func TestValidateState(t *testing.T) {
	s := NewGameState([]string{"A"})
	if err := ValidateState(s); err != nil {
		t.Fatalf("fresh state should be valid: %v", err)
	}
	s = Merge(s, AppendVotesSnapshot(Night, Ballots{}))
	if err := ValidateState(s); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
	s = Merge(s, AppendVoteResult(Night, ""))
	if err := ValidateState(s); err != nil {
		t.Errorf("matched histories should be valid: %v", err)
	}
}

func TestSaveAndLoadState(t *testing.T) {
	s := seeded()
	s = Merge(s, AppendVotesSnapshot(Day, Ballots{"Alice": "Bob", "Carol": "Bob"}).
		Then(AppendVoteResult(Day, "Bob")).
		Then(SetAlive([]string{"Alice", "Carol"})).
		Then(SetResult(VillagersWin)))

	for _, name := range []string{"state.yaml", "state.json"} {
		path := filepath.Join(t.TempDir(), name)
		if err := SaveState(path, s); err != nil {
			t.Fatalf("SaveState(%s): %v", name, err)
		}
		got, err := LoadState(path)
		if err != nil {
			t.Fatalf("LoadState(%s): %v", name, err)
		}
		if got.Result != VillagersWin {
			t.Errorf("%s: expected result %q, got %q", name, VillagersWin, got.Result)
		}
		if !reflect.DeepEqual(got.AliveNames, s.AliveNames) {
			t.Errorf("%s: alive names %v, got %v", name, s.AliveNames, got.AliveNames)
		}
		if len(got.DayVoteResultHistory) != 1 || got.DayVoteResultHistory[0].Value != "Bob" {
			t.Errorf("%s: unexpected vote results %v", name, got.DayVoteResultHistory)
		}
		if len(got.ChatState) != len(s.ChatState) {
			t.Errorf("%s: expected %d channels, got %d", name, len(s.ChatState), len(got.ChatState))
		}
	}
}

func TestMarshalStateFormat(t *testing.T) {
	s := NewGameState([]string{"B", "A"})
	s = Merge(s, RecordChat(GameMasterName, []string{"B", "A"}, "hi").Then(AppendVoteResult(Night, "")).
		Then(AppendVotesSnapshot(Night, Ballots{})))
	data, err := MarshalState(s, false)
	if err != nil {
		t.Fatalf("MarshalState: %v", err)
	}
	out := string(data)
	for _, want := range []string{"result: None", "A|B|" + GameMasterName, "value: null", "current_speaker: null"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in document:\n%s", want, out)
		}
	}
}

func TestListGames(t *testing.T) {
	dir := t.TempDir()
	if _, err := SaveGame(dir, "b", NewGameState(nil)); err != nil {
		t.Fatal(err)
	}
	if _, err := SaveGame(dir, "a", NewGameState(nil)); err != nil {
		t.Fatal(err)
	}
	games, err := ListGames(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(games, []string{"a", "b"}) {
		t.Errorf("expected [a b], got %v", games)
	}
	games, err = ListGames(filepath.Join(dir, "missing"))
	if err != nil || len(games) != 0 {
		t.Errorf("missing dir should list nothing, got %v %v", games, err)
	}
}
