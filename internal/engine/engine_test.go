package engine

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tatianab/werewolf/internal/agent"
	"github.com/tatianab/werewolf/internal/models"
	"github.com/tatianab/werewolf/internal/roles"
)

var quiet = log.New(io.Discard, "", 0)

// says answers every prompt with reply, or with night when the prompt is
// the werewolves' vote.
func says(reply, night string) agent.Agent {
	return agent.Func{SpeakFunc: func(_ context.Context, p agent.Prompt) (string, error) {
		if night != "" && strings.Contains(p.User, "tonight") {
			return night, nil
		}
		return reply, nil
	}}
}

func run(t *testing.T, players []roles.Player, opts Options) models.GameState {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = quiet
	}
	e, err := New(roles.DefaultRegistry(), players, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := models.ValidateState(s); err != nil {
		t.Fatalf("final state: %v", err)
	}
	return s
}

func TestVillagersWinOnFirstDay(t *testing.T) {
	players := []roles.Player{
		{Name: "A", Role: roles.Werewolf{}, Agent: says("B should be excluded.", "")},
		{Name: "B", Role: roles.Villager{}, Agent: says("A should be excluded.", "")},
		{Name: "C", Role: roles.Villager{}, Agent: says("A should be excluded.", "")},
	}
	s := run(t, players, Options{})
	if s.Result != models.VillagersWin {
		t.Fatalf("expected %q, got %q", models.VillagersWin, s.Result)
	}
	if s.Day != 1 || len(s.DayVoteResultHistory) != 1 || s.DayVoteResultHistory[0].Value != "A" {
		t.Errorf("expected A excluded on day 1, got day %d results %v", s.Day, s.DayVoteResultHistory)
	}
	want := models.Ballots{"A": "B", "B": "A", "C": "A"}
	got := s.DayVotesHistory[0].Value
	if len(got) != len(want) {
		t.Fatalf("expected ballots %v, got %v", want, got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("ballot of %s: expected %s, got %s", k, v, got[k])
		}
	}
	reveal := false
	for _, m := range models.RelatedMessages("B", s) {
		if strings.Contains(m.Value.Body, "The role of A is werewolf (State: Excluded in Day 1 daytime)") {
			reveal = true
		}
	}
	if !reveal {
		t.Errorf("roles were not revealed to B")
	}
}

func TestWerewolvesWinAtNight(t *testing.T) {
	players := []roles.Player{
		{Name: "A", Role: roles.Werewolf{}, Agent: says("D should be excluded.", "B should be excluded.")},
		{Name: "B", Role: roles.Villager{}, Agent: says("D should be excluded.", "")},
		{Name: "C", Role: roles.Villager{}, Agent: says("D should be excluded.", "")},
		{Name: "D", Role: roles.Villager{}, Agent: says("A should be excluded.", "")},
	}
	s := run(t, players, Options{})
	if s.Result != models.WerewolvesWin {
		t.Fatalf("expected %q, got %q", models.WerewolvesWin, s.Result)
	}
	if got := s.NightVoteResultHistory; len(got) != 1 || got[0].Value != "B" {
		t.Errorf("expected B excluded on night 1, got %v", got)
	}
	if len(s.AliveNames) != 2 {
		t.Errorf("expected 2 alive, got %v", s.AliveNames)
	}
}

func TestKnightProtectionAndDayLimit(t *testing.T) {
	knight := agent.Func{SpeakFunc: func(_ context.Context, p agent.Prompt) (string, error) {
		if strings.Contains(p.User, "save") {
			return "I will save C.", nil
		}
		return "E should be excluded.", nil
	}}
	players := []roles.Player{
		{Name: "A", Role: roles.Werewolf{}, Agent: says("E should be excluded.", "C should be excluded.")},
		{Name: "B", Role: roles.Knight{}, Agent: knight},
		{Name: "C", Role: roles.Villager{}, Agent: says("E should be excluded.", "")},
		{Name: "D", Role: roles.Villager{}, Agent: says("E should be excluded.", "")},
		{Name: "E", Role: roles.Villager{}, Agent: says("A should be excluded.", "")},
	}
	s := run(t, players, Options{})
	if s.Result != models.NoResult {
		t.Fatalf("expected no result, got %q", s.Result)
	}
	if s.Day != len(players) {
		t.Errorf("expected the game to stop on day %d, got %d", len(players), s.Day)
	}
	if !s.IsAlive("C") {
		t.Errorf("protected C was excluded")
	}
	for i, r := range s.NightVoteResultHistory {
		if r.Value != "" {
			t.Errorf("night %d: expected no exclusion, got %s", i+1, r.Value)
		}
	}
	if got := s.NightVotesHistory[0].Value["A"]; got != "C" {
		t.Errorf("expected A to vote C at night, got %q", got)
	}
	key := models.NewParticipantSet("B", models.GameMasterName).Key()
	found := false
	for _, m := range s.ChatState[key].Messages {
		if m.Value.Body == "I decided to save C in this night." {
			found = true
		}
	}
	if !found {
		t.Errorf("knight decision not recorded on %s", key)
	}
}

func TestDecisionTimeoutDegrades(t *testing.T) {
	stuck := agent.Func{SpeakFunc: func(ctx context.Context, _ agent.Prompt) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	players := []roles.Player{
		{Name: "A", Role: roles.Werewolf{}, Agent: stuck},
		{Name: "B", Role: roles.Villager{}, Agent: stuck},
		{Name: "C", Role: roles.Villager{}, Agent: stuck},
	}
	s := run(t, players, Options{DecisionTimeout: 10 * time.Millisecond})
	if s.Result != models.NoResult {
		t.Fatalf("expected no result, got %q", s.Result)
	}
	if len(s.DayVoteResultHistory) != 2 || len(s.NightVoteResultHistory) != 2 {
		t.Fatalf("expected two days and nights, got %d and %d", len(s.DayVoteResultHistory), len(s.NightVoteResultHistory))
	}
	for _, b := range s.DayVotesHistory {
		if len(b.Value) != 0 {
			t.Errorf("expected empty ballots, got %v", b.Value)
		}
	}
	if len(s.AliveNames) != 3 {
		t.Errorf("expected everyone alive, got %v", s.AliveNames)
	}
}

func TestEchoSeesEveryStep(t *testing.T) {
	var calls int
	var last models.GameState
	players := []roles.Player{
		{Name: "A", Role: roles.Werewolf{}, Agent: says("B", "")},
		{Name: "B", Role: roles.Villager{}, Agent: says("A", "")},
		{Name: "C", Role: roles.Villager{}, Agent: says("A", "")},
	}
	s := run(t, players, Options{Echo: func(s models.GameState) {
		calls++
		last = s
	}})
	if calls == 0 {
		t.Fatalf("echo never called")
	}
	if last.Result != s.Result || last.Day != s.Day {
		t.Errorf("last echo differs from final state: %q day %d vs %q day %d", last.Result, last.Day, s.Result, s.Day)
	}
}

func TestChatTurns(t *testing.T) {
	players := []roles.Player{
		{Name: "A", Role: roles.Werewolf{}, Agent: agent.NewScripted("hello", "B should be excluded.")},
		{Name: "B", Role: roles.Villager{}, Agent: says("A", "")},
		{Name: "C", Role: roles.Villager{}, Agent: says("A", "")},
	}
	s := run(t, players, Options{TurnsPerDay: 2})
	key := models.NewParticipantSet("A", "B", "C", models.GameMasterName).Key()
	spoken := map[string]int{}
	for _, m := range s.ChatState[key].Messages {
		spoken[m.Value.Sender]++
	}
	for _, name := range []string{"A", "B", "C"} {
		if spoken[name] != 2 {
			t.Errorf("%s spoke %d times, expected 2", name, spoken[name])
		}
	}
	if s.CurrentSpeaker != "" || s.ChatRemaining != 0 {
		t.Errorf("chat not torn down: speaker %q remaining %d", s.CurrentSpeaker, s.ChatRemaining)
	}
}

func TestNewRejectsInvalidGames(t *testing.T) {
	a := agent.NewScripted()
	tests := []struct {
		name    string
		players []roles.Player
		opts    Options
	}{
		{"empty", nil, Options{}},
		{"duplicate", []roles.Player{{Name: "A", Role: roles.Villager{}, Agent: a}, {Name: "A", Role: roles.Werewolf{}, Agent: a}}, Options{}},
		{"reserved", []roles.Player{{Name: models.GameMasterName, Role: roles.Villager{}, Agent: a}}, Options{}},
		{"separator", []roles.Player{{Name: "A|B", Role: roles.Villager{}, Agent: a}}, Options{}},
		{"no role", []roles.Player{{Name: "A", Agent: a}}, Options{}},
		{"no agent", []roles.Player{{Name: "A", Role: roles.Villager{}}}, Options{}},
		{"unregistered role", []roles.Player{{Name: "A", Role: hunter{}, Agent: a}}, Options{}},
		{"bad prompt", []roles.Player{{Name: "A", Role: roles.Villager{}, Agent: a}}, Options{Prompts: map[string]string{PromptSpeak: "{{.Nope}}"}}},
	}
	for _, tt := range tests {
		_, err := New(roles.DefaultRegistry(), tt.players, tt.opts)
		if !errors.Is(err, ErrInvalidGame) {
			t.Errorf("%s: expected ErrInvalidGame, got %v", tt.name, err)
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	players := []roles.Player{
		{Name: "A", Role: roles.Werewolf{}, Agent: agent.Func{SpeakFunc: func(context.Context, agent.Prompt) (string, error) {
			cancel()
			return "nothing", nil
		}}},
		{Name: "B", Role: roles.Villager{}, Agent: says("nothing", "")},
		{Name: "C", Role: roles.Villager{}, Agent: says("nothing", "")},
	}
	e, err := New(roles.DefaultRegistry(), players, Options{Logger: quiet})
	if err != nil {
		t.Fatal(err)
	}
	s, err := e.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if s.Day != 1 {
		t.Errorf("expected to stop on day 1, got %d", s.Day)
	}
}

type hunter struct{ roles.Villager }

func (hunter) Key() string { return "hunter" }

func TestRunRecordsSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	defer otel.SetTracerProvider(prev)

	players := []roles.Player{
		{Name: "A", Role: roles.Werewolf{}, Agent: says("B", "")},
		{Name: "B", Role: roles.Villager{}, Agent: says("A", "")},
		{Name: "C", Role: roles.Villager{}, Agent: says("A", "")},
	}
	run(t, players, Options{})

	names := map[string]bool{}
	for _, s := range rec.Ended() {
		names[s.Name()] = true
	}
	for _, want := range []string{"game.run", "game.prepare", "game.day", "game.chat", "game.vote", "game.eliminate"} {
		if !names[want] {
			t.Errorf("span %s not recorded, got %v", want, names)
		}
	}
}
