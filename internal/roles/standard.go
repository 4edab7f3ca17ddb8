package roles

import (
	"context"
	"fmt"
	"slices"

	"github.com/tatianab/werewolf/internal/agent"
	"github.com/tatianab/werewolf/internal/models"
)

type Villager struct{}

func (Villager) Key() string         { return KeyVillager }
func (Villager) Side() Side          { return VillagerSide }
func (Villager) NightAction() string { return "No night action" }
func (Villager) Question() string    { return "" }

func (Villager) ActInNight(context.Context, NightContext) models.Update { return models.Update{} }

// Werewolf acts through the night vote, not through an individual action.
type Werewolf struct{}

func (Werewolf) Key() string      { return KeyWerewolf }
func (Werewolf) Side() Side       { return WerewolfSide }
func (Werewolf) Question() string { return "" }

func (Werewolf) NightAction() string {
	return fmt.Sprintf("Vote exclude a player from the game to help %s", WerewolfSide)
}

func (Werewolf) ActInNight(context.Context, NightContext) models.Update { return models.Update{} }

// Knight protects one alive player from the night's elimination.
type Knight struct {
	AllowSelfProtect bool
}

func (Knight) Key() string         { return KeyKnight }
func (Knight) Side() Side          { return VillagerSide }
func (Knight) NightAction() string { return "Save a player from the werewolves" }
func (Knight) Question() string    { return "Who do you want to save in this night?" }

func (k Knight) ActInNight(ctx context.Context, nc NightContext) models.Update {
	self := nc.Self.Name
	candidates := slices.DeleteFunc(slices.Clone(nc.State.AliveNames), func(n string) bool {
		return n == self && !k.AllowSelfProtect
	})
	target, err := chooseTarget(ctx, nc, k.Question(), candidates)
	if err != nil {
		return models.RecordChat(self, []string{models.GameMasterName}, "Failed to decide the target player.")
	}
	return models.Protect(target).Then(
		models.RecordChat(self, []string{models.GameMasterName}, fmt.Sprintf("I decided to save %s in this night.", target)))
}

// FortuneTeller learns privately whether one player is a werewolf.
type FortuneTeller struct{}

func (FortuneTeller) Key() string         { return KeyFortuneTeller }
func (FortuneTeller) Side() Side          { return VillagerSide }
func (FortuneTeller) NightAction() string { return "Check whether a player is a werewolf or not" }

func (FortuneTeller) Question() string {
	return "Who do you want to check whether he/she is a werewolf or not?"
}

func (f FortuneTeller) ActInNight(ctx context.Context, nc NightContext) models.Update {
	self := nc.Self.Name
	candidates := slices.DeleteFunc(slices.Clone(nc.State.AliveNames), func(n string) bool { return n == self })
	target, err := chooseTarget(ctx, nc, f.Question(), candidates)
	reply := func(body string) models.Update {
		return models.RecordChat(models.GameMasterName, []string{self}, body)
	}
	if err != nil {
		return reply(fmt.Sprintf("Failed to find the target player: %v", err))
	}
	p, err := FindPlayer(target, nc.Players)
	if err != nil {
		return reply(fmt.Sprintf("Failed to find the target player: %s", target))
	}
	if IsWerewolf(p) {
		return reply(fmt.Sprintf("%s is a werewolf", p.Name))
	}
	return reply(fmt.Sprintf("%s is not a werewolf", p.Name))
}

// chooseTarget asks the acting player's agent for a name among candidates.
func chooseTarget(ctx context.Context, nc NightContext, question string, candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", agent.ErrNoValidName
	}
	a := nc.Self.Agent
	if a == nil {
		return "", fmt.Errorf("%s has no agent", nc.Self.Name)
	}
	text, err := a.Speak(ctx, agent.Prompt{
		Kind:   agent.KindNightAction,
		System: models.Transcript(nc.Messages),
		User:   question,
	})
	if err != nil {
		return "", err
	}
	return a.ExtractName(ctx, text, candidates,
		fmt.Sprintf("Extract the valid name of the player as the answer to %q", question))
}

// DefaultRoles returns the standard roles.
func DefaultRoles(knightSelfProtect bool) []Role {
	return []Role{
		Werewolf{},
		Knight{AllowSelfProtect: knightSelfProtect},
		FortuneTeller{},
		Villager{},
	}
}
