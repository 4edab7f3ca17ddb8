package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/tatianab/werewolf/internal/models"
	"github.com/tatianab/werewolf/internal/roles"
)

// prepare welcomes everyone, explains the rules and tells each player its role.
func (e *Engine) prepare(ctx context.Context) (err error) {
	_, span := e.tracer.Start(ctx, "game.prepare")
	defer func() { endSpan(span, err) }()

	welcome, err := e.prompts.render(PromptWelcome, nil)
	if err != nil {
		return err
	}
	e.announce(welcome)

	rules, err := e.prompts.render(PromptRules, e.rulesData())
	if err != nil {
		return err
	}
	e.announce(rules)

	for _, p := range e.players {
		data := roleAnnounceData{
			Name:        p.Name,
			Role:        p.Role.Key(),
			Side:        string(p.Role.Side()),
			NightAction: p.Role.NightAction(),
		}
		if info, ok := e.registry.Side(p.Role.Side()); ok {
			data.VictoryCondition = info.VictoryCondition
		}
		body, err := e.prompts.render(PromptRoleAnnounce, data)
		if err != nil {
			return err
		}
		e.apply(models.RecordChat(models.GameMasterName, []string{p.Name}, body))
	}
	return nil
}

func (e *Engine) rulesData() rulesData {
	var d rulesData
	for _, c := range roles.RoleCounts(e.registry, e.players) {
		role, err := e.registry.Lookup(c.Key)
		if err != nil {
			continue
		}
		info := roleInfo{Key: role.Key(), Side: string(role.Side()), NightAction: role.NightAction()}
		if side, ok := e.registry.Side(role.Side()); ok {
			info.VictoryCondition = side.VictoryCondition
		}
		d.Roles = append(d.Roles, info)
		d.Counts = append(d.Counts, roleCount{Key: c.Key, Count: c.Count})
	}
	return d
}

// checkVictory sets the result once a side has won, announces it and
// reveals every role. It reports whether the game is over.
func (e *Engine) checkVictory() bool {
	if e.state.Result != models.NoResult {
		return true
	}
	result := roles.CheckVictory(e.state.AliveNames, e.players)
	if result == models.NoResult {
		return false
	}
	e.log.Printf("game over on day %d: %s", e.state.Day, result)
	e.apply(models.SetResult(result))

	if body, err := e.prompts.render(PromptResult, resultData{string(result)}); err == nil {
		e.announce(body)
	} else {
		e.log.Printf("result announcement: %v", err)
	}
	if body, err := e.prompts.render(PromptReveal, revealData{e.reveal()}); err == nil {
		e.announce(body)
	} else {
		e.log.Printf("role reveal: %v", err)
	}
	return true
}

func (e *Engine) reveal() []revealEntry {
	var out []revealEntry
	for _, p := range e.players {
		out = append(out, revealEntry{Name: p.Name, Role: p.Role.Key(), State: e.playerStatus(p.Name)})
	}
	return out
}

// playerStatus is "Alive" or the phase in which name was excluded.
func (e *Engine) playerStatus(name string) string {
	if e.state.IsAlive(name) {
		return "Alive"
	}
	if i := slices.IndexFunc(e.state.DayVoteResultHistory, func(r models.Identified[string]) bool { return r.Value == name }); i >= 0 {
		return fmt.Sprintf("Excluded in Day %d daytime", i+1)
	}
	if i := slices.IndexFunc(e.state.NightVoteResultHistory, func(r models.Identified[string]) bool { return r.Value == name }); i >= 0 {
		return fmt.Sprintf("Excluded in Day %d nighttime", i+1)
	}
	return "Excluded"
}
