package engine

import (
	"context"

	"github.com/tatianab/werewolf/internal/agent"
	"github.com/tatianab/werewolf/internal/models"
	"github.com/tatianab/werewolf/internal/roles"
)

// chatRound lets alive participants speak in turn on their shared channel
// until every alive participant has used TurnsPerDay turns on average.
func (e *Engine) chatRound(ctx context.Context, participants []roles.Player, speakers Speakers, intro string) {
	ctx, span := e.tracer.Start(ctx, "game.chat")
	defer span.End()

	channel := roles.Names(participants)
	alive := 0
	for _, name := range channel {
		if e.state.IsAlive(name) {
			alive++
		}
	}
	e.apply(models.RecordChat(models.GameMasterName, channel, intro).
		Then(models.SetChatRemaining(alive * e.opts.TurnsPerDay)).
		Then(models.SetCurrentSpeaker("")))
	if alive == 0 {
		return
	}

	skipped := 0
	for e.state.ChatRemaining > 0 {
		if ctx.Err() != nil {
			return
		}
		name := speakers.Next()
		e.apply(models.SetCurrentSpeaker(name))
		if !e.state.IsAlive(name) {
			skipped++
			if skipped > len(channel) {
				e.log.Printf("no alive speaker among %v; ending chat", channel)
				break
			}
			continue
		}
		skipped = 0

		p, err := roles.FindPlayer(name, participants)
		if err != nil {
			e.log.Printf("chat: %v", err)
			break
		}
		u := models.SetChatRemaining(e.state.ChatRemaining - 1)
		if text, err := e.speak(ctx, p); err != nil {
			e.log.Printf("%s failed to speak: %v", p.Name, err)
		} else {
			u = models.RecordChat(p.Name, channel, text).Then(u)
		}
		e.apply(u)
	}
	e.apply(models.SetCurrentSpeaker(""))
}

func (e *Engine) speak(ctx context.Context, p roles.Player) (string, error) {
	system, err := e.systemPrompt(p, e.state)
	if err != nil {
		return "", err
	}
	user, err := e.prompts.render(PromptSpeak, nameData{p.Name})
	if err != nil {
		return "", err
	}
	dctx, cancel := e.decisionContext(ctx)
	defer cancel()
	return p.Agent.Speak(dctx, agent.Prompt{Kind: agent.KindChat, System: system, User: user})
}

// systemPrompt renders what p has seen of s.
func (e *Engine) systemPrompt(p roles.Player, s models.GameState) (string, error) {
	view := roles.FilterState(p, s)
	return e.prompts.render(PromptSystem, systemData{
		Name:     p.Name,
		Messages: models.Transcript(models.RelatedMessages(p.Name, view)),
	})
}
