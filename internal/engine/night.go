package engine

import (
	"context"
	"maps"

	"golang.org/x/sync/errgroup"

	"github.com/tatianab/werewolf/internal/models"
	"github.com/tatianab/werewolf/internal/roles"
)

// nightActions asks every alive non-werewolf to act. Protections granted
// during the night add up.
func (e *Engine) nightActions(ctx context.Context) (err error) {
	ctx, span := e.tracer.Start(ctx, "game.night_action")
	defer func() { endSpan(span, err) }()

	start, err := e.prompts.render(PromptNightStart, phaseData{e.state.Day, e.state.AliveNames})
	if err != nil {
		return err
	}
	e.announce(start)

	snapshot := e.state
	asks := make([]models.Update, len(e.players))
	for i, p := range e.players {
		if roles.IsWerewolf(p) || !snapshot.IsAlive(p.Name) {
			continue
		}
		body, err := e.prompts.render(PromptNightAction, nightActionData{
			Role:        p.Role.Key(),
			NightAction: p.Role.NightAction(),
			Question:    p.Role.Question(),
			AliveNames:  snapshot.AliveNames,
		})
		if err != nil {
			return err
		}
		asks[i] = models.RecordChat(models.GameMasterName, []string{p.Name}, body)
	}

	updates := make([]models.Update, len(e.players))
	g := new(errgroup.Group)
	if e.opts.Parallelism > 0 {
		g.SetLimit(e.opts.Parallelism)
	}
	for i, p := range e.players {
		if asks[i].ChatState == nil {
			continue
		}
		g.Go(func() error {
			local := models.Merge(snapshot, asks[i])
			view := roles.FilterState(p, local)
			dctx, cancel := e.decisionContext(ctx)
			defer cancel()
			act := p.Role.ActInNight(dctx, roles.NightContext{
				Self:     p,
				Players:  e.players,
				Messages: models.RelatedMessages(p.Name, view),
				State:    view,
			})
			updates[i] = asks[i].Then(act)
			return nil
		})
	}
	_ = g.Wait()

	safe := maps.Clone(snapshot.SafeNames)
	if safe == nil {
		safe = models.NameSet{}
	}
	var combined models.Update
	for _, u := range updates {
		maps.Copy(safe, u.SafeNames)
		combined = combined.Then(u)
	}
	combined.SafeNames = safe
	e.apply(combined)
	if len(safe) > 0 {
		e.log.Printf("night %d: %d player(s) protected", e.state.Day, len(safe))
	}
	return nil
}
