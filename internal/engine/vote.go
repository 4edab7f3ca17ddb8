package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/tatianab/werewolf/internal/agent"
	"github.com/tatianab/werewolf/internal/models"
	"github.com/tatianab/werewolf/internal/roles"
	"github.com/tatianab/werewolf/internal/vote"
)

const voteHint = `Extract the valid name of the player as the answer to "Who should be excluded from the game?"`

// voteRound asks every alive voter for a ballot and snapshots the round.
func (e *Engine) voteRound(ctx context.Context, ts models.TimeSpan, voters []roles.Player) (err error) {
	ctx, span := e.tracer.Start(ctx, "game.vote")
	defer func() { endSpan(span, err) }()

	name := PromptDayVote
	if ts == models.Night {
		name = PromptNightVote
	}
	question, err := e.prompts.render(name, phaseData{e.state.Day, e.state.AliveNames})
	if err != nil {
		return err
	}
	channel := roles.Names(voters)
	e.apply(models.SetVotesCurrent(models.Day, nil).
		Then(models.SetVotesCurrent(models.Night, nil)).
		Then(models.RecordChat(models.GameMasterName, channel, question)))

	snapshot := e.state
	updates := make([]models.Update, len(voters))
	g := new(errgroup.Group)
	if e.opts.Parallelism > 0 {
		g.SetLimit(e.opts.Parallelism)
	}
	for i, p := range voters {
		if !snapshot.IsAlive(p.Name) {
			continue
		}
		g.Go(func() error {
			updates[i] = e.castBallot(ctx, ts, p, snapshot, question)
			return nil
		})
	}
	_ = g.Wait()

	var combined models.Update
	for _, u := range updates {
		combined = combined.Then(u)
	}
	e.apply(combined)
	ballots := e.state.VotesCurrent()
	span.SetAttributes(attribute.Int("game.ballots", len(ballots)))
	e.apply(models.AppendVotesSnapshot(ts, ballots))
	return nil
}

// castBallot returns p's reasoning and ballot. Failures degrade to no ballot.
func (e *Engine) castBallot(ctx context.Context, ts models.TimeSpan, p roles.Player, s models.GameState, question string) models.Update {
	system, err := e.systemPrompt(p, s)
	if err != nil {
		e.log.Printf("%s cannot vote: %v", p.Name, err)
		return models.Update{}
	}
	dctx, cancel := e.decisionContext(ctx)
	defer cancel()

	text, err := p.Agent.Speak(dctx, agent.Prompt{Kind: agent.KindVote, System: system, User: question})
	if err != nil {
		e.log.Printf("%s failed to vote: %v", p.Name, err)
		return models.Update{}
	}
	u := models.RecordChat(p.Name, []string{models.GameMasterName}, text)
	target, err := p.Agent.ExtractName(dctx, text, s.AliveNames, voteHint)
	if err != nil {
		e.log.Printf("%s cast no valid ballot: %v", p.Name, err)
		return u
	}
	return u.Then(models.SetVotesCurrent(ts, models.Ballots{p.Name: target}))
}

// eliminate resolves the round and announces the result to everyone.
func (e *Engine) eliminate(ctx context.Context) (err error) {
	_, span := e.tracer.Start(ctx, "game.eliminate")
	defer func() { endSpan(span, err) }()

	u, out, err := vote.Eliminate(e.state, e.opts.TieBreak)
	if err != nil {
		return err
	}
	e.apply(u)
	span.SetAttributes(attribute.String("game.eliminated", out.Eliminated))
	if out.Eliminated != "" {
		e.log.Printf("%s eliminated in the %s of day %d", out.Eliminated, out.TimeSpan, e.state.Day)
	}

	votes := "-"
	if out.TimeSpan == models.Day {
		votes = formatBallots(out.Ballots)
	}
	body, err := e.prompts.render(PromptElimination, eliminationData{out.Eliminated, votes})
	if err != nil {
		return err
	}
	e.announce(body)
	return nil
}

func formatBallots(b models.Ballots) string {
	if len(b) == 0 {
		return "none"
	}
	voters := make([]string, 0, len(b))
	for v := range b {
		voters = append(voters, v)
	}
	slices.Sort(voters)
	parts := make([]string, 0, len(voters))
	for _, v := range voters {
		parts = append(parts, fmt.Sprintf("%s -> %s", v, b[v]))
	}
	return strings.Join(parts, ", ")
}
