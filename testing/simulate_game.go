package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tatianab/werewolf/internal/app"
	"github.com/tatianab/werewolf/internal/config"
	"github.com/tatianab/werewolf/internal/models"
)

func main() {
	games := flag.Int("games", 100, "Number of games to play")
	players := flag.Int("players", 5, "Players per game")
	werewolves := flag.Int("werewolves", 1, "Werewolves per game")
	knights := flag.Int("knights", 1, "Knights per game")
	tellers := flag.Int("fortunetellers", 1, "Fortune tellers per game")
	seed := flag.Int64("seed", 1, "Seed of the first game; game i uses seed+i")
	flag.Parse()

	game := config.DefaultGame()
	game.Players = *players
	game.Roles = map[string]int{"werewolf": *werewolves, "knight": *knights, "fortuneteller": *tellers}
	quiet := log.New(io.Discard, "", 0)

	var mu sync.Mutex
	results := map[models.Result]int{}
	days := 0

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.NumCPU())
	for i := range *games {
		g.Go(func() error {
			cfg := config.Config{Model: config.RandomModel, Seed: *seed + int64(i)}
			sess, err := app.Setup(ctx, cfg, game, quiet)
			if err != nil {
				return err
			}
			defer sess.Close()
			s, err := sess.Run(ctx, nil)
			if err != nil {
				return fmt.Errorf("game %d: %w", i, err)
			}
			mu.Lock()
			results[s.Result]++
			days += s.Day
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("Simulation failed: %v", err)
	}

	fmt.Printf("--- %d games, %d players, %d werewolves ---\n", *games, *players, *werewolves)
	for _, r := range []models.Result{models.VillagersWin, models.WerewolvesWin, models.NoResult} {
		fmt.Printf("%-15s %5d (%.1f%%)\n", r.Label(), results[r], 100*float64(results[r])/float64(max(*games, 1)))
	}
	fmt.Printf("Average days: %.2f\n", float64(days)/float64(max(*games, 1)))
}
