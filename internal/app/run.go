package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tatianab/werewolf/internal/config"
	"github.com/tatianab/werewolf/internal/echo"
	"github.com/tatianab/werewolf/internal/models"
	"github.com/tatianab/werewolf/internal/telemetry"
	"github.com/tatianab/werewolf/internal/tui"
)

// ServiceName identifies game runs in traces.
const ServiceName = "werewolf"

const shutdownTimeout = 5 * time.Second

// Run plays one game as configured, printing to stdout or showing the
// terminal UI, and saves the final state. Stopping the game through ctx or
// the UI is not an error.
func Run(ctx context.Context, cfg config.Config) error {
	game, err := config.LoadGame(cfg.GameFile)
	if err != nil {
		return err
	}

	shutdown, err := telemetry.Setup(ctx, ServiceName, cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	if cfg.TUI {
		// The terminal belongs to the UI; logs go to a file.
		if err := os.MkdirAll(cfg.SaveDir, 0755); err != nil {
			return err
		}
		f, err := tea.LogToFile(filepath.Join(cfg.SaveDir, "werewolf.log"), ServiceName)
		if err != nil {
			return err
		}
		defer f.Close()
	}

	sess, err := Setup(ctx, cfg, game, log.Default())
	if err != nil {
		return err
	}
	defer sess.Close()

	names := sess.Names()
	level, err := echo.ParseLevel(cfg.OutputLevel, names)
	if err != nil {
		return err
	}

	var transcript func(models.GameState)
	if cfg.Transcript != "" {
		f, err := os.OpenFile(cfg.Transcript, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		transcript = echo.NewTranscript(f, echo.LevelAll, names).Echo
	}

	var state models.GameState
	var runErr error
	if cfg.TUI {
		state, runErr = tui.Run(ctx, names, level, func(ctx context.Context, show func(models.GameState)) (models.GameState, error) {
			return sess.Run(ctx, echo.Multi(show, transcript))
		})
	} else {
		console := echo.NewConsole(os.Stdout, level, names)
		state, runErr = sess.Run(ctx, echo.Multi(console.Echo, transcript))
	}

	path, err := Save(cfg, state)
	if err != nil {
		return errors.Join(runErr, fmt.Errorf("save: %w", err))
	}
	log.Printf("final state saved to %s", path)
	if !cfg.TUI {
		printResult(os.Stdout, state)
	}

	if errors.Is(runErr, context.Canceled) {
		log.Printf("game stopped on day %d", state.Day)
		return nil
	}
	return runErr
}

func printResult(w io.Writer, s models.GameState) {
	fmt.Fprintf(w, "Result: %s after %d day(s). Alive: %v\n", s.Result.Label(), s.Day, s.AliveNames)
}
