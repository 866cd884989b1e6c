package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Versifine/kinematic/internal/audio"
	"github.com/Versifine/kinematic/internal/config"
	"github.com/Versifine/kinematic/internal/debug"
	"github.com/Versifine/kinematic/internal/event"
	"github.com/Versifine/kinematic/internal/level"
	"github.com/Versifine/kinematic/internal/logger"
	"github.com/Versifine/kinematic/internal/telemetry"
	"github.com/Versifine/kinematic/internal/tui"
	"github.com/Versifine/kinematic/internal/world"
	"github.com/gdamore/tcell/v2"
)

const defaultTUILogFile = "kinematic.log"

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config")
	mode := flag.String("mode", "", "override config mode (tui, console, headless)")
	steps := flag.Int("steps", 0, "override headless step count")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *mode != "" {
		cfg.Mode = *mode
	}
	if *steps > 0 {
		cfg.Headless.Steps = *steps
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		os.Exit(1)
	}

	// The terminal belongs to tcell in tui mode.
	if cfg.Mode == config.ModeTUI && cfg.Logging.File == "" {
		cfg.Logging.File = defaultTUILogFile
	}
	closer, err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
		File:   cfg.Logging.File,
	})
	if err != nil {
		slog.Error("Failed to init logger", "error", err)
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		slog.Error("Failed to run", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	log := logger.L()
	bus := event.NewBus()

	scene, err := level.Build(cfg, level.Options{Bus: bus, Logger: log})
	if err != nil {
		return err
	}

	if cfg.Telemetry.Listen != "" {
		hub := telemetry.NewHub(log)
		scene.World.OnStep(hub.PublishSnapshot)
		hub.Forward(bus)
		go func() {
			if err := hub.Serve(ctx, cfg.Telemetry.Listen); err != nil {
				log.Error("telemetry server stopped", "error", err)
			}
		}()
	}

	if cfg.Audio.Enabled {
		player := audio.NewPlayer(log)
		if err := player.Init(); err != nil {
			log.Warn("audio disabled", "error", err)
		} else {
			player.Subscribe(bus)
			defer player.Close()
		}
	}

	switch cfg.Mode {
	case config.ModeHeadless:
		return runHeadless(scene.World, cfg.Headless.Steps, bus, out)
	case config.ModeConsole:
		input, ok := scene.PulseInput()
		if !ok {
			return errors.New("console mode needs a pulse input")
		}
		return debug.NewConsole(scene.World, input, level.PlayerName, out).Start(ctx)
	default:
		return runTUI(ctx, scene, log)
	}
}

func runHeadless(w *world.World, steps int, bus *event.Bus, out io.Writer) error {
	for range steps {
		w.Step()
	}
	bus.Wait()

	snap := w.Snapshot()
	slog.Info("headless run finished", "steps", snap.Step, "time", snap.Time)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

func runTUI(ctx context.Context, scene *level.Scene, log *slog.Logger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	app, err := tui.New(screen, scene, log)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
