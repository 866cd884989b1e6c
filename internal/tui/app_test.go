package tui

import (
	"context"
	"testing"
	"time"

	"github.com/Versifine/kinematic/internal/config"
	"github.com/Versifine/kinematic/internal/level"
	"github.com/gdamore/tcell/v2"
	"github.com/jakecoffman/cp/v2"
)

func newTestApp(t *testing.T) (*App, tcell.SimulationScreen) {
	t.Helper()
	cfg := config.Default()
	cfg.Level.Tiles = []string{"#P B C#", "#######"}
	scene, err := level.Build(cfg, level.Options{})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(80, 24)
	app, err := New(screen, scene, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return app, screen
}

func runeAt(s tcell.Screen, x, y int) rune {
	r, _, _, _ := s.GetContent(x, y)
	return r
}

func TestDraw_TilesAndBodies(t *testing.T) {
	app, screen := newTestApp(t)
	app.Draw(app.scene.World.Snapshot())

	tests := []struct {
		name string
		x, y int
		want rune
	}{
		{"floor left", 0, 23, '█'},
		{"floor right", 13, 23, '█'},
		{"left wall", 0, 22, '█'},
		{"player", 3, 22, '>'},
		{"crate", 7, 22, '='},
		{"heavy crate", 11, 22, '#'},
		{"open air", 5, 22, ' '},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runeAt(screen, tt.x, tt.y); got != tt.want {
				t.Fatalf("cell (%d,%d) = %q, want %q", tt.x, tt.y, got, tt.want)
			}
		})
	}
	if got := runeAt(screen, 0, 0); got != 's' {
		t.Fatalf("status line starts with %q, want 's'", got)
	}
}

func TestHandleKey(t *testing.T) {
	tests := []struct {
		name                  string
		key                   tcell.Key
		r                     rune
		keepRunning           bool
		left, right, jumpHeld bool
	}{
		{"a pulses left", tcell.KeyRune, 'a', true, true, false, false},
		{"right arrow pulses right", tcell.KeyRight, 0, true, false, true, false},
		{"space jumps", tcell.KeyRune, ' ', true, false, false, true},
		{"q quits", tcell.KeyRune, 'q', false, false, false, false},
		{"escape quits", tcell.KeyEscape, 0, false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestApp(t)
			if got := app.handleKey(tt.key, tt.r); got != tt.keepRunning {
				t.Fatalf("handleKey() = %v, want %v", got, tt.keepRunning)
			}
			left, right, jump := app.input.Held()
			if left != tt.left || right != tt.right || jump != tt.jumpHeld {
				t.Fatalf("Held() = %v %v %v, want %v %v %v", left, right, jump, tt.left, tt.right, tt.jumpHeld)
			}
		})
	}
}

func TestHandleKey_ClearAndRespawn(t *testing.T) {
	app, _ := newTestApp(t)
	app.handleKey(tcell.KeyRune, 'd')
	app.handleKey(tcell.KeyRune, 'x')
	if left, right, jump := app.input.Held(); left || right || jump {
		t.Fatalf("Held() after clear = %v %v %v, want none", left, right, jump)
	}

	if err := app.scene.World.Teleport(level.PlayerName, cp.Vector{X: 2.5, Y: 1.41}); err != nil {
		t.Fatalf("Teleport() error = %v", err)
	}
	app.handleKey(tcell.KeyRune, 'r')
	if got := app.scene.Player.Position(); got != app.spawn {
		t.Fatalf("position after respawn = %v, want %v", got, app.spawn)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	app, _ := newTestApp(t)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	if app.scene.World.StepCount() == 0 {
		t.Fatal("Run() never advanced the world")
	}
}
