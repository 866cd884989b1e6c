// Package tui renders a scene in the terminal and feeds key presses to the
// player's pulse input.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Versifine/kinematic/internal/controller"
	"github.com/Versifine/kinematic/internal/level"
	"github.com/Versifine/kinematic/internal/world"
	"github.com/gdamore/tcell/v2"
	"github.com/jakecoffman/cp/v2"
)

const (
	frameInterval = 16 * time.Millisecond
	// columnsPerUnit widens each tile to keep cells roughly square.
	columnsPerUnit = 2
)

var (
	styleDefault = tcell.StyleDefault
	styleSolid   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleSlope   = tcell.StyleDefault.Foreground(tcell.ColorOlive)
	styleTrigger = tcell.StyleDefault.Foreground(tcell.ColorPurple)
	stylePlayer  = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleCrate   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleHeavy   = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleStatus  = tcell.StyleDefault.Foreground(tcell.ColorBlue)
)

type App struct {
	screen tcell.Screen
	scene  *level.Scene
	input  *controller.PulseInput
	spawn  cp.Vector
	log    *slog.Logger
}

// New wraps an initialized screen. The scene must be driven by a
// PulseInput.
func New(screen tcell.Screen, scene *level.Scene, log *slog.Logger) (*App, error) {
	input, ok := scene.PulseInput()
	if !ok {
		return nil, fmt.Errorf("tui needs a pulse input, got %T", scene.Input)
	}
	if log == nil {
		log = slog.Default()
	}
	return &App{
		screen: screen,
		scene:  scene,
		input:  input,
		spawn:  scene.Player.Position(),
		log:    log,
	}, nil
}

// Run steps the world and redraws until ctx ends or the user quits.
func (a *App) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	last := time.Now()
	a.Draw(a.scene.World.Snapshot())

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok || !a.HandleEvent(ev) {
				return nil
			}
		case now := <-ticker.C:
			a.scene.World.Advance(now.Sub(last))
			last = now
			a.Draw(a.scene.World.Snapshot())
		}
	}
}

// HandleEvent applies one terminal event and reports whether to keep running.
func (a *App) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return a.handleKey(ev.Key(), ev.Rune())
	case *tcell.EventResize:
		a.screen.Sync()
	}
	return true
}

func (a *App) handleKey(key tcell.Key, r rune) bool {
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyLeft:
		a.input.PulseLeft()
	case tcell.KeyRight:
		a.input.PulseRight()
	case tcell.KeyUp:
		a.input.PressJump()
	case tcell.KeyRune:
		switch r {
		case 'q':
			return false
		case 'a', 'A':
			a.input.PulseLeft()
		case 'd', 'D':
			a.input.PulseRight()
		case ' ', 'w', 'W':
			a.input.PressJump()
		case 'x', 'X':
			a.input.Clear()
		case 'r', 'R':
			if err := a.scene.World.Teleport(level.PlayerName, a.spawn); err != nil {
				a.log.Warn("respawn failed", "error", err)
			}
		}
	}
	return true
}

// Draw renders the level with its bottom row at the bottom of the screen.
func (a *App) Draw(snap world.Snapshot) {
	a.screen.Clear()
	_, height := a.screen.Size()
	layout := a.scene.Layout

	for y := 0; y < layout.Height; y++ {
		for x := 0; x < layout.Width; x++ {
			ch, style := tileGlyph(layout.Static(x, y))
			if ch == ' ' {
				continue
			}
			sy := screenRow(float64(y)+0.5, height)
			for c := 0; c < columnsPerUnit; c++ {
				a.screen.SetContent(x*columnsPerUnit+c, sy, ch, nil, style)
			}
		}
	}

	for _, b := range snap.Bodies {
		ch, style := a.bodyGlyph(b)
		sx := int(math.Floor(b.Position.X * columnsPerUnit))
		a.screen.SetContent(sx, screenRow(b.Position.Y, height), ch, nil, style)
	}

	a.drawStatus(snap)
	a.screen.Show()
}

func (a *App) drawStatus(snap world.Snapshot) {
	line := fmt.Sprintf("step %d  t=%.2fs  clip=%s", snap.Step, snap.Time, a.scene.Sheet.Clip())
	if p, ok := snap.Find(level.PlayerName); ok {
		line += fmt.Sprintf("  pos=(%.2f, %.2f) vel=(%.2f, %.2f) ground=%t",
			p.Position.X, p.Position.Y, p.Velocity.X, p.Velocity.Y, p.Grounded)
	}
	drawText(a.screen, 0, 0, line, styleStatus)
	drawText(a.screen, 0, 1, "a/d or arrows move  space jump  x clear  r respawn  q quit", styleDefault)
}

func (a *App) bodyGlyph(b world.BodySnapshot) (rune, tcell.Style) {
	switch b.Kind {
	case level.KindPlayer:
		if a.scene.Controller.FacingLeft() {
			return '<', stylePlayer
		}
		return '>', stylePlayer
	case level.KindHeavyCrate:
		return '#', styleHeavy
	default:
		return '=', styleCrate
	}
}

func tileGlyph(g rune) (rune, tcell.Style) {
	switch g {
	case level.GlyphSolid:
		return '█', styleSolid
	case level.GlyphSlopeUp, level.GlyphSlopeDown:
		return g, styleSlope
	case level.GlyphTrigger:
		return '^', styleTrigger
	}
	return ' ', styleDefault
}

// screenRow maps a world y to a terminal row counted from the bottom.
func screenRow(y float64, height int) int {
	return height - 1 - int(math.Floor(y))
}

func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, style)
	}
}
