package level

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/Versifine/kinematic/internal/config"
	"github.com/Versifine/kinematic/internal/controller"
	"github.com/Versifine/kinematic/internal/event"
	"github.com/jakecoffman/cp/v2"
)

func TestParse(t *testing.T) {
	l, err := Parse([]string{
		"  ^   ",
		"P B C/",
		"######",
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if l.Width != 6 || l.Height != 3 {
		t.Fatalf("size = %dx%d, want 6x3", l.Width, l.Height)
	}
	if l.Player != (Cell{X: 0, Y: 1}) {
		t.Fatalf("player = %+v, want (0,1)", l.Player)
	}
	if len(l.Crates) != 2 || !l.Crates[0].Pushable || l.Crates[1].Pushable {
		t.Fatalf("crates = %+v, want pushable then heavy", l.Crates)
	}
	if len(l.Slopes) != 1 || !l.Slopes[0].Rising {
		t.Fatalf("slopes = %+v", l.Slopes)
	}
	if len(l.Triggers) != 1 || l.Triggers[0] != (Cell{X: 2, Y: 2}) {
		t.Fatalf("triggers = %+v", l.Triggers)
	}
	if runs := l.Runs(); len(runs) != 1 || runs[0] != (Run{Y: 0, MinX: 0, Length: 6}) {
		t.Fatalf("runs = %+v, want one run of 6", runs)
	}
	if l.Static(0, 0) != GlyphSolid || l.Static(0, 1) != GlyphEmpty || l.Static(5, 1) != GlyphSlopeUp || l.Static(-1, 0) != GlyphEmpty {
		t.Fatalf("Static() lookups wrong")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		want error
	}{
		{"no player", []string{"###"}, ErrNoPlayer},
		{"two players", []string{"P P", "###"}, ErrManyPlayers},
		{"unknown glyph", []string{"P?", "##"}, ErrUnknownGlyph},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.rows); !errors.Is(err, tt.want) {
				t.Fatalf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSlope_Endpoints(t *testing.T) {
	a, b := Slope{Cell: Cell{X: 2, Y: 1}, Rising: true}.Endpoints()
	if a != (cp.Vector{X: 2, Y: 1}) || b != (cp.Vector{X: 3, Y: 2}) {
		t.Fatalf("rising = %v %v", a, b)
	}
	a, b = Slope{Cell: Cell{X: 2, Y: 1}}.Endpoints()
	if a != (cp.Vector{X: 2, Y: 2}) || b != (cp.Vector{X: 3, Y: 1}) {
		t.Fatalf("falling = %v %v", a, b)
	}
}

func newConfig(backend string, tiles ...string) *config.Config {
	cfg := config.Default()
	cfg.Level = config.LevelConfig{Backend: backend, Tiles: tiles}
	return cfg
}

func TestBuild_PlayerSettles(t *testing.T) {
	for _, backend := range []string{config.BackendGrid, config.BackendChipmunk} {
		t.Run(backend, func(t *testing.T) {
			scene, err := Build(newConfig(backend, "  P  ", "#####"), Options{})
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			for i := 0; i < 30; i++ {
				scene.World.Step()
			}
			snap, ok := scene.World.Snapshot().Find(PlayerName)
			if !ok {
				t.Fatalf("player missing from snapshot")
			}
			if !snap.Grounded {
				t.Fatalf("player not grounded after settling: %+v", snap)
			}
			bottom := snap.Position.Y - PlayerHalfSize
			if bottom < 1 || bottom > 1.02 {
				t.Fatalf("player bottom = %.4f, want resting on row 0", bottom)
			}
			if _, ok := scene.PulseInput(); !ok {
				t.Fatalf("default input should be a PulseInput")
			}
		})
	}
}

func TestBuild_JumpAndPushEvents(t *testing.T) {
	bus := event.NewBus()
	var mu sync.Mutex
	counts := map[string]int{}
	for _, name := range []string{event.EventJumped, event.EventPushed, event.EventLanded} {
		name := name
		bus.Subscribe(name, func(any) {
			mu.Lock()
			defer mu.Unlock()
			counts[name]++
		})
	}

	steps := []controller.Input{{JumpPressed: true}}
	for i := 0; i < 60; i++ {
		steps = append(steps, controller.Input{Horizontal: 1})
	}
	scene, err := Build(newConfig(config.BackendGrid, "#P  B   #", "#########"), Options{
		Bus:   bus,
		Input: controller.NewScriptedInput(steps...),
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	crate, ok := scene.World.Find("crate-1")
	if !ok {
		t.Fatalf("crate-1 missing")
	}
	start := crate.Body.Position().X

	for i := 0; i < len(steps)+20; i++ {
		scene.World.Step()
	}
	bus.Wait()

	if crate.Body.Position().X <= start {
		t.Fatalf("crate x = %.3f, want pushed right of %.3f", crate.Body.Position().X, start)
	}
	if crate.Body.Position().X+CrateHalfSize > 8 {
		t.Fatalf("crate left the level: x = %.3f", crate.Body.Position().X)
	}
	if counts[event.EventPushed] == 0 {
		t.Fatalf("no push events")
	}
	if counts[event.EventJumped] != 0 {
		t.Fatalf("jumped on first step before the player was grounded")
	}
	if counts[event.EventLanded] < 2 {
		t.Fatalf("landed events = %d, want player and crate", counts[event.EventLanded])
	}
}

func TestBuild_JumpFromGround(t *testing.T) {
	bus := event.NewBus()
	jumped := make(chan event.JumpedEvent, 1)
	bus.Subscribe(event.EventJumped, func(raw any) { jumped <- raw.(event.JumpedEvent) })

	steps := make([]controller.Input, 5)
	steps = append(steps, controller.Input{JumpPressed: true})
	scene, err := Build(newConfig(config.BackendGrid, "P ", "##"), Options{
		Bus:   bus,
		Input: controller.NewScriptedInput(steps...),
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for i := 0; i < len(steps); i++ {
		scene.World.Step()
	}
	bus.Wait()

	select {
	case e := <-jumped:
		if e.Body != PlayerName || e.Velocity.Y != 7 {
			t.Fatalf("jumped = %+v", e)
		}
	default:
		t.Fatalf("no jump event")
	}
	if v := scene.Player.Velocity().Y; v <= 0 {
		t.Fatalf("velocity.y = %v after jump step, want rising", v)
	}
}

func TestBuild_HeavyCrateBlocks(t *testing.T) {
	steps := make([]controller.Input, 60)
	for i := range steps {
		steps[i] = controller.Input{Horizontal: 1}
	}
	scene, err := Build(newConfig(config.BackendGrid, "P C  ", "#####"), Options{
		Input: controller.NewScriptedInput(steps...),
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	crate, _ := scene.World.Find("crate-1")
	start := crate.Body.Position()

	for range steps {
		scene.World.Step()
	}

	if crate.Body.Position().X != start.X {
		t.Fatalf("heavy crate moved from %.3f to %.3f", start.X, crate.Body.Position().X)
	}
	if crate.Kind != KindHeavyCrate {
		t.Fatalf("kind = %q", crate.Kind)
	}
	if scene.Player.Position().X+PlayerHalfSize > start.X-CrateHalfSize {
		t.Fatalf("player overlaps heavy crate")
	}
}

func TestBuild_Errors(t *testing.T) {
	if _, err := Build(newConfig(config.BackendGrid, "###"), Options{}); !errors.Is(err, ErrNoPlayer) {
		t.Fatalf("Build() error = %v, want ErrNoPlayer", err)
	}
	cfg := newConfig(config.BackendGrid, "P", "#")
	cfg.Layers.Ignore = [][]string{{"default", "nope"}}
	if _, err := Build(cfg, Options{}); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("Build() error = %v, want config.ErrInvalid", err)
	}
}

func TestBuild_MissingLayers(t *testing.T) {
	tests := []struct {
		name   string
		layers []string
		tiles  []string
		want   string
	}{
		{"no player layer", []string{"default", "crate"}, []string{"P", "#"}, `"player"`},
		{"no crate layer with crates", []string{"default", "player"}, []string{"PB", "##"}, `"crate"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newConfig(config.BackendGrid, tt.tiles...)
			cfg.Layers.Names = tt.layers
			_, err := Build(cfg, Options{})
			if !errors.Is(err, config.ErrInvalid) {
				t.Fatalf("Build() error = %v, want config.ErrInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Build() error = %v, want it to name %s", err, tt.want)
			}
		})
	}

	cfg := newConfig(config.BackendGrid, "P", "#")
	cfg.Layers.Names = []string{"default", "player"}
	if _, err := Build(cfg, Options{}); err != nil {
		t.Fatalf("Build() without crates error = %v, want nil", err)
	}
}
