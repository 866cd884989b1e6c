package level

import (
	"fmt"
	"log/slog"

	"github.com/Versifine/kinematic/internal/anim"
	"github.com/Versifine/kinematic/internal/config"
	"github.com/Versifine/kinematic/internal/controller"
	"github.com/Versifine/kinematic/internal/cpspace"
	"github.com/Versifine/kinematic/internal/event"
	"github.com/Versifine/kinematic/internal/grid"
	"github.com/Versifine/kinematic/internal/physics"
	"github.com/Versifine/kinematic/internal/world"
	"github.com/jakecoffman/cp/v2"
)

const (
	PlayerName = "player"

	KindPlayer     = "player"
	KindCrate      = "crate"
	KindHeavyCrate = "heavy_crate"

	PlayerHalfSize = 0.4
	CrateHalfSize  = 0.45

	playerLayerName = "player"
	crateLayerName  = "crate"
	triggerLayer    = 0
)

type Options struct {
	Bus    *event.Bus
	Logger *slog.Logger
	// Input drives the player. A PulseInput is created when nil.
	Input controller.InputSource
	// Animators receive the player's parameters next to the scene's sheet.
	Animators []physics.Animator
}

// Scene is a built level, ready to step.
type Scene struct {
	World      *world.World
	Layout     *Layout
	Player     *physics.Body
	Controller *controller.Platformer
	Input      controller.InputSource
	Sheet      *anim.Sheet

	Grid     *grid.Space
	Chipmunk *cpspace.Space
}

// PulseInput returns the scene's input when it is pulse driven.
func (s *Scene) PulseInput() (*controller.PulseInput, bool) {
	p, ok := s.Input.(*controller.PulseInput)
	return p, ok
}

// colliderFactory hides the backend when spawning bodies.
type colliderFactory func(center cp.Vector, halfSize float64, layer int) physics.Collider

func Build(cfg *config.Config, opts Options) (*Scene, error) {
	layout, err := Parse(cfg.Level.Tiles)
	if err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}
	layers, err := cfg.LayerMatrix()
	if err != nil {
		return nil, err
	}
	playerLayer, ok := cfg.LayerIndex(playerLayerName)
	if !ok {
		return nil, fmt.Errorf("%w: layers.names has no %q layer", config.ErrInvalid, playerLayerName)
	}
	crateLayer, ok := cfg.LayerIndex(crateLayerName)
	if !ok && len(layout.Crates) > 0 {
		return nil, fmt.Errorf("%w: layers.names has no %q layer", config.ErrInvalid, crateLayerName)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	scene := &Scene{Layout: layout, Sheet: anim.NewSheet(log)}
	var spawn colliderFactory
	switch cfg.Level.Backend {
	case config.BackendChipmunk:
		scene.Chipmunk = buildChipmunk(layout)
		spawn = func(center cp.Vector, halfSize float64, layer int) physics.Collider {
			return scene.Chipmunk.AttachCircle(center, halfSize, layer)
		}
	default:
		scene.Grid = buildGrid(layout, log)
		spawn = func(center cp.Vector, halfSize float64, layer int) physics.Collider {
			return scene.Grid.Attach(center, halfSize, halfSize, layer)
		}
	}

	w := world.New(world.Options{
		FixedDelta:       cfg.Physics.FixedDelta,
		MaxStepsPerFrame: cfg.Physics.MaxStepsPerFrame,
		Bus:              opts.Bus,
		Logger:           log,
	})
	scene.World = w

	base := cfg.BodyConfig()
	base.Layers = &layers
	base.Logger = log

	playerCfg := base
	playerCfg.Name = PlayerName
	playerCfg.GravityModifier = cfg.Player.GravityModifier
	push := physics.NewPushResponse(cfg.Physics.PushDecelerationRate)
	push.OnPush = w.NotifyPush
	playerCfg.Response = push
	animator := anim.NewMulti(log, append([]physics.Animator{scene.Sheet}, opts.Animators...)...)
	playerCfg.Animator = animator

	player, err := physics.NewBody(spawn(spawnPoint(layout.Player, PlayerHalfSize), PlayerHalfSize, playerLayer), playerCfg)
	if err != nil {
		return nil, err
	}
	scene.Player = player

	scene.Input = opts.Input
	if scene.Input == nil {
		scene.Input = controller.NewPulseInput(0, 0)
	}
	ctrl := controller.NewPlatformer(player, scene.Input, animator, cfg.ControllerConfig(), log)
	ctrl.OnJump = func(v cp.Vector) { w.NotifyJump(PlayerName, v) }
	scene.Controller = ctrl
	if _, err := w.Add(PlayerName, KindPlayer, player, ctrl); err != nil {
		return nil, err
	}

	for i, c := range layout.Crates {
		crateCfg := base
		crateCfg.Name = fmt.Sprintf("crate-%d", i+1)
		crateCfg.Pushable = c.Pushable
		kind := KindCrate
		if !c.Pushable {
			kind = KindHeavyCrate
		}
		body, err := physics.NewBody(spawn(spawnPoint(c.Cell, CrateHalfSize), CrateHalfSize, crateLayer), crateCfg)
		if err != nil {
			return nil, err
		}
		if _, err := w.Add(crateCfg.Name, kind, body, nil); err != nil {
			return nil, err
		}
	}

	log.Info("level built",
		"backend", cfg.Level.Backend,
		"width", layout.Width,
		"height", layout.Height,
		"crates", len(layout.Crates),
	)
	return scene, nil
}

// spawnPoint rests a body of the given half size on the cell's floor.
func spawnPoint(c Cell, halfSize float64) cp.Vector {
	return cp.Vector{X: float64(c.X) + 0.5, Y: float64(c.Y) + halfSize + physics.DefaultShellRadius}
}

func buildGrid(l *Layout, log *slog.Logger) *grid.Space {
	s := grid.NewSpace()
	for _, c := range l.Solids {
		s.SetTile(c.X, c.Y, grid.Tile{})
	}
	for _, c := range l.Triggers {
		s.SetTile(c.X, c.Y, grid.Tile{Layer: triggerLayer, Trigger: true})
	}
	if len(l.Slopes) > 0 {
		log.Warn("grid backend has no slopes, treating them as solid tiles", "slopes", len(l.Slopes))
		for _, sl := range l.Slopes {
			s.SetTile(sl.X, sl.Y, grid.Tile{})
		}
	}
	return s
}

func buildChipmunk(l *Layout) *cpspace.Space {
	s := cpspace.NewSpace()
	for _, r := range l.Runs() {
		center := cp.Vector{X: float64(r.MinX) + float64(r.Length)/2, Y: float64(r.Y) + 0.5}
		s.AddBox(center, float64(r.Length), 1, 0)
	}
	for _, sl := range l.Slopes {
		a, b := sl.Endpoints()
		s.AddSegment(a, b, 0, 0)
	}
	for _, c := range l.Triggers {
		s.AddTrigger(c.Center(), 1, 1, triggerLayer)
	}
	return s
}
