package physics

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/jakecoffman/cp/v2"
)

const tolerance = 1e-12

type BodyConfig struct {
	Name             string
	Gravity          cp.Vector
	GravityModifier  float64
	MinGroundNormalY float64
	MinMoveDistance  float64
	ShellRadius      float64
	Pushable         bool

	// Layers defaults to a matrix where every layer collides with every other.
	Layers *LayerMatrix
	// Response defaults to DefaultResponse.
	Response Responder
	Animator Animator
	Logger   *slog.Logger
}

func DefaultBodyConfig() BodyConfig {
	return BodyConfig{
		Gravity:          DefaultGravity,
		GravityModifier:  DefaultGravityModifier,
		MinGroundNormalY: DefaultMinGroundNormalY,
		MinMoveDistance:  DefaultMinMoveDistance,
		ShellRadius:      DefaultShellRadius,
	}
}

func (c BodyConfig) validate() error {
	switch {
	case c.MinMoveDistance < 0 || math.IsNaN(c.MinMoveDistance):
		return fmt.Errorf("%w: min move distance %v", ErrInvalidConfig, c.MinMoveDistance)
	case c.ShellRadius < 0 || math.IsNaN(c.ShellRadius):
		return fmt.Errorf("%w: shell radius %v", ErrInvalidConfig, c.ShellRadius)
	case c.MinGroundNormalY < 0 || c.MinGroundNormalY >= 1:
		return fmt.Errorf("%w: min ground normal y %v outside [0,1)", ErrInvalidConfig, c.MinGroundNormalY)
	}
	return nil
}

type State struct {
	Position     cp.Vector
	Velocity     cp.Vector
	GroundNormal cp.Vector
	Grounded     bool
	Pushable     bool
}

type Body struct {
	name             string
	collider         Collider
	filter           ContactFilter
	gravity          cp.Vector
	gravityModifier  float64
	minGroundNormalY float64
	minMoveDistance  float64
	shellRadius      float64
	pushable         bool
	response         Responder
	animator         Animator
	log              *slog.Logger

	velocity       cp.Vector
	targetVelocity cp.Vector
	groundNormal   cp.Vector
	grounded       bool
	dt             float64
	resolving      int
}

// NewBody activates a body on top of collider. A nil collider is a
// configuration error and fails here rather than during a step.
func NewBody(collider Collider, cfg BodyConfig) (*Body, error) {
	if collider == nil {
		if cfg.Name != "" {
			return nil, fmt.Errorf("activate %q: %w", cfg.Name, ErrMissingCollider)
		}
		return nil, ErrMissingCollider
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	layers := NewLayerMatrix()
	if cfg.Layers != nil {
		layers = *cfg.Layers
	}
	response := cfg.Response
	if response == nil {
		response = DefaultResponse{}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	b := &Body{
		name:             cfg.Name,
		collider:         collider,
		filter:           FilterForLayer(layers, collider.Layer()),
		gravity:          cfg.Gravity,
		gravityModifier:  cfg.GravityModifier,
		minGroundNormalY: cfg.MinGroundNormalY,
		minMoveDistance:  cfg.MinMoveDistance,
		shellRadius:      cfg.ShellRadius,
		pushable:         cfg.Pushable,
		response:         response,
		animator:         cfg.Animator,
		log:              log.With("body", cfg.Name),
		groundNormal:     Up,
	}
	collider.SetOwner(b)
	b.log.Debug("body activated",
		"layer", collider.Layer(),
		"mask", fmt.Sprintf("%#x", b.filter.LayerMask),
		"pushable", b.pushable,
	)
	return b, nil
}

func (b *Body) Name() string { return b.name }
func (b *Body) IsPushable() bool { return b.pushable }
func (b *Body) Grounded() bool { return b.grounded }
func (b *Body) GroundNormal() cp.Vector { return b.groundNormal }
func (b *Body) Velocity() cp.Vector { return b.velocity }
func (b *Body) SetVelocity(v cp.Vector) { b.velocity = v }
func (b *Body) TargetVelocity() cp.Vector { return b.targetVelocity }
func (b *Body) Filter() ContactFilter { return b.filter }
func (b *Body) Position() cp.Vector { return b.collider.Position() }
func (b *Body) Collider() Collider { return b.collider }

// SetTargetVelocity stores the controller's intent for the next step. Only
// the horizontal component is used.
func (b *Body) SetTargetVelocity(v cp.Vector) {
	b.targetVelocity = v
}

// Teleport places the body without collision checks and clears its motion.
func (b *Body) Teleport(pos cp.Vector) {
	b.collider.SetPosition(pos)
	b.velocity = cp.Vector{}
	b.grounded = false
	b.groundNormal = Up
}

func (b *Body) State() State {
	return State{
		Position:     b.Position(),
		Velocity:     b.velocity,
		GroundNormal: b.groundNormal,
		Grounded:     b.grounded,
		Pushable:     b.pushable,
	}
}

func (b *Body) commit(move cp.Vector) {
	b.collider.SetPosition(b.collider.Position().Add(move))
}
