// Package controller turns player input into body intent.
package controller

import (
	"log/slog"
	"math"

	"github.com/Versifine/kinematic/internal/anim"
	"github.com/Versifine/kinematic/internal/physics"
	"github.com/jakecoffman/cp/v2"
)

const (
	DefaultMaxSpeed          = 7.0
	DefaultJumpTakeOffSpeed  = 7.0
	DefaultJumpReleaseFactor = 0.5

	facingDeadZone = 0.01
)

// Input is sampled once per step. Horizontal is in [-1, 1]; the jump flags
// are edges, true only for the step in which the button changed.
type Input struct {
	Horizontal   float64
	JumpPressed  bool
	JumpReleased bool
}

type InputSource interface {
	Input() Input
}

// Body is the part of physics.Body the controller drives.
type Body interface {
	Velocity() cp.Vector
	SetVelocity(v cp.Vector)
	Grounded() bool
	SetTargetVelocity(v cp.Vector)
}

var _ Body = (*physics.Body)(nil)

type Config struct {
	MaxSpeed          float64
	JumpTakeOffSpeed  float64
	JumpReleaseFactor float64
}

func DefaultConfig() Config {
	return Config{
		MaxSpeed:          DefaultMaxSpeed,
		JumpTakeOffSpeed:  DefaultJumpTakeOffSpeed,
		JumpReleaseFactor: DefaultJumpReleaseFactor,
	}
}

// Platformer is the player controller: run, jump from the ground, cut the
// jump short on release.
type Platformer struct {
	cfg        Config
	input      InputSource
	body       Body
	animator   physics.Animator
	facingLeft bool
	log        *slog.Logger

	OnJump func(v cp.Vector)
}

func NewPlatformer(body Body, input InputSource, animator physics.Animator, cfg Config, log *slog.Logger) *Platformer {
	if log == nil {
		log = slog.Default()
	}
	return &Platformer{
		cfg:      cfg,
		input:    input,
		body:     body,
		animator: animator,
		log:      log,
	}
}

func (p *Platformer) FacingLeft() bool { return p.facingLeft }

// Update computes this step's intent. It must run before the body steps so
// the grounded flag it reads is the one left by the previous step.
func (p *Platformer) Update() {
	var in Input
	if p.input != nil {
		in = p.input.Input()
	}
	move := clamp(in.Horizontal, -1, 1)

	if p.animator != nil {
		p.animator.SetFloat(anim.ParamMoveX, math.Abs(move))
	}

	v := p.body.Velocity()
	switch {
	case in.JumpPressed && p.body.Grounded():
		v.Y = p.cfg.JumpTakeOffSpeed
		p.body.SetVelocity(v)
		if p.animator != nil {
			p.animator.SetTrigger(anim.ParamJumped)
		}
		p.log.Debug("jump", "velocity", v)
		if p.OnJump != nil {
			p.OnJump(v)
		}
	case in.JumpReleased && v.Y > 0:
		v.Y *= p.cfg.JumpReleaseFactor
		p.body.SetVelocity(v)
	}

	flip := move < -facingDeadZone
	if p.facingLeft {
		flip = move > facingDeadZone
	}
	if flip {
		p.facingLeft = !p.facingLeft
	}

	p.body.SetTargetVelocity(cp.Vector{X: move * p.cfg.MaxSpeed})
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}
