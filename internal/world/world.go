// Package world owns the simulated bodies and drives them with a fixed
// time step.
package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Versifine/kinematic/internal/event"
	"github.com/Versifine/kinematic/internal/physics"
	"github.com/jakecoffman/cp/v2"
)

const DefaultMaxStepsPerFrame = 5

var (
	ErrDuplicateName = errors.New("duplicate entity name")
	ErrUnknownEntity = errors.New("unknown entity")
)

// Controller computes a body's intent. It runs before any body steps.
type Controller interface {
	Update()
}

type Entity struct {
	ID         int
	Name       string
	Kind       string
	Body       *physics.Body
	Controller Controller

	wasGrounded bool
}

type Options struct {
	FixedDelta       float64
	MaxStepsPerFrame int
	Bus              *event.Bus
	Logger           *slog.Logger
}

type World struct {
	mu          sync.RWMutex
	fixedDelta  float64
	maxSteps    int
	accumulator float64
	entities    []*Entity
	byName      map[string]*Entity
	observers   []func(Snapshot)
	bus         *event.Bus
	log         *slog.Logger

	step atomic.Uint64
}

func New(opts Options) *World {
	if opts.FixedDelta <= 0 {
		opts.FixedDelta = physics.DefaultFixedDelta
	}
	if opts.MaxStepsPerFrame <= 0 {
		opts.MaxStepsPerFrame = DefaultMaxStepsPerFrame
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &World{
		fixedDelta: opts.FixedDelta,
		maxSteps:   opts.MaxStepsPerFrame,
		byName:     make(map[string]*Entity),
		bus:        opts.Bus,
		log:        opts.Logger,
	}
}

func (w *World) FixedDelta() float64 { return w.fixedDelta }
func (w *World) StepCount() uint64 { return w.step.Load() }

// Add registers a body. Bodies step in the order they were added.
func (w *World) Add(name, kind string, body *physics.Body, ctrl Controller) (*Entity, error) {
	if body == nil {
		return nil, fmt.Errorf("add %q: %w", name, physics.ErrMissingCollider)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.byName[name]; ok {
		return nil, fmt.Errorf("add %q: %w", name, ErrDuplicateName)
	}
	e := &Entity{
		ID:         len(w.entities) + 1,
		Name:       name,
		Kind:       kind,
		Body:       body,
		Controller: ctrl,
	}
	w.entities = append(w.entities, e)
	w.byName[name] = e
	w.log.Debug("entity added", "id", e.ID, "name", name, "kind", kind)
	return e, nil
}

// OnStep registers fn to receive a snapshot after every step. fn runs on
// the stepping goroutine and must not call back into the world's mutators.
func (w *World) OnStep(fn func(Snapshot)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observers = append(w.observers, fn)
}

// Step runs exactly one fixed step.
func (w *World) Step() {
	w.mu.Lock()
	w.stepLocked()
	snap, observers := w.snapshotLocked(), w.observers
	w.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

func (w *World) stepLocked() {
	n := w.step.Add(1)
	for _, e := range w.entities {
		if e.Controller != nil {
			e.Controller.Update()
		}
	}
	for _, e := range w.entities {
		before := e.Body.Velocity()
		e.Body.Step(w.fixedDelta)

		grounded := e.Body.Grounded()
		if grounded && !e.wasGrounded {
			w.publish(event.EventLanded, event.LandedEvent{
				Step:         n,
				Body:         e.Name,
				Position:     e.Body.Position(),
				GroundNormal: e.Body.GroundNormal(),
				ImpactSpeed:  math.Max(0, -before.Y),
			})
		}
		e.wasGrounded = grounded
	}
}

// Advance feeds elapsed wall time into the accumulator and runs as many
// fixed steps as fit, up to the per-frame cap. Time beyond the cap is
// dropped. It returns the number of steps run.
func (w *World) Advance(elapsed time.Duration) int {
	if elapsed <= 0 {
		return 0
	}
	w.mu.Lock()
	w.accumulator += elapsed.Seconds()
	steps := 0
	var snaps []Snapshot
	for w.accumulator >= w.fixedDelta && steps < w.maxSteps {
		w.accumulator -= w.fixedDelta
		w.stepLocked()
		snaps = append(snaps, w.snapshotLocked())
		steps++
	}
	if w.accumulator >= w.fixedDelta {
		w.log.Debug("dropping simulation time", "seconds", w.accumulator, "cap", w.maxSteps)
		w.accumulator = math.Mod(w.accumulator, w.fixedDelta)
	}
	observers := w.observers
	w.mu.Unlock()

	for _, snap := range snaps {
		for _, fn := range observers {
			fn(snap)
		}
	}
	return steps
}

// Run advances the world on every tick until ctx is cancelled.
func (w *World) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Duration(w.fixedDelta * float64(time.Second))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			w.Advance(now.Sub(last))
			last = now
		}
	}
}

func (w *World) Find(name string) (*Entity, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.byName[name]
	return e, ok
}

// Teleport moves a named body without collision checks.
func (w *World) Teleport(name string, pos cp.Vector) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.byName[name]
	if !ok {
		return fmt.Errorf("teleport %q: %w", name, ErrUnknownEntity)
	}
	e.Body.Teleport(pos)
	e.wasGrounded = false
	return nil
}

// NotifyJump publishes a jump for the named body. Controllers call it from
// inside a step.
func (w *World) NotifyJump(name string, v cp.Vector) {
	w.publish(event.EventJumped, event.JumpedEvent{
		Step:     w.step.Load(),
		Body:     name,
		Velocity: v,
	})
}

// NotifyPush publishes a push reported by a body's push response.
func (w *World) NotifyPush(e physics.PushEvent) {
	w.publish(event.EventPushed, event.PushedEvent{
		Step:           w.step.Load(),
		Pusher:         e.Pusher.Name(),
		Target:         pushableName(e.Target),
		Requested:      e.Requested,
		Applied:        e.Applied,
		VelocityBefore: e.VelocityBefore,
		VelocityAfter:  e.VelocityAfter,
	})
}

func (w *World) publish(name string, evt any) {
	if w.bus == nil {
		return
	}
	w.bus.Publish(name, evt)
}

func pushableName(p physics.Pushable) string {
	if b, ok := p.(*physics.Body); ok {
		return b.Name()
	}
	return fmt.Sprintf("%T", p)
}
