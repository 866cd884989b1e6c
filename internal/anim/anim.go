// Package anim receives per-step parameters from bodies and controllers and
// derives a clip for rendering.
package anim

import (
	"log/slog"
	"math"
	"sync"

	"github.com/Versifine/kinematic/internal/physics"
)

const (
	ParamMoveX  = "moveX"
	ParamJumped = "jumped"
	ParamMoveY  = physics.ParamMoveY
	ParamGround = physics.ParamGrounded
)

type Clip string

const (
	ClipIdle Clip = "idle"
	ClipRun  Clip = "run"
	ClipJump Clip = "jump"
	ClipFall Clip = "fall"
)

// runThreshold matches the controller's facing dead-zone.
const runThreshold = 0.01

var knownParams = map[string]struct{}{
	ParamMoveX:  {},
	ParamJumped: {},
	ParamMoveY:  {},
	ParamGround: {},
}

// Sheet is a small parameter-driven state machine. It is safe for
// concurrent use so renderers can read it while the simulation writes.
type Sheet struct {
	mu       sync.RWMutex
	floats   map[string]float64
	ints     map[string]int
	bools    map[string]bool
	triggers map[string]int
	warned   map[string]bool
	log      *slog.Logger
}

var _ physics.Animator = (*Sheet)(nil)

func NewSheet(log *slog.Logger) *Sheet {
	if log == nil {
		log = slog.Default()
	}
	return &Sheet{
		floats:   make(map[string]float64),
		ints:     make(map[string]int),
		bools:    make(map[string]bool),
		triggers: make(map[string]int),
		warned:   make(map[string]bool),
		log:      log,
	}
}

func (s *Sheet) SetFloat(name string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkParam(name)
	s.floats[name] = value
}

func (s *Sheet) SetInteger(name string, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkParam(name)
	s.ints[name] = value
}

func (s *Sheet) SetBool(name string, value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkParam(name)
	s.bools[name] = value
}

func (s *Sheet) SetTrigger(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkParam(name)
	s.triggers[name]++
}

// HasParam reports whether the sheet declares name.
func (s *Sheet) HasParam(name string) bool {
	_, ok := knownParams[name]
	return ok
}

// checkParam warns once per unknown parameter name. Caller holds mu.
func (s *Sheet) checkParam(name string) {
	if _, ok := knownParams[name]; ok || s.warned[name] {
		return
	}
	s.warned[name] = true
	s.log.Warn("unknown animator parameter", "param", name)
}

func (s *Sheet) Float(name string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.floats[name]
}

func (s *Sheet) Integer(name string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ints[name]
}

func (s *Sheet) Bool(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bools[name]
}

// ConsumeTrigger reports whether name fired since the last call and resets it.
func (s *Sheet) ConsumeTrigger(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	fired := s.triggers[name] > 0
	delete(s.triggers, name)
	return fired
}

// Clip picks the clip for the current parameters.
func (s *Sheet) Clip() Clip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.bools[ParamGround] {
		if s.floats[ParamMoveY] > 0 || s.triggers[ParamJumped] > 0 {
			return ClipJump
		}
		return ClipFall
	}
	if math.Abs(s.floats[ParamMoveX]) > runThreshold {
		return ClipRun
	}
	return ClipIdle
}

// IntegerSetter is implemented by machines with integer parameters.
type IntegerSetter interface {
	SetInteger(name string, value int)
}

// Declarer is implemented by machines that only accept the parameters they
// declare. Machines without it receive everything.
type Declarer interface {
	HasParam(name string) bool
}

// Multi fans parameters out to every machine registered under the same
// owner that declares the parameter, such as a sprite sheet plus a sound cue
// driver.
type Multi struct {
	mu       sync.RWMutex
	machines []physics.Animator
	log      *slog.Logger
}

var _ physics.Animator = (*Multi)(nil)

func NewMulti(log *slog.Logger, machines ...physics.Animator) *Multi {
	if log == nil {
		log = slog.Default()
	}
	m := &Multi{log: log}
	for _, machine := range machines {
		m.Add(machine)
	}
	return m
}

func (m *Multi) Add(machine physics.Animator) {
	if machine == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.machines = append(m.machines, machine)
}

func (m *Multi) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.machines)
}

// each calls fn for every machine declaring name.
func (m *Multi) each(name string, fn func(physics.Animator)) {
	m.mu.RLock()
	machines := make([]physics.Animator, len(m.machines))
	copy(machines, m.machines)
	m.mu.RUnlock()

	delivered := 0
	for _, machine := range machines {
		if d, ok := machine.(Declarer); ok && !d.HasParam(name) {
			continue
		}
		fn(machine)
		delivered++
	}
	if delivered == 0 && len(machines) > 0 {
		m.log.Debug("animator parameter not declared", "param", name)
	}
}

func (m *Multi) SetFloat(name string, value float64) {
	m.each(name, func(a physics.Animator) { a.SetFloat(name, value) })
}

func (m *Multi) SetBool(name string, value bool) {
	m.each(name, func(a physics.Animator) { a.SetBool(name, value) })
}

func (m *Multi) SetTrigger(name string) {
	m.each(name, func(a physics.Animator) { a.SetTrigger(name) })
}

func (m *Multi) SetInteger(name string, value int) {
	m.each(name, func(a physics.Animator) {
		if setter, ok := a.(IntegerSetter); ok {
			setter.SetInteger(name, value)
		}
	})
}
