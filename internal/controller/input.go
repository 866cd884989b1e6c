package controller

import (
	"sync"
	"time"
)

const (
	DefaultMovePulse = 180 * time.Millisecond
	DefaultJumpPulse = 250 * time.Millisecond
)

// PulseInput is fed by terminals that only report key presses. Each press
// holds its direction for a short pulse; jump is held for its own pulse and
// then released.
type PulseInput struct {
	mu         sync.Mutex
	movePulse  time.Duration
	jumpPulse  time.Duration
	now        func() time.Time
	leftUntil  time.Time
	rightUntil time.Time
	jumpUntil  time.Time
	jumpHeld   bool
	pressed    bool
	released   bool
}

var _ InputSource = (*PulseInput)(nil)

func NewPulseInput(movePulse, jumpPulse time.Duration) *PulseInput {
	if movePulse <= 0 {
		movePulse = DefaultMovePulse
	}
	if jumpPulse <= 0 {
		jumpPulse = DefaultJumpPulse
	}
	return &PulseInput{movePulse: movePulse, jumpPulse: jumpPulse, now: time.Now}
}

func (p *PulseInput) PulseLeft() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.leftUntil = p.now().Add(p.movePulse)
	p.rightUntil = time.Time{}
}

func (p *PulseInput) PulseRight() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rightUntil = p.now().Add(p.movePulse)
	p.leftUntil = time.Time{}
}

// PressJump starts or extends a jump hold.
func (p *PulseInput) PressJump() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.jumpHeld {
		p.pressed = true
	}
	p.jumpHeld = true
	p.jumpUntil = p.now().Add(p.jumpPulse)
}

func (p *PulseInput) ReleaseJump() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked()
}

func (p *PulseInput) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.leftUntil = time.Time{}
	p.rightUntil = time.Time{}
	p.releaseLocked()
}

func (p *PulseInput) releaseLocked() {
	if p.jumpHeld {
		p.jumpHeld = false
		p.released = true
	}
	p.jumpUntil = time.Time{}
}

// Input expires finished pulses and returns the current state. Jump edges
// are reported once.
func (p *PulseInput) Input() Input {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()

	if p.jumpHeld && !now.Before(p.jumpUntil) {
		p.releaseLocked()
	}

	var in Input
	if now.Before(p.leftUntil) {
		in.Horizontal = -1
	} else if now.Before(p.rightUntil) {
		in.Horizontal = 1
	}
	in.JumpPressed = p.pressed
	in.JumpReleased = p.released
	p.pressed = false
	p.released = false
	return in
}

// Held reports the directions and jump currently held, for status lines.
func (p *PulseInput) Held() (left, right, jump bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	return now.Before(p.leftUntil), now.Before(p.rightUntil), p.jumpHeld && now.Before(p.jumpUntil)
}

// ScriptedInput replays a fixed sequence, one entry per step, then idles.
type ScriptedInput struct {
	mu    sync.Mutex
	steps []Input
}

func NewScriptedInput(steps ...Input) *ScriptedInput {
	return &ScriptedInput{steps: steps}
}

func (s *ScriptedInput) Input() Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.steps) == 0 {
		return Input{}
	}
	in := s.steps[0]
	s.steps = s.steps[1:]
	return in
}
