package audio

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Versifine/kinematic/internal/event"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const (
	// landThreshold is the impact speed below which landings stay silent.
	landThreshold = 1.5
	fullImpact    = 12.0
	pushCooldown  = 150 * time.Millisecond
	bufferLength  = 100 * time.Millisecond
)

// Player mixes cues onto the speaker. Before Init, or when audio is
// disabled, cues are dropped.
type Player struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	rate        beep.SampleRate
	initialized bool
	lastPush    time.Time
	now         func() time.Time
	log         *slog.Logger

	// sink receives finished cue streamers. It defaults to the mixer.
	sink func(beep.Streamer)
}

func NewPlayer(log *slog.Logger) *Player {
	if log == nil {
		log = slog.Default()
	}
	p := &Player{
		mixer: &beep.Mixer{},
		rate:  SampleRate,
		now:   time.Now,
		log:   log.With("component", "audio"),
	}
	p.sink = p.addToMixer
	return p
}

// Init opens the speaker. Calling it again is a no-op.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return nil
	}
	if err := speaker.Init(p.rate, p.rate.N(bufferLength)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

// Close silences everything queued.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	p.initialized = false
}

func (p *Player) addToMixer(s beep.Streamer) {
	p.mu.Lock()
	ready := p.initialized
	p.mu.Unlock()
	if !ready {
		return
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

func (p *Player) Play(c Cue, volume float64) {
	s, err := NewCue(c, p.rate, volume)
	if err != nil {
		p.log.Warn("cue build failed", "cue", c, "error", err)
		return
	}
	p.sink(s)
}

// Subscribe plays cues for the body events on bus.
func (p *Player) Subscribe(bus *event.Bus) {
	bus.Subscribe(event.EventJumped, func(any) {
		p.Play(CueJump, 0.6)
	})
	bus.Subscribe(event.EventLanded, func(raw any) {
		e, ok := raw.(event.LandedEvent)
		if !ok || e.ImpactSpeed < landThreshold {
			return
		}
		p.Play(CueLand, e.ImpactSpeed/fullImpact)
	})
	bus.Subscribe(event.EventPushed, func(raw any) {
		e, ok := raw.(event.PushedEvent)
		if !ok || !p.pushReady() {
			return
		}
		if e.Blocked() {
			p.Play(CueBlocked, 0.4)
			return
		}
		p.Play(CuePush, 0.4)
	})
}

// pushReady rate-limits push cues; pushes fire every step while in contact.
func (p *Player) pushReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	if now.Sub(p.lastPush) < pushCooldown {
		return false
	}
	p.lastPush = now
	return true
}
