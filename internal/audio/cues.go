// Package audio plays short synthesized cues for body events.
package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
)

const SampleRate = beep.SampleRate(44100)

type Cue int

const (
	CueJump Cue = iota
	CueLand
	CuePush
	CueBlocked
)

func (c Cue) String() string {
	switch c {
	case CueJump:
		return "jump"
	case CueLand:
		return "land"
	case CuePush:
		return "push"
	case CueBlocked:
		return "blocked"
	default:
		return fmt.Sprintf("cue(%d)", int(c))
	}
}

type note struct {
	freq     float64
	duration time.Duration
}

var cueNotes = map[Cue][]note{
	CueJump:    {{freq: 523.25, duration: 40 * time.Millisecond}, {freq: 783.99, duration: 60 * time.Millisecond}},
	CueLand:    {{freq: 110, duration: 70 * time.Millisecond}},
	CuePush:    {{freq: 196, duration: 50 * time.Millisecond}},
	CueBlocked: {{freq: 98, duration: 30 * time.Millisecond}, {freq: 82.41, duration: 30 * time.Millisecond}},
}

const fadeDuration = 10 * time.Millisecond

// Duration is the total length of a cue.
func (c Cue) Duration() time.Duration {
	var d time.Duration
	for _, n := range cueNotes[c] {
		d += n.duration
	}
	return d
}

// NewCue builds the streamer for c at the given volume in [0, 1].
func NewCue(c Cue, rate beep.SampleRate, volume float64) (beep.Streamer, error) {
	notes, ok := cueNotes[c]
	if !ok {
		return nil, fmt.Errorf("unknown cue %v", c)
	}
	parts := make([]beep.Streamer, 0, len(notes))
	for _, n := range notes {
		tone, err := generators.SineTone(rate, n.freq)
		if err != nil {
			return nil, fmt.Errorf("%v tone %.1fHz: %w", c, n.freq, err)
		}
		samples := rate.N(n.duration)
		parts = append(parts, newFade(beep.Take(samples, tone), samples, rate.N(fadeDuration)))
	}
	return withVolume(beep.Seq(parts...), volume), nil
}

// fade ramps the first and last samples of a fixed-length stream to
// avoid clicks.
type fade struct {
	streamer beep.Streamer
	position int
	total    int
	ramp     int
}

func newFade(s beep.Streamer, total, ramp int) beep.Streamer {
	if ramp*2 > total {
		ramp = total / 2
	}
	return &fade{streamer: s, total: total, ramp: ramp}
}

func (f *fade) Stream(samples [][2]float64) (int, bool) {
	n, ok := f.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		gain := 1.0
		switch {
		case f.ramp > 0 && f.position < f.ramp:
			gain = float64(f.position) / float64(f.ramp)
		case f.ramp > 0 && f.position >= f.total-f.ramp:
			gain = float64(f.total-f.position) / float64(f.ramp)
		}
		samples[i][0] *= gain
		samples[i][1] *= gain
		f.position++
	}
	return n, ok
}

func (f *fade) Err() error { return f.streamer.Err() }

func withVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(math.Min(vol, 1))}
}
