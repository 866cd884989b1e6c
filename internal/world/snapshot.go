package world

import (
	"fmt"
	"strings"

	"github.com/jakecoffman/cp/v2"
)

type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func vec(v cp.Vector) Vec { return Vec{X: v.X, Y: v.Y} }

type BodySnapshot struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	Position     Vec    `json:"position"`
	Velocity     Vec    `json:"velocity"`
	GroundNormal Vec    `json:"ground_normal"`
	Grounded     bool   `json:"grounded"`
	Pushable     bool   `json:"pushable"`
}

type Snapshot struct {
	Step   uint64         `json:"step"`
	Time   float64        `json:"time"`
	Bodies []BodySnapshot `json:"bodies"`
}

func (s Snapshot) Find(name string) (BodySnapshot, bool) {
	for _, b := range s.Bodies {
		if b.Name == name {
			return b, true
		}
	}
	return BodySnapshot{}, false
}

func (s Snapshot) String() string {
	infos := make([]string, 0, len(s.Bodies))
	for _, b := range s.Bodies {
		infos = append(infos, b.String())
	}
	return fmt.Sprintf("Snapshot [Step: %d] [Time: %.2fs] | [Bodies(%d): %s]",
		s.Step, s.Time, len(s.Bodies), strings.Join(infos, ", "))
}

func (b BodySnapshot) String() string {
	return fmt.Sprintf("%s#%d (%.2f, %.2f) vel=(%.2f, %.2f) ground=%t",
		b.Name, b.ID, b.Position.X, b.Position.Y, b.Velocity.X, b.Velocity.Y, b.Grounded)
}

func (w *World) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshotLocked()
}

func (w *World) snapshotLocked() Snapshot {
	step := w.step.Load()
	bodies := make([]BodySnapshot, 0, len(w.entities))
	for _, e := range w.entities {
		st := e.Body.State()
		bodies = append(bodies, BodySnapshot{
			ID:           e.ID,
			Name:         e.Name,
			Kind:         e.Kind,
			Position:     vec(st.Position),
			Velocity:     vec(st.Velocity),
			GroundNormal: vec(st.GroundNormal),
			Grounded:     st.Grounded,
			Pushable:     st.Pushable,
		})
	}
	return Snapshot{
		Step:   step,
		Time:   float64(step) * w.fixedDelta,
		Bodies: bodies,
	}
}
