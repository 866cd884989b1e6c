package grid

import (
	"testing"

	"github.com/Versifine/kinematic/internal/physics"
	"github.com/jakecoffman/cp/v2"
)

const (
	halfSize = 0.4
	dt       = physics.DefaultFixedDelta
)

func addFloor(s *Space, minX, maxX, y int) {
	for x := minX; x <= maxX; x++ {
		s.SetTile(x, y, Tile{})
	}
}

func newBoxBody(t *testing.T, s *Space, x, y float64, layer int, mutate func(*physics.BodyConfig)) (*physics.Body, *Box) {
	t.Helper()
	box := s.Attach(cp.Vector{X: x, Y: y}, halfSize, halfSize, layer)
	cfg := physics.DefaultBodyConfig()
	cfg.Name = t.Name()
	if mutate != nil {
		mutate(&cfg)
	}
	body, err := physics.NewBody(box, cfg)
	if err != nil {
		t.Fatalf("NewBody() error = %v", err)
	}
	return body, box
}

func stepAll(n int, bodies ...*physics.Body) {
	for i := 0; i < n; i++ {
		for _, b := range bodies {
			b.Step(dt)
		}
	}
}

func TestCast_FilterAndOwner(t *testing.T) {
	s := NewSpace()
	s.SetTile(2, 0, Tile{Layer: 3})
	s.SetTile(3, 0, Tile{Trigger: true})
	s.SetTile(4, 0, Tile{})
	mover := s.Attach(cp.Vector{X: 0.5, Y: 0.5}, halfSize, halfSize, 1)
	other := s.Attach(cp.Vector{X: 6.5, Y: 0.5}, halfSize, halfSize, 1)
	other.SetOwner("crate")

	m := physics.NewLayerMatrix()
	m.Ignore(1, 3, true)
	hits := mover.Cast(cp.Vector{X: 1}, 10, physics.FilterForLayer(m, 1))

	if len(hits) != 2 {
		t.Fatalf("hits = %d, want 2 (layer-3 and trigger tiles filtered)", len(hits))
	}
	byOwner := map[any]physics.Contact{}
	for _, h := range hits {
		byOwner[h.Other] = h
		if h.Collider != mover {
			t.Fatalf("contact collider = %v, want mover", h.Collider)
		}
	}
	tile, ok := byOwner[nil]
	if !ok {
		t.Fatalf("missing tile contact")
	}
	approxDistance(t, tile.Distance, 4-0.9)
	crate, ok := byOwner["crate"]
	if !ok {
		t.Fatalf("missing box contact")
	}
	approxDistance(t, crate.Distance, 6.1-0.9)
}

func approxDistance(t *testing.T, got, want float64) {
	t.Helper()
	if got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("distance = %v, want %v", got, want)
	}
}

func TestBody_FallsAndRestsOnFloor(t *testing.T) {
	s := NewSpace()
	addFloor(s, -5, 5, 0)
	body, box := newBoxBody(t, s, 0.5, 3, 0, nil)

	stepAll(100, body)

	bottom := box.Bounds().MinY
	if bottom < 1 || bottom > 1+physics.DefaultShellRadius+1e-6 {
		t.Fatalf("bottom = %.6f, want resting just above 1", bottom)
	}
	if !body.Grounded() {
		t.Fatalf("grounded = false, want true")
	}
	if body.GroundNormal() != (cp.Vector{Y: 1}) {
		t.Fatalf("ground normal = %v, want up", body.GroundNormal())
	}
	if body.Velocity().Y < 0 {
		t.Fatalf("velocity.y = %v, want >= 0", body.Velocity().Y)
	}
}

func TestBody_WallStopsWalking(t *testing.T) {
	s := NewSpace()
	addFloor(s, -5, 10, 0)
	s.SetTile(3, 1, Tile{})
	s.SetTile(3, 2, Tile{})
	body, box := newBoxBody(t, s, 0.5, 1.41, 0, nil)
	body.SetTargetVelocity(cp.Vector{X: 5})

	stepAll(100, body)

	right := box.Bounds().MaxX
	if right > 3 || right < 3-physics.DefaultShellRadius-1e-6 {
		t.Fatalf("right edge = %.6f, want stopped just before 3", right)
	}
	if body.Velocity().X != 0 {
		t.Fatalf("velocity.x = %v, want 0 after wall contact", body.Velocity().X)
	}
	if !body.Grounded() {
		t.Fatalf("grounded = false while walking on floor")
	}
}

func TestBody_TriggerTileIsPassable(t *testing.T) {
	s := NewSpace()
	addFloor(s, -5, 10, 0)
	s.SetTile(2, 1, Tile{Trigger: true})
	body, box := newBoxBody(t, s, 0.5, 1.41, 0, nil)
	body.SetTargetVelocity(cp.Vector{X: 5})

	stepAll(50, body)

	if box.Position().X < 4 {
		t.Fatalf("x = %.3f, trigger tile blocked movement", box.Position().X)
	}
}

func TestBody_PushesCrateUntilWall(t *testing.T) {
	s := NewSpace()
	addFloor(s, -5, 10, 0)
	s.SetTile(6, 1, Tile{})

	player, playerBox := newBoxBody(t, s, 0.5, 1.41, 0, func(c *physics.BodyConfig) {
		c.Response = physics.NewPushResponse(physics.DefaultPushDecelerationRate)
	})
	crate, crateBox := newBoxBody(t, s, 2.5, 1.41, 0, func(c *physics.BodyConfig) {
		c.Pushable = true
	})
	player.SetTargetVelocity(cp.Vector{X: 4})

	stepAll(40, player, crate)
	if crateBox.Position().X <= 2.6 {
		t.Fatalf("crate x = %.3f, want pushed right", crateBox.Position().X)
	}

	stepAll(200, player, crate)

	crateBounds := crateBox.Bounds()
	if crateBounds.MaxX > 6 {
		t.Fatalf("crate right edge = %.6f, pushed into wall", crateBounds.MaxX)
	}
	if playerBox.Bounds().MaxX > crateBounds.MinX {
		t.Fatalf("player right edge %.6f overlaps crate left edge %.6f", playerBox.Bounds().MaxX, crateBounds.MinX)
	}
	if crateBounds.MinY < 1 {
		t.Fatalf("crate sank into floor: minY = %.6f", crateBounds.MinY)
	}
}

func TestBody_NonPushableCrateBlocks(t *testing.T) {
	s := NewSpace()
	addFloor(s, -5, 10, 0)
	player, playerBox := newBoxBody(t, s, 0.5, 1.41, 0, func(c *physics.BodyConfig) {
		c.Response = physics.NewPushResponse(physics.DefaultPushDecelerationRate)
	})
	crate, crateBox := newBoxBody(t, s, 2.5, 1.41, 0, nil)
	player.SetTargetVelocity(cp.Vector{X: 4})

	stepAll(60, player, crate)

	if crateBox.Position().X != 2.5 {
		t.Fatalf("crate x = %.6f, want unchanged", crateBox.Position().X)
	}
	if playerBox.Bounds().MaxX > crateBox.Bounds().MinX {
		t.Fatalf("player passed into crate")
	}
}

func TestBody_IgnoredLayerPassesThrough(t *testing.T) {
	s := NewSpace()
	addFloor(s, -5, 10, 0)
	layers := physics.NewLayerMatrix()
	layers.Ignore(1, 2, true)

	player, playerBox := newBoxBody(t, s, 0.5, 1.41, 1, func(c *physics.BodyConfig) {
		c.Layers = &layers
	})
	_, crateBox := newBoxBody(t, s, 2.5, 1.41, 2, func(c *physics.BodyConfig) {
		c.Layers = &layers
	})
	player.SetTargetVelocity(cp.Vector{X: 4})

	stepAll(60, player)

	if playerBox.Position().X < 4 {
		t.Fatalf("player x = %.3f, ignored layer blocked it", playerBox.Position().X)
	}
	if crateBox.Position().X != 2.5 {
		t.Fatalf("crate moved to %.3f", crateBox.Position().X)
	}
}

func TestSpace_Detach(t *testing.T) {
	s := NewSpace()
	a := s.Attach(cp.Vector{}, 1, 1, 0)
	b := s.Attach(cp.Vector{X: 5}, 1, 1, 0)

	s.Detach(a)

	boxes := s.Boxes()
	if len(boxes) != 1 || boxes[0] != b {
		t.Fatalf("boxes = %v, want only b", boxes)
	}
}
