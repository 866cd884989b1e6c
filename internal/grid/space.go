package grid

import (
	"github.com/Versifine/kinematic/internal/physics"
	"github.com/jakecoffman/cp/v2"
)

// Tile is a unit square of static geometry.
type Tile struct {
	Layer   int
	Trigger bool
}

type tilePos struct {
	X int
	Y int
}

// Space is a tile map plus a set of moving boxes. It is not safe for
// concurrent use; the simulation drives it from a single goroutine.
type Space struct {
	tiles map[tilePos]Tile
	boxes []*Box
}

func NewSpace() *Space {
	return &Space{tiles: make(map[tilePos]Tile)}
}

func (s *Space) SetTile(x, y int, tile Tile) {
	s.tiles[tilePos{X: x, Y: y}] = tile
}

func (s *Space) ClearTile(x, y int) {
	delete(s.tiles, tilePos{X: x, Y: y})
}

func (s *Space) TileAt(x, y int) (Tile, bool) {
	tile, ok := s.tiles[tilePos{X: x, Y: y}]
	return tile, ok
}

func (s *Space) IsSolid(x, y int) bool {
	tile, ok := s.TileAt(x, y)
	return ok && !tile.Trigger
}

// Attach adds a box centered at pos and returns it as a collider.
func (s *Space) Attach(pos cp.Vector, halfWidth, halfHeight float64, layer int) *Box {
	box := &Box{
		space:      s,
		pos:        pos,
		halfWidth:  halfWidth,
		halfHeight: halfHeight,
		layer:      layer,
	}
	s.boxes = append(s.boxes, box)
	return box
}

func (s *Space) Detach(box *Box) {
	for i, b := range s.boxes {
		if b == box {
			s.boxes = append(s.boxes[:i], s.boxes[i+1:]...)
			return
		}
	}
}

func (s *Space) Boxes() []*Box {
	return append([]*Box(nil), s.boxes...)
}

// Box is an axis-aligned collider that implements physics.Collider.
type Box struct {
	space      *Space
	pos        cp.Vector
	halfWidth  float64
	halfHeight float64
	layer      int
	trigger    bool
	owner      any
}

var _ physics.Collider = (*Box)(nil)

func (b *Box) Position() cp.Vector { return b.pos }
func (b *Box) SetPosition(pos cp.Vector) { b.pos = pos }
func (b *Box) Layer() int { return b.layer }
func (b *Box) SetOwner(owner any) { b.owner = owner }
func (b *Box) Owner() any { return b.owner }
func (b *Box) SetTrigger(trigger bool) { b.trigger = trigger }

func (b *Box) Bounds() AABB {
	return BoxAround(b.pos, b.halfWidth, b.halfHeight)
}

func (b *Box) Cast(direction cp.Vector, distance float64, filter physics.ContactFilter) []physics.Contact {
	if distance <= 0 {
		return nil
	}
	move := direction.Mult(distance)
	start := b.Bounds()
	swept := start.ExpandTowards(move.X, move.Y)

	hits := make([]physics.Contact, 0, physics.ContactBufferSize)
	for y := floorForMin(swept.MinY); y <= floorForMax(swept.MaxY); y++ {
		for x := floorForMin(swept.MinX); x <= floorForMax(swept.MaxX); x++ {
			tile, ok := b.space.TileAt(x, y)
			if !ok || !filter.Accepts(tile.Layer, tile.Trigger) {
				continue
			}
			if t, normal, hit := Sweep(start, move, TileAABB(x, y)); hit {
				hits = append(hits, physics.Contact{
					Normal:   normal,
					Distance: t * distance,
					Collider: b,
				})
			}
		}
	}

	for _, other := range b.space.boxes {
		if other == b || !filter.Accepts(other.layer, other.trigger) {
			continue
		}
		bounds := other.Bounds()
		if !swept.Intersects(bounds) {
			continue
		}
		if t, normal, hit := Sweep(start, move, bounds); hit {
			hits = append(hits, physics.Contact{
				Normal:   normal,
				Distance: t * distance,
				Other:    other.owner,
				Collider: b,
			})
		}
	}
	return hits
}
