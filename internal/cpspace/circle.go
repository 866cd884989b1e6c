package cpspace

import (
	"github.com/Versifine/kinematic/internal/physics"
	"github.com/jakecoffman/cp/v2"
)

// Circle is a kinematic circle shape implementing physics.Collider.
type Circle struct {
	space  *Space
	body   *cp.Body
	shape  *cp.Shape
	radius float64
	layer  int
	group  uint
}

var _ physics.Collider = (*Circle)(nil)

func (c *Circle) Position() cp.Vector { return c.body.Position() }
func (c *Circle) Layer() int { return c.layer }
func (c *Circle) Radius() float64 { return c.radius }
func (c *Circle) Shape() *cp.Shape { return c.shape }

// SetPosition moves the body and reindexes its shape so other casts see
// the new bounds.
func (c *Circle) SetPosition(pos cp.Vector) {
	c.body.SetPosition(pos)
	c.space.space.ReindexShape(c.shape)
}

func (c *Circle) SetOwner(owner any) {
	c.body.UserData = owner
}

// Cast sweeps the circle along direction with a radius segment query.
// Contacts whose normal does not oppose the motion are dropped, which
// covers shapes the circle is already leaving.
func (c *Circle) Cast(direction cp.Vector, distance float64, filter physics.ContactFilter) []physics.Contact {
	if distance <= 0 {
		return nil
	}
	start := c.Position()
	end := start.Add(direction.Mult(distance))

	mask := cp.ALL_CATEGORIES
	if filter.UseLayerMask {
		mask = uint(filter.LayerMask)
	}
	query := cp.NewShapeFilter(c.group, layerBit(c.layer), mask)

	hits := make([]physics.Contact, 0, physics.ContactBufferSize)
	c.space.space.SegmentQuery(start, end, c.radius, query, func(shape *cp.Shape, _ cp.Vector, normal cp.Vector, alpha float64, _ interface{}) {
		if shape.Sensor() && !filter.UseTriggers {
			return
		}
		if normal.Dot(direction) >= 0 {
			return
		}
		hits = append(hits, physics.Contact{
			Normal:   normal,
			Distance: alpha * distance,
			Other:    shape.Body().UserData,
			Collider: c,
		})
	}, nil)
	return hits
}
