// Package cpspace backs physics colliders with a Chipmunk space. Moving
// bodies are circles swept with radius segment queries; static geometry can
// be boxes, segments (for slopes) or sensor triggers.
package cpspace

import (
	"github.com/Versifine/kinematic/internal/physics"
	"github.com/jakecoffman/cp/v2"
)

// Space wraps a *cp.Space used purely for queries. It is never stepped.
type Space struct {
	space     *cp.Space
	circles   []*Circle
	nextGroup uint
}

func NewSpace() *Space {
	return &Space{space: cp.NewSpace(), nextGroup: 1}
}

// Raw exposes the underlying Chipmunk space.
func (s *Space) Raw() *cp.Space { return s.space }

// AddBox adds a static axis-aligned box centered at center.
func (s *Space) AddBox(center cp.Vector, width, height float64, layer int) *cp.Shape {
	body := s.space.AddBody(cp.NewStaticBody())
	body.SetPosition(center)
	shape := s.space.AddShape(cp.NewBox(body, width, height, 0))
	shape.SetFilter(staticFilter(layer))
	s.space.ReindexShape(shape)
	return shape
}

// AddSegment adds a static segment on the space's shared static body.
func (s *Space) AddSegment(a, b cp.Vector, radius float64, layer int) *cp.Shape {
	shape := s.space.AddShape(cp.NewSegment(s.space.StaticBody, a, b, radius))
	shape.SetFilter(staticFilter(layer))
	return shape
}

// AddTrigger adds a sensor box. Casts skip it unless the filter asks for
// triggers.
func (s *Space) AddTrigger(center cp.Vector, width, height float64, layer int) *cp.Shape {
	shape := s.AddBox(center, width, height, layer)
	shape.SetSensor(true)
	return shape
}

// AttachCircle adds a kinematic circle and returns it as a collider. Every
// circle gets its own group so its casts never report itself.
func (s *Space) AttachCircle(pos cp.Vector, radius float64, layer int) *Circle {
	body := s.space.AddBody(cp.NewKinematicBody())
	body.SetPosition(pos)
	shape := s.space.AddShape(cp.NewCircle(body, radius, cp.Vector{}))

	group := s.nextGroup
	s.nextGroup++
	shape.SetFilter(cp.NewShapeFilter(group, layerBit(layer), cp.ALL_CATEGORIES))
	s.space.ReindexShape(shape)

	c := &Circle{space: s, body: body, shape: shape, radius: radius, layer: layer, group: group}
	s.circles = append(s.circles, c)
	return c
}

func (s *Space) Circles() []*Circle {
	return append([]*Circle(nil), s.circles...)
}

// Overlapping reports the sensor shapes the circle currently touches.
func (s *Space) Overlapping(c *Circle) []*cp.Shape {
	var out []*cp.Shape
	pos := c.Position()
	filter := cp.NewShapeFilter(c.group, layerBit(c.layer), cp.ALL_CATEGORIES)
	s.space.BBQuery(cp.NewBBForCircle(pos, c.radius), filter, func(shape *cp.Shape, _ interface{}) {
		if !shape.Sensor() {
			return
		}
		if shape.PointQuery(pos).Distance < c.radius {
			out = append(out, shape)
		}
	}, nil)
	return out
}

func staticFilter(layer int) cp.ShapeFilter {
	return cp.NewShapeFilter(cp.NO_GROUP, layerBit(layer), cp.ALL_CATEGORIES)
}

func layerBit(layer int) uint {
	if layer < 0 || layer >= physics.MaxLayers {
		return 0
	}
	return 1 << uint(layer)
}
