package physics

import "github.com/jakecoffman/cp/v2"

// Collider binds a Body to a shape living in some collision backend. The
// backend owns the authoritative position; the body only moves it through
// SetPosition after a resolved axis pass.
type Collider interface {
	Position() cp.Vector
	SetPosition(pos cp.Vector)
	Layer() int
	// SetOwner records the object reported as Contact.Other when another
	// collider's cast hits this one.
	SetOwner(owner any)
	// Cast sweeps the shape from its current position along direction (unit
	// length) up to distance and returns every accepted contact. The returned
	// slice belongs to the caller.
	Cast(direction cp.Vector, distance float64, filter ContactFilter) []Contact
}

// Contact is a single hit produced by one Cast call. It lives for one axis
// pass and is never stored.
type Contact struct {
	Normal   cp.Vector
	Distance float64
	// Other is the owner of the hit shape, nil for static geometry.
	Other    any
	Collider Collider
}

type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	if a == AxisY {
		return "y"
	}
	return "x"
}

func axisFor(yMovement bool) Axis {
	if yMovement {
		return AxisY
	}
	return AxisX
}

// MovementRequest is consumed synchronously by the resolver.
type MovementRequest struct {
	Displacement cp.Vector
	Axis         Axis
}

// Animator receives per-step state. Unknown parameter names are the
// receiver's problem.
type Animator interface {
	SetFloat(name string, value float64)
	SetBool(name string, value bool)
	SetTrigger(name string)
}

// Pushable is the capability a contact's Other must expose to receive a
// forced horizontal move. Anything else is treated as not pushable.
type Pushable interface {
	IsPushable() bool
	GroundNormal() cp.Vector
	Move(move cp.Vector, yMovement bool) cp.Vector
}

// Responder is the per-body contact hook, chosen at construction.
type Responder interface {
	Respond(b *Body, hit Contact, normal cp.Vector)
}

// DefaultResponse cancels the velocity component driving into the surface.
type DefaultResponse struct{}

func (DefaultResponse) Respond(b *Body, _ Contact, normal cp.Vector) {
	b.CancelVelocity(normal)
}

// classify updates the ground state for one contact and returns the normal
// the responder should use. Ground contacts seen on the vertical pass only
// cancel vertical penetration.
func (b *Body) classify(hit Contact, axis Axis) cp.Vector {
	normal := hit.Normal
	if normal.Y > b.minGroundNormalY {
		b.grounded = true
		if axis == AxisY {
			b.groundNormal = normal
			normal.X = 0
		}
	}
	return normal
}

// CancelVelocity removes the velocity component pointing into normal.
func (b *Body) CancelVelocity(normal cp.Vector) {
	b.cancelRelative(normal, cp.Vector{})
}

// cancelRelative cancels against a surface that itself moves with
// surfaceVelocity. A zero normal is ignored.
func (b *Body) cancelRelative(normal, surfaceVelocity cp.Vector) {
	lenSq := normal.LengthSq()
	if lenSq < tolerance {
		return
	}
	projection := b.velocity.Sub(surfaceVelocity).Dot(normal)
	if projection < 0 {
		b.velocity = b.velocity.Sub(normal.Mult(projection / lenSq))
	}
}
