package event

import "github.com/jakecoffman/cp/v2"

const (
	EventJumped = "body.jumped"
	EventLanded = "body.landed"
	EventPushed = "body.pushed"
)

type JumpedEvent struct {
	Step     uint64
	Body     string
	Velocity cp.Vector
}

type LandedEvent struct {
	Step         uint64
	Body         string
	Position     cp.Vector
	GroundNormal cp.Vector
	// ImpactSpeed is the downward speed just before touching down.
	ImpactSpeed float64
}

type PushedEvent struct {
	Step           uint64
	Pusher         string
	Target         string
	Requested      cp.Vector
	Applied        cp.Vector
	VelocityBefore float64
	VelocityAfter  float64
}

// Blocked reports whether the target could not move at all.
func (e PushedEvent) Blocked() bool {
	return e.Applied.LengthSq() == 0
}
