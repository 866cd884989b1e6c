package physics

import "github.com/jakecoffman/cp/v2"

type PushEvent struct {
	Pusher         *Body
	Target         Pushable
	Requested      cp.Vector
	Applied        cp.Vector
	VelocityBefore float64
	VelocityAfter  float64
}

// PushResponse extends the default contact response: a side contact with a
// pushable body damps the pusher's horizontal velocity and drives the
// target through its own sweep-and-slide pass this same step.
//
// The pusher then cancels only the velocity that still closes on the target
// after the target's own move. After a free push the pusher keeps
// DecelerationRate times its speed, so dot(velocity, normal) stays negative
// for that contact; a blocked push cancels it fully.
type PushResponse struct {
	DecelerationRate float64
	OnPush           func(PushEvent)
}

func NewPushResponse(rate float64) PushResponse {
	return PushResponse{DecelerationRate: rate}
}

func (p PushResponse) Respond(b *Body, hit Contact, normal cp.Vector) {
	target, ok := hit.Other.(Pushable)
	if !ok || normal.X == 0 || !target.IsPushable() {
		b.CancelVelocity(normal)
		return
	}
	if self, isBody := target.(*Body); isBody && self == b {
		b.CancelVelocity(normal)
		return
	}

	before := b.velocity.X
	b.velocity.X *= p.DecelerationRate

	requested := MoveAlongGround(target.GroundNormal(), before*b.dt)
	applied := target.Move(requested, false)

	// The target moved away along the contact during this pass, so only
	// the part of our velocity that still closes on it gets cancelled.
	var surfaceVelocity cp.Vector
	if b.dt > 0 {
		surfaceVelocity = applied.Mult(1 / b.dt)
	}
	b.cancelRelative(normal, surfaceVelocity)

	b.log.Debug("push",
		"requested", requested,
		"applied", applied,
		"velocity_before", before,
		"velocity_after", b.velocity.X,
	)
	if p.OnPush != nil {
		p.OnPush(PushEvent{
			Pusher:         b,
			Target:         target,
			Requested:      requested,
			Applied:        applied,
			VelocityBefore: before,
			VelocityAfter:  b.velocity.X,
		})
	}
}
