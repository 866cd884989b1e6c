package physics

import "github.com/jakecoffman/cp/v2"

// Step advances the body by one fixed time step: gravity, controller
// intent, then a horizontal and a vertical sweep-and-slide pass.
func (b *Body) Step(dt float64) {
	if b == nil || dt <= 0 {
		return
	}
	b.grounded = false
	b.dt = dt

	b.velocity = b.velocity.Add(b.gravity.Mult(b.gravityModifier * dt))
	b.velocity.X = b.targetVelocity.X

	delta := b.velocity.Mult(dt)

	b.Move(MoveAlongGround(b.groundNormal, delta.X), false)
	b.Move(Up.Mult(delta.Y), true)

	b.updateAnimator()
}

// MoveAlongGround projects a horizontal distance onto the surface whose
// normal is groundNormal, so walking follows slopes.
func MoveAlongGround(groundNormal cp.Vector, dx float64) cp.Vector {
	return cp.Vector{X: groundNormal.Y, Y: -groundNormal.X}.Mult(dx)
}

func (b *Body) updateAnimator() {
	if b.animator == nil {
		return
	}
	b.animator.SetFloat(ParamMoveY, b.velocity.Y)
	b.animator.SetBool(ParamGrounded, b.grounded)
}
