package physics

import (
	"cmp"
	"slices"

	"github.com/jakecoffman/cp/v2"
)

// Move resolves one axis of movement against the world and commits the
// clamped displacement, which it returns. It is also the entry point used
// by other bodies to push this one. A body that is already resolving a
// move (a push chain that loops back to it) does not move again.
func (b *Body) Move(move cp.Vector, yMovement bool) cp.Vector {
	if b.resolving > 0 {
		b.log.Debug("skip re-entrant move", "axis", axisFor(yMovement), "move", move)
		return cp.Vector{}
	}
	b.resolving++
	defer func() { b.resolving-- }()

	return b.resolve(MovementRequest{Displacement: move, Axis: axisFor(yMovement)})
}

func (b *Body) resolve(req MovementRequest) cp.Vector {
	move := req.Displacement
	distance := move.Length()

	if distance <= b.minMoveDistance {
		b.commit(move)
		return move
	}

	direction := move.Mult(1 / distance)
	hits := b.collider.Cast(direction, distance+b.shellRadius, b.filter)
	slices.SortStableFunc(hits, func(a, c Contact) int {
		return cmp.Compare(a.Distance, c.Distance)
	})

	for _, hit := range hits {
		normal := b.classify(hit, req.Axis)
		b.response.Respond(b, hit, normal)

		allowed := hit.Distance - b.shellRadius
		if allowed < distance {
			distance = allowed
		}
	}
	if distance < 0 {
		distance = 0
	}

	applied := direction.Mult(distance)
	b.commit(applied)
	return applied
}
