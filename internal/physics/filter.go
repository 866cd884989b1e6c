package physics

// ContactFilter selects which colliders a shape cast may report. It is
// derived once from the body's own layer and never mutated afterwards.
type ContactFilter struct {
	LayerMask    uint32
	UseLayerMask bool
	UseTriggers  bool
}

func (f ContactFilter) Accepts(layer int, trigger bool) bool {
	if trigger && !f.UseTriggers {
		return false
	}
	if !f.UseLayerMask {
		return true
	}
	if layer < 0 || layer >= MaxLayers {
		return false
	}
	return f.LayerMask&(1<<uint(layer)) != 0
}

// LayerMatrix holds, per layer, the mask of layers it collides with.
type LayerMatrix [MaxLayers]uint32

func NewLayerMatrix() LayerMatrix {
	var m LayerMatrix
	for i := range m {
		m[i] = ^uint32(0)
	}
	return m
}

// Ignore toggles collision between two layers symmetrically.
func (m *LayerMatrix) Ignore(a, b int, ignore bool) {
	if !validLayer(a) || !validLayer(b) {
		return
	}
	if ignore {
		m[a] &^= 1 << uint(b)
		m[b] &^= 1 << uint(a)
		return
	}
	m[a] |= 1 << uint(b)
	m[b] |= 1 << uint(a)
}

func (m LayerMatrix) CollisionMask(layer int) uint32 {
	if !validLayer(layer) {
		return 0
	}
	return m[layer]
}

func (m LayerMatrix) Collides(a, b int) bool {
	return m.CollisionMask(a)&(1<<uint(b)) != 0
}

// FilterForLayer builds the filter a body on layer uses: the layer's
// collision mask with triggers excluded.
func FilterForLayer(m LayerMatrix, layer int) ContactFilter {
	return ContactFilter{
		LayerMask:    m.CollisionMask(layer),
		UseLayerMask: true,
		UseTriggers:  false,
	}
}

func validLayer(layer int) bool {
	return layer >= 0 && layer < MaxLayers
}
