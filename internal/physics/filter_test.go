package physics

import "testing"

func TestLayerMatrix_IgnoreIsSymmetric(t *testing.T) {
	m := NewLayerMatrix()
	m.Ignore(1, 4, true)

	if m.Collides(1, 4) || m.Collides(4, 1) {
		t.Fatalf("layers 1 and 4 still collide")
	}
	if !m.Collides(1, 1) || !m.Collides(4, 0) {
		t.Fatalf("unrelated layer pairs stopped colliding")
	}

	m.Ignore(4, 1, false)
	if !m.Collides(1, 4) || !m.Collides(4, 1) {
		t.Fatalf("layers 1 and 4 should collide again")
	}
}

func TestLayerMatrix_OutOfRange(t *testing.T) {
	m := NewLayerMatrix()
	m.Ignore(-1, 40, true)

	if m.CollisionMask(-1) != 0 || m.CollisionMask(MaxLayers) != 0 {
		t.Fatalf("out of range layers must have an empty mask")
	}
	if m.CollisionMask(0) != ^uint32(0) {
		t.Fatalf("mask(0) = %#x, want all", m.CollisionMask(0))
	}
}

func TestContactFilter_Accepts(t *testing.T) {
	m := NewLayerMatrix()
	m.Ignore(2, 3, true)
	f := FilterForLayer(m, 2)

	tests := []struct {
		name    string
		filter  ContactFilter
		layer   int
		trigger bool
		want    bool
	}{
		{"same layer", f, 2, false, true},
		{"ignored layer", f, 3, false, false},
		{"trigger excluded", f, 0, true, false},
		{"triggers allowed", ContactFilter{UseTriggers: true}, 0, true, true},
		{"mask off accepts everything", ContactFilter{}, 3, false, true},
		{"negative layer", f, -1, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Accepts(tt.layer, tt.trigger); got != tt.want {
				t.Fatalf("Accepts(%d, %v) = %v, want %v", tt.layer, tt.trigger, got, tt.want)
			}
		})
	}
}
