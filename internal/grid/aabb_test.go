package grid

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp/v2"
)

func TestSweep(t *testing.T) {
	unit := AABB{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}

	tests := []struct {
		name       string
		box        AABB
		move       cp.Vector
		wantHit    bool
		wantT      float64
		wantNormal cp.Vector
	}{
		{
			name:       "moving right into wall",
			box:        AABB{MinX: -2, MinY: 0.2, MaxX: -1, MaxY: 0.8},
			move:       cp.Vector{X: 2},
			wantHit:    true,
			wantT:      0.5,
			wantNormal: cp.Vector{X: -1},
		},
		{
			name:       "falling onto floor",
			box:        AABB{MinX: 0.1, MinY: 1.5, MaxX: 0.9, MaxY: 2.5},
			move:       cp.Vector{Y: -1},
			wantHit:    true,
			wantT:      0.5,
			wantNormal: cp.Vector{Y: 1},
		},
		{
			name:       "touching and moving into",
			box:        AABB{MinX: 1, MinY: 0, MaxX: 2, MaxY: 1},
			move:       cp.Vector{X: -0.5},
			wantHit:    true,
			wantT:      0,
			wantNormal: cp.Vector{X: 1},
		},
		{
			name:    "sliding along top edge",
			box:     AABB{MinX: -1, MinY: 1, MaxX: 0, MaxY: 2},
			move:    cp.Vector{X: 3},
			wantHit: false,
		},
		{
			name:    "moving away",
			box:     AABB{MinX: 2, MinY: 0, MaxX: 3, MaxY: 1},
			move:    cp.Vector{X: 1},
			wantHit: false,
		},
		{
			name:    "too short",
			box:     AABB{MinX: -3, MinY: 0, MaxX: -2, MaxY: 1},
			move:    cp.Vector{X: 1},
			wantHit: false,
		},
		{
			name:    "already overlapping",
			box:     AABB{MinX: 0.5, MinY: 0.5, MaxX: 1.5, MaxY: 1.5},
			move:    cp.Vector{X: 1},
			wantHit: false,
		},
		{
			name:       "diagonal hits side first",
			box:        AABB{MinX: -1.5, MinY: 0.9, MaxX: -0.5, MaxY: 1.9},
			move:       cp.Vector{X: 1, Y: -0.1},
			wantHit:    true,
			wantT:      0.5,
			wantNormal: cp.Vector{X: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotT, normal, hit := Sweep(tt.box, tt.move, unit)
			if hit != tt.wantHit {
				t.Fatalf("hit = %v, want %v", hit, tt.wantHit)
			}
			if !hit {
				return
			}
			if math.Abs(gotT-tt.wantT) > 1e-9 {
				t.Fatalf("t = %v, want %v", gotT, tt.wantT)
			}
			if normal != tt.wantNormal {
				t.Fatalf("normal = %v, want %v", normal, tt.wantNormal)
			}
		})
	}
}

func TestAABB_ExpandTowards(t *testing.T) {
	box := AABB{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}

	got := box.ExpandTowards(-2, 3)

	want := AABB{MinX: -2, MinY: 0, MaxX: 1, MaxY: 4}
	if got != want {
		t.Fatalf("ExpandTowards = %+v, want %+v", got, want)
	}
}

func TestFloorForBounds(t *testing.T) {
	if got := floorForMin(1.0 - 1e-12); got != 1 {
		t.Fatalf("floorForMin(1-eps) = %d, want 1", got)
	}
	if got := floorForMax(2.0); got != 1 {
		t.Fatalf("floorForMax(2) = %d, want 1", got)
	}
	if got := floorForMax(2.5); got != 2 {
		t.Fatalf("floorForMax(2.5) = %d, want 2", got)
	}
}
