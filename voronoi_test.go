package fracture

import (
	"math"
	"math/rand"
	"testing"

	"github.com/jakecoffman/cp/v2"
)

var square = cp.BB{L: -50, B: -50, R: 50, T: 50}

func TestVoronoi_TwoSites(t *testing.T) {
	v := NewVoronoi()
	diagram := v.Compute([]cp.Vector{{X: -25, Y: 0}, {X: 25, Y: 0}}, square)
	if diagram == nil {
		t.Fatal("Expected a diagram")
	}
	if len(diagram.Cells) != 2 {
		t.Fatalf("Expected 2 cells, got %d", len(diagram.Cells))
	}

	for i, cell := range diagram.Cells {
		if area := math.Abs(cp.AreaForPoly(len(cell.Verts), cell.Verts, 0)); math.Abs(area-5000) > 1e-9 {
			t.Errorf("Cell %d area %v, expected 5000", i, area)
		}
		for _, p := range cell.Verts {
			if p.X*cell.Site.X < 0 {
				t.Errorf("Cell %d vertex %v is on the wrong side of the bisector", i, p)
			}
		}
	}
	if diagram.Cells[0].Site != (cp.Vector{X: -25, Y: 0}) {
		t.Errorf("Cells out of order: %v", diagram.Cells[0].Site)
	}
}

func TestVoronoi_Partition(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	sites := make([]cp.Vector, 120)
	for i := range sites {
		sites[i] = cp.Vector{X: rng.Float64()*100 - 50, Y: rng.Float64()*100 - 50}
	}

	v := NewVoronoi()
	diagram := v.Compute(sites, square)
	defer v.Recycle()
	if diagram == nil {
		t.Fatal("Expected a diagram")
	}
	if len(diagram.Cells) != len(sites) {
		t.Fatalf("Expected %d cells, got %d", len(sites), len(diagram.Cells))
	}

	var total float64
	for i, cell := range diagram.Cells {
		if len(cell.Verts) < 3 {
			t.Fatalf("Cell %d has %d verts", i, len(cell.Verts))
		}
		total += math.Abs(cp.AreaForPoly(len(cell.Verts), cell.Verts, 0))

		for _, p := range cell.Verts {
			if p.X < square.L-1e-9 || p.X > square.R+1e-9 || p.Y < square.B-1e-9 || p.Y > square.T+1e-9 {
				t.Errorf("Cell %d vertex %v outside bounds", i, p)
			}
			// every vertex is at least as close to its own site as to any other
			own := p.Distance(cell.Site)
			for _, other := range sites {
				if d := p.Distance(other); d < own-1e-6 {
					t.Errorf("Cell %d vertex %v is closer to %v than to its site %v", i, p, other, cell.Site)
				}
			}
		}
	}
	if math.Abs(total-square.Area()) > 1e-6 {
		t.Errorf("Cells cover %v, expected %v", total, square.Area())
	}
}

func TestVoronoi_Convex(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	sites := make([]cp.Vector, 40)
	for i := range sites {
		sites[i] = cp.Vector{X: rng.Float64()*100 - 50, Y: rng.Float64()*100 - 50}
	}

	diagram := NewVoronoi().Compute(sites, square)
	for i, cell := range diagram.Cells {
		n := len(cell.Verts)
		var sign float64
		for j := 0; j < n; j++ {
			a, b, c := cell.Verts[j], cell.Verts[(j+1)%n], cell.Verts[(j+2)%n]
			cross := b.Sub(a).Cross(c.Sub(b))
			if math.Abs(cross) < 1e-9 {
				continue
			}
			if sign == 0 {
				sign = cross
			} else if sign*cross < 0 {
				t.Errorf("Cell %d is not convex at vertex %d", i, (j+1)%n)
				break
			}
		}
	}
}

func TestVoronoi_Degenerate(t *testing.T) {
	v := NewVoronoi()

	if v.Compute(nil, square) != nil {
		t.Error("Expected nil for no sites")
	}
	if v.Compute([]cp.Vector{{X: 1, Y: 1}}, square) != nil {
		t.Error("Expected nil for one site")
	}
	if v.Compute([]cp.Vector{{X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}}, square) != nil {
		t.Error("Expected nil for coincident sites")
	}
	if v.Compute([]cp.Vector{{X: 1, Y: 1}, {X: 500, Y: 1}}, square) != nil {
		t.Error("Expected nil when only one site is inside the bounds")
	}
	if v.Compute([]cp.Vector{{X: 0, Y: 0}, {X: 0, Y: 0}}, cp.BB{}) != nil {
		t.Error("Expected nil for empty bounds")
	}

	diagram := v.Compute([]cp.Vector{{X: -10, Y: 0}, {X: 10, Y: 0}, {X: -10, Y: 0}}, square)
	if diagram == nil || len(diagram.Cells) != 2 {
		t.Fatal("Expected duplicates to be dropped")
	}
}

func TestVoronoi_SiteOnBoundary(t *testing.T) {
	diagram := NewVoronoi().Compute([]cp.Vector{{X: -50, Y: -50}, {X: 50, Y: 50}, {X: 0, Y: 50}}, square)
	if diagram == nil {
		t.Fatal("Expected a diagram")
	}
	if len(diagram.Cells) != 3 {
		t.Errorf("Expected 3 cells, got %d", len(diagram.Cells))
	}
}

func TestVoronoi_Recycle(t *testing.T) {
	v := NewVoronoi()
	sites := []cp.Vector{{X: -25, Y: 0}, {X: 25, Y: 0}, {X: 0, Y: 30}}

	diagram := v.Compute(sites, square)
	if diagram == nil || len(diagram.Cells) != 3 {
		t.Fatal("Expected 3 cells")
	}
	v.Recycle()
	if len(diagram.Cells) != 0 {
		t.Error("Recycle should invalidate the diagram")
	}

	again := v.Compute(sites, square)
	if again == nil || len(again.Cells) != 3 {
		t.Fatal("Expected 3 cells after recycling")
	}
	if len(v.arena) == 0 {
		t.Error("Expected cells in the arena")
	}
}
