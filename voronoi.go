package fracture

import (
	"cmp"
	"math"
	"slices"

	"github.com/jakecoffman/cp/v2"
)

// Tessellator computes a bounded planar Voronoi diagram.
//
// The diagram returned by Compute stays valid until Recycle is called. Callers
// must read everything they need out of it first.
type Tessellator interface {
	Compute(sites []cp.Vector, bounds cp.BB) *Diagram
	Recycle()
}

type Cell struct {
	Site  cp.Vector
	Verts []cp.Vector
}

type Diagram struct {
	Bounds cp.BB
	Cells  []Cell
}

// Voronoi builds each cell by clipping the bounds against the bisector of
// every neighbouring site. Scratch memory is kept between calls.
type Voronoi struct {
	diagram Diagram

	sites []cp.Vector
	order []int
	arena []cp.Vector

	ping, pong []cp.Vector

	// weld is weldDistance scaled to the current bounds.
	weld float64
}

func NewVoronoi() *Voronoi {
	return &Voronoi{}
}

// Compute returns nil when fewer than two usable sites remain after dropping
// duplicates and sites outside bounds, or when bounds has no area.
func (v *Voronoi) Compute(sites []cp.Vector, bounds cp.BB) *Diagram {
	if !(bounds.R > bounds.L && bounds.T > bounds.B) {
		return nil
	}

	v.sites = v.sites[:0]
	seen := make(map[cp.Vector]struct{}, len(sites))
	for _, site := range sites {
		if math.IsNaN(site.X) || math.IsNaN(site.Y) || !bbContains(bounds, site) {
			continue
		}
		if _, dup := seen[site]; dup {
			continue
		}
		seen[site] = struct{}{}
		v.sites = append(v.sites, site)
	}
	if len(v.sites) < 2 {
		return nil
	}

	v.weld = weldDistance * math.Max(bounds.R-bounds.L, bounds.T-bounds.B)
	v.diagram.Bounds = bounds
	v.diagram.Cells = v.diagram.Cells[:0]
	for i := range v.sites {
		verts := v.cell(i, bounds)
		if len(verts) < 3 {
			continue
		}
		start := len(v.arena)
		v.arena = append(v.arena, verts...)
		v.diagram.Cells = append(v.diagram.Cells, Cell{
			Site:  v.sites[i],
			Verts: v.arena[start:len(v.arena):len(v.arena)],
		})
	}

	return &v.diagram
}

// Recycle rewinds the scratch arena. The last diagram must not be used after.
func (v *Voronoi) Recycle() {
	clear(v.arena)
	v.arena = v.arena[:0]
	for i := range v.diagram.Cells {
		v.diagram.Cells[i] = Cell{}
	}
	v.diagram.Cells = v.diagram.Cells[:0]
}

func (v *Voronoi) cell(i int, bounds cp.BB) []cp.Vector {
	center := v.sites[i]

	v.ping = append(v.ping[:0],
		cp.Vector{X: bounds.L, Y: bounds.B},
		cp.Vector{X: bounds.R, Y: bounds.B},
		cp.Vector{X: bounds.R, Y: bounds.T},
		cp.Vector{X: bounds.L, Y: bounds.T},
	)

	v.order = v.order[:0]
	for j := range v.sites {
		if j != i {
			v.order = append(v.order, j)
		}
	}
	slices.SortFunc(v.order, func(a, b int) int {
		return cmp.Compare(center.DistanceSq(v.sites[a]), center.DistanceSq(v.sites[b]))
	})

	radiusSq := furthestSq(center, v.ping)
	for _, j := range v.order {
		other := v.sites[j]
		// nothing left to cut once the bisector lies outside the cell
		if center.DistanceSq(other) > 4*radiusSq {
			break
		}

		v.pong = clipCell(center, other, v.ping, v.pong[:0], v.weld)
		v.ping, v.pong = v.pong, v.ping
		if len(v.ping) < 3 {
			return nil
		}
		radiusSq = furthestSq(center, v.ping)
	}

	return v.ping
}

// clipCell keeps the part of verts on center's side of the bisector between
// center and other, appending the result to clipped. Vertices closer than weld
// are merged.
func clipCell(center, other cp.Vector, verts, clipped []cp.Vector, weld float64) []cp.Vector {
	n := other.Sub(center)
	dist := n.Dot(center.Lerp(other, 0.5))

	count := len(verts)
	i := count - 1
	for j := 0; j < count; j++ {
		a := verts[i]
		aDist := a.Dot(n) - dist

		if aDist <= 0 {
			clipped = appendWelded(clipped, a, weld)
		}

		b := verts[j]
		bDist := b.Dot(n) - dist

		if aDist*bDist < 0 {
			t := math.Abs(aDist) / (math.Abs(aDist) + math.Abs(bDist))
			clipped = appendWelded(clipped, a.Lerp(b, t), weld)
		}

		i = j
	}

	if len(clipped) > 1 && clipped[0].Near(clipped[len(clipped)-1], weld) {
		clipped = clipped[:len(clipped)-1]
	}
	return clipped
}

// weldDistance is relative to the longer side of the bounds.
const weldDistance = 1e-12

func appendWelded(verts []cp.Vector, p cp.Vector, weld float64) []cp.Vector {
	if n := len(verts); n > 0 && verts[n-1].Near(p, weld) {
		return verts
	}
	return append(verts, p)
}

func furthestSq(center cp.Vector, verts []cp.Vector) float64 {
	var max float64
	for _, p := range verts {
		if d := center.DistanceSq(p); d > max {
			max = d
		}
	}
	return max
}

func bbContains(bb cp.BB, p cp.Vector) bool {
	return bb.L <= p.X && p.X <= bb.R && bb.B <= p.Y && p.Y <= bb.T
}
