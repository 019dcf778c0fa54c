// Package fracture breaks convex rigid bodies into Voronoi fragments at the
// moment of impact, and wires that into a Chipmunk space.
package fracture

import (
	"image/color"
	"math"

	"github.com/jakecoffman/cp/v2"
)

// Rand is the source of every random draw made while fracturing.
// *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Style is copied by reference onto every fragment of a body.
type Style struct {
	Fill      color.RGBA
	Stroke    color.RGBA
	LineWidth float64
}

// Body is a read-only view of a rigid body that may be fractured.
type Body struct {
	Position        cp.Vector
	Angle           float64
	Velocity        cp.Vector
	AngularVelocity float64
	Mass            float64

	// Extent is the width and height of the box seeds are scattered in,
	// centered on Position. Zero uses Config.Extent on both axes, so a zero
	// seed box can only be asked for with a zero Config.Extent.
	Extent cp.Vector

	Breakable bool
	Style     *Style
}

func (b *Body) extent(fallback float64) cp.Vector {
	if b.Extent.X == 0 && b.Extent.Y == 0 {
		return cp.Vector{X: fallback, Y: fallback}
	}
	return b.Extent
}

// Fragment describes one piece of a fractured body. Verts are relative to
// Position, which is the fragment's center of mass.
type Fragment struct {
	Position        cp.Vector
	Verts           []cp.Vector
	Angle           float64
	Velocity        cp.Vector
	AngularVelocity float64
	Mass            float64
	Moment          float64
	Elasticity      float64

	// Site is the seed point of the cell, in the parent's local frame.
	Site  cp.Vector
	Style *Style
}

// minCellArea filters slivers left by nearly coincident seeds. It is a
// fraction of the bounds' area.
const minCellArea = 1e-12

// Fracturer turns bodies into fragments. Its Tessellator keeps scratch state
// between calls, so a Fracturer must not be shared between goroutines.
type Fracturer struct {
	Config      Config
	Tessellator Tessellator
}

func NewFracturer(config Config, tessellator Tessellator) *Fracturer {
	if tessellator == nil {
		tessellator = NewVoronoi()
	}
	return &Fracturer{Config: config, Tessellator: tessellator}
}

// Fracture is a one-shot Fracturer over a fresh Voronoi.
func Fracture(body Body, config Config, rng Rand) []Fragment {
	return NewFracturer(config, nil).Fracture(body, rng)
}

// Fracture scatters seeds in the body's local box, tessellates them and
// returns one fragment per usable cell. It never touches a world; the caller
// removes body and inserts the fragments. An empty result is valid.
//
// Eligibility (body.Breakable) is the caller's responsibility.
func (f *Fracturer) Fracture(body Body, rng Rand) []Fragment {
	cfg := f.Config
	extent := body.extent(cfg.Extent)
	hw, hh := extent.X*0.5, extent.Y*0.5

	count := cfg.Sites.Draw(rng)
	if count < 1 {
		return nil
	}
	xs, ys := Range{-hw, hw}, Range{-hh, hh}
	sites := make([]cp.Vector, count)
	for i := range sites {
		sites[i].X = xs.Draw(rng)
		sites[i].Y = ys.Draw(rng)
	}

	bounds := cp.BB{L: -hw, B: -hh, R: hw, T: hh}
	cells := f.cells(sites, bounds)
	if len(cells) == 0 {
		return nil
	}

	mass := body.Mass / float64(len(cells))
	var rot cp.Vector
	if cfg.RotateOffsets {
		rot = cp.ForAngle(body.Angle)
	}

	fragments := make([]Fragment, len(cells))
	for i, cell := range cells {
		n := len(cell.Verts)
		centroid := cp.CentroidForPoly(n, cell.Verts)
		for j := range cell.Verts {
			cell.Verts[j] = cell.Verts[j].Sub(centroid)
		}

		offset := cell.Site
		if cfg.RotateOffsets {
			offset = offset.Rotate(rot)
		}

		frag := &fragments[i]
		frag.Position = body.Position.Add(offset)
		frag.Verts = cell.Verts
		frag.Site = cell.Site
		frag.Angle = body.Angle
		frag.AngularVelocity = body.AngularVelocity
		frag.Velocity = body.Velocity

		d := body.Position.Sub(frag.Position)
		u := cfg.Recoil.Draw(rng)
		if body.AngularVelocity != 0 {
			frag.Velocity = frag.Velocity.Add(d.Mult(-body.AngularVelocity * d.Length() * u))
		}

		frag.Mass = mass
		frag.Moment = cp.MomentForPoly(mass, n, frag.Verts, cp.Vector{}, 0)
		frag.Elasticity = cfg.Restitution
		frag.Style = body.Style
	}

	return fragments
}

// cells copies the usable cells out of the diagram and recycles the
// tessellator before anything else can run on it.
func (f *Fracturer) cells(sites []cp.Vector, bounds cp.BB) []Cell {
	diagram := f.Tessellator.Compute(sites, bounds)
	defer f.Tessellator.Recycle()
	if diagram == nil {
		return nil
	}

	minArea := minCellArea * (bounds.R - bounds.L) * (bounds.T - bounds.B)
	var cells []Cell
	for _, cell := range diagram.Cells {
		n := len(cell.Verts)
		if n < 3 {
			continue
		}
		if math.Abs(cp.AreaForPoly(n, cell.Verts, 0)) < minArea {
			continue
		}
		verts := make([]cp.Vector, n)
		copy(verts, cell.Verts)
		cells = append(cells, Cell{Site: cell.Site, Verts: verts})
	}
	return cells
}
