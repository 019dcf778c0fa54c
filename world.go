package fracture

import (
	"github.com/jakecoffman/cp/v2"
)

// CollisionBreakable is the collision type given to shapes of breakable bodies.
const CollisionBreakable cp.CollisionType = 1

// World keeps a cp.Space and replaces breakable bodies with their fragments
// the first time they touch another non-static body.
type World struct {
	Space     *cp.Space
	Fracturer *Fracturer
	Rand      Rand

	// OnFracture is called after parent has been removed from the space and
	// its fragments added. fragments may be empty.
	OnFracture func(parent Body, fragments []*cp.Body)

	fractures int
}

// breakable is stored in UserData of bodies made by AddBreakableBox.
type breakable struct {
	extent cp.Vector
	style  *Style
	broken bool
}

func NewWorld(config Config, rng Rand) *World {
	space := cp.NewSpace()
	space.Iterations = 10
	space.SetGravity(cp.Vector{X: 0, Y: 1200})
	space.SleepTimeThreshold = 0.5

	world := &World{
		Space:     space,
		Fracturer: NewFracturer(config, NewVoronoi()),
		Rand:      rng,
	}

	handler := space.NewWildcardCollisionHandler(CollisionBreakable)
	handler.BeginFunc = world.begin

	return world
}

// AddStatic adds a static segment, such as a floor or a wall.
func (w *World) AddStatic(a, b cp.Vector, radius float64) *cp.Shape {
	shape := w.Space.AddShape(cp.NewSegment(w.Space.StaticBody, a, b, radius))
	shape.SetElasticity(1)
	shape.SetFriction(1)
	return shape
}

// AddBreakableBox adds a square body of the given side that fractures on its
// first contact with another dynamic body.
func (w *World) AddBreakableBox(pos cp.Vector, size, mass, angle float64, style *Style) *cp.Body {
	body := w.Space.AddBody(cp.NewBody(mass, cp.MomentForBox(mass, size, size)))
	body.SetPosition(pos)
	body.SetAngle(angle)
	body.UserData = &breakable{
		extent: cp.Vector{X: size, Y: size},
		style:  style,
	}

	shape := w.Space.AddShape(cp.NewBox(body, size, size, 0))
	shape.SetFriction(0.1)
	shape.SetElasticity(0)
	shape.SetCollisionType(CollisionBreakable)
	return body
}

// Descriptor reads the fracture view of a cp body.
func (w *World) Descriptor(body *cp.Body) Body {
	desc := Body{
		Position:        body.Position(),
		Angle:           body.Angle(),
		Velocity:        body.Velocity(),
		AngularVelocity: body.AngularVelocity(),
		Mass:            body.Mass(),
	}
	if b, ok := body.UserData.(*breakable); ok {
		desc.Extent = b.extent
		desc.Style = b.style
		desc.Breakable = true
	}
	return desc
}

func (w *World) Fractures() int {
	return w.fractures
}

func (w *World) Step(dt float64) {
	w.Space.Step(dt)
}

func (w *World) begin(arb *cp.Arbiter, space *cp.Space, _ interface{}) bool {
	a, b := arb.Bodies()
	if a.GetType() == cp.BODY_STATIC || b.GetType() == cp.BODY_STATIC {
		return true
	}

	for _, body := range []*cp.Body{a, b} {
		if data, ok := body.UserData.(*breakable); ok && !data.broken {
			space.AddPostStepCallback(w.postStepBreak, body, nil)
		}
	}
	return true
}

func (w *World) postStepBreak(_ *cp.Space, key interface{}, _ interface{}) {
	w.Break(key.(*cp.Body))
}

// Break fractures body immediately. It must not be called while the space is
// stepping; collisions schedule it as a post-step callback instead.
// Bodies that are not breakable, or already broken, are left alone.
func (w *World) Break(body *cp.Body) []*cp.Body {
	data, ok := body.UserData.(*breakable)
	if !ok || data.broken {
		return nil
	}
	data.broken = true

	parent := w.Descriptor(body)
	fragments := w.Fracturer.Fracture(parent, w.Rand)

	w.remove(body)

	friction := w.Fracturer.Config.Friction
	bodies := make([]*cp.Body, 0, len(fragments))
	for i := range fragments {
		bodies = append(bodies, w.addFragment(&fragments[i], friction))
	}

	w.fractures++
	if w.OnFracture != nil {
		w.OnFracture(parent, bodies)
	}
	return bodies
}

func (w *World) addFragment(frag *Fragment, friction float64) *cp.Body {
	body := w.Space.AddBody(cp.NewBody(frag.Mass, frag.Moment))
	body.SetPosition(frag.Position)
	body.SetAngle(frag.Angle)
	body.SetVelocityVector(frag.Velocity)
	body.SetAngularVelocity(frag.AngularVelocity)
	body.UserData = frag

	shape := w.Space.AddShape(cp.NewPolyShape(body, len(frag.Verts), frag.Verts, cp.NewTransformIdentity(), 0))
	shape.SetElasticity(frag.Elasticity)
	shape.SetFriction(friction)
	return body
}

func (w *World) remove(body *cp.Body) {
	var shapes []*cp.Shape
	body.EachShape(func(shape *cp.Shape) {
		shapes = append(shapes, shape)
	})
	for _, shape := range shapes {
		w.Space.RemoveShape(shape)
	}
	w.Space.RemoveBody(body)
}

// Clear removes every non-static body, keeping floors and walls.
func (w *World) Clear() {
	var bodies []*cp.Body
	w.Space.EachBody(func(body *cp.Body) {
		if body.GetType() != cp.BODY_STATIC {
			bodies = append(bodies, body)
		}
	})
	for _, body := range bodies {
		w.remove(body)
	}
}
