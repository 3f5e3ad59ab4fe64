// Package cdt implements an incremental constrained Delaunay triangulation inside an
// axis-aligned bounding box.
//
// Triangles are stored as half-edge arrays: triangle f owns half-edges 3f, 3f+1 and
// 3f+2 in counter-clockwise order, Origin(e) is the vertex the half-edge leaves and
// Twin(e) is the opposite half-edge in the neighbouring triangle, or NoEdge on the
// hull. Vertex ids are stable for the lifetime of the triangulation; face and edge ids
// are only stable until the next mutation.
package cdt

import (
	"errors"

	"github.com/Faultbox/cellblock/pkg/math"
)

// VertexID identifies a vertex.
type VertexID int32

// FaceID identifies a triangle.
type FaceID int32

// EdgeID identifies a half-edge.
type EdgeID int32

// Sentinels.
const (
	NoVertex VertexID = -1
	NoFace   FaceID   = -1
	NoEdge   EdgeID   = -1
)

// BoxVertices is the number of bounding box vertices; ids 0..3 are always the box
// corners, counter-clockwise from the minimum corner.
const BoxVertices = 4

// Triangulation errors.
var (
	ErrOutside       = errors.New("cdt: point outside bounds")
	ErrUnknownVertex = errors.New("cdt: unknown vertex")
	ErrNoEdge        = errors.New("cdt: no such edge")
	ErrPinned        = errors.New("cdt: vertex is pinned")
	ErrConstrained   = errors.New("cdt: vertex has constraint edges")
	ErrDegenerate    = errors.New("cdt: degenerate geometry")
)

type vertex struct {
	pos   math.Vec2
	out   EdgeID
	alive bool
}

// Triangulation is a constrained Delaunay triangulation of a box.
type Triangulation struct {
	min, max math.Vec2

	verts []vertex
	tri   []VertexID
	opp   []EdgeID
	fixed []bool
}

// New creates a triangulation of the box [min, max] made of two triangles.
func New(min, max math.Vec2) *Triangulation {
	t := &Triangulation{min: min, max: max}
	t.verts = []vertex{
		{pos: math.Vec2{X: min.X, Y: min.Y}, out: NoEdge, alive: true},
		{pos: math.Vec2{X: max.X, Y: min.Y}, out: NoEdge, alive: true},
		{pos: math.Vec2{X: max.X, Y: max.Y}, out: NoEdge, alive: true},
		{pos: math.Vec2{X: min.X, Y: max.Y}, out: NoEdge, alive: true},
	}
	t.resetBox()
	return t
}

func (t *Triangulation) resetBox() {
	t.tri = t.tri[:0]
	t.opp = t.opp[:0]
	t.fixed = t.fixed[:0]
	for i := range t.verts {
		t.verts[i].out = NoEdge
	}
	a := t.addTriangle(0, 1, 2)
	b := t.addTriangle(0, 2, 3)
	t.link(a+2, b, false)
}

// Clone returns a deep copy.
func (t *Triangulation) Clone() *Triangulation {
	c := &Triangulation{min: t.min, max: t.max}
	c.verts = append([]vertex(nil), t.verts...)
	c.tri = append([]VertexID(nil), t.tri...)
	c.opp = append([]EdgeID(nil), t.opp...)
	c.fixed = append([]bool(nil), t.fixed...)
	return c
}

// Bounds returns the bounding box.
func (t *Triangulation) Bounds() (min, max math.Vec2) {
	return t.min, t.max
}

// Contains reports whether p lies inside the bounding box (inclusive).
func (t *Triangulation) Contains(p math.Vec2) bool {
	return p.X >= t.min.X && p.X <= t.max.X && p.Y >= t.min.Y && p.Y <= t.max.Y
}

// NumVertices returns the number of allocated vertex ids, dead ones included.
func (t *Triangulation) NumVertices() int {
	return len(t.verts)
}

// NumFaces returns the number of triangles.
func (t *Triangulation) NumFaces() int {
	return len(t.tri) / 3
}

// Alive reports whether v is a live vertex.
func (t *Triangulation) Alive(v VertexID) bool {
	return v >= 0 && int(v) < len(t.verts) && t.verts[v].alive
}

// Position returns the position of v.
func (t *Triangulation) Position(v VertexID) math.Vec2 {
	return t.verts[v].pos
}

// Origin returns the vertex e leaves.
func (t *Triangulation) Origin(e EdgeID) VertexID {
	return t.tri[e]
}

// Dest returns the vertex e arrives at.
func (t *Triangulation) Dest(e EdgeID) VertexID {
	return t.tri[next(e)]
}

// Twin returns the opposite half-edge, or NoEdge on the hull.
func (t *Triangulation) Twin(e EdgeID) EdgeID {
	return t.opp[e]
}

// Next returns the next half-edge counter-clockwise in the same triangle.
func (t *Triangulation) Next(e EdgeID) EdgeID {
	return next(e)
}

// Prev returns the previous half-edge in the same triangle.
func (t *Triangulation) Prev(e EdgeID) EdgeID {
	return prev(e)
}

// Face returns the triangle owning e.
func (t *Triangulation) Face(e EdgeID) FaceID {
	return FaceID(e / 3)
}

// FaceEdge returns half-edge i (0..2) of f.
func (t *Triangulation) FaceEdge(f FaceID, i int) EdgeID {
	return EdgeID(int(f)*3 + i)
}

// FaceVertices returns the vertices of f in counter-clockwise order.
func (t *Triangulation) FaceVertices(f FaceID) [3]VertexID {
	b := int(f) * 3
	return [3]VertexID{t.tri[b], t.tri[b+1], t.tri[b+2]}
}

// FaceCentroid returns the centroid of f.
func (t *Triangulation) FaceCentroid(f FaceID) math.Vec2 {
	v := t.FaceVertices(f)
	a, b, c := t.verts[v[0]].pos, t.verts[v[1]].pos, t.verts[v[2]].pos
	return math.Vec2{X: (a.X + b.X + c.X) / 3, Y: (a.Y + b.Y + c.Y) / 3}
}

// IsConstraint reports whether half-edge e is a constraint.
func (t *Triangulation) IsConstraint(e EdgeID) bool {
	return t.fixed[e]
}

// IsHull reports whether half-edge e lies on the hull.
func (t *Triangulation) IsHull(e EdgeID) bool {
	return t.opp[e] == NoEdge
}

func next(e EdgeID) EdgeID {
	if e%3 == 2 {
		return e - 2
	}
	return e + 1
}

func prev(e EdgeID) EdgeID {
	if e%3 == 0 {
		return e + 2
	}
	return e - 1
}

func (t *Triangulation) setOrigin(e EdgeID, v VertexID) {
	t.tri[e] = v
	t.verts[v].out = e
}

func (t *Triangulation) addTriangle(a, b, c VertexID) EdgeID {
	e := EdgeID(len(t.tri))
	t.tri = append(t.tri, a, b, c)
	t.opp = append(t.opp, NoEdge, NoEdge, NoEdge)
	t.fixed = append(t.fixed, false, false, false)
	t.verts[a].out = e
	t.verts[b].out = e + 1
	t.verts[c].out = e + 2
	return e
}

func (t *Triangulation) link(e, o EdgeID, fixed bool) {
	t.opp[e] = o
	t.fixed[e] = fixed
	if o != NoEdge {
		t.opp[o] = e
		t.fixed[o] = fixed
	}
}

func (t *Triangulation) newVertex(p math.Vec2) VertexID {
	t.verts = append(t.verts, vertex{pos: p, out: NoEdge, alive: true})
	return VertexID(len(t.verts) - 1)
}
