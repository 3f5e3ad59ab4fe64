package cdt

import (
	"fmt"

	"github.com/Faultbox/cellblock/pkg/math"
)

// InsertResult describes what Insert did.
type InsertResult struct {
	Vertex VertexID
	// Existing is set when the point coincided with a live vertex.
	Existing bool
	// Split is set when the point landed on the edge (SplitA, SplitB). Both halves
	// keep the constraint flag of the original edge.
	Split          bool
	SplitA, SplitB VertexID
	SplitFixed     bool
}

// Insert adds a vertex at p. When p coincides with an existing vertex that vertex
// is returned instead.
func (t *Triangulation) Insert(p math.Vec2, hint VertexID) (InsertResult, error) {
	f, err := t.Locate(p, hint)
	if err != nil {
		return InsertResult{}, err
	}

	fv := t.FaceVertices(f)
	for _, v := range fv {
		if t.verts[v].pos.Distance(p) < VertexEpsilon {
			return InsertResult{Vertex: v, Existing: true}, nil
		}
	}

	v := t.newVertex(p)
	res, err := t.place(v, f)
	if err != nil {
		t.verts = t.verts[:len(t.verts)-1]
		return InsertResult{}, err
	}
	return res, nil
}

// SplitEdge inserts a vertex on the edge between a and b at the point of the edge
// closest to p.
func (t *Triangulation) SplitEdge(a, b VertexID, p math.Vec2) (VertexID, error) {
	e := t.EdgeBetween(a, b)
	if e == NoEdge {
		return NoVertex, fmt.Errorf("%w: %d-%d", ErrNoEdge, a, b)
	}
	s := math.Segment{A: t.verts[a].pos, B: t.verts[b].pos}
	q := s.ClosestPoint(p)
	if q.Distance(s.A) < VertexEpsilon || q.Distance(s.B) < VertexEpsilon {
		return NoVertex, fmt.Errorf("%w: split point at edge end", ErrDegenerate)
	}
	v := t.newVertex(q)
	if err := t.splitEdgeAt(e, v); err != nil {
		return NoVertex, err
	}
	return v, nil
}

// place inserts the already allocated vertex v, which lies in triangle f.
func (t *Triangulation) place(v VertexID, f FaceID) (InsertResult, error) {
	p := t.verts[v].pos
	res := InsertResult{Vertex: v}

	for k := 0; k < 3; k++ {
		e := t.FaceEdge(f, k)
		a, b := t.verts[t.tri[e]].pos, t.verts[t.tri[next(e)]].pos
		if lineDistance(a, b, p) >= EdgeEpsilon {
			continue
		}
		s := math.Segment{A: a, B: b}
		if tt := s.ClosestT(p); tt <= 0 || tt >= 1 {
			continue
		}
		res.Split = true
		res.SplitA, res.SplitB = t.tri[e], t.tri[next(e)]
		res.SplitFixed = t.fixed[e]
		return res, t.splitEdgeAt(e, v)
	}

	if t.faceSlack(f, p) < -EdgeEpsilon {
		return res, fmt.Errorf("%w: point (%g, %g) not in located triangle", ErrDegenerate, p.X, p.Y)
	}
	t.splitFace(f, v)
	return res, nil
}

// splitFace replaces triangle (a, b, c) by (a, b, v), (b, c, v) and (c, a, v).
func (t *Triangulation) splitFace(f FaceID, v VertexID) {
	e0 := EdgeID(int(f) * 3)
	a, b, c := t.tri[e0], t.tri[e0+1], t.tri[e0+2]
	o1, f1 := t.opp[e0+1], t.fixed[e0+1]
	o2, f2 := t.opp[e0+2], t.fixed[e0+2]

	// Reuse f as (a, b, v); edge a->b keeps its twin.
	t.setOrigin(e0, a)
	t.setOrigin(e0+1, b)
	t.setOrigin(e0+2, v)

	n1 := t.addTriangle(b, c, v)
	n2 := t.addTriangle(c, a, v)

	t.link(n1, o1, f1)
	t.link(n2, o2, f2)

	t.link(e0+1, n1+2, false)
	t.link(n1+1, n2+2, false)
	t.link(n2+1, e0+2, false)

	t.legalize([][2]VertexID{{a, b}, {b, c}, {c, a}})
}

// splitEdgeAt splits the edge e at v, which lies on it.
func (t *Triangulation) splitEdgeAt(e EdgeID, v VertexID) error {
	u, w := t.tri[e], t.tri[next(e)]
	x := t.tri[prev(e)]
	fixed := t.fixed[e]
	o := t.opp[e]

	// Triangle A = (u, w, x) becomes (u, v, x) and a new (v, w, x).
	aUW, aWX, aXU := e, next(e), prev(e)
	oWX, fWX := t.opp[aWX], t.fixed[aWX]

	t.setOrigin(aUW, u)
	t.setOrigin(aWX, v)
	t.setOrigin(aXU, x)
	// aUW: u->v, aWX: v->x, aXU: x->u

	na := t.addTriangle(v, w, x)
	// na: v->w, na+1: w->x, na+2: x->v
	t.link(na+1, oWX, fWX)
	t.link(aWX, na+2, false)

	if o == NoEdge {
		t.link(aUW, NoEdge, fixed)
		t.link(na, NoEdge, fixed)
		t.legalize([][2]VertexID{{w, x}, {x, u}})
		return nil
	}

	// Triangle B = (w, u, y) becomes (w, v, y) and a new (v, u, y).
	bWU, bUY, bYW := o, next(o), prev(o)
	y := t.tri[bYW]
	oUY, fUY := t.opp[bUY], t.fixed[bUY]

	t.setOrigin(bWU, w)
	t.setOrigin(bUY, v)
	t.setOrigin(bYW, y)
	// bWU: w->v, bUY: v->y, bYW: y->w

	nb := t.addTriangle(v, u, y)
	// nb: v->u, nb+1: u->y, nb+2: y->v
	t.link(nb+1, oUY, fUY)
	t.link(bUY, nb+2, false)

	t.link(aUW, nb, fixed)
	t.link(na, bWU, fixed)

	t.legalize([][2]VertexID{{w, x}, {x, u}, {u, y}, {y, w}})
	return nil
}

// flip replaces the diagonal of the quad around e. Triangles A = (u, v, x) and
// B = (v, u, y) become (x, u, y) and (y, v, x).
func (t *Triangulation) flip(e EdgeID) {
	o := t.opp[e]
	a0, a1, a2 := e, next(e), prev(e)
	b0, b1, b2 := o, next(o), prev(o)

	u, v, x := t.tri[a0], t.tri[a1], t.tri[a2]
	y := t.tri[b2]

	oA1, fA1 := t.opp[a1], t.fixed[a1] // v->x
	oA2, fA2 := t.opp[a2], t.fixed[a2] // x->u
	oB1, fB1 := t.opp[b1], t.fixed[b1] // u->y
	oB2, fB2 := t.opp[b2], t.fixed[b2] // y->v

	t.setOrigin(a0, x)
	t.setOrigin(a1, u)
	t.setOrigin(a2, y)
	t.setOrigin(b0, y)
	t.setOrigin(b1, v)
	t.setOrigin(b2, x)

	t.link(a0, oA2, fA2)
	t.link(a1, oB1, fB1)
	t.link(b0, oB2, fB2)
	t.link(b1, oA1, fA1)
	t.link(a2, b2, false)
}

// legalize restores the Delaunay property with Lawson flips starting from the given
// vertex pairs. Constraint and hull edges are never flipped.
func (t *Triangulation) legalize(stack [][2]VertexID) {
	limit := 64*len(t.tri) + 256
	for n := 0; len(stack) > 0 && n < limit; n++ {
		pair := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		e := t.EdgeBetween(pair[0], pair[1])
		if e == NoEdge || t.fixed[e] || t.opp[e] == NoEdge {
			continue
		}
		if !t.shouldFlip(e) {
			continue
		}
		u, v, x := t.tri[e], t.tri[next(e)], t.tri[prev(e)]
		y := t.tri[prev(t.opp[e])]
		t.flip(e)
		stack = append(stack, [2]VertexID{u, x}, [2]VertexID{x, v}, [2]VertexID{v, y}, [2]VertexID{y, u})
	}
}

func (t *Triangulation) shouldFlip(e EdgeID) bool {
	o := t.opp[e]
	u, v, x := t.verts[t.tri[e]].pos, t.verts[t.tri[next(e)]].pos, t.verts[t.tri[prev(e)]].pos
	y := t.verts[t.tri[prev(o)]].pos
	if incircle(u, v, x, y) <= circleEpsilon {
		return false
	}
	return t.convexQuad(e)
}

// convexQuad reports whether the quad around e is strictly convex, so that its
// diagonal can be flipped.
func (t *Triangulation) convexQuad(e EdgeID) bool {
	o := t.opp[e]
	if o == NoEdge {
		return false
	}
	u, v, x := t.verts[t.tri[e]].pos, t.verts[t.tri[next(e)]].pos, t.verts[t.tri[prev(e)]].pos
	y := t.verts[t.tri[prev(o)]].pos
	return orient(x, y, u) < 0 && orient(x, y, v) > 0
}
