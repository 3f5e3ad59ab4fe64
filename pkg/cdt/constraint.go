package cdt

import (
	"fmt"
)

// ConstraintKind classifies the outcome of InsertConstraint.
type ConstraintKind int

// Constraint outcomes.
const (
	// Inserted means the segment is now a single constraint edge.
	Inserted ConstraintKind = iota
	// AlreadyConstrained means the edge already was a constraint.
	AlreadyConstrained
	// ThroughVertex means the segment passes through Vertex; nothing changed.
	ThroughVertex
	// CrossesConstraint means the segment crosses the constraint edge (A, B);
	// nothing changed.
	CrossesConstraint
)

// ConstraintResult is returned by InsertConstraint.
type ConstraintResult struct {
	Kind   ConstraintKind
	Vertex VertexID
	A, B   VertexID
}

// InsertConstraint makes the segment between a and b an edge of the triangulation and
// marks it constrained. When the segment runs through another vertex or crosses an
// existing constraint the triangulation is left untouched and the obstacle is
// reported, so that the caller can split the segment and retry.
func (t *Triangulation) InsertConstraint(a, b VertexID) (ConstraintResult, error) {
	if !t.Alive(a) || !t.Alive(b) {
		return ConstraintResult{}, fmt.Errorf("%w: %d-%d", ErrUnknownVertex, a, b)
	}
	if a == b {
		return ConstraintResult{}, fmt.Errorf("%w: zero length constraint at %d", ErrDegenerate, a)
	}

	if e := t.EdgeBetween(a, b); e != NoEdge {
		if t.fixed[e] {
			return ConstraintResult{Kind: AlreadyConstrained}, nil
		}
		t.link(e, t.opp[e], true)
		return ConstraintResult{Kind: Inserted}, nil
	}

	crossed, obstacle, err := t.crossedEdges(a, b)
	if err != nil {
		return ConstraintResult{}, err
	}
	if obstacle.Kind != Inserted {
		return obstacle, nil
	}

	pa, pb := t.verts[a].pos, t.verts[b].pos
	queue := crossed
	var created [][2]VertexID
	limit := 16*len(crossed)*len(crossed) + 64
	for n := 0; len(queue) > 0; n++ {
		if n > limit {
			return ConstraintResult{}, fmt.Errorf("%w: constraint %d-%d did not converge", ErrDegenerate, a, b)
		}
		pair := queue[0]
		queue = queue[1:]

		e := t.EdgeBetween(pair[0], pair[1])
		if e == NoEdge {
			continue
		}
		if !t.convexQuad(e) {
			queue = append(queue, pair)
			continue
		}
		x := t.tri[prev(e)]
		y := t.tri[prev(t.opp[e])]
		t.flip(e)

		if x != a && x != b && y != a && y != b && crossesStrictly(pa, pb, t.verts[x].pos, t.verts[y].pos) {
			queue = append(queue, [2]VertexID{x, y})
		} else {
			created = append(created, [2]VertexID{x, y})
		}
	}

	e := t.EdgeBetween(a, b)
	if e == NoEdge {
		return ConstraintResult{}, fmt.Errorf("%w: constraint %d-%d missing after flips", ErrDegenerate, a, b)
	}
	t.link(e, t.opp[e], true)

	// Restore Delaunay on the new edges other than the constraint itself.
	var stack [][2]VertexID
	for _, c := range created {
		if (c[0] == a && c[1] == b) || (c[0] == b && c[1] == a) {
			continue
		}
		stack = append(stack, c)
	}
	t.legalize(stack)
	return ConstraintResult{Kind: Inserted}, nil
}

// crossedEdges walks from a towards b and returns the edges the segment crosses,
// ordered from a. Each pair is (right, left) relative to a->b. A vertex on the segment
// or a crossed constraint is returned as the obstacle instead.
func (t *Triangulation) crossedEdges(a, b VertexID) ([][2]VertexID, ConstraintResult, error) {
	pa, pb := t.verts[a].pos, t.verts[b].pos
	dir := pb.Sub(pa)
	span := dir.Length()

	onSegment := func(v VertexID) bool {
		if v == a || v == b {
			return false
		}
		p := t.verts[v].pos
		if lineDistance(pa, pb, p) >= EdgeEpsilon {
			return false
		}
		d := p.Sub(pa).Dot(dir) / span
		return d > 0 && d < span
	}

	start := NoEdge
	for _, e := range t.OutEdges(a) {
		v1, w := t.tri[next(e)], t.tri[prev(e)]
		if onSegment(v1) {
			return nil, ConstraintResult{Kind: ThroughVertex, Vertex: v1}, nil
		}
		if onSegment(w) {
			return nil, ConstraintResult{Kind: ThroughVertex, Vertex: w}, nil
		}
		if orient(pa, t.verts[v1].pos, pb) > 0 && orient(pa, t.verts[w].pos, pb) < 0 {
			start = next(e)
			break
		}
	}
	if start == NoEdge {
		return nil, ConstraintResult{}, fmt.Errorf("%w: no triangle at %d faces %d", ErrDegenerate, a, b)
	}

	var crossed [][2]VertexID
	e := start
	for n := 0; n <= len(t.tri); n++ {
		if t.fixed[e] {
			return nil, ConstraintResult{Kind: CrossesConstraint, A: t.tri[e], B: t.tri[next(e)]}, nil
		}
		crossed = append(crossed, [2]VertexID{t.tri[e], t.tri[next(e)]})

		o := t.opp[e]
		if o == NoEdge {
			return nil, ConstraintResult{}, fmt.Errorf("%w: constraint %d-%d leaves the hull", ErrDegenerate, a, b)
		}
		x := t.tri[prev(o)]
		if x == b {
			return crossed, ConstraintResult{Kind: Inserted}, nil
		}
		if onSegment(x) {
			return nil, ConstraintResult{Kind: ThroughVertex, Vertex: x}, nil
		}
		if orient(pa, pb, t.verts[x].pos) > 0 {
			e = next(o)
		} else {
			e = prev(o)
		}
	}
	return nil, ConstraintResult{}, fmt.Errorf("%w: constraint walk %d-%d did not terminate", ErrDegenerate, a, b)
}

// RemoveConstraint clears the constraint flag of the edge between a and b and
// re-establishes the Delaunay property around it.
func (t *Triangulation) RemoveConstraint(a, b VertexID) error {
	e := t.EdgeBetween(a, b)
	if e == NoEdge || !t.fixed[e] {
		return fmt.Errorf("%w: constraint %d-%d", ErrNoEdge, a, b)
	}
	t.link(e, t.opp[e], false)
	t.legalize([][2]VertexID{{a, b}})
	return nil
}
