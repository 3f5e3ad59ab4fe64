package cdt

import "fmt"

// Validate checks the structural invariants of the triangulation: twin symmetry,
// counter-clockwise faces, consistent constraint flags, valid vertex anchors and the
// constrained Delaunay property.
func (t *Triangulation) Validate() error {
	for i := range t.tri {
		e := EdgeID(i)
		v := t.tri[e]
		if !t.Alive(v) {
			return fmt.Errorf("%w: edge %d leaves dead vertex %d", ErrDegenerate, e, v)
		}
		o := t.opp[e]
		if o == NoEdge {
			continue
		}
		if t.opp[o] != e {
			return fmt.Errorf("%w: twin of %d is %d but twin of %d is %d", ErrDegenerate, e, o, o, t.opp[o])
		}
		if t.tri[o] != t.tri[next(e)] || t.tri[next(o)] != v {
			return fmt.Errorf("%w: twins %d and %d disagree on endpoints", ErrDegenerate, e, o)
		}
		if t.fixed[o] != t.fixed[e] {
			return fmt.Errorf("%w: constraint flag differs on %d and %d", ErrDegenerate, e, o)
		}
		if !t.fixed[e] && e < o && t.convexQuad(e) && t.shouldFlip(e) {
			return fmt.Errorf("%w: edge %d-%d is not locally Delaunay", ErrDegenerate, v, t.tri[o])
		}
	}

	for f := 0; f < t.NumFaces(); f++ {
		fv := t.FaceVertices(FaceID(f))
		if orient(t.verts[fv[0]].pos, t.verts[fv[1]].pos, t.verts[fv[2]].pos) <= 0 {
			return fmt.Errorf("%w: face %d is not counter-clockwise", ErrDegenerate, f)
		}
	}

	for i, vx := range t.verts {
		if !vx.alive {
			continue
		}
		if vx.out == NoEdge || int(vx.out) >= len(t.tri) || t.tri[vx.out] != VertexID(i) {
			return fmt.Errorf("%w: vertex %d has a stale anchor edge", ErrDegenerate, i)
		}
	}
	return nil
}
