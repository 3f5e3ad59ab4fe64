package cdt

import "fmt"

// RemoveVertex deletes v, which must not be a box vertex or carry constraint edges.
// The triangulation is rebuilt from the remaining vertices and constraints; vertex
// ids are preserved, face and edge ids are not.
func (t *Triangulation) RemoveVertex(v VertexID) error {
	if !t.Alive(v) {
		return fmt.Errorf("%w: %d", ErrUnknownVertex, v)
	}
	if v < BoxVertices {
		return fmt.Errorf("%w: %d", ErrPinned, v)
	}
	for _, e := range t.OutEdges(v) {
		if t.fixed[e] {
			return fmt.Errorf("%w: %d", ErrConstrained, v)
		}
	}
	for _, n := range t.Neighbors(v) {
		if t.IsConstrained(v, n) {
			return fmt.Errorf("%w: %d", ErrConstrained, v)
		}
	}

	t.verts[v].alive = false
	t.verts[v].out = NoEdge
	return t.rebuild()
}

// rebuild re-triangulates every live vertex in id order and re-inserts the
// constraints. Deterministic for a given vertex and constraint set.
func (t *Triangulation) rebuild() error {
	cons := t.ConstraintEdges()
	t.resetBox()

	for i := BoxVertices; i < len(t.verts); i++ {
		v := VertexID(i)
		if !t.verts[v].alive {
			continue
		}
		f, err := t.Locate(t.verts[v].pos, NoVertex)
		if err != nil {
			return fmt.Errorf("rebuild vertex %d: %w", v, err)
		}
		for _, u := range t.FaceVertices(f) {
			if t.verts[u].pos.Distance(t.verts[v].pos) < VertexEpsilon {
				return fmt.Errorf("%w: vertices %d and %d coincide", ErrDegenerate, u, v)
			}
		}
		if _, err := t.place(v, f); err != nil {
			return fmt.Errorf("rebuild vertex %d: %w", v, err)
		}
	}

	for _, c := range cons {
		r, err := t.InsertConstraint(c[0], c[1])
		if err != nil {
			return fmt.Errorf("rebuild constraint %d-%d: %w", c[0], c[1], err)
		}
		if r.Kind != Inserted && r.Kind != AlreadyConstrained {
			return fmt.Errorf("%w: constraint %d-%d blocked on rebuild", ErrDegenerate, c[0], c[1])
		}
	}
	return nil
}
