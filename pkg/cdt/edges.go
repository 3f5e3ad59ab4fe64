package cdt

// OutEdges returns the half-edges leaving v in counter-clockwise order. For a hull
// vertex the first edge is the outgoing hull edge.
func (t *Triangulation) OutEdges(v VertexID) []EdgeID {
	if !t.Alive(v) {
		return nil
	}
	start := t.verts[v].out
	if start == NoEdge {
		return nil
	}

	limit := len(t.tri)
	first, e := start, start
	for i := 0; i < limit; i++ {
		o := t.opp[e]
		if o == NoEdge {
			first = e
			break
		}
		e = next(o)
		if e == start {
			first = start
			break
		}
	}

	out := []EdgeID{first}
	e = first
	for i := 0; i < limit; i++ {
		p := t.opp[prev(e)]
		if p == NoEdge || p == first {
			break
		}
		out = append(out, p)
		e = p
	}
	return out
}

// Neighbors returns the vertices adjacent to v in counter-clockwise order.
func (t *Triangulation) Neighbors(v VertexID) []VertexID {
	out := t.OutEdges(v)
	if len(out) == 0 {
		return nil
	}
	ns := make([]VertexID, 0, len(out)+1)
	for _, e := range out {
		ns = append(ns, t.tri[next(e)])
	}
	last := out[len(out)-1]
	if t.opp[prev(last)] == NoEdge {
		ns = append(ns, t.tri[prev(last)])
	}
	return ns
}

// FindEdge returns the half-edge from a to b, or NoEdge.
func (t *Triangulation) FindEdge(a, b VertexID) EdgeID {
	for _, e := range t.OutEdges(a) {
		if t.tri[next(e)] == b {
			return e
		}
	}
	return NoEdge
}

// EdgeBetween returns a half-edge joining a and b in either direction, or NoEdge.
func (t *Triangulation) EdgeBetween(a, b VertexID) EdgeID {
	if e := t.FindEdge(a, b); e != NoEdge {
		return e
	}
	return t.FindEdge(b, a)
}

// IsConstrained reports whether a and b are joined by a constraint edge.
func (t *Triangulation) IsConstrained(a, b VertexID) bool {
	e := t.EdgeBetween(a, b)
	return e != NoEdge && t.fixed[e]
}

// HullEdges returns the half-edges without twin.
func (t *Triangulation) HullEdges() []EdgeID {
	var hull []EdgeID
	for e := range t.opp {
		if t.opp[e] == NoEdge {
			hull = append(hull, EdgeID(e))
		}
	}
	return hull
}

// Edges calls fn once per undirected edge with one of its half-edges.
func (t *Triangulation) Edges(fn func(e EdgeID) bool) {
	for i := range t.tri {
		e := EdgeID(i)
		if o := t.opp[e]; o != NoEdge && o < e {
			continue
		}
		if !fn(e) {
			return
		}
	}
}

// ConstraintEdges returns every constraint edge as a vertex pair with the smaller
// id first.
func (t *Triangulation) ConstraintEdges() [][2]VertexID {
	var cons [][2]VertexID
	t.Edges(func(e EdgeID) bool {
		if t.fixed[e] {
			a, b := t.tri[e], t.tri[next(e)]
			if b < a {
				a, b = b, a
			}
			cons = append(cons, [2]VertexID{a, b})
		}
		return true
	})
	return cons
}
