package planmap

import (
	"github.com/Faultbox/cellblock/pkg/cdt"
)

// Validate checks the structural invariants of the map. Errors wrap ErrInvariant.
func (m *Map) Validate() error {
	if err := m.tri.Validate(); err != nil {
		return invariant("triangulation: %v", err)
	}

	for id, c := range m.corners {
		if !m.tri.Alive(c.Vertex) {
			return invariant("%v on dead vertex %d", id, c.Vertex)
		}
		if m.byVertex[c.Vertex] != id {
			return invariant("%v not indexed by vertex %d", id, c.Vertex)
		}
		if m.tri.Position(c.Vertex) != c.Pos {
			return invariant("%v moved off its vertex", id)
		}
		if c.Pinned != m.onBounds(c.Pos) {
			return invariant("%v pinned flag is stale", id)
		}
	}
	if len(m.byVertex) != len(m.corners) {
		return invariant("%d vertex bindings for %d corners", len(m.byVertex), len(m.corners))
	}
	for v := cdt.VertexID(cdt.BoxVertices); int(v) < m.tri.NumVertices(); v++ {
		if _, ok := m.byVertex[v]; m.tri.Alive(v) && !ok {
			return invariant("vertex %d has no corner", v)
		}
	}

	for id, w := range m.walls {
		a, okA := m.corners[w.Corners[0]]
		b, okB := m.corners[w.Corners[1]]
		if !okA || !okB {
			return invariant("%v has a missing corner", id)
		}
		e := m.tri.FindEdge(a.Vertex, b.Vertex)
		if e == cdt.NoEdge || !m.tri.IsConstraint(e) {
			return invariant("%v is not a constraint", id)
		}
		if m.tri.IsHull(e) {
			return invariant("%v lies on the bounds", id)
		}
		if m.byEdge[keyOf(a.Vertex, b.Vertex)] != id {
			return invariant("%v not indexed by its edge", id)
		}
		if w.Door && w.Length() < DoorMinWidth {
			return invariant("door %v is %.3f wide", id, w.Length())
		}
		left, right := m.faceRoom[m.tri.Face(e)], m.faceRoom[m.tri.Face(m.tri.Twin(e))]
		if w.Rooms != [2]RoomID{left, right} {
			return invariant("%v rooms %v, faces say %v %v", id, w.Rooms, left, right)
		}
	}
	if n := len(m.tri.ConstraintEdges()); n != len(m.walls) {
		return invariant("%d constraints for %d walls", n, len(m.walls))
	}

	if len(m.faceRoom) != m.tri.NumFaces() {
		return invariant("%d face labels for %d faces", len(m.faceRoom), m.tri.NumFaces())
	}
	var bad error
	m.tri.Edges(func(e cdt.EdgeID) bool {
		o := m.tri.Twin(e)
		if o == cdt.NoEdge || m.tri.IsConstraint(e) {
			return true
		}
		if m.faceRoom[m.tri.Face(e)] != m.faceRoom[m.tri.Face(o)] {
			bad = invariant("faces %d and %d split without a wall", m.tri.Face(e), m.tri.Face(o))
			return false
		}
		return true
	})
	if bad != nil {
		return bad
	}

	faces := 0
	outer := 0
	for id, r := range m.rooms {
		if len(r.Faces) == 0 {
			return invariant("%v is empty", id)
		}
		for _, f := range r.Faces {
			if m.faceRoom[f] != id {
				return invariant("face %d listed in %v, labelled %v", f, id, m.faceRoom[f])
			}
		}
		faces += len(r.Faces)
		if r.Outer {
			outer++
			if id != m.outer {
				return invariant("%v marked outer, outer is %v", id, m.outer)
			}
		}
	}
	if faces != m.tri.NumFaces() {
		return invariant("rooms cover %d of %d faces", faces, m.tri.NumFaces())
	}
	if outer != 1 {
		return invariant("%d outer rooms", outer)
	}
	return nil
}
