package planmap

import (
	"sort"

	"github.com/Faultbox/cellblock/pkg/cdt"
	"github.com/Faultbox/cellblock/pkg/math"
)

// RingStep is one vertex of a room boundary ring.
type RingStep struct {
	Vertex cdt.VertexID
	Pos    math.Vec2
	// Corner is zero for bound vertices without a corner.
	Corner  CornerID
	In, Out cdt.VertexID
}

// Ring is a closed boundary of a room, walked with the room on the left.
type Ring struct {
	Steps []RingStep
	// Rooms are the other rooms across the ring's walls, sorted.
	Rooms []RoomID
	// Area is the signed area of the ring; positive for the exterior ring.
	Area float32
}

// Exterior reports whether the ring encloses the room rather than a hole in it.
func (r Ring) Exterior() bool {
	return r.Area > 0
}

// Points returns the ring's vertex positions.
func (r Ring) Points() []math.Vec2 {
	pts := make([]math.Vec2, len(r.Steps))
	for i, s := range r.Steps {
		pts[i] = s.Pos
	}
	return pts
}

func (m *Map) boundaryEdge(e cdt.EdgeID) bool {
	return m.tri.Twin(e) == cdt.NoEdge || m.tri.IsConstraint(e)
}

// RoomBoundary returns the boundary rings of r: one exterior ring and any number of
// holes. Walls with the room on both sides appear in both directions.
func (m *Map) RoomBoundary(r RoomID) ([]Ring, error) {
	room, ok := m.rooms[r]
	if !ok {
		return nil, unknownRoom(r)
	}

	var start []cdt.EdgeID
	for _, f := range room.Faces {
		for k := 0; k < 3; k++ {
			if e := m.tri.FaceEdge(f, k); m.boundaryEdge(e) {
				start = append(start, e)
			}
		}
	}
	sort.Slice(start, func(i, j int) bool { return start[i] < start[j] })

	seen := make(map[cdt.EdgeID]bool, len(start))
	var rings []Ring
	for _, e0 := range start {
		if seen[e0] {
			continue
		}
		var ring Ring
		others := make(map[RoomID]bool)
		e := e0
		for n := 0; n <= len(start); n++ {
			seen[e] = true
			v := m.tri.Origin(e)
			ring.Steps = append(ring.Steps, RingStep{
				Vertex: v,
				Pos:    m.tri.Position(v),
				Corner: m.byVertex[v],
				Out:    m.tri.Dest(e),
			})
			if o := m.tri.Twin(e); o != cdt.NoEdge {
				if other := m.faceRoom[m.tri.Face(o)]; other != r {
					others[other] = true
				}
			}

			e = m.nextBoundary(e)
			if e == e0 {
				break
			}
		}
		if e != e0 {
			return nil, invariant("boundary of %v does not close", r)
		}

		for i := range ring.Steps {
			prev := ring.Steps[(i+len(ring.Steps)-1)%len(ring.Steps)]
			ring.Steps[i].In = prev.Vertex
		}
		for id := range others {
			ring.Rooms = append(ring.Rooms, id)
		}
		sort.Slice(ring.Rooms, func(i, j int) bool { return ring.Rooms[i] < ring.Rooms[j] })
		ring.Area = math.SignedArea(ring.Points())
		rings = append(rings, ring)
	}
	return rings, nil
}

// nextBoundary returns the boundary half-edge following e around the same room.
func (m *Map) nextBoundary(e cdt.EdgeID) cdt.EdgeID {
	f := m.tri.Next(e)
	for i := 0; i < m.tri.NumFaces()*3 && !m.boundaryEdge(f); i++ {
		f = m.tri.Next(m.tri.Twin(f))
	}
	return f
}

// GeometrySource supplies the corner geometry of a ring vertex; c is zero for bound
// vertices without a corner.
type GeometrySource func(v cdt.VertexID, c CornerID) CornerGeometry

// RoomOutline returns the walkable outline of r: the boundary rings pulled in by
// Radius at every corner. The exterior falls back to the bounds inset by Radius when
// the room has no exterior ring. A nil geometry computes every corner afresh.
//
// An offset ring whose orientation differs from its source ring has turned inside
// out: the room is narrower than 2*Radius there. An inverted exterior leaves outer
// nil, so the room has no walkable area; inverted holes are dropped.
func (m *Map) RoomOutline(r RoomID, geometry GeometrySource) (outer []math.Vec2, holes [][]math.Vec2, err error) {
	rings, err := m.RoomBoundary(r)
	if err != nil {
		return nil, nil, err
	}
	if geometry == nil {
		geometry = func(v cdt.VertexID, _ CornerID) CornerGeometry { return m.VertexGeometry(v) }
	}

	exterior := false
	for _, ring := range rings {
		var pts []math.Vec2
		for _, s := range ring.Steps {
			off := geometry(s.Vertex, s.Corner).Between(s.Out, s.In)
			for i := len(off) - 1; i >= 0; i-- {
				pts = append(pts, off[i])
			}
		}
		area := math.SignedArea(pts)
		if ring.Exterior() && !exterior {
			exterior = true
			if area > 0 {
				outer = pts
			}
			continue
		}
		if area < 0 {
			holes = append(holes, pts)
		}
	}

	if !exterior {
		inset := math.V2(Radius, Radius)
		lo, hi := m.min.Add(inset), m.max.Sub(inset)
		outer = []math.Vec2{lo, {X: hi.X, Y: lo.Y}, hi, {X: lo.X, Y: hi.Y}}
	}
	if outer == nil {
		holes = nil
	}
	return outer, holes, nil
}
