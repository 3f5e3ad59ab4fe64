// Package planmap holds the editable floor plan of a map: corners, walls and the
// rooms they enclose, on top of a constrained Delaunay triangulation.
//
// Every wall is a constraint edge of the triangulation. A room is a maximal set of
// triangles connected across non-constraint edges; the room touching the map bounds
// is the outer room. Edits are atomic: an edit either succeeds and emits change
// events, or fails and leaves the map as it was.
package planmap

import (
	"sort"

	"github.com/tidwall/rtree"
	"go.uber.org/zap"

	"github.com/Faultbox/cellblock/internal/logger"
	"github.com/Faultbox/cellblock/pkg/cdt"
	"github.com/Faultbox/cellblock/pkg/math"
)

// Corner is a point walls meet at.
type Corner struct {
	ID     CornerID
	Pos    math.Vec2
	Vertex cdt.VertexID
	// Pinned is set for corners on the map bounds; they survive losing their walls.
	Pinned bool
}

// Wall is a straight wall between two corners.
type Wall struct {
	ID      WallID
	Corners [2]CornerID
	// Rooms holds the room left of Corners[0]->Corners[1], then the room on the right.
	Rooms [2]RoomID
	Door  bool

	seg math.Segment
}

// Length returns the distance between the wall's corners.
func (w Wall) Length() float32 { return w.seg.Length() }

// Segment returns the wall's centre line.
func (w Wall) Segment() math.Segment { return w.seg }

// Other returns the room across w from r.
func (w Wall) Other(r RoomID) RoomID {
	if w.Rooms[0] == r {
		return w.Rooms[1]
	}
	return w.Rooms[0]
}

// Room is a connected region bounded by walls and the map bounds.
type Room struct {
	ID RoomID
	// Faces are the triangles of the room; valid until the next edit.
	Faces []cdt.FaceID
	Outer bool

	key string
}

// PerimeterSegment is a piece of the map bounds between two hull vertices.
type PerimeterSegment struct {
	A, B cdt.VertexID
	Seg  math.Segment
	// Corners are zero for bound vertices no edit has referenced.
	Corners [2]CornerID
}

type edgeKey [2]cdt.VertexID

func keyOf(a, b cdt.VertexID) edgeKey {
	if b < a {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// Map is the floor plan. It is not safe for concurrent mutation; concurrent reads
// are fine between edits.
type Map struct {
	// CheckInvariants runs Validate after every edit and rolls back on failure.
	CheckInvariants bool

	tri      *cdt.Triangulation
	min, max math.Vec2
	nextID   ID
	epoch    uint64

	corners  map[CornerID]Corner
	byVertex map[cdt.VertexID]CornerID
	walls    map[WallID]Wall
	byEdge   map[edgeKey]WallID
	rooms    map[RoomID]Room
	faceRoom []RoomID
	outer    RoomID

	cornerIndex *rtree.RTreeG[CornerID]
	wallIndex   *rtree.RTreeG[WallID]

	events []Event
	log    *zap.Logger
}

// New creates an empty map covering [min, max]. The empty map has a single outer
// room.
func New(min, max math.Vec2) *Map {
	m := &Map{
		tri:         cdt.New(min, max),
		min:         min,
		max:         max,
		corners:     make(map[CornerID]Corner),
		byVertex:    make(map[cdt.VertexID]CornerID),
		walls:       make(map[WallID]Wall),
		byEdge:      make(map[edgeKey]WallID),
		rooms:       make(map[RoomID]Room),
		cornerIndex: &rtree.RTreeG[CornerID]{},
		wallIndex:   &rtree.RTreeG[WallID]{},
		log:         logger.Named("planmap"),
	}
	m.relabel()
	m.events = nil
	return m
}

func (m *Map) allocID() ID {
	m.nextID++
	return m.nextID
}

// Bounds returns the map bounds.
func (m *Map) Bounds() (min, max math.Vec2) {
	return m.min, m.max
}

// Epoch counts successful edits that changed the map.
func (m *Map) Epoch() uint64 {
	return m.epoch
}

// Triangulation exposes the underlying triangulation for read-only use.
func (m *Map) Triangulation() *cdt.Triangulation {
	return m.tri
}

// Corner returns the corner with the given id.
func (m *Map) Corner(id CornerID) (Corner, bool) {
	c, ok := m.corners[id]
	return c, ok
}

// Wall returns the wall with the given id.
func (m *Map) Wall(id WallID) (Wall, bool) {
	w, ok := m.walls[id]
	return w, ok
}

// Room returns the room with the given id.
func (m *Map) Room(id RoomID) (Room, bool) {
	r, ok := m.rooms[id]
	return r, ok
}

// OuterRoom returns the room touching the map bounds at the minimum corner.
func (m *Map) OuterRoom() RoomID {
	return m.outer
}

// FaceRoom returns the room owning triangle f.
func (m *Map) FaceRoom(f cdt.FaceID) RoomID {
	if f < 0 || int(f) >= len(m.faceRoom) {
		return 0
	}
	return m.faceRoom[f]
}

// Corners returns all corners ordered by id.
func (m *Map) Corners() []Corner {
	out := make([]Corner, 0, len(m.corners))
	for _, c := range m.corners {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Walls returns all walls ordered by id.
func (m *Map) Walls() []Wall {
	out := make([]Wall, 0, len(m.walls))
	for _, w := range m.walls {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Doors returns the walls marked as doors, ordered by id.
func (m *Map) Doors() []Wall {
	var out []Wall
	for _, w := range m.walls {
		if w.Door {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// RoomsDeduped returns every room once, ordered by id.
func (m *Map) RoomsDeduped() []Room {
	out := make([]Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CornerWalls returns the walls meeting at c, ordered by id.
func (m *Map) CornerWalls(c CornerID) ([]WallID, error) {
	corner, ok := m.corners[c]
	if !ok {
		return nil, unknownCorner(c)
	}
	return m.vertexWalls(corner.Vertex), nil
}

func (m *Map) vertexWalls(v cdt.VertexID) []WallID {
	var out []WallID
	for _, n := range m.tri.Neighbors(v) {
		if w, ok := m.byEdge[keyOf(v, n)]; ok {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// WallRooms returns the rooms on both sides of w.
func (m *Map) WallRooms(w WallID) ([2]RoomID, error) {
	wall, ok := m.walls[w]
	if !ok {
		return [2]RoomID{}, unknownWall(w)
	}
	return wall.Rooms, nil
}

// RoomWalls returns the walls bounding r, ordered by id.
func (m *Map) RoomWalls(r RoomID) ([]WallID, error) {
	if _, ok := m.rooms[r]; !ok {
		return nil, unknownRoom(r)
	}
	var out []WallID
	for _, w := range m.walls {
		if w.Rooms[0] == r || w.Rooms[1] == r {
			out = append(out, w.ID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// WallBetween returns the wall joining a and b.
func (m *Map) WallBetween(a, b CornerID) (WallID, bool) {
	ca, ok := m.corners[a]
	if !ok {
		return 0, false
	}
	cb, ok := m.corners[b]
	if !ok {
		return 0, false
	}
	w, ok := m.byEdge[keyOf(ca.Vertex, cb.Vertex)]
	return w, ok
}

// Perimeter returns the map bounds as hull segments, counter-clockwise from the
// minimum corner.
func (m *Map) Perimeter() []PerimeterSegment {
	var out []PerimeterSegment
	v := cdt.VertexID(0)
	for i := 0; i < m.tri.NumVertices(); i++ {
		e := m.tri.OutEdges(v)[0]
		w := m.tri.Dest(e)
		out = append(out, PerimeterSegment{
			A:       v,
			B:       w,
			Seg:     math.Segment{A: m.tri.Position(v), B: m.tri.Position(w)},
			Corners: [2]CornerID{m.byVertex[v], m.byVertex[w]},
		})
		v = w
		if v == 0 {
			break
		}
	}
	return out
}

// ContainingRoom returns the room containing p. Pass the returned hint to the next
// query near p, or NoHint.
func (m *Map) ContainingRoom(p math.Vec2, hint Hint) (RoomID, Hint, error) {
	if !m.tri.Alive(hint) {
		hint = m.nearestVertex(p)
	}
	f, err := m.tri.Locate(p, hint)
	if err != nil {
		return 0, NoHint, err
	}
	return m.faceRoom[f], m.tri.FaceVertices(f)[0], nil
}

func (m *Map) onBounds(p math.Vec2) bool {
	return p.X == m.min.X || p.X == m.max.X || p.Y == m.min.Y || p.Y == m.max.Y
}

func box(p math.Vec2) [2]float64 {
	return [2]float64{float64(p.X), float64(p.Y)}
}

func segBox(s math.Segment) (min, max [2]float64) {
	min = [2]float64{float64(math.Min(s.A.X, s.B.X)), float64(math.Min(s.A.Y, s.B.Y))}
	max = [2]float64{float64(math.Max(s.A.X, s.B.X)), float64(math.Max(s.A.Y, s.B.Y))}
	return min, max
}

// nearestCorner returns the corner closest to p within eps; ties go to the smaller id.
func (m *Map) nearestCorner(p math.Vec2, eps float32) (CornerID, bool) {
	lo, hi := box(p.Sub(math.V2(eps, eps))), box(p.Add(math.V2(eps, eps)))
	best, bestD := CornerID(0), eps
	m.cornerIndex.Search(lo, hi, func(_, _ [2]float64, c CornerID) bool {
		d := m.corners[c].Pos.Distance(p)
		if d < bestD || (d == bestD && best != 0 && c < best) {
			best, bestD = c, d
		}
		return true
	})
	return best, best != 0
}

// nearestVertex returns the triangulation vertex of the corner nearest to p, or
// NoHint on a map without corners.
func (m *Map) nearestVertex(p math.Vec2) Hint {
	hint := NoHint
	m.cornerIndex.Nearby(
		rtree.BoxDist[float64, CornerID](box(p), box(p), nil),
		func(_, _ [2]float64, c CornerID, _ float64) bool {
			hint = m.corners[c].Vertex
			return false
		},
	)
	return hint
}

// wallNear returns the wall whose interior passes within CoincidenceEpsilon of p and
// the closest point on it.
func (m *Map) wallNear(p math.Vec2) (Wall, math.Vec2, bool) {
	eps := CoincidenceEpsilon
	lo, hi := box(p.Sub(math.V2(eps, eps))), box(p.Add(math.V2(eps, eps)))
	var best Wall
	var bestQ math.Vec2
	bestD := eps
	found := false
	m.wallIndex.Search(lo, hi, func(_, _ [2]float64, id WallID) bool {
		w := m.walls[id]
		q := w.seg.ClosestPoint(p)
		d := q.Distance(p)
		if d >= eps || q.Distance(w.seg.A) < eps || q.Distance(w.seg.B) < eps {
			return true
		}
		if !found || d < bestD || (d == bestD && id < best.ID) {
			best, bestQ, bestD, found = w, q, d, true
		}
		return true
	})
	return best, bestQ, found
}

// CornerAt returns the corner closest to p within tol.
func (m *Map) CornerAt(p math.Vec2, tol float32) (CornerID, bool) {
	return m.nearestCorner(p, tol)
}

// WallAt returns the wall closest to p within tol; ties go to the smaller id.
func (m *Map) WallAt(p math.Vec2, tol float32) (WallID, bool) {
	lo, hi := box(p.Sub(math.V2(tol, tol))), box(p.Add(math.V2(tol, tol)))
	best, bestD := WallID(0), tol
	m.wallIndex.Search(lo, hi, func(_, _ [2]float64, id WallID) bool {
		d := m.walls[id].seg.DistanceTo(p)
		if d < bestD || (d == bestD && best != 0 && id < best) {
			best, bestD = id, d
		}
		return true
	})
	return best, best != 0
}
