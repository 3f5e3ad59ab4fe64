package planmap

import (
	"errors"

	"github.com/tidwall/rtree"
	"go.uber.org/zap"

	"github.com/Faultbox/cellblock/pkg/cdt"
	"github.com/Faultbox/cellblock/pkg/math"
)

type snapshot struct {
	tri      *cdt.Triangulation
	nextID   ID
	corners  map[CornerID]Corner
	byVertex map[cdt.VertexID]CornerID
	walls    map[WallID]Wall
	byEdge   map[edgeKey]WallID
	rooms    map[RoomID]Room
	faceRoom []RoomID
	outer    RoomID

	cornerIndex *rtree.RTreeG[CornerID]
	wallIndex   *rtree.RTreeG[WallID]
	events      int
}

func copyMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func (m *Map) snapshot() snapshot {
	return snapshot{
		tri:         m.tri.Clone(),
		nextID:      m.nextID,
		corners:     copyMap(m.corners),
		byVertex:    copyMap(m.byVertex),
		walls:       copyMap(m.walls),
		byEdge:      copyMap(m.byEdge),
		rooms:       copyMap(m.rooms),
		faceRoom:    append([]RoomID(nil), m.faceRoom...),
		outer:       m.outer,
		cornerIndex: m.cornerIndex.Copy(),
		wallIndex:   m.wallIndex.Copy(),
		events:      len(m.events),
	}
}

func (m *Map) restore(s snapshot) {
	m.tri = s.tri
	m.nextID = s.nextID
	m.corners = s.corners
	m.byVertex = s.byVertex
	m.walls = s.walls
	m.byEdge = s.byEdge
	m.rooms = s.rooms
	m.faceRoom = s.faceRoom
	m.outer = s.outer
	m.cornerIndex = s.cornerIndex
	m.wallIndex = s.wallIndex
	m.events = m.events[:s.events]
}

// atomic runs fn as one edit. On error the map is restored to its state before the
// call. errNoop is returned unchanged so that callers can report a no-op.
func (m *Map) atomic(op string, fn func() error) error {
	snap := m.snapshot()

	err := fn()
	if err == nil {
		err = m.relabel()
	}
	if err == nil && m.CheckInvariants {
		err = m.Validate()
	}
	if err != nil {
		m.restore(snap)
		switch {
		case errors.Is(err, errNoop):
			m.log.Debug("degenerate edit ignored", zap.String("op", op))
		case errors.Is(err, ErrInvariant):
			m.log.Error("edit rolled back", zap.String("op", op), zap.Error(err))
		default:
			m.log.Debug("edit rejected", zap.String("op", op), zap.Error(err))
		}
		return err
	}

	if len(m.events) > snap.events {
		m.epoch++
		m.log.Debug("edit applied",
			zap.String("op", op),
			zap.Uint64("epoch", m.epoch),
			zap.Int("events", len(m.events)-snap.events))
	}
	return nil
}

// InsertCorner resolves def to a corner, creating it if needed.
func (m *Map) InsertCorner(def CornerDef) (CornerID, error) {
	var c CornerID
	err := m.atomic("insert corner", func() error {
		var err error
		c, err = m.resolve(def)
		return err
	})
	if errors.Is(err, errNoop) {
		return 0, nil
	}
	return c, err
}

// InsertWall joins the corners named by start and end with a wall, splitting it
// where it crosses other walls or runs through corners. It returns the wall ending at
// end and the end corner. ok is false, and the map unchanged, when both ends resolve
// to the same corner or the wall would lie on the bounds.
func (m *Map) InsertWall(start, end CornerDef) (WallID, CornerID, bool, error) {
	return m.InsertWallWith(start, end, WallBundle{})
}

// InsertWallWith is InsertWall attaching bundle to every produced wall segment.
func (m *Map) InsertWallWith(start, end CornerDef, bundle WallBundle) (WallID, CornerID, bool, error) {
	var (
		w    WallID
		last CornerID
		ok   bool
	)
	err := m.atomic("insert wall", func() error {
		a, err := m.resolve(start)
		if err != nil {
			return err
		}
		b, err := m.resolve(end)
		if err != nil {
			return err
		}
		last = b
		if a == b {
			return errNoop
		}
		w, err = m.connect(a, b, bundle.Door)
		if err == nil && w == 0 {
			// Every segment ran along the bounds.
			return errNoop
		}
		ok = err == nil
		return err
	})
	if errors.Is(err, errNoop) || (err == nil && !ok) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	return w, last, true, nil
}

// SetDoor marks or unmarks w as a door.
func (m *Map) SetDoor(w WallID, door bool) error {
	return m.atomic("set door", func() error {
		wall, ok := m.walls[w]
		if !ok {
			return unknownWall(w)
		}
		if wall.Door == door {
			return nil
		}
		if door && wall.Length() < DoorMinWidth {
			return ErrDoorTooNarrow
		}
		m.setDoor(wall, door)
		return nil
	})
}

// RemoveWall deletes w. Corners left without walls are deleted unless pinned.
func (m *Map) RemoveWall(w WallID) error {
	return m.atomic("remove wall", func() error {
		wall, ok := m.walls[w]
		if !ok {
			return unknownWall(w)
		}
		if err := m.dropWall(wall); err != nil {
			return err
		}
		for _, c := range wall.Corners {
			if err := m.dropIfIsolated(c); err != nil {
				return err
			}
		}
		return nil
	})
}

// MoveCorner moves c to p by removing it with its walls and adding the walls back
// from a corner at p. Door flags are kept where the new walls are long enough. It
// returns the id of the corner at p.
func (m *Map) MoveCorner(c CornerID, p math.Vec2) (CornerID, error) {
	var moved CornerID
	err := m.atomic("move corner", func() error {
		corner, ok := m.corners[c]
		if !ok {
			return unknownCorner(c)
		}
		if corner.Vertex < cdt.BoxVertices {
			return ErrBoundCorner
		}

		type link struct {
			other CornerID
			door  bool
		}
		var links []link
		for _, id := range m.vertexWalls(corner.Vertex) {
			w := m.walls[id]
			other := w.Corners[0]
			if other == c {
				other = w.Corners[1]
			}
			links = append(links, link{other: other, door: w.Door})
			if err := m.dropWall(w); err != nil {
				return err
			}
		}
		if err := m.dropCorner(corner); err != nil {
			return err
		}

		var err error
		moved, err = m.cornerAt(p)
		if err != nil {
			return err
		}
		for _, l := range links {
			if l.other == moved {
				continue
			}
			if _, err := m.connect(moved, l.other, l.door); err != nil {
				return err
			}
		}
		for _, l := range links {
			if err := m.dropIfIsolated(l.other); err != nil {
				return err
			}
		}
		if _, ok := m.corners[moved]; !ok {
			// Moved onto its only neighbour: the wall collapsed away.
			moved = 0
		}
		return nil
	})
	if errors.Is(err, errNoop) {
		return 0, nil
	}
	return moved, err
}

// resolve maps def to a corner id, creating corners and splitting walls as needed.
func (m *Map) resolve(def CornerDef) (CornerID, error) {
	switch def.kind {
	case defCorner:
		if _, ok := m.corners[def.corner]; !ok {
			return 0, unknownCorner(def.corner)
		}
		return def.corner, nil
	case defWall:
		w, ok := m.walls[def.wall]
		if !ok {
			return 0, unknownWall(def.wall)
		}
		return m.splitWall(w, def.pos)
	default:
		return m.cornerAt(def.pos)
	}
}

// cornerAt returns the corner at p, snapping to the bounds, to nearby corners and
// onto nearby walls.
func (m *Map) cornerAt(p math.Vec2) (CornerID, error) {
	p = m.snapToBounds(p)

	if c, ok := m.nearestCorner(p, CoincidenceEpsilon); ok {
		return c, nil
	}
	if w, q, ok := m.wallNear(p); ok {
		return m.splitWall(w, q)
	}

	res, err := m.tri.Insert(p, m.nearestVertex(p))
	if err != nil {
		return 0, invariant("insert corner at %v: %v", p, err)
	}
	if res.Existing {
		if c, ok := m.byVertex[res.Vertex]; ok {
			return c, nil
		}
		return m.addCorner(res.Vertex), nil
	}

	c := m.addCorner(res.Vertex)
	if res.Split && res.SplitFixed {
		id, ok := m.byEdge[keyOf(res.SplitA, res.SplitB)]
		if !ok {
			return 0, invariant("split constraint %d-%d has no wall", res.SplitA, res.SplitB)
		}
		m.rebindSplit(m.walls[id], c)
	}
	return c, nil
}

func (m *Map) snapToBounds(p math.Vec2) math.Vec2 {
	p = p.Clamp(m.min, m.max)
	eps := CoincidenceEpsilon
	switch {
	case p.X-m.min.X < eps:
		p.X = m.min.X
	case m.max.X-p.X < eps:
		p.X = m.max.X
	}
	switch {
	case p.Y-m.min.Y < eps:
		p.Y = m.min.Y
	case m.max.Y-p.Y < eps:
		p.Y = m.max.Y
	}
	return p
}

// splitWall puts a corner on w at the point closest to p. Points within
// CoincidenceEpsilon of an end return that end's corner.
func (m *Map) splitWall(w Wall, p math.Vec2) (CornerID, error) {
	q := w.seg.ClosestPoint(p)
	if q.Distance(w.seg.A) < CoincidenceEpsilon {
		return w.Corners[0], nil
	}
	if q.Distance(w.seg.B) < CoincidenceEpsilon {
		return w.Corners[1], nil
	}

	a, b := m.corners[w.Corners[0]], m.corners[w.Corners[1]]
	v, err := m.tri.SplitEdge(a.Vertex, b.Vertex, q)
	if err != nil {
		return 0, invariant("split %v: %v", w.ID, err)
	}
	c := m.addCorner(v)
	m.rebindSplit(w, c)
	return c, nil
}

// rebindSplit replaces w by two walls meeting at c, which already splits the
// constraint edge.
func (m *Map) rebindSplit(w Wall, c CornerID) {
	if w.Door {
		m.emit(Event{Kind: EventDoorRemoved, Wall: w.ID})
	}
	m.forgetWall(w)
	m.emit(Event{Kind: EventWallRemoved, Wall: w.ID, Corners: w.Corners})

	w1 := m.addWall(w.Corners[0], c)
	w2 := m.addWall(c, w.Corners[1])
	if w.Door && w1.Length() >= DoorMinWidth && w2.Length() >= DoorMinWidth {
		m.setDoor(w1, true)
		m.setDoor(w2, true)
	}
}

// connect makes a wall from a to b, splitting it at every corner it runs through
// and every wall it crosses. Segments along the map bounds are skipped. It returns
// the wall ending at b, or zero when none was made.
func (m *Map) connect(a, b CornerID, door bool) (WallID, error) {
	segs := [][2]CornerID{{a, b}}
	var last WallID
	limit := 4*len(m.walls) + 64

	for n := 0; len(segs) > 0; n++ {
		if n > limit {
			return 0, invariant("wall %v-%v did not settle", a, b)
		}
		s := segs[0]
		ca, cb := m.corners[s[0]], m.corners[s[1]]
		if ca.ID == cb.ID || m.alongBounds(ca.Pos, cb.Pos) {
			segs = segs[1:]
			continue
		}

		res, err := m.tri.InsertConstraint(ca.Vertex, cb.Vertex)
		if err != nil {
			return 0, invariant("constrain %v-%v: %v", ca.ID, cb.ID, err)
		}

		switch res.Kind {
		case cdt.Inserted:
			w := m.addWall(ca.ID, cb.ID)
			if door && w.Length() >= DoorMinWidth {
				m.setDoor(w, true)
			}
			last = w.ID
			segs = segs[1:]

		case cdt.AlreadyConstrained:
			w := m.walls[m.byEdge[keyOf(ca.Vertex, cb.Vertex)]]
			if door && !w.Door && w.Length() >= DoorMinWidth {
				m.setDoor(w, true)
			}
			last = w.ID
			segs = segs[1:]

		case cdt.ThroughVertex:
			x := m.cornerOf(res.Vertex)
			segs = append([][2]CornerID{{ca.ID, x}, {x, cb.ID}}, segs[1:]...)

		case cdt.CrossesConstraint:
			id, ok := m.byEdge[keyOf(res.A, res.B)]
			if !ok {
				return 0, invariant("crossed constraint %d-%d has no wall", res.A, res.B)
			}
			crossed := m.walls[id]
			seg := math.Segment{A: ca.Pos, B: cb.Pos}
			t, _, ok := seg.Intersect(crossed.seg)
			if !ok {
				return 0, invariant("wall %v-%v parallel to crossed %v", ca.ID, cb.ID, id)
			}
			q := seg.At(t)
			// An end lying on the crossed wall joins it where it projects.
			switch {
			case q.Distance(ca.Pos) < CoincidenceEpsilon:
				q = ca.Pos
			case q.Distance(cb.Pos) < CoincidenceEpsilon:
				q = cb.Pos
			}
			x, err := m.splitWall(crossed, q)
			if err != nil {
				return 0, err
			}
			segs = append([][2]CornerID{{ca.ID, x}, {x, cb.ID}}, segs[1:]...)
		}
	}
	return last, nil
}

func (m *Map) alongBounds(a, b math.Vec2) bool {
	return (a.X == m.min.X && b.X == m.min.X) ||
		(a.X == m.max.X && b.X == m.max.X) ||
		(a.Y == m.min.Y && b.Y == m.min.Y) ||
		(a.Y == m.max.Y && b.Y == m.max.Y)
}

// cornerOf returns the corner on vertex v, creating one for bound vertices.
func (m *Map) cornerOf(v cdt.VertexID) CornerID {
	if c, ok := m.byVertex[v]; ok {
		return c
	}
	return m.addCorner(v)
}

func (m *Map) addCorner(v cdt.VertexID) CornerID {
	p := m.tri.Position(v)
	c := Corner{
		ID:     CornerID(m.allocID()),
		Pos:    p,
		Vertex: v,
		Pinned: m.onBounds(p),
	}
	m.corners[c.ID] = c
	m.byVertex[v] = c.ID
	m.cornerIndex.Insert(box(p), box(p), c.ID)
	m.emit(Event{Kind: EventCornerInserted, Corner: c.ID, Pos: p})
	return c.ID
}

func (m *Map) dropCorner(c Corner) error {
	if err := m.tri.RemoveVertex(c.Vertex); err != nil {
		return invariant("remove %v: %v", c.ID, err)
	}
	delete(m.corners, c.ID)
	delete(m.byVertex, c.Vertex)
	m.cornerIndex.Delete(box(c.Pos), box(c.Pos), c.ID)
	m.emit(Event{Kind: EventCornerRemoved, Corner: c.ID})
	return nil
}

func (m *Map) dropIfIsolated(id CornerID) error {
	c, ok := m.corners[id]
	if !ok || c.Pinned || len(m.vertexWalls(c.Vertex)) > 0 {
		return nil
	}
	return m.dropCorner(c)
}

func (m *Map) addWall(a, b CornerID) Wall {
	ca, cb := m.corners[a], m.corners[b]
	w := Wall{
		ID:      WallID(m.allocID()),
		Corners: [2]CornerID{a, b},
		seg:     math.Segment{A: ca.Pos, B: cb.Pos},
	}
	m.walls[w.ID] = w
	m.byEdge[keyOf(ca.Vertex, cb.Vertex)] = w.ID
	lo, hi := segBox(w.seg)
	m.wallIndex.Insert(lo, hi, w.ID)
	m.emit(Event{Kind: EventWallInserted, Wall: w.ID, Corners: w.Corners})
	return w
}

func (m *Map) forgetWall(w Wall) {
	ca, cb := m.corners[w.Corners[0]], m.corners[w.Corners[1]]
	delete(m.walls, w.ID)
	if m.byEdge[keyOf(ca.Vertex, cb.Vertex)] == w.ID {
		delete(m.byEdge, keyOf(ca.Vertex, cb.Vertex))
	}
	lo, hi := segBox(w.seg)
	m.wallIndex.Delete(lo, hi, w.ID)
}

// dropWall removes w and its constraint.
func (m *Map) dropWall(w Wall) error {
	ca, cb := m.corners[w.Corners[0]], m.corners[w.Corners[1]]
	if err := m.tri.RemoveConstraint(ca.Vertex, cb.Vertex); err != nil {
		return invariant("remove %v: %v", w.ID, err)
	}
	if w.Door {
		m.emit(Event{Kind: EventDoorRemoved, Wall: w.ID})
	}
	m.forgetWall(w)
	m.emit(Event{Kind: EventWallRemoved, Wall: w.ID, Corners: w.Corners})
	return nil
}

func (m *Map) setDoor(w Wall, door bool) {
	w.Door = door
	m.walls[w.ID] = w
	kind := EventDoorRemoved
	if door {
		kind = EventDoorInserted
	}
	m.emit(Event{Kind: kind, Wall: w.ID})
}
