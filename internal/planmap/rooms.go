package planmap

import (
	"sort"
	"strconv"
	"strings"

	"github.com/zyedidia/generic/mapset"
	"github.com/zyedidia/generic/queue"

	"github.com/Faultbox/cellblock/pkg/cdt"
)

// relabel floods the triangulation into rooms. Rooms whose region is unchanged keep
// their id; the others are replaced by fresh ids and reported in one RoomReplaced
// event.
func (m *Map) relabel() error {
	n := m.tri.NumFaces()
	label := make([]int, n)
	for i := range label {
		label[i] = -1
	}

	var comps [][]cdt.FaceID
	for f := 0; f < n; f++ {
		if label[f] >= 0 {
			continue
		}
		id := len(comps)
		var faces []cdt.FaceID
		q := queue.New[cdt.FaceID]()
		label[f] = id
		q.Enqueue(cdt.FaceID(f))
		for !q.Empty() {
			g := q.Dequeue()
			faces = append(faces, g)
			for k := 0; k < 3; k++ {
				e := m.tri.FaceEdge(g, k)
				o := m.tri.Twin(e)
				if o == cdt.NoEdge || m.tri.IsConstraint(e) {
					continue
				}
				h := m.tri.Face(o)
				if label[h] < 0 {
					label[h] = id
					q.Enqueue(h)
				}
			}
		}
		sort.Slice(faces, func(i, j int) bool { return faces[i] < faces[j] })
		comps = append(comps, faces)
	}

	byKey := make(map[string]RoomID, len(m.rooms))
	for _, r := range m.rooms {
		byKey[r.key] = r.ID
	}

	outerFace := m.tri.Face(m.tri.OutEdges(0)[0])
	rooms := make(map[RoomID]Room, len(comps))
	faceRoom := make([]RoomID, n)
	added := mapset.New[RoomID]()
	kept := mapset.New[RoomID]()

	for i, faces := range comps {
		key := m.regionKey(faces)
		id, ok := byKey[key]
		if ok && !kept.Has(id) {
			kept.Put(id)
		} else {
			id = RoomID(m.allocID())
			added.Put(id)
		}
		rooms[id] = Room{ID: id, Faces: faces, Outer: label[outerFace] == i, key: key}
		for _, f := range faces {
			faceRoom[f] = id
		}
		if label[outerFace] == i {
			m.outer = id
		}
	}

	removed := mapset.New[RoomID]()
	for id := range m.rooms {
		if !kept.Has(id) {
			removed.Put(id)
		}
	}

	m.rooms = rooms
	m.faceRoom = faceRoom
	if err := m.bindWallRooms(); err != nil {
		return err
	}
	if added.Size() > 0 || removed.Size() > 0 {
		m.emit(Event{Kind: EventRoomReplaced, Old: removed, New: added})
	}
	return nil
}

// regionKey identifies a room by its boundary half-edges and vertices, which stay
// the same for a region whatever its triangulation.
func (m *Map) regionKey(faces []cdt.FaceID) string {
	var bounds []string
	verts := mapset.New[cdt.VertexID]()
	for _, f := range faces {
		for k := 0; k < 3; k++ {
			e := m.tri.FaceEdge(f, k)
			verts.Put(m.tri.Origin(e))
			if m.tri.Twin(e) == cdt.NoEdge || m.tri.IsConstraint(e) {
				bounds = append(bounds, strconv.Itoa(int(m.tri.Origin(e)))+">"+strconv.Itoa(int(m.tri.Dest(e))))
			}
		}
	}
	var vs []int
	verts.Each(func(v cdt.VertexID) {
		vs = append(vs, int(v))
	})
	sort.Ints(vs)
	sort.Strings(bounds)

	var b strings.Builder
	b.WriteString(strings.Join(bounds, ","))
	b.WriteByte('|')
	for i, v := range vs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}

func (m *Map) bindWallRooms() error {
	for id, w := range m.walls {
		a, b := m.corners[w.Corners[0]], m.corners[w.Corners[1]]
		e := m.tri.FindEdge(a.Vertex, b.Vertex)
		if e == cdt.NoEdge {
			return invariant("%v has no edge", id)
		}
		o := m.tri.Twin(e)
		if o == cdt.NoEdge {
			return invariant("%v lies on the bounds", id)
		}
		w.Rooms = [2]RoomID{m.faceRoom[m.tri.Face(e)], m.faceRoom[m.tri.Face(o)]}
		m.walls[id] = w
	}
	return nil
}
