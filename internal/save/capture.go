package save

import (
	"github.com/Faultbox/cellblock/internal/planmap"
	"github.com/Faultbox/cellblock/internal/sim"
)

// mainMap is the id of the single map of a world save.
const mainMap = 1

// CaptureMap renumbers the map densely: corners and walls in creation order, rooms
// in order of first appearance along the walls.
func CaptureMap(m *planmap.Map, id uint64) MapModel {
	lo, hi := m.Bounds()
	mm := MapModel{ID: id, Min: PointOf(lo), Max: PointOf(hi)}

	corners := make(map[planmap.CornerID]uint64)
	for _, c := range m.Corners() {
		corners[c.ID] = uint64(len(corners) + 1)
		mm.Corners = append(mm.Corners, CornerModel{ID: corners[c.ID], Position: PointOf(c.Pos)})
	}

	rooms := make(map[planmap.RoomID]uint64)
	roomOf := func(r planmap.RoomID) uint64 {
		if id, ok := rooms[r]; ok {
			return id
		}
		rooms[r] = uint64(len(rooms) + 1)
		mm.Rooms = append(mm.Rooms, RoomModel{ID: rooms[r], Outer: r == m.OuterRoom()})
		return rooms[r]
	}

	for i, w := range m.Walls() {
		mm.Walls = append(mm.Walls, WallModel{
			ID:      uint64(i + 1),
			Corners: [2]uint64{corners[w.Corners[0]], corners[w.Corners[1]]},
			Rooms:   [2]uint64{roomOf(w.Rooms[0]), roomOf(w.Rooms[1])},
			Door:    w.Door,
		})
	}
	for _, r := range m.RoomsDeduped() {
		roomOf(r.ID)
	}
	return mm
}

// Capture saves a world: its map and every pawn.
func Capture(w *sim.World) SaveModel {
	s := SaveModel{
		Version: Version,
		Maps:    []MapModel{CaptureMap(w.Map, mainMap)},
	}
	for i, p := range w.Pawns() {
		s.Pawns = append(s.Pawns, PawnModel{
			ID:              uint64(i + 1),
			Map:             mainMap,
			Position:        PointOf(p.Position),
			Rotation:        p.Rotation,
			LinearVelocity:  PointOf(p.LinearVelocity),
			AngularVelocity: p.AngularVelocity,
		})
	}
	return s
}
