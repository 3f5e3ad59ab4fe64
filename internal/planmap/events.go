package planmap

import (
	"fmt"
	"sort"

	"github.com/zyedidia/generic/mapset"

	"github.com/Faultbox/cellblock/pkg/math"
)

// EventKind is the type of a map change event.
type EventKind uint8

const (
	// EventCornerInserted reports a new corner.
	// Fields: Corner, Pos
	EventCornerInserted EventKind = iota + 1

	// EventCornerRemoved reports a deleted corner.
	// Fields: Corner
	EventCornerRemoved

	// EventWallInserted reports a new wall.
	// Fields: Wall, Corners
	EventWallInserted

	// EventWallRemoved reports a deleted wall. A door on it is removed first.
	// Fields: Wall
	EventWallRemoved

	// EventDoorInserted reports a wall that became a door.
	// Fields: Wall
	EventDoorInserted

	// EventDoorRemoved reports a door that was removed from its wall.
	// Fields: Wall
	EventDoorRemoved

	// EventRoomReplaced reports a change of the room partition.
	// Fields: Old, New
	EventRoomReplaced
)

var eventNames = map[EventKind]string{
	EventCornerInserted: "CornerInserted",
	EventCornerRemoved:  "CornerRemoved",
	EventWallInserted:   "WallInserted",
	EventWallRemoved:    "WallRemoved",
	EventDoorInserted:   "DoorInserted",
	EventDoorRemoved:    "DoorRemoved",
	EventRoomReplaced:   "RoomReplaced",
}

func (k EventKind) String() string {
	if n, ok := eventNames[k]; ok {
		return n
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

// Event is a change of the map. Only the fields listed for the kind are set.
type Event struct {
	Kind    EventKind
	Corner  CornerID
	Pos     math.Vec2
	Wall    WallID
	Corners [2]CornerID
	Old     mapset.Set[RoomID]
	New     mapset.Set[RoomID]
}

func (e Event) String() string {
	switch e.Kind {
	case EventCornerInserted:
		return fmt.Sprintf("%v(%v, %v)", e.Kind, e.Corner, e.Pos)
	case EventCornerRemoved:
		return fmt.Sprintf("%v(%v)", e.Kind, e.Corner)
	case EventWallInserted:
		return fmt.Sprintf("%v(%v, %v, %v)", e.Kind, e.Wall, e.Corners[0], e.Corners[1])
	case EventRoomReplaced:
		return fmt.Sprintf("%v(%v -> %v)", e.Kind, SortedRooms(e.Old), SortedRooms(e.New))
	default:
		return fmt.Sprintf("%v(%v)", e.Kind, e.Wall)
	}
}

// SortedRooms returns the members of s in increasing order.
func SortedRooms(s mapset.Set[RoomID]) []RoomID {
	ids := make([]RoomID, 0, s.Size())
	s.Each(func(r RoomID) {
		ids = append(ids, r)
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *Map) emit(e Event) {
	m.events = append(m.events, e)
}

// TakeEvents returns the events emitted since the last call, in order, and clears
// the queue.
func (m *Map) TakeEvents() []Event {
	ev := m.events
	m.events = nil
	return ev
}

// PendingEvents returns the number of undrained events.
func (m *Map) PendingEvents() int {
	return len(m.events)
}
