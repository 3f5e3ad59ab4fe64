package sim

import (
	"fmt"

	"github.com/Faultbox/cellblock/internal/planmap"
	"github.com/Faultbox/cellblock/pkg/math"
)

// Edit is one map mutation applied during a tick.
type Edit interface {
	Apply(m *planmap.Map) error
	String() string
}

// InsertCorner places a corner.
type InsertCorner struct {
	Def planmap.CornerDef
}

func (e InsertCorner) Apply(m *planmap.Map) error {
	_, err := m.InsertCorner(e.Def)
	return err
}

func (e InsertCorner) String() string { return fmt.Sprintf("corner %v", e.Def) }

// InsertWall draws a wall, optionally as a door.
type InsertWall struct {
	Start, End planmap.CornerDef
	Door       bool
}

func (e InsertWall) Apply(m *planmap.Map) error {
	_, _, _, err := m.InsertWallWith(e.Start, e.End, planmap.WallBundle{Door: e.Door})
	return err
}

func (e InsertWall) String() string {
	if e.Door {
		return fmt.Sprintf("door wall %v-%v", e.Start, e.End)
	}
	return fmt.Sprintf("wall %v-%v", e.Start, e.End)
}

// SetDoor marks or unmarks a wall as door.
type SetDoor struct {
	Wall planmap.WallID
	Door bool
}

func (e SetDoor) Apply(m *planmap.Map) error { return m.SetDoor(e.Wall, e.Door) }

func (e SetDoor) String() string { return fmt.Sprintf("set door %v=%t", e.Wall, e.Door) }

// RemoveWall removes a wall.
type RemoveWall struct {
	Wall planmap.WallID
}

func (e RemoveWall) Apply(m *planmap.Map) error { return m.RemoveWall(e.Wall) }

func (e RemoveWall) String() string { return fmt.Sprintf("remove %v", e.Wall) }

// MoveCorner moves a corner with its walls.
type MoveCorner struct {
	Corner planmap.CornerID
	Pos    math.Vec2
}

func (e MoveCorner) Apply(m *planmap.Map) error {
	_, err := m.MoveCorner(e.Corner, e.Pos)
	return err
}

func (e MoveCorner) String() string { return fmt.Sprintf("move %v to %v", e.Corner, e.Pos) }
