package planmap

import (
	"fmt"

	"github.com/Faultbox/cellblock/pkg/cdt"
	"github.com/Faultbox/cellblock/pkg/math"
)

// ID is an opaque entity identifier. Zero means none.
type ID uint64

// CornerID identifies a corner.
type CornerID ID

// WallID identifies a wall.
type WallID ID

// RoomID identifies a room. Room ids are epoch ids: a room whose face set changes
// gets a new id.
type RoomID ID

// DoorID identifies a door by the wall it marks.
type DoorID = WallID

// Hint seeds point location; pass the hint returned by the previous query.
type Hint = cdt.VertexID

// NoHint asks point location to start from the nearest corner.
const NoHint Hint = -1

func (id CornerID) String() string { return fmt.Sprintf("c%d", uint64(id)) }
func (id WallID) String() string   { return fmt.Sprintf("w%d", uint64(id)) }
func (id RoomID) String() string   { return fmt.Sprintf("r%d", uint64(id)) }

type cornerDefKind uint8

const (
	defPosition cornerDefKind = iota
	defWall
	defCorner
)

// CornerDef names the corner an edit refers to: a position, a point on a wall or an
// existing corner.
type CornerDef struct {
	kind   cornerDefKind
	pos    math.Vec2
	wall   WallID
	corner CornerID
}

// AtPosition refers to the corner at p, created if none is within CoincidenceEpsilon.
func AtPosition(p math.Vec2) CornerDef {
	return CornerDef{kind: defPosition, pos: p}
}

// AtWall refers to a new corner splitting w at the point nearest to p.
func AtWall(w WallID, p math.Vec2) CornerDef {
	return CornerDef{kind: defWall, wall: w, pos: p}
}

// AtCorner refers to the existing corner c.
func AtCorner(c CornerID) CornerDef {
	return CornerDef{kind: defCorner, corner: c}
}

func (d CornerDef) String() string {
	switch d.kind {
	case defWall:
		return fmt.Sprintf("wall(%v, %v)", d.wall, d.pos)
	case defCorner:
		return fmt.Sprintf("corner(%v)", d.corner)
	default:
		return fmt.Sprintf("position(%v)", d.pos)
	}
}

// WallBundle carries extra attributes attached to every wall segment an insert
// produces.
type WallBundle struct {
	Door bool
}
