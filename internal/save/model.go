// Package save persists maps and pawns. Ids are renumbered densely on save and
// mapped through a table on load, where the map is rebuilt by replaying its
// corners and walls.
package save

import "github.com/Faultbox/cellblock/pkg/math"

// Version is the current save layout version.
const Version = 1

// Point is a position stored as [x, y].
type Point [2]float32

// PointOf converts a vector.
func PointOf(v math.Vec2) Point { return Point{v.X, v.Y} }

// Vec2 converts back to a vector.
func (p Point) Vec2() math.Vec2 { return math.V2(p[0], p[1]) }

// SaveModel is the root of a save file.
type SaveModel struct {
	Version int         `yaml:"version" msgpack:"version"`
	Pawns   []PawnModel `yaml:"pawns" msgpack:"pawns"`
	Maps    []MapModel  `yaml:"maps" msgpack:"maps"`
}

// MapModel is one map. Corners and walls are listed in creation order.
type MapModel struct {
	ID      uint64        `yaml:"id" msgpack:"id"`
	Min     Point         `yaml:"min,flow" msgpack:"min"`
	Max     Point         `yaml:"max,flow" msgpack:"max"`
	Corners []CornerModel `yaml:"corners" msgpack:"corners"`
	Walls   []WallModel   `yaml:"walls" msgpack:"walls"`
	Rooms   []RoomModel   `yaml:"rooms" msgpack:"rooms"`
}

// CornerModel is a corner.
type CornerModel struct {
	ID       uint64 `yaml:"id" msgpack:"id"`
	Position Point  `yaml:"position,flow" msgpack:"position"`
}

// WallModel is a wall. Rooms are left and right of Corners[0] -> Corners[1].
type WallModel struct {
	ID      uint64    `yaml:"id" msgpack:"id"`
	Corners [2]uint64 `yaml:"corners,flow" msgpack:"corners"`
	Rooms   [2]uint64 `yaml:"rooms,flow" msgpack:"rooms"`
	Door    bool      `yaml:"door,omitempty" msgpack:"door"`
}

// RoomModel is a room.
type RoomModel struct {
	ID    uint64 `yaml:"id" msgpack:"id"`
	Outer bool   `yaml:"outer,omitempty" msgpack:"outer"`
}

// PawnModel is a pawn and the map holding it.
type PawnModel struct {
	ID              uint64  `yaml:"id" msgpack:"id"`
	Map             uint64  `yaml:"map" msgpack:"map"`
	Position        Point   `yaml:"position,flow" msgpack:"position"`
	Rotation        float32 `yaml:"rotation" msgpack:"rotation"`
	LinearVelocity  Point   `yaml:"linear_velocity,flow" msgpack:"linear_velocity"`
	AngularVelocity float32 `yaml:"angular_velocity" msgpack:"angular_velocity"`
}
