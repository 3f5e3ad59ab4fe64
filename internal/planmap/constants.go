package planmap

import "github.com/Faultbox/cellblock/pkg/math"

// Geometry constants in metres.
const (
	// WallRadius is half the thickness of a wall.
	WallRadius float32 = 0.125
	// PawnRadius is the radius of a walking agent.
	PawnRadius float32 = 0.16
	// Radius is the clearance kept between walls and an agent's centre.
	Radius = WallRadius + PawnRadius

	// CoincidenceEpsilon is the distance under which two corners are the same.
	CoincidenceEpsilon = WallRadius / 4

	// DoorMinWidth is the shortest wall that can carry a door.
	DoorMinWidth float32 = 0.9
	// DoorWidth is the nominal width of a door frame.
	DoorWidth float32 = 1.0
	// DoorInnerWidth is the walkable opening of a door.
	DoorInnerWidth float32 = 0.75
	// DoorDepth is the depth of a door frame across the wall.
	DoorDepth float32 = 0.2
)

// Corner offset shapes.
const (
	reflexGap    = 3 * math.Pi / 2
	chamferAngle = 3 * math.Pi / 4
	// maxMiter caps the miter distance of very sharp corners.
	maxMiter = 8 * Radius
)
