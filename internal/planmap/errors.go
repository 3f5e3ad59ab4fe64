package planmap

import (
	"errors"
	"fmt"
)

// Map errors. Unknown-entity errors wrap ErrUnknownEntity so callers can test for
// either.
var (
	ErrUnknownEntity = errors.New("planmap: unknown entity")
	ErrUnknownCorner = fmt.Errorf("%w: corner", ErrUnknownEntity)
	ErrUnknownWall   = fmt.Errorf("%w: wall", ErrUnknownEntity)
	ErrUnknownRoom   = fmt.Errorf("%w: room", ErrUnknownEntity)

	// ErrInvariant reports internal inconsistency. The edit that hit it has been
	// rolled back.
	ErrInvariant = errors.New("planmap: invariant violated")

	// ErrDoorTooNarrow is returned when a door is requested on a short wall.
	ErrDoorTooNarrow = errors.New("planmap: wall too short for a door")

	// ErrBoundCorner is returned when moving a corner that sits on a map bound vertex.
	ErrBoundCorner = errors.New("planmap: corner is fixed to the map bounds")
)

// errNoop aborts an edit that turned out degenerate; the edit is rolled back and
// reported as a no-op.
var errNoop = errors.New("planmap: degenerate edit")

// ErrNotDoor is returned when a door profile is requested for a plain wall.
var ErrNotDoor = errors.New("planmap: wall is not a door")

func unknownCorner(c CornerID) error { return fmt.Errorf("%w %v", ErrUnknownCorner, c) }
func unknownWall(w WallID) error     { return fmt.Errorf("%w %v", ErrUnknownWall, w) }
func unknownRoom(r RoomID) error     { return fmt.Errorf("%w %v", ErrUnknownRoom, r) }

func invariant(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}
