package save

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/cellblock/internal/logger"
	"github.com/Faultbox/cellblock/internal/planmap"
	"github.com/Faultbox/cellblock/internal/sim"
)

// ErrLoadMismatch is returned when a replayed map does not reproduce the saved one.
var ErrLoadMismatch = errors.New("save does not match replayed map")

func mismatch(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrLoadMismatch, fmt.Sprintf(format, args...))
}

// Remap translates saved ids to the ids of a loaded map.
type Remap struct {
	Corners map[uint64]planmap.CornerID
	Walls   map[uint64]planmap.WallID
	Rooms   map[uint64]planmap.RoomID
}

// LoadMap rebuilds a map by inserting the saved corners and then the saved walls in
// file order, and checks that the resulting rooms match the saved ones one to one.
func LoadMap(mm MapModel, checkInvariants bool) (*planmap.Map, Remap, error) {
	log := logger.Named("save")
	m := planmap.New(mm.Min.Vec2(), mm.Max.Vec2())
	m.CheckInvariants = checkInvariants
	remap := Remap{
		Corners: make(map[uint64]planmap.CornerID, len(mm.Corners)),
		Walls:   make(map[uint64]planmap.WallID, len(mm.Walls)),
		Rooms:   make(map[uint64]planmap.RoomID, len(mm.Rooms)),
	}

	for _, c := range mm.Corners {
		if _, dup := remap.Corners[c.ID]; dup {
			return nil, remap, mismatch("duplicate corner %d", c.ID)
		}
		id, err := m.InsertCorner(planmap.AtPosition(c.Position.Vec2()))
		if err != nil {
			return nil, remap, fmt.Errorf("corner %d: %w", c.ID, err)
		}
		if id == 0 {
			return nil, remap, mismatch("corner %d at %v was not created", c.ID, c.Position)
		}
		remap.Corners[c.ID] = id
	}
	if got := len(m.Corners()); got != len(mm.Corners) {
		return nil, remap, mismatch("%d corners saved, %d distinct", len(mm.Corners), got)
	}

	for _, w := range mm.Walls {
		a, okA := remap.Corners[w.Corners[0]]
		b, okB := remap.Corners[w.Corners[1]]
		if !okA || !okB {
			return nil, remap, mismatch("wall %d names unknown corners %v", w.ID, w.Corners)
		}
		if _, _, _, err := m.InsertWallWith(planmap.AtCorner(a), planmap.AtCorner(b), planmap.WallBundle{Door: w.Door}); err != nil {
			return nil, remap, fmt.Errorf("wall %d: %w", w.ID, err)
		}
		id, ok := m.WallBetween(a, b)
		if !ok {
			return nil, remap, mismatch("wall %d between %v and %v was not created", w.ID, a, b)
		}
		remap.Walls[w.ID] = id
	}
	if got := len(m.Walls()); got != len(mm.Walls) {
		return nil, remap, mismatch("%d walls saved, %d replayed", len(mm.Walls), got)
	}

	if err := matchRooms(m, mm, remap); err != nil {
		return nil, remap, err
	}
	m.TakeEvents()

	log.Debug("map loaded",
		zap.Uint64("map", mm.ID),
		zap.Int("corners", len(mm.Corners)),
		zap.Int("walls", len(mm.Walls)),
		zap.Int("rooms", len(mm.Rooms)))
	return m, remap, nil
}

// matchRooms builds the bijection between saved and replayed rooms from the rooms on
// both sides of every wall.
func matchRooms(m *planmap.Map, mm MapModel, remap Remap) error {
	live := m.RoomsDeduped()
	if len(live) != len(mm.Rooms) {
		return mismatch("%d rooms saved, %d replayed", len(mm.Rooms), len(live))
	}

	outer := make(map[uint64]bool, len(mm.Rooms))
	for _, r := range mm.Rooms {
		outer[r.ID] = r.Outer
	}
	back := make(map[planmap.RoomID]uint64, len(live))
	bind := func(saved uint64, got planmap.RoomID) error {
		if _, known := outer[saved]; !known {
			return mismatch("unknown room %d", saved)
		}
		if prev, ok := remap.Rooms[saved]; ok && prev != got {
			return mismatch("room %d replayed as both %v and %v", saved, prev, got)
		}
		if prev, ok := back[got]; ok && prev != saved {
			return mismatch("rooms %d and %d replayed as one room %v", prev, saved, got)
		}
		if outer[saved] != (got == m.OuterRoom()) {
			return mismatch("room %d outer flag differs", saved)
		}
		remap.Rooms[saved], back[got] = got, saved
		return nil
	}

	for _, r := range mm.Rooms {
		if r.Outer {
			if err := bind(r.ID, m.OuterRoom()); err != nil {
				return err
			}
		}
	}
	for _, w := range mm.Walls {
		wall, _ := m.Wall(remap.Walls[w.ID])
		rooms := wall.Rooms
		if wall.Corners[0] != remap.Corners[w.Corners[0]] {
			rooms[0], rooms[1] = rooms[1], rooms[0]
		}
		for k := 0; k < 2; k++ {
			if err := bind(w.Rooms[k], rooms[k]); err != nil {
				return err
			}
		}
	}
	if len(remap.Rooms) != len(mm.Rooms) {
		return mismatch("%d of %d rooms bound", len(remap.Rooms), len(mm.Rooms))
	}
	return nil
}

// Restore rebuilds a world from a save. Only the first map is used.
func Restore(ctx context.Context, s SaveModel, opts sim.Options, checkInvariants bool) (*sim.World, error) {
	if s.Version != Version {
		return nil, fmt.Errorf("unsupported save version %d", s.Version)
	}
	if len(s.Maps) == 0 {
		return nil, mismatch("no maps")
	}
	mm := s.Maps[0]
	m, _, err := LoadMap(mm, checkInvariants)
	if err != nil {
		return nil, fmt.Errorf("loading map %d: %w", mm.ID, err)
	}
	w, err := sim.NewWorld(ctx, m, opts)
	if err != nil {
		return nil, err
	}
	for _, p := range s.Pawns {
		if p.Map != mm.ID {
			continue
		}
		err := w.RestorePawn(sim.Pawn{
			ID:              sim.PawnID(p.ID),
			Position:        p.Position.Vec2(),
			Rotation:        p.Rotation,
			LinearVelocity:  p.LinearVelocity.Vec2(),
			AngularVelocity: p.AngularVelocity,
		})
		if err != nil {
			return nil, fmt.Errorf("pawn %d: %w", p.ID, err)
		}
	}
	return w, nil
}
