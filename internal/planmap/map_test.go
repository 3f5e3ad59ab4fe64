package planmap

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/cellblock/pkg/math"
)

func newTestMap(t *testing.T) *Map {
	t.Helper()
	m := New(math.V2(-10, -10), math.V2(10, 10))
	m.CheckInvariants = true
	return m
}

func wall(t *testing.T, m *Map, ax, ay, bx, by float32) WallID {
	t.Helper()
	w, _, ok, err := m.InsertWall(AtPosition(math.V2(ax, ay)), AtPosition(math.V2(bx, by)))
	require.NoError(t, err)
	require.True(t, ok)
	return w
}

func square(t *testing.T, m *Map) {
	t.Helper()
	wall(t, m, -1, -1, 1, -1)
	wall(t, m, 1, -1, 1, 1)
	wall(t, m, 1, 1, -1, 1)
	wall(t, m, -1, 1, -1, -1)
}

func counts(m *Map) (corners, walls, rooms int) {
	return len(m.Corners()), len(m.Walls()), len(m.RoomsDeduped())
}

func TestScenarioEmpty(t *testing.T) {
	m := newTestMap(t)
	c, w, r := counts(m)
	assert.Equal(t, [3]int{0, 0, 1}, [3]int{c, w, r})
	assert.True(t, m.RoomsDeduped()[0].Outer)
	assert.NoError(t, m.Validate())
	assert.Len(t, m.Perimeter(), 4)
}

func TestScenarioSingleWall(t *testing.T) {
	m := newTestMap(t)
	wall(t, m, 0, 0, 1, 0)
	c, w, r := counts(m)
	assert.Equal(t, [3]int{2, 1, 1}, [3]int{c, w, r})
}

func TestScenarioSharedCorner(t *testing.T) {
	m := newTestMap(t)
	wall(t, m, 0, 0, 1, 0)
	wall(t, m, -1, 0, 0, 0)
	c, w, r := counts(m)
	assert.Equal(t, [3]int{3, 2, 1}, [3]int{c, w, r})
}

func TestScenarioSquare(t *testing.T) {
	m := newTestMap(t)
	square(t, m)
	c, w, r := counts(m)
	assert.Equal(t, [3]int{4, 4, 2}, [3]int{c, w, r})

	inner, _, err := m.ContainingRoom(math.V2(0, 0), NoHint)
	require.NoError(t, err)
	assert.NotEqual(t, m.OuterRoom(), inner)

	for _, wl := range m.Walls() {
		assert.ElementsMatch(t, []RoomID{inner, m.OuterRoom()}, wl.Rooms[:])
	}
}

func TestScenarioBisector(t *testing.T) {
	m := newTestMap(t)
	square(t, m)
	wall(t, m, 0, 1, 0, -1)
	c, w, r := counts(m)
	assert.Equal(t, [3]int{6, 7, 3}, [3]int{c, w, r})

	left, _, err := m.ContainingRoom(math.V2(-0.5, 0), NoHint)
	require.NoError(t, err)
	right, _, err := m.ContainingRoom(math.V2(0.5, 0), NoHint)
	require.NoError(t, err)
	assert.NotEqual(t, left, right)
	assert.NotEqual(t, m.OuterRoom(), left)
	assert.NotEqual(t, m.OuterRoom(), right)
}

func TestScenarioCrossing(t *testing.T) {
	m := newTestMap(t)
	wall(t, m, 0, 1, 0, -1)
	wall(t, m, -1, 0, 1, 0)
	c, w, r := counts(m)
	assert.Equal(t, [3]int{5, 4, 1}, [3]int{c, w, r})

	center, ok := m.nearestCorner(math.V2(0, 0), CoincidenceEpsilon)
	require.True(t, ok)
	walls, err := m.CornerWalls(center)
	require.NoError(t, err)
	assert.Len(t, walls, 4)
}

func TestInsertWallIdempotent(t *testing.T) {
	m := newTestMap(t)
	w1 := wall(t, m, 0, 0, 2, 0)
	m.TakeEvents()
	epoch := m.Epoch()

	w2 := wall(t, m, 0, 0, 2, 0)
	assert.Equal(t, w1, w2)
	assert.Empty(t, m.TakeEvents())
	assert.Equal(t, epoch, m.Epoch())
}

func TestInsertWallSameCorner(t *testing.T) {
	m := newTestMap(t)
	wall(t, m, -2, 0, 2, 0)
	m.TakeEvents()
	corners := len(m.Corners())
	epoch := m.Epoch()

	w, c, ok, err := m.InsertWall(AtPosition(math.V2(1, 1)), AtPosition(math.V2(1.01, 1)))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, w)
	assert.Zero(t, c)

	// The corner resolved for both ends is not kept.
	assert.Len(t, m.Corners(), corners)
	assert.Empty(t, m.TakeEvents())
	assert.Equal(t, epoch, m.Epoch())
	_, found := m.CornerAt(math.V2(1, 1), CoincidenceEpsilon)
	assert.False(t, found)
}

func TestInsertWallAlongBounds(t *testing.T) {
	m := newTestMap(t)
	w, c, ok, err := m.InsertWall(AtPosition(math.V2(-10, -10)), AtPosition(math.V2(10, -10)))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, w)
	assert.Zero(t, c)
	assert.Empty(t, m.Walls())
	assert.Empty(t, m.Corners())
	assert.Empty(t, m.TakeEvents())
	assert.Zero(t, m.Epoch())

	// Bound corners made by a real wall stay pinned.
	wall(t, m, -10, 0, 10, 0)
	for _, c := range m.Corners() {
		assert.True(t, c.Pinned)
	}
}

func TestInsertWallThroughCorner(t *testing.T) {
	m := newTestMap(t)
	_, err := m.InsertCorner(AtPosition(math.V2(1, 0)))
	require.NoError(t, err)

	wall(t, m, 0, 0, 2, 0)
	c, w, _ := counts(m)
	assert.Equal(t, 3, c)
	assert.Equal(t, 2, w)
}

func TestEndpointOnWallSplitsIt(t *testing.T) {
	m := newTestMap(t)
	wall(t, m, -2, 0, 2, 0)
	wall(t, m, 0, 0.01, 0, 2)

	c, w, _ := counts(m)
	assert.Equal(t, 4, c)
	assert.Equal(t, 3, w)
}

func TestWallFromCornerOnWall(t *testing.T) {
	m := newTestMap(t)
	c, err := m.InsertCorner(AtPosition(math.V2(0.02, 0)))
	require.NoError(t, err)
	wall(t, m, 0, -1, 0, 1)
	_, walls, _ := counts(m)
	require.Equal(t, 1, walls)

	// The corner sits within CoincidenceEpsilon of the wall it is drawn across.
	w, end, ok, err := m.InsertWall(AtCorner(c), AtPosition(math.V2(-3, 0)))
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotZero(t, w)

	corners, walls, _ := counts(m)
	assert.Equal(t, 5, corners)
	assert.Equal(t, 4, walls)

	split, found := m.CornerAt(math.V2(0, 0), 1e-4)
	require.True(t, found)
	ws, err := m.CornerWalls(split)
	require.NoError(t, err)
	assert.Len(t, ws, 4)
	ws, err = m.CornerWalls(c)
	require.NoError(t, err)
	assert.Len(t, ws, 1)

	last, _ := m.Wall(w)
	assert.Contains(t, last.Corners, end)
	assert.Contains(t, last.Corners, split)
}

func TestSplitWallKeepsDoor(t *testing.T) {
	m := newTestMap(t)
	w, _, _, err := m.InsertWallWith(AtPosition(math.V2(0, 0)), AtPosition(math.V2(2, 0)), WallBundle{Door: true})
	require.NoError(t, err)
	m.TakeEvents()

	c, err := m.InsertCorner(AtWall(w, math.V2(1, 0.3)))
	require.NoError(t, err)
	corner, _ := m.Corner(c)
	assert.Equal(t, math.V2(1, 0), corner.Pos)

	doors := m.Doors()
	assert.Len(t, doors, 2)

	kinds := make([]EventKind, 0)
	for _, e := range m.TakeEvents() {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []EventKind{
		EventCornerInserted,
		EventDoorRemoved,
		EventWallRemoved,
		EventWallInserted,
		EventWallInserted,
		EventDoorInserted,
		EventDoorInserted,
		EventRoomReplaced,
	}, kinds)
}

func TestSplitWallDropsNarrowDoor(t *testing.T) {
	m := newTestMap(t)
	w, _, _, err := m.InsertWallWith(AtPosition(math.V2(0, 0)), AtPosition(math.V2(1.5, 0)), WallBundle{Door: true})
	require.NoError(t, err)
	require.Len(t, m.Doors(), 1)

	_, err = m.InsertCorner(AtWall(w, math.V2(0.75, 0)))
	require.NoError(t, err)
	assert.Empty(t, m.Doors())
	assert.Len(t, m.Walls(), 2)
}

func TestSplitWallAtEndIsNoop(t *testing.T) {
	m := newTestMap(t)
	w := wall(t, m, 0, 0, 2, 0)
	before, _ := m.Wall(w)

	c, err := m.InsertCorner(AtWall(w, math.V2(2.01, 0)))
	require.NoError(t, err)
	assert.Equal(t, before.Corners[1], c)
	assert.Len(t, m.Walls(), 1)
}

func TestSetDoor(t *testing.T) {
	m := newTestMap(t)
	short := wall(t, m, 0, 0, 0.5, 0)
	long := wall(t, m, 0, 2, 2, 2)

	assert.ErrorIs(t, m.SetDoor(short, true), ErrDoorTooNarrow)
	require.NoError(t, m.SetDoor(long, true))
	wl, _ := m.Wall(long)
	assert.True(t, wl.Door)

	require.NoError(t, m.SetDoor(long, false))
	wl, _ = m.Wall(long)
	assert.False(t, wl.Door)

	assert.ErrorIs(t, m.SetDoor(999, true), ErrUnknownEntity)
}

func TestRemoveWall(t *testing.T) {
	m := newTestMap(t)
	square(t, m)
	walls := m.Walls()

	require.NoError(t, m.RemoveWall(walls[0].ID))
	c, w, r := counts(m)
	assert.Equal(t, [3]int{4, 3, 1}, [3]int{c, w, r})

	for _, wl := range walls[1:] {
		require.NoError(t, m.RemoveWall(wl.ID))
	}
	c, w, r = counts(m)
	assert.Equal(t, [3]int{0, 0, 1}, [3]int{c, w, r})

	err := m.RemoveWall(walls[0].ID)
	assert.ErrorIs(t, err, ErrUnknownWall)
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestRemoveWallKeepsPinnedCorner(t *testing.T) {
	m := newTestMap(t)
	w := wall(t, m, 0, -10, 0, 0)
	require.NoError(t, m.RemoveWall(w))

	corners := m.Corners()
	require.Len(t, corners, 1)
	assert.True(t, corners[0].Pinned)
	assert.Equal(t, math.V2(0, -10), corners[0].Pos)
}

func TestRoomReplacedOnClose(t *testing.T) {
	m := newTestMap(t)
	wall(t, m, -1, -1, 1, -1)
	wall(t, m, 1, -1, 1, 1)
	wall(t, m, 1, 1, -1, 1)
	assert.Len(t, m.RoomsDeduped(), 1)
	outer := m.OuterRoom()
	m.TakeEvents()

	wall(t, m, -1, 1, -1, -1)
	var replaced []Event
	for _, e := range m.TakeEvents() {
		if e.Kind == EventRoomReplaced {
			replaced = append(replaced, e)
		}
	}
	require.Len(t, replaced, 1)
	assert.Equal(t, []RoomID{outer}, SortedRooms(replaced[0].Old))
	assert.Equal(t, 2, replaced[0].New.Size())
	assert.True(t, replaced[0].New.Has(m.OuterRoom()))
}

func TestDoorToggleKeepsRooms(t *testing.T) {
	m := newTestMap(t)
	square(t, m)
	rooms := m.RoomsDeduped()
	m.TakeEvents()

	require.NoError(t, m.SetDoor(m.Walls()[0].ID, true))
	assert.Equal(t, rooms, m.RoomsDeduped())
	for _, e := range m.TakeEvents() {
		assert.NotEqual(t, EventRoomReplaced, e.Kind)
	}
}

func TestMoveCorner(t *testing.T) {
	m := newTestMap(t)
	square(t, m)
	c, ok := m.nearestCorner(math.V2(1, 1), CoincidenceEpsilon)
	require.True(t, ok)

	moved, err := m.MoveCorner(c, math.V2(2, 2))
	require.NoError(t, err)
	assert.NotEqual(t, c, moved)

	corner, ok := m.Corner(moved)
	require.True(t, ok)
	assert.Equal(t, math.V2(2, 2), corner.Pos)

	n, w, r := counts(m)
	assert.Equal(t, [3]int{4, 4, 2}, [3]int{n, w, r})

	inside, _, err := m.ContainingRoom(math.V2(1.4, 1.4), NoHint)
	require.NoError(t, err)
	assert.NotEqual(t, m.OuterRoom(), inside)
}

func TestMoveCornerOntoNeighbour(t *testing.T) {
	m := newTestMap(t)
	wall(t, m, 0, 0, 2, 0)
	c, ok := m.nearestCorner(math.V2(2, 0), CoincidenceEpsilon)
	require.True(t, ok)

	moved, err := m.MoveCorner(c, math.V2(0, 0))
	require.NoError(t, err)
	assert.Zero(t, moved)
	assert.Empty(t, m.Walls())
	assert.Empty(t, m.Corners())
}

func TestMoveBoundCorner(t *testing.T) {
	m := newTestMap(t)
	_, _, _, err := m.InsertWall(AtPosition(math.V2(-10, -10)), AtPosition(math.V2(0, 0)))
	require.NoError(t, err)
	c, ok := m.nearestCorner(math.V2(-10, -10), CoincidenceEpsilon)
	require.True(t, ok)

	_, err = m.MoveCorner(c, math.V2(1, 1))
	assert.ErrorIs(t, err, ErrBoundCorner)
}

func TestFailedEditRollsBack(t *testing.T) {
	m := newTestMap(t)
	wall(t, m, 0, 0, 1, 0)
	m.TakeEvents()
	epoch := m.Epoch()

	_, _, _, err := m.InsertWall(AtPosition(math.V2(3, 3)), AtCorner(999))
	assert.ErrorIs(t, err, ErrUnknownCorner)
	assert.Len(t, m.Corners(), 2)
	assert.Empty(t, m.TakeEvents())
	assert.Equal(t, epoch, m.Epoch())
	assert.NoError(t, m.Validate())
}

func TestPositionSnapsToBounds(t *testing.T) {
	m := newTestMap(t)
	c, err := m.InsertCorner(AtPosition(math.V2(3, 9.99)))
	require.NoError(t, err)
	corner, _ := m.Corner(c)
	assert.Equal(t, math.V2(3, 10), corner.Pos)
	assert.True(t, corner.Pinned)

	c, err = m.InsertCorner(AtPosition(math.V2(30, 0)))
	require.NoError(t, err)
	corner, _ = m.Corner(c)
	assert.Equal(t, math.V2(10, 0), corner.Pos)
}

func TestContainingRoomHint(t *testing.T) {
	m := newTestMap(t)
	square(t, m)
	r1, hint, err := m.ContainingRoom(math.V2(0.2, 0.2), NoHint)
	require.NoError(t, err)
	r2, _, err := m.ContainingRoom(math.V2(-0.3, 0.4), hint)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	_, _, err = m.ContainingRoom(math.V2(20, 0), NoHint)
	assert.Error(t, err)
}

func TestPicking(t *testing.T) {
	m := newTestMap(t)
	w := wall(t, m, 0, 0, 4, 0)

	got, ok := m.WallAt(math.V2(2, 0.3), 0.5)
	require.True(t, ok)
	assert.Equal(t, w, got)
	_, ok = m.WallAt(math.V2(2, 1), 0.5)
	assert.False(t, ok)

	c, ok := m.CornerAt(math.V2(3.9, 0.1), 0.5)
	require.True(t, ok)
	corner, _ := m.Corner(c)
	assert.Equal(t, math.V2(4, 0), corner.Pos)
}

// randomEdits applies n seeded edits on a half-metre grid, checking the map after
// each one.
func randomEdits(t *testing.T, m *Map, seed int64, n int) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	point := func() math.Vec2 {
		return math.V2(float32(rng.Intn(33)-16)/2, float32(rng.Intn(33)-16)/2)
	}
	pickWall := func() (Wall, bool) {
		ws := m.Walls()
		if len(ws) == 0 {
			return Wall{}, false
		}
		return ws[rng.Intn(len(ws))], true
	}

	for step := 0; step < n; step++ {
		var err error
		switch op := rng.Intn(10); {
		case op < 4:
			_, _, _, err = m.InsertWallWith(AtPosition(point()), AtPosition(point()), WallBundle{Door: rng.Intn(3) == 0})
		case op < 5:
			if w, ok := pickWall(); ok {
				at := w.Segment().At(float32(rng.Intn(3)+1) / 4)
				_, _, _, err = m.InsertWall(AtWall(w.ID, at), AtPosition(point()))
			}
		case op < 7:
			if w, ok := pickWall(); ok {
				err = m.RemoveWall(w.ID)
			}
		case op < 8:
			var movable []Corner
			for _, c := range m.Corners() {
				if !c.Pinned {
					movable = append(movable, c)
				}
			}
			if len(movable) > 0 {
				_, err = m.MoveCorner(movable[rng.Intn(len(movable))].ID, point())
			}
		default:
			if w, ok := pickWall(); ok {
				err = m.SetDoor(w.ID, !w.Door)
			}
		}
		if !errors.Is(err, ErrDoorTooNarrow) {
			require.NoError(t, err, "step %d", step)
		}
		require.NoError(t, m.Validate(), "step %d", step)

		for _, c := range m.Corners() {
			if c.Pinned {
				continue
			}
			ws, err := m.CornerWalls(c.ID)
			require.NoError(t, err)
			require.NotEmpty(t, ws, "step %d left %v isolated at %v", step, c.ID, c.Pos)
		}
	}
}

func TestRandomEditsKeepInvariants(t *testing.T) {
	for _, seed := range []int64{1, 2, 3} {
		m := newTestMap(t)
		randomEdits(t, m, seed, 80)
	}
}
