package navigation

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/cellblock/internal/planmap"
	"github.com/Faultbox/cellblock/pkg/math"
)

func newTestMap(t *testing.T) *planmap.Map {
	t.Helper()
	m := planmap.New(math.V2(-10, -10), math.V2(10, 10))
	m.CheckInvariants = true
	return m
}

func wall(t *testing.T, m *planmap.Map, ax, ay, bx, by float32) planmap.WallID {
	t.Helper()
	w, _, ok, err := m.InsertWall(planmap.AtPosition(math.V2(ax, ay)), planmap.AtPosition(math.V2(bx, by)))
	require.NoError(t, err)
	require.True(t, ok)
	return w
}

func rect(t *testing.T, m *planmap.Map, x0, y0, x1, y1 float32) {
	t.Helper()
	wall(t, m, x0, y0, x1, y0)
	wall(t, m, x1, y0, x1, y1)
	wall(t, m, x1, y1, x0, y1)
	wall(t, m, x0, y1, x0, y0)
}

func roomAt(t *testing.T, m *planmap.Map, x, y float32) planmap.RoomID {
	t.Helper()
	r, _, err := m.ContainingRoom(math.V2(x, y), planmap.NoHint)
	require.NoError(t, err)
	return r
}

func newNavigator(t *testing.T, m *planmap.Map, opts Options) *Navigator {
	t.Helper()
	m.TakeEvents()
	n, err := New(context.Background(), m, opts)
	require.NoError(t, err)
	return n
}

// bisected builds a 2x2 square split by a vertical wall at x = 0.
func bisected(t *testing.T, door bool) (*planmap.Map, planmap.WallID) {
	m := newTestMap(t)
	rect(t, m, -1, -1, 1, 1)
	w := wall(t, m, 0, 1, 0, -1)
	if door {
		require.NoError(t, m.SetDoor(w, true))
	}
	return m, w
}

// strip builds three rooms in a row joined by two doors.
func strip(t *testing.T) (*planmap.Map, planmap.WallID, planmap.WallID) {
	m := newTestMap(t)
	rect(t, m, -3, -1, 3, 1)
	d1 := wall(t, m, -1, 1, -1, -1)
	d2 := wall(t, m, 1, 1, 1, -1)
	require.NoError(t, m.SetDoor(d1, true))
	require.NoError(t, m.SetDoor(d2, true))
	return m, d1, d2
}

func minDistance(pts []math.Vec2, p math.Vec2) float32 {
	best := float32(-1)
	for _, q := range pts {
		if d := q.Distance(p); best < 0 || d < best {
			best = d
		}
	}
	return best
}

func TestPathThroughDoor(t *testing.T) {
	m, door := bisected(t, true)
	n := newNavigator(t, m, Options{Workers: 2})
	left, right := roomAt(t, m, -0.5, 0), roomAt(t, m, 0.5, 0)

	p, ok := n.Path(math.V2(-0.5, 0), left, math.V2(0.5, 0), right)
	require.True(t, ok)
	assert.InDelta(t, 1.0, p.Length(), 0.01)
	assert.Equal(t, []planmap.DoorID{door}, p.Doors())
	assert.Equal(t, left, p.FromRoom)
	assert.Equal(t, right, p.Entries[len(p.Entries)-1].Room)
	assert.LessOrEqual(t, minDistance(p.Points(), math.V2(0, 0)), float32(planmap.PawnRadius))
}

func TestPathWithoutDoor(t *testing.T) {
	m, door := bisected(t, true)
	n := newNavigator(t, m, Options{})
	left, right := roomAt(t, m, -0.5, 0), roomAt(t, m, 0.5, 0)

	require.NoError(t, m.SetDoor(door, false))
	require.NoError(t, n.Update(context.Background(), m.TakeEvents()))

	_, ok := n.Path(math.V2(-0.5, 0), left, math.V2(0.5, 0), right)
	assert.False(t, ok)
	assert.Empty(t, n.RoomLinks(left))
	assert.Equal(t, 0, n.CachedPaths())
}

func TestUpdateAddsDoor(t *testing.T) {
	m, door := bisected(t, false)
	n := newNavigator(t, m, Options{})
	left, right := roomAt(t, m, -0.5, 0), roomAt(t, m, 0.5, 0)

	_, ok := n.Path(math.V2(-0.5, 0), left, math.V2(0.5, 0), right)
	require.False(t, ok)

	require.NoError(t, m.SetDoor(door, true))
	require.NoError(t, n.Update(context.Background(), m.TakeEvents()))
	assert.Equal(t, m.Epoch(), n.Epoch())

	p, ok := n.Path(math.V2(-0.5, 0), left, math.V2(0.5, 0), right)
	require.True(t, ok)
	assert.InDelta(t, 1.0, p.Length(), 0.01)

	link, ok := n.DoorLinks(door)
	require.True(t, ok)
	assert.ElementsMatch(t, []planmap.RoomID{left, right}, link.Rooms[:])
}

func TestSameRoomPath(t *testing.T) {
	m, _ := bisected(t, true)
	n := newNavigator(t, m, Options{})
	left := roomAt(t, m, -0.5, 0)

	p, ok := n.Path(math.V2(-0.5, -0.5), left, math.V2(-0.5, 0.5), left)
	require.True(t, ok)
	assert.Empty(t, p.Entries)
	assert.InDelta(t, 1.0, p.Length(), 1e-4)
}

func TestMeshesBuilt(t *testing.T) {
	m, _ := bisected(t, true)
	n := newNavigator(t, m, Options{})
	left := roomAt(t, m, -0.5, 0)

	mesh := n.Mesh(left)
	require.NotNil(t, mesh)
	r := float32(planmap.Radius)
	assert.InDelta(t, (1-2*r)*(2-2*r), mesh.Area(), 1e-3)
	assert.NotNil(t, n.Mesh(m.OuterRoom()))
}

func TestNarrowRoomHasNoMesh(t *testing.T) {
	m := newTestMap(t)
	rect(t, m, 0, 0, 3, 0.3)
	n := newNavigator(t, m, Options{})
	narrow := roomAt(t, m, 1.5, 0.15)

	assert.Nil(t, n.Mesh(narrow))
	_, ok := n.Path(math.V2(0.5, 0.15), narrow, math.V2(2.5, 0.15), narrow)
	assert.False(t, ok)

	outside := n.Mesh(m.OuterRoom())
	require.NotNil(t, outside)
	// The room is still cut out of the space around it.
	side := 20 - 2*float32(planmap.Radius)
	assert.Less(t, outside.Area(), side*side-0.9)
}

func TestPathAcrossStrip(t *testing.T) {
	m, d1, d2 := strip(t)
	n := newNavigator(t, m, Options{Workers: 4})
	left, middle, right := roomAt(t, m, -2, 0), roomAt(t, m, 0, 0), roomAt(t, m, 2, 0)

	rp, ok := n.RoomPath(middle, d1, d2)
	require.True(t, ok)
	assert.InDelta(t, 2.0, rp.Length, 0.01)
	back, ok := n.RoomPath(middle, d2, d1)
	require.True(t, ok)
	assert.InDelta(t, rp.Length, back.Length, 1e-6)

	p, ok := n.Path(math.V2(-2, 0), left, math.V2(2, 0), right)
	require.True(t, ok)
	assert.Equal(t, []planmap.DoorID{d1, d2}, p.Doors())
	assert.Equal(t, []planmap.RoomID{middle, right}, []planmap.RoomID{p.Entries[0].Room, p.Entries[1].Room})
	assert.InDelta(t, 4.0, p.Length(), 0.04)

	pts := p.Points()
	assert.Equal(t, math.V2(-2, 0), pts[0])
	assert.Equal(t, math.V2(2, 0), pts[len(pts)-1])
}

func TestDoorPathCachesSuffixes(t *testing.T) {
	m, d1, d2 := strip(t)
	n := newNavigator(t, m, Options{})

	p, ok := n.DoorPath(d1, d2)
	require.True(t, ok)
	assert.InDelta(t, 2.0, p.Length(), 0.01)
	assert.Equal(t, 2, n.CachedPaths())

	back, ok := n.DoorPath(d2, d1)
	require.True(t, ok)
	assert.InDelta(t, p.Length(), back.Length(), 1e-5)
	assert.Equal(t, 2, n.CachedPaths())

	self, ok := n.DoorPath(d1, d1)
	require.True(t, ok)
	assert.Zero(t, self.Length())
}

func TestDrainDeduplicates(t *testing.T) {
	m, d1, d2 := strip(t)
	n := newNavigator(t, m, Options{})

	var a, b UpdateBuffer
	_, ok := n.DoorPathBuffered(&a, d1, d2)
	require.True(t, ok)
	_, ok = n.DoorPathBuffered(&b, d1, d2)
	require.True(t, ok)
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 2, b.Len())

	assert.Equal(t, 2, n.Drain(&a, &b))
	assert.Zero(t, a.Len())
	assert.Zero(t, b.Len())

	_, ok = n.DoorPathBuffered(&a, d1, d2)
	require.True(t, ok)
	assert.Zero(t, a.Len())
}

func TestSearchBudget(t *testing.T) {
	m, d1, d2 := strip(t)
	n := newNavigator(t, m, Options{MaxExpansions: 1})

	_, ok := n.DoorPath(d1, d2)
	assert.False(t, ok)
}

func TestMapPathReversed(t *testing.T) {
	m, _, _ := strip(t)
	n := newNavigator(t, m, Options{})
	left, right := roomAt(t, m, -2, 0), roomAt(t, m, 2, 0)

	p, ok := n.Path(math.V2(-2, 0.5), left, math.V2(2, -0.5), right)
	require.True(t, ok)

	r := p.Reversed()
	assert.Equal(t, right, r.FromRoom)
	assert.Equal(t, left, r.Entries[len(r.Entries)-1].Room)
	assert.InDelta(t, p.Length(), r.Length(), 1e-4)

	rr := r.Reversed()
	assert.Equal(t, p.Points(), rr.Points())
	assert.Equal(t, p.Doors(), rr.Doors())
}

func TestUpdateSplitsRoom(t *testing.T) {
	m := newTestMap(t)
	rect(t, m, -3, -1, 3, 1)
	n := newNavigator(t, m, Options{Workers: 2})
	before := roomAt(t, m, 0, 0)
	require.NotNil(t, n.Mesh(before))

	d := wall(t, m, 0, 1, 0, -1)
	require.NoError(t, m.SetDoor(d, true))
	require.NoError(t, n.Update(context.Background(), m.TakeEvents()))

	assert.Nil(t, n.Mesh(before))
	left, right := roomAt(t, m, -2, 0), roomAt(t, m, 2, 0)
	assert.NotNil(t, n.Mesh(left))
	assert.NotNil(t, n.Mesh(right))
	require.Len(t, n.RoomLinks(left), 1)
	assert.Equal(t, right, n.RoomLinks(left)[0].Other)
	assert.Len(t, n.Doors(), 1)
}

// assertSameNavigation compares an incrementally updated navigator with one built
// from scratch over the same map.
func assertSameNavigation(t *testing.T, m *planmap.Map, got *Navigator, step int) {
	t.Helper()
	want, err := New(context.Background(), m, Options{})
	require.NoError(t, err)

	assert.Equal(t, want.Doors(), got.Doors(), "step %d", step)
	for _, r := range m.RoomsDeduped() {
		assert.Equal(t, want.RoomLinks(r.ID), got.RoomLinks(r.ID), "step %d %v", step, r.ID)
		wm, gm := want.Mesh(r.ID), got.Mesh(r.ID)
		if wm == nil {
			assert.Nil(t, gm, "step %d %v", step, r.ID)
			continue
		}
		require.NotNil(t, gm, "step %d %v", step, r.ID)
		assert.InDelta(t, wm.Area(), gm.Area(), 1e-4, "step %d %v", step, r.ID)
		assert.Len(t, gm.Polys, len(wm.Polys), "step %d %v", step, r.ID)
	}
}

func TestIncrementalUpdateMatchesRebuild(t *testing.T) {
	ctx := context.Background()
	for _, seed := range []int64{4, 5} {
		m := newTestMap(t)
		n := newNavigator(t, m, Options{Workers: 3})
		rng := rand.New(rand.NewSource(seed))
		point := func() math.Vec2 {
			return math.V2(float32(rng.Intn(25)-12)/2, float32(rng.Intn(25)-12)/2)
		}

		for step := 0; step < 40; step++ {
			ws := m.Walls()
			var err error
			switch op := rng.Intn(6); {
			case op < 3 || len(ws) == 0:
				_, _, _, err = m.InsertWallWith(
					planmap.AtPosition(point()),
					planmap.AtPosition(point()),
					planmap.WallBundle{Door: rng.Intn(2) == 0})
			case op < 4:
				err = m.RemoveWall(ws[rng.Intn(len(ws))].ID)
			case op < 5:
				cs := m.Corners()
				_, err = m.MoveCorner(cs[rng.Intn(len(cs))].ID, point())
			default:
				w := ws[rng.Intn(len(ws))]
				err = m.SetDoor(w.ID, !w.Door)
			}
			if !errors.Is(err, planmap.ErrDoorTooNarrow) {
				require.NoError(t, err, "step %d", step)
			}

			require.NoError(t, n.Update(ctx, m.TakeEvents()))
			assert.Equal(t, m.Epoch(), n.Epoch())
			assertSameNavigation(t, m, n, step)
		}
	}
}
