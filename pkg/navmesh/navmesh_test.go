package navmesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/cellblock/pkg/math"
)

func square(x0, y0, x1, y1 float32) []math.Vec2 {
	return []math.Vec2{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

// hole is square walked clockwise.
func hole(x0, y0, x1, y1 float32) []math.Vec2 {
	return []math.Vec2{{X: x0, Y: y0}, {X: x0, Y: y1}, {X: x1, Y: y1}, {X: x1, Y: y0}}
}

func TestBuildConvexSquare(t *testing.T) {
	m, err := Build(square(0, 0, 4, 4), nil)
	require.NoError(t, err)

	assert.Len(t, m.Polys, 1)
	assert.InDelta(t, 16, m.Area(), 1e-4)

	pts, l, ok := m.Path(math.V2(1, 1), math.V2(3, 3))
	require.True(t, ok)
	assert.Equal(t, []math.Vec2{{X: 1, Y: 1}, {X: 3, Y: 3}}, pts)
	assert.InDelta(t, 2.8284, l, 1e-3)
}

func TestBuildClockwiseOuter(t *testing.T) {
	ring := square(0, 0, 2, 2)
	ring[1], ring[3] = ring[3], ring[1]

	_, err := Build(ring, nil)
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestBuildSkipsCounterClockwiseHole(t *testing.T) {
	m, err := Build(square(0, 0, 6, 6), [][]math.Vec2{square(2, 2, 4, 4)})
	require.NoError(t, err)
	assert.Equal(t, 1, m.SkippedHoles)
	assert.InDelta(t, 36, m.Area(), 1e-4)
}

func TestBuildDegenerate(t *testing.T) {
	_, err := Build([]math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}}, nil)
	assert.ErrorIs(t, err, ErrDegenerate)

	_, err = Build(nil, nil)
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestTriangulateWithHole(t *testing.T) {
	verts := append(square(0, 0, 6, 6), math.V2(2, 2), math.V2(2, 4), math.V2(4, 4), math.V2(4, 2))
	tris, skipped := Triangulate(verts, 4, []int{4})

	assert.Zero(t, skipped)
	assert.Len(t, tris, 8)

	var area float32
	for _, tr := range tris {
		area += math.SignedArea([]math.Vec2{verts[tr[0]], verts[tr[1]], verts[tr[2]]})
	}
	assert.InDelta(t, 32, area, 1e-4)
}

func TestPathAroundHole(t *testing.T) {
	m, err := Build(square(0, 0, 6, 6), [][]math.Vec2{hole(2, 2, 4, 4)})
	require.NoError(t, err)
	assert.Zero(t, m.SkippedHoles)
	assert.InDelta(t, 32, m.Area(), 1e-4)

	pts, l, ok := m.Path(math.V2(1, 3), math.V2(5, 3))
	require.True(t, ok)
	assert.GreaterOrEqual(t, l, float32(4.82))
	assert.LessOrEqual(t, l, float32(6.0))

	for i := 1; i < len(pts); i++ {
		mid := pts[i-1].Lerp(pts[i], 0.5)
		inHole := mid.X > 2.01 && mid.X < 3.99 && mid.Y > 2.01 && mid.Y < 3.99
		assert.False(t, inHole, "segment %v-%v crosses the hole", pts[i-1], pts[i])
	}
}

func TestPathAroundReflexCorner(t *testing.T) {
	l := []math.Vec2{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 4}, {X: 0, Y: 4}}
	m, err := Build(l, nil)
	require.NoError(t, err)
	assert.InDelta(t, 7, m.Area(), 1e-4)

	pts, length, ok := m.Path(math.V2(3, 0.5), math.V2(0.5, 3))
	require.True(t, ok)
	assert.InDelta(t, 4.1231, length, 1e-3)
	assert.Contains(t, pts, math.V2(1, 1))
}

func TestPathClampsOutsideEndpoints(t *testing.T) {
	m, err := Build(square(0, 0, 4, 4), nil)
	require.NoError(t, err)

	pts, l, ok := m.Path(math.V2(-1, 2), math.V2(2, 2))
	require.True(t, ok)
	assert.Equal(t, []math.Vec2{{X: -1, Y: 2}, {X: 0, Y: 2}, {X: 2, Y: 2}}, pts)
	assert.InDelta(t, 3, l, 1e-5)
}

func TestLocateAndNearest(t *testing.T) {
	m, err := Build(square(0, 0, 4, 4), [][]math.Vec2{hole(1, 1, 3, 3)})
	require.NoError(t, err)

	_, ok := m.Locate(math.V2(0.5, 0.5))
	assert.True(t, ok)
	_, ok = m.Locate(math.V2(2, 2))
	assert.False(t, ok)

	p, _, ok := m.Nearest(math.V2(2, 1.2))
	require.True(t, ok)
	assert.InDelta(t, 2, p.X, 1e-4)
	assert.InDelta(t, 1, p.Y, 1e-4)
}

func TestFunnelStraightCorridor(t *testing.T) {
	portals := []Portal{
		{Left: math.V2(1, 1), Right: math.V2(1, -1)},
		{Left: math.V2(2, 1), Right: math.V2(2, -1)},
	}
	pts := funnel(math.V2(0, 0), math.V2(3, 0), portals)
	assert.Equal(t, []math.Vec2{{X: 0, Y: 0}, {X: 3, Y: 0}}, pts)
}
