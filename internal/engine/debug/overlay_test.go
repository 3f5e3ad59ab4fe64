package debug

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/cellblock/internal/planmap"
	"github.com/Faultbox/cellblock/internal/sim"
	"github.com/Faultbox/cellblock/pkg/math"
)

func twoCells(t *testing.T) *sim.World {
	t.Helper()
	m := planmap.New(math.V2(-10, -10), math.V2(10, 10))
	walls := [][4]float32{
		{-4, -2, 4, -2}, {4, -2, 4, 2}, {4, 2, -4, 2}, {-4, 2, -4, -2}, {0, 2, 0, -2},
	}
	for i, w := range walls {
		_, _, ok, err := m.InsertWallWith(
			planmap.AtPosition(math.V2(w[0], w[1])),
			planmap.AtPosition(math.V2(w[2], w[3])),
			planmap.WallBundle{Door: i == len(walls)-1},
		)
		require.NoError(t, err)
		require.True(t, ok)
	}
	w, err := sim.NewWorld(context.Background(), m, sim.Options{Workers: 1, PawnSpeed: 1})
	require.NoError(t, err)
	return w
}

func count(lines []Line, c Color) int {
	n := 0
	for _, l := range lines {
		if l.Color == c {
			n++
		}
	}
	return n
}

func TestFrameDefaultLayers(t *testing.T) {
	w := twoCells(t)
	id, err := w.AddPawn(math.V2(-2, 0))
	require.NoError(t, err)
	require.NoError(t, w.SetGoal(id, math.V2(2, 0)))
	_, err = w.Tick(context.Background(), 0.1, nil)
	require.NoError(t, err)

	f := NewOverlay(w).Frame()

	assert.NotEmpty(t, f.Triangles)
	assert.Equal(t, 4, count(f.Lines, ColorPerimeter))
	assert.Positive(t, count(f.Lines, ColorDoor))
	assert.Positive(t, count(f.Lines, ColorRoute))
	assert.Zero(t, count(f.Lines, ColorTriangle))

	require.Len(t, f.Markers, 1)
	assert.Equal(t, ColorPawn, f.Markers[0].Color)
}

func TestToggle(t *testing.T) {
	o := NewOverlay(twoCells(t))

	o.Toggle(LayerMesh)
	f := o.Frame()
	assert.Empty(t, f.Triangles)
	assert.Zero(t, count(f.Lines, ColorMeshEdge))

	o.Toggle(LayerTriangulation | LayerDoorGraph)
	f = o.Frame()
	assert.Positive(t, count(f.Lines, ColorTriangle))

	o.Layers = 0
	assert.Equal(t, Frame{}, o.Frame())
}
