package scenario

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/cellblock/internal/config"
	"github.com/Faultbox/cellblock/internal/save"
	"github.com/Faultbox/cellblock/internal/sim"
	"github.com/Faultbox/cellblock/pkg/math"
)

const twoCells = `
name: two cells
map:
  min: [-10, -10]
  max: [10, 10]
steps:
  - wall: {from: [-4, -2], to: [4, -2]}
  - wall: {from: [4, -2], to: [4, 2]}
  - wall: {from: [4, 2], to: [-4, 2]}
  - wall: {from: [-4, 2], to: [-4, -2]}
  - wall: {from: [0, 2], to: [0, -2]}
  - door: {at: [0, 0.1]}
pawns:
  - at: [-2, 0]
    goal: [2, 0]
ticks: 60
dt: 0.1
`

// fallback is the extent used by scripts without a map section.
var fallback = [2]math.Vec2{math.V2(-10, -10), math.V2(10, 10)}

func runScript(t *testing.T, src string) (*sim.World, Result, error) {
	t.Helper()
	s, err := Parse([]byte(src))
	require.NoError(t, err)
	m := s.NewMap(fallback[0], fallback[1])
	m.CheckInvariants = true
	w, err := sim.NewWorld(context.Background(), m, sim.Options{Workers: 2, PawnSpeed: 1})
	require.NoError(t, err)
	res, err := s.Run(context.Background(), w)
	return w, res, err
}

func TestRunTwoCells(t *testing.T) {
	w, res, err := runScript(t, twoCells)
	require.NoError(t, err)

	assert.Equal(t, 6, res.Steps)
	assert.Equal(t, 60, res.Ticks)
	assert.Positive(t, res.Events)
	assert.Len(t, w.Map.RoomsDeduped(), 3)
	assert.Len(t, w.Map.Doors(), 1)

	require.Len(t, res.Pawns, 1)
	p, ok := w.Pawn(res.Pawns[0])
	require.True(t, ok)
	assert.False(t, p.HasGoal)
	assert.True(t, p.Position.ApproxEqual(math.V2(2, 0), 1e-3))
}

func TestCloseDoorStep(t *testing.T) {
	src := `
steps:
  - wall: {from: [-1, 0], to: [1, 0], door: true}
  - door: {at: [0, 0], open: false}
`
	w, _, err := runScript(t, src)
	require.NoError(t, err)
	assert.Empty(t, w.Map.Doors())
	assert.Len(t, w.Map.Walls(), 1)
}

func TestRemoveAndMoveSteps(t *testing.T) {
	src := `
steps:
  - wall: {from: [-5, 0], to: [0, 0]}
  - wall: {from: [0, 0], to: [0, 5]}
  - remove: {at: [0, 2.5]}
  - move: {from: [-5, 0], to: [-6, 1]}
`
	w, res, err := runScript(t, src)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Steps)
	require.Len(t, w.Map.Walls(), 1)

	lo, hi := w.Map.Bounds()
	for _, c := range w.Map.Corners() {
		if c.Pinned {
			continue
		}
		assert.True(t, c.Pos.X > lo.X && c.Pos.X < hi.X, "corner %v outside bounds", c.Pos)
		assert.True(t, c.Pos.Y > lo.Y && c.Pos.Y < hi.Y, "corner %v outside bounds", c.Pos)
	}

	_, ok := w.Map.CornerAt(math.V2(-6, 1), 1e-3)
	assert.True(t, ok)
	_, ok = w.Map.CornerAt(math.V2(0, 5), 1e-3)
	assert.False(t, ok)
}

func TestNoTarget(t *testing.T) {
	src := `
steps:
  - remove: {at: [3, 3]}
`
	_, res, err := runScript(t, src)
	assert.ErrorIs(t, err, ErrNoTarget)
	assert.Zero(t, res.Steps)
}

func TestParseRejectsAmbiguousStep(t *testing.T) {
	_, err := Parse([]byte(`
steps:
  - corner: [1, 1]
    remove: {at: [0, 0]}
`))
	assert.ErrorIs(t, err, ErrInvalidStep)

	_, err = Parse([]byte("steps:\n  - {}\n"))
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestParseDefaults(t *testing.T) {
	s, err := Parse([]byte("steps:\n  - corner: [1, 2]\n"))
	require.NoError(t, err)
	assert.Equal(t, float32(DefaultPick), s.Pick)
	assert.Nil(t, s.Map)
	require.NotNil(t, s.Steps[0].Corner)
	assert.Equal(t, Point{1, 2}, *s.Steps[0].Corner)

	m := s.NewMap(math.V2(-3, -3), math.V2(3, 3))
	lo, hi := m.Bounds()
	assert.Equal(t, math.V2(-3, -3), lo)
	assert.Equal(t, math.V2(3, 3), hi)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "two_cells.yaml")
	require.NoError(t, os.WriteFile(path, []byte(twoCells), 0644))

	s, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two cells", s.Name)
	assert.Len(t, s.Steps, 6)
	assert.Len(t, s.Pawns, 1)
}

func TestOpenScriptAndSave(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Map.CheckInvariants = true
	cfg.Navigation.Workers = 2

	script := filepath.Join(dir, "two_cells.yaml")
	require.NoError(t, os.WriteFile(script, []byte(twoCells), 0644))

	w, err := Open(ctx, script, cfg)
	require.NoError(t, err)
	assert.Len(t, w.Map.RoomsDeduped(), 3)
	require.Len(t, w.Pawns(), 1)

	for _, name := range []string{"world.yaml", "world.msgpack"} {
		path := filepath.Join(dir, name)
		require.NoError(t, save.WriteFile(path, save.Capture(w), save.FormatYAML))

		restored, err := Open(ctx, path, cfg)
		require.NoError(t, err, name)
		assert.Len(t, restored.Map.RoomsDeduped(), 3, name)
		assert.Len(t, restored.Pawns(), 1, name)
	}
}

func TestNewWorldUsesConfigExtent(t *testing.T) {
	cfg := config.Default()
	cfg.Map.HalfWidth, cfg.Map.HalfHeight = 5, 3

	w, err := NewWorld(context.Background(), cfg)
	require.NoError(t, err)
	lo, hi := w.Map.Bounds()
	assert.Equal(t, math.V2(-5, -3), lo)
	assert.Equal(t, math.V2(5, 3), hi)
}
