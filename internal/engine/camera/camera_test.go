package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/cellblock/pkg/math"
)

func TestWorldToScreen(t *testing.T) {
	c := NewTopDownCamera(800, 600)
	c.Zoom = 10

	x, y := c.WorldToScreen(math.V2(0, 0))
	assert.Equal(t, float32(400), x)
	assert.Equal(t, float32(300), y)

	x, y = c.WorldToScreen(math.V2(1, 1))
	assert.Equal(t, float32(410), x)
	assert.Equal(t, float32(290), y, "world y points up")
}

func TestScreenRoundTrip(t *testing.T) {
	c := NewTopDownCamera(640, 480)
	c.Center = math.V2(3, -2)
	c.Zoom = 25

	for _, p := range []math.Vec2{{}, {X: 3, Y: -2}, {X: -7.5, Y: 4.25}} {
		x, y := c.WorldToScreen(p)
		assert.True(t, c.ScreenToWorld(x, y).ApproxEqual(p, 1e-4), "%v", p)
	}
}

func TestHandleDrag(t *testing.T) {
	c := NewTopDownCamera(100, 100)
	c.Zoom = 10
	c.HandleDrag(20, 10)
	assert.True(t, c.Center.ApproxEqual(math.V2(-2, 1), 1e-6))
}

func TestHandleZoomKeepsCursorPoint(t *testing.T) {
	c := NewTopDownCamera(200, 200)
	c.Zoom = 10
	before := c.ScreenToWorld(150, 50)

	c.HandleZoom(2, 150, 50)
	assert.InDelta(t, 12, c.Zoom, 1e-4)
	assert.True(t, c.ScreenToWorld(150, 50).ApproxEqual(before, 1e-4))

	c.HandleZoom(-100, 0, 0)
	assert.Equal(t, c.MinZoom, c.Zoom)
}

func TestFitToBounds(t *testing.T) {
	c := NewTopDownCamera(400, 200)
	c.FitToBounds(math.V2(-10, -10), math.V2(10, 10))

	assert.Equal(t, math.V2(0, 0), c.Center)
	assert.InDelta(t, 9, c.Zoom, 1e-4)
}
