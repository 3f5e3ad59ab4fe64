// Package camera provides a top-down camera for 2D map rendering.
package camera

import (
	"github.com/Faultbox/cellblock/pkg/math"
)

// TopDownCamera maps world units to screen pixels. World y points up, screen y
// points down.
type TopDownCamera struct {
	// Center is the world point shown in the middle of the viewport.
	Center math.Vec2
	// Zoom is pixels per world unit.
	Zoom float32

	Width, Height float32

	MinZoom float32
	MaxZoom float32

	ZoomSensitivity float32
}

// NewTopDownCamera creates a camera for a viewport of the given size.
func NewTopDownCamera(width, height int) *TopDownCamera {
	return &TopDownCamera{
		Zoom:            20,
		Width:           float32(width),
		Height:          float32(height),
		MinZoom:         1,
		MaxZoom:         400,
		ZoomSensitivity: 0.1,
	}
}

// Resize updates the viewport size.
func (c *TopDownCamera) Resize(width, height int) {
	c.Width, c.Height = float32(width), float32(height)
}

// WorldToScreen converts a world position to pixel coordinates.
func (c *TopDownCamera) WorldToScreen(p math.Vec2) (x, y float32) {
	x = (p.X-c.Center.X)*c.Zoom + c.Width/2
	y = c.Height/2 - (p.Y-c.Center.Y)*c.Zoom
	return x, y
}

// ScreenToWorld converts pixel coordinates to a world position.
func (c *TopDownCamera) ScreenToWorld(x, y float32) math.Vec2 {
	return math.Vec2{
		X: c.Center.X + (x-c.Width/2)/c.Zoom,
		Y: c.Center.Y - (y-c.Height/2)/c.Zoom,
	}
}

// HandleDrag pans by a mouse drag delta in pixels.
func (c *TopDownCamera) HandleDrag(deltaX, deltaY float32) {
	c.Center.X -= deltaX / c.Zoom
	c.Center.Y += deltaY / c.Zoom
}

// HandleZoom zooms by a scroll wheel delta, keeping the world point under the
// cursor fixed.
func (c *TopDownCamera) HandleZoom(delta, cursorX, cursorY float32) {
	anchor := c.ScreenToWorld(cursorX, cursorY)
	c.Zoom = math.Clamp(c.Zoom+delta*c.Zoom*c.ZoomSensitivity, c.MinZoom, c.MaxZoom)
	after := c.ScreenToWorld(cursorX, cursorY)
	c.Center = c.Center.Add(anchor.Sub(after))
}

// FitToBounds centers the camera on the box and zooms so it fills the viewport
// with a small margin.
func (c *TopDownCamera) FitToBounds(min, max math.Vec2) {
	c.Center = min.Lerp(max, 0.5)

	size := max.Sub(min)
	if size.X <= 0 || size.Y <= 0 || c.Width <= 0 || c.Height <= 0 {
		return
	}
	zoom := math.Min(c.Width/size.X, c.Height/size.Y) * 0.9
	c.Zoom = math.Clamp(zoom, c.MinZoom, c.MaxZoom)
}
