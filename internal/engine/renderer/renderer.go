// Package renderer draws debug frames with the SDL2 2D renderer.
package renderer

import (
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/multierr"

	"github.com/Faultbox/cellblock/internal/engine/camera"
	"github.com/Faultbox/cellblock/internal/engine/debug"
)

// Background is the clear color.
var Background = debug.Color{R: 25, G: 25, B: 38, A: 255}

// Renderer projects frames through a camera onto an SDL renderer.
type Renderer struct {
	sdl    *sdl.Renderer
	camera *camera.TopDownCamera

	// Reused between frames.
	vertices []sdl.Vertex
}

// New creates a renderer drawing to r.
func New(r *sdl.Renderer, cam *camera.TopDownCamera) *Renderer {
	return &Renderer{sdl: r, camera: cam}
}

// Draw clears the target and draws f. Filled triangles go first, then lines,
// then markers.
func (r *Renderer) Draw(f debug.Frame) error {
	var err error
	err = multierr.Append(err, r.setColor(Background))
	err = multierr.Append(err, r.sdl.Clear())

	if len(f.Triangles) > 0 {
		r.vertices = r.vertices[:0]
		for _, t := range f.Triangles {
			c := sdl.Color{R: t.Color.R, G: t.Color.G, B: t.Color.B, A: t.Color.A}
			for _, p := range t.P {
				x, y := r.camera.WorldToScreen(p)
				r.vertices = append(r.vertices, sdl.Vertex{Position: sdl.FPoint{X: x, Y: y}, Color: c})
			}
		}
		err = multierr.Append(err, r.sdl.RenderGeometry(nil, r.vertices, nil))
	}

	for _, l := range f.Lines {
		ax, ay := r.camera.WorldToScreen(l.A)
		bx, by := r.camera.WorldToScreen(l.B)
		err = multierr.Append(err, r.setColor(l.Color))
		err = multierr.Append(err, r.sdl.DrawLineF(ax, ay, bx, by))
	}

	for _, m := range f.Markers {
		x, y := r.camera.WorldToScreen(m.Pos)
		size := m.Size * r.camera.Zoom
		if size < 3 {
			size = 3
		}
		err = multierr.Append(err, r.setColor(m.Color))
		err = multierr.Append(err, r.sdl.FillRectF(&sdl.FRect{X: x - size/2, Y: y - size/2, W: size, H: size}))
	}
	return err
}

func (r *Renderer) setColor(c debug.Color) error {
	return r.sdl.SetDrawColor(c.R, c.G, c.B, c.A)
}
