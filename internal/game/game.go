// Package game runs the interactive map viewer: it ticks a world at a fixed rate,
// turns input into map edits and draws the debug overlay.
package game

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/cellblock/internal/config"
	"github.com/Faultbox/cellblock/internal/engine/camera"
	"github.com/Faultbox/cellblock/internal/engine/debug"
	"github.com/Faultbox/cellblock/internal/engine/input"
	"github.com/Faultbox/cellblock/internal/engine/renderer"
	"github.com/Faultbox/cellblock/internal/engine/window"
	"github.com/Faultbox/cellblock/internal/logger"
	"github.com/Faultbox/cellblock/internal/planmap"
	"github.com/Faultbox/cellblock/internal/save"
	"github.com/Faultbox/cellblock/internal/sim"
	"github.com/Faultbox/cellblock/pkg/math"
)

// pickPixels is the cursor pick radius in screen pixels.
const pickPixels = 8

// Game is the viewer instance.
type Game struct {
	cfg      *config.Config
	world    *sim.World
	running  bool
	paused   bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	camera   *camera.TopDownCamera
	overlay  *debug.Overlay
	log      *zap.Logger

	// Edits queued for the next tick.
	pending []sim.Edit
	// Start of a wall being drawn.
	wallStart *math.Vec2
}

// New opens a window showing w.
func New(cfg *config.Config, w *sim.World, title string) (*Game, error) {
	g := &Game{
		cfg:     cfg,
		world:   w,
		overlay: debug.NewOverlay(w),
		log:     logger.Named("game"),
	}

	var err error
	g.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Viewer.Width,
		Height:     cfg.Viewer.Height,
		Fullscreen: cfg.Viewer.Fullscreen,
		VSync:      cfg.Viewer.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	width, height := g.window.GetSize()
	g.camera = camera.NewTopDownCamera(width, height)
	g.camera.FitToBounds(w.Map.Bounds())
	g.renderer = renderer.New(g.window.Renderer(), g.camera)
	g.input = input.New()

	g.log.Info("viewer initialized", zap.Int("width", width), zap.Int("height", height))
	return g, nil
}

// Run starts the main loop. The world advances in fixed steps of one tick.
func (g *Game) Run(ctx context.Context) error {
	g.running = true

	step := time.Second / time.Duration(max(g.cfg.Simulation.TickRate, 1))
	lastTime := time.Now()
	var acc time.Duration
	frameCount := 0
	fpsTimer := time.Now()

	g.log.Info("starting viewer loop", zap.Duration("tick", step))

	for g.running {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := time.Now()
		acc += now.Sub(lastTime)
		lastTime = now

		if g.input.Update() {
			g.running = false
			break
		}
		g.handleEvents()

		if g.paused {
			acc = 0
		}
		for acc >= step || len(g.pending) > 0 && g.paused {
			dt := float32(step.Seconds())
			if g.paused {
				dt = 0
			}
			if err := g.tick(ctx, dt); err != nil {
				return fmt.Errorf("tick error: %w", err)
			}
			if acc >= step {
				acc -= step
			}
		}

		if err := g.renderer.Draw(g.overlay.Frame()); err != nil {
			g.log.Debug("draw failed", zap.Error(err))
		}
		g.window.Present()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			g.log.Debug("fps", zap.Int("count", frameCount), zap.Uint64("tick", g.world.Ticks()))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

// Close cleans up viewer resources.
func (g *Game) Close() {
	g.log.Info("closing viewer")
	if g.window != nil {
		g.window.Close()
	}
}

func (g *Game) tick(ctx context.Context, dt float32) error {
	edits := g.pending
	g.pending = nil
	stats, err := g.world.Tick(ctx, dt, edits)
	if err != nil {
		return err
	}
	if stats.Failed > 0 || stats.Events > 0 {
		g.log.Debug("tick",
			zap.Uint64("tick", stats.Tick),
			zap.Int("edits", stats.Edits),
			zap.Int("failed", stats.Failed),
			zap.Int("events", stats.Events),
			zap.Int("queries", stats.Queries))
	}
	return nil
}

func (g *Game) cursor() math.Vec2 {
	x, y := g.input.Mouse()
	return g.camera.ScreenToWorld(float32(x), float32(y))
}

func (g *Game) pick() float32 {
	return pickPixels / g.camera.Zoom
}

func (g *Game) handleEvents() {
	for _, e := range g.input.Events() {
		switch e.Type {
		case input.EventWindowResize:
			g.camera.Resize(g.window.GetSize())

		case input.EventMouseMove:
			if g.input.IsButtonHeld(sdl.BUTTON_RIGHT) {
				g.camera.HandleDrag(float32(e.DeltaX), float32(e.DeltaY))
			}

		case input.EventMouseWheel:
			g.camera.HandleZoom(float32(e.DeltaY), float32(e.MouseX), float32(e.MouseY))

		case input.EventMouseDown:
			if e.Button == sdl.BUTTON_LEFT {
				goal := g.camera.ScreenToWorld(float32(e.MouseX), float32(e.MouseY))
				for _, p := range g.world.Pawns() {
					if err := g.world.SetGoal(p.ID, goal); err != nil {
						g.log.Warn("set goal failed", zap.Stringer("pawn", p.ID), zap.Error(err))
					}
				}
			}

		case input.EventKeyDown:
			g.handleKey(e.Key)
		}
	}
}

func (g *Game) handleKey(key sdl.Scancode) {
	m := g.world.Map
	at := g.cursor()

	switch key {
	case sdl.SCANCODE_ESCAPE:
		g.running = false
	case sdl.SCANCODE_SPACE:
		g.paused = !g.paused
	case sdl.SCANCODE_F:
		g.camera.FitToBounds(m.Bounds())

	// Layers
	case sdl.SCANCODE_T:
		g.overlay.Toggle(debug.LayerTriangulation)
	case sdl.SCANCODE_M:
		g.overlay.Toggle(debug.LayerMesh)
	case sdl.SCANCODE_G:
		g.overlay.Toggle(debug.LayerDoorGraph)
	case sdl.SCANCODE_R:
		g.overlay.Toggle(debug.LayerRoutes)

	// Edits
	case sdl.SCANCODE_W:
		if g.wallStart == nil {
			g.wallStart = &at
			return
		}
		g.pending = append(g.pending, sim.InsertWall{
			Start: planmap.AtPosition(*g.wallStart),
			End:   planmap.AtPosition(at),
		})
		g.wallStart = nil
	case sdl.SCANCODE_C:
		g.pending = append(g.pending, sim.InsertCorner{Def: planmap.AtPosition(at)})
	case sdl.SCANCODE_D:
		if id, ok := m.WallAt(at, g.pick()); ok {
			w, _ := m.Wall(id)
			g.pending = append(g.pending, sim.SetDoor{Wall: id, Door: !w.Door})
		}
	case sdl.SCANCODE_X:
		if id, ok := m.WallAt(at, g.pick()); ok {
			g.pending = append(g.pending, sim.RemoveWall{Wall: id})
		}
	case sdl.SCANCODE_P:
		if _, err := g.world.AddPawn(at); err != nil {
			g.log.Warn("add pawn failed", zap.Error(err))
		}
	case sdl.SCANCODE_F5:
		g.quicksave()
	}
}

func (g *Game) quicksave() {
	format := save.Format(g.cfg.Save.Format)
	path := filepath.Join(g.cfg.Save.Dir, "quicksave."+string(format))
	if err := save.WriteFile(path, save.Capture(g.world), format); err != nil {
		g.log.Error("quicksave failed", zap.String("path", path), zap.Error(err))
		return
	}
	g.log.Info("quicksaved", zap.String("path", path))
}
