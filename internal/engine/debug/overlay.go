// Package debug provides debug visualization of a map and its navigation data.
package debug

import (
	"github.com/Faultbox/cellblock/internal/planmap"
	"github.com/Faultbox/cellblock/internal/sim"
	"github.com/Faultbox/cellblock/pkg/cdt"
	"github.com/Faultbox/cellblock/pkg/math"
)

// Layer selects what an overlay draws.
type Layer uint16

const (
	LayerPerimeter Layer = 1 << iota
	LayerTriangulation
	LayerWalls
	LayerDoors
	LayerMesh
	LayerDoorGraph
	LayerPawns
	LayerRoutes

	LayerDefault = LayerPerimeter | LayerWalls | LayerDoors | LayerMesh | LayerPawns | LayerRoutes
)

// Color is an RGBA color.
type Color struct {
	R, G, B, A uint8
}

var (
	ColorPerimeter = Color{200, 200, 200, 255}
	ColorTriangle  = Color{70, 70, 90, 255}
	ColorWall      = Color{230, 230, 230, 255}
	ColorDoor      = Color{230, 160, 40, 255}
	ColorMesh      = Color{40, 140, 60, 90}
	ColorMeshEdge  = Color{60, 180, 80, 200}
	ColorDoorGraph = Color{90, 120, 230, 200}
	ColorPawn      = Color{220, 60, 60, 255}
	ColorRoute     = Color{240, 90, 200, 255}
	ColorBlocked   = Color{120, 120, 120, 255}
)

// Line is a colored world-space segment.
type Line struct {
	A, B  math.Vec2
	Color Color
}

// Triangle is a filled world-space triangle.
type Triangle struct {
	P     [3]math.Vec2
	Color Color
}

// Marker is a square centered on Pos, Size world units across.
type Marker struct {
	Pos   math.Vec2
	Size  float32
	Color Color
}

// Frame is everything to draw for one view of the world.
type Frame struct {
	Triangles []Triangle
	Lines     []Line
	Markers   []Marker
}

// Overlay generates frames for a world.
type Overlay struct {
	world  *sim.World
	Layers Layer
}

// NewOverlay creates an overlay drawing the default layers.
func NewOverlay(w *sim.World) *Overlay {
	return &Overlay{world: w, Layers: LayerDefault}
}

// Toggle flips a layer on or off.
func (o *Overlay) Toggle(l Layer) {
	o.Layers ^= l
}

// Frame generates the primitives for the enabled layers. Filled shapes come
// first so lines draw over them.
func (o *Overlay) Frame() Frame {
	var f Frame
	m := o.world.Map

	if o.Layers&LayerMesh != 0 {
		o.meshes(&f)
	}
	if o.Layers&LayerTriangulation != 0 {
		tri := m.Triangulation()
		tri.Edges(func(e cdt.EdgeID) bool {
			f.Lines = append(f.Lines, Line{
				A:     tri.Position(tri.Origin(e)),
				B:     tri.Position(tri.Dest(e)),
				Color: ColorTriangle,
			})
			return true
		})
	}
	if o.Layers&LayerPerimeter != 0 {
		for _, s := range m.Perimeter() {
			f.Lines = append(f.Lines, Line{A: s.Seg.A, B: s.Seg.B, Color: ColorPerimeter})
		}
	}
	if o.Layers&(LayerWalls|LayerDoors) != 0 {
		for _, w := range m.Walls() {
			o.wall(&f, m, w)
		}
	}
	if o.Layers&LayerDoorGraph != 0 {
		for _, d := range o.world.Nav.Doors() {
			for _, r := range d.Rooms {
				for _, l := range o.world.Nav.RoomLinks(r) {
					if l.Door > d.Door {
						f.Lines = append(f.Lines, Line{A: d.Pos, B: l.Pos, Color: ColorDoorGraph})
					}
				}
			}
		}
	}
	if o.Layers&(LayerPawns|LayerRoutes) != 0 {
		for _, p := range o.world.Pawns() {
			o.pawn(&f, p)
		}
	}
	return f
}

func (o *Overlay) meshes(f *Frame) {
	for _, r := range o.world.Map.RoomsDeduped() {
		mesh := o.world.Nav.Mesh(r.ID)
		if mesh == nil {
			continue
		}
		for i := range mesh.Polys {
			poly := mesh.Polygon(i)
			for k := 1; k+1 < len(poly); k++ {
				f.Triangles = append(f.Triangles, Triangle{
					P:     [3]math.Vec2{poly[0], poly[k], poly[k+1]},
					Color: ColorMesh,
				})
			}
			for k := range poly {
				f.Lines = append(f.Lines, Line{A: poly[k], B: poly[(k+1)%len(poly)], Color: ColorMeshEdge})
			}
		}
	}
}

func (o *Overlay) wall(f *Frame, m *planmap.Map, w planmap.Wall) {
	seg := w.Segment()
	if !w.Door {
		if o.Layers&LayerWalls != 0 {
			f.Lines = append(f.Lines, Line{A: seg.A, B: seg.B, Color: ColorWall})
		}
		return
	}
	if o.Layers&LayerDoors == 0 {
		return
	}
	ap, err := m.DoorAperture(w.ID)
	if err != nil {
		f.Lines = append(f.Lines, Line{A: seg.A, B: seg.B, Color: ColorDoor})
		return
	}
	for _, j := range ap.Jambs {
		f.Lines = append(f.Lines, Line{A: j.A, B: j.B, Color: ColorWall})
	}
	for _, fr := range ap.Frames {
		for k := range fr {
			f.Lines = append(f.Lines, Line{A: fr[k], B: fr[(k+1)%len(fr)], Color: ColorDoor})
		}
	}
}

func (o *Overlay) pawn(f *Frame, p sim.Pawn) {
	if o.Layers&LayerRoutes != 0 && p.Route != nil {
		pts := p.Route.Points()
		for k := 1; k < len(pts); k++ {
			f.Lines = append(f.Lines, Line{A: pts[k-1], B: pts[k], Color: ColorRoute})
		}
	}
	if o.Layers&LayerPawns != 0 {
		c := ColorPawn
		if p.Unreachable() {
			c = ColorBlocked
		}
		f.Markers = append(f.Markers, Marker{Pos: p.Position, Size: 2 * planmap.PawnRadius, Color: c})
		heading := p.Position.Add(math.FromAngle(p.Rotation, 2*planmap.PawnRadius))
		f.Lines = append(f.Lines, Line{A: p.Position, B: heading, Color: c})
	}
}
