package planmap

import "github.com/Faultbox/cellblock/pkg/math"

// Aperture is the collision profile of a door wall: two solid jambs around a
// walkable opening, and a frame rectangle at each end of the opening.
type Aperture struct {
	Center  math.Vec2
	Opening math.Segment
	Jambs   [2]math.Segment
	Frames  [2][4]math.Vec2
}

// DoorAperture returns the carved profile of the door on w.
func (m *Map) DoorAperture(w WallID) (Aperture, error) {
	wall, ok := m.walls[w]
	if !ok {
		return Aperture{}, unknownWall(w)
	}
	if !wall.Door {
		return Aperture{}, ErrNotDoor
	}
	return aperture(wall.seg), nil
}

func aperture(s math.Segment) Aperture {
	c := s.Midpoint()
	dir := s.B.Sub(s.A).Normalize()
	n := dir.Perp().Scale(DoorDepth / 2)

	in0 := c.Sub(dir.Scale(DoorInnerWidth / 2))
	in1 := c.Add(dir.Scale(DoorInnerWidth / 2))
	out0 := c.Sub(dir.Scale(DoorWidth / 2))
	out1 := c.Add(dir.Scale(DoorWidth / 2))

	return Aperture{
		Center:  c,
		Opening: math.Segment{A: in0, B: in1},
		Jambs:   [2]math.Segment{{A: s.A, B: in0}, {A: in1, B: s.B}},
		Frames: [2][4]math.Vec2{
			{out0.Sub(n), in0.Sub(n), in0.Add(n), out0.Add(n)},
			{in1.Sub(n), out1.Sub(n), out1.Add(n), in1.Add(n)},
		},
	}
}
