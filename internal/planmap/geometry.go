package planmap

import (
	"sort"

	"github.com/Faultbox/cellblock/pkg/cdt"
	"github.com/Faultbox/cellblock/pkg/math"
)

// Spoke is a wall or bound segment leaving a corner.
type Spoke struct {
	// Wall is zero for segments of the map bounds.
	Wall     WallID
	Neighbor cdt.VertexID
	Angle    float32
}

// CornerGeometry holds the points where the offset outlines of the walls meeting at
// a vertex intersect. Gaps[i] lists the points between Spokes[i] and the next spoke
// counter-clockwise.
type CornerGeometry struct {
	Vertex cdt.VertexID
	Pos    math.Vec2
	Spokes []Spoke
	Gaps   [][]math.Vec2
}

// CornerGeometry computes the offset geometry of c.
func (m *Map) CornerGeometry(c CornerID) (CornerGeometry, error) {
	corner, ok := m.corners[c]
	if !ok {
		return CornerGeometry{}, unknownCorner(c)
	}
	return m.VertexGeometry(corner.Vertex), nil
}

// VertexGeometry computes the offset geometry of any live vertex, bound vertices
// included.
func (m *Map) VertexGeometry(v cdt.VertexID) CornerGeometry {
	g := CornerGeometry{Vertex: v, Pos: m.tri.Position(v)}
	for _, e := range m.tri.OutEdges(v) {
		if m.tri.IsConstraint(e) || m.tri.IsHull(e) {
			g.addSpoke(m, m.tri.Dest(e))
		}
	}
	// The incoming hull edge has no outgoing twin at v.
	if out := m.tri.OutEdges(v); len(out) > 0 {
		last := out[len(out)-1]
		if in := m.tri.Prev(last); m.tri.IsHull(in) {
			g.addSpoke(m, m.tri.Origin(in))
		}
	}

	sort.Slice(g.Spokes, func(i, j int) bool {
		a, b := g.Spokes[i], g.Spokes[j]
		if a.Angle != b.Angle {
			return a.Angle < b.Angle
		}
		return a.Neighbor < b.Neighbor
	})

	n := len(g.Spokes)
	g.Gaps = make([][]math.Vec2, n)
	for i := range g.Spokes {
		a1 := g.Spokes[i].Angle
		a2 := g.Spokes[(i+1)%n].Angle
		if i == n-1 {
			a2 += math.TwoPi
		}
		g.Gaps[i] = gapPoints(g.Pos, a1, a2)
	}
	return g
}

func (g *CornerGeometry) addSpoke(m *Map, n cdt.VertexID) {
	w := m.byEdge[keyOf(g.Vertex, n)]
	dir := m.tri.Position(n).Sub(g.Pos)
	g.Spokes = append(g.Spokes, Spoke{Wall: w, Neighbor: n, Angle: math.PositiveAngle(dir.Angle())})
}

// gapPoints returns the offset points between spokes at angles a1 < a2. Gaps wider
// than reflexGap get two chamfer points; a gap of exactly reflexGap gets one.
func gapPoints(p math.Vec2, a1, a2 float32) []math.Vec2 {
	d := a2 - a1
	if d > reflexGap {
		r := Radius * math.Sqrt(2)
		return []math.Vec2{
			p.Add(math.FromAngle(a1+chamferAngle, r)),
			p.Add(math.FromAngle(a2-chamferAngle, r)),
		}
	}
	s := math.Sin(d / 2)
	r := float32(maxMiter)
	if s > 0 && Radius/s < r {
		r = Radius / s
	}
	return []math.Vec2{p.Add(math.FromAngle(a1+d/2, r))}
}

func (g CornerGeometry) spokeIndex(match func(Spoke) bool) int {
	for i, s := range g.Spokes {
		if match(s) {
			return i
		}
	}
	return -1
}

// walk collects the gap points counter-clockwise from spoke i to spoke j. i == j
// yields the whole cycle.
func (g CornerGeometry) walk(i, j int) []math.Vec2 {
	if i < 0 || j < 0 {
		return nil
	}
	var out []math.Vec2
	k := i
	for {
		out = append(out, g.Gaps[k]...)
		k = (k + 1) % len(g.Spokes)
		if k == j {
			return out
		}
	}
}

// WallIntersections returns the offset points counter-clockwise from wall start to
// wall end. start == end walks the full cycle.
func (g CornerGeometry) WallIntersections(start, end WallID) []math.Vec2 {
	i := g.spokeIndex(func(s Spoke) bool { return s.Wall == start && start != 0 })
	j := g.spokeIndex(func(s Spoke) bool { return s.Wall == end && end != 0 })
	return g.walk(i, j)
}

// Between returns the offset points counter-clockwise from the spoke towards from to
// the spoke towards to.
func (g CornerGeometry) Between(from, to cdt.VertexID) []math.Vec2 {
	i := g.spokeIndex(func(s Spoke) bool { return s.Neighbor == from })
	j := g.spokeIndex(func(s Spoke) bool { return s.Neighbor == to })
	return g.walk(i, j)
}
