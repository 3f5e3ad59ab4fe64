// Package navmesh builds convex-polygon navigation meshes from polygons with holes
// and answers shortest-path queries over them.
package navmesh

import (
	"errors"

	"github.com/tidwall/rtree"

	"github.com/Faultbox/cellblock/pkg/math"
)

// ErrDegenerate is returned when the outer ring has no area.
var ErrDegenerate = errors.New("navmesh: degenerate polygon")

// Portal is an edge shared by two polygons. Left and Right are seen when walking
// from the owning polygon into To.
type Portal struct {
	To          int
	Left, Right math.Vec2
}

// Mesh is a set of convex polygons with portal adjacency.
type Mesh struct {
	Vertices []math.Vec2
	// Polys lists the vertex indices of each convex polygon, counter-clockwise.
	Polys   [][]int32
	Portals [][]Portal

	// SkippedHoles counts holes that were counter-clockwise or could not be joined
	// to the outer ring.
	SkippedHoles int

	index rtree.RTreeG[int]
	area  float32
}

// Build triangulates the polygon given by outer and holes and merges the triangles
// into convex polygons. The outer ring must be counter-clockwise and holes clockwise;
// a clockwise outer ring is ErrDegenerate and a counter-clockwise hole is skipped.
// Orientation is never repaired: an inverted ring is an outline that turned inside out.
func Build(outer []math.Vec2, holes [][]math.Vec2) (*Mesh, error) {
	outer = cleanRing(outer)
	if len(outer) < 3 || math.SignedArea(outer) < areaEpsilon {
		return nil, ErrDegenerate
	}

	verts := append([]math.Vec2(nil), outer...)
	var starts []int
	skippedInverted := 0
	for _, h := range holes {
		h = cleanRing(h)
		if len(h) < 3 || math.Abs(math.SignedArea(h)) < areaEpsilon {
			continue
		}
		if math.SignedArea(h) > 0 {
			skippedInverted++
			continue
		}
		starts = append(starts, len(verts))
		verts = append(verts, h...)
	}

	tris, skipped := Triangulate(verts, len(outer), starts)

	polys := make([][]int32, 0, len(tris))
	for _, t := range tris {
		polys = append(polys, []int32{t[0], t[1], t[2]})
	}
	polys = mergeConvex(verts, polys)

	m := &Mesh{Vertices: verts, Polys: polys, SkippedHoles: skipped + skippedInverted}
	m.link()
	m.indexPolys()
	return m, nil
}

// Area returns the walkable area.
func (m *Mesh) Area() float32 {
	return m.area
}

// Empty reports whether the mesh has no walkable polygon.
func (m *Mesh) Empty() bool {
	return m == nil || len(m.Polys) == 0
}

// Polygon returns the corner positions of polygon i.
func (m *Mesh) Polygon(i int) []math.Vec2 {
	pts := make([]math.Vec2, len(m.Polys[i]))
	for k, v := range m.Polys[i] {
		pts[k] = m.Vertices[v]
	}
	return pts
}

func (m *Mesh) link() {
	type owner struct{ poly, edge int }
	edges := make(map[[2]int32]owner)
	for i, p := range m.Polys {
		for k := range p {
			edges[[2]int32{p[k], p[(k+1)%len(p)]}] = owner{i, k}
		}
	}

	m.Portals = make([][]Portal, len(m.Polys))
	for i, p := range m.Polys {
		for k := range p {
			u, v := p[k], p[(k+1)%len(p)]
			o, ok := edges[[2]int32{v, u}]
			if !ok || o.poly == i {
				continue
			}
			m.Portals[i] = append(m.Portals[i], Portal{
				To:    o.poly,
				Left:  m.Vertices[v],
				Right: m.Vertices[u],
			})
		}
	}
}

func (m *Mesh) indexPolys() {
	m.area = 0
	for i := range m.Polys {
		pts := m.Polygon(i)
		min, max := bbox(pts)
		m.index.Insert([2]float64{float64(min.X), float64(min.Y)}, [2]float64{float64(max.X), float64(max.Y)}, i)
		m.area += math.SignedArea(pts)
	}
}

// Locate returns the polygon containing p.
func (m *Mesh) Locate(p math.Vec2) (int, bool) {
	if m.Empty() {
		return -1, false
	}
	found := -1
	pt := [2]float64{float64(p.X), float64(p.Y)}
	m.index.Search(pt, pt, func(_, _ [2]float64, i int) bool {
		if m.contains(i, p) {
			if found < 0 || i < found {
				found = i
			}
		}
		return true
	})
	return found, found >= 0
}

// Nearest returns the walkable point closest to p and the polygon holding it.
func (m *Mesh) Nearest(p math.Vec2) (math.Vec2, int, bool) {
	if m.Empty() {
		return p, -1, false
	}
	if i, ok := m.Locate(p); ok {
		return p, i, true
	}

	best, bestPoly := p, -1
	bestD := float32(0)
	pt := [2]float64{float64(p.X), float64(p.Y)}
	m.index.Nearby(
		rtree.BoxDist[float64, int](pt, pt, nil),
		func(_, _ [2]float64, i int, dist float64) bool {
			if bestPoly >= 0 && dist > float64(bestD) {
				return false
			}
			q := m.closestOnPoly(i, p)
			d := q.DistanceSq(p)
			if bestPoly < 0 || d < bestD {
				best, bestPoly, bestD = q, i, d
			}
			return true
		},
	)
	return best, bestPoly, bestPoly >= 0
}

func (m *Mesh) contains(i int, p math.Vec2) bool {
	poly := m.Polys[i]
	for k := range poly {
		a, b := m.Vertices[poly[k]], m.Vertices[poly[(k+1)%len(poly)]]
		if orient(a, b, p) < -areaEpsilon {
			return false
		}
	}
	return true
}

func (m *Mesh) closestOnPoly(i int, p math.Vec2) math.Vec2 {
	poly := m.Polys[i]
	best := m.Vertices[poly[0]]
	bestD := best.DistanceSq(p)
	for k := range poly {
		s := math.Segment{A: m.Vertices[poly[k]], B: m.Vertices[poly[(k+1)%len(poly)]]}
		q := s.ClosestPoint(p)
		if d := q.DistanceSq(p); d < bestD {
			best, bestD = q, d
		}
	}
	return best
}

func bbox(pts []math.Vec2) (min, max math.Vec2) {
	min, max = pts[0], pts[0]
	for _, p := range pts[1:] {
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max
}

// cleanRing drops repeated and collinear points.
func cleanRing(ring []math.Vec2) []math.Vec2 {
	out := make([]math.Vec2, 0, len(ring))
	for _, p := range ring {
		if len(out) > 0 && out[len(out)-1].ApproxEqual(p, 1e-6) {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[0].ApproxEqual(out[len(out)-1], 1e-6) {
		out = out[:len(out)-1]
	}

	for changed := true; changed && len(out) >= 3; {
		changed = false
		for i := 0; i < len(out) && len(out) >= 3; i++ {
			a, b, c := out[(i+len(out)-1)%len(out)], out[i], out[(i+1)%len(out)]
			if o := orient(a, b, c); o > -areaEpsilon && o < areaEpsilon && b.Sub(a).Dot(c.Sub(b)) >= 0 {
				out = append(out[:i], out[i+1:]...)
				changed = true
				i--
			}
		}
	}
	return out
}
