package cdt

import (
	"fmt"

	"github.com/Faultbox/cellblock/pkg/math"
)

// Locate returns the triangle containing p, walking from the triangle around hint.
// Pass NoVertex when there is no better starting point. Locate does not modify t,
// so concurrent readers may call it.
func (t *Triangulation) Locate(p math.Vec2, hint VertexID) (FaceID, error) {
	if !t.Contains(p) {
		return NoFace, fmt.Errorf("%w: (%g, %g)", ErrOutside, p.X, p.Y)
	}

	e := EdgeID(0)
	if t.Alive(hint) && t.verts[hint].out != NoEdge {
		e = t.verts[hint].out
	}
	f := FaceID(e / 3)

	// Edge order is shuffled so the walk cannot cycle; the sequence depends only
	// on the starting triangle.
	seed := uint32(f)*2654435761 + 1013904223
	limit := 4*t.NumFaces() + 16
	for step := 0; step < limit; step++ {
		seed = seed*1664525 + 1013904223
		r := int(seed>>16) % 3
		moved := false
		for k := 0; k < 3; k++ {
			ee := EdgeID(int(f)*3 + (r+k)%3)
			a, b := t.verts[t.tri[ee]].pos, t.verts[t.tri[next(ee)]].pos
			if orient(a, b, p) < 0 {
				o := t.opp[ee]
				if o == NoEdge {
					break
				}
				f = FaceID(o / 3)
				moved = true
				break
			}
		}
		if !moved {
			if t.faceContains(f, p, 0) {
				return f, nil
			}
			break
		}
	}

	// The walk can stall on nearly collinear triangles; fall back to a scan.
	best, bestSlack := NoFace, -1e300
	for i := 0; i < t.NumFaces(); i++ {
		s := t.faceSlack(FaceID(i), p)
		if s >= 0 {
			return FaceID(i), nil
		}
		if s > bestSlack {
			best, bestSlack = FaceID(i), s
		}
	}
	if best == NoFace {
		return NoFace, fmt.Errorf("%w: no triangle contains (%g, %g)", ErrDegenerate, p.X, p.Y)
	}
	return best, nil
}

func (t *Triangulation) faceContains(f FaceID, p math.Vec2, slack float64) bool {
	return t.faceSlack(f, p) >= -slack
}

// faceSlack returns the minimum signed distance from p to the edges of f, negative
// when p is outside.
func (t *Triangulation) faceSlack(f FaceID, p math.Vec2) float64 {
	min := 1e300
	for k := 0; k < 3; k++ {
		e := EdgeID(int(f)*3 + k)
		a, b := t.verts[t.tri[e]].pos, t.verts[t.tri[next(e)]].pos
		l := float64(a.Distance(b))
		if l == 0 {
			continue
		}
		d := orient(a, b, p) / l
		if d < min {
			min = d
		}
	}
	return min
}

// NearestVertex returns the live vertex closest to p among the vertices of the
// triangle containing p and their neighbours.
func (t *Triangulation) NearestVertex(p math.Vec2, hint VertexID) (VertexID, error) {
	f, err := t.Locate(t.clampToBounds(p), hint)
	if err != nil {
		return NoVertex, err
	}
	best, bestD := NoVertex, float32(0)
	for _, v := range t.FaceVertices(f) {
		for _, n := range append(t.Neighbors(v), v) {
			d := t.verts[n].pos.DistanceSq(p)
			if best == NoVertex || d < bestD || (d == bestD && n < best) {
				best, bestD = n, d
			}
		}
	}
	return best, nil
}

func (t *Triangulation) clampToBounds(p math.Vec2) math.Vec2 {
	return p.Clamp(t.min, t.max)
}
