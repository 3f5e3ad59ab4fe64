package navmesh

import "github.com/Faultbox/cellblock/pkg/math"

// mergeConvex greedily removes shared edges between polygons as long as the union
// stays convex (Hertel-Mehlhorn).
func mergeConvex(verts []math.Vec2, polys [][]int32) [][]int32 {
	for {
		edges := make(map[[2]int32]int)
		for i, p := range polys {
			for k := range p {
				edges[[2]int32{p[k], p[(k+1)%len(p)]}] = i
			}
		}

		merged := false
		for i := 0; i < len(polys) && !merged; i++ {
			p := polys[i]
			for k := range p {
				u, v := p[k], p[(k+1)%len(p)]
				j, ok := edges[[2]int32{v, u}]
				if !ok || j == i {
					continue
				}
				union := joinAlong(p, k, polys[j], v, u)
				if union == nil || !convex(verts, union) {
					continue
				}
				polys[i] = union
				polys = append(polys[:j], polys[j+1:]...)
				merged = true
				break
			}
		}
		if !merged {
			return polys
		}
	}
}

// joinAlong returns the union of p and q across the edge p[k]->p[k+1], which q
// holds as v->u.
func joinAlong(p []int32, k int, q []int32, v, u int32) []int32 {
	m := -1
	for i := range q {
		if q[i] == v && q[(i+1)%len(q)] == u {
			m = i
			break
		}
	}
	if m < 0 {
		return nil
	}

	out := make([]int32, 0, len(p)+len(q)-2)
	for i := 1; i <= len(p); i++ {
		out = append(out, p[(k+i)%len(p)])
	}
	for i := 2; i < len(q); i++ {
		out = append(out, q[(m+i)%len(q)])
	}
	return out
}

func convex(verts []math.Vec2, poly []int32) bool {
	seen := make(map[int32]bool, len(poly))
	for _, v := range poly {
		if seen[v] {
			return false
		}
		seen[v] = true
	}
	n := len(poly)
	for i := range poly {
		a, b, c := verts[poly[(i+n-1)%n]], verts[poly[i]], verts[poly[(i+1)%n]]
		if orient(a, b, c) < -areaEpsilon {
			return false
		}
	}
	return true
}
