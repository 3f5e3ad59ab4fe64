package cdt

import "github.com/Faultbox/cellblock/pkg/math"

// Geometric tolerances in metres.
const (
	// VertexEpsilon is the distance under which a point coincides with a vertex.
	VertexEpsilon = 1e-5
	// EdgeEpsilon is the distance under which a point lies on an edge.
	EdgeEpsilon   = 1e-5
	circleEpsilon = 1e-10
)

// orient returns twice the signed area of (a, b, c); positive when counter-clockwise.
func orient(a, b, c math.Vec2) float64 {
	ax, ay := float64(a.X), float64(a.Y)
	return (float64(b.X)-ax)*(float64(c.Y)-ay) - (float64(b.Y)-ay)*(float64(c.X)-ax)
}

// lineDistance returns the distance from c to the line through a and b.
func lineDistance(a, b, c math.Vec2) float64 {
	l := float64(a.Distance(b))
	if l == 0 {
		return float64(a.Distance(c))
	}
	o := orient(a, b, c)
	if o < 0 {
		o = -o
	}
	return o / l
}

// incircle is positive when d lies inside the circumcircle of counter-clockwise (a, b, c).
func incircle(a, b, c, d math.Vec2) float64 {
	dx, dy := float64(d.X), float64(d.Y)
	adx, ady := float64(a.X)-dx, float64(a.Y)-dy
	bdx, bdy := float64(b.X)-dx, float64(b.Y)-dy
	cdx, cdy := float64(c.X)-dx, float64(c.Y)-dy

	ad := adx*adx + ady*ady
	bd := bdx*bdx + bdy*bdy
	cd := cdx*cdx + cdy*cdy

	return adx*(bdy*cd-bd*cdy) - ady*(bdx*cd-bd*cdx) + ad*(bdx*cdy-bdy*cdx)
}

// crossesStrictly reports whether the open segments ab and cd properly intersect.
func crossesStrictly(a, b, c, d math.Vec2) bool {
	o1 := orient(a, b, c)
	o2 := orient(a, b, d)
	if o1*o2 >= 0 {
		return false
	}
	o3 := orient(c, d, a)
	o4 := orient(c, d, b)
	return o3*o4 < 0
}
