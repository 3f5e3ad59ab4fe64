package math

// Segment is a line segment between A and B.
type Segment struct {
	A, B Vec2
}

// Length returns |B-A|.
func (s Segment) Length() float32 {
	return s.A.Distance(s.B)
}

// Midpoint returns the point halfway between A and B.
func (s Segment) Midpoint() Vec2 {
	return s.A.Lerp(s.B, 0.5)
}

// At returns A + (B-A)*t.
func (s Segment) At(t float32) Vec2 {
	return s.A.Lerp(s.B, t)
}

// ClosestT returns the parameter in [0,1] of the point on s closest to p.
func (s Segment) ClosestT(p Vec2) float32 {
	d := s.B.Sub(s.A)
	l := d.LengthSq()
	if l == 0 {
		return 0
	}
	return Clamp(p.Sub(s.A).Dot(d)/l, 0, 1)
}

// ClosestPoint returns the point on s closest to p.
func (s Segment) ClosestPoint(p Vec2) Vec2 {
	return s.At(s.ClosestT(p))
}

// DistanceTo returns the distance from p to s.
func (s Segment) DistanceTo(p Vec2) float32 {
	return s.ClosestPoint(p).Distance(p)
}

// Intersect returns the intersection of the lines through s and o as parameters
// along s and o. ok is false when the lines are parallel.
func (s Segment) Intersect(o Segment) (t, u float32, ok bool) {
	// Solved in float64; wall endpoints can be far apart relative to the crossing.
	ax, ay := float64(s.A.X), float64(s.A.Y)
	rx, ry := float64(s.B.X)-ax, float64(s.B.Y)-ay
	bx, by := float64(o.A.X), float64(o.A.Y)
	qx, qy := float64(o.B.X)-bx, float64(o.B.Y)-by

	den := rx*qy - ry*qx
	if den > -ParallelEpsilon && den < ParallelEpsilon {
		return 0, 0, false
	}
	wx, wy := bx-ax, by-ay
	t = float32((wx*qy - wy*qx) / den)
	u = float32((wx*ry - wy*rx) / den)
	return t, u, true
}

// Polyline helpers.

// PolylineLength returns the summed length of consecutive points.
func PolylineLength(pts []Vec2) float32 {
	var l float32
	for i := 1; i < len(pts); i++ {
		l += pts[i-1].Distance(pts[i])
	}
	return l
}

// SignedArea returns the shoelace area of a closed ring; positive when counter-clockwise.
func SignedArea(ring []Vec2) float32 {
	var a float64
	n := len(ring)
	for i := 0; i < n; i++ {
		p, q := ring[i], ring[(i+1)%n]
		a += float64(p.X)*float64(q.Y) - float64(q.X)*float64(p.Y)
	}
	return float32(a / 2)
}
