package math

import "testing"

func TestSegmentClosestPoint(t *testing.T) {
	s := Segment{Vec2{0, 0}, Vec2{4, 0}}

	tests := []struct {
		name string
		p    Vec2
		want Vec2
	}{
		{"inside", Vec2{1, 3}, Vec2{1, 0}},
		{"before start", Vec2{-2, 1}, Vec2{0, 0}},
		{"after end", Vec2{9, -1}, Vec2{4, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.ClosestPoint(tt.p)
			if !got.ApproxEqual(tt.want, 1e-6) {
				t.Errorf("ClosestPoint(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}

	if d := s.DistanceTo(Vec2{2, -3}); d != 3 {
		t.Errorf("DistanceTo() = %v, want 3", d)
	}
}

func TestSegmentIntersect(t *testing.T) {
	a := Segment{Vec2{0, 1}, Vec2{0, -1}}
	b := Segment{Vec2{-1, 0}, Vec2{1, 0}}

	ta, tb, ok := a.Intersect(b)
	if !ok {
		t.Fatal("Intersect() reported parallel lines")
	}
	if Abs(ta-0.5) > 1e-6 || Abs(tb-0.5) > 1e-6 {
		t.Errorf("Intersect() = (%v, %v), want (0.5, 0.5)", ta, tb)
	}
	if p := a.At(ta); !p.ApproxEqual(Vec2{}, 1e-6) {
		t.Errorf("crossing point = %v, want origin", p)
	}

	c := Segment{Vec2{-1, 2}, Vec2{1, 2}}
	if _, _, ok := b.Intersect(c); ok {
		t.Error("Intersect() of parallel segments should fail")
	}
}

func TestSignedArea(t *testing.T) {
	ccw := []Vec2{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
	if a := SignedArea(ccw); a != 4 {
		t.Errorf("SignedArea(ccw) = %v, want 4", a)
	}
	cw := []Vec2{{0, 0}, {0, 2}, {2, 2}, {2, 0}}
	if a := SignedArea(cw); a != -4 {
		t.Errorf("SignedArea(cw) = %v, want -4", a)
	}
	if l := PolylineLength(ccw); l != 6 {
		t.Errorf("PolylineLength() = %v, want 6", l)
	}
}
