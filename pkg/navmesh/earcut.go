package navmesh

import (
	"sort"

	"github.com/Faultbox/cellblock/pkg/math"
)

const areaEpsilon = 1e-9

// earNode is a vertex of the ring being clipped. Bridged holes duplicate nodes that
// share a vertex index.
type earNode struct {
	i          int32
	prev, next int
	removed    bool
}

type clipper struct {
	verts []math.Vec2
	nodes []earNode
}

func orient(a, b, c math.Vec2) float64 {
	ax, ay := float64(a.X), float64(a.Y)
	return (float64(b.X)-ax)*(float64(c.Y)-ay) - (float64(b.Y)-ay)*(float64(c.X)-ax)
}

func (c *clipper) pos(n int) math.Vec2 {
	return c.verts[c.nodes[n].i]
}

// ring links the vertex indices [from, to) into a circular list and returns its head.
func (c *clipper) ring(from, to int) int {
	head := len(c.nodes)
	n := to - from
	for k := 0; k < n; k++ {
		c.nodes = append(c.nodes, earNode{
			i:    int32(from + k),
			prev: head + (k+n-1)%n,
			next: head + (k+1)%n,
		})
	}
	return head
}

func (c *clipper) unlink(n int) {
	p, q := c.nodes[n].prev, c.nodes[n].next
	c.nodes[p].next = q
	c.nodes[q].prev = p
	c.nodes[n].removed = true
}

// Triangulate splits a counter-clockwise outer ring with clockwise holes into
// triangles. verts holds the outer ring followed by each hole; holes gives the start
// offset of each hole in verts. Holes that cannot be bridged to the outer ring are
// ignored and counted in the second return value.
func Triangulate(verts []math.Vec2, outerLen int, holes []int) ([][3]int32, int) {
	c := &clipper{verts: verts}
	head := c.ring(0, outerLen)

	type holeRing struct{ head, right int }
	var rings []holeRing
	for k, start := range holes {
		end := len(verts)
		if k+1 < len(holes) {
			end = holes[k+1]
		}
		if end-start < 3 {
			continue
		}
		h := c.ring(start, end)
		right := h
		for n, m := c.nodes[h].next, 0; n != h && m < end-start; n, m = c.nodes[n].next, m+1 {
			if p, r := c.pos(n), c.pos(right); p.X > r.X || (p.X == r.X && p.Y < r.Y) {
				right = n
			}
		}
		rings = append(rings, holeRing{head: h, right: right})
	}

	// Bridge the right-most holes first so that each bridge heads right, away from
	// holes that are still unmerged.
	sort.SliceStable(rings, func(i, j int) bool {
		return c.pos(rings[i].right).X > c.pos(rings[j].right).X
	})

	pending := make([]int, len(rings))
	for k, r := range rings {
		pending[k] = r.head
	}

	skipped := 0
	for k, r := range rings {
		bridge := c.findBridge(head, r.right, pending[k+1:])
		if bridge < 0 {
			skipped++
			continue
		}
		c.splice(bridge, r.right)
	}

	return c.clip(head), skipped
}

// findBridge returns the node of the outer ring nearest to the hole node m that can
// be joined to it by a segment crossing no edge, or -1.
func (c *clipper) findBridge(outer, m int, others []int) int {
	pm := c.pos(m)

	var cands []int
	for n, first := outer, true; first || n != outer; n, first = c.nodes[n].next, false {
		cands = append(cands, n)
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return c.pos(cands[i]).DistanceSq(pm) < c.pos(cands[j]).DistanceSq(pm)
	})

	for _, n := range cands {
		pn := c.pos(n)
		if pn == pm {
			return n
		}
		if !c.locallyInside(n, pm) {
			continue
		}
		if c.ringBlocks(outer, pm, pn) || c.ringBlocks(m, pm, pn) {
			continue
		}
		blocked := false
		for _, h := range others {
			if c.ringBlocks(h, pm, pn) {
				blocked = true
				break
			}
		}
		if !blocked {
			return n
		}
	}
	return -1
}

// ringBlocks reports whether segment ab properly crosses an edge of the ring at head
// or passes through one of its vertices.
func (c *clipper) ringBlocks(head int, a, b math.Vec2) bool {
	n := head
	for {
		p, q := c.pos(n), c.pos(c.nodes[n].next)
		if crosses(a, b, p, q) {
			return true
		}
		if p != a && p != b && onSegment(a, b, p) {
			return true
		}
		n = c.nodes[n].next
		if n == head {
			return false
		}
	}
}

// locallyInside reports whether the direction from node n towards p points into the
// polygon interior at n.
func (c *clipper) locallyInside(n int, p math.Vec2) bool {
	a := c.pos(n)
	prev, next := c.pos(c.nodes[n].prev), c.pos(c.nodes[n].next)
	if orient(prev, a, next) >= 0 {
		return orient(a, next, p) > 0 && orient(a, prev, p) < 0
	}
	return orient(a, next, p) >= 0 || orient(a, prev, p) <= 0
}

// splice joins the hole containing node h into the ring of node a with a two-way
// bridge a->h ... h'->a'.
func (c *clipper) splice(a, h int) {
	an := c.nodes[a].next
	hp := c.nodes[h].prev

	a2 := len(c.nodes)
	c.nodes = append(c.nodes, earNode{i: c.nodes[a].i})
	h2 := len(c.nodes)
	c.nodes = append(c.nodes, earNode{i: c.nodes[h].i})

	c.nodes[a].next = h
	c.nodes[h].prev = a

	c.nodes[hp].next = h2
	c.nodes[h2].prev = hp
	c.nodes[h2].next = a2
	c.nodes[a2].prev = h2
	c.nodes[a2].next = an
	c.nodes[an].prev = a2
}

// clip runs ear clipping on the ring at head. When no proper ear is left it first
// accepts convex vertices, then drops vertices, so that it always terminates.
func (c *clipper) clip(head int) [][3]int32 {
	var tris [][3]int32

	count := 0
	for n, first := head, true; first || n != head; n, first = c.nodes[n].next, false {
		count++
	}

	ear, stop, pass := head, head, 0
	for count > 3 {
		prev, next := c.nodes[ear].prev, c.nodes[ear].next
		if c.isEar(ear, pass) {
			if orient(c.pos(prev), c.pos(ear), c.pos(next)) > areaEpsilon {
				tris = append(tris, [3]int32{c.nodes[prev].i, c.nodes[ear].i, c.nodes[next].i})
			}
			c.unlink(ear)
			count--
			ear, stop, pass = next, next, 0
			continue
		}
		ear = next
		if ear == stop {
			pass++
			if pass > 2 {
				break
			}
		}
	}

	if count == 3 {
		a := c.nodes[ear].prev
		b := ear
		d := c.nodes[ear].next
		if orient(c.pos(a), c.pos(b), c.pos(d)) > areaEpsilon {
			tris = append(tris, [3]int32{c.nodes[a].i, c.nodes[b].i, c.nodes[d].i})
		}
	}
	return tris
}

func (c *clipper) isEar(n, pass int) bool {
	prev, next := c.nodes[n].prev, c.nodes[n].next
	a, b, d := c.pos(prev), c.pos(n), c.pos(next)
	switch pass {
	case 2:
		return true
	case 1:
		return orient(a, b, d) >= 0
	}
	if orient(a, b, d) <= areaEpsilon {
		return false
	}
	for m := c.nodes[next].next; m != prev; m = c.nodes[m].next {
		p := c.pos(m)
		if p == a || p == b || p == d {
			continue
		}
		if orient(a, b, p) >= 0 && orient(b, d, p) >= 0 && orient(d, a, p) >= 0 {
			return false
		}
	}
	return true
}

func crosses(a, b, c, d math.Vec2) bool {
	o1, o2 := orient(a, b, c), orient(a, b, d)
	if o1*o2 >= 0 {
		return false
	}
	o3, o4 := orient(c, d, a), orient(c, d, b)
	return o3*o4 < 0
}

func onSegment(a, b, p math.Vec2) bool {
	o := orient(a, b, p)
	if o > areaEpsilon || o < -areaEpsilon {
		return false
	}
	d := b.Sub(a)
	t := p.Sub(a).Dot(d)
	return t > 0 && t < d.LengthSq()
}
