package navmesh

import (
	"container/heap"

	"github.com/Faultbox/cellblock/pkg/math"
)

// polyNode is a polygon on the A* open list.
type polyNode struct {
	Poly   int
	Pos    math.Vec2 // entry point into Poly
	G      float32
	F      float32
	Parent *polyNode
	Via    int // portal of Parent used to reach Poly
	Index  int
}

// polyHeap implements a priority queue for polygon A*.
type polyHeap []*polyNode

func (h polyHeap) Len() int { return len(h) }
func (h polyHeap) Less(i, j int) bool {
	if h[i].F != h[j].F {
		return h[i].F < h[j].F
	}
	return h[i].Poly < h[j].Poly
}
func (h polyHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].Index = i
	h[j].Index = j
}

func (h *polyHeap) Push(x interface{}) {
	n := len(*h)
	node := x.(*polyNode)
	node.Index = n
	*h = append(*h, node)
}

func (h *polyHeap) Pop() interface{} {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.Index = -1
	*h = old[0 : n-1]
	return node
}

// Path finds a path from from to to. Endpoints off the mesh are joined to their
// nearest walkable point. It returns the polyline, its length and whether a path
// exists.
func (m *Mesh) Path(from, to math.Vec2) ([]math.Vec2, float32, bool) {
	start, startPoly, ok := m.Nearest(from)
	if !ok {
		return nil, 0, false
	}
	end, endPoly, ok := m.Nearest(to)
	if !ok {
		return nil, 0, false
	}

	portals, ok := m.corridor(start, startPoly, end, endPoly)
	if !ok {
		return nil, 0, false
	}

	inner := funnel(start, end, portals)

	pts := make([]math.Vec2, 0, len(inner)+2)
	add := func(p math.Vec2) {
		if len(pts) == 0 || !pts[len(pts)-1].ApproxEqual(p, 1e-6) {
			pts = append(pts, p)
		}
	}
	add(from)
	for _, p := range inner {
		add(p)
	}
	add(to)
	if len(pts) == 1 {
		pts = append(pts, to)
	}
	return pts, math.PolylineLength(pts), true
}

// corridor runs A* over polygons and returns the portals crossed from startPoly to
// endPoly.
func (m *Mesh) corridor(start math.Vec2, startPoly int, end math.Vec2, endPoly int) ([]Portal, bool) {
	if startPoly == endPoly {
		return nil, true
	}

	openSet := &polyHeap{}
	heap.Init(openSet)
	closed := make(map[int]bool)
	nodes := make(map[int]*polyNode)

	first := &polyNode{Poly: startPoly, Pos: start, F: start.Distance(end), Via: -1}
	heap.Push(openSet, first)
	nodes[startPoly] = first

	for openSet.Len() > 0 {
		current := heap.Pop(openSet).(*polyNode)
		if current.Poly == endPoly {
			return m.portalsTo(current), true
		}
		closed[current.Poly] = true

		for k, p := range m.Portals[current.Poly] {
			if closed[p.To] {
				continue
			}
			pos := p.Left.Lerp(p.Right, 0.5)
			g := current.G + current.Pos.Distance(pos)
			h := pos.Distance(end)

			next, exists := nodes[p.To]
			if !exists {
				next = &polyNode{Poly: p.To, Pos: pos, G: g, F: g + h, Parent: current, Via: k}
				nodes[p.To] = next
				heap.Push(openSet, next)
			} else if g < next.G {
				next.Pos = pos
				next.G = g
				next.F = g + h
				next.Parent = current
				next.Via = k
				heap.Fix(openSet, next.Index)
			}
		}
	}
	return nil, false
}

func (m *Mesh) portalsTo(node *polyNode) []Portal {
	var portals []Portal
	for node.Parent != nil {
		portals = append(portals, m.Portals[node.Parent.Poly][node.Via])
		node = node.Parent
	}
	// Reverse path (it's built from goal to start)
	for i, j := 0, len(portals)-1; i < j; i, j = i+1, j-1 {
		portals[i], portals[j] = portals[j], portals[i]
	}
	return portals
}

// funnel string-pulls a path through the portals and returns it including start and
// end.
func funnel(start, end math.Vec2, portals []Portal) []math.Vec2 {
	type gate struct{ left, right math.Vec2 }
	gates := make([]gate, 0, len(portals)+2)
	gates = append(gates, gate{start, start})
	for _, p := range portals {
		gates = append(gates, gate{p.Left, p.Right})
	}
	gates = append(gates, gate{end, end})

	pts := []math.Vec2{start}
	apex, left, right := start, start, start
	apexIndex, leftIndex, rightIndex := 0, 0, 0

	for i := 1; i < len(gates); i++ {
		l, r := gates[i].left, gates[i].right

		if orient(apex, right, r) >= 0 {
			if apex == right || orient(apex, left, r) < 0 {
				right, rightIndex = r, i
			} else {
				pts = append(pts, left)
				apex, apexIndex = left, leftIndex
				left, right = apex, apex
				leftIndex, rightIndex = apexIndex, apexIndex
				i = apexIndex
				continue
			}
		}

		if orient(apex, left, l) <= 0 {
			if apex == left || orient(apex, right, l) > 0 {
				left, leftIndex = l, i
			} else {
				pts = append(pts, right)
				apex, apexIndex = right, rightIndex
				left, right = apex, apex
				leftIndex, rightIndex = apexIndex, apexIndex
				i = apexIndex
				continue
			}
		}
	}

	if pts[len(pts)-1] != end {
		pts = append(pts, end)
	}
	return pts
}
