package navigation

import (
	"container/heap"

	"github.com/Faultbox/cellblock/internal/planmap"
	"github.com/Faultbox/cellblock/pkg/math"
)

// DoorNode is a node of the door graph search.
type DoorNode struct {
	Door   planmap.DoorID
	G      float32 // Length from the start door
	H      float32 // Straight line to the goal door
	F      float32 // G + H
	Via    planmap.RoomID
	Parent *DoorNode
	Index  int // Index in heap
}

// DoorHeap is the open set of the door search. Ties on F prefer the node walked
// further, then the smaller door id.
type DoorHeap []*DoorNode

func (h DoorHeap) Len() int { return len(h) }
func (h DoorHeap) Less(i, j int) bool {
	if h[i].F != h[j].F {
		return h[i].F < h[j].F
	}
	if h[i].G != h[j].G {
		return h[i].G < h[j].G
	}
	return h[i].Door < h[j].Door
}
func (h DoorHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].Index = i
	h[j].Index = j
}

func (h *DoorHeap) Push(x interface{}) {
	n := len(*h)
	node := x.(*DoorNode)
	node.Index = n
	*h = append(*h, node)
}

func (h *DoorHeap) Pop() interface{} {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.Index = -1
	*h = old[0 : n-1]
	return node
}

// searchDoors runs A* over the door graph from start to goal. Neighbouring doors
// share a room and cost the cached room path between them.
func (n *Navigator) searchDoors(start, goal planmap.DoorID) (MapPath, bool) {
	if start == goal {
		pos := n.doors[start].Pos
		return MapPath{FromPath: RoomPath{Points: []math.Vec2{pos}}}, true
	}
	goalPos := n.doors[goal].Pos

	openSet := &DoorHeap{}
	heap.Init(openSet)
	closedSet := make(map[planmap.DoorID]bool)
	nodeMap := make(map[planmap.DoorID]*DoorNode)

	startNode := &DoorNode{Door: start, H: n.doors[start].Pos.Distance(goalPos)}
	startNode.F = startNode.H
	heap.Push(openSet, startNode)
	nodeMap[start] = startNode

	expansions := 0
	for openSet.Len() > 0 {
		if n.opts.MaxExpansions > 0 && expansions >= n.opts.MaxExpansions {
			return MapPath{}, false
		}
		expansions++

		current := heap.Pop(openSet).(*DoorNode)
		if current.Door == goal {
			return n.reconstructRoute(current), true
		}
		closedSet[current.Door] = true

		for _, room := range n.doors[current.Door].Rooms {
			rs := n.rooms[room]
			if rs == nil {
				continue
			}
			for _, link := range rs.Links {
				if link.Door == current.Door || closedSet[link.Door] {
					continue
				}
				p, ok := rs.paths[doorPair{current.Door, link.Door}]
				if !ok {
					continue
				}
				g := current.G + p.Length

				neighbor, exists := nodeMap[link.Door]
				if !exists {
					neighbor = &DoorNode{
						Door:   link.Door,
						G:      g,
						H:      link.Pos.Distance(goalPos),
						Via:    room,
						Parent: current,
					}
					neighbor.F = neighbor.G + neighbor.H
					nodeMap[link.Door] = neighbor
					heap.Push(openSet, neighbor)
				} else if g < neighbor.G {
					neighbor.G = g
					neighbor.F = neighbor.G + neighbor.H
					neighbor.Via = room
					neighbor.Parent = current
					heap.Fix(openSet, neighbor.Index)
				}
			}
		}
	}
	return MapPath{}, false
}

// reconstructRoute turns the parent chain ending at node into a door route.
func (n *Navigator) reconstructRoute(node *DoorNode) MapPath {
	var chain []*DoorNode
	for cur := node; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	// Reverse
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	leg := func(k int) RoomPath {
		from, to := chain[k-1], chain[k]
		return n.rooms[to.Via].paths[doorPair{from.Door, to.Door}]
	}
	route := MapPath{FromRoom: chain[1].Via, FromPath: leg(1)}
	for k := 2; k < len(chain); k++ {
		route.push(chain[k].Via, chain[k-1].Door, leg(k))
	}
	return route
}
