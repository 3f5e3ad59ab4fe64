// Package navigation keeps the walkable meshes of a map's rooms and finds paths
// across rooms through doors.
//
// Every room gets a navigation mesh built from its outline pulled in by the agent
// clearance. Door to door paths inside a room are cached eagerly whenever the room or
// its doors change; routes across rooms are found by A* over the door graph and cached
// lazily until the next map change.
package navigation

import (
	"context"
	"errors"
	"sort"

	"github.com/zyedidia/generic/mapset"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/cellblock/internal/logger"
	"github.com/Faultbox/cellblock/internal/planmap"
	"github.com/Faultbox/cellblock/pkg/cdt"
	"github.com/Faultbox/cellblock/pkg/math"
	"github.com/Faultbox/cellblock/pkg/navmesh"
)

// Options tunes a Navigator.
type Options struct {
	// Workers bounds the goroutines used to rebuild rooms. Zero means one.
	Workers int
	// MaxExpansions bounds the door search. Zero means unbounded.
	MaxExpansions int
}

// RoomLink is a door of a room and the room behind it.
type RoomLink struct {
	Door  planmap.DoorID
	Pos   math.Vec2
	Other planmap.RoomID
}

// DoorLink is a door and the rooms on both sides.
type DoorLink struct {
	Door  planmap.DoorID
	Pos   math.Vec2
	Rooms [2]planmap.RoomID
}

type doorPair [2]planmap.DoorID

type roomState struct {
	id planmap.RoomID
	// Mesh is nil when the room has no walkable area.
	Mesh  *navmesh.Mesh
	Links []RoomLink
	paths map[doorPair]RoomPath
}

func (rs *roomState) path(from, to math.Vec2) (RoomPath, bool) {
	if rs.Mesh == nil {
		return RoomPath{}, false
	}
	pts, l, ok := rs.Mesh.Path(from, to)
	if !ok {
		return RoomPath{}, false
	}
	return RoomPath{Length: l, Points: pts}, true
}

// Navigator derives navigation data from a map. Update must be called with the
// events of every edit, in order. Queries may run concurrently with each other but
// not with Update or Drain.
type Navigator struct {
	m    *planmap.Map
	opts Options

	geometry map[planmap.CornerID]planmap.CornerGeometry
	rooms    map[planmap.RoomID]*roomState
	doors    map[planmap.DoorID]DoorLink
	cache    map[planmap.DoorID]map[planmap.DoorID]MapPath

	epoch uint64
	log   *zap.Logger
}

// New builds navigation data for every room of m.
func New(ctx context.Context, m *planmap.Map, opts Options) (*Navigator, error) {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	n := &Navigator{
		m:        m,
		opts:     opts,
		geometry: make(map[planmap.CornerID]planmap.CornerGeometry),
		rooms:    make(map[planmap.RoomID]*roomState),
		doors:    make(map[planmap.DoorID]DoorLink),
		cache:    make(map[planmap.DoorID]map[planmap.DoorID]MapPath),
		log:      logger.Named("navigation"),
	}
	for _, c := range m.Corners() {
		n.refreshCorner(c.ID)
	}
	if err := n.rebuild(ctx); err != nil {
		return nil, err
	}
	return n, nil
}

// Update applies the events of one or more edits.
func (n *Navigator) Update(ctx context.Context, events []planmap.Event) error {
	if len(events) == 0 {
		return nil
	}
	dirty := mapset.New[planmap.CornerID]()
	for _, e := range events {
		switch e.Kind {
		case planmap.EventCornerInserted, planmap.EventCornerRemoved:
			dirty.Put(e.Corner)
		case planmap.EventWallInserted, planmap.EventWallRemoved:
			dirty.Put(e.Corners[0])
			dirty.Put(e.Corners[1])
		case planmap.EventRoomReplaced:
			e.Old.Each(func(r planmap.RoomID) {
				delete(n.rooms, r)
			})
		}
	}
	dirty.Each(n.refreshCorner)

	n.cache = make(map[planmap.DoorID]map[planmap.DoorID]MapPath)
	return n.rebuild(ctx)
}

func (n *Navigator) refreshCorner(c planmap.CornerID) {
	g, err := n.m.CornerGeometry(c)
	if err != nil {
		delete(n.geometry, c)
		return
	}
	n.geometry[c] = g
}

func (n *Navigator) geometryOf(v cdt.VertexID, c planmap.CornerID) planmap.CornerGeometry {
	if g, ok := n.geometry[c]; ok && c != 0 {
		return g
	}
	return n.m.VertexGeometry(v)
}

// rebuild refreshes the door links, builds meshes for new rooms and recomputes the
// path caches of rooms whose doors changed.
func (n *Navigator) rebuild(ctx context.Context) error {
	n.doors = make(map[planmap.DoorID]DoorLink)
	links := make(map[planmap.RoomID][]RoomLink)
	for _, w := range n.m.Doors() {
		pos := w.Segment().Midpoint()
		n.doors[w.ID] = DoorLink{Door: w.ID, Pos: pos, Rooms: w.Rooms}
		links[w.Rooms[0]] = append(links[w.Rooms[0]], RoomLink{Door: w.ID, Pos: pos, Other: w.Rooms[1]})
		if w.Rooms[1] != w.Rooms[0] {
			links[w.Rooms[1]] = append(links[w.Rooms[1]], RoomLink{Door: w.ID, Pos: pos, Other: w.Rooms[0]})
		}
	}

	live := mapset.New[planmap.RoomID]()
	var fresh, relinked []*roomState
	for _, r := range n.m.RoomsDeduped() {
		live.Put(r.ID)
		rs, ok := n.rooms[r.ID]
		if !ok {
			rs = &roomState{id: r.ID}
			n.rooms[r.ID] = rs
			fresh = append(fresh, rs)
		}
		if !ok || !sameLinks(rs.Links, links[r.ID]) {
			rs.Links = links[r.ID]
			relinked = append(relinked, rs)
		}
	}

	for id := range n.rooms {
		if !live.Has(id) {
			delete(n.rooms, id)
		}
	}

	if err := n.buildMeshes(ctx, fresh); err != nil {
		return err
	}
	if err := n.buildRoomPaths(ctx, relinked); err != nil {
		return err
	}

	n.epoch = n.m.Epoch()
	n.log.Debug("navigation rebuilt",
		zap.Uint64("epoch", n.epoch),
		zap.Int("rooms", len(fresh)),
		zap.Int("relinked", len(relinked)),
		zap.Int("doors", len(n.doors)))
	return nil
}

func sameLinks(a, b []RoomLink) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (n *Navigator) buildMeshes(ctx context.Context, rooms []*roomState) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(n.opts.Workers)
	for _, rs := range rooms {
		rs := rs
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			outer, holes, err := n.m.RoomOutline(rs.id, n.geometryOf)
			if err != nil {
				return err
			}
			mesh, err := navmesh.Build(outer, holes)
			if errors.Is(err, navmesh.ErrDegenerate) {
				n.log.Debug("room has no walkable area", zap.Stringer("room", rs.id))
				return nil
			}
			if err != nil {
				return err
			}
			if mesh.SkippedHoles > 0 {
				n.log.Debug("room mesh skipped holes",
					zap.Stringer("room", rs.id),
					zap.Int("holes", mesh.SkippedHoles))
			}
			rs.Mesh = mesh
			return nil
		})
	}
	return g.Wait()
}

type pairJob struct {
	rs   *roomState
	a, b RoomLink
	path RoomPath
	ok   bool
}

// buildRoomPaths computes every door pair of the given rooms, one slot per pair.
func (n *Navigator) buildRoomPaths(ctx context.Context, rooms []*roomState) error {
	var jobs []*pairJob
	for _, rs := range rooms {
		rs.paths = make(map[doorPair]RoomPath)
		for i := range rs.Links {
			for j := i + 1; j < len(rs.Links); j++ {
				jobs = append(jobs, &pairJob{rs: rs, a: rs.Links[i], b: rs.Links[j]})
			}
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(n.opts.Workers)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			job.path, job.ok = job.rs.path(job.a.Pos, job.b.Pos)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, job := range jobs {
		if !job.ok {
			continue
		}
		job.rs.paths[doorPair{job.a.Door, job.b.Door}] = job.path
		job.rs.paths[doorPair{job.b.Door, job.a.Door}] = job.path.Reversed()
	}
	return nil
}

// Epoch returns the map epoch the navigation data reflects.
func (n *Navigator) Epoch() uint64 {
	return n.epoch
}

// Mesh returns the navigation mesh of r, or nil.
func (n *Navigator) Mesh(r planmap.RoomID) *navmesh.Mesh {
	if rs := n.rooms[r]; rs != nil {
		return rs.Mesh
	}
	return nil
}

// RoomLinks returns the doors of r ordered by door id.
func (n *Navigator) RoomLinks(r planmap.RoomID) []RoomLink {
	if rs := n.rooms[r]; rs != nil {
		return rs.Links
	}
	return nil
}

// DoorLinks returns the rooms joined by door d.
func (n *Navigator) DoorLinks(d planmap.DoorID) (DoorLink, bool) {
	l, ok := n.doors[d]
	return l, ok
}

// RoomPath returns the cached path between two doors of r.
func (n *Navigator) RoomPath(r planmap.RoomID, from, to planmap.DoorID) (RoomPath, bool) {
	rs := n.rooms[r]
	if rs == nil {
		return RoomPath{}, false
	}
	p, ok := rs.paths[doorPair{from, to}]
	return p, ok
}

// DoorPath returns the route between two doors, from the cache or by search. The
// result is written to the cache directly; concurrent callers use DoorPathBuffered.
func (n *Navigator) DoorPath(from, to planmap.DoorID) (MapPath, bool) {
	var buf UpdateBuffer
	p, ok := n.DoorPathBuffered(&buf, from, to)
	n.Drain(&buf)
	return p, ok
}

// DoorPathBuffered is DoorPath deferring cache writes to buf.
func (n *Navigator) DoorPathBuffered(buf *UpdateBuffer, from, to planmap.DoorID) (MapPath, bool) {
	if p, ok := n.cache[from][to]; ok {
		return p, true
	}
	if _, ok := n.doors[from]; !ok {
		return MapPath{}, false
	}
	if _, ok := n.doors[to]; !ok {
		return MapPath{}, false
	}
	p, ok := n.searchDoors(from, to)
	if !ok {
		return MapPath{}, false
	}
	buf.offer(from, to, p)
	buf.offer(to, from, p.Reversed())
	for i, e := range p.Entries {
		buf.offer(e.Door, to, p.suffix(i))
	}
	return p, true
}

// Path returns a route from a point in one room to a point in another. See
// PathBuffered.
func (n *Navigator) Path(from math.Vec2, fromRoom planmap.RoomID, to math.Vec2, toRoom planmap.RoomID) (MapPath, bool) {
	var buf UpdateBuffer
	p, ok := n.PathBuffered(&buf, from, fromRoom, to, toRoom)
	n.Drain(&buf)
	return p, ok
}

// PathBuffered returns a route from a point in fromRoom to a point in toRoom. Within
// one room it is a mesh path. Otherwise it goes through the door pair minimising the
// straight distances to the doors plus the door route between them; ties prefer
// smaller door ids.
func (n *Navigator) PathBuffered(buf *UpdateBuffer, from math.Vec2, fromRoom planmap.RoomID, to math.Vec2, toRoom planmap.RoomID) (MapPath, bool) {
	src, dst := n.rooms[fromRoom], n.rooms[toRoom]
	if src == nil || dst == nil {
		return MapPath{}, false
	}
	if fromRoom == toRoom {
		p, ok := src.path(from, to)
		return MapPath{FromRoom: fromRoom, FromPath: p}, ok
	}

	var (
		best     MapPath
		bestA    RoomLink
		bestB    RoomLink
		bestCost float32
		found    bool
	)
	for _, a := range src.Links {
		for _, b := range dst.Links {
			route, ok := n.DoorPathBuffered(buf, a.Door, b.Door)
			if !ok || !routeFits(route, a, b, toRoom) {
				continue
			}
			cost := from.Distance(a.Pos) + route.Length() + b.Pos.Distance(to)
			if !found || cost < bestCost {
				best, bestA, bestB, bestCost, found = route, a, b, cost, true
			}
		}
	}
	if !found {
		return MapPath{}, false
	}

	lead, ok := src.path(from, bestA.Pos)
	if !ok {
		return MapPath{}, false
	}
	tail, ok := dst.path(bestB.Pos, to)
	if !ok {
		return MapPath{}, false
	}

	full := MapPath{FromRoom: fromRoom, FromPath: lead}
	if bestA.Door != bestB.Door {
		full.push(best.FromRoom, bestA.Door, best.FromPath)
		for _, e := range best.Entries {
			full.push(e.Room, e.Door, e.Path)
		}
	}
	full.push(toRoom, bestB.Door, tail)
	return full, true
}

// routeFits reports whether route leaves through a into the room behind it and
// reaches b from the room behind b. A single door must join both rooms directly.
func routeFits(route MapPath, a, b RoomLink, toRoom planmap.RoomID) bool {
	if a.Door == b.Door {
		return a.Other == toRoom
	}
	last := route.FromRoom
	if k := len(route.Entries); k > 0 {
		last = route.Entries[k-1].Room
	}
	return route.FromRoom == a.Other && last == b.Other
}

// Drain folds the buffers into the cache, dropping duplicates, and empties them.
// It returns the number of new cache entries.
func (n *Navigator) Drain(bufs ...*UpdateBuffer) int {
	added := 0
	for _, buf := range bufs {
		if buf == nil {
			continue
		}
		for _, e := range buf.entries {
			row := n.cache[e.from]
			if row == nil {
				row = make(map[planmap.DoorID]MapPath)
				n.cache[e.from] = row
			}
			if _, ok := row[e.to]; ok {
				continue
			}
			row[e.to] = e.path
			added++
		}
		buf.entries = buf.entries[:0]
	}
	if added > 0 {
		n.log.Debug("door paths cached", zap.Int("added", added), zap.Int("total", n.CachedPaths()))
	}
	return added
}

// CachedPaths returns the number of cached door routes.
func (n *Navigator) CachedPaths() int {
	total := 0
	for _, row := range n.cache {
		total += len(row)
	}
	return total
}

// Doors returns the door links ordered by door id.
func (n *Navigator) Doors() []DoorLink {
	out := make([]DoorLink, 0, len(n.doors))
	for _, d := range n.doors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Door < out[j].Door })
	return out
}
