package navigation

import (
	"github.com/Faultbox/cellblock/internal/planmap"
	"github.com/Faultbox/cellblock/pkg/math"
)

// RoomPath is a polyline inside one room.
type RoomPath struct {
	Length float32
	Points []math.Vec2
}

// Reversed returns the path walked backwards.
func (p RoomPath) Reversed() RoomPath {
	pts := make([]math.Vec2, len(p.Points))
	for i, q := range p.Points {
		pts[len(pts)-1-i] = q
	}
	return RoomPath{Length: p.Length, Points: pts}
}

// MapPathEntry is one leg of a MapPath: cross Door into Room and follow Path.
type MapPathEntry struct {
	Room planmap.RoomID
	Door planmap.DoorID
	Path RoomPath
	// Length is the length walked up to the end of this entry.
	Length float32
}

// MapPath is a route across rooms. The walker starts in FromRoom, follows FromPath
// to Entries[0].Door, enters Entries[0].Room, follows Entries[0].Path, and so on.
type MapPath struct {
	FromRoom planmap.RoomID
	FromPath RoomPath
	Entries  []MapPathEntry
}

// Length returns the total length.
func (p MapPath) Length() float32 {
	if n := len(p.Entries); n > 0 {
		return p.Entries[n-1].Length
	}
	return p.FromPath.Length
}

// Doors returns the doors crossed in order.
func (p MapPath) Doors() []planmap.DoorID {
	ds := make([]planmap.DoorID, len(p.Entries))
	for i, e := range p.Entries {
		ds[i] = e.Door
	}
	return ds
}

// Points returns the whole route as one polyline.
func (p MapPath) Points() []math.Vec2 {
	pts := append([]math.Vec2(nil), p.FromPath.Points...)
	for _, e := range p.Entries {
		for _, q := range e.Path.Points {
			if n := len(pts); n > 0 && pts[n-1] == q {
				continue
			}
			pts = append(pts, q)
		}
	}
	return pts
}

// Reversed returns the route walked backwards.
func (p MapPath) Reversed() MapPath {
	rooms := []planmap.RoomID{p.FromRoom}
	paths := []RoomPath{p.FromPath}
	for _, e := range p.Entries {
		rooms = append(rooms, e.Room)
		paths = append(paths, e.Path)
	}

	n := len(rooms)
	out := MapPath{FromRoom: rooms[n-1], FromPath: paths[n-1].Reversed()}
	total := out.FromPath.Length
	for i := n - 2; i >= 0; i-- {
		path := paths[i].Reversed()
		total += path.Length
		out.Entries = append(out.Entries, MapPathEntry{
			Room:   rooms[i],
			Door:   p.Entries[i].Door,
			Path:   path,
			Length: total,
		})
	}
	return out
}

// suffix returns the route starting at entry i, which becomes the first leg.
func (p MapPath) suffix(i int) MapPath {
	e := p.Entries[i]
	out := MapPath{FromRoom: e.Room, FromPath: e.Path}
	base := e.Length - e.Path.Length
	for _, rest := range p.Entries[i+1:] {
		rest.Length -= base
		out.Entries = append(out.Entries, rest)
	}
	return out
}

func (p *MapPath) push(room planmap.RoomID, door planmap.DoorID, path RoomPath) {
	p.Entries = append(p.Entries, MapPathEntry{
		Room:   room,
		Door:   door,
		Path:   path,
		Length: p.Length() + path.Length,
	})
}
