package sim

import (
	"fmt"

	"github.com/Faultbox/cellblock/internal/navigation"
	"github.com/Faultbox/cellblock/internal/planmap"
	"github.com/Faultbox/cellblock/pkg/math"
)

// PawnID identifies a pawn within a world.
type PawnID uint64

func (id PawnID) String() string { return fmt.Sprintf("p%d", uint64(id)) }

// arrivalThreshold is the distance at which a waypoint counts as reached.
const arrivalThreshold = 1e-3

// Pawn is an agent walking the map.
type Pawn struct {
	ID PawnID

	// Kinematic state
	Position        math.Vec2
	Rotation        float32 // Heading in radians
	LinearVelocity  math.Vec2
	AngularVelocity float32

	// Room is the room holding Position.
	Room planmap.RoomID
	hint planmap.Hint

	// Goal state
	Goal    math.Vec2
	HasGoal bool
	// Route is the planned route to Goal; nil until planned.
	Route       *navigation.MapPath
	waypoints   []math.Vec2
	next        int
	unreachable bool
}

// Moving reports whether the pawn is following a route.
func (p *Pawn) Moving() bool {
	return p.HasGoal && p.next < len(p.waypoints)
}

// Unreachable reports whether the last plan found no route to the goal.
func (p *Pawn) Unreachable() bool {
	return p.unreachable
}

func (p *Pawn) needsRoute() bool {
	return p.HasGoal && p.Route == nil && !p.unreachable
}

func (p *Pawn) setRoute(route navigation.MapPath) {
	p.Route = &route
	p.waypoints = route.Points()
	p.next = 0
	p.unreachable = false
}

func (p *Pawn) clearRoute() {
	p.Route = nil
	p.waypoints = nil
	p.next = 0
	p.unreachable = false
}

// step advances the pawn along its waypoints by speed*dt. dt is in seconds.
func (p *Pawn) step(speed, dt float32) {
	start, heading := p.Position, p.Rotation
	budget := speed * dt

	for budget > 0 && p.next < len(p.waypoints) {
		target := p.waypoints[p.next]
		d := target.Sub(p.Position)
		dist := d.Length()
		if dist < arrivalThreshold {
			p.Position = target
			p.next++
			continue
		}
		p.Rotation = d.Angle()
		if budget >= dist {
			p.Position = target
			budget -= dist
			p.next++
			continue
		}
		p.Position = p.Position.Add(d.Scale(budget / dist))
		budget = 0
	}

	if p.HasGoal && p.Route != nil && p.next >= len(p.waypoints) {
		// Arrived
		p.HasGoal = false
		p.clearRoute()
	}

	if dt > 0 {
		p.LinearVelocity = p.Position.Sub(start).Scale(1 / dt)
		p.AngularVelocity = math.NormalizeAngle(p.Rotation-heading) / dt
	} else {
		p.LinearVelocity = math.Vec2{}
		p.AngularVelocity = 0
	}
}
