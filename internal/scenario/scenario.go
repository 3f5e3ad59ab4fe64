// Package scenario reads YAML edit scripts and plays them against a world.
//
// A script lists steps; each step is one edit naming its targets by position:
//
//	map:
//	  min: [-10, -10]
//	  max: [10, 10]
//	steps:
//	  - wall: {from: [-4, -2], to: [4, -2]}
//	  - wall: {from: [0, 2], to: [0, -2], door: true}
//	  - door: {at: [0, 0], open: false}
//	  - remove: {at: [2, -2]}
//	  - move: {from: [4, 2], to: [5, 3]}
//	  - corner: [1, 1]
//	pawns:
//	  - at: [-2, 0]
//	    goal: [2, 0]
//	ticks: 20
package scenario

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/cellblock/internal/logger"
	"github.com/Faultbox/cellblock/internal/planmap"
	"github.com/Faultbox/cellblock/internal/save"
	"github.com/Faultbox/cellblock/internal/sim"
	"github.com/Faultbox/cellblock/pkg/math"
)

var (
	// ErrInvalidStep is returned for steps that name no edit or more than one.
	ErrInvalidStep = errors.New("invalid step")
	// ErrNoTarget is returned when no corner or wall lies near a step's position.
	ErrNoTarget = errors.New("no target near position")
)

// DefaultPick is the search radius used to find a step's target.
const DefaultPick = 0.25

// Point is a position written as [x, y].
type Point = save.Point

// Script is a parsed edit script.
type Script struct {
	Name string `yaml:"name"`
	Map  *struct {
		Min Point `yaml:"min,flow"`
		Max Point `yaml:"max,flow"`
	} `yaml:"map"`
	Pick  float32     `yaml:"pick"`
	Steps []Step      `yaml:"steps"`
	Pawns []PawnSetup `yaml:"pawns"`
	Ticks int         `yaml:"ticks"`
	DT    float32     `yaml:"dt"`
}

// Step is one edit. Exactly one field is set.
type Step struct {
	Corner *Point    `yaml:"corner,flow"`
	Wall   *WallStep `yaml:"wall"`
	Door   *DoorStep `yaml:"door"`
	Remove *PickStep `yaml:"remove"`
	Move   *MoveStep `yaml:"move"`
}

// WallStep draws a wall.
type WallStep struct {
	From Point `yaml:"from,flow"`
	To   Point `yaml:"to,flow"`
	Door bool  `yaml:"door"`
}

// DoorStep opens or closes the door on the wall nearest At.
type DoorStep struct {
	At   Point `yaml:"at,flow"`
	Open *bool `yaml:"open"`
}

// PickStep names the wall nearest At.
type PickStep struct {
	At Point `yaml:"at,flow"`
}

// MoveStep moves the corner nearest From to To.
type MoveStep struct {
	From Point `yaml:"from,flow"`
	To   Point `yaml:"to,flow"`
}

// PawnSetup places a pawn and optionally sends it somewhere.
type PawnSetup struct {
	At   Point  `yaml:"at,flow"`
	Goal *Point `yaml:"goal,flow"`
}

// Parse decodes a script.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	for i, st := range s.Steps {
		if n := st.count(); n != 1 {
			return nil, fmt.Errorf("step %d: %w: %d edits", i+1, ErrInvalidStep, n)
		}
	}
	if s.Pick <= 0 {
		s.Pick = DefaultPick
	}
	if s.DT <= 0 {
		s.DT = 0.1
	}
	return &s, nil
}

// ReadFile reads and parses a script.
func ReadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s, nil
}

func (st Step) count() int {
	n := 0
	if st.Corner != nil {
		n++
	}
	if st.Wall != nil {
		n++
	}
	if st.Door != nil {
		n++
	}
	if st.Remove != nil {
		n++
	}
	if st.Move != nil {
		n++
	}
	return n
}

// NewMap creates the script's map, or one spanning [min, max] when the script
// does not set bounds.
func (s *Script) NewMap(min, max math.Vec2) *planmap.Map {
	if s.Map != nil {
		min, max = s.Map.Min.Vec2(), s.Map.Max.Vec2()
	}
	return planmap.New(min, max)
}

// Edit resolves a step against the current map.
func (s *Script) Edit(m *planmap.Map, st Step) (sim.Edit, error) {
	switch {
	case st.Corner != nil:
		return sim.InsertCorner{Def: planmap.AtPosition(st.Corner.Vec2())}, nil
	case st.Wall != nil:
		return sim.InsertWall{
			Start: planmap.AtPosition(st.Wall.From.Vec2()),
			End:   planmap.AtPosition(st.Wall.To.Vec2()),
			Door:  st.Wall.Door,
		}, nil
	case st.Door != nil:
		w, ok := m.WallAt(st.Door.At.Vec2(), s.Pick)
		if !ok {
			return nil, fmt.Errorf("%w: wall at %v", ErrNoTarget, st.Door.At)
		}
		open := st.Door.Open == nil || *st.Door.Open
		return sim.SetDoor{Wall: w, Door: open}, nil
	case st.Remove != nil:
		w, ok := m.WallAt(st.Remove.At.Vec2(), s.Pick)
		if !ok {
			return nil, fmt.Errorf("%w: wall at %v", ErrNoTarget, st.Remove.At)
		}
		return sim.RemoveWall{Wall: w}, nil
	case st.Move != nil:
		c, ok := m.CornerAt(st.Move.From.Vec2(), s.Pick)
		if !ok {
			return nil, fmt.Errorf("%w: corner at %v", ErrNoTarget, st.Move.From)
		}
		return sim.MoveCorner{Corner: c, Pos: st.Move.To.Vec2()}, nil
	}
	return nil, ErrInvalidStep
}

// Result summarises a run.
type Result struct {
	Steps  int
	Events int
	Pawns  []sim.PawnID
	Ticks  int
}

// Run plays the steps against w, one tick per step, then places the pawns and runs
// the script's ticks. It stops at the first failing step.
func (s *Script) Run(ctx context.Context, w *sim.World) (Result, error) {
	log := logger.Named("scenario")
	var res Result

	for i, st := range s.Steps {
		e, err := s.Edit(w.Map, st)
		if err != nil {
			return res, fmt.Errorf("step %d: %w", i+1, err)
		}
		stats, err := w.Tick(ctx, 0, []sim.Edit{e})
		if err != nil {
			return res, fmt.Errorf("step %d (%v): %w", i+1, e, err)
		}
		res.Steps++
		res.Events += stats.Events
		log.Debug("step applied", zap.Int("step", i+1), zap.Stringer("edit", e), zap.Int("events", stats.Events))
	}

	for i, p := range s.Pawns {
		id, err := w.AddPawn(p.At.Vec2())
		if err != nil {
			return res, fmt.Errorf("pawn %d: %w", i+1, err)
		}
		if p.Goal != nil {
			if err := w.SetGoal(id, p.Goal.Vec2()); err != nil {
				return res, fmt.Errorf("pawn %d: %w", i+1, err)
			}
		}
		res.Pawns = append(res.Pawns, id)
	}

	for i := 0; i < s.Ticks; i++ {
		if _, err := w.Tick(ctx, s.DT, nil); err != nil {
			return res, err
		}
		res.Ticks++
	}

	log.Info("script finished",
		zap.String("name", s.Name),
		zap.Int("steps", res.Steps),
		zap.Int("events", res.Events),
		zap.Int("ticks", res.Ticks))
	return res, nil
}
