// Package sim drives a map, its navigation data and the pawns walking it in ticks.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/zyedidia/generic/mapset"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/cellblock/internal/config"
	"github.com/Faultbox/cellblock/internal/logger"
	"github.com/Faultbox/cellblock/internal/navigation"
	"github.com/Faultbox/cellblock/internal/planmap"
	"github.com/Faultbox/cellblock/pkg/math"
)

var (
	// ErrUnknownPawn is returned for pawn ids not in the world.
	ErrUnknownPawn = errors.New("unknown pawn")
	// ErrOutOfBounds is returned for positions outside the map.
	ErrOutOfBounds = errors.New("position out of bounds")
)

// Options tunes a World.
type Options struct {
	Workers       int
	MaxExpansions int
	PawnSpeed     float32 // Meters per second
}

// OptionsFrom reads world options from the configuration.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		Workers:       cfg.Navigation.WorkerCount(),
		MaxExpansions: cfg.Navigation.MaxExpansions,
		PawnSpeed:     cfg.Simulation.PawnSpeed,
	}
}

// TickStats summarises one tick.
type TickStats struct {
	Tick    uint64
	Edits   int
	Failed  int
	Events  int
	Queries int
	Cached  int
}

// World owns a map, its navigator and the pawns.
type World struct {
	Map *planmap.Map
	Nav *navigation.Navigator

	opts        Options
	pawns       map[PawnID]*Pawn
	nextPawn    PawnID
	subscribers []func(planmap.Event)
	tick        uint64
	log         *zap.Logger
}

// NewWorld wraps m. Pending map events are discarded; the navigator is built from
// the current state.
func NewWorld(ctx context.Context, m *planmap.Map, opts Options) (*World, error) {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	m.TakeEvents()
	nav, err := navigation.New(ctx, m, navigation.Options{
		Workers:       opts.Workers,
		MaxExpansions: opts.MaxExpansions,
	})
	if err != nil {
		return nil, fmt.Errorf("building navigation: %w", err)
	}
	return &World{
		Map:   m,
		Nav:   nav,
		opts:  opts,
		pawns: make(map[PawnID]*Pawn),
		log:   logger.Named("sim"),
	}, nil
}

// Subscribe registers fn to receive every map event, in order, once per tick.
func (w *World) Subscribe(fn func(planmap.Event)) {
	w.subscribers = append(w.subscribers, fn)
}

// Ticks returns the number of completed ticks.
func (w *World) Ticks() uint64 {
	return w.tick
}

func (w *World) inBounds(p math.Vec2) bool {
	lo, hi := w.Map.Bounds()
	return p.X >= lo.X && p.Y >= lo.Y && p.X <= hi.X && p.Y <= hi.Y
}

// AddPawn places a pawn at pos.
func (w *World) AddPawn(pos math.Vec2) (PawnID, error) {
	if !w.inBounds(pos) {
		return 0, fmt.Errorf("%w: %v", ErrOutOfBounds, pos)
	}
	room, hint, err := w.Map.ContainingRoom(pos, planmap.NoHint)
	if err != nil {
		return 0, err
	}
	w.nextPawn++
	p := &Pawn{ID: w.nextPawn, Position: pos, Room: room, hint: hint}
	w.pawns[p.ID] = p
	return p.ID, nil
}

// RestorePawn inserts a pawn with a given state, e.g. from a save.
func (w *World) RestorePawn(p Pawn) error {
	if !w.inBounds(p.Position) {
		return fmt.Errorf("%w: %v", ErrOutOfBounds, p.Position)
	}
	room, hint, err := w.Map.ContainingRoom(p.Position, planmap.NoHint)
	if err != nil {
		return err
	}
	p.Room, p.hint = room, hint
	p.clearRoute()
	if p.ID == 0 {
		w.nextPawn++
		p.ID = w.nextPawn
	} else if p.ID > w.nextPawn {
		w.nextPawn = p.ID
	}
	w.pawns[p.ID] = &p
	return nil
}

// RemovePawn removes a pawn.
func (w *World) RemovePawn(id PawnID) error {
	if _, ok := w.pawns[id]; !ok {
		return fmt.Errorf("%w %v", ErrUnknownPawn, id)
	}
	delete(w.pawns, id)
	return nil
}

// SetGoal sends a pawn towards pos. The route is planned on the next tick.
func (w *World) SetGoal(id PawnID, pos math.Vec2) error {
	p, ok := w.pawns[id]
	if !ok {
		return fmt.Errorf("%w %v", ErrUnknownPawn, id)
	}
	if !w.inBounds(pos) {
		return fmt.Errorf("%w: %v", ErrOutOfBounds, pos)
	}
	p.Goal, p.HasGoal = pos, true
	p.clearRoute()
	return nil
}

// Pawn returns a copy of a pawn.
func (w *World) Pawn(id PawnID) (Pawn, bool) {
	p, ok := w.pawns[id]
	if !ok {
		return Pawn{}, false
	}
	return *p, true
}

// Pawns returns copies of all pawns ordered by id.
func (w *World) Pawns() []Pawn {
	out := make([]Pawn, 0, len(w.pawns))
	for _, p := range w.pawns {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) sortedPawns() []*Pawn {
	out := make([]*Pawn, 0, len(w.pawns))
	for _, p := range w.pawns {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Tick runs one step: edits are applied in order, derived navigation data is
// rebuilt, subscribers see the events, pawns plan in parallel and then move by dt
// seconds. A failing edit leaves the map untouched and the tick continues; the
// failures are returned together.
func (w *World) Tick(ctx context.Context, dt float32, edits []Edit) (TickStats, error) {
	stats := TickStats{Tick: w.tick + 1, Edits: len(edits)}
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	// Edit step
	var editErr error
	for _, e := range edits {
		if err := e.Apply(w.Map); err != nil {
			stats.Failed++
			editErr = multierr.Append(editErr, fmt.Errorf("%v: %w", e, err))
		}
	}
	events := w.Map.TakeEvents()
	stats.Events = len(events)

	// Derived step
	if err := ctx.Err(); err != nil {
		return stats, multierr.Append(editErr, err)
	}
	if err := w.Nav.Update(ctx, events); err != nil {
		return stats, multierr.Append(editErr, fmt.Errorf("updating navigation: %w", err))
	}
	for _, e := range events {
		for _, fn := range w.subscribers {
			fn(e)
		}
	}
	if len(events) > 0 {
		w.replan(events)
	}

	// Query step
	if err := ctx.Err(); err != nil {
		return stats, multierr.Append(editErr, err)
	}
	queries, err := w.plan(ctx)
	if err != nil {
		return stats, multierr.Append(editErr, err)
	}
	stats.Queries = queries
	stats.Cached = w.Nav.CachedPaths()

	// Move step
	for _, p := range w.sortedPawns() {
		if !p.Moving() {
			p.LinearVelocity, p.AngularVelocity = math.Vec2{}, 0
			continue
		}
		p.step(w.opts.PawnSpeed, dt)
		w.relocate(p)
	}

	w.tick++
	w.log.Debug("tick",
		zap.Uint64("tick", w.tick),
		zap.Int("edits", stats.Edits),
		zap.Int("failed", stats.Failed),
		zap.Int("events", stats.Events),
		zap.Int("queries", stats.Queries))
	return stats, editErr
}

// replan relocates pawns whose room was replaced and drops every route so it is
// planned against the edited map.
func (w *World) replan(events []planmap.Event) {
	replaced := mapset.New[planmap.RoomID]()
	for _, e := range events {
		if e.Kind == planmap.EventRoomReplaced {
			e.Old.Each(replaced.Put)
		}
	}
	for _, p := range w.sortedPawns() {
		if replaced.Has(p.Room) {
			w.relocate(p)
		}
		if p.HasGoal {
			p.clearRoute()
		}
	}
}

func (w *World) relocate(p *Pawn) {
	room, hint, err := w.Map.ContainingRoom(p.Position, p.hint)
	if err != nil {
		w.log.Warn("pawn off map", zap.Stringer("pawn", p.ID), zap.Error(err))
		return
	}
	p.Room, p.hint = room, hint
}

type query struct {
	pawn     *Pawn
	goalRoom planmap.RoomID
	route    navigation.MapPath
	ok       bool
}

// plan finds routes for pawns without one. Goal rooms are located serially; the
// path queries then run on the worker pool, each worker writing to its own cache
// buffer, and the buffers are drained once all workers are done.
func (w *World) plan(ctx context.Context) (int, error) {
	var jobs []*query
	for _, p := range w.sortedPawns() {
		if !p.needsRoute() {
			continue
		}
		room, _, err := w.Map.ContainingRoom(p.Goal, p.hint)
		if err != nil {
			return 0, fmt.Errorf("locating goal of %v: %w", p.ID, err)
		}
		jobs = append(jobs, &query{pawn: p, goalRoom: room})
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	workers := w.opts.Workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	bufs := make([]*navigation.UpdateBuffer, workers)
	g, ctx := errgroup.WithContext(ctx)
	for k := 0; k < workers; k++ {
		k := k
		bufs[k] = &navigation.UpdateBuffer{}
		g.Go(func() error {
			for i := k; i < len(jobs); i += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				q := jobs[i]
				q.route, q.ok = w.Nav.PathBuffered(bufs[k], q.pawn.Position, q.pawn.Room, q.pawn.Goal, q.goalRoom)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	w.Nav.Drain(bufs...)

	for _, q := range jobs {
		if !q.ok {
			q.pawn.clearRoute()
			q.pawn.unreachable = true
			w.log.Debug("no route", zap.Stringer("pawn", q.pawn.ID), zap.Stringer("goal_room", q.goalRoom))
			continue
		}
		q.pawn.setRoute(q.route)
	}
	return len(jobs), nil
}
