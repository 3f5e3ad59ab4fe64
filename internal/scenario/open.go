package scenario

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/cellblock/internal/config"
	"github.com/Faultbox/cellblock/internal/logger"
	"github.com/Faultbox/cellblock/internal/planmap"
	"github.com/Faultbox/cellblock/internal/save"
	"github.com/Faultbox/cellblock/internal/sim"
	"github.com/Faultbox/cellblock/pkg/math"
)

// NewWorld creates a world over an empty map sized by cfg.
func NewWorld(ctx context.Context, cfg *config.Config) (*sim.World, error) {
	half := math.V2(cfg.Map.HalfWidth, cfg.Map.HalfHeight)
	m := planmap.New(half.Neg(), half)
	m.CheckInvariants = cfg.Map.CheckInvariants
	return sim.NewWorld(ctx, m, sim.OptionsFrom(cfg))
}

// Open builds a world from path, which is either a save or an edit script.
// A YAML file without a save version is read as a script and run.
func Open(ctx context.Context, path string, cfg *config.Config) (*sim.World, error) {
	log := logger.Named("scenario")
	format := save.FormatFor(path, save.Format(cfg.Save.Format))

	s, err := save.ReadFile(path, format)
	if err == nil && s.Version != 0 {
		w, err := save.Restore(ctx, s, sim.OptionsFrom(cfg), cfg.Map.CheckInvariants)
		if err != nil {
			return nil, fmt.Errorf("restoring %s: %w", path, err)
		}
		log.Info("save restored", zap.String("path", path), zap.Int("pawns", len(w.Pawns())))
		return w, nil
	}
	if format != save.FormatYAML {
		if err == nil {
			err = errors.New("missing save version")
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	script, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	half := math.V2(cfg.Map.HalfWidth, cfg.Map.HalfHeight)
	m := script.NewMap(half.Neg(), half)
	m.CheckInvariants = cfg.Map.CheckInvariants
	w, err := sim.NewWorld(ctx, m, sim.OptionsFrom(cfg))
	if err != nil {
		return nil, err
	}
	if _, err := script.Run(ctx, w); err != nil {
		return nil, fmt.Errorf("running %s: %w", path, err)
	}
	return w, nil
}
