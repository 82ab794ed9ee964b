package optim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/san-kum/massgrid/internal/dynamo"
	"github.com/san-kum/massgrid/internal/metrics"
	"github.com/san-kum/massgrid/internal/sim"
)

// Objective scores one parameter set; lower is better.
type Objective func(ctx context.Context, p dynamo.Params) (float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	logger     *slog.Logger
}

type Result struct {
	Params    dynamo.Params
	Score     float64
	Evaluated int
	Skipped   int
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("%d params but %d ranges: %w", len(params), len(ranges), dynamo.ErrInvalidConfig)
	}
	known := dynamo.DefaultParams().GetParams()
	for i, name := range params {
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("unknown parameter %q: %w", name, dynamo.ErrInvalidConfig)
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("empty range for %s: %w", name, dynamo.ErrInvalidConfig)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, logger: slog.Default()}, nil
}

func (g *GridSearch) WithLogger(l *slog.Logger) *GridSearch {
	g.logger = l
	return g
}

// Search scores every combination of the ranges applied over base.
// Combinations that fail validation, blow up, or score non-finite are
// skipped. Cancellation aborts the search.
func (g *GridSearch) Search(ctx context.Context, base dynamo.Params, obj Objective) (Result, error) {
	res := Result{Score: math.Inf(1)}
	err := g.searchRecursive(ctx, 0, base, obj, &res)
	if err != nil {
		return res, err
	}
	if res.Evaluated == 0 {
		return res, fmt.Errorf("no parameter combination could be scored: %w", dynamo.ErrParameterBounds)
	}
	return res, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current dynamo.Params, obj Objective, res *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		score, err := obj(ctx, current)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		case err != nil:
			g.logger.Debug("sweep point failed", "params", current.GetParams(), "err", err)
			res.Skipped++
			return nil
		case math.IsNaN(score) || math.IsInf(score, 0):
			res.Skipped++
			return nil
		}
		res.Evaluated++
		if score < res.Score {
			res.Score = score
			res.Params = current
		}
		return nil
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := current
		if err := next.SetParam(name, val); err != nil {
			res.Skipped++
			continue
		}
		if err := g.searchRecursive(ctx, depth+1, next, obj, res); err != nil {
			return err
		}
	}
	return nil
}

// ResidualEnergy scores a parameter set by the total kinetic and spring
// energy left in the grid after frames steps of the given touch script.
// A fresh simulator is built per evaluation.
func ResidualEnergy(cfg sim.Config, frames int, dt float64, script func() sim.EventSource) Objective {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	return func(ctx context.Context, p dynamo.Params) (float64, error) {
		c := cfg
		c.Params = p
		s := sim.New(c, sim.WithLogger(quiet))
		if err := s.Initialize(); err != nil {
			return 0, err
		}
		defer s.Release()

		set := metrics.NewSet(
			metrics.NewKineticEnergy(p.Mass),
			metrics.NewSpringPotential(c.Dims(), p.Stiffness, p.RestLength),
		)
		s.AddObserver(set)

		var src sim.EventSource
		if script != nil {
			src = script()
		}
		if err := s.Run(ctx, frames, dt, src); err != nil {
			return 0, err
		}
		v := set.Values()
		return v["kinetic_energy"] + v["spring_potential"], nil
	}
}
