package cmd

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/saltyorg/rtsweep/internal/config"
	"github.com/saltyorg/rtsweep/internal/ensemble"
	"github.com/saltyorg/rtsweep/internal/inputfile"
	"github.com/saltyorg/rtsweep/internal/logging"
	"github.com/saltyorg/rtsweep/internal/namelist"
	"github.com/saltyorg/rtsweep/internal/sweep"
)

// pipeline holds a loaded config with its template, sweep and plan.
type pipeline struct {
	cfg      *config.Config
	template *inputfile.Template
	spec     *sweep.Spec
	plan     *ensemble.Plan
	seed     uint64
}

// loadPipeline loads everything the config names. Template warnings and
// missing blocks are logged, not returned.
func loadPipeline(ctx context.Context, cfg *config.Config) (*pipeline, error) {
	logger := logging.FromContext(ctx)

	tmpl, err := inputfile.Load(cfg.TemplatePath())
	if err != nil {
		return nil, fmt.Errorf("loading template: %w", err)
	}
	for _, w := range tmpl.Warnings {
		logger.Warn("template warning", "warning", w.String())
	}
	if len(tmpl.Missing) > 0 {
		logger.Warn("keywords not found in template", "keywords", tmpl.Missing)
	}

	spec, err := cfg.Sweep()
	if err != nil {
		return nil, fmt.Errorf("loading sweep: %w", err)
	}
	logger.Debug("sweep loaded", "entries", len(spec.Entries), "ignored", spec.Ignored)

	aux := make(map[string]*namelist.File)
	paths := cfg.AuxPaths()
	for _, key := range slices.Sorted(maps.Keys(paths)) {
		nml, err := namelist.Load(paths[key])
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", key, err)
		}
		aux[key] = nml
	}

	seed := cfg.SeedValue()
	return &pipeline{
		cfg:      cfg,
		template: tmpl,
		spec:     spec,
		seed:     seed,
		plan: &ensemble.Plan{
			Template:   tmpl,
			Spec:       spec,
			Runs:       cfg.NumberOfFiles,
			Aux:        aux,
			RNG:        sweep.NewRNG(seed),
			Workers:    cfg.Workers,
			Conditions: cfg.Conditions,
		},
	}, nil
}

// build evaluates the sweep and returns each run's input files, one per
// stage, keyed by run number.
func (p *pipeline) build(ctx context.Context) (map[int][]*inputfile.RunFile, error) {
	out := make(map[int][]*inputfile.RunFile, p.cfg.NumberOfFiles)

	if stages := p.cfg.Stages(); stages > 0 {
		chains, err := ensemble.BuildChains(ctx, p.plan, ensemble.ChainOptions{
			Stages:         stages,
			SpatialProfile: p.cfg.RestartChain.SpatialProfile,
		})
		if err != nil {
			return nil, err
		}
		for run, chain := range chains {
			out[run] = chain.Stages
		}
		return out, nil
	}

	if p.spec.HasStaged() {
		return nil, &sweep.ConfigError{Key: "restart_chain", Reason: "staged values are set but no restart_chain is configured"}
	}
	runs, err := ensemble.Instantiate(ctx, p.plan)
	if err != nil {
		return nil, err
	}
	for run, rf := range runs {
		out[run] = []*inputfile.RunFile{rf}
	}
	return out, nil
}
