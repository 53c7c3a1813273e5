package ensemble

import (
	"context"
	"fmt"
	"strconv"

	"github.com/saltyorg/rtsweep/internal/category"
	"github.com/saltyorg/rtsweep/internal/inputfile"
	"github.com/saltyorg/rtsweep/internal/logging"
	"github.com/saltyorg/rtsweep/internal/sweep"
	"golang.org/x/sync/errgroup"
)

// RUNTIME and OUTPUT entries rewritten for restart chains.
const (
	RestartKey         = "restart"
	SaveRestartKey     = "save_restart"
	LaterInputfilesKey = "later_inputfiles"
	SpatialProfileKey  = "spatial_profile"

	runtimeBlock = "RUNTIME"
	outputBlock  = "OUTPUT"
)

// ChainOptions configures restart chains.
type ChainOptions struct {
	Stages int
	// SpatialProfile, when set, gives each stage's output times verbatim.
	SpatialProfile [][]float64
}

// Chain is one run's stages in execution order. Stage s+1 restarts from the
// file stage s saves.
type Chain struct {
	Run    int
	Stages []*inputfile.RunFile
}

// RestartFile names the restart file a run's stage saves.
func RestartFile(run, stage int) string {
	return fmt.Sprintf("restart_%d_stage%d.rst", run, stage)
}

// BuildChains builds every run's restart chain. Unstaged sweep entries are
// evaluated once and applied to every stage; staged entries are evaluated
// per stage.
func BuildChains(ctx context.Context, p *Plan, opts ChainOptions) (map[int]*Chain, error) {
	if opts.Stages < 1 {
		return nil, fmt.Errorf("restart chain needs at least one stage, got %d", opts.Stages)
	}
	if opts.SpatialProfile != nil && len(opts.SpatialProfile) != opts.Stages {
		return nil, &sweep.ConfigError{
			Key:    "restart_chain.spatial_profile",
			Reason: fmt.Sprintf("%d profiles given for %d stages", len(opts.SpatialProfile), opts.Stages),
		}
	}
	if _, ok := p.Template.Block(runtimeBlock); !ok {
		return nil, fmt.Errorf("restart chains need a %s block in the template", runtimeBlock)
	}
	if err := p.prepare(); err != nil {
		return nil, err
	}

	static, staged := p.Spec.Split()
	for _, e := range staged.Entries {
		if t, ok := category.Lookup(e.Category); ok && t.Scope == category.ScopeNamelist {
			return nil, &sweep.ConfigError{
				Key:    e.Path(),
				Reason: "namelist values cannot be staged; a run directory holds one copy of each namelist",
			}
		}
	}
	staticEval, err := p.evaluate(static, sweep.NotStaged)
	if err != nil {
		return nil, fmt.Errorf("evaluating sweep: %w", err)
	}
	stageEvals := make([]*sweep.Evaluated, opts.Stages)
	for s := range stageEvals {
		if stageEvals[s], err = p.evaluate(staged, s); err != nil {
			return nil, fmt.Errorf("evaluating stage %d: %w", s, err)
		}
	}

	p.static, p.staged = staticEval, stageEvals

	profiles, err := p.stageProfiles(opts)
	if err != nil {
		return nil, err
	}

	chains := make([]*Chain, p.Runs)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for run := range chains {
		g.Go(func() error {
			chain := &Chain{Run: run}
			for s := 0; s < opts.Stages; s++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				rf := p.newRunFile(run, s)
				if err := p.apply(rf, staticEval, stageEvals[s]); err != nil {
					return fmt.Errorf("stage %d: %w", s, err)
				}
				wireRestart(rf, run, s, opts.Stages)
				if profiles != nil && (s > 0 || opts.SpatialProfile != nil) {
					setProfile(rf, profiles[s])
				}
				chain.Stages = append(chain.Stages, rf)
			}
			chains[run] = chain
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Debug("built restart chains", "runs", p.Runs, "stages", opts.Stages)

	out := make(map[int]*Chain, len(chains))
	for _, c := range chains {
		out[c.Run] = c
	}
	return out, nil
}

// wireRestart sets the restart directives for one stage: every stage but the
// first restarts from its predecessor, every stage but the last saves one.
func wireRestart(rf *inputfile.RunFile, run, stage, stages int) {
	runtime, _ := rf.Block(runtimeBlock)

	if stage > 0 {
		rf.Set(runtime, RestartKey, []string{RestartFile(run, stage-1), "append"})
	} else {
		rf.Delete(runtime, RestartKey)
	}
	if stage < stages-1 {
		rf.Set(runtime, SaveRestartKey, []string{RestartFile(run, stage)})
	} else {
		rf.Delete(runtime, SaveRestartKey)
	}
	rf.Delete(runtime, LaterInputfilesKey)
}

func setProfile(rf *inputfile.RunFile, times []float64) {
	output, ok := rf.Block(outputBlock)
	if !ok {
		return
	}
	if len(times) == 0 {
		rf.Delete(output, SpatialProfileKey)
		return
	}
	values := make([]string, len(times))
	for i, t := range times {
		values[i] = strconv.FormatFloat(t, 'g', -1, 64)
	}
	rf.Set(output, SpatialProfileKey, values)
}

// stageProfiles returns each stage's output times, or nil to leave the
// template's times alone. Without explicit profiles, stage s shifts the
// template's times by s times its last time and drops any that land at or
// before that boundary.
func (p *Plan) stageProfiles(opts ChainOptions) ([][]float64, error) {
	if opts.SpatialProfile != nil {
		return opts.SpatialProfile, nil
	}

	output, ok := p.Template.Block(outputBlock)
	if !ok {
		return nil, nil
	}
	raw, ok := output.Get(SpatialProfileKey)
	if !ok || len(raw) == 0 {
		return nil, nil
	}

	base := make([]float64, len(raw))
	for i, s := range raw {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %q is not a time", outputBlock, SpatialProfileKey, s)
		}
		base[i] = f
	}
	last := base[len(base)-1]

	profiles := make([][]float64, opts.Stages)
	for s := range profiles {
		boundary := float64(s) * last
		for _, t := range base {
			if shifted := t + boundary; s == 0 || shifted > boundary {
				profiles[s] = append(profiles[s], shifted)
			}
		}
	}
	return profiles, nil
}
