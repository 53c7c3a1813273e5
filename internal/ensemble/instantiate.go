package ensemble

import (
	"context"
	"fmt"
	"maps"

	"github.com/saltyorg/rtsweep/internal/category"
	"github.com/saltyorg/rtsweep/internal/inputfile"
	"github.com/saltyorg/rtsweep/internal/logging"
	"github.com/saltyorg/rtsweep/internal/sweep"
	"golang.org/x/sync/errgroup"
)

// Instantiate evaluates the plan's sweep and builds one run file per run,
// keyed by run number.
func Instantiate(ctx context.Context, p *Plan) (map[int]*inputfile.RunFile, error) {
	if err := p.prepare(); err != nil {
		return nil, err
	}
	eval, err := p.evaluate(p.Spec, sweep.NotStaged)
	if err != nil {
		return nil, fmt.Errorf("evaluating sweep: %w", err)
	}
	p.static, p.staged = eval, nil

	runs := make([]*inputfile.RunFile, p.Runs)
	for i := range runs {
		runs[i] = p.newRunFile(i, inputfile.NoStage)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers())
	for _, run := range runs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return p.apply(run, eval)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Debug("instantiated runs", "runs", p.Runs, "changes", len(eval.Changes))

	out := make(map[int]*inputfile.RunFile, len(runs))
	for _, run := range runs {
		out[run.FileNum] = run
	}
	return out, nil
}

func (p *Plan) newRunFile(fileNum, stage int) *inputfile.RunFile {
	run := inputfile.NewRunFile(p.Template, fileNum)
	run.StageNum = stage
	maps.Copy(run.Aux, p.Aux)
	return run
}

// apply writes each change's value for run.FileNum into the run file.
// Namelists are copied for the run the first time one of them is changed.
func (p *Plan) apply(run *inputfile.RunFile, evals ...*sweep.Evaluated) error {
	private := make(map[string]bool)

	for _, eval := range evals {
		for _, c := range eval.Changes {
			if run.FileNum >= len(c.Values) {
				return fmt.Errorf("%s: %d values given, run %d has none", c.Path(), len(c.Values), run.FileNum)
			}
			value := c.Values[run.FileNum]

			target, ok := category.Lookup(c.Category)
			if !ok {
				continue
			}
			if err := p.applyOne(run, target, c.Entry, value, private); err != nil {
				return fmt.Errorf("run %d: %s: %w", run.FileNum, c.Path(), err)
			}
		}
	}
	return nil
}

func (p *Plan) applyOne(run *inputfile.RunFile, target category.Target, e sweep.Entry, value sweep.Value, private map[string]bool) error {
	switch target.Scope {
	case category.ScopeCondition:
		return run.ModifyCondition(e.Scope, target.Block, e.Key, target.Position, value.String())

	case category.ScopeBlock:
		b, ok := run.Block(target.Block)
		if !ok {
			return fmt.Errorf("template has no %s block", target.Block)
		}
		return run.SetToken(b, blockKey(target.Block, e.Key), target.Position, value.String())

	case category.ScopeNamelist:
		nt, ok := category.LookupNamelist(e.Scope)
		if !ok {
			return fmt.Errorf("unknown namelist type %q", e.Scope)
		}
		if !private[nt.File] {
			if _, ok := run.CloneAux(nt.File); !ok {
				return fmt.Errorf("%s is not loaded; set %s in the config", nt.File, nt.File)
			}
			private[nt.File] = true
		}
		group, err := p.namelistGroup(run.Aux, e)
		if err != nil {
			return err
		}
		group.Set(e.Key, namelistValue(value))
		return nil
	}
	return fmt.Errorf("unhandled scope %s", target.Scope)
}

func namelistValue(v sweep.Value) string {
	if v.IsText() {
		return "'" + v.String() + "'"
	}
	return v.String()
}
