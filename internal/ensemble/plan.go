// Package ensemble turns a template and an evaluated sweep into run files,
// either one per run or as per-run restart chains.
package ensemble

import (
	"fmt"
	"math/rand/v2"
	"runtime"
	"strings"

	"github.com/saltyorg/rtsweep/internal/category"
	"github.com/saltyorg/rtsweep/internal/inputfile"
	"github.com/saltyorg/rtsweep/internal/namelist"
	"github.com/saltyorg/rtsweep/internal/sweep"
)

// Plan holds everything needed to build an ensemble.
type Plan struct {
	Template *inputfile.Template
	Spec     *sweep.Spec
	Runs     int
	// Aux holds auxiliary namelists by config key; see category.AqueousDatabase.
	Aux map[string]*namelist.File
	RNG *rand.Rand
	// Workers bounds parallel run construction; 0 uses GOMAXPROCS.
	Workers int
	// Conditions are classified before any run is built, in addition to the
	// conditions the sweep touches.
	Conditions []string

	static *sweep.Evaluated
	staged []*sweep.Evaluated
}

// Assignment is one sweep value applied to a run file.
type Assignment struct {
	Path  string
	Value string
}

// Assignments lists the values applied to a run's file at a stage, in sweep
// order. It is valid after Instantiate or BuildChains.
func (p *Plan) Assignments(run, stage int) []Assignment {
	var out []Assignment
	add := func(eval *sweep.Evaluated) {
		if eval == nil {
			return
		}
		for _, c := range eval.Changes {
			if run < len(c.Values) {
				out = append(out, Assignment{Path: c.Path(), Value: c.Values[run].String()})
			}
		}
	}
	add(p.static)
	if stage >= 0 && stage < len(p.staged) {
		add(p.staged[stage])
	}
	return out
}

// Evaluated returns the values shared by every stage of a run. It is valid
// after Instantiate or BuildChains.
func (p *Plan) Evaluated() *sweep.Evaluated {
	return p.static
}

func (p *Plan) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// prepare classifies every condition the sweep can touch so the template
// stays read-only while runs are built in parallel.
func (p *Plan) prepare() error {
	if p.Runs <= 0 {
		return fmt.Errorf("number of runs must be positive, got %d", p.Runs)
	}
	if p.RNG == nil {
		p.RNG = sweep.NewRNG(0)
	}

	names := append([]string(nil), p.Conditions...)
	for _, e := range p.Spec.Entries {
		if t, ok := category.Lookup(e.Category); ok && t.Scope == category.ScopeCondition {
			names = append(names, e.Scope)
		}
	}
	if err := p.Template.Classify(names...); err != nil {
		return fmt.Errorf("classifying conditions: %w", err)
	}
	return nil
}

// evaluate evaluates spec for one stage, resolving fix_ratio references
// against the template.
func (p *Plan) evaluate(spec *sweep.Spec, stage int) (*sweep.Evaluated, error) {
	return sweep.Evaluate(spec, p.Runs, sweep.EvalOptions{
		Stage:     stage,
		RNG:       p.RNG,
		Reference: p.reference,
	})
}

// reference returns the container a fix_ratio entry reads: the condition's
// category sub-map, the target keyword block, or the reaction's parameters.
func (p *Plan) reference(e sweep.Entry) any {
	target, ok := category.Lookup(e.Category)
	if !ok {
		return nil
	}
	switch target.Scope {
	case category.ScopeCondition:
		cond, ok := p.Template.Condition(e.Scope)
		if !ok {
			return nil
		}
		m, err := cond.Category(target.Block)
		if err != nil {
			return nil
		}
		return m
	case category.ScopeBlock:
		b, ok := p.Template.Block(target.Block)
		if !ok {
			return nil
		}
		return b
	case category.ScopeNamelist:
		group, err := p.namelistGroup(p.Aux, e)
		if err != nil {
			return nil
		}
		out := make(map[string][]string, len(group.Params))
		for _, param := range group.Params {
			out[param.Key] = []string{namelist.Unquote(param.Value)}
		}
		return out
	}
	return nil
}

func (p *Plan) namelistGroup(aux map[string]*namelist.File, e sweep.Entry) (*namelist.Group, error) {
	nt, ok := category.LookupNamelist(e.Scope)
	if !ok {
		return nil, fmt.Errorf("unknown namelist type %q", e.Scope)
	}
	nml, ok := aux[nt.File]
	if !ok {
		return nil, fmt.Errorf("%s is not loaded; set %s in the config", nt.File, nt.File)
	}
	group, ok := nml.Find(nt.Group, e.Group)
	if !ok {
		return nil, fmt.Errorf("%s has no %s reaction %q", nt.File, nt.Group, e.Group)
	}
	return group, nil
}

// blockKey maps a sweep key to a block key. Mineral rate laws may be named
// without a label, meaning the default one.
func blockKey(blockName, key string) string {
	if blockName == inputfile.MineralsKeyword && !strings.Contains(key, inputfile.LabelSeparator) {
		return key + inputfile.LabelSeparator + inputfile.DefaultLabel
	}
	return key
}
