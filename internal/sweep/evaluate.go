package sweep

import (
	"errors"
	"math/rand/v2"
)

// Change is an evaluated entry: the value each run receives.
type Change struct {
	Entry
	Values []Value
}

// Evaluated is a fully evaluated sweep for one stage.
type Evaluated struct {
	Runs    int
	Stage   int
	Changes []Change
}

// Find returns the change for an entry path.
func (e *Evaluated) Find(path string) (Change, bool) {
	for _, c := range e.Changes {
		if c.Path() == path {
			return c, true
		}
	}
	return Change{}, false
}

// EvalOptions configures Evaluate.
type EvalOptions struct {
	// Stage selects staged values; NotStaged outside a restart chain.
	Stage int
	RNG   *rand.Rand
	// Reference returns the container a fix_ratio entry reads from.
	Reference func(e Entry) any
}

// Evaluate generates every entry's values in author order. Generators draw
// from opts.RNG in that order, so a seeded RNG reproduces the sweep.
func Evaluate(spec *Spec, runs int, opts EvalOptions) (*Evaluated, error) {
	out := &Evaluated{Runs: runs, Stage: opts.Stage}
	for _, entry := range spec.Entries {
		gen := GenerateOptions{Stage: opts.Stage, RNG: opts.RNG}
		if _, ok := entry.Generator.(FixRatio); ok && opts.Reference != nil {
			gen.Reference = opts.Reference(entry)
		}

		values, err := Generate(entry.Generator, runs, gen)
		if err != nil {
			var ce *ConfigError
			if errors.As(err, &ce) && ce.Key == "" {
				ce.Key = entry.Path()
			}
			return nil, err
		}
		out.Changes = append(out.Changes, Change{Entry: entry, Values: values})
	}
	return out, nil
}

// NewRNG returns a deterministic generator for seed.
func NewRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
