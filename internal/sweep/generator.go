package sweep

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"strconv"
)

// Generator names as written in a sweep file.
const (
	LinspaceName      = "linspace"
	RandomUniformName = "random_uniform"
	ConstantName      = "constant"
	CustomName        = "custom"
	FixRatioName      = "fix_ratio"
	StagedName        = "staged"
)

// GeneratorNames lists every generator name.
var GeneratorNames = []string{LinspaceName, RandomUniformName, ConstantName, CustomName, FixRatioName, StagedName}

// Generator describes how one entry varies across runs. The set of
// implementations is closed; see Generate.
type Generator interface {
	Name() string
	generator()
}

// Linspace spaces runs/Repeats points evenly from Lower to Upper, repeating
// each point Repeats times in a row.
type Linspace struct {
	Lower, Upper float64
	Repeats      int
}

// RandomUniform draws each run's value uniformly from [Lower, Upper).
type RandomUniform struct {
	Lower, Upper float64
}

// Constant gives every run the same value.
type Constant struct {
	Value Value
}

// Custom lists one value per run.
type Custom struct {
	Values []Value
}

// FixRatio sets the entry to Multiplier times the last value of ReferenceKey
// in the reference container.
type FixRatio struct {
	ReferenceKey string
	Multiplier   float64
}

// StagedValue is one stage's setting: a single value for all runs, or one
// value per run.
type StagedValue struct {
	Scalar Value
	PerRun []Value
}

// Staged selects a setting by restart chain stage.
type Staged struct {
	PerStage []StagedValue
}

func (Linspace) Name() string      { return LinspaceName }
func (RandomUniform) Name() string { return RandomUniformName }
func (Constant) Name() string      { return ConstantName }
func (Custom) Name() string        { return CustomName }
func (FixRatio) Name() string      { return FixRatioName }
func (Staged) Name() string        { return StagedName }

func (Linspace) generator()      {}
func (RandomUniform) generator() {}
func (Constant) generator()      {}
func (Custom) generator()        {}
func (FixRatio) generator()      {}
func (Staged) generator()        {}

// NotStaged is the Stage of options outside a restart chain.
const NotStaged = -1

// Lookup is a reference container addressed by key, such as a block.
type Lookup interface {
	Get(key string) ([]string, bool)
	Keys() []string
}

// GenerateOptions carries the inputs some generators need.
type GenerateOptions struct {
	// Stage is the restart chain stage, or NotStaged.
	Stage int
	// RNG feeds RandomUniform.
	RNG *rand.Rand
	// Reference is the container FixRatio reads from: a
	// map[string][]string or a Lookup.
	Reference any
}

// Generate evaluates g into one value per run.
func Generate(g Generator, runs int, opts GenerateOptions) ([]Value, error) {
	if runs <= 0 {
		return nil, configErrorf("", "number of runs must be positive, got %d", runs)
	}

	switch g := g.(type) {
	case Linspace:
		return g.generate(runs)
	case RandomUniform:
		return g.generate(runs, opts.RNG)
	case Constant:
		return broadcast(g.Value, runs), nil
	case Custom:
		return slices.Clone(g.Values), nil
	case FixRatio:
		return g.generate(runs, opts.Reference)
	case Staged:
		return g.generate(runs, opts.Stage)
	default:
		panic(fmt.Sprintf("sweep: unhandled generator %T", g))
	}
}

func (g Linspace) generate(runs int) ([]Value, error) {
	repeats := g.Repeats
	if repeats <= 0 {
		repeats = 1
	}
	if runs%repeats != 0 {
		return nil, configErrorf("", "linspace repeats (%d) is not a factor of the number of runs (%d)", repeats, runs)
	}

	points := runs / repeats
	out := make([]Value, 0, runs)
	for i := 0; i < points; i++ {
		v := g.Lower
		switch {
		case i == points-1 && points > 1:
			v = g.Upper
		case points > 1:
			v = g.Lower + (g.Upper-g.Lower)*float64(i)/float64(points-1)
		}
		for j := 0; j < repeats; j++ {
			out = append(out, Number(v))
		}
	}
	return out, nil
}

func (g RandomUniform) generate(runs int, rng *rand.Rand) ([]Value, error) {
	if rng == nil {
		return nil, configErrorf("", "random_uniform needs a random number generator")
	}
	out := make([]Value, runs)
	for i := range out {
		out[i] = Number(g.Lower + rng.Float64()*(g.Upper-g.Lower))
	}
	return out, nil
}

func (g FixRatio) generate(runs int, reference any) ([]Value, error) {
	var (
		values []string
		ok     bool
		keys   []string
	)
	switch ref := reference.(type) {
	case map[string][]string:
		values, ok = ref[g.ReferenceKey]
		keys = slices.Sorted(maps.Keys(ref))
	case Lookup:
		values, ok = ref.Get(g.ReferenceKey)
		keys = ref.Keys()
	default:
		return nil, configErrorf("", "fix_ratio referenced a container of unknown type %T", reference)
	}

	if !ok {
		return nil, &ConfigError{
			Reason:     fmt.Sprintf("fix_ratio reference %q not found", g.ReferenceKey),
			Valid:      keys,
			Suggestion: suggest(g.ReferenceKey, keys),
		}
	}
	if len(values) == 0 {
		return nil, configErrorf("", "fix_ratio reference %q has no value", g.ReferenceKey)
	}
	ref, err := strconv.ParseFloat(values[len(values)-1], 64)
	if err != nil {
		return nil, configErrorf("", "fix_ratio reference %q is not numeric: %q", g.ReferenceKey, values[len(values)-1])
	}
	return broadcast(Number(ref*g.Multiplier), runs), nil
}

func (g Staged) generate(runs, stage int) ([]Value, error) {
	if stage == NotStaged {
		return nil, configErrorf("", "staged values need a restart_chain")
	}
	if stage < 0 || stage >= len(g.PerStage) {
		return nil, configErrorf("", "no staged value for stage %d (%d given)", stage, len(g.PerStage))
	}

	sv := g.PerStage[stage]
	if sv.PerRun == nil {
		return broadcast(sv.Scalar, runs), nil
	}
	if len(sv.PerRun) != runs {
		return nil, configErrorf("", "stage %d lists %d values, want one per run (%d)", stage, len(sv.PerRun), runs)
	}
	return slices.Clone(sv.PerRun), nil
}
