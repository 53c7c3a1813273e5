// Package sweep decodes and evaluates sweep specifications: which input file
// entries vary across an ensemble of runs, and how.
package sweep

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/saltyorg/rtsweep/internal/category"
	"gopkg.in/yaml.v3"
)

// Entry is one varied setting, in the order it was written.
type Entry struct {
	Category string
	// Scope is the condition name for condition categories and the namelist
	// type for namelists; empty otherwise.
	Scope string
	// Group is the reaction name for namelists; empty otherwise.
	Group string
	// Key is the entry, species or parameter name.
	Key       string
	Generator Generator
}

// Path returns the dotted location of the entry in the sweep file.
func (e Entry) Path() string {
	return joinKey(e.Category, e.Scope, e.Group, e.Key)
}

// Spec is a decoded sweep specification.
type Spec struct {
	Entries []Entry
	// Ignored lists top-level keys that are not sweep categories.
	Ignored []string
}

// HasStaged reports whether any entry varies by stage.
func (s *Spec) HasStaged() bool {
	for _, e := range s.Entries {
		if _, ok := e.Generator.(Staged); ok {
			return true
		}
	}
	return false
}

// Split separates entries evaluated once per run from those evaluated per stage.
func (s *Spec) Split() (static, staged *Spec) {
	static, staged = &Spec{}, &Spec{}
	for _, e := range s.Entries {
		if _, ok := e.Generator.(Staged); ok {
			staged.Entries = append(staged.Entries, e)
		} else {
			static.Entries = append(static.Entries, e)
		}
	}
	return static, staged
}

// LoadFile reads a sweep specification from a YAML file. Top-level keys that
// are not categories are ignored, so the run config file can be passed as is.
func LoadFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sweep file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a sweep specification from YAML.
func Parse(data []byte) (*Spec, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing sweep file: %w", err)
	}
	return Decode(&doc)
}

// Decode walks a YAML document or mapping node.
func Decode(node *yaml.Node) (*Spec, error) {
	spec := &Spec{}
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return spec, nil
		}
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil, configErrorf("", "sweep specification must be a mapping")
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		name, body := node.Content[i].Value, node.Content[i+1]
		target, ok := category.Lookup(name)
		if !ok {
			spec.Ignored = append(spec.Ignored, name)
			continue
		}
		if isNull(body) {
			continue
		}

		var err error
		switch target.Scope {
		case category.ScopeCondition:
			err = eachPair(body, name, func(cond string, entries *yaml.Node) error {
				return spec.decodeEntries(entries, Entry{Category: name, Scope: cond})
			})
		case category.ScopeBlock:
			err = spec.decodeEntries(body, Entry{Category: name})
		case category.ScopeNamelist:
			err = spec.decodeNamelists(body)
		}
		if err != nil {
			return nil, err
		}
	}
	return spec, nil
}

func (s *Spec) decodeNamelists(body *yaml.Node) error {
	return eachPair(body, category.Namelists, func(typ string, reactions *yaml.Node) error {
		if _, ok := category.LookupNamelist(typ); !ok {
			valid := category.NamelistNames()
			return &ConfigError{
				Key:        joinKey(category.Namelists, typ),
				Reason:     fmt.Sprintf("unknown namelist type %q", typ),
				Valid:      valid,
				Suggestion: suggest(typ, valid),
			}
		}
		return eachPair(reactions, joinKey(category.Namelists, typ), func(reaction string, params *yaml.Node) error {
			return s.decodeEntries(params, Entry{Category: category.Namelists, Scope: typ, Group: reaction})
		})
	})
}

func (s *Spec) decodeEntries(body *yaml.Node, base Entry) error {
	return eachPair(body, base.Path(), func(key string, value *yaml.Node) error {
		e := base
		e.Key = key
		g, err := decodeGenerator(value)
		if err != nil {
			var ce *ConfigError
			if errors.As(err, &ce) && ce.Key == "" {
				ce.Key = e.Path()
			}
			return err
		}
		e.Generator = g
		s.Entries = append(s.Entries, e)
		return nil
	})
}

// decodeGenerator reads "[name, params]", or "[fix_ratio, key, multiplier]".
func decodeGenerator(node *yaml.Node) (Generator, error) {
	if node.Kind != yaml.SequenceNode || len(node.Content) == 0 || node.Content[0].Kind != yaml.ScalarNode {
		return nil, configErrorf("", "expected [generator, parameters] at line %d", node.Line)
	}
	name := node.Content[0].Value
	args := node.Content[1:]

	switch name {
	case LinspaceName:
		nums, err := floatList(args, 2, 3)
		if err != nil {
			return nil, configErrorf("", "%s: %v", name, err)
		}
		g := Linspace{Lower: nums[0], Upper: nums[1], Repeats: 1}
		if len(nums) == 3 {
			g.Repeats = int(nums[2])
			if float64(g.Repeats) != nums[2] || g.Repeats < 1 {
				return nil, configErrorf("", "linspace repeats must be a positive integer, got %v", nums[2])
			}
		}
		return g, nil

	case RandomUniformName:
		nums, err := floatList(args, 2, 2)
		if err != nil {
			return nil, configErrorf("", "%s: %v", name, err)
		}
		return RandomUniform{Lower: nums[0], Upper: nums[1]}, nil

	case ConstantName:
		if len(args) != 1 || args[0].Kind != yaml.ScalarNode {
			return nil, configErrorf("", "constant takes one value")
		}
		return Constant{Value: scalarValue(args[0])}, nil

	case CustomName:
		if len(args) != 1 || args[0].Kind != yaml.SequenceNode {
			return nil, configErrorf("", "custom takes a list of values")
		}
		values, err := scalarList(args[0])
		if err != nil {
			return nil, configErrorf("", "custom: %v", err)
		}
		return Custom{Values: values}, nil

	case FixRatioName:
		if len(args) != 2 || args[0].Kind != yaml.ScalarNode || args[1].Kind != yaml.ScalarNode {
			return nil, configErrorf("", "fix_ratio takes a reference key and a multiplier")
		}
		mult, err := strconv.ParseFloat(args[1].Value, 64)
		if err != nil {
			return nil, configErrorf("", "fix_ratio multiplier %q is not a number", args[1].Value)
		}
		return FixRatio{ReferenceKey: args[0].Value, Multiplier: mult}, nil

	case StagedName:
		if len(args) != 1 || args[0].Kind != yaml.SequenceNode {
			return nil, configErrorf("", "staged takes a list with one value per stage")
		}
		var g Staged
		for _, stage := range args[0].Content {
			switch stage.Kind {
			case yaml.ScalarNode:
				g.PerStage = append(g.PerStage, StagedValue{Scalar: scalarValue(stage)})
			case yaml.SequenceNode:
				perRun, err := scalarList(stage)
				if err != nil {
					return nil, configErrorf("", "staged: %v", err)
				}
				g.PerStage = append(g.PerStage, StagedValue{PerRun: perRun})
			default:
				return nil, configErrorf("", "staged values must be scalars or lists, line %d", stage.Line)
			}
		}
		return g, nil
	}

	return nil, &ConfigError{
		Reason:     fmt.Sprintf("Unknown parameter setting %q", name),
		Valid:      GeneratorNames,
		Suggestion: suggest(name, GeneratorNames),
	}
}

// floatList reads "[a, b, ...]" from the single argument node.
func floatList(args []*yaml.Node, minLen, maxLen int) ([]float64, error) {
	if len(args) != 1 || args[0].Kind != yaml.SequenceNode {
		return nil, configErrorf("", "expected a list of %d to %d numbers", minLen, maxLen)
	}
	items := args[0].Content
	if len(items) < minLen || len(items) > maxLen {
		return nil, configErrorf("", "expected %d to %d numbers, got %d", minLen, maxLen, len(items))
	}
	out := make([]float64, len(items))
	for i, item := range items {
		f, err := strconv.ParseFloat(item.Value, 64)
		if item.Kind != yaml.ScalarNode || err != nil {
			return nil, configErrorf("", "%q is not a number", item.Value)
		}
		out[i] = f
	}
	return out, nil
}

func scalarList(node *yaml.Node) ([]Value, error) {
	out := make([]Value, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("nested lists are not allowed (line %d)", item.Line)
		}
		out = append(out, scalarValue(item))
	}
	return out, nil
}

// scalarValue keeps quoted scalars as text and reads the rest as numbers
// where possible.
func scalarValue(node *yaml.Node) Value {
	if node.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) == 0 {
		if f, err := strconv.ParseFloat(node.Value, 64); err == nil {
			return Number(f)
		}
	}
	return Text(node.Value)
}

func eachPair(node *yaml.Node, path string, fn func(key string, value *yaml.Node) error) error {
	if isNull(node) {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return configErrorf(path, "expected a mapping at line %d", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if err := fn(node.Content[i].Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}
