package inputfile

import (
	"fmt"
	"maps"
	"strings"
	"sync"
)

// Condition categories an entry is sorted into by Classify.
const (
	Concentrations = "concentrations"
	MineralVolumes = "mineral_volumes"
	Gases          = "gases"
	Parameters     = "parameters"
)

// Range is an inclusive 1-based span of grid blocks along one axis.
type Range [2]int

// Region is the X, Y and Z extent over which a condition applies.
type Region [3]Range

// Unapplied marks a condition that is declared but assigned nowhere.
var Unapplied = Region{}

// ConditionBlock is a named geochemical condition. Its entries are sorted
// into category sub-maps by Classify before category reads and writes.
type ConditionBlock struct {
	*Block
	Name    string
	Regions []Region

	mu             sync.Mutex
	gases          map[string][]string
	mineralVolumes map[string][]string
	concentrations map[string][]string
	parameters     map[string][]string
}

// ParseCondition parses a CONDITION block, taking its name from the header.
func ParseCondition(lines *Lines, span Span) (*ConditionBlock, []Warning) {
	header, _ := lines.Get(span.Start)
	fields := strings.Fields(header)
	if len(fields) < 2 {
		return nil, []Warning{{Line: span.Start, Block: ConditionKeyword, Reason: "header has no condition name"}}
	}
	block, warnings := ParseSimple(lines, ConditionKeyword, span)
	return newConditionBlock(fields[1], block), warnings
}

func newConditionBlock(name string, block *Block) *ConditionBlock {
	return &ConditionBlock{
		Block:          block,
		Name:           name,
		gases:          make(map[string][]string),
		mineralVolumes: make(map[string][]string),
		concentrations: make(map[string][]string),
		parameters:     make(map[string][]string),
	}
}

// KeySet is a membership test over block keys.
type KeySet map[string]bool

// NewKeySet builds a set from keys, applying normalize to each when non-nil.
func NewKeySet(keys []string, normalize func(string) string) KeySet {
	set := make(KeySet, len(keys))
	for _, k := range keys {
		if normalize != nil {
			k = normalize(k)
		}
		set[k] = true
	}
	return set
}

// Classify sorts entries into mineral volumes, gases, concentrations or
// parameters, in that order of precedence. It does nothing once parameters
// is populated. Safe for concurrent use.
func (c *ConditionBlock) Classify(minerals, gases, primary KeySet) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.parameters) > 0 {
		return
	}
	for _, key := range c.Keys() {
		values, _ := c.Get(key)
		switch {
		case minerals[key]:
			c.mineralVolumes[key] = values
		case gases[key]:
			c.gases[key] = values
		case primary[key]:
			c.concentrations[key] = values
		default:
			c.parameters[key] = values
		}
	}
}

// Category returns a copy of one classified sub-map.
func (c *ConditionBlock) Category(name string) (map[string][]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	src, err := c.category(name)
	if err != nil {
		return nil, err
	}
	return maps.Clone(src), nil
}

// InCategory reports whether key was classified into the named category.
func (c *ConditionBlock) InCategory(name, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	src, err := c.category(name)
	if err != nil {
		return false
	}
	_, ok := src[key]
	return ok
}

func (c *ConditionBlock) category(name string) (map[string][]string, error) {
	switch name {
	case Concentrations:
		return c.concentrations, nil
	case MineralVolumes:
		return c.mineralVolumes, nil
	case Gases:
		return c.gases, nil
	case Parameters:
		return c.parameters, nil
	}
	return nil, fmt.Errorf("unknown condition category %q", name)
}
