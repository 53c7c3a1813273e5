package inputfile

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Keywords lists the regular blocks read from every template, in print order.
var Keywords = []string{
	"TITLE",
	"RUNTIME",
	"OUTPUT",
	"DISCRETIZATION",
	"PRIMARY_SPECIES",
	"SECONDARY_SPECIES",
	"GASES",
	"MINERALS",
	"AQUEOUS_KINETICS",
	"ION_EXCHANGE",
	"SURFACE_COMPLEXATION",
	"BOUNDARY_CONDITIONS",
	"TRANSPORT",
	"FLOW",
	"TEMPERATURE",
	"POROSITY",
	"PEST",
	"EROSION/BURIAL",
}

// Template is a parsed input file. It is not modified after Parse returns,
// except for condition classification which is guarded per condition.
type Template struct {
	Path  string
	Lines *Lines

	Blocks     map[string]*Block
	Conditions map[string]*ConditionBlock

	// ConditionOrder lists condition names in file order.
	ConditionOrder []string
	// Missing lists keywords with no block in the file.
	Missing  []string
	Warnings []Warning

	owners map[int]lineOwner
	ends   map[int][]*Block
}

type lineOwner struct {
	block *Block
	key   string
}

// Load reads and parses a template input file.
func Load(path string) (*Template, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	t, err := Parse(lines)
	if err != nil {
		return nil, err
	}
	t.Path = path
	return t, nil
}

// Parse builds a template from a line store. Absent keywords are recorded in
// Missing; malformed lines and regions are recorded in Warnings.
func Parse(lines *Lines) (*Template, error) {
	t := &Template{
		Lines:      lines,
		Blocks:     make(map[string]*Block),
		Conditions: make(map[string]*ConditionBlock),
		owners:     make(map[int]lineOwner),
		ends:       make(map[int][]*Block),
	}

	for _, keyword := range Keywords {
		if err := t.parseKeyword(keyword, func(span Span) (*Block, []Warning) {
			switch keyword {
			case FlowKeyword:
				return ParseFlow(lines, span)
			case MineralsKeyword:
				return ParseMinerals(lines, span)
			default:
				return ParseSimple(lines, keyword, span)
			}
		}); err != nil {
			return nil, err
		}
	}
	if err := t.parseKeyword(InitialConditionsKeyword, func(span Span) (*Block, []Warning) {
		return ParseInitialConditions(lines, span)
	}); err != nil {
		return nil, err
	}
	if err := t.parseKeyword(IsotopesKeyword, func(span Span) (*Block, []Warning) {
		return ParseIsotopes(lines, span)
	}); err != nil {
		return nil, err
	}
	if err := t.parseConditions(); err != nil {
		return nil, err
	}

	t.assignRegions()
	return t, nil
}

// parseKeyword parses the first block opened by keyword.
func (t *Template) parseKeyword(keyword string, parse func(Span) (*Block, []Warning)) error {
	spans, err := Locate(t.Lines, keyword)
	if err != nil {
		var missing *MissingBlockError
		if errors.As(err, &missing) {
			t.Missing = append(t.Missing, keyword)
			return nil
		}
		return fmt.Errorf("locating %s: %w", keyword, err)
	}
	if len(spans) == 0 {
		t.Warnings = append(t.Warnings, Warning{Line: -1, Block: keyword, Reason: "no END after header"})
		return nil
	}
	if len(spans) > 1 {
		t.Warnings = append(t.Warnings, Warning{Line: spans[1].Start, Block: keyword, Reason: "repeated block ignored"})
	}

	block, warnings := parse(spans[0])
	t.Warnings = append(t.Warnings, warnings...)
	t.Blocks[keyword] = block
	t.index(block)
	return nil
}

func (t *Template) parseConditions() error {
	spans, err := Locate(t.Lines, ConditionKeyword)
	if err != nil {
		var missing *MissingBlockError
		if errors.As(err, &missing) {
			t.Missing = append(t.Missing, ConditionKeyword)
			return nil
		}
		return fmt.Errorf("locating conditions: %w", err)
	}

	for _, span := range spans {
		cond, warnings := ParseCondition(t.Lines, span)
		t.Warnings = append(t.Warnings, warnings...)
		if cond == nil {
			continue
		}
		if _, dup := t.Conditions[cond.Name]; dup {
			t.Warnings = append(t.Warnings, Warning{Line: span.Start, Block: ConditionKeyword, Reason: fmt.Sprintf("condition %q redefined", cond.Name)})
		} else {
			t.ConditionOrder = append(t.ConditionOrder, cond.Name)
		}
		t.Conditions[cond.Name] = cond
		t.index(cond.Block)
	}
	return nil
}

// index records which lines print each entry and where the block ends.
func (t *Template) index(b *Block) {
	for _, key := range b.Keys() {
		e, _ := b.Entry(key)
		t.owners[e.Line] = lineOwner{block: b, key: key}
	}
	t.ends[b.Span.End] = append(t.ends[b.Span.End], b)
}

// assignRegions reads INITIAL_CONDITIONS into each condition's Regions. Axes
// left out of a line default to 1-1.
func (t *Template) assignRegions() {
	ic, ok := t.Blocks[InitialConditionsKeyword]
	if !ok {
		return
	}
	for _, key := range ic.Keys() {
		entry, _ := ic.Entry(key)
		name := entry.Values[0]
		cond, ok := t.Conditions[name]
		if !ok {
			t.Warnings = append(t.Warnings, Warning{Line: entry.Line, Block: InitialConditionsKeyword, Reason: fmt.Sprintf("condition %q is not defined", name)})
			continue
		}
		region, err := parseRegion(key)
		if err != nil {
			t.Warnings = append(t.Warnings, Warning{Line: entry.Line, Block: InitialConditionsKeyword, Reason: fmt.Sprintf("region for condition %q dropped: %v", name, err)})
			continue
		}
		cond.Regions = append(cond.Regions, region)
	}
}

func parseRegion(key string) (Region, error) {
	region := Region{{1, 1}, {1, 1}, {1, 1}}
	spans := strings.Fields(key)
	if len(spans) > len(region) {
		return Region{}, fmt.Errorf("%d coordinate spans, want at most %d", len(spans), len(region))
	}
	for i, span := range spans {
		lo, hi, ok := strings.Cut(span, "-")
		if !ok {
			return Region{}, fmt.Errorf("span %q is not a range", span)
		}
		a, err := strconv.Atoi(lo)
		if err != nil {
			return Region{}, fmt.Errorf("span %q: %w", span, err)
		}
		b, err := strconv.Atoi(hi)
		if err != nil {
			return Region{}, fmt.Errorf("span %q: %w", span, err)
		}
		region[i] = Range{a, b}
	}
	return region, nil
}

// Block returns a keyword block by name.
func (t *Template) Block(keyword string) (*Block, bool) {
	b, ok := t.Blocks[keyword]
	return b, ok
}

// Condition returns a condition block by name.
func (t *Template) Condition(name string) (*ConditionBlock, bool) {
	c, ok := t.Conditions[name]
	return c, ok
}

// SpeciesSets returns the mineral, gas and primary species key sets used to
// classify conditions. Mineral rate law labels are stripped.
func (t *Template) SpeciesSets() (minerals, gases, primary KeySet) {
	keys := func(name string) []string {
		if b, ok := t.Blocks[name]; ok {
			return b.Keys()
		}
		return nil
	}
	return NewKeySet(keys(MineralsKeyword), MineralName),
		NewKeySet(keys("GASES"), nil),
		NewKeySet(keys("PRIMARY_SPECIES"), nil)
}

// Classify classifies the named conditions, or all of them when names is empty.
func (t *Template) Classify(names ...string) error {
	if len(names) == 0 {
		names = t.ConditionOrder
	}
	minerals, gases, primary := t.SpeciesSets()
	for _, name := range names {
		cond, ok := t.Conditions[name]
		if !ok {
			return fmt.Errorf("condition %q not found in template", name)
		}
		cond.Classify(minerals, gases, primary)
	}
	return nil
}

// BaseName returns the template file name without its directory or extension,
// and the extension without its dot ("in" when there is none).
func (t *Template) BaseName() (base, ext string) {
	name := filepath.Base(t.Path)
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i], name[i+1:]
	}
	return name, "in"
}

// TemperatureFile returns the file named by TEMPERATURE read_temperaturefile.
func (t *Template) TemperatureFile() (string, bool) {
	b, ok := t.Blocks["TEMPERATURE"]
	if !ok {
		return "", false
	}
	values, ok := b.Get("read_temperaturefile")
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}
