package inputfile

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// Warning records a line or region that was skipped while parsing.
type Warning struct {
	Line   int
	Block  string
	Reason string
}

func (w Warning) String() string {
	if w.Line < 0 {
		return fmt.Sprintf("%s: %s", w.Block, w.Reason)
	}
	return fmt.Sprintf("%s line %d: %s", w.Block, w.Line+1, w.Reason)
}

// Keywords that need dedicated parsers.
const (
	IsotopesKeyword          = "ISOTOPES"
	InitialConditionsKeyword = "INITIAL_CONDITIONS"
	FlowKeyword              = "FLOW"
	MineralsKeyword          = "MINERALS"
	ConditionKeyword         = "CONDITION"
)

// DefaultLabel names a mineral rate law with no -label.
const DefaultLabel = "default"

// LabelSeparator joins a mineral name and its rate law label in keys.
const LabelSeparator = "&"

var coordRange = regexp.MustCompile(`\d+-\d+`)

// lineParser turns one line's fields into an entry. ok=false skips the line.
type lineParser func(n int, fields []string, text string) (e Entry, w *Warning, ok bool)

// ParseSimple parses a regular block: the first token of each line is the key
// and the rest are its values. Later duplicate keys overwrite earlier ones.
func ParseSimple(lines *Lines, typ string, span Span) (*Block, []Warning) {
	return parseBlock(lines, typ, span, simpleLine)
}

// ParseIsotopes keys each line by its second token, the rare isotope, since
// the first token repeats. Single-token lines fall back to ParseSimple rules.
func ParseIsotopes(lines *Lines, span Span) (*Block, []Warning) {
	return parseBlock(lines, IsotopesKeyword, span, func(n int, fields []string, text string) (Entry, *Warning, bool) {
		if len(fields) < 2 {
			return simpleLine(n, fields, text)
		}
		values := append([]string{fields[0]}, fields[2:]...)
		return Entry{Key: fields[1], Values: values, Line: n, Shape: KeySecond}, nil, true
	})
}

// ParseInitialConditions keys each line by its coordinate ranges joined with
// spaces. Values are the condition name, plus "fix" when the line ends with it.
func ParseInitialConditions(lines *Lines, span Span) (*Block, []Warning) {
	return parseBlock(lines, InitialConditionsKeyword, span, func(n int, fields []string, text string) (Entry, *Warning, bool) {
		ranges := coordRange.FindAllString(text, -1)
		if len(ranges) == 0 {
			return Entry{}, &Warning{Line: n, Block: InitialConditionsKeyword, Reason: "no coordinate ranges"}, false
		}
		values := []string{fields[0]}
		if len(fields) > 1 && fields[len(fields)-1] == "fix" {
			values = append(values, "fix")
		}
		return Entry{Key: strings.Join(ranges, " "), Values: values, Line: n, Shape: KeySecond}, nil, true
	})
}

// ParseFlow keys zoned permeability and pressure lines by field name plus
// their coordinate ranges, so each zone is addressable.
func ParseFlow(lines *Lines, span Span) (*Block, []Warning) {
	return parseBlock(lines, FlowKeyword, span, func(n int, fields []string, text string) (Entry, *Warning, bool) {
		field := fields[0]
		zoned := strings.HasPrefix(field, "permeability") || strings.HasPrefix(field, "pressure")
		if !zoned || !slices.Contains(fields[1:], "zone") {
			return simpleLine(n, fields, text)
		}
		ranges := coordRange.FindAllString(strings.Join(fields[1:], " "), -1)
		if len(ranges) == 0 {
			return Entry{}, &Warning{Line: n, Block: FlowKeyword, Reason: fmt.Sprintf("zone for %s has no coordinate ranges", field)}, false
		}
		key := field + " " + strings.Join(ranges, " ")
		return Entry{Key: key, Head: field, Values: fields[1:], Line: n, Shape: HeadFirst}, nil, true
	})
}

// ParseMinerals keys each rate law as "name&label", reading the label from a
// "-label X" pair and defaulting to "default".
func ParseMinerals(lines *Lines, span Span) (*Block, []Warning) {
	return parseBlock(lines, MineralsKeyword, span, func(n int, fields []string, text string) (Entry, *Warning, bool) {
		label := DefaultLabel
		var warn *Warning
		for i, f := range fields[1:] {
			if f != "-label" {
				continue
			}
			if i+2 < len(fields) {
				label = fields[i+2]
			} else {
				warn = &Warning{Line: n, Block: MineralsKeyword, Reason: "-label without a value"}
			}
			break
		}
		return Entry{
			Key:    fields[0] + LabelSeparator + label,
			Head:   fields[0],
			Values: fields[1:],
			Line:   n,
			Shape:  HeadFirst,
		}, warn, true
	})
}

// MineralName strips the rate law label from a MINERALS key.
func MineralName(key string) string {
	name, _, _ := strings.Cut(key, LabelSeparator)
	return name
}

func simpleLine(n int, fields []string, _ string) (Entry, *Warning, bool) {
	return Entry{Key: fields[0], Values: fields[1:], Line: n}, nil, true
}

func parseBlock(lines *Lines, typ string, span Span, parse lineParser) (*Block, []Warning) {
	block := NewBlock(typ, span)
	var warnings []Warning
	for _, n := range lines.Between(span.Start, span.End) {
		text, _ := lines.Get(n)
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		entry, warn, ok := parse(n, fields, text)
		if warn != nil {
			warnings = append(warnings, *warn)
		}
		if ok {
			block.Set(entry)
		}
	}
	return block, warnings
}
