package template

import (
	"fmt"
	"slices"
	"strings"

	"github.com/saltyorg/rtsweep/internal/inputfile"
	"github.com/saltyorg/rtsweep/internal/sweep"
)

// InspectTemplateName is the engine name of the inspect report.
const InspectTemplateName = "inspect"

// Report contains all data needed to render the inspect report.
type Report struct {
	Path string
	Grid [3]int

	Blocks  []*BlockReport
	Missing []string

	Conditions []*ConditionReport

	// Changes is set when a sweep was evaluated alongside the template.
	Changes []*ChangeReport

	Warnings []string
}

// BlockReport describes one parsed keyword block.
type BlockReport struct {
	Name    string
	Start   int
	End     int
	Entries []EntryReport
}

// EntryReport is one block entry with its values joined.
type EntryReport struct {
	Key    string
	Values string
}

// ConditionReport describes one condition and where it applies.
type ConditionReport struct {
	Name       string
	Regions    []string
	Rows       []int
	Categories []CategoryReport
}

// CategoryReport lists the keys a condition holds in one category.
type CategoryReport struct {
	Name string
	Keys []string
}

// ChangeReport is one evaluated sweep entry.
type ChangeReport struct {
	Path      string
	Generator string
	Values    []string
}

var conditionCategories = []string{
	inputfile.Concentrations,
	inputfile.MineralVolumes,
	inputfile.Gases,
	inputfile.Parameters,
}

// BuildReport collects report data from a parsed template. eval may be nil.
// Conditions are classified as a side effect.
func BuildReport(t *inputfile.Template, eval *sweep.Evaluated) (*Report, error) {
	r := &Report{
		Path:    t.Path,
		Grid:    t.GridShape(),
		Missing: slices.Clone(t.Missing),
	}

	order := append(slices.Clone(inputfile.Keywords), inputfile.InitialConditionsKeyword, inputfile.IsotopesKeyword)
	for _, name := range order {
		b, ok := t.Block(name)
		if !ok {
			continue
		}
		br := &BlockReport{Name: name, Start: b.Span.Start + 1, End: b.Span.End + 1}
		for _, key := range b.Keys() {
			values, _ := b.Get(key)
			br.Entries = append(br.Entries, EntryReport{Key: key, Values: strings.Join(values, " ")})
		}
		r.Blocks = append(r.Blocks, br)
	}

	if err := t.Classify(); err != nil {
		return nil, fmt.Errorf("classifying conditions: %w", err)
	}
	for _, name := range t.ConditionOrder {
		cond, _ := t.Condition(name)
		cr := &ConditionReport{Name: name}
		for _, region := range cond.Regions {
			cr.Regions = append(cr.Regions, formatRegion(region))
		}

		rows, warnings, err := t.RowsForCondition(name)
		if err != nil {
			return nil, fmt.Errorf("mapping condition %s: %w", name, err)
		}
		cr.Rows = rows
		for _, w := range warnings {
			r.Warnings = append(r.Warnings, w.String())
		}

		for _, category := range conditionCategories {
			entries, err := cond.Category(category)
			if err != nil {
				return nil, err
			}
			if len(entries) == 0 {
				continue
			}
			keys := make([]string, 0, len(entries))
			for _, key := range cond.Keys() {
				if _, ok := entries[key]; ok {
					keys = append(keys, key)
				}
			}
			cr.Categories = append(cr.Categories, CategoryReport{Name: category, Keys: keys})
		}
		r.Conditions = append(r.Conditions, cr)
	}

	for _, w := range t.Warnings {
		r.Warnings = append(r.Warnings, w.String())
	}

	if eval != nil {
		for _, c := range eval.Changes {
			values := make([]string, len(c.Values))
			for i, v := range c.Values {
				values[i] = v.String()
			}
			r.Changes = append(r.Changes, &ChangeReport{Path: c.Path(), Generator: c.Generator.Name(), Values: values})
		}
	}

	return r, nil
}

func formatRegion(region inputfile.Region) string {
	if region == inputfile.Unapplied {
		return "unapplied"
	}
	parts := make([]string, len(region))
	for i, span := range region {
		parts[i] = fmt.Sprintf("%d-%d", span[0], span[1])
	}
	return strings.Join(parts, " ")
}

// DefaultInspectTemplate renders a Report as markdown.
const DefaultInspectTemplate = `# {{.Path}}

Grid: {{index .Grid 0}} x {{index .Grid 1}} x {{index .Grid 2}}

## Blocks

{{range .Blocks}}- {{.Name}} (lines {{.Start}}-{{.End}}): {{len .Entries}} entries
{{end}}
{{- if .Missing}}
Missing: {{join .Missing ", "}}
{{end}}
## Conditions
{{range .Conditions}}
### {{.Name}}

Regions: {{if .Regions}}{{join .Regions "; "}}{{else}}none{{end}}
Rows: {{rows .Rows}}
{{range .Categories}}- {{title (replace .Name "_" " ")}}: {{join .Keys ", "}}
{{end}}{{end}}
{{- if .Changes}}
## Sweep

| Entry | Generator | Values |
|---|---|---|
{{range .Changes}}| {{cell .Path}} | {{.Generator}} | {{cell (join .Values " ")}} |
{{end}}{{end}}
{{- if .Warnings}}
## Warnings

{{range .Warnings}}- {{.}}
{{end}}{{end}}`
