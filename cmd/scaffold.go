package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/saltyorg/rtsweep/internal/category"
	"github.com/saltyorg/rtsweep/internal/inputfile"
	"github.com/saltyorg/rtsweep/internal/template"
	"github.com/spf13/cobra"
)

var (
	scaffoldTemplate string
	scaffoldOutput   string
	scaffoldForce    bool
	scaffoldRuns     int
)

var scaffoldCmd = &cobra.Command{
	Use:   "scaffold <template.in>",
	Short: "Generate a starter config from a template",
	Long: `Generate a starter config from a template.

Every sweepable key the template holds is listed, commented out, with its
current value as a constant generator. Uncomment the entries to vary.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return scaffoldConfig(args[0])
	},
}

func init() {
	scaffoldCmd.Flags().StringVar(&scaffoldTemplate, "template", "", "path to a custom scaffold template")
	scaffoldCmd.Flags().StringVarP(&scaffoldOutput, "output", "o", "config.yml", "output path")
	scaffoldCmd.Flags().BoolVar(&scaffoldForce, "force", false, "overwrite existing file if present")
	scaffoldCmd.Flags().IntVar(&scaffoldRuns, "runs", 10, "number_of_files to start with")
	rootCmd.AddCommand(scaffoldCmd)
}

// ScaffoldData contains data for the scaffold template.
type ScaffoldData struct {
	Template   string // relative to the output file when possible
	Runs       int
	Conditions []string
	Categories []ScaffoldCategory
}

// ScaffoldCategory is one sweep category with the keys the template holds.
type ScaffoldCategory struct {
	Name string
	// Groups holds one entry per condition for condition categories, and a
	// single unnamed group for block categories.
	Groups []ScaffoldGroup
}

// ScaffoldGroup lists keys under one condition, or directly under a category.
type ScaffoldGroup struct {
	Name    string
	Entries []ScaffoldEntry
}

// ScaffoldEntry is a key and the value a sweep would replace.
type ScaffoldEntry struct {
	Key   string
	Value string
}

func scaffoldConfig(templatePath string) error {
	if _, err := os.Stat(scaffoldOutput); err == nil && !scaffoldForce {
		return fmt.Errorf("file %s already exists (use --force to overwrite)", scaffoldOutput)
	}

	tmpl, err := inputfile.Load(templatePath)
	if err != nil {
		return fmt.Errorf("loading template: %w", err)
	}
	data, err := buildScaffoldData(tmpl, scaffoldRuns)
	if err != nil {
		return err
	}
	if rel, err := relativeTo(filepath.Dir(scaffoldOutput), templatePath); err == nil {
		data.Template = rel
	}

	engine := template.New()
	if scaffoldTemplate != "" {
		err = engine.LoadFile("scaffold", scaffoldTemplate)
	} else {
		err = engine.LoadString("scaffold", defaultScaffoldTemplate)
	}
	if err != nil {
		return fmt.Errorf("parsing scaffold template: %w", err)
	}

	output, err := engine.Render("scaffold", data)
	if err != nil {
		return fmt.Errorf("executing template: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(scaffoldOutput), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(scaffoldOutput, []byte(output), 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Created %s\n", scaffoldOutput)
	return nil
}

func relativeTo(dir, path string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.Rel(absDir, absPath)
}

// buildScaffoldData lists every key a sweep could address in t. Namelist
// categories are left out because they need their own files.
func buildScaffoldData(t *inputfile.Template, runs int) (*ScaffoldData, error) {
	if err := t.Classify(); err != nil {
		return nil, fmt.Errorf("classifying conditions: %w", err)
	}

	data := &ScaffoldData{
		Template:   t.Path,
		Runs:       runs,
		Conditions: t.ConditionOrder,
	}

	for _, target := range category.All() {
		sc := ScaffoldCategory{Name: target.Name}

		switch target.Scope {
		case category.ScopeCondition:
			for _, name := range t.ConditionOrder {
				cond, _ := t.Condition(name)
				entries, err := cond.Category(target.Block)
				if err != nil {
					return nil, err
				}
				group := ScaffoldGroup{Name: name}
				for _, key := range cond.Keys() {
					if values, ok := entries[key]; ok {
						if v, ok := valueAt(values, target.Position); ok {
							group.Entries = append(group.Entries, ScaffoldEntry{Key: key, Value: v})
						}
					}
				}
				if len(group.Entries) > 0 {
					sc.Groups = append(sc.Groups, group)
				}
			}

		case category.ScopeBlock:
			b, ok := t.Block(target.Block)
			if !ok {
				continue
			}
			var group ScaffoldGroup
			for _, key := range b.Keys() {
				values, _ := b.Get(key)
				if v, ok := valueAt(values, target.Position); ok {
					group.Entries = append(group.Entries, ScaffoldEntry{Key: key, Value: v})
				}
			}
			if len(group.Entries) > 0 {
				sc.Groups = append(sc.Groups, group)
			}

		default:
			continue
		}

		if len(sc.Groups) > 0 {
			data.Categories = append(data.Categories, sc)
		}
	}

	return data, nil
}

// valueAt returns values[pos], counting from the end when pos is negative.
func valueAt(values []string, pos int) (string, bool) {
	if pos < 0 {
		pos += len(values)
	}
	if pos < 0 || pos >= len(values) {
		return "", false
	}
	v := values[pos]
	if strings.ContainsAny(v, ":#'\"") {
		return "", false
	}
	return v, true
}

const defaultScaffoldTemplate = `# Sweep config for {{.Template}}
template: {{.Template}}
number_of_files: {{.Runs}}
# seed: 1
# workers: 4
# database: datacom.dbs
# aqueous_database: aqueous.dbs
# catabolic_pathways: CatabolicPathways.in
{{- if .Conditions}}
conditions: [{{join .Conditions ", "}}]
{{- end}}

# restart_chain:
#   stages: 2

destination:
  dir: runs
{{range .Categories}}
# {{.Name}}:
{{- range .Groups}}{{if .Name}}
#   {{.Name}}:{{range .Entries}}
#     {{.Key}}: [constant, {{.Value}}]{{end}}{{else}}{{range .Entries}}
#   {{.Key}}: [constant, {{.Value}}]{{end}}{{end}}{{end}}
{{end}}`
