package cmd

import (
	"slices"
	"strings"
	"testing"

	"github.com/saltyorg/rtsweep/internal/config"
	"github.com/saltyorg/rtsweep/internal/inputfile"
	"github.com/saltyorg/rtsweep/internal/template"
)

func TestBuildScaffoldData(t *testing.T) {
	tmpl, err := inputfile.Load("../internal/inputfile/testdata/sample.in")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	data, err := buildScaffoldData(tmpl, 5)
	if err != nil {
		t.Fatalf("buildScaffoldData failed: %v", err)
	}

	if !slices.Contains(data.Conditions, "initial") {
		t.Errorf("Expected initial in conditions, got %v", data.Conditions)
	}

	lookup := func(category, group, key string) string {
		for _, c := range data.Categories {
			if c.Name != category {
				continue
			}
			for _, g := range c.Groups {
				if g.Name != group {
					continue
				}
				for _, e := range g.Entries {
					if e.Key == key {
						return e.Value
					}
				}
			}
		}
		return ""
	}

	tests := []struct {
		category, group, key, want string
	}{
		{"concentrations", "initial", "Fe++", "1.0E-06"},
		{"mineral_volumes", "initial", "Quartz", "0.35"},
		{"mineral_ssa", "initial", "Chromite", "0.5"},
		{"flow", "", "constant_flow", "0.5"},
		{"runtime", "", "timestep_max", "0.01"},
	}
	for _, tt := range tests {
		if got := lookup(tt.category, tt.group, tt.key); got != tt.want {
			t.Errorf("%s %s %s = %q, want %q", tt.category, tt.group, tt.key, got, tt.want)
		}
	}
}

func TestDefaultScaffoldTemplate(t *testing.T) {
	tmpl, err := inputfile.Load("../internal/inputfile/testdata/sample.in")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	data, err := buildScaffoldData(tmpl, 5)
	if err != nil {
		t.Fatalf("buildScaffoldData failed: %v", err)
	}
	data.Template = "sample.in"

	engine := template.New()
	if err := engine.LoadString("scaffold", defaultScaffoldTemplate); err != nil {
		t.Fatalf("LoadString failed: %v", err)
	}
	out, err := engine.Render("scaffold", data)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for _, want := range []string{
		"template: sample.in\n",
		"# concentrations:\n#   initial:\n",
		"#     Fe++: [constant, 1.0E-06]\n",
		"#   constant_flow: [constant, 0.5]\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in scaffold:\n%s", want, out)
		}
	}

	// The uncommented part must be a loadable config with an empty sweep.
	cfg, err := config.Parse([]byte(out), t.TempDir())
	if err != nil {
		t.Fatalf("Parse failed: %v\n%s", err, out)
	}
	if cfg.NumberOfFiles != 5 || cfg.Template != "sample.in" {
		t.Errorf("Unexpected config: %+v", cfg)
	}
	spec, err := cfg.Sweep()
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if len(spec.Entries) != 0 {
		t.Errorf("Expected empty sweep, got %d entries", len(spec.Entries))
	}
}
