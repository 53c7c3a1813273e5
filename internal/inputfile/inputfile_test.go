package inputfile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func loadSample(t *testing.T) *Template {
	t.Helper()
	tmpl, err := Load(filepath.Join("testdata", "sample.in"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return tmpl
}

func TestParseLinesDropsComments(t *testing.T) {
	lines := ParseLines("RUNTIME   \n! a comment\ntime_units years\t\nEND\n")

	if got := lines.Numbers(); !reflect.DeepEqual(got, []int{0, 2, 3}) {
		t.Errorf("Expected line numbers [0 2 3], got %v", got)
	}
	if text, _ := lines.Get(0); text != "RUNTIME" {
		t.Errorf("Expected trailing whitespace stripped, got %q", text)
	}
	if _, ok := lines.Get(1); ok {
		t.Error("Expected comment line to be hidden from lookups")
	}
	if lines.Raw(1) != "! a comment" {
		t.Errorf("Expected raw comment to be kept, got %q", lines.Raw(1))
	}
}

func TestLocate(t *testing.T) {
	text := strings.Join([]string{
		"PRIMARY_SPECIES_LIST", // 0
		"END",                  // 1
		"  PRIMARY_SPECIES",    // 2
		"H+",                   // 3
		"END",                  // 4
		"PRIMARY_SPECIESX",     // 5
		"END",                  // 6
		"CONDITION a",          // 7
		"END",                  // 8
		"condition b",          // 9
		"END",                  // 10
		"CONDITION dangling",   // 11
	}, "\n")
	lines := ParseLines(text)

	tests := []struct {
		keyword string
		want    []Span
	}{
		{"PRIMARY_SPECIES", []Span{{2, 4}}},
		{"CONDITION", []Span{{7, 8}, {9, 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			got, err := Locate(lines, tt.keyword)
			if err != nil {
				t.Fatalf("Locate failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Locate(%q) = %v, want %v", tt.keyword, got, tt.want)
			}
		})
	}

	if _, err := LocateBetween(lines, "PRIMARY_SPECIES", "END", false); err == nil {
		t.Error("Expected indented header to be rejected without leading whitespace allowance")
	}

	_, err := Locate(lines, "GASES")
	var missing *MissingBlockError
	if !errors.As(err, &missing) || missing.Keyword != "GASES" {
		t.Errorf("Expected MissingBlockError for GASES, got %v", err)
	}
}

func TestLowercaseConditionOnlyOpensConditions(t *testing.T) {
	lines := ParseLines("GASES\nCO2(g)\ncondition b\nEND\n")

	got, err := LocateBetween(lines, "GASES", "END", true)
	if err != nil {
		t.Fatalf("LocateBetween failed: %v", err)
	}
	if !reflect.DeepEqual(got, []Span{{0, 3}}) {
		t.Errorf("GASES spans = %v, want [{0 3}]", got)
	}
	if _, err := LocateBetween(lines, "TITLE", "END", true); err == nil {
		t.Error("Expected lowercase condition header not to match TITLE")
	}
}

func TestParseSimpleLastWriteWins(t *testing.T) {
	lines := ParseLines("TRANSPORT\nfix_diffusion 1.0\n\nfix_diffusion 2.0\nformation_factor 1.0\nEND\n")
	block, warnings := ParseSimple(lines, "TRANSPORT", Span{Start: 0, End: 5})

	if len(warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", warnings)
	}
	if got := block.Keys(); !reflect.DeepEqual(got, []string{"fix_diffusion", "formation_factor"}) {
		t.Errorf("Expected keys in first-seen order, got %v", got)
	}
	values, _ := block.Get("fix_diffusion")
	if !reflect.DeepEqual(values, []string{"2.0"}) {
		t.Errorf("Expected later line to win, got %v", values)
	}
	if e, _ := block.Entry("fix_diffusion"); e.Line != 3 {
		t.Errorf("Expected entry to point at line 3, got %d", e.Line)
	}
}

func TestIrregularBlocks(t *testing.T) {
	tmpl := loadSample(t)

	iso, ok := tmpl.Block(IsotopesKeyword)
	if !ok {
		t.Fatal("Expected ISOTOPES block")
	}
	if values, _ := iso.Get("Chromite53"); !reflect.DeepEqual(values, []string{"mineral", "Chromite", "bulk", "0.11339"}) {
		t.Errorf("Unexpected isotope values %v", values)
	}

	ic, _ := tmpl.Block(InitialConditionsKeyword)
	if values, _ := ic.Get("1-2 1-2 1-1"); !reflect.DeepEqual(values, []string{"initial"}) {
		t.Errorf("Unexpected initial condition values %v", values)
	}

	flow, _ := tmpl.Block(FlowKeyword)
	for _, key := range []string{"permeability_x 1-2 1-2 1-1", "permeability_x 1-1 1-1 1-1", "constant_flow"} {
		if !flow.Has(key) {
			t.Errorf("Expected FLOW key %q, have %v", key, flow.Keys())
		}
	}

	minerals, _ := tmpl.Block(MineralsKeyword)
	if got := minerals.Keys(); !reflect.DeepEqual(got, []string{"Quartz&default", "Chromite&default", "Chromite&fast"}) {
		t.Errorf("Unexpected mineral keys %v", got)
	}
}

func TestInitialConditionsFix(t *testing.T) {
	lines := ParseLines("INITIAL_CONDITIONS\ninitial 1-10 fix\nno_ranges here\nEND\n")
	block, warnings := ParseInitialConditions(lines, Span{Start: 0, End: 3})

	if values, _ := block.Get("1-10"); !reflect.DeepEqual(values, []string{"initial", "fix"}) {
		t.Errorf("Expected fix flag to be kept, got %v", values)
	}
	if len(warnings) != 1 || warnings[0].Line != 2 {
		t.Errorf("Expected one warning for line 2, got %v", warnings)
	}
}

func TestTemplateMissingBlocks(t *testing.T) {
	tmpl := loadSample(t)
	want := []string{"SECONDARY_SPECIES", "ION_EXCHANGE", "SURFACE_COMPLEXATION", "TEMPERATURE", "POROSITY", "PEST", "EROSION/BURIAL"}
	if !reflect.DeepEqual(tmpl.Missing, want) {
		t.Errorf("Missing = %v, want %v", tmpl.Missing, want)
	}
	if got := tmpl.ConditionOrder; !reflect.DeepEqual(got, []string{"initial", "boundary", "unused"}) {
		t.Errorf("Unexpected condition order %v", got)
	}
}

func TestClassifyIdempotent(t *testing.T) {
	tmpl := loadSample(t)
	if err := tmpl.Classify("initial"); err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	cond, _ := tmpl.Condition("initial")

	snapshot := func() map[string]map[string][]string {
		out := make(map[string]map[string][]string)
		for _, name := range []string{Concentrations, MineralVolumes, Gases, Parameters} {
			m, err := cond.Category(name)
			if err != nil {
				t.Fatalf("Category(%s) failed: %v", name, err)
			}
			out[name] = m
		}
		return out
	}
	first := snapshot()

	if got := len(first[Concentrations]); got != 4 {
		t.Errorf("Expected 4 concentrations, got %d", got)
	}
	if _, ok := first[MineralVolumes]["Chromite"]; !ok {
		t.Error("Expected Chromite to be classified as a mineral volume")
	}
	if _, ok := first[Gases]["CO2(g)"]; !ok {
		t.Error("Expected CO2(g) to be classified as a gas")
	}
	if _, ok := first[Parameters]["pH"]; !ok {
		t.Error("Expected pH to fall through to parameters")
	}

	minerals, gases, primary := tmpl.SpeciesSets()
	cond.Classify(minerals, gases, primary)

	if second := snapshot(); !reflect.DeepEqual(first, second) {
		t.Errorf("Second classification changed categories:\nfirst  %v\nsecond %v", first, second)
	}
}

func TestRowsForCondition(t *testing.T) {
	tmpl := loadSample(t)

	if shape := tmpl.GridShape(); shape != [3]int{2, 2, 1} {
		t.Fatalf("Expected 2x2x1 grid, got %v", shape)
	}

	rows, warnings, err := tmpl.RowsForCondition("initial")
	if err != nil {
		t.Fatalf("RowsForCondition failed: %v", err)
	}
	if !reflect.DeepEqual(rows, []int{0, 1, 2, 3}) {
		t.Errorf("Expected rows [0 1 2 3], got %v", rows)
	}
	if len(warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", warnings)
	}

	rows, warnings, err = tmpl.RowsForCondition("unused")
	if err != nil {
		t.Fatalf("Expected sentinel region to be skipped, got error %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected no rows for unapplied condition, got %v", rows)
	}
	if len(warnings) != 1 {
		t.Errorf("Expected one diagnostic, got %v", warnings)
	}

	if _, _, err := tmpl.RowsForCondition("nowhere"); err == nil {
		t.Error("Expected error for unknown condition")
	}
}

func TestRowsWithoutDiscretization(t *testing.T) {
	tests := []struct {
		name  string
		disc  string
		shape [3]int
		rows  []int
	}{
		{"no block", "", [3]int{2, 2, 1}, []int{0, 1, 2, 3}},
		{"x only", "DISCRETIZATION\nxzones 3 1.0\nEND\n", [3]int{3, 2, 1}, []int{0, 1, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := tt.disc +
				"INITIAL_CONDITIONS\nslab 1-2 1-2 1-1\nEND\n" +
				"CONDITION slab\npH 7\nEND\n"
			tmpl, err := Parse(ParseLines(text))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if shape := tmpl.GridShape(); shape != tt.shape {
				t.Errorf("GridShape = %v, want %v", shape, tt.shape)
			}
			rows, warnings, err := tmpl.RowsForCondition("slab")
			if err != nil {
				t.Fatalf("RowsForCondition failed: %v", err)
			}
			if !reflect.DeepEqual(rows, tt.rows) {
				t.Errorf("rows = %v, want %v", rows, tt.rows)
			}
			if len(warnings) != 0 {
				t.Errorf("Expected no warnings, got %v", warnings)
			}
		})
	}
}

func TestRowsForConditionLargerGrid(t *testing.T) {
	text := "DISCRETIZATION\nxzones 3 1.0\nyzones 2 1.0\nzzones 2 1.0\nEND\n" +
		"INITIAL_CONDITIONS\nslab 2-3 2-2 2-2\nEND\n" +
		"CONDITION slab\npH 7\nEND\n"
	tmpl, err := Parse(ParseLines(text))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	rows, _, err := tmpl.RowsForCondition("slab")
	if err != nil {
		t.Fatalf("RowsForCondition failed: %v", err)
	}
	// x in {1,2}, y=1, z=1 on a 3x2x2 grid
	if want := []int{10, 11}; !reflect.DeepEqual(rows, want) {
		t.Errorf("Expected rows %v, got %v", want, rows)
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join("testdata", "sample.in")
	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading sample: %v", err)
	}
	tmpl := loadSample(t)

	if got := NewRunFile(tmpl, 0).String(); got != string(original) {
		t.Errorf("Unmutated run file differs from template:\n%s", got)
	}
}

func TestRunFileEdits(t *testing.T) {
	tmpl := loadSample(t)
	run := NewRunFile(tmpl, 3)

	runtime, _ := run.Block("RUNTIME")
	if err := run.SetToken(runtime, "timestep_max", -1, "0.5"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}
	run.Delete(runtime, "later_inputfiles")
	run.Set(runtime, "save_restart", []string{"restart_3_stage0.rst"})

	minerals, _ := run.Block(MineralsKeyword)
	if err := run.SetToken(minerals, "Chromite&fast", -1, "-8.5"); err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}
	if err := run.ModifyCondition("initial", Concentrations, "SO4--", -1, "0.02"); err != nil {
		t.Fatalf("ModifyCondition failed: %v", err)
	}
	if err := run.ModifyCondition("initial", Concentrations, "pH", -1, "6"); err == nil {
		t.Error("Expected pH to be rejected as a concentration")
	}

	out := run.String()
	for _, want := range []string{
		"timestep_max 0.5\n",
		"save_restart restart_3_stage0.rst\nEND\n\nOUTPUT",
		"Chromite -label fast -rate -8.5\n",
		"SO4-- 0.02\n",
		"Chromite    -label default  -rate  -11.0\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q", want)
		}
	}
	if strings.Contains(out, "later_inputfiles") {
		t.Error("Expected later_inputfiles to be removed")
	}

	if original := NewRunFile(tmpl, 0).String(); strings.Contains(original, "save_restart") {
		t.Error("Edits leaked into the shared template")
	}
	if run.Edits() != 5 {
		t.Errorf("Expected 5 edits, got %d", run.Edits())
	}
}

func TestTemperatureFile(t *testing.T) {
	tmpl, err := Parse(ParseLines("TEMPERATURE\nread_temperaturefile  temps.dat\nEND\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got, ok := tmpl.TemperatureFile(); !ok || got != "temps.dat" {
		t.Errorf("TemperatureFile = %q, %v", got, ok)
	}

	tmpl = loadSample(t)
	if _, ok := tmpl.TemperatureFile(); ok {
		t.Error("Expected no temperature file in sample")
	}
}
