package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/saltyorg/rtsweep/internal/category"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "column.in", "TITLE\nx\nEND\n")
	writeFile(t, dir, "aqueous.dbs", "&Aqueous\n/\n")
	path := writeFile(t, dir, "config.yml", `
template: column.in
aqueous_database: aqueous.dbs
number_of_files: 4
seed: 7
conditions: [initial]
restart_chain:
  stages: 2
destination:
  dir: out
manifest: runs.db
concentrations:
  initial:
    Fe++: [linspace, [1, 4]]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := cfg.TemplatePath(); got != filepath.Join(dir, "column.in") {
		t.Errorf("TemplatePath = %s", got)
	}
	if got := cfg.AuxPaths()[category.AqueousDatabase]; got != filepath.Join(dir, "aqueous.dbs") {
		t.Errorf("aqueous database path = %s", got)
	}
	if got := cfg.OutputDir(); got != filepath.Join(dir, "out") {
		t.Errorf("OutputDir = %s", got)
	}
	if cfg.DatabasePath() != "" || cfg.MetricsPath() != "" {
		t.Error("Expected unset paths to stay empty")
	}
	if cfg.SeedValue() != 7 {
		t.Errorf("SeedValue = %d, want 7", cfg.SeedValue())
	}
	if cfg.Stages() != 2 {
		t.Errorf("Stages = %d, want 2", cfg.Stages())
	}
	if cfg.Layout.RunDir != DefaultRunDir || cfg.Layout.StageFileName != DefaultStageFileName {
		t.Errorf("Expected default layout, got %+v", cfg.Layout)
	}

	spec, err := cfg.Sweep()
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if len(spec.Entries) != 1 || spec.Entries[0].Path() != "concentrations.initial.Fe++" {
		t.Errorf("Unexpected sweep entries: %+v", spec.Entries)
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "column.in", "TITLE\nx\nEND\n")

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing template", "number_of_files: 1\n", "template is required"},
		{"no runs", "template: column.in\n", "number_of_files must be positive"},
		{"negative workers", "template: column.in\nnumber_of_files: 1\nworkers: -1\n", "workers"},
		{"zero stages", "template: column.in\nnumber_of_files: 1\nrestart_chain: {stages: 0}\n", "restart_chain.stages"},
		{"profile count", "template: column.in\nnumber_of_files: 1\nrestart_chain: {stages: 2, spatial_profile: [[1]]}\n", "spatial_profile"},
		{"s3 bucket", "template: column.in\nnumber_of_files: 1\ndestination: {s3: {region: us-east-1}}\n", "destination.s3.bucket"},
		{"template missing", "template: nope.in\nnumber_of_files: 1\n", "does not exist"},
		{"database missing", "template: column.in\nnumber_of_files: 1\ndatabase: nope.dbs\n", "database does not exist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml), dir)
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestAbsolutePathsKept(t *testing.T) {
	cfg, err := Parse([]byte("template: /data/column.in\ndestination: {dir: /scratch}\n"), "/configs")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.TemplatePath() != "/data/column.in" || cfg.OutputDir() != "/scratch" {
		t.Errorf("Expected absolute paths unchanged, got %s and %s", cfg.TemplatePath(), cfg.OutputDir())
	}
}

func TestConfigKeysAreNotCategories(t *testing.T) {
	typ := reflect.TypeOf(Config{})
	for i := range typ.NumField() {
		tag := strings.Split(typ.Field(i).Tag.Get("yaml"), ",")[0]
		if tag == "" {
			continue
		}
		if _, ok := category.Lookup(tag); ok {
			t.Errorf("config key %q shadows a sweep category", tag)
		}
	}
}
