package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestObserveAndWrite(t *testing.T) {
	m := New()
	m.ObserveRun(3, 12, 20*time.Millisecond)
	m.ObserveRun(3, 12, 40*time.Millisecond)
	m.Warnings.WithLabelValues("INITIAL_CONDITIONS").Inc()
	m.Succeeded(time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "rtsweep.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		"rtsweep_input_files_written_total 6",
		"rtsweep_values_applied_total 24",
		`rtsweep_template_warnings_total{block="INITIAL_CONDITIONS"} 1`,
		"rtsweep_run_write_seconds_count 2",
		"rtsweep_last_success_timestamp_seconds 1.7e+09",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in textfile:\n%s", want, out)
		}
	}
}

func TestGather(t *testing.T) {
	m := New()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	// The warnings vector has no children until a label is used.
	if len(families) != 4 {
		t.Errorf("Expected 4 metric families, got %d", len(families))
	}
}
