package sink

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/saltyorg/rtsweep/internal/inputfile"
	"github.com/saltyorg/rtsweep/internal/namelist"
	"github.com/saltyorg/rtsweep/internal/template"
)

const column = `RUNTIME
time_units years
END

FLOW
constant_flow 0.5
END
`

func newLayout(t *testing.T) *template.Layout {
	t.Helper()
	l, err := template.NewLayout("run{{.Run}}", "{{.Base}}.{{.Ext}}", "{{.Base}}_stage{{.Stage}}.{{.Ext}}")
	if err != nil {
		t.Fatalf("NewLayout failed: %v", err)
	}
	return l
}

func newRunFiles(t *testing.T, run, stages int) []*inputfile.RunFile {
	t.Helper()
	tmpl, err := inputfile.Parse(inputfile.ParseLines(column))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	tmpl.Path = "/templates/column.in"

	nml, err := namelist.Parse(strings.NewReader("&Aqueous\n  name = 'r1'\n/\n"))
	if err != nil {
		t.Fatalf("namelist Parse failed: %v", err)
	}
	nml.Path = "/templates/aqueous.dbs"

	base := inputfile.NewRunFile(tmpl, run)
	base.Aux["aqueous_database"] = nml
	flow, _ := tmpl.Block("FLOW")

	if stages == 0 {
		base.Set(flow, "constant_flow", []string{"2"})
		return []*inputfile.RunFile{base}
	}
	var files []*inputfile.RunFile
	for s := 0; s < stages; s++ {
		rf := base.Derive(run, s)
		rf.Set(flow, "constant_flow", []string{"2"})
		files = append(files, rf)
	}
	return files
}

func TestWriterFS(t *testing.T) {
	out := t.TempDir()
	db := filepath.Join(t.TempDir(), "thermo.dbs")
	if err := os.WriteFile(db, []byte("database"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWriter(NewFS(out), newLayout(t), db)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	res, err := w.WriteRun(context.Background(), newRunFiles(t, 2, 0))
	if err != nil {
		t.Fatalf("WriteRun failed: %v", err)
	}

	if res.Run != 2 || res.Dir != "run2" || len(res.Inputs) != 1 || len(res.Extras) != 2 {
		t.Errorf("Unexpected output: %+v", res)
	}
	if res.Inputs[0].Edits != 1 || res.Inputs[0].Stage != inputfile.NoStage {
		t.Errorf("Unexpected input record: %+v", res.Inputs[0])
	}

	data, err := os.ReadFile(filepath.Join(out, "run2", "column.in"))
	if err != nil {
		t.Fatalf("Expected input file: %v", err)
	}
	if !strings.Contains(string(data), "constant_flow 2\n") {
		t.Errorf("Expected edited value in written file:\n%s", data)
	}
	for _, name := range []string{"aqueous.dbs", "thermo.dbs"} {
		if _, err := os.Stat(filepath.Join(out, "run2", name)); err != nil {
			t.Errorf("Expected %s in run directory: %v", name, err)
		}
	}
}

func TestWriterStages(t *testing.T) {
	out := t.TempDir()
	w, err := NewWriter(NewFS(out), newLayout(t))
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	res, err := w.WriteRun(context.Background(), newRunFiles(t, 0, 3))
	if err != nil {
		t.Fatalf("WriteRun failed: %v", err)
	}
	if len(res.Inputs) != 3 {
		t.Fatalf("Expected 3 inputs, got %d", len(res.Inputs))
	}
	for s := range 3 {
		name := filepath.Join(out, "run0", fmt.Sprintf("column_stage%d.in", s))
		if _, err := os.Stat(name); err != nil {
			t.Errorf("Expected %s: %v", name, err)
		}
	}
}

func TestWriterErrors(t *testing.T) {
	if _, err := NewWriter(NewFS(t.TempDir()), newLayout(t), "/does/not/exist.dbs"); err == nil {
		t.Error("Expected error for missing copy source")
	}

	w, _ := NewWriter(NewFS(t.TempDir()), newLayout(t))
	if _, err := w.WriteRun(context.Background(), nil); err == nil {
		t.Error("Expected error for empty run")
	}
	mixed := append(newRunFiles(t, 0, 0), newRunFiles(t, 1, 0)...)
	if _, err := w.WriteRun(context.Background(), mixed); err == nil {
		t.Error("Expected error for files from different runs")
	}
}

// fakeS3 records PutObject requests made against a path-style endpoint.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodPut && req.Body != nil {
		body, _ := io.ReadAll(req.Body)
		f.mu.Lock()
		f.objects[strings.TrimPrefix(req.URL.Path, "/")] = string(body)
		f.mu.Unlock()
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Etag": []string{`"etag"`}},
		Body:       io.NopCloser(strings.NewReader("")),
		Request:    req,
	}, nil
}

func TestS3Sink(t *testing.T) {
	fake := &fakeS3{objects: make(map[string]string)}
	s, err := NewS3(context.Background(), S3Config{
		Bucket:      "ensembles",
		Prefix:      "sweep-1",
		Region:      "us-east-1",
		Endpoint:    "http://s3.test.local",
		PathStyle:   true,
		Credentials: credentials.NewStaticCredentialsProvider("AKIA", "SECRET", ""),
		HTTPClient:  &http.Client{Transport: fake},
	})
	if err != nil {
		t.Fatalf("NewS3 failed: %v", err)
	}

	w, err := NewWriter(s, newLayout(t))
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	res, err := w.WriteRun(context.Background(), newRunFiles(t, 1, 0))
	if err != nil {
		t.Fatalf("WriteRun failed: %v", err)
	}

	if got := res.Inputs[0].Location; got != "s3://ensembles/sweep-1/run1/column.in" {
		t.Errorf("Location = %s", got)
	}
	body, ok := fake.objects["ensembles/sweep-1/run1/column.in"]
	if !ok {
		t.Fatalf("Expected object to be uploaded, got %v", fake.objects)
	}
	if !strings.Contains(body, "constant_flow 2") {
		t.Errorf("Unexpected object body: %q", body)
	}
	if _, ok := fake.objects["ensembles/sweep-1/run1/aqueous.dbs"]; !ok {
		t.Error("Expected namelist to be uploaded")
	}
}

func TestNewS3RequiresBucket(t *testing.T) {
	if _, err := NewS3(context.Background(), S3Config{}); err == nil {
		t.Error("Expected error without bucket")
	}
}
