package sink

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/saltyorg/rtsweep/internal/inputfile"
	"github.com/saltyorg/rtsweep/internal/template"
)

// Writer lays out run directories and writes them to a sink.
type Writer struct {
	sink   Sink
	layout *template.Layout
	copies []copied
}

type copied struct {
	name string
	data []byte
}

// Output records what was written for one run.
type Output struct {
	Run    int
	Dir    string
	Inputs []Input
	// Extras are the locations of namelists and copied files.
	Extras []string
}

// Input is one written input file.
type Input struct {
	Stage    int
	Location string
	Edits    int
}

// NewWriter creates a writer. Each path in copies is read once and written
// into every run directory under its base name.
func NewWriter(s Sink, layout *template.Layout, copies ...string) (*Writer, error) {
	w := &Writer{sink: s, layout: layout}
	for _, p := range copies {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		w.copies = append(w.copies, copied{name: filepath.Base(p), data: data})
	}
	return w, nil
}

// WriteRun writes one run's input files, one per stage, into its directory
// together with its namelists and the copied files. All files must belong
// to the same run.
func (w *Writer) WriteRun(ctx context.Context, files []*inputfile.RunFile) (*Output, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files to write")
	}
	run := files[0].FileNum
	dir, err := w.layout.RunDir(run)
	if err != nil {
		return nil, err
	}
	out := &Output{Run: run, Dir: dir}

	for _, rf := range files {
		if rf.FileNum != run {
			return nil, fmt.Errorf("input file for run %d written with run %d", rf.FileNum, run)
		}
		base, ext := rf.Template.BaseName()
		name, err := w.layout.FileName(run, rf.StageNum, base, ext)
		if err != nil {
			return nil, err
		}
		full := path.Join(dir, name)
		if err := w.sink.Put(ctx, full, []byte(rf.String())); err != nil {
			return nil, err
		}
		out.Inputs = append(out.Inputs, Input{Stage: rf.StageNum, Location: w.sink.Location(full), Edits: rf.Edits()})
	}

	aux := files[0].Aux
	for _, key := range slices.Sorted(maps.Keys(aux)) {
		nml := aux[key]
		name := key
		if nml.Path != "" {
			name = filepath.Base(nml.Path)
		}
		var b strings.Builder
		if _, err := nml.WriteTo(&b); err != nil {
			return nil, fmt.Errorf("printing %s: %w", key, err)
		}
		full := path.Join(dir, name)
		if err := w.sink.Put(ctx, full, []byte(b.String())); err != nil {
			return nil, err
		}
		out.Extras = append(out.Extras, w.sink.Location(full))
	}

	for _, c := range w.copies {
		full := path.Join(dir, c.name)
		if err := w.sink.Put(ctx, full, c.data); err != nil {
			return nil, err
		}
		out.Extras = append(out.Extras, w.sink.Location(full))
	}

	return out, nil
}
