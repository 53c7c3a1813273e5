package template

import (
	"fmt"
	"path"
	"strings"
)

// NameData is what layout patterns render with.
type NameData struct {
	Run   int
	Stage int
	Base  string
	Ext   string
}

// Layout names run directories and the files written into them.
type Layout struct {
	engine *Engine
}

const (
	runDirTemplate    = "run_dir"
	fileTemplate      = "file_name"
	stageFileTemplate = "stage_file_name"
)

// NewLayout parses the three naming patterns.
func NewLayout(runDir, fileName, stageFileName string) (*Layout, error) {
	e := New()
	for name, content := range map[string]string{
		runDirTemplate:    runDir,
		fileTemplate:      fileName,
		stageFileTemplate: stageFileName,
	} {
		if err := e.LoadString(name, content); err != nil {
			return nil, fmt.Errorf("layout.%s: %w", name, err)
		}
	}
	return &Layout{engine: e}, nil
}

// RunDir returns the slash-separated directory for a run.
func (l *Layout) RunDir(run int) (string, error) {
	dir, err := l.render(runDirTemplate, NameData{Run: run, Stage: -1})
	if err != nil {
		return "", err
	}
	return path.Clean(dir), nil
}

// FileName names a file of a run. Stage -1 uses the unstaged pattern.
func (l *Layout) FileName(run, stage int, base, ext string) (string, error) {
	name := fileTemplate
	if stage >= 0 {
		name = stageFileTemplate
	}
	out, err := l.render(name, NameData{Run: run, Stage: stage, Base: base, Ext: ext})
	if err != nil {
		return "", err
	}
	if strings.Contains(out, "/") {
		return "", fmt.Errorf("layout.%s: %q must not contain a directory", name, out)
	}
	return out, nil
}

func (l *Layout) render(name string, data NameData) (string, error) {
	out, err := l.engine.Render(name, data)
	if err != nil {
		return "", fmt.Errorf("layout.%s: %w", name, err)
	}
	out = strings.TrimSpace(out)
	switch {
	case out == "":
		return "", fmt.Errorf("layout.%s rendered an empty name", name)
	case path.IsAbs(out), out == "..", strings.HasPrefix(out, "../"), strings.Contains(out, "/../"):
		return "", fmt.Errorf("layout.%s: %q escapes the output directory", name, out)
	}
	return out, nil
}
