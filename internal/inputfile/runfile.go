package inputfile

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/saltyorg/rtsweep/internal/namelist"
)

// NoStage marks a run file that is not part of a restart chain.
const NoStage = -1

// RunFile is one run instance. It stores only its edits and reads everything
// else from the shared template, which it never modifies.
type RunFile struct {
	Template *Template
	FileNum  int
	StageNum int

	// Aux holds auxiliary namelists by config key. Entries are shared with
	// other runs until CloneAux is called.
	Aux map[string]*namelist.File

	edits map[*Block]*overlay
}

type overlay struct {
	set     map[string][]string
	deleted map[string]bool
	added   []string
}

// NewRunFile creates an unedited run file over t.
func NewRunFile(t *Template, fileNum int) *RunFile {
	return &RunFile{
		Template: t,
		FileNum:  fileNum,
		StageNum: NoStage,
		Aux:      make(map[string]*namelist.File),
		edits:    make(map[*Block]*overlay),
	}
}

// Derive returns an unedited run file over the same template with the same
// shared auxiliary files.
func (r *RunFile) Derive(fileNum, stageNum int) *RunFile {
	out := NewRunFile(r.Template, fileNum)
	out.StageNum = stageNum
	maps.Copy(out.Aux, r.Aux)
	return out
}

// CloneAux gives this run a private copy of an auxiliary namelist and returns it.
func (r *RunFile) CloneAux(key string) (*namelist.File, bool) {
	nml, ok := r.Aux[key]
	if !ok {
		return nil, false
	}
	private := nml.Clone()
	r.Aux[key] = private
	return private, true
}

func (r *RunFile) overlayFor(b *Block) *overlay {
	o, ok := r.edits[b]
	if !ok {
		o = &overlay{set: make(map[string][]string), deleted: make(map[string]bool)}
		r.edits[b] = o
	}
	return o
}

// Get returns the current values of an entry.
func (r *RunFile) Get(b *Block, key string) ([]string, bool) {
	if o, ok := r.edits[b]; ok {
		if o.deleted[key] {
			return nil, false
		}
		if v, ok := o.set[key]; ok {
			return v, true
		}
	}
	return b.Get(key)
}

// Set replaces an entry's values, adding the entry when the block lacks it.
func (r *RunFile) Set(b *Block, key string, values []string) {
	o := r.overlayFor(b)
	delete(o.deleted, key)
	if _, exists := o.set[key]; !exists && !b.Has(key) {
		o.added = append(o.added, key)
	}
	o.set[key] = append([]string(nil), values...)
}

// SetToken replaces one value of an entry. Negative positions count from the end.
func (r *RunFile) SetToken(b *Block, key string, pos int, value string) error {
	values, ok := r.Get(b, key)
	if !ok {
		return fmt.Errorf("%s has no entry %q", b.Type, key)
	}
	i := pos
	if i < 0 {
		i += len(values)
	}
	if i < 0 || i >= len(values) {
		return fmt.Errorf("%s entry %q has %d values, position %d out of range", b.Type, key, len(values), pos)
	}
	updated := append([]string(nil), values...)
	updated[i] = value
	r.Set(b, key, updated)
	return nil
}

// Delete removes an entry.
func (r *RunFile) Delete(b *Block, key string) {
	o := r.overlayFor(b)
	delete(o.set, key)
	if i := slices.Index(o.added, key); i >= 0 {
		o.added = slices.Delete(o.added, i, i+1)
	}
	if b.Has(key) {
		o.deleted[key] = true
	}
}

// Block returns a keyword block of the underlying template.
func (r *RunFile) Block(keyword string) (*Block, bool) {
	return r.Template.Block(keyword)
}

// ModifyCondition writes value at pos of a condition entry in the given
// category. The condition is classified first if it has not been.
func (r *RunFile) ModifyCondition(name, category, key string, pos int, value string) error {
	cond, ok := r.Template.Condition(name)
	if !ok {
		return fmt.Errorf("condition %q not found in template", name)
	}
	minerals, gases, primary := r.Template.SpeciesSets()
	cond.Classify(minerals, gases, primary)

	if !cond.InCategory(category, key) {
		return fmt.Errorf("condition %q has no %s entry %q", name, category, key)
	}
	return r.SetToken(cond.Block, key, pos, value)
}

// Edits returns the number of entries set, added or deleted.
func (r *RunFile) Edits() int {
	n := 0
	for _, o := range r.edits {
		n += len(o.set) + len(o.deleted)
	}
	return n
}

// WriteTo prints the run file. Lines of untouched entries, comments and
// headers are copied byte for byte; edited entries keep their indentation
// and are re-joined with single spaces; added entries go before END.
func (r *RunFile) WriteTo(w io.Writer) (int64, error) {
	t := r.Template
	var b strings.Builder

	for n := 0; n < t.Lines.Len(); n++ {
		for _, block := range t.ends[n] {
			o, ok := r.edits[block]
			if !ok {
				continue
			}
			indent := r.entryIndent(block)
			for _, key := range o.added {
				b.WriteString(indent)
				b.WriteString(strings.Join(append([]string{key}, o.set[key]...), " "))
				b.WriteString("\n")
			}
		}

		if owner, ok := t.owners[n]; ok {
			if o, edited := r.edits[owner.block]; edited {
				if o.deleted[owner.key] {
					continue
				}
				if values, ok := o.set[owner.key]; ok {
					e, _ := owner.block.Entry(owner.key)
					b.WriteString(t.Lines.indentOf(n))
					b.WriteString(strings.Join(e.Tokens(values), " "))
					b.WriteString("\n")
					continue
				}
			}
		}

		b.WriteString(t.Lines.Raw(n))
		if n < t.Lines.Len()-1 || t.Lines.trailingNewline {
			b.WriteString("\n")
		}
	}

	written, err := io.WriteString(w, b.String())
	return int64(written), err
}

// String returns the printed run file.
func (r *RunFile) String() string {
	var b strings.Builder
	_, _ = r.WriteTo(&b)
	return b.String()
}

func (r *RunFile) entryIndent(b *Block) string {
	keys := b.Keys()
	if len(keys) == 0 {
		return ""
	}
	e, _ := b.Entry(keys[0])
	return r.Template.Lines.indentOf(e.Line)
}
