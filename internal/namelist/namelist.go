// Package namelist reads and writes the Fortran namelist files that hold
// reaction parameters for the simulator's aqueous and catabolic databases.
package namelist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// NameParam identifies a reaction within its group.
const NameParam = "name"

// Param is one "key = value" assignment. Value keeps its source text,
// including quotes.
type Param struct {
	Key   string
	Value string
}

// Group is one "&Name ... /" record.
type Group struct {
	Name   string
	Params []Param
}

// Get returns a parameter's raw value.
func (g *Group) Get(key string) (string, bool) {
	for _, p := range g.Params {
		if strings.EqualFold(p.Key, key) {
			return p.Value, true
		}
	}
	return "", false
}

// Set assigns a parameter, appending it when absent.
func (g *Group) Set(key, value string) {
	for i, p := range g.Params {
		if strings.EqualFold(p.Key, key) {
			g.Params[i].Value = value
			return
		}
	}
	g.Params = append(g.Params, Param{Key: key, Value: value})
}

// Reaction returns the unquoted reaction name.
func (g *Group) Reaction() string {
	v, _ := g.Get(NameParam)
	return Unquote(v)
}

// File is a parsed namelist file.
type File struct {
	Path   string
	Groups []*Group
}

// Load reads a namelist file.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening namelist: %w", err)
	}
	defer f.Close()

	nml, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing namelist %s: %w", path, err)
	}
	nml.Path = path
	return nml, nil
}

// Parse reads namelist groups from r. Text outside groups and "!" comments
// are ignored. Assignments may share a line with each other, with the
// "&Group" header and with the "/" terminator; an item without "=" continues
// the previous value as an array element.
func Parse(r io.Reader) (*File, error) {
	nml := &File{}
	var current *Group

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(stripComment(scanner.Text()))
		if line == "" {
			continue
		}

		if current == nil {
			if !strings.HasPrefix(line, "&") {
				if line == "/" {
					return nil, fmt.Errorf("line %d: group terminator outside a group", lineNum)
				}
				continue
			}
			name, rest := strings.TrimPrefix(line, "&"), ""
			if i := strings.IndexAny(name, " \t"); i >= 0 {
				name, rest = name[:i], name[i+1:]
			}
			if name == "" {
				return nil, fmt.Errorf("line %d: group without a name", lineNum)
			}
			current = &Group{Name: name}
			line = strings.TrimSpace(rest)
		} else if strings.EqualFold(line, "&end") {
			line = "/"
		}

		closed, err := current.parseItems(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if closed {
			nml.Groups = append(nml.Groups, current)
			current = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if current != nil {
		return nil, fmt.Errorf("group %q is not terminated", current.Name)
	}
	return nml, nil
}

// parseItems adds the comma-separated assignments in text to g and reports
// whether text ends the group.
func (g *Group) parseItems(text string) (bool, error) {
	closed := false
	if i := indexUnquoted(text, '/'); i >= 0 {
		text, closed = text[:i], true
	}
	for _, item := range splitUnquoted(text, ',') {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		i := indexUnquoted(item, '=')
		if i < 0 {
			if len(g.Params) == 0 {
				return false, fmt.Errorf("expected key = value, got %q", item)
			}
			last := &g.Params[len(g.Params)-1]
			last.Value += ", " + item
			continue
		}
		g.Params = append(g.Params, Param{
			Key:   strings.TrimSpace(item[:i]),
			Value: strings.TrimSpace(item[i+1:]),
		})
	}
	return closed, nil
}

// Find returns the group of the given type whose name parameter is reaction.
func (f *File) Find(group, reaction string) (*Group, bool) {
	for _, g := range f.Groups {
		if strings.EqualFold(g.Name, group) && g.Reaction() == reaction {
			return g, true
		}
	}
	return nil, false
}

// Reactions lists the reaction names in groups of the given type.
func (f *File) Reactions(group string) []string {
	var out []string
	for _, g := range f.Groups {
		if strings.EqualFold(g.Name, group) {
			out = append(out, g.Reaction())
		}
	}
	return out
}

// Clone returns a deep copy.
func (f *File) Clone() *File {
	out := &File{Path: f.Path, Groups: make([]*Group, len(f.Groups))}
	for i, g := range f.Groups {
		out.Groups[i] = &Group{Name: g.Name, Params: append([]Param(nil), g.Params...)}
	}
	return out
}

// WriteTo writes the file in namelist syntax with aligned keys.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	for i, g := range f.Groups {
		if i > 0 {
			b.WriteString("\n")
		}
		width := 0
		for _, p := range g.Params {
			width = max(width, len(p.Key))
		}
		fmt.Fprintf(&b, "&%s\n", g.Name)
		for _, p := range g.Params {
			fmt.Fprintf(&b, "  %-*s = %s\n", width, p.Key, p.Value)
		}
		b.WriteString("/\n")
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// Unquote strips one pair of matching single or double quotes.
func Unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func stripComment(line string) string {
	if i := indexUnquoted(line, '!'); i >= 0 {
		return line[:i]
	}
	return line
}

// indexUnquoted returns the index of the first sep outside quotes, or -1.
func indexUnquoted(s string, sep byte) int {
	inQuote := byte(0)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote != 0:
			if c == inQuote {
				inQuote = 0
			}
		case c == '\'' || c == '"':
			inQuote = c
		case c == sep:
			return i
		}
	}
	return -1
}

func splitUnquoted(s string, sep byte) []string {
	var out []string
	for {
		i := indexUnquoted(s, sep)
		if i < 0 {
			return append(out, s)
		}
		out = append(out, s[:i])
		s = s[i+1:]
	}
}
