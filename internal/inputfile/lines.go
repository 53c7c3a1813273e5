// Package inputfile parses keyword/END delimited simulator input files into
// blocks, and prints run files derived from them back to text.
package inputfile

import (
	"fmt"
	"os"
	"strings"
)

// CommentPrefix marks a line the simulator ignores.
const CommentPrefix = "!"

// Lines holds the text of an input file indexed by 0-based line number.
// Comment lines are kept for printing but are invisible to lookups, so the
// numbering of the remaining lines has gaps.
type Lines struct {
	raw             []string
	trimmed         map[int]string
	numbers         []int
	trailingNewline bool
}

// ReadLines reads an input file from disk.
func ReadLines(path string) (*Lines, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}
	return ParseLines(string(content)), nil
}

// ParseLines splits text into a line store.
func ParseLines(text string) *Lines {
	l := &Lines{trimmed: make(map[int]string)}
	if text == "" {
		return l
	}

	l.trailingNewline = strings.HasSuffix(text, "\n")
	l.raw = strings.Split(strings.TrimSuffix(text, "\n"), "\n")

	for n, line := range l.raw {
		if strings.HasPrefix(line, CommentPrefix) {
			continue
		}
		l.trimmed[n] = strings.TrimRight(line, " \t\r")
		l.numbers = append(l.numbers, n)
	}
	return l
}

// Get returns the trimmed text of a non-comment line.
func (l *Lines) Get(n int) (string, bool) {
	text, ok := l.trimmed[n]
	return text, ok
}

// Numbers returns the non-comment line numbers in ascending order.
func (l *Lines) Numbers() []int {
	return l.numbers
}

// Between returns the non-comment line numbers strictly inside (start, end).
func (l *Lines) Between(start, end int) []int {
	var out []int
	for _, n := range l.numbers {
		if n <= start {
			continue
		}
		if n >= end {
			break
		}
		out = append(out, n)
	}
	return out
}

// Raw returns the untouched text of any line, comments included.
func (l *Lines) Raw(n int) string {
	if n < 0 || n >= len(l.raw) {
		return ""
	}
	return l.raw[n]
}

// Len returns the total number of lines, comments included.
func (l *Lines) Len() int {
	return len(l.raw)
}

// indentOf returns the leading whitespace of a raw line.
func (l *Lines) indentOf(n int) string {
	raw := l.Raw(n)
	return raw[:len(raw)-len(strings.TrimLeft(raw, " \t"))]
}
