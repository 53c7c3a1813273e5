package inputfile

import (
	"fmt"
	"strings"
)

// Shape says how an entry's key and values are laid out on its line.
type Shape int

const (
	// KeyFirst lines print as "key values...".
	KeyFirst Shape = iota
	// HeadFirst lines print as "head values..."; the key is derived and
	// never printed (mineral labels, flow zones).
	HeadFirst
	// KeySecond lines print as "values[0] key values[1:]..." (isotopes,
	// initial conditions).
	KeySecond
)

// Entry is one parsed line of a block.
type Entry struct {
	Key    string
	Head   string
	Values []string
	Line   int
	Shape  Shape
}

// Tokens renders the entry as the whitespace separated fields of its line,
// using values in place of the parsed ones.
func (e *Entry) Tokens(values []string) []string {
	switch e.Shape {
	case HeadFirst:
		return append([]string{e.Head}, values...)
	case KeySecond:
		if len(values) == 0 {
			return []string{e.Key}
		}
		out := []string{values[0]}
		out = append(out, strings.Fields(e.Key)...)
		return append(out, values[1:]...)
	default:
		return append([]string{e.Key}, values...)
	}
}

// Block is a keyword-delimited section of the input file. Keys are unique:
// when a key repeats, the later line wins but the key keeps its first
// position in Keys.
type Block struct {
	Type    string
	Span    Span
	entries map[string]*Entry
	order   []string
}

// NewBlock creates an empty block.
func NewBlock(typ string, span Span) *Block {
	return &Block{
		Type:    typ,
		Span:    span,
		entries: make(map[string]*Entry),
	}
}

// Set stores an entry, overwriting any earlier entry with the same key.
func (b *Block) Set(e Entry) {
	if _, ok := b.entries[e.Key]; !ok {
		b.order = append(b.order, e.Key)
	}
	entry := e
	b.entries[e.Key] = &entry
}

// Entry returns the entry stored under key.
func (b *Block) Entry(key string) (*Entry, bool) {
	e, ok := b.entries[key]
	return e, ok
}

// Get returns the values stored under key.
func (b *Block) Get(key string) ([]string, bool) {
	e, ok := b.entries[key]
	if !ok {
		return nil, false
	}
	return e.Values, true
}

// Has reports whether key is present.
func (b *Block) Has(key string) bool {
	_, ok := b.entries[key]
	return ok
}

// Keys returns the keys in file order.
func (b *Block) Keys() []string {
	return b.order
}

// Len returns the number of entries.
func (b *Block) Len() int {
	return len(b.order)
}

// Contents returns a copy of the block as a plain key to values map.
func (b *Block) Contents() map[string][]string {
	out := make(map[string][]string, len(b.entries))
	for k, e := range b.entries {
		out[k] = append([]string(nil), e.Values...)
	}
	return out
}

func (b *Block) String() string {
	return fmt.Sprintf("%s[%d-%d] (%d entries)", b.Type, b.Span.Start, b.Span.End, len(b.order))
}
