package inputfile

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// EndKeyword closes every block in the input format.
const EndKeyword = "END"

// Span is the pair of line numbers holding a block's header and its END.
type Span struct {
	Start int
	End   int
}

// MissingBlockError reports a keyword with no header line in the file.
type MissingBlockError struct {
	Keyword string
}

func (e *MissingBlockError) Error() string {
	return fmt.Sprintf("keyword %q not found in input file", e.Keyword)
}

// Locate finds every span opened by keyword and closed by END, allowing
// indented headers.
func Locate(lines *Lines, keyword string) ([]Span, error) {
	return LocateBetween(lines, keyword, EndKeyword, true)
}

// LocateBetween finds the spans opened by start and closed by end. Each start
// pairs with the nearest end at or after it; a start with no end after it is
// dropped.
func LocateBetween(lines *Lines, start, end string, allowIndent bool) ([]Span, error) {
	starts := matchLines(lines, start, allowIndent)
	if len(starts) == 0 {
		return nil, &MissingBlockError{Keyword: start}
	}
	ends := matchLines(lines, end, allowIndent)

	spans := make([]Span, 0, len(starts))
	for _, s := range starts {
		i := sort.SearchInts(ends, s)
		if i == len(ends) {
			continue
		}
		spans = append(spans, Span{Start: s, End: ends[i]})
	}
	return spans, nil
}

func matchLines(lines *Lines, keyword string, allowIndent bool) []int {
	var out []int
	for _, n := range lines.Numbers() {
		text, _ := lines.Get(n)
		if matchesKeyword(text, keyword, allowIndent) {
			out = append(out, n)
		}
	}
	return out
}

// matchesKeyword reports whether text opens with keyword as a whole word.
// Keywords followed by _LIST name a different block and never match.
// Lowercase "condition" headers are accepted for CONDITION.
func matchesKeyword(text, keyword string, allowIndent bool) bool {
	if allowIndent {
		text = strings.TrimLeft(text, " \t")
	}
	if keyword == ConditionKeyword && strings.HasPrefix(text, strings.ToLower(ConditionKeyword)) {
		keyword = strings.ToLower(ConditionKeyword)
	}
	rest, ok := strings.CutPrefix(text, keyword)
	if !ok {
		return false
	}
	if rest == "" {
		return true
	}
	if strings.HasPrefix(rest, "_LIST") {
		return false
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
