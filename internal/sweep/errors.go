package sweep

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ConfigError reports a sweep specification that cannot be evaluated. It is
// fatal to evaluation.
type ConfigError struct {
	// Key is the dotted path of the offending entry.
	Key    string
	Reason string
	// Valid lists accepted alternatives, when there is a closed set.
	Valid []string
	// Suggestion is the closest valid alternative to a misspelt name.
	Suggestion string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	if e.Key != "" {
		fmt.Fprintf(&b, "%s: ", e.Key)
	}
	b.WriteString(e.Reason)
	if e.Suggestion != "" {
		fmt.Fprintf(&b, " (did you mean %q?)", e.Suggestion)
	}
	if len(e.Valid) > 0 {
		fmt.Fprintf(&b, "; valid options: %s", strings.Join(e.Valid, ", "))
	}
	return b.String()
}

func configErrorf(key, format string, args ...any) *ConfigError {
	return &ConfigError{Key: key, Reason: fmt.Sprintf(format, args...)}
}

// suggest returns the closest candidate within an edit distance scaled to
// the candidate's length, or "".
func suggest(name string, candidates []string) string {
	best, bestDist := "", -1
	for _, cand := range candidates {
		dist := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(cand))
		if dist > suggestionLimit(len(cand)) {
			continue
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = cand, dist
		}
	}
	return best
}

func suggestionLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}

// joinKey builds a dotted key path, skipping empty parts.
func joinKey(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}
