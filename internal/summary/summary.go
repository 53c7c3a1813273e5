// Package summary renders a markdown overview of a generated ensemble for
// the output directory index and for CI step summaries.
package summary

import (
	"fmt"
	"os"
	"strings"

	"github.com/saltyorg/rtsweep/internal/ensemble"
)

// collapseAfter is the row count above which tables are folded.
const collapseAfter = 10

// RunResult holds one written input file.
type RunResult struct {
	Run      int
	Stage    int
	Location string
	Edits    int
	Values   []ensemble.Assignment
}

// Summary holds the complete summary of a generate run.
type Summary struct {
	Template string
	Seed     uint64
	// Stages is 0 outside a restart chain.
	Stages   int
	Runs     []RunResult
	Missing  []string
	Warnings []string
}

// Add appends a run result.
func (s *Summary) Add(r RunResult) {
	s.Runs = append(s.Runs, r)
}

// Columns returns every swept path in first-seen order.
func (s *Summary) Columns() []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range s.Runs {
		for _, v := range r.Values {
			if !seen[v.Path] {
				seen[v.Path] = true
				cols = append(cols, v.Path)
			}
		}
	}
	return cols
}

// Markdown renders the summary.
func (s *Summary) Markdown() string {
	var sb strings.Builder

	sb.WriteString("## Ensemble\n\n")

	sb.WriteString("| Setting | Value |\n")
	sb.WriteString("|---------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Template | %s |\n", escape(s.Template)))
	sb.WriteString(fmt.Sprintf("| Seed | %d |\n", s.Seed))
	sb.WriteString(fmt.Sprintf("| Input files | %d |\n", len(s.Runs)))
	if s.Stages > 0 {
		sb.WriteString(fmt.Sprintf("| Restart stages | %d |\n", s.Stages))
	}
	if len(s.Warnings) > 0 {
		sb.WriteString(fmt.Sprintf("| Template warnings | %d |\n", len(s.Warnings)))
	}
	sb.WriteString("\n")

	if len(s.Runs) > 0 {
		cols := s.Columns()
		collapse := len(s.Runs) > collapseAfter
		if collapse {
			sb.WriteString("<details>\n")
			sb.WriteString(fmt.Sprintf("<summary><strong>Runs (%d files)</strong></summary>\n\n", len(s.Runs)))
		} else {
			sb.WriteString(fmt.Sprintf("### Runs (%d)\n\n", len(s.Runs)))
		}

		sb.WriteString("| Run | Stage | File |")
		for _, c := range cols {
			sb.WriteString(" " + escape(c) + " |")
		}
		sb.WriteString("\n|-----|-------|------|")
		sb.WriteString(strings.Repeat("---|", len(cols)))
		sb.WriteString("\n")

		for _, r := range s.Runs {
			stage := "-"
			if r.Stage >= 0 {
				stage = fmt.Sprint(r.Stage)
			}
			values := make(map[string]string, len(r.Values))
			for _, v := range r.Values {
				values[v.Path] = v.Value
			}
			sb.WriteString(fmt.Sprintf("| %d | %s | %s |", r.Run, stage, escape(r.Location)))
			for _, c := range cols {
				sb.WriteString(" " + escape(values[c]) + " |")
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")

		if collapse {
			sb.WriteString("</details>\n\n")
		}
	}

	if len(s.Missing) > 0 {
		sb.WriteString(fmt.Sprintf("**Blocks not in template:** %s\n\n", strings.Join(s.Missing, ", ")))
	}

	if len(s.Warnings) > 0 {
		sb.WriteString("<details>\n")
		sb.WriteString(fmt.Sprintf("<summary>Template warnings (%d)</summary>\n\n", len(s.Warnings)))
		for _, w := range s.Warnings {
			sb.WriteString(fmt.Sprintf("- `%s`\n", w))
		}
		sb.WriteString("\n</details>\n\n")
	}

	return sb.String()
}

// WriteGitHubSummary appends the summary to GITHUB_STEP_SUMMARY if running in GitHub Actions.
func (s *Summary) WriteGitHubSummary() error {
	if os.Getenv("GITHUB_ACTIONS") != "true" {
		return nil
	}

	summaryFile := os.Getenv("GITHUB_STEP_SUMMARY")
	if summaryFile == "" {
		return nil
	}

	f, err := os.OpenFile(summaryFile, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("opening summary file: %w", err)
	}
	defer f.Close()

	_, err = f.WriteString(s.Markdown())
	return err
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
