package summary

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// SectionName marks the part of an index file rewritten on every generate.
const SectionName = "RTSWEEP ENSEMBLE"

// ManagedSection is a span of content between BEGIN and END markers.
type ManagedSection struct {
	Name       string
	Content    string // between the markers
	StartIndex int    // of the start marker
	EndIndex   int    // after the end marker
}

func markers(name string) (start, end string) {
	return fmt.Sprintf("<!-- BEGIN %s -->", name), fmt.Sprintf("<!-- END %s -->", name)
}

// FindManagedSection finds a managed section in the given content.
// Returns nil if the section is not found.
func FindManagedSection(content, name string) *ManagedSection {
	startMarker, endMarker := markers(name)

	startIdx := strings.Index(content, startMarker)
	if startIdx == -1 {
		return nil
	}

	endIdx := strings.Index(content[startIdx:], endMarker)
	if endIdx == -1 {
		return nil
	}
	endIdx += startIdx + len(endMarker)

	return &ManagedSection{
		Name:       name,
		Content:    content[startIdx+len(startMarker) : endIdx-len(endMarker)],
		StartIndex: startIdx,
		EndIndex:   endIdx,
	}
}

// CreateManagedSection wraps content in markers.
func CreateManagedSection(name, content string) string {
	startMarker, endMarker := markers(name)
	var builder strings.Builder
	builder.WriteString(startMarker)
	builder.WriteString("\n")
	builder.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		builder.WriteString("\n")
	}
	builder.WriteString(endMarker)
	return builder.String()
}

// UpsertManagedSection replaces the named section, or appends it when the
// content has none. Text outside the markers is kept.
func UpsertManagedSection(content, name, newContent string) string {
	section := FindManagedSection(content, name)
	if section == nil {
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		if content != "" {
			content += "\n"
		}
		return content + CreateManagedSection(name, newContent) + "\n"
	}
	return content[:section.StartIndex] + CreateManagedSection(name, newContent) + content[section.EndIndex:]
}

// UpdateIndexFile rewrites the managed section of a local markdown file,
// creating the file when it does not exist.
func UpdateIndexFile(path, content string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading index: %w", err)
	}
	updated := UpsertManagedSection(string(existing), SectionName, content)
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}
