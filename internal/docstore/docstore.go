// Package docstore fetches long-form specification documents from the wiki
// and exposes them as titled sections. A missing document or missing section
// yields absent context, never a pipeline failure.
package docstore

import (
	"context"
	"strings"
)

// Client is the document-store collaborator contract.
type Client interface {
	// GetSections fetches the document at url and returns its content split
	// into sections keyed by lowercased heading text. The empty key holds
	// any preamble before the first heading.
	GetSections(ctx context.Context, url string) (map[string]string, error)
}

// SelectSection returns the first section whose key matches an entry of the
// priority list, along with whether anything matched. Matching is by
// substring so "functional requirements" satisfies a "requirements" entry.
func SelectSection(sections map[string]string, priorities []string) (string, bool) {
	for _, want := range priorities {
		want = strings.ToLower(want)
		if text, ok := sections[want]; ok && strings.TrimSpace(text) != "" {
			return text, true
		}
		for key, text := range sections {
			if strings.Contains(key, want) && strings.TrimSpace(text) != "" {
				return text, true
			}
		}
	}
	return "", false
}

// SplitSections breaks markdown into sections keyed by lowercased heading
// text. Heading depth is ignored; every "#"-prefixed line starts a new
// section.
func SplitSections(markdown string) map[string]string {
	sections := make(map[string]string)

	currentKey := ""
	var current strings.Builder

	flush := func() {
		text := strings.TrimSpace(current.String())
		if text != "" {
			sections[currentKey] = text
		}
		current.Reset()
	}

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			flush()
			currentKey = strings.ToLower(strings.TrimSpace(strings.TrimLeft(trimmed, "#")))
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	flush()

	return sections
}
