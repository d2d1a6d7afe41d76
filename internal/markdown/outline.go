package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-knowledge/internal/domain"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
)

// outlineHeadingPattern matches the heading depths surfaced in navigation.
// Deeper headings still render, they just stay out of the outline.
var outlineHeadingPattern = regexp.MustCompile(`^(#{1,3})[ \t]+(.+?)[ \t]*$`)

// Outline scans markdown for headings of level one through three and returns
// them in document order. Heading IDs derive from the zero-based line index,
// so they are stable for unchanged text. Fenced code blocks are skipped.
func Outline(source string) []interfaces.Heading {
	if strings.TrimSpace(source) == "" {
		return nil
	}

	var (
		headings []interfaces.Heading
		inFence  bool
	)
	for i, line := range strings.Split(normalizeNewlines(source), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		m := outlineHeadingPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		headings = append(headings, interfaces.Heading{
			ID:    fmt.Sprintf("h-%d", i),
			Level: len(m[1]),
			Text:  m[2],
		})
	}
	return headings
}

// EmergencyOutline builds the navigation outline for an emergency document
// from its populated sections, in the canonical order fixed by the domain.
// Every entry is level one.
func EmergencyOutline(sections domain.EmergencySections) []interfaces.Heading {
	list := sections.SectionList()
	if len(list) == 0 {
		return nil
	}

	headings := make([]interfaces.Heading, 0, len(list))
	for _, section := range list {
		headings = append(headings, interfaces.Heading{
			ID:    "section-" + section.Key,
			Level: 1,
			Text:  section.Title,
		})
	}
	return headings
}

// ComposeEmergency flattens structured sections into one markdown source with
// level-one section headings, ready for Render.
func ComposeEmergency(sections domain.EmergencySections) string {
	list := sections.SectionList()
	if len(list) == 0 {
		return ""
	}

	var out strings.Builder
	for i, section := range list {
		if i > 0 {
			out.WriteString("\n\n")
		}
		out.WriteString("# " + section.Title + "\n\n" + strings.TrimSpace(section.Body))
	}
	return out.String()
}
