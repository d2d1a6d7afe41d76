package markdown

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-knowledge/internal/domain"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
)

// ParseFrontMatter extracts metadata and markdown body content from the
// provided source bytes. It returns the structured frontmatter, the markdown
// body without delimiters, and any error encountered.
func ParseFrontMatter(source []byte) (interfaces.FrontMatter, []byte, error) {
	var meta frontMatterEnvelope

	reader := bytes.NewReader(source)
	body, err := frontmatter.Parse(reader, &meta)
	if err != nil {
		return interfaces.FrontMatter{}, nil, fmt.Errorf("parse frontmatter: %w", err)
	}

	return envelopeToFrontMatter(meta), body, nil
}

// BuildDocument assembles an interfaces.MarkdownDocument from the supplied
// file path, raw content, and modification time. The checksum is left for
// the loader so it always covers the exact bytes read from disk.
func BuildDocument(path string, source []byte, modified time.Time) (*interfaces.MarkdownDocument, error) {
	meta, body, err := ParseFrontMatter(source)
	if err != nil {
		return nil, err
	}

	return &interfaces.MarkdownDocument{
		FilePath:     path,
		FrontMatter:  meta,
		Body:         body,
		LastModified: modified,
	}, nil
}

// Sections stays a raw map here so schema validation sees unknown keys the
// way the author wrote them instead of losing them to struct decoding.
type frontMatterEnvelope struct {
	Title    string         `yaml:"title"`
	Slug     string         `yaml:"slug"`
	Summary  string         `yaml:"summary"`
	Kind     string         `yaml:"kind"`
	Status   string         `yaml:"status"`
	Tags     []string       `yaml:"tags"`
	Sections map[string]any `yaml:"sections"`
	Custom   map[string]any `yaml:",inline"`
}

func envelopeToFrontMatter(env frontMatterEnvelope) interfaces.FrontMatter {
	if env.Custom == nil {
		env.Custom = map[string]any{}
	}

	raw := make(map[string]any, len(env.Custom)+7)
	for key, value := range env.Custom {
		raw[key] = value
	}

	if env.Title != "" {
		raw["title"] = env.Title
	}
	if env.Slug != "" {
		raw["slug"] = env.Slug
	}
	if env.Summary != "" {
		raw["summary"] = env.Summary
	}
	if env.Kind != "" {
		raw["kind"] = strings.ToLower(strings.TrimSpace(env.Kind))
	}
	if env.Status != "" {
		raw["status"] = strings.ToLower(strings.TrimSpace(env.Status))
	}
	if len(env.Tags) > 0 {
		tags := make([]any, len(env.Tags))
		for i, tag := range env.Tags {
			tags[i] = tag
		}
		raw["tags"] = tags
	}
	if len(env.Sections) > 0 {
		raw["sections"] = cloneMap(env.Sections)
	}

	return interfaces.FrontMatter{
		Title:    env.Title,
		Slug:     env.Slug,
		Summary:  env.Summary,
		Kind:     env.Kind,
		Status:   env.Status,
		Tags:     append([]string(nil), env.Tags...),
		Sections: sectionsFromMap(env.Sections),
		Custom:   cloneMap(env.Custom),
		Raw:      raw,
	}
}

func sectionsFromMap(raw map[string]any) domain.EmergencySections {
	pick := func(key string) string {
		value, ok := raw[key]
		if !ok {
			return ""
		}
		text, _ := value.(string)
		return text
	}
	return domain.EmergencySections{
		FaultScenario:  pick(domain.SectionFaultScenario),
		TriggerProcess: pick(domain.SectionTriggerProcess),
		Solution:       pick(domain.SectionSolution),
		Verification:   pick(domain.SectionVerification),
		Recovery:       pick(domain.SectionRecovery),
	}
}

func cloneMap(input map[string]any) map[string]any {
	if input == nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = value
	}
	return out
}
