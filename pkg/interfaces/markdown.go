package interfaces

import (
	"context"
	"time"

	"github.com/goliatone/go-knowledge/domain"
	"github.com/google/uuid"
)

// Heading is one outline entry for in-document navigation. IDs derived from
// line indexes are stable within a single render pass only.
type Heading struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// MarkdownEngine is the pure transform surface consumed by editors and
// previews. Implementations never fail: malformed or empty input degrades to
// empty output.
type MarkdownEngine interface {
	// Render converts markdown text into display markup.
	Render(text string) string
	// Reverse maps markup produced by Render back to markdown, best effort.
	Reverse(markup string) string
	// Outline scans markdown for headings and returns them in document order.
	Outline(source string) []Heading
	// EmergencyOutline lists the populated runbook sections in canonical order.
	EmergencyOutline(sections domain.EmergencySections) []Heading
}

// MarkdownDocument represents a markdown file with parsed metadata, shared
// between the importer and its callers so both depend on a stable contract.
type MarkdownDocument struct {
	FilePath     string
	FrontMatter  FrontMatter
	Body         []byte
	LastModified time.Time
	// Checksum stores a SHA-256 digest of the original file content so sync
	// workflows can detect changes without re-importing unchanged files.
	Checksum []byte
}

// FrontMatter models metadata extracted from markdown files. The Custom map
// keeps domain-specific values without schema changes.
type FrontMatter struct {
	Title    string                   `yaml:"title" json:"title"`
	Slug     string                   `yaml:"slug" json:"slug"`
	Summary  string                   `yaml:"summary" json:"summary"`
	Kind     string                   `yaml:"kind" json:"kind"`
	Status   string                   `yaml:"status" json:"status"`
	Tags     []string                 `yaml:"tags" json:"tags"`
	Sections domain.EmergencySections `yaml:"sections" json:"sections,omitempty"`
	Custom   map[string]any           `yaml:",inline" json:"custom"`
	Raw      map[string]any           `yaml:"-" json:"raw"`
}

// LoadOptions fine-tunes how documents are discovered and parsed from disk.
type LoadOptions struct {
	Recursive *bool
	Pattern   string
}

// ImportOptions controls how markdown documents become knowledge drafts.
type ImportOptions struct {
	// AuthorID is recorded as the creating/updating actor.
	AuthorID uuid.UUID
	// Publish publishes each imported draft once it passes validation.
	Publish bool
	// DryRun previews actions without persisting anything.
	DryRun bool
}

// ImportResult reports the outcome of an import run, exposing resource IDs so
// callers can audit behaviour or trigger follow-up actions.
type ImportResult struct {
	CreatedResourceIDs []uuid.UUID
	UpdatedResourceIDs []uuid.UUID
	SkippedResourceIDs []uuid.UUID
	Errors             []error
}

// DocumentImporter loads markdown files and drives the document lifecycle.
type DocumentImporter interface {
	Import(ctx context.Context, doc *MarkdownDocument, opts ImportOptions) (*ImportResult, error)
	ImportDirectory(ctx context.Context, dir string, opts ImportOptions) (*ImportResult, error)
}
