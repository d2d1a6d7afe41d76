package markdown

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/goliatone/go-knowledge/document"
	"github.com/goliatone/go-knowledge/internal/domain"
	"github.com/goliatone/go-knowledge/internal/identity"
	"github.com/goliatone/go-knowledge/internal/logging"
	"github.com/goliatone/go-knowledge/internal/validation"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
)

var (
	ErrDocumentServiceRequired = errors.New("markdown importer: document service is required")
	ErrLoaderRequired          = errors.New("markdown importer: loader is required")
	ErrNilDocument             = errors.New("markdown importer: nil document")
)

// ImporterConfig encapsulates dependencies required to turn markdown files
// into lifecycle operations.
type ImporterConfig struct {
	Documents document.Service
	Loader    *Loader
	Logger    interfaces.Logger
}

// Importer drives the document lifecycle from markdown sources. Each file
// maps to one resource through a deterministic ResourceID derived from its
// relative path, so re-importing the same tree updates instead of
// duplicating.
type Importer struct {
	documents document.Service
	loader    *Loader
	logger    interfaces.Logger
}

// NewImporter builds an Importer from the supplied configuration.
func NewImporter(cfg ImporterConfig) *Importer {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Importer{
		documents: cfg.Documents,
		loader:    cfg.Loader,
		logger:    logger,
	}
}

// Import ingests a single parsed markdown document.
func (i *Importer) Import(ctx context.Context, doc *interfaces.MarkdownDocument, opts interfaces.ImportOptions) (*interfaces.ImportResult, error) {
	if i.documents == nil {
		return nil, ErrDocumentServiceRequired
	}
	acc := newImportAccumulator()
	if err := i.importOne(ctx, doc, opts, acc); err != nil {
		acc.addError(err)
	}
	return acc.result(), firstError(acc.errors)
}

// ImportDirectory loads every matching file under dir and imports each one.
// Files are processed independently: a failed file is reported and the run
// continues, with the first failure returned alongside the result.
func (i *Importer) ImportDirectory(ctx context.Context, dir string, opts interfaces.ImportOptions) (*interfaces.ImportResult, error) {
	if i.documents == nil {
		return nil, ErrDocumentServiceRequired
	}
	if i.loader == nil {
		return nil, ErrLoaderRequired
	}

	docs, err := i.loader.LoadDirectory(ctx, dir, interfaces.LoadOptions{})
	if err != nil {
		return nil, err
	}

	acc := newImportAccumulator()
	for _, doc := range docs {
		if err := i.importOne(ctx, doc, opts, acc); err != nil {
			acc.addError(err)
		}
	}
	return acc.result(), firstError(acc.errors)
}

func (i *Importer) importOne(ctx context.Context, doc *interfaces.MarkdownDocument, opts interfaces.ImportOptions, acc *importAccumulator) error {
	if doc == nil {
		return ErrNilDocument
	}
	if err := validation.ValidateFrontMatter(doc.FrontMatter.Raw); err != nil {
		return fmt.Errorf("markdown importer: %s: %w", doc.FilePath, err)
	}

	resourceID := identity.DocumentUUID(doc.FilePath)
	fields := draftFieldsFrom(doc)
	publish := opts.Publish || domain.NormalizeStatus(doc.FrontMatter.Status) == domain.StatusPublished

	versions, err := i.documents.ListVersions(ctx, resourceID)
	if err != nil && !errors.Is(err, document.ErrNotFound) {
		return fmt.Errorf("markdown importer: list versions %s: %w", doc.FilePath, err)
	}
	current, openDraft := latestByRole(versions)

	switch {
	case openDraft != nil:
		return i.applyToDraft(ctx, doc, opts, acc, resourceID, openDraft, fields, publish)
	case current != nil:
		return i.reviseCurrent(ctx, doc, opts, acc, resourceID, current, fields, publish)
	default:
		return i.createResource(ctx, doc, opts, acc, resourceID, fields, publish)
	}
}

func (i *Importer) createResource(ctx context.Context, doc *interfaces.MarkdownDocument, opts interfaces.ImportOptions, acc *importAccumulator, resourceID uuid.UUID, fields draftFields, publish bool) error {
	if opts.DryRun {
		acc.skip(resourceID)
		return nil
	}

	created, err := i.documents.Create(ctx, document.CreateDocumentRequest{
		ResourceID:     resourceID,
		Kind:           fields.kind,
		Title:          fields.title,
		Summary:        fields.summary,
		Slug:           fields.slug,
		Tags:           fields.tags,
		Content:        fields.content,
		Sections:       fields.sections,
		SourceChecksum: doc.Checksum,
		CreatedBy:      opts.AuthorID,
	})
	if err != nil {
		return fmt.Errorf("markdown importer: create %s: %w", doc.FilePath, err)
	}
	acc.created(resourceID)
	i.logger.Debug("imported new document", "path", doc.FilePath, "resource_id", resourceID)

	if publish {
		if _, err := i.documents.Publish(ctx, document.PublishRequest{
			VersionID:   created.ID,
			PublishedBy: opts.AuthorID,
		}); err != nil {
			return fmt.Errorf("markdown importer: publish %s: %w", doc.FilePath, err)
		}
	}
	return nil
}

func (i *Importer) applyToDraft(ctx context.Context, doc *interfaces.MarkdownDocument, opts interfaces.ImportOptions, acc *importAccumulator, resourceID uuid.UUID, draft *document.Version, fields draftFields, publish bool) error {
	merged := mergeTags(draft.Tags, fields.tags)
	unchanged := versionMatches(draft, fields, merged, doc.Checksum)

	if unchanged && !publish {
		acc.skip(resourceID)
		return nil
	}
	if opts.DryRun {
		acc.skip(resourceID)
		return nil
	}

	target := draft
	if !unchanged {
		saved, err := i.documents.Save(ctx, document.SaveDraftRequest{
			VersionID:      draft.ID,
			Title:          fields.title,
			Summary:        fields.summary,
			Slug:           fields.slug,
			Tags:           merged,
			Content:        fields.content,
			Sections:       fields.sections,
			SourceChecksum: doc.Checksum,
			UpdatedBy:      opts.AuthorID,
		})
		if err != nil {
			return fmt.Errorf("markdown importer: save %s: %w", doc.FilePath, err)
		}
		target = saved
		acc.updated(resourceID)
		i.logger.Debug("updated document draft", "path", doc.FilePath, "resource_id", resourceID)
	}

	if publish {
		if _, err := i.documents.Publish(ctx, document.PublishRequest{
			VersionID:   target.ID,
			PublishedBy: opts.AuthorID,
		}); err != nil {
			return fmt.Errorf("markdown importer: publish %s: %w", doc.FilePath, err)
		}
		if unchanged {
			acc.updated(resourceID)
		}
	}
	return nil
}

func (i *Importer) reviseCurrent(ctx context.Context, doc *interfaces.MarkdownDocument, opts interfaces.ImportOptions, acc *importAccumulator, resourceID uuid.UUID, current *document.Version, fields draftFields, publish bool) error {
	merged := mergeTags(current.Tags, fields.tags)
	if versionMatches(current, fields, merged, doc.Checksum) {
		acc.skip(resourceID)
		return nil
	}
	if opts.DryRun {
		acc.skip(resourceID)
		return nil
	}

	revision, err := i.documents.StartRevision(ctx, document.StartRevisionRequest{
		VersionID: current.ID,
		StartedBy: opts.AuthorID,
	})
	if err != nil {
		return fmt.Errorf("markdown importer: start revision %s: %w", doc.FilePath, err)
	}

	draft, err := i.documents.Save(ctx, document.SaveDraftRequest{
		VersionID:      revision.Draft.ID,
		Title:          fields.title,
		Summary:        fields.summary,
		Slug:           fields.slug,
		Tags:           merged,
		Content:        fields.content,
		Sections:       fields.sections,
		SourceChecksum: doc.Checksum,
		UpdatedBy:      opts.AuthorID,
	})
	if err != nil {
		return fmt.Errorf("markdown importer: save revision %s: %w", doc.FilePath, err)
	}
	acc.updated(resourceID)
	i.logger.Debug("revised document", "path", doc.FilePath, "resource_id", resourceID, "version", draft.VersionNumber)

	if publish {
		if _, err := i.documents.Publish(ctx, document.PublishRequest{
			VersionID:   draft.ID,
			PublishedBy: opts.AuthorID,
		}); err != nil {
			return fmt.Errorf("markdown importer: publish revision %s: %w", doc.FilePath, err)
		}
	}
	return nil
}

// latestByRole picks the published current version and the newest open draft
// from a resource's version history. ListVersions returns newest first.
func latestByRole(versions []*document.Version) (current, openDraft *document.Version) {
	for _, version := range versions {
		if version == nil {
			continue
		}
		if current == nil && version.Status == domain.StatusPublished && version.IsCurrent {
			current = version
		}
		if openDraft == nil && version.Status == domain.StatusDraft {
			openDraft = version
		}
	}
	return current, openDraft
}

type draftFields struct {
	kind     domain.Kind
	title    string
	summary  string
	slug     string
	tags     []string
	content  string
	sections domain.EmergencySections
}

func draftFieldsFrom(doc *interfaces.MarkdownDocument) draftFields {
	meta := doc.FrontMatter
	return draftFields{
		kind:     domain.NormalizeKind(meta.Kind),
		title:    strings.TrimSpace(meta.Title),
		summary:  strings.TrimSpace(meta.Summary),
		slug:     strings.TrimSpace(meta.Slug),
		tags:     meta.Tags,
		content:  strings.TrimSpace(string(doc.Body)),
		sections: meta.Sections,
	}
}

// versionMatches reports whether a stored version already carries the
// imported fields, so unchanged files re-import as no-ops. A stored source
// checksum matching the incoming file settles it without field comparison;
// a mismatch can still be cosmetic (front matter reordering), so it falls
// through to the fields.
func versionMatches(version *document.Version, fields draftFields, tags []string, checksum []byte) bool {
	if len(checksum) > 0 && bytes.Equal(version.SourceChecksum, checksum) {
		return true
	}
	if version.Title != fields.title || version.Summary != fields.summary {
		return false
	}
	if fields.slug != "" && version.Slug != fields.slug {
		return false
	}
	if !slices.Equal(version.Tags, tags) {
		return false
	}
	if version.Kind == domain.KindEmergency {
		return version.EmergencySections == fields.sections
	}
	return version.Content == fields.content
}

// mergeTags unions stored and imported tags, keeping first-seen order so the
// result is stable against the stored value.
func mergeTags(existing, incoming []string) []string {
	seen := mapset.NewThreadUnsafeSet[string]()
	out := make([]string, 0, len(existing)+len(incoming))
	for _, tag := range slices.Concat(existing, incoming) {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen.Contains(tag) {
			continue
		}
		seen.Add(tag)
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

type importAccumulator struct {
	createdIDs []uuid.UUID
	updatedIDs []uuid.UUID
	skippedIDs []uuid.UUID
	errors     []error
}

func newImportAccumulator() *importAccumulator {
	return &importAccumulator{
		createdIDs: []uuid.UUID{},
		updatedIDs: []uuid.UUID{},
		skippedIDs: []uuid.UUID{},
		errors:     []error{},
	}
}

func (a *importAccumulator) created(id uuid.UUID) {
	if id != uuid.Nil {
		a.createdIDs = append(a.createdIDs, id)
	}
}

func (a *importAccumulator) updated(id uuid.UUID) {
	if id != uuid.Nil && !slices.Contains(a.updatedIDs, id) {
		a.updatedIDs = append(a.updatedIDs, id)
	}
}

func (a *importAccumulator) skip(id uuid.UUID) {
	if id != uuid.Nil {
		a.skippedIDs = append(a.skippedIDs, id)
	}
}

func (a *importAccumulator) addError(err error) {
	if err != nil {
		a.errors = append(a.errors, err)
	}
}

func (a *importAccumulator) result() *interfaces.ImportResult {
	return &interfaces.ImportResult{
		CreatedResourceIDs: a.createdIDs,
		UpdatedResourceIDs: a.updatedIDs,
		SkippedResourceIDs: a.skippedIDs,
		Errors:             a.errors,
	}
}

func firstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
