package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-knowledge/internal/document"
	"github.com/goliatone/go-knowledge/internal/domain"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
	"github.com/google/uuid"
)

var (
	// ErrServiceDisabled indicates the export feature is disabled.
	ErrServiceDisabled = errors.New("export: service disabled")
	// ErrWriterRequired indicates no artifact writer was configured.
	ErrWriterRequired = errors.New("export: artifact writer is required")
	// ErrListerRequired indicates no published document source was configured.
	ErrListerRequired = errors.New("export: published document source is required")
)

const (
	stylesheetPath = "assets/highlight.css"
	indexPath      = "index.html"
	defaultStyle   = "github"
	defaultBatch   = 200
)

// PublishedLister is the slice of the document service the exporter needs.
// Consuming the published listing only keeps drafts out of the output by
// construction.
type PublishedLister interface {
	ListPublished(ctx context.Context, opts document.ListPublishedOptions) ([]*document.Version, error)
}

// Service renders the published current versions into a static HTML site.
type Service interface {
	Export(ctx context.Context, opts Options) (*Result, error)
}

// Config captures export behaviour toggles.
type Config struct {
	// SiteTitle heads the generated index page.
	SiteTitle string
	// Style selects the chroma stylesheet written next to the pages.
	Style string
	// BatchSize bounds each ListPublished page. Defaults to 200.
	BatchSize int
}

// Options narrows a single export run.
type Options struct {
	Kind   *domain.Kind
	Tag    string
	DryRun bool
}

// Result reports what an export run produced.
type Result struct {
	Exported int
	Failed   int
	Pages    []Page
	Errors   []error
	Duration time.Duration
	DryRun   bool
}

// Page describes one exported document page.
type Page struct {
	VersionID  uuid.UUID
	ResourceID uuid.UUID
	Slug       string
	Path       string
	URL        string
	Checksum   string
}

// Dependencies lists the collaborators required by the exporter.
type Dependencies struct {
	Documents PublishedLister
	Writer    ArtifactWriter
	URLs      *URLResolver
	Logger    interfaces.Logger
}

// NewService wires an exporter from configuration and dependencies.
func NewService(cfg Config, deps Dependencies) Service {
	if cfg.SiteTitle == "" {
		cfg.SiteTitle = "Knowledge Base"
	}
	if cfg.Style == "" {
		cfg.Style = defaultStyle
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatch
	}
	return &service{
		cfg:      cfg,
		deps:     deps,
		renderer: newPageRenderer(cfg.Style),
		now:      time.Now,
	}
}

// NewDisabledService returns a Service that fails every run with
// ErrServiceDisabled.
func NewDisabledService() Service {
	return disabledService{}
}

type disabledService struct{}

func (disabledService) Export(context.Context, Options) (*Result, error) {
	return nil, ErrServiceDisabled
}

type service struct {
	cfg      Config
	deps     Dependencies
	renderer *pageRenderer
	now      func() time.Time
}

func (s *service) Export(ctx context.Context, opts Options) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.deps.Documents == nil {
		return nil, ErrListerRequired
	}
	if s.deps.Writer == nil && !opts.DryRun {
		return nil, ErrWriterRequired
	}

	start := s.now()
	result := &Result{DryRun: opts.DryRun}

	versions, err := s.collectPublished(ctx, opts)
	if err != nil {
		return nil, err
	}

	stylesheetWritten := false
	entries := make([]indexEntry, 0, len(versions))

	for _, version := range versions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, pageErr := s.exportOne(ctx, version, opts.DryRun, &stylesheetWritten)
		if pageErr != nil {
			result.Failed++
			result.Errors = append(result.Errors, pageErr)
			s.logError("document export failed", version, pageErr)
			continue
		}

		result.Exported++
		result.Pages = append(result.Pages, page)
		entries = append(entries, indexEntry{
			Title:       version.Title,
			Href:        s.indexHref(page),
			Kind:        string(version.Kind),
			PublishedOn: publishedOn(version),
		})
	}

	if !opts.DryRun && len(entries) > 0 {
		if err := s.writeIndex(ctx, entries); err != nil {
			result.Errors = append(result.Errors, err)
		}
	}

	result.Duration = s.now().Sub(start)
	s.logInfo("export finished",
		"exported", result.Exported,
		"failed", result.Failed,
		"dry_run", opts.DryRun,
	)
	return result, nil
}

// collectPublished pages through the published listing until exhausted.
func (s *service) collectPublished(ctx context.Context, opts Options) ([]*document.Version, error) {
	var versions []*document.Version
	offset := 0
	for {
		batch, err := s.deps.Documents.ListPublished(ctx, document.ListPublishedOptions{
			Kind:   opts.Kind,
			Tag:    opts.Tag,
			Limit:  s.cfg.BatchSize,
			Offset: offset,
		})
		if err != nil {
			return nil, fmt.Errorf("export: list published: %w", err)
		}
		versions = append(versions, batch...)
		if len(batch) < s.cfg.BatchSize {
			return versions, nil
		}
		offset += len(batch)
	}
}

func (s *service) exportOne(ctx context.Context, version *document.Version, dryRun bool, stylesheetWritten *bool) (Page, error) {
	slug := pageSlug(version)
	path := slug + "/index.html"

	markup, err := s.renderer.RenderDocument(version, "../"+stylesheetPath)
	if err != nil {
		return Page{}, err
	}

	sum := sha256.Sum256(markup)
	page := Page{
		VersionID:  version.ID,
		ResourceID: version.ResourceID,
		Slug:       slug,
		Path:       path,
		Checksum:   hex.EncodeToString(sum[:]),
	}

	if url, err := s.deps.URLs.Resolve(slug); err != nil {
		s.logError("public URL resolution failed", version, err)
	} else {
		page.URL = url
	}

	if dryRun {
		return page, nil
	}

	if !*stylesheetWritten {
		if err := s.writeStylesheet(ctx); err != nil {
			return Page{}, err
		}
		*stylesheetWritten = true
	}

	if err := s.deps.Writer.WriteFile(ctx, path, markup); err != nil {
		return Page{}, fmt.Errorf("export: write %s: %w", path, err)
	}
	return page, nil
}

func (s *service) writeStylesheet(ctx context.Context) error {
	css, err := s.renderer.StylesheetCSS()
	if err != nil {
		return err
	}
	if err := s.deps.Writer.WriteFile(ctx, stylesheetPath, css); err != nil {
		return fmt.Errorf("export: write stylesheet: %w", err)
	}
	return nil
}

func (s *service) writeIndex(ctx context.Context, entries []indexEntry) error {
	markup, err := s.renderer.RenderIndex(s.cfg.SiteTitle, entries, stylesheetPath)
	if err != nil {
		return err
	}
	if err := s.deps.Writer.WriteFile(ctx, indexPath, markup); err != nil {
		return fmt.Errorf("export: write index: %w", err)
	}
	return nil
}

// indexHref prefers the routed public URL and falls back to the relative
// page path so the index stays navigable without site routing.
func (s *service) indexHref(page Page) string {
	if page.URL != "" {
		return page.URL
	}
	return page.Slug + "/"
}

func (s *service) logInfo(msg string, args ...any) {
	if s.deps.Logger == nil {
		return
	}
	s.deps.Logger.Info(msg, args...)
}

func (s *service) logError(msg string, version *document.Version, err error) {
	if s.deps.Logger == nil {
		return
	}
	s.deps.Logger.Error(msg, "version_id", version.ID, "error", err)
}

// pageSlug falls back to the version ID when a published version carries no
// slug, so every page gets a stable directory.
func pageSlug(version *document.Version) string {
	if slug := strings.TrimSpace(version.Slug); slug != "" {
		return slug
	}
	return version.ID.String()
}

func publishedOn(version *document.Version) string {
	if version.PublishedAt == nil {
		return ""
	}
	return version.PublishedAt.UTC().Format("2006-01-02")
}
