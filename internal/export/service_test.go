package export_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-knowledge/internal/document"
	"github.com/goliatone/go-knowledge/internal/domain"
	"github.com/goliatone/go-knowledge/internal/export"
	"github.com/google/uuid"
)

type stubLister struct {
	versions []*document.Version
	calls    []document.ListPublishedOptions
	err      error
}

func (s *stubLister) ListPublished(_ context.Context, opts document.ListPublishedOptions) ([]*document.Version, error) {
	s.calls = append(s.calls, opts)
	if s.err != nil {
		return nil, s.err
	}

	offset := opts.Offset
	if offset >= len(s.versions) {
		return nil, nil
	}
	end := len(s.versions)
	if opts.Limit > 0 && offset+opts.Limit < end {
		end = offset + opts.Limit
	}
	out := make([]*document.Version, 0, end-offset)
	for _, version := range s.versions[offset:end] {
		out = append(out, version.Clone())
	}
	return out, nil
}

func standardPublished(title, slug, content string) *document.Version {
	publishedAt := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	return &document.Version{
		ID:            uuid.New(),
		ResourceID:    uuid.New(),
		VersionNumber: 1,
		Status:        domain.StatusPublished,
		IsCurrent:     true,
		Kind:          domain.KindStandard,
		Title:         title,
		Slug:          slug,
		Tags:          []string{"ops"},
		Content:       content,
		PublishedAt:   &publishedAt,
	}
}

func emergencyPublished(title, slug string) *document.Version {
	publishedAt := time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC)
	return &document.Version{
		ID:            uuid.New(),
		ResourceID:    uuid.New(),
		VersionNumber: 2,
		Status:        domain.StatusPublished,
		IsCurrent:     true,
		Kind:          domain.KindEmergency,
		Title:         title,
		Slug:          slug,
		EmergencySections: domain.EmergencySections{
			FaultScenario: "Gateway reports 502 for every request.",
			Solution:      "Roll the gateway deployment back one release.",
		},
		PublishedAt: &publishedAt,
	}
}

func TestExportWritesPagesStylesheetAndIndex(t *testing.T) {
	ctx := context.Background()
	standard := standardPublished("Restart the gateway", "restart-the-gateway", "# Steps\n\n```go\nfunc main() {}\n```\n")
	emergency := emergencyPublished("Gateway 502 runbook", "gateway-502-runbook")

	lister := &stubLister{versions: []*document.Version{emergency, standard}}
	writer := export.NewMemoryWriter()
	svc := export.NewService(export.Config{SiteTitle: "Ops Knowledge Base"}, export.Dependencies{
		Documents: lister,
		Writer:    writer,
		URLs:      export.NewSiteURLResolver("https://kb.example.com"),
	})

	result, err := svc.Export(ctx, export.Options{})
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if result.Exported != 2 || result.Failed != 0 {
		t.Fatalf("expected 2 exported pages, got %+v", result)
	}

	page, ok := writer.File("restart-the-gateway/index.html")
	if !ok {
		t.Fatalf("expected standard page, wrote %v", writer.Paths())
	}
	markup := string(page)
	if !strings.Contains(markup, "<title>Restart the gateway</title>") {
		t.Fatalf("expected page title, got:\n%s", markup)
	}
	if !strings.Contains(markup, ">Steps</h1>") {
		t.Fatalf("expected rendered heading, got:\n%s", markup)
	}
	if !strings.Contains(markup, "chroma") {
		t.Fatalf("expected highlighted code block, got:\n%s", markup)
	}
	if !strings.Contains(markup, "../assets/highlight.css") {
		t.Fatalf("expected stylesheet link, got:\n%s", markup)
	}
	if !strings.Contains(markup, "2025-03-10") {
		t.Fatalf("expected published date, got:\n%s", markup)
	}

	runbook, ok := writer.File("gateway-502-runbook/index.html")
	if !ok {
		t.Fatalf("expected emergency page, wrote %v", writer.Paths())
	}
	runbookMarkup := string(runbook)
	faultTitle := domain.SectionTitles[domain.SectionFaultScenario]
	solutionTitle := domain.SectionTitles[domain.SectionSolution]
	faultAt := strings.Index(runbookMarkup, ">"+faultTitle+"</h2>")
	solutionAt := strings.Index(runbookMarkup, ">"+solutionTitle+"</h2>")
	if faultAt == -1 || solutionAt == -1 {
		t.Fatalf("expected section headings, got:\n%s", runbookMarkup)
	}
	if faultAt > solutionAt {
		t.Fatal("expected fault scenario section before solution section")
	}

	css, ok := writer.File("assets/highlight.css")
	if !ok || len(css) == 0 {
		t.Fatal("expected chroma stylesheet to be written")
	}
	if !strings.Contains(string(css), ".chroma") {
		t.Fatalf("expected chroma selectors in stylesheet, got:\n%s", string(css))
	}

	index, ok := writer.File("index.html")
	if !ok {
		t.Fatal("expected index page to be written")
	}
	indexMarkup := string(index)
	if !strings.Contains(indexMarkup, "Ops Knowledge Base") {
		t.Fatalf("expected site title on index, got:\n%s", indexMarkup)
	}
	if !strings.Contains(indexMarkup, "https://kb.example.com/kb/restart-the-gateway") {
		t.Fatalf("expected routed public URL on index, got:\n%s", indexMarkup)
	}
	if !strings.Contains(indexMarkup, "Gateway 502 runbook") {
		t.Fatalf("expected emergency entry on index, got:\n%s", indexMarkup)
	}

	for _, exported := range result.Pages {
		stored, ok := writer.File(exported.Path)
		if !ok {
			t.Fatalf("result page %s missing from writer", exported.Path)
		}
		sum := sha256.Sum256(stored)
		if exported.Checksum != hex.EncodeToString(sum[:]) {
			t.Fatalf("checksum mismatch for %s", exported.Path)
		}
	}
}

func TestExportFallsBackToRelativeLinksWithoutRouting(t *testing.T) {
	ctx := context.Background()
	lister := &stubLister{versions: []*document.Version{
		standardPublished("Rotate credentials", "rotate-credentials", "Rotate them."),
	}}
	writer := export.NewMemoryWriter()
	svc := export.NewService(export.Config{}, export.Dependencies{
		Documents: lister,
		Writer:    writer,
	})

	result, err := svc.Export(ctx, export.Options{})
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if result.Pages[0].URL != "" {
		t.Fatalf("expected no public URL without routing, got %q", result.Pages[0].URL)
	}

	index, _ := writer.File("index.html")
	if !strings.Contains(string(index), `href="rotate-credentials/"`) {
		t.Fatalf("expected relative href fallback, got:\n%s", string(index))
	}
}

func TestExportDryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	lister := &stubLister{versions: []*document.Version{
		standardPublished("Restart the gateway", "restart-the-gateway", "Restart it."),
		emergencyPublished("Gateway 502 runbook", "gateway-502-runbook"),
	}}
	writer := export.NewMemoryWriter()
	svc := export.NewService(export.Config{}, export.Dependencies{
		Documents: lister,
		Writer:    writer,
	})

	result, err := svc.Export(ctx, export.Options{DryRun: true})
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if !result.DryRun || result.Exported != 2 {
		t.Fatalf("expected dry run to report 2 pages, got %+v", result)
	}
	if len(result.Pages) != 2 || result.Pages[0].Checksum == "" {
		t.Fatalf("expected rendered page metadata, got %+v", result.Pages)
	}
	if paths := writer.Paths(); len(paths) != 0 {
		t.Fatalf("expected no files in dry run, wrote %v", paths)
	}
}

func TestExportPagesThroughListing(t *testing.T) {
	ctx := context.Background()
	lister := &stubLister{versions: []*document.Version{
		standardPublished("One", "one", "1"),
		standardPublished("Two", "two", "2"),
		standardPublished("Three", "three", "3"),
	}}
	svc := export.NewService(export.Config{BatchSize: 1}, export.Dependencies{
		Documents: lister,
		Writer:    export.NewMemoryWriter(),
	})

	result, err := svc.Export(ctx, export.Options{})
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if result.Exported != 3 {
		t.Fatalf("expected 3 exported pages, got %d", result.Exported)
	}
	if len(lister.calls) != 4 {
		t.Fatalf("expected 4 paged listing calls, got %d", len(lister.calls))
	}
	for i, call := range lister.calls {
		if call.Offset != i || call.Limit != 1 {
			t.Fatalf("call %d: unexpected paging %+v", i, call)
		}
	}
}

func TestExportPropagatesFilters(t *testing.T) {
	ctx := context.Background()
	lister := &stubLister{}
	svc := export.NewService(export.Config{}, export.Dependencies{
		Documents: lister,
		Writer:    export.NewMemoryWriter(),
	})

	kind := domain.KindEmergency
	if _, err := svc.Export(ctx, export.Options{Kind: &kind, Tag: "ops"}); err != nil {
		t.Fatalf("Export returned error: %v", err)
	}

	if len(lister.calls) != 1 {
		t.Fatalf("expected one listing call, got %d", len(lister.calls))
	}
	call := lister.calls[0]
	if call.Kind == nil || *call.Kind != domain.KindEmergency || call.Tag != "ops" {
		t.Fatalf("expected filters to propagate, got %+v", call)
	}
}

func TestExportReportsListingFailure(t *testing.T) {
	lister := &stubLister{err: errors.New("storage offline")}
	svc := export.NewService(export.Config{}, export.Dependencies{
		Documents: lister,
		Writer:    export.NewMemoryWriter(),
	})

	if _, err := svc.Export(context.Background(), export.Options{}); err == nil || !strings.Contains(err.Error(), "storage offline") {
		t.Fatalf("expected listing failure to surface, got %v", err)
	}
}

type failingWriter struct{}

func (failingWriter) EnsureDir(context.Context, string) error { return nil }

func (failingWriter) WriteFile(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestExportCollectsPerPageFailures(t *testing.T) {
	lister := &stubLister{versions: []*document.Version{
		standardPublished("One", "one", "1"),
		standardPublished("Two", "two", "2"),
	}}
	svc := export.NewService(export.Config{}, export.Dependencies{
		Documents: lister,
		Writer:    failingWriter{},
	})

	result, err := svc.Export(context.Background(), export.Options{})
	if err != nil {
		t.Fatalf("Export returned error: %v", err)
	}
	if result.Exported != 0 || result.Failed != 2 {
		t.Fatalf("expected both pages to fail, got %+v", result)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected collected errors, got %v", result.Errors)
	}
}

func TestExportRequiresCollaborators(t *testing.T) {
	svc := export.NewService(export.Config{}, export.Dependencies{Writer: export.NewMemoryWriter()})
	if _, err := svc.Export(context.Background(), export.Options{}); !errors.Is(err, export.ErrListerRequired) {
		t.Fatalf("expected ErrListerRequired, got %v", err)
	}

	svc = export.NewService(export.Config{}, export.Dependencies{Documents: &stubLister{}})
	if _, err := svc.Export(context.Background(), export.Options{}); !errors.Is(err, export.ErrWriterRequired) {
		t.Fatalf("expected ErrWriterRequired, got %v", err)
	}
}

func TestDisabledServiceRefusesRuns(t *testing.T) {
	svc := export.NewDisabledService()
	if _, err := svc.Export(context.Background(), export.Options{}); !errors.Is(err, export.ErrServiceDisabled) {
		t.Fatalf("expected ErrServiceDisabled, got %v", err)
	}
}

func TestMemoryWriterRejectsEscapingPaths(t *testing.T) {
	writer := export.NewMemoryWriter()
	if err := writer.WriteFile(context.Background(), "../outside.html", []byte("x")); err == nil {
		t.Fatal("expected path escape to be rejected")
	}
}
