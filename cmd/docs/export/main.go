package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/goliatone/go-knowledge/cmd/docs/internal/bootstrap"
	exportcmd "github.com/goliatone/go-knowledge/internal/commands/export"
	"github.com/goliatone/go-knowledge/internal/domain"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// importOptions publishes imported drafts so a fresh store has current
// versions for the exporter to pick up.
func importOptions() interfaces.ImportOptions {
	return interfaces.ImportOptions{Publish: true}
}

var moduleBuilder = bootstrap.BuildModule

func main() {
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	if err := runExport(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("docs export: %v", err)
	}
}

func runExport(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("docs-export", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to a YAML config file")
	contentDir := fs.String("content-dir", "content", "Path to the markdown content root")
	outputDir := fs.String("output-dir", "dist", "Directory the static site is written to")
	siteTitle := fs.String("site-title", "", "Title heading the generated index page")
	style := fs.String("style", "", "Chroma stylesheet for fenced code blocks")
	kind := fs.String("kind", "", "Restrict the export to one document kind (standard or emergency)")
	tag := fs.String("tag", "", "Restrict the export to versions carrying the tag")
	importFirst := fs.Bool("import", false, "Import the content root before exporting")
	dryRun := fs.Bool("dry-run", false, "Render and report pages without writing artifacts")

	if err := fs.Parse(args); err != nil {
		return err
	}

	kindFilter := domain.Kind(strings.ToLower(strings.TrimSpace(*kind)))
	if kindFilter != "" && !domain.ValidKind(kindFilter) {
		return fmt.Errorf("unknown kind %q", *kind)
	}

	module, err := moduleBuilder(bootstrap.Options{
		ConfigFile:     *configFile,
		ContentDir:     *contentDir,
		Recursive:      true,
		OutputDir:      *outputDir,
		SiteTitle:      *siteTitle,
		Style:          *style,
		EnableMarkdown: *importFirst,
		EnableExport:   true,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	ctx := context.Background()

	if *importFirst {
		if _, err := module.Importer.ImportDirectory(ctx, ".", importOptions()); err != nil {
			return fmt.Errorf("import content root: %w", err)
		}
	}

	var envelope exportcmd.ResultEnvelope
	handler := exportcmd.NewExportSiteHandler(module.Exporter, module.Logger, exportcmd.FeatureGates{
		ExportEnabled: func() bool { return true },
	})
	cmd := exportcmd.ExportSiteCommand{
		Kind:           kindFilter,
		Tag:            strings.TrimSpace(*tag),
		DryRun:         *dryRun,
		ResultCallback: func(result exportcmd.ResultEnvelope) { envelope = result },
	}
	if err := handler.Execute(ctx, cmd); err != nil {
		return fmt.Errorf("execute export command: %w", err)
	}

	if envelope.Result != nil {
		fmt.Fprintf(out, "exported %d page(s), %d failure(s) in %s\n",
			envelope.Result.Exported, envelope.Result.Failed, envelope.Result.Duration)
		for _, pageErr := range envelope.Result.Errors {
			fmt.Fprintf(out, "  error: %v\n", pageErr)
		}
	}
	return nil
}
