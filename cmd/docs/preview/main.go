package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/goliatone/go-knowledge/internal/domain"
	"github.com/goliatone/go-knowledge/internal/markdown"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
	flag "github.com/spf13/pflag"
)

func main() {
	if err := runPreview(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("docs preview: %v", err)
	}
}

func runPreview(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("docs-preview", flag.ExitOnError)
	contentDir := fs.String("content-dir", "content", "Path to the markdown content root")
	filePath := fs.String("file", "", "Markdown file to preview (relative to the content root)")
	renderMarkup := fs.Bool("render", true, "Render markdown into display markup as part of the preview")
	showOutline := fs.Bool("outline", true, "Print the document outline")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*filePath) == "" {
		return fmt.Errorf("--file is required")
	}

	loader := markdown.NewLoader(os.DirFS(*contentDir), markdown.LoaderConfig{})
	doc, err := loader.LoadFile(context.Background(), *filePath, interfaces.LoadOptions{})
	if err != nil {
		return fmt.Errorf("load markdown document: %w", err)
	}

	engine := markdown.NewEngine()

	fmt.Fprintf(out, "Path: %s\nTitle: %s\nKind: %s\nChecksum: %x\n\n",
		doc.FilePath, doc.FrontMatter.Title, documentKind(doc), doc.Checksum)

	if doc.FrontMatter.Raw != nil {
		if encoded, err := json.MarshalIndent(doc.FrontMatter.Raw, "", "  "); err == nil {
			fmt.Fprintf(out, "Frontmatter:\n%s\n\n", encoded)
		}
	}

	if *showOutline {
		headings := outlineFor(engine, doc)
		fmt.Fprintln(out, "Outline:")
		for _, heading := range headings {
			fmt.Fprintf(out, "%s- %s\n", strings.Repeat("  ", heading.Level-1), heading.Text)
		}
		fmt.Fprintln(out)
	}

	if *renderMarkup {
		fmt.Fprintf(out, "Rendered markup:\n%s\n", engine.Render(string(doc.Body)))
	} else {
		fmt.Fprintf(out, "Markdown body:\n%s\n", doc.Body)
	}
	return nil
}

func documentKind(doc *interfaces.MarkdownDocument) domain.Kind {
	if strings.EqualFold(doc.FrontMatter.Kind, string(domain.KindEmergency)) {
		return domain.KindEmergency
	}
	return domain.KindStandard
}

func outlineFor(engine *markdown.Engine, doc *interfaces.MarkdownDocument) []interfaces.Heading {
	if documentKind(doc) == domain.KindEmergency {
		return engine.EmergencyOutline(doc.FrontMatter.Sections)
	}
	return engine.Outline(string(doc.Body))
}
