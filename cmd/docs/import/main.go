package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/goliatone/go-knowledge/cmd/docs/internal/bootstrap"
	markdowncmd "github.com/goliatone/go-knowledge/internal/commands/markdown"
	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	if err := runImport(os.Args[1:]); err != nil {
		log.Fatalf("docs import: %v", err)
	}
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("docs-import", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to a YAML config file")
	contentDir := fs.String("content-dir", "content", "Path to the markdown content root")
	pattern := fs.String("pattern", "*.md", "Glob pattern applied when discovering markdown files")
	directory := fs.String("directory", ".", "Directory to import, relative to the content root")
	author := fs.String("author", "", "Author ID recorded on imported versions")
	publish := fs.Bool("publish", false, "Publish each imported draft after validation")
	dryRun := fs.Bool("dry-run", false, "Preview changes without persisting documents")

	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(bootstrap.Options{
		ConfigFile:     *configFile,
		ContentDir:     *contentDir,
		Pattern:        *pattern,
		Recursive:      true,
		EnableMarkdown: true,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	authorID, err := bootstrap.ParseUUID(*author)
	if err != nil {
		return fmt.Errorf("parse author: %w", err)
	}

	handler := markdowncmd.NewImportDirectoryHandler(module.Importer, module.Logger, markdowncmd.FeatureGates{
		MarkdownEnabled: func() bool { return true },
	})
	cmd := markdowncmd.ImportDirectoryCommand{
		Directory: *directory,
		AuthorID:  authorID,
		Publish:   *publish,
		DryRun:    *dryRun,
	}
	if err := handler.Execute(context.Background(), cmd); err != nil {
		return fmt.Errorf("execute import command: %w", err)
	}
	fmt.Fprintln(os.Stdout, "document import command executed successfully")

	return nil
}
