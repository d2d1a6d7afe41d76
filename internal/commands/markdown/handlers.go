package markdowncmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-knowledge/internal/commands"
	"github.com/goliatone/go-knowledge/internal/logging"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
	"github.com/google/uuid"
)

const importOperation = "markdown.import_directory"

// ErrMarkdownFeatureDisabled is returned when the markdown feature flag is disabled at runtime.
var ErrMarkdownFeatureDisabled = errors.New("markdown command: feature disabled")

var _ command.Commander[ImportDirectoryCommand] = (*ImportDirectoryHandler)(nil)

// ImportDirectoryHandler orchestrates markdown directory imports via the shared
// command handler foundation.
type ImportDirectoryHandler struct {
	inner *commands.Handler[ImportDirectoryCommand]
}

// NewImportDirectoryHandler creates a handler bound to the supplied importer.
func NewImportDirectoryHandler(importer interfaces.DocumentImporter, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[ImportDirectoryCommand]) *ImportDirectoryHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg ImportDirectoryCommand) error {
		if !gates.markdownEnabled() {
			return ErrMarkdownFeatureDisabled
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, err := importer.ImportDirectory(ctx, msg.Directory, interfaces.ImportOptions{
			AuthorID: msg.AuthorID,
			Publish:  msg.Publish,
			DryRun:   msg.DryRun,
		})
		if err != nil {
			return err
		}
		if result != nil {
			logging.WithFields(baseLogger, map[string]any{
				"created_count": len(result.CreatedResourceIDs),
				"updated_count": len(result.UpdatedResourceIDs),
				"skipped_count": len(result.SkippedResourceIDs),
				"error_count":   len(result.Errors),
				"dry_run":       msg.DryRun,
			}).Info("markdown.command.import_directory.completed")
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ImportDirectoryCommand]{
		commands.WithLogger[ImportDirectoryCommand](baseLogger),
		commands.WithOperation[ImportDirectoryCommand](importOperation),
		commands.WithMessageFields(func(msg ImportDirectoryCommand) map[string]any {
			fields := map[string]any{
				"directory": msg.Directory,
			}
			if msg.AuthorID != uuid.Nil {
				fields["author_id"] = msg.AuthorID
			}
			if msg.Publish {
				fields["publish"] = true
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ImportDirectoryCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ImportDirectoryHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ImportDirectoryCommand].
func (h *ImportDirectoryHandler) Execute(ctx context.Context, msg ImportDirectoryCommand) error {
	return h.inner.Execute(ctx, msg)
}
