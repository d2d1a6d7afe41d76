package exportcmd

import (
	"context"

	"github.com/goliatone/go-knowledge/internal/commands"
	"github.com/goliatone/go-knowledge/internal/domain"
	"github.com/goliatone/go-knowledge/internal/export"
	"github.com/goliatone/go-knowledge/internal/logging"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
)

// ExportSiteHandler orchestrates site exports using the shared command handler foundation.
type ExportSiteHandler struct {
	inner *commands.Handler[ExportSiteCommand]
}

// NewExportSiteHandler constructs a handler wired to the provided export service.
func NewExportSiteHandler(service export.Service, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[ExportSiteCommand]) *ExportSiteHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg ExportSiteCommand) error {
		if service == nil || !gates.exportEnabled() {
			return export.ErrServiceDisabled
		}

		options := export.Options{
			Tag:    msg.Tag,
			DryRun: msg.DryRun,
		}
		if msg.Kind != "" {
			kind := domain.NormalizeKind(string(msg.Kind))
			options.Kind = &kind
		}

		result, err := service.Export(ctx, options)
		invokeCallback(msg.ResultCallback, ResultEnvelope{
			Result: result,
			Metadata: map[string]any{
				"operation": "export",
			},
		})
		if err != nil {
			return err
		}
		if result != nil {
			logging.WithFields(baseLogger, map[string]any{
				"exported_count": result.Exported,
				"failed_count":   result.Failed,
				"error_count":    len(result.Errors),
				"dry_run":        msg.DryRun,
			}).Info("export.command.site.completed")
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ExportSiteCommand]{
		commands.WithLogger[ExportSiteCommand](baseLogger),
		commands.WithOperation[ExportSiteCommand]("export.site"),
		commands.WithMessageFields(func(msg ExportSiteCommand) map[string]any {
			fields := map[string]any{}
			if msg.Kind != "" {
				fields["kind"] = string(msg.Kind)
			}
			if msg.Tag != "" {
				fields["tag"] = msg.Tag
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ExportSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ExportSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ExportSiteCommand].
func (h *ExportSiteHandler) Execute(ctx context.Context, msg ExportSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

func invokeCallback(cb ResultCallback, envelope ResultEnvelope) {
	if cb == nil {
		return
	}
	cb(envelope)
}
