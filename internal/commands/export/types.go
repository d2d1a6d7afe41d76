package exportcmd

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-knowledge/internal/domain"
	"github.com/goliatone/go-knowledge/internal/export"
)

const exportSiteMessageType = "knowledge.export.site"

// ResultCallback receives results produced by export runs. The callback is optional
// and is invoked synchronously from the handler when a Result is available.
type ResultCallback func(ResultEnvelope)

// ResultEnvelope captures the outcome of an export command execution.
type ResultEnvelope struct {
	Result   *export.Result
	Metadata map[string]any
}

// ExportSiteCommand renders the published current versions into the static site.
type ExportSiteCommand struct {
	// Kind narrows the export to one document kind when set.
	Kind domain.Kind `json:"kind,omitempty"`
	// Tag narrows the export to versions carrying the tag.
	Tag string `json:"tag,omitempty"`
	// DryRun renders and reports pages without writing artifacts.
	DryRun         bool           `json:"dry_run,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (ExportSiteCommand) Type() string { return exportSiteMessageType }

// Validate ensures the optional kind filter names a known document kind.
func (m ExportSiteCommand) Validate() error {
	errs := validation.Errors{}
	if m.Kind != "" && !domain.ValidKind(m.Kind) {
		errs["kind"] = validation.NewError("knowledge.export.site.kind_invalid", "kind must be standard or emergency")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// FeatureGates exposes runtime switches used to guard handler execution.
type FeatureGates struct {
	ExportEnabled func() bool
}

func (g FeatureGates) exportEnabled() bool {
	if g.ExportEnabled == nil {
		return false
	}
	return g.ExportEnabled()
}
