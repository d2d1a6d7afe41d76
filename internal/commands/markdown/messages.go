package markdowncmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

const importDirectoryMessageType = "knowledge.markdown.import_directory"

// ImportDirectoryCommand triggers a filesystem walk for markdown documents
// under the provided Directory. The command mirrors DocumentImporter
// ImportDirectory semantics: new files become drafts, changed files revise
// their published resource, unchanged files are skipped.
type ImportDirectoryCommand struct {
	// Directory selects the filesystem path (relative or absolute) to load markdown files from.
	Directory string `json:"directory"`
	// AuthorID sets the actor recorded on created and updated versions.
	AuthorID uuid.UUID `json:"author_id,omitempty"`
	// Publish promotes each imported draft once it passes validation.
	Publish bool `json:"publish,omitempty"`
	// DryRun toggles preview mode to collect import diffs without persisting changes.
	DryRun bool `json:"dry_run,omitempty"`
}

// Type implements command.Message.
func (ImportDirectoryCommand) Type() string { return importDirectoryMessageType }

// Validate ensures directory input is present before handlers execute.
func (cmd ImportDirectoryCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Directory, validation.Required, validation.By(func(value any) error {
			if strings.TrimSpace(value.(string)) == "" {
				return validation.NewError("knowledge.markdown.import_directory.directory_required", "directory is required")
			}
			return nil
		})),
	)
}
