package document

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewVersionRepository creates the generic bun repository for version rows.
func NewVersionRepository(db *bun.DB) repository.Repository[*Version] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Version]{
		NewRecord: func() *Version { return &Version{} },
		GetID: func(v *Version) uuid.UUID {
			return v.ID
		},
		SetID: func(v *Version, id uuid.UUID) {
			v.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(v *Version) string {
			if v == nil {
				return ""
			}
			return v.ID.String()
		},
	})
}
