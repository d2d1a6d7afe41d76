package identity

import (
	"path"
	"strconv"
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// DocumentUUID maps a source file path to the ResourceID shared by every
// version imported from that file. Paths are slash-normalized so the same
// tree imports identically across operating systems.
func DocumentUUID(sourcePath string) uuid.UUID {
	normalized := path.Clean(strings.ReplaceAll(strings.TrimSpace(sourcePath), "\\", "/"))
	normalized = strings.TrimPrefix(normalized, "./")
	return UUID("go-knowledge:document:" + normalized)
}

// VersionUUID derives a stable version identifier for seeded fixtures.
func VersionUUID(resourceID uuid.UUID, versionNumber int) uuid.UUID {
	return UUID("go-knowledge:document_version:" + resourceID.String() + ":" + strconv.Itoa(versionNumber))
}
