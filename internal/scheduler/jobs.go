package scheduler

import "github.com/google/uuid"

const (
	JobTypeDocumentPublish   = "knowledge.document.publish"
	JobTypeDocumentUnpublish = "knowledge.document.unpublish"
)

func DocumentPublishJobKey(id uuid.UUID) string {
	return "document:" + id.String() + ":publish"
}

func DocumentUnpublishJobKey(id uuid.UUID) string {
	return "document:" + id.String() + ":unpublish"
}
