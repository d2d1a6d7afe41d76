package usersink

import (
	"context"
	"strings"

	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"

	"github.com/goliatone/go-knowledge/pkg/activity"
	"github.com/goliatone/go-knowledge/pkg/interfaces"
)

// Hook forwards activity events to a go-users activity sink so document
// lifecycle actions land in the host application's activity feed.
type Hook struct {
	Sink interfaces.ActivitySink
}

// Notify maps the event onto an ActivityRecord and logs it. Events without a
// verb are dropped so partially built events never pollute the feed.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	if strings.TrimSpace(event.Verb) == "" {
		return nil
	}

	record := usertypes.ActivityRecord{
		ActorID:    parseID(event.ActorID),
		UserID:     parseID(event.UserID),
		TenantID:   parseID(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		OccurredAt: event.OccurredAt,
		Data:       buildData(event),
	}
	return h.Sink.Log(ctx, record)
}

func buildData(event activity.Event) map[string]any {
	data := make(map[string]any, len(event.Metadata)+2)
	for key, value := range event.Metadata {
		data[key] = value
	}
	if event.DefinitionCode != "" {
		data["definition_code"] = event.DefinitionCode
	}
	if len(event.Recipients) > 0 {
		data["recipients"] = event.Recipients
	}
	return data
}

func parseID(value string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return id
}
