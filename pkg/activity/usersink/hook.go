// Package usersink forwards store activity into a go-users ActivitySink so
// dispatches show up in the same audit trail as user actions.
package usersink

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/goliatone/go-conveyor/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook is an activity.ActivityHook that writes go-users activity records.
type Hook struct {
	Sink usertypes.ActivitySink
	// Verbs restricts forwarding to the listed verbs. Empty forwards all.
	Verbs []string
	// SystemActor is recorded when an event carries no parseable actor.
	SystemActor uuid.UUID
}

func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	event = activity.NormalizeEvent(event)
	if !event.Routable() || !h.forwards(event.Verb) {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, h.record(event))
}

// record maps a normalized event. Store specific details that have no
// column in ActivityRecord travel in Data.
func (h Hook) record(event activity.Event) usertypes.ActivityRecord {
	actor := parseUUID(event.ActorID)
	if actor == uuid.Nil {
		actor = h.SystemActor
	}

	data := maps.Clone(event.Metadata)
	extra := func(key string, value any) {
		if data == nil {
			data = map[string]any{}
		}
		data[key] = value
	}
	if event.ObjectType == activity.ObjectTypeDispatch {
		extra("dispatch_id", event.ObjectID)
	}
	if event.DefinitionCode != "" {
		extra("definition_code", event.DefinitionCode)
	}
	if len(event.Recipients) > 0 {
		extra("recipients", slices.Clone(event.Recipients))
	}

	return usertypes.ActivityRecord{
		ActorID:    actor,
		UserID:     parseUUID(event.UserID),
		TenantID:   parseUUID(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       data,
		OccurredAt: event.OccurredAt,
	}
}

func (h Hook) forwards(verb string) bool {
	if len(h.Verbs) == 0 {
		return true
	}
	return slices.ContainsFunc(h.Verbs, func(allowed string) bool {
		return strings.TrimSpace(allowed) == verb
	})
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
