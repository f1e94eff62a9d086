package activity

import (
	"maps"
	"strings"
	"time"
)

const (
	VerbDispatchStarted   = "conveyor.dispatch.started"
	VerbDispatchCompleted = "conveyor.dispatch.completed"
	VerbDispatchFailed    = "conveyor.dispatch.failed"
	VerbStoreAssembled    = "conveyor.store.assembled"

	ObjectTypeDispatch = "conveyor.dispatch"
	ObjectTypeStore    = "conveyor.store"
)

// DispatchEventInput describes the common fields for dispatch lifecycle events.
type DispatchEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Store      string
	ActionType string
	DispatchID string
	Channel    string
	Metadata   map[string]any
	Duration   time.Duration
	Err        error
	OccurredAt time.Time
}

// AssembleEventInput describes a child store being composed into a parent.
type AssembleEventInput struct {
	ActorID    string
	Store      string
	Child      string
	Alias      string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildDispatchStartedEvent constructs the event emitted when a handler starts running.
func BuildDispatchStartedEvent(input DispatchEventInput) Event {
	return buildDispatchEvent(VerbDispatchStarted, input)
}

// BuildDispatchCompletedEvent constructs the event emitted once a dispatch and its puts settle.
func BuildDispatchCompletedEvent(input DispatchEventInput) Event {
	return buildDispatchEvent(VerbDispatchCompleted, input)
}

// BuildDispatchFailedEvent constructs the event emitted for failed or aborted dispatches.
func BuildDispatchFailedEvent(input DispatchEventInput) Event {
	return buildDispatchEvent(VerbDispatchFailed, input)
}

// BuildStoreAssembledEvent constructs the event emitted when a child store is assembled.
func BuildStoreAssembledEvent(input AssembleEventInput) Event {
	metadata := maps.Clone(input.Metadata)
	metadata = ensureMetadata(metadata)
	metadata["alias"] = strings.TrimSpace(input.Alias)
	if child := strings.TrimSpace(input.Child); child != "" {
		metadata["child"] = child
	}

	objectID := strings.TrimSpace(input.Store)
	if objectID == "" {
		objectID = ObjectTypeStore
	}

	return Event{
		Verb:       VerbStoreAssembled,
		ActorID:    strings.TrimSpace(input.ActorID),
		ObjectType: ObjectTypeStore,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func buildDispatchEvent(verb string, input DispatchEventInput) Event {
	metadata := maps.Clone(input.Metadata)
	if input.ActionType != "" {
		metadata = ensureMetadata(metadata)
		metadata["action_type"] = input.ActionType
	}
	if input.Store != "" {
		metadata = ensureMetadata(metadata)
		metadata["store"] = input.Store
	}
	if input.Duration > 0 {
		metadata = ensureMetadata(metadata)
		metadata["duration_ms"] = input.Duration.Milliseconds()
	}
	if input.Err != nil {
		metadata = ensureMetadata(metadata)
		metadata["error"] = input.Err.Error()
	}

	objectID := strings.TrimSpace(input.DispatchID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.ActionType)
	}
	if objectID == "" {
		objectID = ObjectTypeDispatch
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeDispatch,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
