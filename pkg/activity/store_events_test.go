package activity

import (
	"errors"
	"testing"
	"time"
)

func TestBuildDispatchCompletedEventIncludesActionMetadata(t *testing.T) {
	meta := map[string]any{"custom": "value"}
	input := DispatchEventInput{
		ActorID:    " actor ",
		UserID:     " user ",
		TenantID:   " tenant ",
		Store:      "cart",
		ActionType: "cart/add",
		DispatchID: " d-1 ",
		Channel:    " conveyor ",
		Metadata:   meta,
		Duration:   1500 * time.Millisecond,
	}

	event := BuildDispatchCompletedEvent(input)

	if event.Verb != VerbDispatchCompleted {
		t.Fatalf("expected verb %s got %s", VerbDispatchCompleted, event.Verb)
	}
	if event.ObjectType != ObjectTypeDispatch || event.ObjectID != "d-1" {
		t.Fatalf("unexpected object fields: %+v", event)
	}
	if event.ActorID != "actor" || event.UserID != "user" || event.TenantID != "tenant" {
		t.Fatalf("unexpected identity fields: %+v", event)
	}
	if event.Channel != "conveyor" {
		t.Fatalf("expected trimmed channel, got %q", event.Channel)
	}
	if event.Metadata["action_type"] != "cart/add" || event.Metadata["store"] != "cart" {
		t.Fatalf("expected action metadata, got %+v", event.Metadata)
	}
	if event.Metadata["duration_ms"] != int64(1500) {
		t.Fatalf("expected duration_ms, got %v", event.Metadata["duration_ms"])
	}
	if event.Metadata["custom"] != "value" {
		t.Fatalf("expected custom metadata, got %+v", event.Metadata)
	}

	event.Metadata["custom"] = "changed"
	if meta["custom"] != "value" {
		t.Fatalf("expected original metadata untouched: %+v", meta)
	}
}

func TestBuildDispatchFailedEventRecordsError(t *testing.T) {
	event := BuildDispatchFailedEvent(DispatchEventInput{
		ActionType: "cart/checkout",
		Err:        errors.New("card declined"),
	})

	if event.Verb != VerbDispatchFailed {
		t.Fatalf("expected verb %s got %s", VerbDispatchFailed, event.Verb)
	}
	if event.ObjectID != "cart/checkout" {
		t.Fatalf("expected object id fallback to action type, got %q", event.ObjectID)
	}
	if event.Metadata["error"] != "card declined" {
		t.Fatalf("expected error metadata, got %v", event.Metadata["error"])
	}
}

func TestBuildDispatchEventFallsBackToObjectType(t *testing.T) {
	event := BuildDispatchStartedEvent(DispatchEventInput{})
	if event.ObjectID != ObjectTypeDispatch {
		t.Fatalf("expected object id fallback, got %q", event.ObjectID)
	}
	if event.Metadata != nil {
		t.Fatalf("expected nil metadata for empty input, got %+v", event.Metadata)
	}
}

func TestBuildStoreAssembledEvent(t *testing.T) {
	event := BuildStoreAssembledEvent(AssembleEventInput{
		Store: "app",
		Child: "settings",
		Alias: " prefs ",
	})

	if event.Verb != VerbStoreAssembled || event.ObjectType != ObjectTypeStore {
		t.Fatalf("unexpected event identity: %+v", event)
	}
	if event.ObjectID != "app" {
		t.Fatalf("expected store object id, got %q", event.ObjectID)
	}
	if event.Metadata["alias"] != "prefs" || event.Metadata["child"] != "settings" {
		t.Fatalf("unexpected metadata: %+v", event.Metadata)
	}
}
