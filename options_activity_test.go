package conveyor

import (
	"context"
	"testing"

	"github.com/goliatone/go-conveyor/pkg/activity"
)

func TestWithActivityHooksClonesAndFiltersNil(t *testing.T) {
	hook := activity.HookFunc(func(context.Context, activity.Event) error { return nil })

	store := New(map[string]any{"a": 1}, WithActivityHooks(activity.Hooks{nil, hook}))
	hooks := store.ActivityHooks()
	if len(hooks) != 1 {
		t.Fatalf("expected 1 hook, got %d", len(hooks))
	}

	// Mutate returned slice and ensure original configuration is unaffected.
	hooks[0] = nil
	again := store.ActivityHooks()
	if len(again) != 1 || again[0] == nil {
		t.Fatalf("expected cloned hooks unaffected by mutation, got %+v", again)
	}
}

func TestActivityHooksDefaultNil(t *testing.T) {
	store := New(map[string]any{"a": 1})
	if hooks := store.ActivityHooks(); hooks != nil {
		t.Fatalf("expected nil hooks by default, got %+v", hooks)
	}
	var missing *Store
	if hooks := missing.ActivityHooks(); hooks != nil {
		t.Fatalf("expected nil hooks for a nil store")
	}
}

func TestActivityChannelFromConfig(t *testing.T) {
	capture := &activity.CaptureHook{}
	cfg := DefaultConfig()
	cfg.Activity.Channel = "audit"
	parent := New(map[string]any{}, WithActivityHooks(activity.Hooks{capture}), WithConfig(cfg))
	if err := parent.Assemble("child", New(map[string]any{})); err != nil {
		t.Fatalf("assemble: %v", err)
	}
	events := capture.Events()
	if len(events) != 1 || events[0].Channel != "audit" {
		t.Fatalf("expected event on the audit channel, got %+v", capture.Events())
	}
}
