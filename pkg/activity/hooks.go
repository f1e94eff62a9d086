// Package activity describes store lifecycle events (dispatches starting and
// settling, child stores being assembled) and fans them out to hooks.
package activity

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"
)

// Event is one lifecycle occurrence of a store. IDs are plain strings so
// hooks can map them onto whatever identity scheme their sink expects.
type Event struct {
	Verb           string
	ActorID        string
	UserID         string
	TenantID       string
	ObjectType     string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// Routable reports whether the event names a verb and an object. Events
// that are not routable are dropped before reaching any hook.
func (e Event) Routable() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// ActivityHook receives normalized events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// OnlyVerbs wraps hook so it only sees events whose verb is listed. With no
// verbs the hook is returned unchanged.
func OnlyVerbs(hook ActivityHook, verbs ...string) ActivityHook {
	allowed := verbSet(verbs)
	if hook == nil || len(allowed) == 0 {
		return hook
	}
	return HookFunc(func(ctx context.Context, event Event) error {
		if _, ok := allowed[strings.TrimSpace(event.Verb)]; !ok {
			return nil
		}
		return hook.Notify(ctx, event)
	})
}

// Hooks is an ordered fan-out of hooks.
type Hooks []ActivityHook

// Enabled reports whether there is at least one hook.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalizes event and hands it to every hook in order. A failing
// hook does not stop the others; the failures come back joined and tagged
// with the hook position.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}
	event = NormalizeEvent(event)
	if !event.Routable() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for i, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("activity hook %d (%s): %w", i, event.Verb, err))
		}
	}
	return errors.Join(errs...)
}

// NormalizeEvent returns a copy of event with every string field trimmed,
// blank recipients removed, metadata copied and the timestamp set in UTC.
func NormalizeEvent(event Event) Event {
	out := event
	for _, field := range []*string{
		&out.Verb, &out.ActorID, &out.UserID, &out.TenantID,
		&out.ObjectType, &out.ObjectID, &out.Channel, &out.DefinitionCode,
	} {
		*field = strings.TrimSpace(*field)
	}

	out.Recipients = nil
	for _, recipient := range event.Recipients {
		if recipient = strings.TrimSpace(recipient); recipient != "" {
			out.Recipients = append(out.Recipients, recipient)
		}
	}

	out.Metadata = nil
	if len(event.Metadata) > 0 {
		out.Metadata = maps.Clone(event.Metadata)
	}

	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now()
	}
	out.OccurredAt = out.OccurredAt.UTC()
	return out
}

func verbSet(verbs []string) map[string]struct{} {
	set := make(map[string]struct{}, len(verbs))
	for _, verb := range verbs {
		if verb = strings.TrimSpace(verb); verb != "" {
			set[verb] = struct{}{}
		}
	}
	return set
}
