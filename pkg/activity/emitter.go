package activity

import (
	"context"
	"strings"
)

// DefaultChannel is stamped on events that do not name a channel.
const DefaultChannel = "conveyor"

// Config is the activity section of a store configuration.
type Config struct {
	Enabled bool
	Channel string
	// Verbs limits emission to the listed verbs. Empty emits every verb.
	Verbs []string
}

// Emitter is the store side of activity: it decides whether an event goes
// out at all, fills in the channel and hands it to the hooks.
type Emitter struct {
	hooks   Hooks
	channel string
	verbs   map[string]struct{}
	enabled bool
}

// NewEmitter builds an emitter over the non-nil hooks in hooks.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	var live Hooks
	for _, hook := range hooks {
		if hook != nil {
			live = append(live, hook)
		}
	}
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	return &Emitter{
		hooks:   live,
		channel: channel,
		verbs:   verbSet(cfg.Verbs),
		enabled: cfg.Enabled && len(live) > 0,
	}
}

// Enabled reports whether any event could be emitted.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled
}

// Channel returns the channel applied to events without one.
func (e *Emitter) Channel() string {
	if e == nil {
		return DefaultChannel
	}
	return e.channel
}

// Accepts reports whether an event with verb would be emitted.
func (e *Emitter) Accepts(verb string) bool {
	if !e.Enabled() {
		return false
	}
	if len(e.verbs) == 0 {
		return true
	}
	_, ok := e.verbs[strings.TrimSpace(verb)]
	return ok
}

// Emit sends event to the hooks when it is accepted. The returned error
// joins the failures of individual hooks.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Accepts(event.Verb) {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	return e.hooks.Notify(ctx, event)
}
