// Package logging adapts store log events to logrus.
package logging

import (
	"io"
	"os"

	conveyor "github.com/goliatone/go-conveyor"
	"github.com/sirupsen/logrus"
)

// Logger writes conveyor events to a logrus entry.
type Logger struct {
	entry *logrus.Entry
}

var _ conveyor.Logger = (*Logger)(nil)

// NewLogger wraps entry. A nil entry logs through a fresh logrus logger.
func NewLogger(entry *logrus.Entry) *Logger {
	if entry == nil {
		entry = logrus.NewEntry(logrus.New())
	}
	return &Logger{entry: entry}
}

// FromConfig builds a logger writing to out with the configured level and
// format ("json" or "text"). A nil out writes to stderr.
func FromConfig(cfg conveyor.LogConfig, out io.Writer) *Logger {
	logger := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	return NewLogger(logrus.NewEntry(logger).WithField("component", "conveyor"))
}

// Entry exposes the underlying entry for callers that log alongside the store.
func (l *Logger) Entry() *logrus.Entry {
	return l.entry
}

// LogEvent implements conveyor.Logger. Commits and flushes log at debug,
// everything else at info; failures log at error.
func (l *Logger) LogEvent(event conveyor.LogEvent) {
	fields := logrus.Fields{"event": string(event.Kind)}
	if event.Store != "" {
		fields["store"] = event.Store
	}
	if event.Action != "" {
		fields["action"] = event.Action
	}
	if event.DispatchID != "" {
		fields["dispatch_id"] = event.DispatchID
	}
	if event.Alias != "" {
		fields["alias"] = event.Alias
	}
	if event.Engine != "" {
		fields["engine"] = event.Engine
	}
	if event.Expr != "" {
		fields["expr"] = event.Expr
	}
	if event.Verb != "" {
		fields["verb"] = event.Verb
	}
	if event.Kind == conveyor.EventFlush {
		fields["subscribers"] = event.Subscribers
	}
	if event.Duration > 0 {
		fields["duration"] = event.Duration
	}

	entry := l.entry.WithFields(fields)
	if event.Err != nil {
		entry.WithError(event.Err).Error(message(event.Kind))
		return
	}
	switch event.Kind {
	case conveyor.EventCommit, conveyor.EventFlush, conveyor.EventEvaluate:
		entry.Debug(message(event.Kind))
	default:
		entry.Info(message(event.Kind))
	}
}

func message(kind conveyor.EventKind) string {
	switch kind {
	case conveyor.EventCommit:
		return "root committed"
	case conveyor.EventFlush:
		return "subscribers notified"
	case conveyor.EventDispatch:
		return "dispatch settled"
	case conveyor.EventAssemble:
		return "store assembled"
	case conveyor.EventEvaluate:
		return "expression evaluated"
	case conveyor.EventActivity:
		return "activity hook failed"
	default:
		return string(kind)
	}
}
