package conveyor

import "time"

// EventKind names the store operation a log event describes.
type EventKind string

const (
	EventCommit   EventKind = "commit"
	EventFlush    EventKind = "flush"
	EventDispatch EventKind = "dispatch"
	EventAssemble EventKind = "assemble"
	EventEvaluate EventKind = "evaluate"
	EventActivity EventKind = "activity"
)

// LogEvent describes one store operation for logging.
type LogEvent struct {
	Kind        EventKind
	Store       string
	Action      string
	DispatchID  string
	Alias       string
	Engine      string
	Expr        string
	Verb        string
	Subscribers int
	Duration    time.Duration
	Err         error
}

// Logger records store events.
type Logger interface {
	LogEvent(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// LogEvent implements Logger.
func (f LoggerFunc) LogEvent(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) LogEvent(LogEvent) {}

// WithLogger attaches a logger to the store.
func WithLogger(logger Logger) Option {
	return func(cfg *storeConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}
