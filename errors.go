package conveyor

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPath indicates an empty or unresolvable path.
	ErrInvalidPath = errors.New("conveyor: invalid path")
	// ErrInvalidSelector indicates Select received something other than a
	// non-empty plain record, or a put selector returned an unusable value.
	ErrInvalidSelector = errors.New("conveyor: selector must return a non-empty record")
	// ErrUsage indicates operators were combined in an unsupported way.
	ErrUsage = errors.New("conveyor: unsupported operator usage")
	// ErrNotRecord indicates a plain keyed record was required.
	ErrNotRecord = errors.New("conveyor: state is not a plain record")
	// ErrDuplicateType indicates an action type was registered twice.
	ErrDuplicateType = errors.New("conveyor: action type already registered")
	// ErrUnregisteredType indicates a dispatch for an unknown action type.
	ErrUnregisteredType = errors.New("conveyor: action type not registered")
	// ErrDuplicateKey indicates an assemble alias collides with parent state.
	ErrDuplicateKey = errors.New("conveyor: key already exists on parent state")
	// ErrAlreadyAssembled indicates a child store is already composed.
	ErrAlreadyAssembled = errors.New("conveyor: store already assembled")
	// ErrAborted indicates a mutation was attempted after cancellation.
	ErrAborted = errors.New("conveyor: dispatch aborted")
	// ErrEngineUnavailable is returned by evaluators compiled out of the binary.
	ErrEngineUnavailable = errors.New("conveyor: evaluator engine not built in")
)

// DispatchError wraps a failure reported by an action handler.
type DispatchError struct {
	Type string
	ID   string
	Err  error
}

func (e *DispatchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("conveyor: dispatch %q failed: %v", e.Type, e.Err)
}

func (e *DispatchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
