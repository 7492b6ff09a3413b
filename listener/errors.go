package listener

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

var ErrUnknownEvent = errors.New("unknown execution event")

// NotifyError is returned when an engine notification could not be recorded.
type NotifyError struct {
	Event EventName

	// ElementID is the flow node or transition the notification was about
	ElementID string

	Err error

	// Stack is the stack trace at the time the notification failed
	Stack string
}

func newNotifyError(event EventName, elementID string, err error) *NotifyError {
	return &NotifyError{
		Event:     event,
		ElementID: elementID,
		Err:       err,
		Stack:     stack(err),
	}
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify %s %s: %v", e.Event, e.ElementID, e.Err)
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}

func stack(err error) string {
	goerr := goerrors.Wrap(err, 2)
	return string(goerr.Stack())
}
