package button

import (
	"errors"
	"fmt"
)

// ErrButtonNotFound is returned when removing or disabling a button that
// was never registered.
var ErrButtonNotFound = errors.New("button is not registered on this menu")

// ErrDuplicateButton reports a button whose discriminating key is already
// registered.
type ErrDuplicateButton struct {
	Key string
}

func (e *ErrDuplicateButton) Error() string {
	return fmt.Sprintf("a button with key %q has already been added", e.Key)
}

// ErrTooManyButtons reports that the platform ceiling for the control
// family has been reached.
type ErrTooManyButtons struct {
	Max int
}

func (e *ErrTooManyButtons) Error() string {
	return fmt.Sprintf("menu cannot have more than %d buttons (discord limitation)", e.Max)
}

// ErrMissingSetting reports a button added without the companion data its
// action requires.
type ErrMissingSetting struct {
	Action Action
	What   string
}

func (e *ErrMissingSetting) Error() string {
	return fmt.Sprintf("a button linked to %q requires %s to be set", e.Action, e.What)
}

// ErrUnsupportedAction reports an action the current control family does
// not recognize.
type ErrUnsupportedAction struct {
	Action Action
	Family string
}

func (e *ErrUnsupportedAction) Error() string {
	return fmt.Sprintf("action %q is not supported by %s buttons", e.Action, e.Family)
}
