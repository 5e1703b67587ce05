package pages

import "errors"

// ErrNoPages is returned when a menu would start, or a builder would
// finish, with nothing to display.
var ErrNoPages = errors.New("no pages have been added")
