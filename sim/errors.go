package sim

import "errors"

var (
	// ErrInvalidRoster is returned before simulation starts: wrong size,
	// duplicate player ids, or nil players.
	ErrInvalidRoster = errors.New("invalid roster")

	// ErrInvalidState is returned when ticking a finished match or
	// aggregating a match that hasn't finished.
	ErrInvalidState = errors.New("invalid match state")
)
