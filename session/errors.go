package session

import "errors"

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionFull      = errors.New("session full")
	ErrAlreadyInSession = errors.New("already in session")
	ErrNotInSession     = errors.New("not in a session")
	ErrNotCreator       = errors.New("only the session creator may do that")
	ErrBotAlreadyJoined = errors.New("bot already in session")
	ErrPlayerDrafted    = errors.New("player already drafted")
	ErrTeamTooLarge     = errors.New("team exceeds max size")
	ErrTeamEmpty        = errors.New("team has no players")
)
