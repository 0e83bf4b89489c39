/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codenames

import (
	"errors"
	"fmt"
)

// Kind classifies an engine failure.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindResource      Kind = "resource"
	KindConflict      Kind = "conflict"
	KindState         Kind = "state"
	KindUnavailable   Kind = "unavailable"
	KindInternal      Kind = "internal"
)

// Error is returned by every engine operation that rejects a request. The
// session is never modified when an Error is returned.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrRoomNotFound     = newError(KindResource, "room not found")
	ErrNotInRoom        = newError(KindResource, "not in a room")
	ErrIdentityNotFound = newError(KindResource, "no player with that identity")

	ErrNotHost      = newError(KindAuthorization, "only the host can do that")
	ErrNotSpymaster = newError(KindAuthorization, "only a spymaster can give clues")
	ErrNotYourTurn  = newError(KindAuthorization, "not your turn")
	ErrNoTeam       = newError(KindAuthorization, "you are not on a team")

	ErrWrongPhase    = newError(KindState, "not allowed in the current phase")
	ErrNotPlaying    = newError(KindState, "game is not in progress")
	ErrNotEnded      = newError(KindState, "game has not ended")
	ErrNotEnoughSeat = newError(KindState, "at least 2 seated players are required")
	ErrNotSeated     = newError(KindState, "you are not seated")

	ErrNameTaken       = newError(KindConflict, "name already in use")
	ErrSeatTaken       = newError(KindConflict, "seat already occupied")
	ErrAlreadyRevealed = newError(KindConflict, "card already revealed")

	ErrInvalidName      = newError(KindValidation, fmt.Sprintf("name must be 1-%d characters", MaxNameLength))
	ErrInvalidSeat      = newError(KindValidation, "invalid seat")
	ErrInvalidCard      = newError(KindValidation, "invalid card")
	ErrInvalidClue      = newError(KindValidation, "clue word must not be empty and count must not be negative")
	ErrInvalidPlayerCap = newError(KindValidation, fmt.Sprintf("player count must be between %d and %d", MinPlayers, MaxPlayers))
	ErrTooManySeated    = newError(KindValidation, "more players are seated than the new limit")
	ErrNotEnoughWords   = newError(KindValidation, fmt.Sprintf("at least %d distinct words are required", GridSize))
	ErrInvalidWord      = newError(KindValidation, fmt.Sprintf("words must be 1-%d characters", MaxWordLength))
	ErrUnsafeTheme      = newError(KindValidation, "theme contains inappropriate content")
	ErrEmptyTheme       = newError(KindValidation, "theme must not be empty")
	ErrThemeDisabled    = newError(KindUnavailable, "theme word generation is not configured")
)
