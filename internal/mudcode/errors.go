// Package mudcode defines the error-kind taxonomy the server core uses to
// decide what, if anything, a failure shows the player.
package mudcode

import (
	"errors"
	"fmt"
)

// Kind is one of the error categories from the failure semantics table.
type Kind int

const (
	// Protocol is a telnet FSM violation; recovered silently.
	Protocol Kind = iota
	// SessionIO is a socket read/write failure; the session is doomed.
	SessionIO
	// Parse is a command line that didn't tokenize or resolve.
	Parse
	// Precondition is a failed command-gate predicate.
	Precondition
	// NotFound is a target-resolution miss.
	NotFound
	// Overloaded is backpressure or cache-capacity exhaustion.
	Overloaded
	// Content is a missing or malformed on-disk entity.
	Content
	// Fatal aborts the process.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Protocol:
		return "protocol"
	case SessionIO:
		return "session_io"
	case Parse:
		return "parse"
	case Precondition:
		return "precondition"
	case NotFound:
		return "not_found"
	case Overloaded:
		return "overloaded"
	case Content:
		return "content"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind and the user-visible message
// the dispatcher should emit for it, per spec §7.
type Error struct {
	kind    Kind
	message string
	cause   error
}

// New builds an Error with no user-visible message (used for kinds that
// never reach a player, like Protocol and SessionIO).
func New(kind Kind, cause error) *Error {
	return &Error{kind: kind, cause: cause}
}

// NewWithMessage builds an Error carrying the text the dispatcher should
// surface to the player.
func NewWithMessage(kind Kind, message string, cause error) *Error {
	return &Error{kind: kind, message: message, cause: cause}
}

func (e *Error) Kind() Kind { return e.kind }

// UserMessage returns the text a dispatcher should show the player, falling
// back to a generic message per kind when none was set.
func (e *Error) UserMessage() string {
	if e.message != "" {
		return e.message
	}
	switch e.kind {
	case Parse:
		return "Huh?"
	case Precondition:
		return "You can't do that right now."
	case NotFound:
		return "You don't see that here."
	case Overloaded:
		return "The world is too busy to process that right now."
	case Content:
		return "Something is wrong with that; a wizard has been notified."
	default:
		return ""
	}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.kind, e.cause)
	}
	return e.kind.String()
}

func (e *Error) Unwrap() error { return e.cause }

// KindOf extracts the Kind of err if it (or something it wraps) is a
// *Error, defaulting to Fatal for anything else so unexpected errors fail
// loud rather than being silently swallowed.
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.kind
	}
	return Fatal
}
