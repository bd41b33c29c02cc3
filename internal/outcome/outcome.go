// Package outcome defines the result of a bot command: either a payload ready
// for presentation or a classified failure carrying a user-facing message.
package outcome

import (
	"errors"
	"fmt"
)

// Kind classifies why a command failed
type Kind string

const (
	// KindNotFound means the registry has no record for the callsign
	KindNotFound Kind = "not_found"
	// KindStatsNotFound means the logbook page had no recognisable statistics
	KindStatsNotFound Kind = "stats_not_found"
	// KindUpstreamUnavailable covers transport errors, timeouts and non-200 responses
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	// KindMalformedResponse means a 200 response was missing an expected field
	KindMalformedResponse Kind = "malformed_upstream_response"
	// KindInvalidArguments means the command was invoked with the wrong arguments
	KindInvalidArguments Kind = "invalid_arguments"
)

// GenericFailureMessage is shown for internal errors; raw causes are never exposed.
const GenericFailureMessage = "Something went wrong while processing that request. Please try again later."

// Error is a classified command failure
type Error struct {
	Kind        Kind
	UserMessage string
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Benign reports whether the failure is an expected answer rather than a fault
func (e *Error) Benign() bool {
	switch e.Kind {
	case KindNotFound, KindStatsNotFound, KindInvalidArguments:
		return true
	}
	return false
}

// NotFound builds a KindNotFound error
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, UserMessage: message}
}

// StatsNotFound builds a KindStatsNotFound error
func StatsNotFound(message string) *Error {
	return &Error{Kind: KindStatsNotFound, UserMessage: message}
}

// Unavailable builds a KindUpstreamUnavailable error wrapping cause
func Unavailable(message string, cause error) *Error {
	return &Error{Kind: KindUpstreamUnavailable, UserMessage: message, Err: cause}
}

// Malformed builds a KindMalformedResponse error. The user sees the generic message.
func Malformed(cause error) *Error {
	return &Error{Kind: KindMalformedResponse, UserMessage: GenericFailureMessage, Err: cause}
}

// InvalidArguments builds a KindInvalidArguments error
func InvalidArguments(message string) *Error {
	return &Error{Kind: KindInvalidArguments, UserMessage: message}
}

// Classify converts any error into an *Error. Unclassified errors are treated
// as malformed so their text never reaches the user.
func Classify(err error) *Error {
	var oe *Error
	if errors.As(err, &oe) {
		return oe
	}
	return Malformed(err)
}

// Outcome is what a command handler hands to a presentation adapter
type Outcome struct {
	Command string `json:"command"`
	Payload any    `json:"payload,omitempty"`
	Failure *Error `json:"-"`
}

// Success wraps a payload
func Success(command string, payload any) Outcome {
	return Outcome{Command: command, Payload: payload}
}

// Failure wraps an error, classifying it if needed
func Failure(command string, err error) Outcome {
	return Outcome{Command: command, Failure: Classify(err)}
}

// OK reports whether the command succeeded
func (o Outcome) OK() bool {
	return o.Failure == nil
}
