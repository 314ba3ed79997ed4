// Package webaction contains the domain logic for the web action gateway:
// media extensions, reserved-property directives, parameter merging,
// result projection, and response transcoding.
package webaction

import (
	"errors"
	"fmt"
	"net/http"
)

// Canonical rejection messages. Deep layers collapse store and
// deserialization errors into one of these so existence is never leaked.
const (
	MsgResourceMissing      = "The requested resource does not exist."
	MsgPropertyNotFound     = "The requested property does not exist."
	MsgParametersNotAllowed = "Request defines parameters that are not allowed (e.g., reserved properties)."
	MsgContentUnsupported   = "Resource representation is only available with these extensions: .json, .html, .http, .svg, .text."
	MsgEntityTooLarge       = "Request entity too large."
	MsgAuthRequired         = "Request is not authorized."
	MsgThrottled            = "Too many requests in a given amount of time for namespace."
	MsgResponseNotReady     = "Response not yet ready."
	MsgErrorProcessing      = "Error processing request."
	MsgUnknownContentType   = "Response header has an unknown or disallowed content-type."
	MsgInternalError        = "Internal error processing request."
)

// Reject is the single error type that crosses component boundaries. Every
// failure in the request pipeline is collapsed into a Reject carrying the
// HTTP status code and a caller-safe message.
type Reject struct {
	Code    int
	Message string

	// ActivationID identifies the still-running activation behind a 202
	// response, when the invoker reported one.
	ActivationID string
}

func (r *Reject) Error() string {
	return fmt.Sprintf("reject %d: %s", r.Code, r.Message)
}

// NewReject creates a Reject with the given status code and message.
func NewReject(code int, message string) *Reject {
	return &Reject{Code: code, Message: message}
}

// RejectNotFound is the catch-all for missing entities, bindings, and
// deserialization failures.
func RejectNotFound() *Reject {
	return NewReject(http.StatusNotFound, MsgResourceMissing)
}

// RejectNotReady is the 202 reply for a blocking invocation that outlived
// the wait bound. activationID may be empty when the invocation never
// reached the invoker.
func RejectNotReady(activationID string) *Reject {
	return &Reject{
		Code:         http.StatusAccepted,
		Message:      MsgResponseNotReady,
		ActivationID: activationID,
	}
}

// AsReject extracts a *Reject from an error chain. Unrecognized errors map
// to a 500 Reject so raw store errors never reach the caller.
func AsReject(err error) *Reject {
	var r *Reject
	if errors.As(err, &r) {
		return r
	}
	return NewReject(http.StatusInternalServerError, MsgInternalError)
}
