// Package activation contains the domain types for action activations.
// Activations are produced by the invoker; the gateway only reads them.
package activation

import (
	"encoding/json"
	"strings"
	"time"
)

// Status is the outcome classification of an activation response.
type Status int

const (
	// StatusSuccess means the action completed and returned a result.
	StatusSuccess Status = iota
	// StatusApplicationError means the action completed but returned an
	// error object under the standard error field.
	StatusApplicationError
	// StatusDeveloperError means the action failed before or during
	// execution in a way attributable to the action itself.
	StatusDeveloperError
	// StatusSystemError means the platform failed to run the action.
	StatusSystemError
)

// String returns the wire name of the status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusApplicationError:
		return "application_error"
	case StatusDeveloperError:
		return "developer_error"
	default:
		return "system_error"
	}
}

// ParseStatus maps a wire name to a Status. Unknown names map to
// StatusSystemError so a malformed record is never mistaken for success.
func ParseStatus(s string) Status {
	switch strings.ToLower(s) {
	case "success":
		return StatusSuccess
	case "application_error":
		return StatusApplicationError
	case "developer_error":
		return StatusDeveloperError
	default:
		return StatusSystemError
	}
}

// ErrorField is the result field that carries the error value of an
// application-error activation.
const ErrorField = "error"

// Activation is one execution record of an action.
type Activation struct {
	// ID is the activation id assigned by the invoker.
	ID string
	// Namespace is the owner namespace of the invoked action.
	Namespace string
	// Name is the fully-qualified action name.
	Name string
	// Status classifies the response.
	Status Status
	// Result is the JSON result returned by the action.
	Result json.RawMessage
	// Start and End bound the execution.
	Start time.Time
	End   time.Time
}

// Succeeded reports whether the activation completed without error.
func (a *Activation) Succeeded() bool {
	return a.Status == StatusSuccess
}
