// Package ferrors defines the error taxonomy shared by every stage of a
// fiddler pipeline. Each kind below corresponds one-to-one with a variant of
// the Error enum in the original fiddler lib/src/lib.rs, translated from
// thiserror variants into plain Go error values so callers can branch with
// errors.Is / errors.As instead of pattern matching.
package ferrors

import (
	"errors"
	"fmt"
)

// EndOfInput signals orderly shutdown from the input stage. It is not a
// failure; the input loop exits cleanly and closes the channel it feeds.
var EndOfInput = errors.New("end of input")

// ConditionalCheckFailed is returned by a check composite when its predicate
// does not match. Switch composites pattern-match on this to fall through to
// their next branch; a try composite recovers from it like any other error;
// any other stage treats it as a normal terminal error for that message.
var ConditionalCheckFailed = errors.New("conditional check failed")

// UnableToSendToChannel indicates the peer task on the other end of a
// channel has already exited. It is always fatal to the runtime.
var UnableToSendToChannel = errors.New("unable to send to channel")

// DuplicateRegisteredName is returned by the registry when a (kind, name)
// pair is registered twice, or when a write is attempted after the registry
// has been frozen.
type DuplicateRegisteredName struct {
	Name string
}

func (e *DuplicateRegisteredName) Error() string {
	return fmt.Sprintf("duplicate registered name: %s", e.Name)
}

// ConfigurationItemNotFound is returned by the binder when a stanza names a
// plugin that isn't registered under the expected kind.
type ConfigurationItemNotFound struct {
	Name string
}

func (e *ConfigurationItemNotFound) Error() string {
	return fmt.Sprintf("configuration item not found: %s", e.Name)
}

// ConfigFailedValidation is returned by the binder for malformed stanzas:
// zero or multiple plugin keys, an empty processor list, or a schema
// rejection.
type ConfigFailedValidation struct {
	Detail string
}

func (e *ConfigFailedValidation) Error() string {
	return fmt.Sprintf("configuration failed validation: %s", e.Detail)
}

// InvalidValidationSchema is returned when a plugin's own JSON-Schema is
// malformed and cannot be compiled.
type InvalidValidationSchema struct {
	Detail string
}

func (e *InvalidValidationSchema) Error() string {
	return fmt.Sprintf("invalid validation schema: %s", e.Detail)
}

// ProcessingError wraps a processor failure for a single message. By
// default it is fatal to the runtime unless caught by an enclosing try
// composite.
type ProcessingError struct {
	Detail string
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing error: %s", e.Detail)
}

// OutputError wraps an output write failure for a single message. It is
// reported through the lifecycle tracker and does not stop the runtime.
type OutputError struct {
	Detail string
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("output error: %s", e.Detail)
}

// NewProcessingError is a convenience constructor matching the Rust
// ProcessingError(detail) variant's call sites.
func NewProcessingError(format string, args ...any) error {
	return &ProcessingError{Detail: fmt.Sprintf(format, args...)}
}

// NewOutputError is a convenience constructor matching the Rust
// OutputError(detail) variant's call sites.
func NewOutputError(format string, args ...any) error {
	return &OutputError{Detail: fmt.Sprintf(format, args...)}
}

// NewConfigFailedValidation is a convenience constructor.
func NewConfigFailedValidation(format string, args ...any) error {
	return &ConfigFailedValidation{Detail: fmt.Sprintf(format, args...)}
}

// NewInvalidValidationSchema is a convenience constructor.
func NewInvalidValidationSchema(format string, args ...any) error {
	return &InvalidValidationSchema{Detail: fmt.Sprintf(format, args...)}
}
