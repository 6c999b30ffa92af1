package shroud

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrInvalidConfig indicates a primitive was constructed with invalid
	// parameters (negative range, malformed bucket table, bad key length).
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrChecksum indicates a value failed checksum validation on a
	// primitive explicitly configured to validate.
	ErrChecksum = errors.New("checksum validation failed")

	// ErrMatchTimeout indicates a bounded pattern match exceeded its time
	// limit. Auto-detection treats this as "no match"; explicit
	// single-pattern matching surfaces it.
	ErrMatchTimeout = errors.New("pattern match timed out")

	// ErrTransform indicates a chain stage failed on a field.
	ErrTransform = errors.New("transform failed")

	// ErrUnmarshal indicates the codec failed to unmarshal input data.
	ErrUnmarshal = errors.New("unmarshal failed")

	// ErrMarshal indicates the codec failed to marshal output data.
	ErrMarshal = errors.New("marshal failed")
)

// ConfigError represents a construction-time configuration error.
// It wraps ErrInvalidConfig with the primitive and parameter at fault.
type ConfigError struct {
	Primitive string // primitive name (e.g., "noise", "buckets")
	Param     string // offending parameter
	Detail    string // human-readable explanation
}

func (e *ConfigError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s %s: %s", ErrInvalidConfig.Error(), e.Primitive, e.Param, e.Detail)
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidConfig.Error(), e.Primitive, e.Detail)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// TransformError represents a failure applying a chain stage to a field.
// Per-field failures are recorded in the Report, not propagated, so one
// bad field cannot abort masking of an entire record.
type TransformError struct {
	Field string // field path that failed
	Stage int    // zero-based chain stage index
	Cause error  // original error from the primitive
}

func (e *TransformError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("transform failed: field %s stage %d: %v", e.Field, e.Stage, e.Cause)
	}
	return fmt.Sprintf("transform failed: stage %d: %v", e.Stage, e.Cause)
}

func (e *TransformError) Unwrap() error {
	return ErrTransform
}

// ChecksumError reports which format failed validation.
type ChecksumError struct {
	Format string // "luhn" or "mod97"
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum validation failed: %s", e.Format)
}

func (e *ChecksumError) Unwrap() error {
	return ErrChecksum
}

// CodecError represents a marshal/unmarshal error.
type CodecError struct {
	Err   error // ErrMarshal or ErrUnmarshal
	Cause error // original error from the codec
}

func (e *CodecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Err.Error(), e.Cause)
	}
	return e.Err.Error()
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// newConfigError creates a ConfigError for construction failures.
func newConfigError(primitive, param, detail string) error {
	return &ConfigError{Primitive: primitive, Param: param, Detail: detail}
}

// newTransformError creates a TransformError for chain stage failures.
func newTransformError(field string, stage int, cause error) error {
	return &TransformError{Field: field, Stage: stage, Cause: cause}
}

// newCodecError creates a CodecError for marshal/unmarshal failures.
func newCodecError(sentinel, cause error) error {
	return &CodecError{Err: sentinel, Cause: cause}
}
