// Package shroud is a deterministic data-anonymization engine.
//
// Given a structured record, shroud transforms selected fields through
// ordered chains of masking and generalization primitives, producing a
// privacy-reduced representation that still preserves the statistical and
// temporal properties data-protection work depends on: deterministic
// seeding so repeated runs over the same entity stay consistent,
// relationship-preserving date shifting, calibrated noise, bucketing, and
// checksum-aware format-preserving masking of payment instruments and
// national identifiers.
//
// # Primitives
//
// Every primitive is a pure value→value function, stateless except for
// immutable configuration fixed at construction. Primitives come in three
// native families:
//
//   - TextTransformer: string → string (maskers, identifiers, pseudonyms)
//   - NumberTransformer: float64 → float64 (noise, rounding)
//   - TimeTransformer: time.Time → time.Time (date shifting)
//
// plus text-producing generalizers (bucketing, age and date
// generalization) which map a value to a label.
//
// Constructors validate configuration eagerly: a negative range, a
// malformed bucket table, or a bad key length fails at construction with a
// ConfigError, never at apply time. Apply-time behavior degrades
// gracefully instead: empty, absent, or unparseable input passes through
// unchanged.
//
// # Chains
//
// A Chain is an ordered, append-only sequence of primitives bound to one
// field. Execution is strictly left-to-right; each stage's output feeds
// the next. Stages of mismatched type are bridged through a per-type
// value↔text Converter, falling back to a default text representation.
// Nil input short-circuits the whole chain unchanged.
//
//	chain := shroud.NewChain(
//	    shroud.TimeStage(shift),
//	    shroud.TextStage(year),
//	)
//	out, err := chain.Apply("2024-03-15")
//
// # Determinism
//
// Primitives that draw randomness accept a SeedProvider. With a provider
// attached, the same provider-observed key yields bit-identical output
// across calls and process restarts — the mechanism by which every date
// for one entity shifts by the same offset without storing that offset
// anywhere. Without a provider, seeds come from crypto/rand and are never
// reused or logged.
//
//	shift, _ := shroud.NewDateShift(30, shroud.WithShiftSeed(shroud.EntitySeed("patient-172")))
//
// # Records
//
// The Processor applies a Policy (field path → chain) to a whole record,
// recursing into nested structs and slices, collecting per-field failures
// into a Report without aborting the rest of the record. See Processor.
package shroud

import "time"

// TextTransformer transforms a string value.
// Implementations must be stateless after construction and safe for
// unsynchronized concurrent use.
type TextTransformer interface {
	// TransformText returns the masked form of s.
	// Empty input is returned unchanged.
	TransformText(s string) (string, error)
}

// NumberTransformer transforms a numeric value.
// The executor converts integer fields to float64 and back, saturating on
// overflow rather than wrapping.
type NumberTransformer interface {
	// TransformNumber returns the masked form of f.
	TransformNumber(f float64) (float64, error)
}

// TimeTransformer transforms a timestamp.
type TimeTransformer interface {
	// TransformTime returns the masked form of t.
	TransformTime(t time.Time) (time.Time, error)
}

// Cloner allows types to provide deep copy logic.
// Implementing this interface is required for use with Processor.
//
// The Clone method must return a deep copy where modifications to the
// clone do not affect the original value. For simple value types:
//
//	func (u User) Clone() User { return u }
//
// For types with reference fields, copy the slices and maps too.
type Cloner[T any] interface {
	Clone() T
}

// Codec provides content-type aware marshaling for MaskBytes round trips.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}

// Maskable bypasses reflection-based chain dispatch.
// When a type implements Maskable, the Processor calls MaskFields on the
// clone instead of walking its field plans. The Report records any error
// under the "_self" key.
type Maskable interface {
	// MaskFields transforms the receiver's fields in place.
	// The receiver is a clone, so mutations are safe.
	MaskFields(chains map[string]*Chain) error
}
