package shroud

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"

	"golang.org/x/crypto/blake2b"
)

// SeedProvider maps a provider-observed key to a deterministic seed.
//
// The provider is owned by the caller and attached to one primitive
// instance per masking session. It receives the value being transformed,
// but is free to ignore it and key on an external identity instead — the
// usual arrangement, so that every date and amount for one entity shifts
// consistently without a per-entity offset being stored anywhere.
//
// Invariant: same observed key ⇒ same seed ⇒ bit-identical downstream
// output, for the provider's lifetime.
type SeedProvider func(v any) int64

// EntitySeed returns a SeedProvider that ignores the transformed value and
// derives a stable seed from an external entity key (patient id, customer
// id). The derivation is a BLAKE2b digest truncated to 64 bits, stable
// across processes and restarts.
//
// This path is adequate for anonymization consistency but is not
// cryptographically secure; when no provider is attached, primitives fall
// back to crypto/rand entropy instead.
func EntitySeed(key string) SeedProvider {
	sum := blake2b.Sum256([]byte(key))
	seed := int64(binary.BigEndian.Uint64(sum[:8]))
	return func(any) int64 { return seed }
}

// ValueSeed returns a SeedProvider that keys on the transformed value
// itself, so equal inputs always mask to equal outputs.
func ValueSeed() SeedProvider {
	return func(v any) int64 {
		sum := blake2b.Sum256([]byte(fmt.Sprintf("%v", v)))
		return int64(binary.BigEndian.Uint64(sum[:8]))
	}
}

// entropy is the randomness source feeding every stochastic primitive.
// With a provider it is deterministic and reproducible; without one each
// generator is seeded from crypto/rand, never reused or logged.
type entropy struct {
	provider SeedProvider
}

// generator returns a generator for one transformation of v.
func (e entropy) generator(v any) *rand.Rand {
	if e.provider != nil {
		return rand.New(rand.NewSource(e.provider(v)))
	}
	var b [8]byte
	if _, err := cryptorand.Read(b[:]); err != nil {
		// crypto/rand.Read does not fail on supported platforms; if it
		// ever does, a zero seed would silently break the "never reused"
		// guarantee, so stop hard.
		panic(fmt.Sprintf("shroud: entropy source unavailable: %v", err))
	}
	return rand.New(rand.NewSource(int64(binary.BigEndian.Uint64(b[:]))))
}

// seeded reports whether a provider is attached.
func (e entropy) seeded() bool {
	return e.provider != nil
}
