package shroud

import (
	"strings"
	"unicode"

	"github.com/capitalone/fpe/ff1"
)

// ff1MinDigits is the minimum payload length FF1 accepts at radix 10
// (radix^len must reach the NIST domain-size floor). Shorter payloads
// pass through unchanged rather than erroring.
const ff1MinDigits = 6

// FF1Masker tokenizes the digit payload of an identifier with FF1
// format-preserving encryption: output digits replace input digits
// one-for-one, every structural character stays in place, and the
// mapping is deterministic per key and reversible with it. Construct
// with NewFF1Masker.
type FF1Masker struct {
	key   []byte
	tweak []byte
}

// FF1Option configures an FF1Masker.
type FF1Option func(*FF1Masker)

// WithFF1Tweak sets the cipher tweak, domain-separating tokens produced
// with the same key (e.g. per dataset or per field).
func WithFF1Tweak(tweak []byte) FF1Option {
	return func(f *FF1Masker) { f.tweak = append([]byte(nil), tweak...) }
}

// NewFF1Masker returns a format-preserving tokenizer.
// The key must be a valid AES key: 16, 24, or 32 bytes.
func NewFF1Masker(key []byte, opts ...FF1Option) (*FF1Masker, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, newConfigError("ff1", "key", "must be 16, 24, or 32 bytes")
	}
	f := &FF1Masker{key: append([]byte(nil), key...)}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// TransformText tokenizes the digits of s in place.
// Input with fewer digits than FF1 supports returns unchanged.
func (f *FF1Masker) TransformText(s string) (string, error) {
	if s == "" {
		return s, nil
	}
	digits := extractDigits(s)
	if len(digits) < ff1MinDigits {
		return s, nil
	}

	c, err := ff1.NewCipher(10, len(f.tweak), f.key, f.tweak)
	if err != nil {
		return s, err
	}
	cipher, err := c.Encrypt(digits)
	if err != nil {
		return s, err
	}

	// Splice cipher digits back into the original structure.
	var out strings.Builder
	out.Grow(len(s))
	next := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			out.WriteByte(cipher[next])
			next++
		} else {
			out.WriteRune(r)
		}
	}
	return out.String(), nil
}
