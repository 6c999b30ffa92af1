package shroud

import (
	"encoding/base32"
	"encoding/hex"
	"hash"

	"golang.org/x/crypto/blake2b"
)

// PseudonymEncoding selects the token representation.
type PseudonymEncoding string

const (
	// PseudonymHex renders tokens as lowercase hex.
	PseudonymHex PseudonymEncoding = "hex"

	// PseudonymBase32 renders tokens as unpadded base32 (A-Z, 2-7),
	// convenient where tokens replace human-entered identifiers.
	PseudonymBase32 PseudonymEncoding = "base32"
)

var base32NoPad = base32.StdEncoding.WithPadding(base32.NoPadding)

// Pseudonymizer replaces a value with a deterministic keyed token: the
// same key and value always produce the same token, so joins across
// masked datasets keep working, while the value itself is unrecoverable
// without the key. Construct with NewPseudonymizer.
type Pseudonymizer struct {
	key      []byte
	size     int
	encoding PseudonymEncoding
}

// PseudonymOption configures a Pseudonymizer.
type PseudonymOption func(*Pseudonymizer)

// WithPseudonymEncoding sets the token representation (default hex).
func WithPseudonymEncoding(e PseudonymEncoding) PseudonymOption {
	return func(p *Pseudonymizer) { p.encoding = e }
}

// WithPseudonymSize sets the digest size in bytes, 1–64 (default 16).
func WithPseudonymSize(n int) PseudonymOption {
	return func(p *Pseudonymizer) { p.size = n }
}

// NewPseudonymizer returns a pseudonymization primitive keyed with key.
// The key must be 1–64 bytes (BLAKE2b key bound).
func NewPseudonymizer(key []byte, opts ...PseudonymOption) (*Pseudonymizer, error) {
	if len(key) == 0 || len(key) > 64 {
		return nil, newConfigError("pseudonym", "key", "must be 1-64 bytes")
	}
	p := &Pseudonymizer{
		key:      append([]byte(nil), key...),
		size:     16,
		encoding: PseudonymHex,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.size < 1 || p.size > 64 {
		return nil, newConfigError("pseudonym", "size", "must be 1-64 bytes")
	}
	switch p.encoding {
	case PseudonymHex, PseudonymBase32:
	default:
		return nil, newConfigError("pseudonym", "encoding", "must be hex or base32")
	}
	return p, nil
}

// TransformText replaces s with its keyed token.
// Empty input returns empty.
func (p *Pseudonymizer) TransformText(s string) (string, error) {
	if s == "" {
		return s, nil
	}
	h, err := blake2b.New(p.size, p.key)
	if err != nil {
		return s, err
	}
	return p.encode(h, s), nil
}

// encode writes s through h and renders the digest.
func (p *Pseudonymizer) encode(h hash.Hash, s string) string {
	h.Write([]byte(s))
	sum := h.Sum(nil)
	if p.encoding == PseudonymBase32 {
		return base32NoPad.EncodeToString(sum)
	}
	return hex.EncodeToString(sum)
}
