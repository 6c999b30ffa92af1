package shroud

import (
	"strings"
	"unicode"
)

// maskDigitsKeeping masks every digit in s except the first keepFirst and
// last keepLast digits, leaving all non-digit characters in their
// original positions.
func maskDigitsKeeping(s string, keepFirst, keepLast int, glyph rune) string {
	return maskClassKeeping(s, keepFirst, keepLast, glyph, unicode.IsDigit)
}

// maskAlnumKeeping masks every letter and digit in s except the first
// keepFirst and last keepLast, leaving separators in place.
func maskAlnumKeeping(s string, keepFirst, keepLast int, glyph rune) string {
	return maskClassKeeping(s, keepFirst, keepLast, glyph, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	})
}

// maskClassKeeping is the shared structural masker: characters matching
// class are payload, everything else is structure and survives untouched.
func maskClassKeeping(s string, keepFirst, keepLast int, glyph rune, class func(rune) bool) string {
	runes := []rune(s)
	total := 0
	for _, r := range runes {
		if class(r) {
			total++
		}
	}
	if keepFirst+keepLast >= total {
		return s
	}

	seen := 0
	for i, r := range runes {
		if !class(r) {
			continue
		}
		if seen >= keepFirst && seen < total-keepLast {
			runes[i] = glyph
		}
		seen++
	}
	return string(runes)
}

// KeepFirst masks all characters after the first n.
// Construct with NewKeepFirst.
type KeepFirst struct {
	n     int
	glyph rune
}

// NewKeepFirst returns a positional masker keeping the first n characters
// visible. n must be ≥ 0.
func NewKeepFirst(n int, glyph rune) (*KeepFirst, error) {
	if n < 0 {
		return nil, newConfigError("keepfirst", "n", "must be >= 0")
	}
	return &KeepFirst{n: n, glyph: glyph}, nil
}

// TransformText masks everything after the first n characters.
// Input shorter than n returns unchanged.
func (k *KeepFirst) TransformText(s string) (string, error) {
	runes := []rune(s)
	if len(runes) <= k.n {
		return s, nil
	}
	return string(runes[:k.n]) + strings.Repeat(string(k.glyph), len(runes)-k.n), nil
}

// KeepLast masks all characters before the last n.
// Construct with NewKeepLast.
type KeepLast struct {
	n     int
	glyph rune
}

// NewKeepLast returns a positional masker keeping the last n characters
// visible. n must be ≥ 0.
func NewKeepLast(n int, glyph rune) (*KeepLast, error) {
	if n < 0 {
		return nil, newConfigError("keeplast", "n", "must be >= 0")
	}
	return &KeepLast{n: n, glyph: glyph}, nil
}

// TransformText masks everything before the last n characters.
// Input shorter than n returns unchanged.
func (k *KeepLast) TransformText(s string) (string, error) {
	runes := []rune(s)
	if len(runes) <= k.n {
		return s, nil
	}
	return strings.Repeat(string(k.glyph), len(runes)-k.n) + string(runes[len(runes)-k.n:]), nil
}

// DigitMasker masks the digit payload of a formatted value, keeping a
// visible prefix and suffix of digits and preserving every non-digit
// structural character (separators, spacing, punctuation) in place:
//
//	"+1 (555) 123-4567" with keepLast 4 → "+* (***) ***-4567"
//
// Construct with NewDigitMasker.
type DigitMasker struct {
	keepFirst int
	keepLast  int
	glyph     rune
}

// NewDigitMasker returns a structure-preserving digit masker.
func NewDigitMasker(keepFirst, keepLast int, glyph rune) (*DigitMasker, error) {
	if keepFirst < 0 || keepLast < 0 {
		return nil, newConfigError("digitmask", "keep", "must be >= 0")
	}
	return &DigitMasker{keepFirst: keepFirst, keepLast: keepLast, glyph: glyph}, nil
}

// TransformText masks the digits of s.
func (d *DigitMasker) TransformText(s string) (string, error) {
	if s == "" {
		return s, nil
	}
	return maskDigitsKeeping(s, d.keepFirst, d.keepLast, d.glyph), nil
}

// Redactor replaces any non-empty input with a fixed sentinel.
type Redactor struct {
	sentinel string
}

// NewRedactor returns a redaction primitive.
func NewRedactor(sentinel string) *Redactor {
	return &Redactor{sentinel: sentinel}
}

// TransformText replaces s with the sentinel; empty input stays empty.
func (r *Redactor) TransformText(s string) (string, error) {
	if s == "" {
		return s, nil
	}
	return r.sentinel, nil
}
