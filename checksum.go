package shroud

import (
	"strings"
	"unicode"
)

// ValidLuhn reports whether the digits of s satisfy the Luhn mod-10
// checksum used by payment-instrument numbers. Non-digit characters are
// ignored; fewer than 2 digits is invalid.
func ValidLuhn(s string) bool {
	digits := extractDigits(s)
	if len(digits) < 2 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// ValidMod97 reports whether s satisfies the ISO 7064 mod-97 check used
// by IBANs: move the first four characters to the end, map letters to
// two-digit values (A=10 … Z=35), and reduce the numeric string modulo 97
// in chunks; valid iff the remainder is 1. Spaces are removed first; any
// other non-alphanumeric character is invalid.
func ValidMod97(s string) bool {
	s = strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	if len(s) < 5 {
		return false
	}
	rearranged := s[4:] + s[:4]

	var expanded strings.Builder
	for _, r := range rearranged {
		switch {
		case r >= '0' && r <= '9':
			expanded.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			expanded.WriteString(twoDigit(int(r-'A') + 10))
		default:
			return false
		}
	}

	// Chunked multiply-accumulate keeps the running value far below the
	// int64 overflow bound regardless of input length.
	num := expanded.String()
	rem := 0
	for len(num) > 0 {
		n := 7
		if len(num) < n {
			n = len(num)
		}
		chunk := num[:n]
		num = num[n:]
		acc := rem
		for i := 0; i < len(chunk); i++ {
			acc = acc*10 + int(chunk[i]-'0')
		}
		rem = acc % 97
	}
	return rem == 1
}

// twoDigit renders 10..35 as its decimal digits.
func twoDigit(v int) string {
	return string([]byte{byte('0' + v/10), byte('0' + v%10)})
}

// extractDigits returns only the digit characters from a string.
func extractDigits(s string) string {
	var digits strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	return digits.String()
}

// CardMasker masks a payment-instrument number, keeping the last keepLast
// digits visible and every non-digit structural character (spaces,
// dashes) in its original position. With validation enabled, input
// failing the Luhn check is rejected with a ChecksumError; by default
// validation is off and invalid input is masked anyway.
type CardMasker struct {
	keepLast int
	glyph    rune
	validate bool
}

// CardOption configures a CardMasker.
type CardOption func(*CardMasker)

// WithCardValidation turns on Luhn validation before masking.
func WithCardValidation() CardOption {
	return func(c *CardMasker) { c.validate = true }
}

// WithCardGlyph sets the mask character (default '*').
func WithCardGlyph(g rune) CardOption {
	return func(c *CardMasker) { c.glyph = g }
}

// NewCardMasker returns a card-number masker keeping the last keepLast
// digits.
func NewCardMasker(keepLast int, opts ...CardOption) (*CardMasker, error) {
	if keepLast < 0 {
		return nil, newConfigError("card", "keepLast", "must be >= 0")
	}
	c := &CardMasker{keepLast: keepLast, glyph: '*'}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TransformText masks the card number in s.
func (c *CardMasker) TransformText(s string) (string, error) {
	if s == "" {
		return s, nil
	}
	if c.validate && !ValidLuhn(s) {
		return s, &ChecksumError{Format: "luhn"}
	}
	return maskDigitsKeeping(s, 0, c.keepLast, c.glyph), nil
}

// IBANMasker masks a bank-account identifier, keeping the country code
// and check digits (first keepFirst characters) and the last keepLast
// characters visible, preserving spacing. With validation enabled, input
// failing the mod-97 check is rejected with a ChecksumError.
type IBANMasker struct {
	keepFirst int
	keepLast  int
	glyph     rune
	validate  bool
}

// IBANOption configures an IBANMasker.
type IBANOption func(*IBANMasker)

// WithIBANValidation turns on mod-97 validation before masking.
func WithIBANValidation() IBANOption {
	return func(m *IBANMasker) { m.validate = true }
}

// WithIBANGlyph sets the mask character (default '*').
func WithIBANGlyph(g rune) IBANOption {
	return func(m *IBANMasker) { m.glyph = g }
}

// NewIBANMasker returns an IBAN masker.
// The conventional visible window is the first 4 and last 4 characters.
func NewIBANMasker(keepFirst, keepLast int, opts ...IBANOption) (*IBANMasker, error) {
	if keepFirst < 0 || keepLast < 0 {
		return nil, newConfigError("iban", "keep", "must be >= 0")
	}
	m := &IBANMasker{keepFirst: keepFirst, keepLast: keepLast, glyph: '*'}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TransformText masks the IBAN in s.
func (m *IBANMasker) TransformText(s string) (string, error) {
	if s == "" {
		return s, nil
	}
	if m.validate && !ValidMod97(s) {
		return s, &ChecksumError{Format: "mod97"}
	}
	return maskAlnumKeeping(s, m.keepFirst, m.keepLast, m.glyph), nil
}
