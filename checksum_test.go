package shroud

import (
	"errors"
	"testing"
)

func TestValidLuhn(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"4532015112830366", true},
		{"4532015112830367", false}, // last digit incremented
		{"4532 0151 1283 0366", true},
		{"4111111111111111", true},
		{"1234567890123456", false},
		{"", false},
		{"abc", false},
	}

	for _, tt := range tests {
		if got := ValidLuhn(tt.input); got != tt.expected {
			t.Errorf("ValidLuhn(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestValidMod97(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"GB82WEST12345698765432", true},
		{"GB82 WEST 1234 5698 7654 32", true}, // spaces removed before checking
		{"GB82WEST12345698765423", false},     // transposed characters
		{"GB28WEST12345698765432", false},     // transposed check digits
		{"gb82west12345698765432", true},      // case-insensitive
		{"GB82", false},
		{"", false},
		{"GB82!EST12345698765432", false}, // invalid character
	}

	for _, tt := range tests {
		if got := ValidMod97(tt.input); got != tt.expected {
			t.Errorf("ValidMod97(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestCardMasker(t *testing.T) {
	c, err := NewCardMasker(4)
	if err != nil {
		t.Fatalf("NewCardMasker: %v", err)
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"4532015112830366", "************0366"},
		{"4532-0151-1283-0366", "****-****-****-0366"},
		{"4532 0151 1283 0366", "**** **** **** 0366"},
		{"123", "123"}, // fewer digits than the visible window
		{"", ""},
	}

	for _, tt := range tests {
		got, err := c.TransformText(tt.input)
		if err != nil {
			t.Fatalf("TransformText(%q): %v", tt.input, err)
		}
		if got != tt.expected {
			t.Errorf("TransformText(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestCardMaskerValidation(t *testing.T) {
	c, err := NewCardMasker(4, WithCardValidation())
	if err != nil {
		t.Fatalf("NewCardMasker: %v", err)
	}

	if _, err := c.TransformText("4532015112830366"); err != nil {
		t.Errorf("valid card rejected: %v", err)
	}

	out, err := c.TransformText("4532015112830367")
	if !errors.Is(err, ErrChecksum) {
		t.Errorf("invalid card: got %v, want ErrChecksum", err)
	}
	if out != "4532015112830367" {
		t.Errorf("rejected input must return unchanged, got %q", out)
	}
}

func TestCardMaskerValidationOffMasksAnyway(t *testing.T) {
	c, err := NewCardMasker(4)
	if err != nil {
		t.Fatalf("NewCardMasker: %v", err)
	}

	got, err := c.TransformText("4532015112830367")
	if err != nil {
		t.Fatalf("TransformText: %v", err)
	}
	if got != "************0367" {
		t.Errorf("got %q, want masked output despite bad checksum", got)
	}
}

func TestIBANMasker(t *testing.T) {
	m, err := NewIBANMasker(4, 4)
	if err != nil {
		t.Fatalf("NewIBANMasker: %v", err)
	}

	got, err := m.TransformText("GB82WEST12345698765432")
	if err != nil {
		t.Fatalf("TransformText: %v", err)
	}
	if got != "GB82**************5432" {
		t.Errorf("got %q, want GB82**************5432", got)
	}

	// Spacing survives masking; the visible suffix counts alphanumerics,
	// not characters.
	got, _ = m.TransformText("GB82 WEST 1234 5698 7654 32")
	if got != "GB82 **** **** **** **54 32" {
		t.Errorf("spaced IBAN: got %q, want GB82 **** **** **** **54 32", got)
	}
}

func TestIBANMaskerValidation(t *testing.T) {
	m, err := NewIBANMasker(4, 4, WithIBANValidation())
	if err != nil {
		t.Fatalf("NewIBANMasker: %v", err)
	}

	if _, err := m.TransformText("GB82WEST12345698765432"); err != nil {
		t.Errorf("valid IBAN rejected: %v", err)
	}

	out, err := m.TransformText("GB82WEST12345698765423")
	if !errors.Is(err, ErrChecksum) {
		t.Errorf("transposed IBAN: got %v, want ErrChecksum", err)
	}
	if out != "GB82WEST12345698765423" {
		t.Errorf("rejected input must return unchanged, got %q", out)
	}
}
