package shroud

import (
	"errors"
	"testing"
	"time"
)

func TestDateShiftZeroRangeIsIdentity(t *testing.T) {
	d, err := NewDateShift(0, WithShiftSeed(EntitySeed("e")))
	if err != nil {
		t.Fatalf("NewDateShift: %v", err)
	}

	in := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	out, _ := d.TransformTime(in)
	if !out.Equal(in) {
		t.Errorf("daysRange 0 must be identity, got %v", out)
	}

	text, _ := d.TransformText("2024-03-15")
	if text != "2024-03-15" {
		t.Errorf("daysRange 0 on text must be identity, got %q", text)
	}
}

func TestDateShiftEntityConsistency(t *testing.T) {
	// Two related dates for the same entity must keep their distance
	// exactly, for any range.
	for _, daysRange := range []int{1, 5, 30, 365} {
		d, err := NewDateShift(daysRange, WithShiftSeed(EntitySeed("patient-9")))
		if err != nil {
			t.Fatalf("NewDateShift(%d): %v", daysRange, err)
		}

		day0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		day5 := day0.AddDate(0, 0, 5)

		out0, _ := d.TransformTime(day0)
		out5, _ := d.TransformTime(day5)

		if diff := out5.Sub(out0); diff != 5*24*time.Hour {
			t.Errorf("range %d: gap = %v, want 120h", daysRange, diff)
		}
	}
}

func TestDateShiftWithinRange(t *testing.T) {
	d, err := NewDateShift(30, WithShiftSeed(EntitySeed("patient-3")))
	if err != nil {
		t.Fatalf("NewDateShift: %v", err)
	}

	in := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	out, _ := d.TransformTime(in)

	days := int(out.Sub(in).Hours() / 24)
	if days < -30 || days > 30 {
		t.Errorf("shift %d days out of [-30, 30]", days)
	}
}

func TestDateShiftPreservesTimeOfDay(t *testing.T) {
	d, err := NewDateShift(30, WithShiftSeed(EntitySeed("patient-4")))
	if err != nil {
		t.Fatalf("NewDateShift: %v", err)
	}

	in := time.Date(2024, 6, 1, 14, 45, 30, 0, time.UTC)
	out, _ := d.TransformTime(in)

	if out.Hour() != 14 || out.Minute() != 45 || out.Second() != 30 {
		t.Errorf("time of day moved: got %v", out)
	}
}

func TestDateShiftTextKeepsLayout(t *testing.T) {
	d, err := NewDateShift(10, WithShiftSeed(EntitySeed("patient-5")))
	if err != nil {
		t.Fatalf("NewDateShift: %v", err)
	}

	out, err := d.TransformText("2024/06/01")
	if err != nil {
		t.Fatalf("TransformText: %v", err)
	}
	if _, e := time.Parse("2006/01/02", out); e != nil {
		t.Errorf("layout not preserved: got %q", out)
	}
}

func TestDateShiftGracefulDegradation(t *testing.T) {
	d, err := NewDateShift(10, WithShiftSeed(EntitySeed("e")))
	if err != nil {
		t.Fatalf("NewDateShift: %v", err)
	}

	for _, in := range []string{"INVALID", ""} {
		out, err := d.TransformText(in)
		if err != nil {
			t.Fatalf("TransformText(%q): %v", in, err)
		}
		if out != in {
			t.Errorf("TransformText(%q) = %q, want unchanged", in, out)
		}
	}
}

func TestDateShiftNegativeRangeRejected(t *testing.T) {
	if _, err := NewDateShift(-1); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("got %v, want ErrInvalidConfig", err)
	}
}

func TestDateGeneralizerYearOnly(t *testing.T) {
	g, err := NewDateGeneralizer(YearOnly)
	if err != nil {
		t.Fatalf("NewDateGeneralizer: %v", err)
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"2024-03-15", "2024-**-**"},
		{"2001/07/04", "2001-**-**"},
		{"INVALID", "INVALID"},
		{"", ""},
	}

	for _, tt := range tests {
		got, err := g.TransformText(tt.input)
		if err != nil {
			t.Fatalf("TransformText(%q): %v", tt.input, err)
		}
		if got != tt.expected {
			t.Errorf("TransformText(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestDateGeneralizerYearOnlySeparator(t *testing.T) {
	g, err := NewDateGeneralizer(YearOnly, WithSeparator("/"))
	if err != nil {
		t.Fatalf("NewDateGeneralizer: %v", err)
	}

	got, _ := g.TransformText("2024-03-15")
	if got != "2024/**/**" {
		t.Errorf("got %q, want 2024/**/**", got)
	}
}

func TestDateGeneralizerRedact(t *testing.T) {
	g, err := NewDateGeneralizer(RedactDate)
	if err != nil {
		t.Fatalf("NewDateGeneralizer: %v", err)
	}

	got, _ := g.TransformText("2024-03-15")
	if got != DefaultDateSentinel {
		t.Errorf("got %q, want %q", got, DefaultDateSentinel)
	}

	// Non-date input degrades gracefully rather than leaking the
	// sentinel over arbitrary text.
	got, _ = g.TransformText("INVALID")
	if got != "INVALID" {
		t.Errorf("got %q, want INVALID", got)
	}
}

func TestDateGeneralizerShiftMode(t *testing.T) {
	shift, err := NewDateShift(15, WithShiftSeed(EntitySeed("patient-8")))
	if err != nil {
		t.Fatalf("NewDateShift: %v", err)
	}
	g, err := NewDateGeneralizer(ShiftDate, WithDateShift(shift))
	if err != nil {
		t.Fatalf("NewDateGeneralizer: %v", err)
	}

	a, _ := g.TransformText("2024-03-15")
	b, _ := g.TransformText("2024-03-15")
	if a != b {
		t.Errorf("entity-keyed shift must be deterministic: %q vs %q", a, b)
	}
}

func TestDateGeneralizerConfigErrors(t *testing.T) {
	if _, err := NewDateGeneralizer(ShiftDate); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("shift mode without shift: got %v, want ErrInvalidConfig", err)
	}
	if _, err := NewDateGeneralizer(DateMode("century")); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("unknown mode: got %v, want ErrInvalidConfig", err)
	}
}

func TestAgeMaskerRegulatoryFloor(t *testing.T) {
	a, err := NewAgeMasker()
	if err != nil {
		t.Fatalf("NewAgeMasker: %v", err)
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"89", "89"},
		{"90", "90+"},
		{"150", "90+"},
		{"0", "0"},
		{"INVALID", "INVALID"},
		{"", ""},
	}

	for _, tt := range tests {
		got, err := a.TransformText(tt.input)
		if err != nil {
			t.Fatalf("TransformText(%q): %v", tt.input, err)
		}
		if got != tt.expected {
			t.Errorf("TransformText(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestAgeMaskerBucketTableOverridesFloor(t *testing.T) {
	// A caller-supplied table governs fully, including removing the 90+
	// collapse. Anyone reviewing a policy built this way should treat the
	// custom table as opting out of the regulatory floor.
	b, err := NewBuckets([]float64{0, 50, 100, 150}, []string{"young", "old", "older"})
	if err != nil {
		t.Fatalf("NewBuckets: %v", err)
	}
	a, err := NewAgeMasker(WithAgeBuckets(b))
	if err != nil {
		t.Fatalf("NewAgeMasker: %v", err)
	}

	got, _ := a.TransformText("95")
	if got != "old" {
		t.Errorf("TransformText(95) = %q, want old (table override removes the collapse)", got)
	}
}
