package shroud

import (
	"reflect"
	"testing"
	"time"
)

type celsius float64

type celsiusConverter struct{}

func (celsiusConverter) Format(v any) (string, error) {
	return floatConverter{}.Format(float64(v.(celsius)))
}

func (celsiusConverter) Parse(s string) (any, error) {
	f, err := floatConverter{}.Parse(s)
	if ff, ok := f.(float64); ok {
		return celsius(ff), err
	}
	return f, err
}

func TestRegisterConverterFirstWriterWins(t *testing.T) {
	typ := reflect.TypeOf(celsius(0))

	if !RegisterConverter(typ, celsiusConverter{}) {
		t.Fatal("first registration must install")
	}
	if RegisterConverter(typ, defaultConverter{}) {
		t.Error("second registration must be discarded")
	}

	c := lookupConverter(typ)
	if _, ok := c.(celsiusConverter); !ok {
		t.Errorf("lookup returned %T, want celsiusConverter", c)
	}
}

func TestLookupConverterFallsBack(t *testing.T) {
	type opaque struct{ A int }
	c := lookupConverter(reflect.TypeOf(opaque{}))

	s, err := c.Format(opaque{A: 7})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if s != "{7}" {
		t.Errorf("Format = %q, want {7}", s)
	}

	// The fallback cannot parse back; masked text stays textual.
	out, err := c.Parse("masked")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if out != "masked" {
		t.Errorf("Parse = %v, want the text itself", out)
	}
}

func TestTimeConverter(t *testing.T) {
	c := lookupConverter(reflect.TypeOf(time.Time{}))

	dateOnly := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	s, err := c.Format(dateOnly)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if s != "2024-03-15" {
		t.Errorf("date without a clock = %q, want 2024-03-15", s)
	}

	withClock := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	s, _ = c.Format(withClock)
	if s != "2024-03-15T10:30:00Z" {
		t.Errorf("timestamp = %q, want RFC 3339", s)
	}

	out, _ := c.Parse("2024-03-15")
	if got, ok := out.(time.Time); !ok || !got.Equal(dateOnly) {
		t.Errorf("Parse round-trip = %v", out)
	}

	// Generalized output like a year-only form does not parse back.
	out, _ = c.Parse("2024-**-**")
	if out != "2024-**-**" {
		t.Errorf("unparseable masked date must stay textual, got %v", out)
	}
}

func TestNumericConverters(t *testing.T) {
	ic := lookupConverter(reflect.TypeOf(int(0)))
	s, _ := ic.Format(42)
	if s != "42" {
		t.Errorf("int Format = %q", s)
	}
	out, _ := ic.Parse("42")
	if out != int64(42) {
		t.Errorf("int Parse = %v (%T), want int64(42)", out, out)
	}

	fc := lookupConverter(reflect.TypeOf(float64(0)))
	s, _ = fc.Format(3.5)
	if s != "3.5" {
		t.Errorf("float Format = %q", s)
	}
	out, _ = fc.Parse("not a number")
	if out != "not a number" {
		t.Errorf("unparseable float must stay textual, got %v", out)
	}
}

func TestBoolConverter(t *testing.T) {
	c := lookupConverter(reflect.TypeOf(false))
	s, _ := c.Format(true)
	if s != "true" {
		t.Errorf("Format = %q", s)
	}
	out, _ := c.Parse("false")
	if out != false {
		t.Errorf("Parse = %v", out)
	}
}
