package shroud

import (
	"fmt"
	"reflect"
	"strconv"
	"sync"
	"time"
)

// Converter bridges a field type to and from the textual representation
// text-only primitives operate on. Register implementations with
// RegisterConverter; lookups fall back to defaultConverter, which formats
// with fmt and cannot parse back (the chain result then stays textual).
type Converter interface {
	// Format renders v as text.
	Format(v any) (string, error)

	// Parse converts masked text back into the field's type.
	Parse(s string) (any, error)
}

// converters is the shared converter cache: read-mostly, populated once,
// first-writer-wins.
var (
	convertersMu sync.RWMutex
	converters   = builtinConverters()
)

// RegisterConverter registers a converter for t. The first registration
// for a type wins; later ones are discarded so steady-state lookups see
// a stable mapping. Returns whether the converter was installed.
func RegisterConverter(t reflect.Type, c Converter) bool {
	convertersMu.Lock()
	defer convertersMu.Unlock()
	if _, ok := converters[t]; ok {
		return false
	}
	converters[t] = c
	return true
}

// lookupConverter returns the converter for t, or defaultConverter.
func lookupConverter(t reflect.Type) Converter {
	convertersMu.RLock()
	defer convertersMu.RUnlock()
	if c, ok := converters[t]; ok {
		return c
	}
	return defaultConverter{}
}

// builtinConverters seeds the cache with the types chains commonly meet.
func builtinConverters() map[reflect.Type]Converter {
	return map[reflect.Type]Converter{
		reflect.TypeOf(time.Time{}): timeConverter{},
		reflect.TypeOf(float64(0)):  floatConverter{},
		reflect.TypeOf(int(0)):      intConverter{},
		reflect.TypeOf(int64(0)):    intConverter{},
		reflect.TypeOf(bool(false)): boolConverter{},
	}
}

// defaultConverter is the one-way fallback text representation.
type defaultConverter struct{}

func (defaultConverter) Format(v any) (string, error) {
	return fmt.Sprintf("%v", v), nil
}

func (defaultConverter) Parse(s string) (any, error) {
	return s, nil
}

// timeConverter formats dates without a clock as plain dates and
// everything else as RFC 3339, parsing back through the fixed layout
// list.
type timeConverter struct{}

func (timeConverter) Format(v any) (string, error) {
	t, ok := v.(time.Time)
	if !ok {
		return "", fmt.Errorf("time converter: got %T", v)
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02"), nil
	}
	return t.Format(time.RFC3339), nil
}

func (timeConverter) Parse(s string) (any, error) {
	if t, _, ok := parseDate(s); ok {
		return t, nil
	}
	// Unparseable masked output (year-only, sentinel) stays textual.
	return s, nil
}

type floatConverter struct{}

func (floatConverter) Format(v any) (string, error) {
	f, ok := v.(float64)
	if !ok {
		return "", fmt.Errorf("float converter: got %T", v)
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

func (floatConverter) Parse(s string) (any, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s, nil
	}
	return f, nil
}

type intConverter struct{}

func (intConverter) Format(v any) (string, error) {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n), nil
	case int64:
		return strconv.FormatInt(n, 10), nil
	default:
		return "", fmt.Errorf("int converter: got %T", v)
	}
}

func (intConverter) Parse(s string) (any, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return s, nil
	}
	return n, nil
}

type boolConverter struct{}

func (boolConverter) Format(v any) (string, error) {
	b, ok := v.(bool)
	if !ok {
		return "", fmt.Errorf("bool converter: got %T", v)
	}
	return strconv.FormatBool(b), nil
}

func (boolConverter) Parse(s string) (any, error) {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return s, nil
	}
	return b, nil
}
