package shroud

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts is the fixed, ordered list of textual formats accepted by
// every date primitive. The order is part of the contract: ambiguous
// day/month strings resolve to the earliest matching layout (US order
// before EU order). Input matching no layout passes through unchanged.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02.01.2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// parseDate tries each layout in order, returning the parsed time and the
// layout that matched.
func parseDate(s string) (time.Time, string, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, layout, true
		}
	}
	return time.Time{}, "", false
}

// DateShift moves a date by an entity-consistent random offset within
// ±daysRange. Because the offset is drawn from the seeded provider keyed
// by the entity rather than the date, every date for one entity moves by
// the same amount, preserving elapsed time between related events exactly.
// daysRange 0 is an identity escape. Construct with NewDateShift.
type DateShift struct {
	daysRange    int
	preserveTime bool
	ent          entropy
}

// DateShiftOption configures a DateShift primitive.
type DateShiftOption func(*DateShift)

// WithShiftSeed attaches a seed provider to the shift.
func WithShiftSeed(p SeedProvider) DateShiftOption {
	return func(d *DateShift) { d.ent.provider = p }
}

// WithFullTimestampShift moves the full timestamp by whole-day durations
// instead of moving only the calendar date. The default moves the date
// and leaves time-of-day untouched.
func WithFullTimestampShift() DateShiftOption {
	return func(d *DateShift) { d.preserveTime = false }
}

// NewDateShift returns a date-shift primitive.
// daysRange must be ≥ 0; 0 disables shifting.
func NewDateShift(daysRange int, opts ...DateShiftOption) (*DateShift, error) {
	if daysRange < 0 {
		return nil, newConfigError("dateshift", "daysRange", "must be >= 0")
	}
	d := &DateShift{daysRange: daysRange, preserveTime: true}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// offset draws the shift in days for input v.
func (d *DateShift) offset(v any) int {
	gen := d.ent.generator(v)
	return gen.Intn(2*d.daysRange+1) - d.daysRange
}

// TransformTime shifts t by the entity's offset.
func (d *DateShift) TransformTime(t time.Time) (time.Time, error) {
	if d.daysRange == 0 {
		return t, nil
	}
	days := d.offset(t)
	if d.preserveTime {
		return t.AddDate(0, 0, days), nil
	}
	return t.Add(time.Duration(days) * 24 * time.Hour), nil
}

// TransformText parses s, shifts it, and reformats it with the layout
// that matched. Unparseable input returns unchanged.
func (d *DateShift) TransformText(s string) (string, error) {
	if s == "" || d.daysRange == 0 {
		return s, nil
	}
	t, layout, ok := parseDate(s)
	if !ok {
		return s, nil
	}
	shifted, err := d.TransformTime(t)
	if err != nil {
		return s, err
	}
	return shifted.Format(layout), nil
}

// DateMode selects the behavior of a DateGeneralizer.
type DateMode string

const (
	// YearOnly keeps the year and masks month and day, joined by the
	// configured separator: 2024-03-15 → 2024-**-**.
	YearOnly DateMode = "year"

	// ShiftDate delegates to an entity-keyed DateShift.
	ShiftDate DateMode = "shift"

	// RedactDate replaces the whole date with a fixed sentinel.
	RedactDate DateMode = "redact"
)

// DefaultDateSentinel is the redaction output when none is configured.
const DefaultDateSentinel = "****-**-**"

// DateGeneralizer reduces the precision of a textual date.
// Construct with NewDateGeneralizer.
type DateGeneralizer struct {
	mode      DateMode
	separator string
	sentinel  string
	shift     *DateShift
}

// DateGenOption configures a DateGeneralizer.
type DateGenOption func(*DateGeneralizer)

// WithSeparator sets the separator used by YearOnly output.
func WithSeparator(sep string) DateGenOption {
	return func(g *DateGeneralizer) { g.separator = sep }
}

// WithSentinel sets the RedactDate output.
func WithSentinel(s string) DateGenOption {
	return func(g *DateGeneralizer) { g.sentinel = s }
}

// WithDateShift supplies the shift used by ShiftDate mode.
func WithDateShift(d *DateShift) DateGenOption {
	return func(g *DateGeneralizer) { g.shift = d }
}

// NewDateGeneralizer returns a date generalization primitive.
// ShiftDate mode requires a DateShift via WithDateShift.
func NewDateGeneralizer(mode DateMode, opts ...DateGenOption) (*DateGeneralizer, error) {
	g := &DateGeneralizer{mode: mode, separator: "-", sentinel: DefaultDateSentinel}
	for _, opt := range opts {
		opt(g)
	}
	switch mode {
	case YearOnly, RedactDate:
	case ShiftDate:
		if g.shift == nil {
			return nil, newConfigError("dategen", "shift", "shift mode requires a DateShift")
		}
	default:
		return nil, newConfigError("dategen", "mode", "must be year, shift, or redact")
	}
	return g, nil
}

// TransformText generalizes a textual date.
// Unparseable input returns unchanged; empty input returns empty.
func (g *DateGeneralizer) TransformText(s string) (string, error) {
	if s == "" {
		return s, nil
	}
	switch g.mode {
	case RedactDate:
		// Redaction applies regardless of parseability only for values
		// that look like dates; anything else degrades gracefully.
		if _, _, ok := parseDate(s); !ok {
			return s, nil
		}
		return g.sentinel, nil
	case ShiftDate:
		return g.shift.TransformText(s)
	default:
		t, _, ok := parseDate(s)
		if !ok {
			return s, nil
		}
		parts := []string{strconv.Itoa(t.Year()), "**", "**"}
		return strings.Join(parts, g.separator), nil
	}
}

// AgeMasker generalizes an age. Without a bucket table, ages ≥90 collapse
// to the fixed "90+" label (the regulatory floor) and everything below
// passes through as-is. Attaching a table opts out of the floor entirely:
// the table governs, including one without a 90+ bucket.
type AgeMasker struct {
	buckets *Buckets
}

// AgeCollapseLabel is the regulatory-floor label for ages ≥90.
const AgeCollapseLabel = "90+"

// AgeOption configures an AgeMasker.
type AgeOption func(*AgeMasker)

// WithAgeBuckets attaches a bucket table, replacing the regulatory floor
// with the table's partition.
func WithAgeBuckets(b *Buckets) AgeOption {
	return func(a *AgeMasker) { a.buckets = b }
}

// NewAgeMasker returns an age generalization primitive.
func NewAgeMasker(opts ...AgeOption) (*AgeMasker, error) {
	a := &AgeMasker{}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Label returns the generalized form of age.
func (a *AgeMasker) Label(age int) string {
	if a.buckets != nil {
		return a.buckets.Label(float64(age))
	}
	if age >= 90 {
		return AgeCollapseLabel
	}
	return strconv.Itoa(age)
}

// TransformText parses s as an integer age and generalizes it.
// Unparseable input returns unchanged.
func (a *AgeMasker) TransformText(s string) (string, error) {
	if s == "" {
		return s, nil
	}
	age, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return s, nil
	}
	return a.Label(age), nil
}
