package shroud

import (
	"math"
	"sort"
	"strconv"
)

// Round generalizes a numeric value to the nearest multiple of an
// increment using round-half-to-even. Increment 0 is an explicit identity
// escape, not an error. Construct with NewRound.
type Round struct {
	increment float64
}

// NewRound returns a rounding primitive.
// increment must be ≥ 0; 0 disables rounding.
func NewRound(increment float64) (*Round, error) {
	if increment < 0 || math.IsNaN(increment) || math.IsInf(increment, 0) {
		return nil, newConfigError("round", "increment", "must be a finite value >= 0")
	}
	return &Round{increment: increment}, nil
}

// TransformNumber rounds f to the nearest increment multiple.
func (r *Round) TransformNumber(f float64) (float64, error) {
	if r.increment == 0 {
		return f, nil
	}
	return math.RoundToEven(f/r.increment) * r.increment, nil
}

// Buckets partitions the numeric domain into labeled half-open intervals
// [breaks[i], breaks[i+1]), unbounded below the first breakpoint and above
// the last. A value exactly on a breakpoint belongs to the upper bucket.
// Construct with NewBuckets; the table is immutable afterwards.
type Buckets struct {
	breaks []float64
	labels []string
}

// NewBuckets returns a bucket table.
// breaks must be strictly ascending with len(labels) == len(breaks)-1.
func NewBuckets(breaks []float64, labels []string) (*Buckets, error) {
	if len(breaks) < 2 {
		return nil, newConfigError("buckets", "breaks", "need at least two breakpoints")
	}
	if len(labels) != len(breaks)-1 {
		return nil, newConfigError("buckets", "labels", "must have exactly one fewer label than breakpoints")
	}
	for i := 1; i < len(breaks); i++ {
		if !(breaks[i] > breaks[i-1]) {
			return nil, newConfigError("buckets", "breaks", "must be strictly ascending")
		}
	}
	b := &Buckets{
		breaks: append([]float64(nil), breaks...),
		labels: append([]string(nil), labels...),
	}
	return b, nil
}

// Label returns the label of the interval containing v.
// Values below the first breakpoint map to the first label; values at or
// above the last breakpoint map to the last.
func (b *Buckets) Label(v float64) string {
	// Right-open intervals: a value equal to a breakpoint belongs to the
	// upper bucket, so search for the first break strictly greater than v.
	i := sort.Search(len(b.breaks), func(i int) bool { return b.breaks[i] > v })
	switch {
	case i == 0:
		return b.labels[0]
	case i == len(b.breaks):
		return b.labels[len(b.labels)-1]
	default:
		return b.labels[i-1]
	}
}

// TransformText parses s as a number and returns its bucket label.
// Unparseable input returns unchanged.
func (b *Buckets) TransformText(s string) (string, error) {
	if s == "" {
		return s, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s, nil
	}
	return b.Label(v), nil
}

// DefaultAgeBuckets returns the built-in age table encoding the
// regulatory "ages ≥90 collapse to one category" rule. A caller-supplied
// table passed to NewAgeMasker overrides it entirely, including removing
// the 90+ collapse.
func DefaultAgeBuckets() *Buckets {
	b, err := NewBuckets(
		[]float64{0, 18, 30, 40, 50, 60, 70, 80, 90, 130},
		[]string{"0-17", "18-29", "30-39", "40-49", "50-59", "60-69", "70-79", "80-89", "90+"},
	)
	if err != nil {
		panic(err)
	}
	return b
}
