package shroud

import "sort"

// UnmappedPolicy fixes, once per processor, what happens to fields with
// no declared chain.
type UnmappedPolicy int

const (
	// PassThrough leaves unmapped fields unchanged.
	PassThrough UnmappedPolicy = iota

	// Omit clears unmapped fields to their zero value.
	Omit

	// RedactUnmapped sets unmapped string fields to the policy sentinel
	// and clears everything else.
	RedactUnmapped
)

// DefaultRedactSentinel marks a field removed by RedactUnmapped.
const DefaultRedactSentinel = "[REDACTED]"

// Policy binds rule chains to the fields of a record. Chains are keyed
// by exported field path, dotted for nested structs ("Address.City").
// A Policy is append-only: configure it fully before handing it to a
// Processor or NestedStage, then treat it as read-only.
type Policy struct {
	chains   map[string]*Chain
	unmapped UnmappedPolicy
	sentinel string
}

// NewPolicy returns an empty policy with PassThrough unmapped handling.
func NewPolicy() *Policy {
	return &Policy{
		chains:   make(map[string]*Chain),
		sentinel: DefaultRedactSentinel,
	}
}

// Bind attaches a chain to a field path, replacing any previous binding.
// Returns the policy for chaining.
func (p *Policy) Bind(field string, chain *Chain) *Policy {
	p.chains[field] = chain
	return p
}

// Unmapped sets the unmapped-field policy.
func (p *Policy) Unmapped(u UnmappedPolicy) *Policy {
	p.unmapped = u
	return p
}

// Sentinel sets the RedactUnmapped replacement text.
func (p *Policy) Sentinel(s string) *Policy {
	p.sentinel = s
	return p
}

// Chain returns the chain bound to a field path.
func (p *Policy) Chain(field string) (*Chain, bool) {
	c, ok := p.chains[field]
	return c, ok
}

// Fields returns the bound field paths in sorted order.
func (p *Policy) Fields() []string {
	fields := make([]string, 0, len(p.chains))
	for f := range p.chains {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Report is the outcome of masking one record: a success flag plus
// human-readable failure messages keyed by field path. Partial success
// is expected — one field's failure never invalidates the rest.
type Report struct {
	// OK is true when every bound field masked cleanly.
	OK bool

	// Failures maps field paths to failure messages.
	Failures map[string]string
}

// newReport returns an empty, successful report.
func newReport() *Report {
	return &Report{OK: true, Failures: make(map[string]string)}
}

// fail records a field failure and clears the success flag.
func (r *Report) fail(field, msg string) {
	r.OK = false
	r.Failures[field] = msg
}
