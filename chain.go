package shroud

import (
	"math"
	"reflect"
	"time"
)

// stageKind is the closed set of stage variants a chain dispatches over.
type stageKind int

const (
	stageText stageKind = iota
	stageNumber
	stageTime
	stageNested
)

// Stage is one element of a rule chain: exactly one primitive of a known
// family, or a recursion into a nested record or collection.
type Stage struct {
	kind   stageKind
	text   TextTransformer
	number NumberTransformer
	tim    TimeTransformer
	nested *Policy
}

// TextStage wraps a text primitive. Applied to non-text values it
// bridges through the value's Converter (value→text→value).
func TextStage(t TextTransformer) Stage {
	return Stage{kind: stageText, text: t}
}

// NumberStage wraps a numeric primitive. Applied to integer values the
// result saturates at the type's bounds; applied to text it parses the
// text, transforms, and formats back.
func NumberStage(n NumberTransformer) Stage {
	return Stage{kind: stageNumber, number: n}
}

// TimeStage wraps a timestamp primitive. Applied to text it parses
// through the fixed layout list and reformats with the layout that
// matched; unparseable text passes through unchanged.
func TimeStage(t TimeTransformer) Stage {
	return Stage{kind: stageTime, tim: t}
}

// NestedStage recurses into a nested record or homogeneous collection,
// masking each element with its own Policy and aggregating that child's
// failures independently of the parent's.
func NestedStage(p *Policy) Stage {
	return Stage{kind: stageNested, nested: p}
}

// Chain is an ordered, append-only sequence of primitives bound to one
// field. Execution order is chain order; each stage's output feeds the
// next. Chains are immutable after construction and safe for concurrent
// use.
type Chain struct {
	stages []Stage
}

// NewChain returns a chain over the given stages.
func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: append([]Stage(nil), stages...)}
}

// Then returns a new chain with stage appended. The receiver is not
// modified.
func (c *Chain) Then(stage Stage) *Chain {
	stages := make([]Stage, 0, len(c.stages)+1)
	stages = append(stages, c.stages...)
	return &Chain{stages: append(stages, stage)}
}

// Len returns the number of stages.
func (c *Chain) Len() int {
	return len(c.stages)
}

// Apply executes the chain left-to-right over v.
// Nil input short-circuits the whole chain unchanged. A stage failure
// stops execution and returns the value as of the last successful stage
// along with a TransformError.
func (c *Chain) Apply(v any) (any, error) {
	rep := newReport()
	return c.apply(v, "", rep)
}

// apply runs the chain, recording nested-stage failures into rep.
func (c *Chain) apply(v any, path string, rep *Report) (any, error) {
	if v == nil {
		return nil, nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return v, nil
	}

	current := v
	for i, stage := range c.stages {
		next, err := applyStage(stage, current, path, rep)
		if err != nil {
			return current, newTransformError(path, i, err)
		}
		current = next
	}
	return current, nil
}

// applyStage dispatches one stage over the current value.
func applyStage(stage Stage, v any, path string, rep *Report) (any, error) {
	switch stage.kind {
	case stageNumber:
		return applyNumberStage(stage.number, v)
	case stageTime:
		return applyTimeStage(stage.tim, v)
	case stageNested:
		return applyNestedStage(stage.nested, v, path, rep)
	default:
		return applyTextStage(stage.text, v)
	}
}

// applyTextStage runs a text primitive, bridging non-text values through
// their converter.
func applyTextStage(t TextTransformer, v any) (any, error) {
	if s, ok := v.(string); ok {
		out, err := t.TransformText(s)
		if err != nil {
			return nil, err
		}
		return out, nil
	}

	conv := lookupConverter(reflect.TypeOf(v))
	text, err := conv.Format(v)
	if err != nil {
		return nil, err
	}
	masked, err := t.TransformText(text)
	if err != nil {
		return nil, err
	}
	return conv.Parse(masked)
}

// applyNumberStage runs a numeric primitive, saturating on the way back
// into integer representations. Text that does not parse as a number
// passes through unchanged.
func applyNumberStage(n NumberTransformer, v any) (any, error) {
	if s, ok := v.(string); ok {
		f, perr := floatConverter{}.Parse(s)
		ff, isNum := f.(float64)
		if perr != nil || !isNum {
			return s, nil
		}
		out, err := n.TransformNumber(ff)
		if err != nil {
			return nil, err
		}
		text, err := floatConverter{}.Format(out)
		if err != nil {
			return nil, err
		}
		return text, nil
	}

	rv := reflect.ValueOf(v)
	f, ok := toFloat(rv)
	if !ok {
		return v, nil
	}
	out, err := n.TransformNumber(f)
	if err != nil {
		return nil, err
	}
	return fromFloat(out, rv.Type()), nil
}

// applyTimeStage runs a timestamp primitive over time.Time or textual
// dates.
func applyTimeStage(t TimeTransformer, v any) (any, error) {
	switch tv := v.(type) {
	case time.Time:
		out, err := t.TransformTime(tv)
		if err != nil {
			return nil, err
		}
		return out, nil
	case string:
		if tv == "" {
			return tv, nil
		}
		parsed, layout, ok := parseDate(tv)
		if !ok {
			return tv, nil
		}
		out, err := t.TransformTime(parsed)
		if err != nil {
			return nil, err
		}
		return out.Format(layout), nil
	default:
		return v, nil
	}
}

// toFloat widens any numeric value to float64.
func toFloat(rv reflect.Value) (float64, bool) {
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	default:
		return 0, false
	}
}

// fromFloat narrows f back to the original numeric type, saturating at
// the type's bounds instead of wrapping.
func fromFloat(f float64, t reflect.Type) any {
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Float32:
		if f > math.MaxFloat32 {
			f = math.MaxFloat32
		}
		if f < -math.MaxFloat32 {
			f = -math.MaxFloat32
		}
		out.SetFloat(f)
	case reflect.Float64:
		out.SetFloat(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		bits := t.Bits()
		max := int64(1)<<(bits-1) - 1
		min := -int64(1) << (bits - 1)
		out.SetInt(saturateInt(f, min, max))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		bits := t.Bits()
		max := uint64(math.MaxUint64)
		if bits < 64 {
			max = uint64(1)<<bits - 1
		}
		out.SetUint(saturateUint(f, max))
	}
	return out.Interface()
}
