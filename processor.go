package shroud

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/zoobzio/sentinel"
)

// Processor applies a masking Policy to records of type T.
//
// Field plans are built once at construction by scanning T's exported
// fields; masking a record is pure computation over a clone, safe for
// unsynchronized concurrent use. Per-field failures are caught at the
// field boundary and recorded in the Report, never propagated, so one
// bad field cannot abort masking of an entire record.
type Processor[T Cloner[T]] struct {
	codec    Codec
	policy   *Policy
	plans    []fieldPlan
	typeName string
}

// fieldPlan describes how to mask a single leaf field.
type fieldPlan struct {
	index      []int  // reflect.Value.FieldByIndex access path
	name       string // dotted field path for policy lookup and reports
	ptrIndices []int  // indices where pointer dereference is needed
	chain      *Chain // nil for unmapped fields
	isSlice    bool   // []string
	isMap      bool   // map[K]string
	isString   bool   // string kind
}

// NewProcessor creates a Processor for type T over the given codec and
// policy. Every path the policy binds must name an exported field of T;
// a dangling binding is a construction error.
func NewProcessor[T Cloner[T]](codec Codec, policy *Policy) (*Processor[T], error) {
	spec := sentinel.Scan[T]()

	var plans []fieldPlan
	if err := buildPlans(&plans, spec, policy, nil, nil, ""); err != nil {
		return nil, err
	}

	bound := make(map[string]bool, len(plans))
	for _, plan := range plans {
		if plan.chain != nil {
			bound[plan.name] = true
		}
	}
	for _, field := range policy.Fields() {
		if !bound[field] {
			return nil, newConfigError("processor", "policy", fmt.Sprintf("no field %s in %s", field, spec.TypeName))
		}
	}

	p := &Processor[T]{
		codec:    codec,
		policy:   policy,
		plans:    plans,
		typeName: spec.TypeName,
	}
	emitProcessorCreated(context.Background(), codec.ContentType(), spec.TypeName)
	return p, nil
}

// buildPlans recursively flattens struct fields into leaf plans.
// time.Time fields are leaves despite being structs.
func buildPlans(plans *[]fieldPlan, spec sentinel.Metadata, policy *Policy, parentIndex, ptrIndices []int, namePrefix string) error {
	for _, field := range spec.Fields {
		fullIndex := append(append([]int{}, parentIndex...), field.Index...)
		fullName := field.Name
		if namePrefix != "" {
			fullName = namePrefix + "." + field.Name
		}

		// A bound field is always a leaf: its chain owns any recursion
		// via NestedStage.
		chain, isBound := policy.Chain(fullName)

		if !isBound && field.Kind == sentinel.KindStruct && field.ReflectType != timeType {
			nestedSpec := scanNestedType(field.ReflectType)
			if nestedSpec != nil {
				if err := buildPlans(plans, *nestedSpec, policy, fullIndex, ptrIndices, fullName); err != nil {
					return err
				}
			}
			continue
		}

		if !isBound && field.Kind == sentinel.KindPointer && field.ReflectType.Elem().Kind() == reflect.Struct && field.ReflectType.Elem() != timeType {
			nestedSpec := scanNestedType(field.ReflectType.Elem())
			if nestedSpec != nil {
				newPtrIndices := append(append([]int{}, ptrIndices...), len(fullIndex)-1)
				if err := buildPlans(plans, *nestedSpec, policy, fullIndex, newPtrIndices, fullName); err != nil {
					return err
				}
			}
			continue
		}

		plan := fieldPlan{
			index:      fullIndex,
			name:       fullName,
			ptrIndices: ptrIndices,
			chain:      chain,
			isString:   field.ReflectType.Kind() == reflect.String,
			isSlice: field.ReflectType.Kind() == reflect.Slice &&
				field.ReflectType.Elem().Kind() == reflect.String,
			isMap: field.ReflectType.Kind() == reflect.Map &&
				field.ReflectType.Elem().Kind() == reflect.String,
		}
		*plans = append(*plans, plan)
	}
	return nil
}

var timeType = reflect.TypeOf(time.Time{})

// scanNestedType scans a nested struct type and returns its metadata.
func scanNestedType(rt reflect.Type) *sentinel.Metadata {
	if spec, ok := sentinel.Lookup(rt.String()); ok {
		return &spec
	}

	if rt.Kind() != reflect.Struct {
		return nil
	}

	spec := sentinel.Metadata{
		TypeName:    rt.Name(),
		PackageName: rt.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, rt.NumField()),
	}

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}

		fm := sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
		}

		switch sf.Type.Kind() {
		case reflect.Struct:
			fm.Kind = sentinel.KindStruct
		case reflect.Ptr:
			fm.Kind = sentinel.KindPointer
		case reflect.Slice, reflect.Array:
			fm.Kind = sentinel.KindSlice
		case reflect.Map:
			fm.Kind = sentinel.KindMap
		case reflect.Interface:
			fm.Kind = sentinel.KindInterface
		default:
			fm.Kind = sentinel.KindScalar
		}

		spec.Fields = append(spec.Fields, fm)
	}

	return &spec
}

// Mask returns a masked clone of obj and a per-field Report.
// The original record is never mutated. A nil record yields a nil clone
// and a successful report.
func (p *Processor[T]) Mask(ctx context.Context, obj *T) (*T, *Report) {
	rep := newReport()
	if obj == nil {
		return nil, rep
	}

	start := time.Now()
	emitMaskStart(ctx, p.codec.ContentType(), p.typeName)

	clone := (*obj).Clone()

	if m, ok := any(&clone).(Maskable); ok {
		if err := m.MaskFields(p.policy.chains); err != nil {
			rep.fail("_self", err.Error())
		}
		emitMaskComplete(ctx, p.codec.ContentType(), p.typeName, time.Since(start), len(p.policy.chains), len(rep.Failures))
		return &clone, rep
	}

	rv := reflect.ValueOf(&clone).Elem()
	masked := 0
	for _, plan := range p.plans {
		field, ok := p.getField(rv, plan)
		if !ok {
			continue
		}
		if plan.chain == nil {
			p.applyUnmapped(field, plan)
			continue
		}
		if p.applyChain(field, plan, rep) {
			masked++
		}
	}

	emitMaskComplete(ctx, p.codec.ContentType(), p.typeName, time.Since(start), masked, len(rep.Failures))
	return &clone, rep
}

// MaskBytes unmarshals data, masks the record, and marshals the result.
// Codec failures are returned as errors; field failures land in the
// Report as usual.
func (p *Processor[T]) MaskBytes(ctx context.Context, data []byte) ([]byte, *Report, error) {
	var obj T
	if err := p.codec.Unmarshal(data, &obj); err != nil {
		return nil, nil, newCodecError(ErrUnmarshal, err)
	}

	masked, rep := p.Mask(ctx, &obj)

	out, err := p.codec.Marshal(masked)
	if err != nil {
		return nil, rep, newCodecError(ErrMarshal, err)
	}
	return out, rep, nil
}

// applyChain runs a field's chain and writes the result back, recording
// any failure in the report. Returns whether the field was masked.
func (p *Processor[T]) applyChain(field reflect.Value, plan fieldPlan, rep *Report) bool {
	// Slices and maps of strings run the chain per element.
	if plan.isSlice {
		ok := true
		for i := 0; i < field.Len(); i++ {
			elem := field.Index(i)
			out, err := plan.chain.apply(elem.String(), fmt.Sprintf("%s[%d]", plan.name, i), rep)
			if err != nil {
				rep.fail(fmt.Sprintf("%s[%d]", plan.name, i), err.Error())
				ok = false
				continue
			}
			if s, isStr := out.(string); isStr && elem.CanSet() {
				elem.SetString(s)
			}
		}
		return ok
	}
	if plan.isMap {
		ok := true
		iter := field.MapRange()
		for iter.Next() {
			k, v := iter.Key(), iter.Value()
			key := fmt.Sprintf("%s[%v]", plan.name, k.Interface())
			out, err := plan.chain.apply(v.String(), key, rep)
			if err != nil {
				rep.fail(key, err.Error())
				ok = false
				continue
			}
			if s, isStr := out.(string); isStr {
				field.SetMapIndex(k, reflect.ValueOf(s))
			}
		}
		return ok
	}

	if !field.CanSet() {
		return false
	}

	out, err := plan.chain.apply(field.Interface(), plan.name, rep)
	if err != nil {
		rep.fail(plan.name, err.Error())
		return false
	}
	if out == nil {
		return true
	}

	return assignValue(field, plan, plan.name, out, rep)
}

// applyUnmapped applies the unmapped-field policy to a field with no
// declared chain.
func (p *Processor[T]) applyUnmapped(field reflect.Value, plan fieldPlan) {
	if !field.CanSet() {
		return
	}
	switch p.policy.unmapped {
	case Omit:
		field.Set(reflect.Zero(field.Type()))
	case RedactUnmapped:
		if plan.isString {
			field.SetString(p.policy.sentinel)
		} else {
			field.Set(reflect.Zero(field.Type()))
		}
	}
}

// getField navigates a field path, dereferencing pointers as needed.
func (p *Processor[T]) getField(rv reflect.Value, plan fieldPlan) (reflect.Value, bool) {
	if len(plan.ptrIndices) == 0 {
		return rv.FieldByIndex(plan.index), true
	}

	current := rv
	ptrSet := make(map[int]bool, len(plan.ptrIndices))
	for _, idx := range plan.ptrIndices {
		ptrSet[idx] = true
	}

	for i, idx := range plan.index {
		current = current.Field(idx)

		if ptrSet[i] {
			if current.IsNil() {
				return reflect.Value{}, false
			}
			current = current.Elem()
		}
	}

	return current, true
}

// nestedPlans caches per-type plans for NestedStage recursion:
// read-mostly, populated once, first-writer-wins.
var (
	nestedPlansMu sync.RWMutex
	nestedPlans   = make(map[nestedPlanKey][]fieldPlan)
)

type nestedPlanKey struct {
	rt     reflect.Type
	policy *Policy
}

// plansForNested returns (building if needed) the leaf plans for one
// nested struct type under a child policy.
func plansForNested(rt reflect.Type, policy *Policy) ([]fieldPlan, error) {
	key := nestedPlanKey{rt: rt, policy: policy}

	nestedPlansMu.RLock()
	if plans, ok := nestedPlans[key]; ok {
		nestedPlansMu.RUnlock()
		return plans, nil
	}
	nestedPlansMu.RUnlock()

	spec := scanNestedType(rt)
	if spec == nil {
		return nil, fmt.Errorf("not a struct type: %s", rt)
	}
	var plans []fieldPlan
	if err := buildPlans(&plans, *spec, policy, nil, nil, ""); err != nil {
		return nil, err
	}

	nestedPlansMu.Lock()
	defer nestedPlansMu.Unlock()
	if cached, ok := nestedPlans[key]; ok {
		return cached, nil
	}
	nestedPlans[key] = plans
	return plans, nil
}

// applyNestedStage recurses into a nested record or homogeneous
// collection, masking each element under the stage's policy. Child
// failures are aggregated into the shared report and never fail the
// parent chain.
func applyNestedStage(policy *Policy, v any, path string, rep *Report) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return v, nil
		}
		masked, err := applyNestedStage(policy, rv.Elem().Interface(), path, rep)
		if err != nil {
			return v, err
		}
		out := reflect.New(rv.Elem().Type())
		out.Elem().Set(reflect.ValueOf(masked))
		return out.Interface(), nil
	}

	switch rv.Kind() {
	case reflect.Struct:
		return maskStructValue(rv, policy, path, rep)
	case reflect.Slice, reflect.Array:
		out := reflect.MakeSlice(reflect.SliceOf(rv.Type().Elem()), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elemPath := fmt.Sprintf("%s[%d]", path, i)
			masked, err := applyNestedStage(policy, rv.Index(i).Interface(), elemPath, rep)
			if err != nil {
				rep.fail(elemPath, err.Error())
				out.Index(i).Set(rv.Index(i))
				continue
			}
			out.Index(i).Set(reflect.ValueOf(masked))
		}
		return out.Interface(), nil
	case reflect.Map:
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			elemPath := fmt.Sprintf("%s[%v]", path, iter.Key().Interface())
			masked, err := applyNestedStage(policy, iter.Value().Interface(), elemPath, rep)
			if err != nil {
				rep.fail(elemPath, err.Error())
				out.SetMapIndex(iter.Key(), iter.Value())
				continue
			}
			out.SetMapIndex(iter.Key(), reflect.ValueOf(masked))
		}
		return out.Interface(), nil
	default:
		// Scalar collection elements have no fields to bind; leave them.
		return v, nil
	}
}

// maskStructValue masks one struct value under a policy, returning a
// masked copy.
func maskStructValue(rv reflect.Value, policy *Policy, path string, rep *Report) (any, error) {
	plans, err := plansForNested(rv.Type(), policy)
	if err != nil {
		return rv.Interface(), err
	}

	cp := reflect.New(rv.Type()).Elem()
	cp.Set(rv)

	for _, plan := range plans {
		field, ok := nestedField(cp, plan)
		if !ok {
			continue
		}
		fieldPath := path + "." + plan.name
		if plan.chain == nil {
			applyUnmappedValue(field, plan, policy)
			continue
		}
		if !field.CanSet() {
			continue
		}
		out, cerr := plan.chain.apply(field.Interface(), fieldPath, rep)
		if cerr != nil {
			rep.fail(fieldPath, cerr.Error())
			continue
		}
		if out == nil {
			continue
		}
		assignValue(field, plan, fieldPath, out, rep)
	}
	return cp.Interface(), nil
}

// nestedField mirrors Processor.getField for non-generic recursion.
func nestedField(rv reflect.Value, plan fieldPlan) (reflect.Value, bool) {
	if len(plan.ptrIndices) == 0 {
		return rv.FieldByIndex(plan.index), true
	}
	ptrSet := make(map[int]bool, len(plan.ptrIndices))
	for _, idx := range plan.ptrIndices {
		ptrSet[idx] = true
	}
	current := rv
	for i, idx := range plan.index {
		current = current.Field(idx)
		if ptrSet[i] {
			if current.IsNil() {
				return reflect.Value{}, false
			}
			current = current.Elem()
		}
	}
	return current, true
}

// assignValue writes a chain result into a field, bridging type changes
// where the field's representation allows it.
func assignValue(field reflect.Value, plan fieldPlan, path string, out any, rep *Report) bool {
	ov := reflect.ValueOf(out)
	switch {
	case ov.Type() == field.Type():
		field.Set(ov)
	case ov.Type().ConvertibleTo(field.Type()) && field.Kind() != reflect.String:
		field.Set(ov.Convert(field.Type()))
	case plan.isString:
		text, err := lookupConverter(ov.Type()).Format(out)
		if err != nil {
			rep.fail(path, err.Error())
			return false
		}
		field.SetString(text)
	default:
		rep.fail(path, fmt.Sprintf("cannot assign %T to %s", out, field.Type()))
		return false
	}
	return true
}

// applyUnmappedValue applies the unmapped-field policy during nested
// recursion.
func applyUnmappedValue(field reflect.Value, plan fieldPlan, policy *Policy) {
	if !field.CanSet() {
		return
	}
	switch policy.unmapped {
	case Omit:
		field.Set(reflect.Zero(field.Type()))
	case RedactUnmapped:
		if plan.isString {
			field.SetString(policy.sentinel)
		} else {
			field.Set(reflect.Zero(field.Type()))
		}
	}
}
