// Package engine applies mapping rules to IDoc segments, writing into an
// output tree. All state of one document lives in a Run.
package engine

import (
	"fmt"

	"bydm/internal/diag"
	"bydm/internal/idoc"
	"bydm/internal/mapping"
	"bydm/internal/pathaddr"
	"bydm/internal/value"
)

// Run accumulates the outcome of transforming one document. A Run must not
// be shared between documents or goroutines.
type Run struct {
	// Usage counts successful writes per target path. Array rules count the
	// array target once per element and "<target>.<sub>" per element field.
	Usage      map[string]int
	Rejections []value.Rejection
	// Mismatches holds *pathaddr.MismatchError values for writes that
	// conflicted with the output shape.
	Mismatches []error

	sink      diag.Sink
	validator value.Validator
}

// NewRun starts a run reporting to sink (nil discards).
func NewRun(sink diag.Sink, validator value.Validator) *Run {
	return &Run{
		Usage:     map[string]int{},
		sink:      diag.OrDiscard(sink),
		validator: validator,
	}
}

// AllValid reports whether no value was rejected.
func (r *Run) AllValid() bool { return len(r.Rejections) == 0 }

// ApplySegment maps the children of node through group into out, in
// document order. Children without a rule are reported and skipped.
func (r *Run) ApplySegment(node *idoc.Node, group *mapping.Group, out map[string]any) {
	for _, child := range node.Children {
		rule, ok := group.Lookup(child.Name)
		if !ok {
			r.sink.Emit(diag.Event{
				Kind:    diag.KindUnmappedField,
				Segment: node.Name,
				Field:   child.Name,
				Message: fmt.Sprintf("no mapping for %s in segment %s", child.Name, node.Name),
			})
			continue
		}
		switch rule := rule.(type) {
		case *mapping.LeafRule:
			if r.applyLeaf(node.Name, child, rule, rule.TargetRaw, out) {
				r.Usage[rule.TargetRaw]++
			}
		case *mapping.ArrayRule:
			r.applyArray(node.Name, child, rule, out)
		case *mapping.GroupRule:
			r.ApplySegment(child, rule.Group, out)
		case *mapping.InvalidRule:
			r.ReportInvalid(node.Name, rule)
		}
	}
}

// ReportInvalid emits the event for a rule that could not be classified.
func (r *Run) ReportInvalid(segment string, rule *mapping.InvalidRule) {
	r.sink.Emit(diag.Event{
		Kind:    diag.KindInvalidMapping,
		Segment: segment,
		Field:   rule.Source,
		Message: rule.Reason,
	})
}

// applyLeaf extracts, transforms, validates and writes one field into dst.
// key is the output path reported in events. It reports whether the write
// happened.
func (r *Run) applyLeaf(segment string, field *idoc.Node, rule *mapping.LeafRule, key string, dst map[string]any) bool {
	v := field.Value()
	if v == "" && rule.HasDefault {
		v = rule.Default
	}
	v = value.Transform(v, rule.Transform)

	v, rej := r.validator.Check(v, rule.Validation, field.Name)
	if rej != nil {
		r.Rejections = append(r.Rejections, *rej)
		r.sink.Emit(diag.Event{
			Kind:    diag.KindValidationRejected,
			Segment: segment,
			Field:   field.Name,
			Target:  key,
			Value:   v,
			Message: fmt.Sprintf("%s validation failed: %s", rej.Kind, rej.Reason),
		})
		return false
	}

	if err := pathaddr.Write(dst, rule.Target, v); err != nil {
		r.mismatch(segment, field.Name, key, err)
		return false
	}
	r.sink.Emit(diag.Event{
		Kind:    diag.KindMapped,
		Segment: segment,
		Field:   field.Name,
		Target:  key,
		Value:   v,
	})
	return true
}

// applyArray builds one element from the child's own fields and appends it
// to the array at the rule's target. Element fields are reported under
// "<target>.<sub>".
func (r *Run) applyArray(segment string, child *idoc.Node, rule *mapping.ArrayRule, out map[string]any) {
	elem := map[string]any{}
	var written []string
	for _, sub := range child.Children {
		subRule, ok := rule.Element.Lookup(sub.Name)
		if !ok {
			r.sink.Emit(diag.Event{
				Kind:    diag.KindUnmappedField,
				Segment: child.Name,
				Field:   sub.Name,
				Message: fmt.Sprintf("no mapping for %s in array element %s", sub.Name, child.Name),
			})
			continue
		}
		switch subRule := subRule.(type) {
		case *mapping.LeafRule:
			key := rule.Target.Join(subRule.Target).String()
			if r.applyLeaf(child.Name, sub, subRule, key, elem) {
				written = append(written, key)
			}
		case *mapping.InvalidRule:
			r.ReportInvalid(child.Name, subRule)
		}
	}

	if err := pathaddr.Append(out, rule.Target, elem); err != nil {
		r.mismatch(segment, child.Name, rule.TargetRaw, err)
		return
	}
	r.Usage[rule.TargetRaw]++
	for _, key := range written {
		r.Usage[key]++
	}
}

func (r *Run) mismatch(segment, field, target string, err error) {
	r.Mismatches = append(r.Mismatches, err)
	r.sink.Emit(diag.Event{
		Kind:    diag.KindStructuralMismatch,
		Segment: segment,
		Field:   field,
		Target:  target,
		Message: err.Error(),
	})
}
