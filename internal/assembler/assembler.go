// Package assembler turns one parsed IDoc into a BYDM document: it seeds the
// output from the template, routes every top-level segment through the
// mapping engine, and attaches the unmapped-segment and usage reports.
package assembler

import (
	"fmt"
	"sort"

	"bydm/internal/diag"
	"bydm/internal/engine"
	"bydm/internal/idoc"
	"bydm/internal/mapping"
	"bydm/internal/pathaddr"
	"bydm/internal/util/jsonutil"
	"bydm/internal/value"
)

// Reserved output keys.
const (
	KeyUnmappedSegments = "unmappedSegments"
	KeyUnmappedSummary  = "unmappedSummary"
	KeyMappingUsage     = "mappingUsage"
)

// DefaultRootArrayField is the template array that always gets a first element.
const DefaultRootArrayField = "location"

// envelope is the standard IDoc wrapper element around the segments.
const envelope = "IDOC"

// Options tunes Assemble.
type Options struct {
	// RootArrayField names the template array seeded with one empty object
	// when it is missing or empty. Empty means DefaultRootArrayField.
	RootArrayField string
	Validator      value.Validator
}

// Result is the outcome of assembling one document.
type Result struct {
	Output     map[string]any
	AllValid   bool
	Rejections []value.Rejection
	Mismatches []error
	Usage      map[string]int
	// Unmapped counts unmapped top-level segments by tag.
	Unmapped map[string]int
}

// Assemble builds the output document. The template is never modified.
// Problems with individual fields or segments are reported through the
// result and sink; Assemble itself cannot fail.
func Assemble(root *idoc.Node, cfg *mapping.Config, template map[string]any, sink diag.Sink, opts Options) *Result {
	sink = diag.OrDiscard(sink)
	out := seed(template, opts.rootArrayField())

	run := engine.NewRun(sink, opts.Validator)
	unmapped := []any{}
	summary := map[string]int{}

	for _, seg := range segments(root, cfg) {
		rule, ok := cfg.Segment(seg.Name)
		if !ok {
			unmapped = append(unmapped, map[string]any{seg.Name: seg.Snapshot()})
			summary[seg.Name]++
			sink.Emit(diag.Event{
				Kind:    diag.KindUnmappedSegment,
				Segment: seg.Name,
				Message: fmt.Sprintf("no mapping for segment %s", seg.Name),
			})
			continue
		}
		switch rule := rule.(type) {
		case *mapping.GroupRule:
			run.ApplySegment(seg, rule.Group, out)
		case *mapping.InvalidRule:
			run.ReportInvalid(root.Name, rule)
		}
	}

	out[KeyUnmappedSegments] = unmapped
	out[KeyUnmappedSummary] = countsToJSON(summary)
	out[KeyMappingUsage] = countsToJSON(run.Usage)

	return &Result{
		Output:     out,
		AllValid:   run.AllValid(),
		Rejections: run.Rejections,
		Mismatches: run.Mismatches,
		Usage:      run.Usage,
		Unmapped:   summary,
	}
}

func (o Options) rootArrayField() string {
	if o.RootArrayField == "" {
		return DefaultRootArrayField
	}
	return o.RootArrayField
}

func seed(template map[string]any, rootField string) map[string]any {
	out := jsonutil.DeepCopyObject(template)
	path, err := pathaddr.Parse(rootField)
	if err != nil {
		return out
	}
	cur, ok := pathaddr.Read(out, path)
	if arr, isArr := cur.([]any); ok && isArr && len(arr) > 0 {
		return out
	}
	// A scalar on the way to the root field leaves the template shape alone.
	_ = pathaddr.Write(out, path, []any{map[string]any{}})
	return out
}

// segments returns the nodes treated as top-level segments. A lone IDOC
// envelope is looked through unless the configuration maps it explicitly.
func segments(root *idoc.Node, cfg *mapping.Config) []*idoc.Node {
	if root == nil {
		return nil
	}
	if env := root.Child(envelope); env != nil && len(root.Children) == 1 {
		if _, mapped := cfg.Segment(envelope); !mapped {
			return env.Children
		}
	}
	return root.Children
}

func countsToJSON(counts map[string]int) map[string]any {
	out := make(map[string]any, len(counts))
	for k, v := range counts {
		out[k] = v
	}
	return out
}

// SortedKeys returns the keys of a count map in ascending order.
func SortedKeys(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
