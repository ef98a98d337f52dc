package mapping

import (
	"strings"

	"bydm/internal/pathaddr"
)

// ValidationKind names the check applied to a scalar before it is written.
type ValidationKind string

const (
	ValidationNone   ValidationKind = ""
	ValidationNumber ValidationKind = "NUMBER"
	ValidationText   ValidationKind = "TEXT"
)

// TransformKind names a value transformation.
type TransformKind string

const (
	TransformMap         TransformKind = "MAP"
	TransformUpper       TransformKind = "UPPERCASE"
	TransformLower       TransformKind = "LOWERCASE"
	TransformConditional TransformKind = "CONDITIONAL"
)

// TransformSpec is a parsed "transformation" entry.
type TransformSpec struct {
	Kind TransformKind
	// Values is the lookup table for MAP and CONDITIONAL.
	Values map[string]string
	// Default is the CONDITIONAL fallback taken from the "default" condition.
	Default    string
	HasDefault bool
}

// Rule is one classified mapping entry: *LeafRule, *ArrayRule, *GroupRule or
// *InvalidRule.
type Rule interface {
	SourceName() string
	isRule()
}

// LeafRule writes one scalar to an output path.
type LeafRule struct {
	Source     string
	Target     pathaddr.Path
	TargetRaw  string
	Transform  *TransformSpec
	Validation ValidationKind
	// Default replaces an empty source value.
	Default    string
	HasDefault bool
}

// ArrayRule appends one element per occurrence of the source segment.
type ArrayRule struct {
	Source    string
	Target    pathaddr.Path
	TargetRaw string
	// Element holds leaf rules only; targets are relative to the new element.
	Element *Group
}

// GroupRule descends into a nested segment.
type GroupRule struct {
	Source string
	Group  *Group
}

// InvalidRule is an entry that could not be classified. It only appears when
// the configuration was loaded with WithLenient.
type InvalidRule struct {
	Source string
	Reason string
}

func (r *LeafRule) SourceName() string    { return r.Source }
func (r *ArrayRule) SourceName() string   { return r.Source }
func (r *GroupRule) SourceName() string   { return r.Source }
func (r *InvalidRule) SourceName() string { return r.Source }

func (*LeafRule) isRule()    {}
func (*ArrayRule) isRule()   {}
func (*GroupRule) isRule()   {}
func (*InvalidRule) isRule() {}

// Entry is a named rule inside a Group.
type Entry struct {
	Name string
	Rule Rule
}

// Group is an ordered set of rules keyed by source field or segment name.
type Group struct {
	Entries []Entry
	index   map[string]int
}

// NewGroup builds a group from entries. Later duplicates replace earlier ones.
func NewGroup(entries ...Entry) *Group {
	g := &Group{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		g.add(e)
	}
	return g
}

func (g *Group) add(e Entry) {
	if g.index == nil {
		g.index = map[string]int{}
	}
	if i, ok := g.index[e.Name]; ok {
		g.Entries[i] = e
		return
	}
	g.index[e.Name] = len(g.Entries)
	g.Entries = append(g.Entries, e)
}

// Lookup returns the rule configured for name.
func (g *Group) Lookup(name string) (Rule, bool) {
	if g == nil {
		return nil, false
	}
	i, ok := g.index[name]
	if !ok {
		return nil, false
	}
	return g.Entries[i].Rule, true
}

// Len reports the number of entries.
func (g *Group) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Entries)
}

// Walk visits every entry depth-first in configuration order. prefix holds
// the names of the enclosing groups and array rules.
func (g *Group) Walk(fn func(prefix []string, e Entry)) {
	g.walk(nil, fn)
}

func (g *Group) walk(prefix []string, fn func([]string, Entry)) {
	if g == nil {
		return
	}
	for _, e := range g.Entries {
		fn(prefix, e)
		next := append(append([]string(nil), prefix...), e.Name)
		switch r := e.Rule.(type) {
		case *GroupRule:
			r.Group.walk(next, fn)
		case *ArrayRule:
			r.Element.walk(next, fn)
		}
	}
}

// Config is a loaded mapping configuration. Segments holds the top-level
// "mappings" object keyed by IDoc segment name.
type Config struct {
	Segments *Group
}

// Segment returns the rule for a top-level segment.
func (c *Config) Segment(name string) (Rule, bool) {
	if c == nil {
		return nil, false
	}
	return c.Segments.Lookup(name)
}

// Stats summarizes a configuration.
type Stats struct {
	Segments int
	Leaves   int
	Arrays   int
	Groups   int
	Invalid  int
}

// Stats counts the rules in the configuration. Leaves include the leaf rules
// inside array elements.
func (c *Config) Stats() Stats {
	var s Stats
	if c == nil {
		return s
	}
	s.Segments = c.Segments.Len()
	c.Segments.Walk(func(_ []string, e Entry) {
		switch e.Rule.(type) {
		case *LeafRule:
			s.Leaves++
		case *ArrayRule:
			s.Arrays++
		case *GroupRule:
			s.Groups++
		case *InvalidRule:
			s.Invalid++
		}
	})
	return s
}

// ParseValidation normalizes a validation name. The empty string means none.
func ParseValidation(name string) (ValidationKind, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "NONE":
		return ValidationNone, true
	case string(ValidationNumber):
		return ValidationNumber, true
	case string(ValidationText):
		return ValidationText, true
	default:
		return ValidationNone, false
	}
}
