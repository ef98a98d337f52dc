// Package value holds the scalar stage of a mapping rule: an optional
// transformation followed by an optional validation.
package value

import (
	"strings"

	"bydm/internal/mapping"
)

// Transform applies the transformation to v. A nil transformation, or a
// table miss without a default, returns v unchanged.
func Transform(v string, ts *mapping.TransformSpec) string {
	if ts == nil {
		return v
	}
	switch ts.Kind {
	case mapping.TransformMap:
		if out, ok := ts.Values[v]; ok {
			return out
		}
		return v
	case mapping.TransformConditional:
		if out, ok := ts.Values[v]; ok {
			return out
		}
		if ts.HasDefault {
			return ts.Default
		}
		return v
	case mapping.TransformUpper:
		return strings.ToUpper(v)
	case mapping.TransformLower:
		return strings.ToLower(v)
	default:
		return v
	}
}
