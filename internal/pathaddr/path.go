// Package pathaddr addresses positions inside a JSON-like tree of
// map[string]any and []any values using dotted paths such as
// "location.0.address.city". A step made only of digits is an array index;
// any other step is an object key.
//
// Writes materialize missing containers on demand. Whether a missing
// container becomes an object or an array is decided by the step that
// follows it, so "partners.0.role" creates an array under "partners" and an
// object inside it without any schema.
package pathaddr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidPath is returned by Parse for empty paths or empty steps.
	ErrInvalidPath = errors.New("invalid path")
	// ErrStructuralMismatch is the sentinel behind every *MismatchError.
	ErrStructuralMismatch = errors.New("structural mismatch")
)

// Step is one element of a Path.
type Step struct {
	Key     string
	Index   int
	IsIndex bool
}

func (s Step) String() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Key
}

// Path is a parsed dotted path.
type Path []Step

// Parse splits a dotted path into typed steps.
func Parse(path string) (Path, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	parts := strings.Split(path, ".")
	out := make(Path, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("%w %q: empty step", ErrInvalidPath, path)
		}
		if isDigits(part) {
			idx, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("%w %q: index %q out of range", ErrInvalidPath, path, part)
			}
			out = append(out, Step{Index: idx, IsIndex: true})
			continue
		}
		out = append(out, Step{Key: part})
	}
	return out, nil
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// Join returns a new path with q appended to p.
func (p Path) Join(q Path) Path {
	out := make(Path, 0, len(p)+len(q))
	out = append(out, p...)
	return append(out, q...)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// MismatchError reports a write that would have had to replace an existing
// container (or scalar) of the wrong kind. The tree is left untouched.
type MismatchError struct {
	Path string
	At   string
	Want string
	Got  string
}

func (e *MismatchError) Error() string {
	at := e.At
	if at == "" {
		at = "<root>"
	}
	return fmt.Sprintf("structural mismatch writing %q: expected %s at %s, found %s", e.Path, e.Want, at, e.Got)
}

func (e *MismatchError) Unwrap() error { return ErrStructuralMismatch }

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int64, float32, int32:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
