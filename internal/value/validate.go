package value

import (
	"fmt"

	"bydm/internal/mapping"
)

// TextPolicy decides whether TEXT accepts the empty string.
type TextPolicy int

const (
	TextAllowEmpty TextPolicy = iota
	TextRequireNonEmpty
)

func (p TextPolicy) String() string {
	if p == TextRequireNonEmpty {
		return "require-non-empty"
	}
	return "allow-empty"
}

// Rejection records a value that failed validation. It is an outcome, not an
// error: the document continues and the field is left unwritten.
type Rejection struct {
	Field  string                 `json:"field"`
	Kind   mapping.ValidationKind `json:"kind"`
	Value  string                 `json:"value"`
	Reason string                 `json:"reason"`
}

func (r Rejection) String() string {
	return fmt.Sprintf("%s: %s %q: %s", r.Field, r.Kind, r.Value, r.Reason)
}

// Validator checks transformed values. The zero value accepts empty TEXT.
type Validator struct {
	Text TextPolicy
}

// Check validates v against kind. On success it returns v and nil.
func (val Validator) Check(v string, kind mapping.ValidationKind, field string) (string, *Rejection) {
	var reason string
	switch kind {
	case mapping.ValidationNone:
		return v, nil
	case mapping.ValidationNumber:
		reason = numberProblem(v)
	case mapping.ValidationText:
		if v == "" && val.Text == TextRequireNonEmpty {
			reason = "empty text"
		}
	default:
		reason = fmt.Sprintf("unknown validation %q", kind)
	}
	if reason == "" {
		return v, nil
	}
	return v, &Rejection{Field: field, Kind: kind, Value: v, Reason: reason}
}

// numberProblem accepts unsigned decimals: digits with at most one '.' and at
// least one digit overall.
func numberProblem(v string) string {
	if v == "" {
		return "empty number"
	}
	digits, dots := 0, 0
	for i := 0; i < len(v); i++ {
		switch c := v[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
			if dots > 1 {
				return "more than one decimal separator"
			}
		default:
			return fmt.Sprintf("unexpected character %q", c)
		}
	}
	if digits == 0 {
		return "no digits"
	}
	return ""
}
