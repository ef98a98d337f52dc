// Package diag carries the per-document diagnostic events of a
// transformation: what was mapped, what was left unmapped, and what was
// rejected.
package diag

import "time"

// Level grades an event.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Kind names what happened.
type Kind string

const (
	KindMapped             Kind = "mapped"
	KindUnmappedField      Kind = "unmapped_field"
	KindUnmappedSegment    Kind = "unmapped_segment"
	KindValidationRejected Kind = "validation_rejected"
	KindStructuralMismatch Kind = "structural_mismatch"
	KindInvalidMapping     Kind = "invalid_mapping"
	KindDocument           Kind = "document"
)

// DefaultLevel is the level an event of this kind gets when none is set.
func (k Kind) DefaultLevel() Level {
	switch k {
	case KindMapped, KindDocument:
		return LevelInfo
	case KindValidationRejected, KindStructuralMismatch:
		return LevelError
	default:
		return LevelWarn
	}
}

// Event is one diagnostic record.
type Event struct {
	Time    time.Time `json:"timestamp"`
	Level   Level     `json:"level"`
	Kind    Kind      `json:"kind"`
	Segment string    `json:"segment,omitempty"`
	Field   string    `json:"field,omitempty"`
	Target  string    `json:"target,omitempty"`
	Value   string    `json:"value,omitempty"`
	Message string    `json:"message,omitempty"`
}

func (e Event) withDefaults(now func() time.Time) Event {
	if e.Level == "" {
		e.Level = e.Kind.DefaultLevel()
	}
	if e.Time.IsZero() && now != nil {
		e.Time = now().UTC()
	}
	return e
}
