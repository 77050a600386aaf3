package domain

import (
	"bytes"
	"encoding/json"
)

// Optional distinguishes "absent" from a present value, including a present zero or nil.
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// UnmarshalJSON marks the field present whenever its key appears in the payload.
// A JSON null decodes into the zero value of T.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON encodes the held value; absent fields encode as null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// TicketPatch is a sparse set of changes to a ticket's mutable fields.
// AssignedTo and ResolutionNotes accept a present nil to clear the field.
type TicketPatch struct {
	Status          Optional[TicketStatus]
	Priority        Optional[TicketPriority]
	AssignedTo      Optional[*string]
	ResolutionNotes Optional[*string]
}

// IsEmpty reports whether no field is present.
func (p TicketPatch) IsEmpty() bool {
	return !p.Status.Set && !p.Priority.Set && !p.AssignedTo.Set && !p.ResolutionNotes.Set
}

// Fields lists the names of the present fields.
func (p TicketPatch) Fields() []string {
	fields := make([]string, 0, 4)
	if p.Status.Set {
		fields = append(fields, "status")
	}
	if p.Priority.Set {
		fields = append(fields, "priority")
	}
	if p.AssignedTo.Set {
		fields = append(fields, "assigned_to")
	}
	if p.ResolutionNotes.Set {
		fields = append(fields, "resolution_notes")
	}
	return fields
}
