package repository

import (
	"fmt"
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// TicketMutation is the full set of column changes for one ticket update.
// Absent optionals leave their column untouched; UpdatedAt is always written.
type TicketMutation struct {
	Status          domain.Optional[domain.TicketStatus]
	Priority        domain.Optional[domain.TicketPriority]
	AssignedTo      domain.Optional[*string]
	ResolutionNotes domain.Optional[*string]
	UpdatedAt       time.Time
	ClosedAt        domain.Optional[time.Time]
}

// Apply writes the mutation onto t.
func (m TicketMutation) Apply(t *domain.Ticket) {
	if m.Status.Set {
		t.Status = m.Status.Value
	}
	if m.Priority.Set {
		t.Priority = m.Priority.Value
	}
	if m.AssignedTo.Set {
		t.AssignedTo = cloneString(m.AssignedTo.Value)
	}
	if m.ResolutionNotes.Set {
		t.ResolutionNotes = cloneString(m.ResolutionNotes.Value)
	}
	if m.ClosedAt.Set {
		closedAt := m.ClosedAt.Value
		t.ClosedAt = &closedAt
	}
	t.UpdatedAt = m.UpdatedAt
}

// assignments renders SET clauses from a fixed column list, numbering
// placeholders after the args already collected.
func (m TicketMutation) assignments(args []any) ([]string, []any) {
	sets := make([]string, 0, 6)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if m.Status.Set {
		add("status", m.Status.Value)
	}
	if m.Priority.Set {
		add("priority", m.Priority.Value)
	}
	if m.AssignedTo.Set {
		add("assigned_to", m.AssignedTo.Value)
	}
	if m.ResolutionNotes.Set {
		add("resolution_notes", m.ResolutionNotes.Value)
	}
	if m.ClosedAt.Set {
		add("closed_at", m.ClosedAt.Value)
	}
	add("updated_at", m.UpdatedAt)
	return sets, args
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
