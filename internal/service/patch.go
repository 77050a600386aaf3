package service

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

// BuildMutation turns a sparse patch into the column changes for one update.
// UpdatedAt is always stamped. Any patch carrying status=closed stamps ClosedAt,
// including on a ticket that is already closed; reopening never clears it.
func BuildMutation(patch domain.TicketPatch, now time.Time) repository.TicketMutation {
	mutation := repository.TicketMutation{
		Status:          patch.Status,
		Priority:        patch.Priority,
		AssignedTo:      patch.AssignedTo,
		ResolutionNotes: patch.ResolutionNotes,
		UpdatedAt:       now,
	}
	if patch.Status.Set && patch.Status.Value == domain.TicketStatusClosed {
		mutation.ClosedAt = domain.Some(now)
	}
	return mutation
}
