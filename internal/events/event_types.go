package events

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated EventType = "ticket_created"
	EventTicketUpdated EventType = "ticket_updated"
	EventTicketClosed  EventType = "ticket_closed"
	EventCommentAdded  EventType = "comment_added"
)

// Actor identifies who caused an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// ActorFrom builds an actor from an authenticated principal.
func ActorFrom(principal domain.Principal) Actor {
	return Actor{UserID: principal.UserID, Role: principal.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Priority domain.TicketPriority `json:"priority"`
	Category domain.TicketCategory `json:"category"`
	Title    string                `json:"title"`
}

// TicketUpdatedPayload lists the fields a patch carried and the resulting state.
type TicketUpdatedPayload struct {
	Fields     []string            `json:"fields"`
	OldStatus  domain.TicketStatus `json:"old_status"`
	NewStatus  domain.TicketStatus `json:"new_status"`
	AssignedTo *string             `json:"assigned_to,omitempty"`
}

// TicketClosedPayload payload.
type TicketClosedPayload struct {
	ClosedAt        time.Time `json:"closed_at"`
	ResolutionNotes *string   `json:"resolution_notes,omitempty"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	BodyPreview string `json:"body_preview"`
}
