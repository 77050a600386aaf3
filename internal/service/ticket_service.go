package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/policy"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// Clock supplies the current time.
type Clock func() time.Time

// SystemClock returns the wall clock in UTC.
func SystemClock() time.Time { return time.Now().UTC() }

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	now        Clock
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	CommentRepo repository.CommentRepository
	UserRepo    repository.UserRepository
	Dispatcher  events.Dispatcher
	Clock       Clock
}

// CreateTicketInput describes ticket creation payload. Empty priority and
// category fall back to their defaults.
type CreateTicketInput struct {
	Title       string
	Description string
	Priority    string
	Category    string
}

// UpdateTicketInput carries the raw optional fields of a ticket patch.
type UpdateTicketInput struct {
	Status          domain.Optional[string]
	Priority        domain.Optional[string]
	AssignedTo      domain.Optional[*string]
	ResolutionNotes domain.Optional[*string]
}

// Patch validates enum fields and returns the typed patch.
func (in UpdateTicketInput) Patch() (domain.TicketPatch, error) {
	patch := domain.TicketPatch{
		AssignedTo:      in.AssignedTo,
		ResolutionNotes: in.ResolutionNotes,
	}
	if in.Status.Set {
		status, err := domain.ParseTicketStatus(in.Status.Value)
		if err != nil {
			return domain.TicketPatch{}, enumError(err)
		}
		patch.Status = domain.Some(status)
	}
	if in.Priority.Set {
		priority, err := domain.ParseTicketPriority(in.Priority.Value)
		if err != nil {
			return domain.TicketPatch{}, enumError(err)
		}
		patch.Priority = domain.Some(priority)
	}
	return patch, nil
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	clock := deps.Clock
	if clock == nil {
		clock = SystemClock
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		now:        clock,
	}
}

// CreateTicket submits a ticket owned by the caller.
func (s *TicketService) CreateTicket(ctx context.Context, principal domain.Principal, input CreateTicketInput) (_ *domain.Ticket, err error) {
	ctx, span := tracer.Start(ctx, "TicketService.CreateTicket")
	defer func() { endSpan(span, err) }()

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)

	problems := map[string]any{}
	if title == "" {
		problems["title"] = "required"
	}
	if description == "" {
		problems["description"] = "required"
	}
	if len(problems) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket", problems)
	}

	priority := domain.TicketPriorityMedium
	if raw := strings.TrimSpace(input.Priority); raw != "" {
		if priority, err = domain.ParseTicketPriority(raw); err != nil {
			return nil, enumError(err)
		}
	}
	category := domain.DefaultCategory
	if raw := strings.TrimSpace(input.Category); raw != "" {
		if category, err = domain.ParseTicketCategory(raw); err != nil {
			return nil, enumError(err)
		}
	}

	now := s.now()
	ticket := &domain.Ticket{
		ClientID:    principal.UserID,
		Title:       title,
		Description: description,
		Priority:    priority,
		Category:    category,
		Status:      domain.TicketStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, storeError("ticket", err)
	}
	span.SetAttributes(attribute.String("ticket.id", ticket.ID))

	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketCreated,
		TicketID:  ticket.ID,
		Actor:     events.ActorFrom(principal),
		Timestamp: now,
		Payload: events.TicketCreatedPayload{
			Priority: ticket.Priority,
			Category: ticket.Category,
			Title:    ticket.Title,
		},
	})
	return ticket, nil
}

// GetTicket returns one ticket the caller may read.
func (s *TicketService) GetTicket(ctx context.Context, principal domain.Principal, ticketID string) (_ *domain.Ticket, err error) {
	ctx, span := tracer.Start(ctx, "TicketService.GetTicket", trace.WithAttributes(attribute.String("ticket.id", ticketID)))
	defer func() { endSpan(span, err) }()

	return s.readableTicket(ctx, principal, ticketID)
}

// ListTickets returns every ticket in the caller's scope, newest first.
func (s *TicketService) ListTickets(ctx context.Context, principal domain.Principal) (_ []domain.Ticket, err error) {
	ctx, span := tracer.Start(ctx, "TicketService.ListTickets")
	defer func() { endSpan(span, err) }()

	p, err := policyFor(principal)
	if err != nil {
		return nil, err
	}
	tickets, err := s.tickets.List(ctx, p.Scope(principal.UserID))
	if err != nil {
		return nil, storeError("ticket", err)
	}
	span.SetAttributes(attribute.Int("ticket.count", len(tickets)))
	return tickets, nil
}

// UpdateTicket applies a sparse patch. Only roles allowed to update may call it.
func (s *TicketService) UpdateTicket(ctx context.Context, principal domain.Principal, ticketID string, input UpdateTicketInput) (_ *domain.Ticket, err error) {
	ctx, span := tracer.Start(ctx, "TicketService.UpdateTicket", trace.WithAttributes(attribute.String("ticket.id", ticketID)))
	defer func() { endSpan(span, err) }()

	p, err := policyFor(principal)
	if err != nil {
		return nil, err
	}
	if !p.CanUpdate() {
		return nil, apperrors.NewForbidden("role may not update tickets")
	}

	patch, err := input.Patch()
	if err != nil {
		return nil, err
	}
	if patch.AssignedTo.Set && patch.AssignedTo.Value != nil {
		if !p.CanAssign() {
			return nil, apperrors.NewForbidden("role may not assign tickets")
		}
		if err := s.checkAssignee(ctx, *patch.AssignedTo.Value); err != nil {
			return nil, err
		}
	}

	mutation := BuildMutation(patch, s.now())
	updated, previous, err := s.tickets.ApplyUpdate(ctx, ticketID, mutation)
	if err != nil {
		return nil, storeError("ticket", err)
	}

	actor := events.ActorFrom(principal)
	s.publishEvent(ctx, events.Event{
		Type:      events.EventTicketUpdated,
		TicketID:  updated.ID,
		Actor:     actor,
		Timestamp: mutation.UpdatedAt,
		Payload: events.TicketUpdatedPayload{
			Fields:     patch.Fields(),
			OldStatus:  previous,
			NewStatus:  updated.Status,
			AssignedTo: updated.AssignedTo,
		},
	})
	if mutation.ClosedAt.Set {
		s.publishEvent(ctx, events.Event{
			Type:      events.EventTicketClosed,
			TicketID:  updated.ID,
			Actor:     actor,
			Timestamp: mutation.UpdatedAt,
			Payload: events.TicketClosedPayload{
				ClosedAt:        mutation.ClosedAt.Value,
				ResolutionNotes: updated.ResolutionNotes,
			},
		})
	}
	return updated, nil
}

// ListComments returns a readable ticket's comments in chronological order.
func (s *TicketService) ListComments(ctx context.Context, principal domain.Principal, ticketID string) (_ []domain.Comment, err error) {
	ctx, span := tracer.Start(ctx, "TicketService.ListComments", trace.WithAttributes(attribute.String("ticket.id", ticketID)))
	defer func() { endSpan(span, err) }()

	if _, err := s.readableTicket(ctx, principal, ticketID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, storeError("comment", err)
	}
	return comments, nil
}

// AddComment appends a comment to a readable ticket.
func (s *TicketService) AddComment(ctx context.Context, principal domain.Principal, ticketID, text string) (_ *domain.Comment, err error) {
	ctx, span := tracer.Start(ctx, "TicketService.AddComment", trace.WithAttributes(attribute.String("ticket.id", ticketID)))
	defer func() { endSpan(span, err) }()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("invalid comment", map[string]any{"text": "required"})
	}
	if _, err := s.readableTicket(ctx, principal, ticketID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		TicketID:  ticketID,
		AuthorID:  principal.UserID,
		Text:      text,
		CreatedAt: s.now(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, storeError("comment", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:      events.EventCommentAdded,
		TicketID:  ticketID,
		Actor:     events.ActorFrom(principal),
		Timestamp: comment.CreatedAt,
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			BodyPreview: stringPreview(comment.Text, 80),
		},
	})
	return comment, nil
}

func (s *TicketService) readableTicket(ctx context.Context, principal domain.Principal, ticketID string) (*domain.Ticket, error) {
	p, err := policyFor(principal)
	if err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, storeError("ticket", err)
	}
	if !policy.CanRead(p, principal.UserID, ticket.ClientID) {
		return nil, apperrors.NewForbidden("ticket belongs to another client")
	}
	return ticket, nil
}

// checkAssignee requires the referenced user to exist and hold a staff role.
func (s *TicketService) checkAssignee(ctx context.Context, userID string) error {
	invalid := apperrors.NewValidationError("invalid assignee", map[string]any{
		"assigned_to": "must reference a consultant or admin",
	})
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid
		}
		return storeError("user", err)
	}
	for _, role := range domain.StaffRoles {
		if user.Role == role {
			return nil
		}
	}
	return invalid
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	// subscribers log their own failures
	_ = s.dispatcher.Publish(ctx, event)
}

func policyFor(principal domain.Principal) (policy.Policy, error) {
	p, err := policy.For(principal.Role)
	if err != nil {
		return nil, apperrors.NewForbidden("unknown role")
	}
	return p, nil
}

func stringPreview(body string, limit int) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-3]) + "..."
}
