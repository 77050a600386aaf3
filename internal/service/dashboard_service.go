package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

// DashboardService reports aggregate ticket counts.
type DashboardService struct {
	tickets repository.TicketRepository
}

// NewDashboardService constructs the service.
func NewDashboardService(tickets repository.TicketRepository) *DashboardService {
	return &DashboardService{tickets: tickets}
}

// Summarize counts tickets by status over the same scope ListTickets uses,
// read in one consistent pass.
func (s *DashboardService) Summarize(ctx context.Context, principal domain.Principal) (_ domain.TicketStats, err error) {
	ctx, span := tracer.Start(ctx, "DashboardService.Summarize")
	defer func() { endSpan(span, err) }()

	p, err := policyFor(principal)
	if err != nil {
		return domain.TicketStats{}, err
	}
	stats, err := s.tickets.Stats(ctx, p.Scope(principal.UserID))
	if err != nil {
		return domain.TicketStats{}, storeError("ticket", err)
	}
	span.SetAttributes(attribute.Int("ticket.total", stats.Total))
	return stats, nil
}
