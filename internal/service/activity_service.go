package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/events"
)

// ActivityMetrics counts ticket activity.
type ActivityMetrics interface {
	TicketCreated()
	TicketStatusSet(status string)
	CommentAdded()
}

// ActivityService records ticket events in the activity log and metrics.
type ActivityService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    ActivityMetrics
}

// NewActivityService creates the service.
func NewActivityService(dispatcher events.Dispatcher, logger *zap.Logger, metrics ActivityMetrics) *ActivityService {
	return &ActivityService{
		dispatcher: dispatcher,
		logger:     logger.Named("activity"),
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventTicketCreated, a.handleTicketCreated)
	a.dispatcher.Subscribe(events.EventTicketUpdated, a.handleTicketUpdated)
	a.dispatcher.Subscribe(events.EventTicketClosed, a.handleTicketClosed)
	a.dispatcher.Subscribe(events.EventCommentAdded, a.handleCommentAdded)
}

func (a *ActivityService) handleTicketCreated(_ context.Context, event events.Event) error {
	a.logger.Info("ticket created", eventFields(event)...)
	if a.metrics != nil {
		a.metrics.TicketCreated()
	}
	return nil
}

func (a *ActivityService) handleTicketUpdated(_ context.Context, event events.Event) error {
	fields := eventFields(event)
	if payload, ok := event.Payload.(events.TicketUpdatedPayload); ok {
		fields = append(fields,
			zap.Strings("fields", payload.Fields),
			zap.String("old_status", string(payload.OldStatus)),
			zap.String("new_status", string(payload.NewStatus)),
		)
		if a.metrics != nil && containsField(payload.Fields, "status") {
			a.metrics.TicketStatusSet(string(payload.NewStatus))
		}
	}
	a.logger.Info("ticket updated", fields...)
	return nil
}

func (a *ActivityService) handleTicketClosed(_ context.Context, event events.Event) error {
	a.logger.Info("ticket closed", eventFields(event)...)
	return nil
}

func (a *ActivityService) handleCommentAdded(_ context.Context, event events.Event) error {
	fields := eventFields(event)
	if payload, ok := event.Payload.(events.CommentAddedPayload); ok {
		fields = append(fields, zap.String("comment_id", payload.CommentID))
	}
	a.logger.Info("comment added", fields...)
	if a.metrics != nil {
		a.metrics.CommentAdded()
	}
	return nil
}

func eventFields(event events.Event) []zap.Field {
	return []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.Actor.UserID),
		zap.String("actor_role", string(event.Actor.Role)),
		zap.Time("at", event.Timestamp),
	}
}

func containsField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}
