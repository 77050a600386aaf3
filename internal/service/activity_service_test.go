package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
)

type countingMetrics struct {
	created  int
	statuses []string
	comments int
}

func (m *countingMetrics) TicketCreated()           { m.created++ }
func (m *countingMetrics) TicketStatusSet(s string) { m.statuses = append(m.statuses, s) }
func (m *countingMetrics) CommentAdded()            { m.comments++ }

func TestActivityLogFollowsTicketLifecycle(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher(zap.New(core))
	metrics := &countingMetrics{}
	NewActivityService(dispatcher, zap.New(core), metrics).RegisterHandlers()

	f := newFixture(t)
	f.tickets.dispatcher = dispatcher
	ctx := context.Background()

	ticket := f.submit(t, f.clientA, "activity")
	_, err := f.tickets.UpdateTicket(ctx, f.consultant, ticket.ID, UpdateTicketInput{Priority: domain.Some("low")})
	require.NoError(t, err)
	_, err = f.tickets.UpdateTicket(ctx, f.consultant, ticket.ID, UpdateTicketInput{Status: domain.Some("closed")})
	require.NoError(t, err)
	_, err = f.tickets.AddComment(ctx, f.clientA, ticket.ID, "thanks")
	require.NoError(t, err)

	messages := make([]string, 0, logs.Len())
	for _, entry := range logs.All() {
		messages = append(messages, entry.Message)
	}
	assert.Equal(t, []string{"ticket created", "ticket updated", "ticket updated", "ticket closed", "comment added"}, messages)

	assert.Equal(t, 1, metrics.created)
	assert.Equal(t, []string{"closed"}, metrics.statuses)
	assert.Equal(t, 1, metrics.comments)

	closed := logs.FilterMessage("ticket closed").All()
	require.Len(t, closed, 1)
	assert.Equal(t, ticket.ID, closed[0].ContextMap()["ticket_id"])
}
