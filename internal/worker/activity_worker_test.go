package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/service"
)

func TestStartActivityWorkerSubscribes(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher(zap.New(core))

	StartActivityWorker(service.NewActivityService(dispatcher, zap.New(core), observability.NewMetrics()))

	err := dispatcher.Publish(context.Background(), events.Event{ID: "evt", Type: events.EventTicketCreated, TicketID: "t-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("ticket created").Len())
}

func TestStartActivityWorkerNil(t *testing.T) {
	assert.NotPanics(t, func() { StartActivityWorker(nil) })
}
