package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/policy"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, store *MemoryStore, email, name string, role domain.Role) domain.User {
	t.Helper()
	user := domain.User{Email: email, FullName: name, Role: role, PasswordHash: "x"}
	require.NoError(t, store.Users().Create(context.Background(), &user))
	return user
}

func seedTicket(t *testing.T, store *MemoryStore, clientID string, at time.Time, status domain.TicketStatus) domain.Ticket {
	t.Helper()
	ticket := domain.Ticket{
		ClientID:    clientID,
		Title:       "Printer jam",
		Description: "Paper stuck in tray 2",
		Priority:    domain.TicketPriorityMedium,
		Category:    domain.DefaultCategory,
		Status:      status,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	require.NoError(t, store.Tickets().Create(context.Background(), &ticket))
	return ticket
}

func TestMemoryTicketsScopedListing(t *testing.T) {
	store := NewMemoryStore()
	alice := seedUser(t, store, "alice@example.com", "Alice", domain.RoleClient)
	bob := seedUser(t, store, "bob@example.com", "Bob", domain.RoleClient)

	older := seedTicket(t, store, alice.ID, baseTime, domain.TicketStatusOpen)
	newer := seedTicket(t, store, alice.ID, baseTime.Add(time.Hour), domain.TicketStatusOpen)
	seedTicket(t, store, bob.ID, baseTime.Add(2*time.Hour), domain.TicketStatusOpen)

	ctx := context.Background()
	own, err := store.Tickets().List(ctx, policy.RestrictedToOwner(alice.ID))
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, newer.ID, own[0].ID)
	assert.Equal(t, older.ID, own[1].ID)
	assert.Equal(t, "Alice", own[0].ClientName)

	all, err := store.Tickets().List(ctx, policy.Unrestricted())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryTicketsEmptyListIsNotNil(t *testing.T) {
	store := NewMemoryStore()
	tickets, err := store.Tickets().List(context.Background(), policy.Unrestricted())
	require.NoError(t, err)
	assert.NotNil(t, tickets)
	assert.Empty(t, tickets)
}

func TestMemoryTicketsCreateRequiresClient(t *testing.T) {
	store := NewMemoryStore()
	ticket := domain.Ticket{ClientID: "missing", Title: "x", Description: "y"}
	err := store.Tickets().Create(context.Background(), &ticket)
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestMemoryTicketsApplyUpdate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	client := seedUser(t, store, "c@example.com", "Client", domain.RoleClient)
	agent := seedUser(t, store, "a@example.com", "Agent", domain.RoleConsultant)
	ticket := seedTicket(t, store, client.ID, baseTime, domain.TicketStatusOpen)

	now := baseTime.Add(time.Hour)
	updated, previous, err := store.Tickets().ApplyUpdate(ctx, ticket.ID, TicketMutation{
		Status:     domain.Some(domain.TicketStatusClosed),
		AssignedTo: domain.Some(&agent.ID),
		UpdatedAt:  now,
		ClosedAt:   domain.Some(now),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, previous)
	assert.Equal(t, domain.TicketStatusClosed, updated.Status)
	require.NotNil(t, updated.AssigneeName)
	assert.Equal(t, "Agent", *updated.AssigneeName)
	require.NotNil(t, updated.ClosedAt)
	assert.True(t, now.Equal(*updated.ClosedAt))
	assert.Equal(t, domain.TicketPriorityMedium, updated.Priority)

	_, previous, err = store.Tickets().ApplyUpdate(ctx, ticket.ID, TicketMutation{UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, previous)

	_, _, err = store.Tickets().ApplyUpdate(ctx, "nope", TicketMutation{UpdatedAt: now})
	assert.ErrorIs(t, err, ErrNotFound)

	ghost := "ghost"
	_, _, err = store.Tickets().ApplyUpdate(ctx, ticket.ID, TicketMutation{AssignedTo: domain.Some(&ghost), UpdatedAt: now})
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestMemoryTicketsReturnCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	client := seedUser(t, store, "c@example.com", "Client", domain.RoleClient)
	ticket := seedTicket(t, store, client.ID, baseTime, domain.TicketStatusOpen)

	notes := "rebooted"
	_, _, err := store.Tickets().ApplyUpdate(ctx, ticket.ID, TicketMutation{ResolutionNotes: domain.Some(&notes), UpdatedAt: baseTime})
	require.NoError(t, err)

	notes = "changed by caller"
	got, err := store.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ResolutionNotes)
	assert.Equal(t, "rebooted", *got.ResolutionNotes)
}

func TestMemoryTicketsStats(t *testing.T) {
	store := NewMemoryStore()
	alice := seedUser(t, store, "alice@example.com", "Alice", domain.RoleClient)
	bob := seedUser(t, store, "bob@example.com", "Bob", domain.RoleClient)
	seedTicket(t, store, alice.ID, baseTime, domain.TicketStatusOpen)
	seedTicket(t, store, alice.ID, baseTime, domain.TicketStatusClosed)
	seedTicket(t, store, bob.ID, baseTime, domain.TicketStatusInProgress)

	ctx := context.Background()
	stats, err := store.Tickets().Stats(ctx, policy.RestrictedToOwner(alice.ID))
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStats{Open: 1, Closed: 1, Total: 2}, stats)

	stats, err = store.Tickets().Stats(ctx, policy.Unrestricted())
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStats{Open: 1, InProgress: 1, Closed: 1, Total: 3}, stats)
}

func TestMemoryCommentsOrdering(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	client := seedUser(t, store, "c@example.com", "Client", domain.RoleClient)
	ticket := seedTicket(t, store, client.ID, baseTime, domain.TicketStatusOpen)

	for _, text := range []string{"first", "second", "third"} {
		comment := domain.Comment{TicketID: ticket.ID, AuthorID: client.ID, Text: text, CreatedAt: baseTime}
		require.NoError(t, store.Comments().Create(ctx, &comment))
		assert.Equal(t, "Client", comment.AuthorName)
	}
	earlier := domain.Comment{TicketID: ticket.ID, AuthorID: client.ID, Text: "earliest", CreatedAt: baseTime.Add(-time.Minute)}
	require.NoError(t, store.Comments().Create(ctx, &earlier))

	comments, err := store.Comments().ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	texts := make([]string, 0, len(comments))
	for _, c := range comments {
		texts = append(texts, c.Text)
	}
	assert.Equal(t, []string{"earliest", "first", "second", "third"}, texts)

	bad := domain.Comment{TicketID: "missing", AuthorID: client.ID, Text: "x", CreatedAt: baseTime}
	assert.ErrorIs(t, store.Comments().Create(ctx, &bad), ErrInvalidReference)
}

func TestMemoryUsers(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	seedUser(t, store, "zed@example.com", "Zed", domain.RoleAdmin)
	seedUser(t, store, "amy@example.com", "Amy", domain.RoleConsultant)
	client := seedUser(t, store, "cat@example.com", "Cat", domain.RoleClient)

	dup := domain.User{Email: "CAT@example.com", FullName: "Other", Role: domain.RoleClient}
	assert.ErrorIs(t, store.Users().Create(ctx, &dup), ErrDuplicate)

	byEmail, err := store.Users().GetByEmail(ctx, "cat@example.com")
	require.NoError(t, err)
	assert.Equal(t, client.ID, byEmail.ID)

	_, err = store.Users().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	staff, err := store.Users().ListByRoles(ctx, domain.StaffRoles...)
	require.NoError(t, err)
	require.Len(t, staff, 2)
	assert.Equal(t, "Amy", staff[0].FullName)
	assert.Equal(t, "Zed", staff[1].FullName)
}

func TestMemoryCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Tickets().List(ctx, policy.Unrestricted())
	assert.ErrorIs(t, err, ErrUnavailable)
}
