package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

// steppingClock advances by one second on every reading.
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newSteppingClock() *steppingClock {
	return &steppingClock{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	store      *repository.MemoryStore
	clock      *steppingClock
	tickets    *TicketService
	dashboard  *DashboardService
	clientA    domain.Principal
	clientC    domain.Principal
	consultant domain.Principal
	admin      domain.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	clock := newSteppingClock()

	f := &fixture{
		store: store,
		clock: clock,
		tickets: NewTicketService(TicketDependencies{
			TicketRepo:  store.Tickets(),
			CommentRepo: store.Comments(),
			UserRepo:    store.Users(),
			Clock:       clock.Now,
		}),
		dashboard: NewDashboardService(store.Tickets()),
	}
	f.clientA = f.addUser(t, "a@example.com", "Client A", domain.RoleClient)
	f.clientC = f.addUser(t, "c@example.com", "Client C", domain.RoleClient)
	f.consultant = f.addUser(t, "b@example.com", "Consultant B", domain.RoleConsultant)
	f.admin = f.addUser(t, "root@example.com", "Admin", domain.RoleAdmin)
	return f
}

func (f *fixture) addUser(t *testing.T, email, name string, role domain.Role) domain.Principal {
	t.Helper()
	user := domain.User{Email: email, FullName: name, Role: role, PasswordHash: "x"}
	require.NoError(t, f.store.Users().Create(context.Background(), &user))
	return domain.Principal{UserID: user.ID, Email: user.Email, Role: user.Role}
}

func (f *fixture) submit(t *testing.T, owner domain.Principal, title string) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(context.Background(), owner, CreateTicketInput{
		Title:       title,
		Description: "details for " + title,
	})
	require.NoError(t, err)
	return ticket
}

func strPtr(s string) *string { return &s }
