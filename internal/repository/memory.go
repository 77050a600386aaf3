package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/policy"
)

// MemoryStore keeps users, tickets and comments in process. All access goes
// through one RWMutex, so every operation observes a consistent snapshot.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	emails   map[string]string
	tickets  map[string]domain.Ticket
	comments map[string][]domain.Comment
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]domain.User),
		emails:   make(map[string]string),
		tickets:  make(map[string]domain.Ticket),
		comments: make(map[string][]domain.Comment),
	}
}

// Tickets returns the ticket view of the store.
func (s *MemoryStore) Tickets() TicketRepository { return memoryTickets{s} }

// Comments returns the comment view of the store.
func (s *MemoryStore) Comments() CommentRepository { return memoryComments{s} }

// Users returns the user view of the store.
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

// joined resolves display names; callers hold at least the read lock.
func (s *MemoryStore) joined(t domain.Ticket) domain.Ticket {
	t.AssignedTo = cloneString(t.AssignedTo)
	t.ResolutionNotes = cloneString(t.ResolutionNotes)
	if t.ClosedAt != nil {
		closedAt := *t.ClosedAt
		t.ClosedAt = &closedAt
	}
	t.ClientName = s.users[t.ClientID].FullName
	t.AssigneeName = nil
	if t.AssignedTo != nil {
		if assignee, ok := s.users[*t.AssignedTo]; ok {
			name := assignee.FullName
			t.AssigneeName = &name
		}
	}
	return t
}

type memoryTickets struct{ s *MemoryStore }

func (m memoryTickets) Create(ctx context.Context, ticket *domain.Ticket) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.users[ticket.ClientID]; !ok {
		return fmt.Errorf("%w: tickets_client_id_fkey", ErrInvalidReference)
	}
	stored := *ticket
	stored.ID = uuid.NewString()
	m.s.tickets[stored.ID] = stored
	*ticket = m.s.joined(stored)
	return nil
}

func (m memoryTickets) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	stored, ok := m.s.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	ticket := m.s.joined(stored)
	return &ticket, nil
}

func (m memoryTickets) List(ctx context.Context, scope policy.Scope) ([]domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	tickets := []domain.Ticket{}
	for _, stored := range m.s.tickets {
		if scope.Includes(stored.ClientID) {
			tickets = append(tickets, m.s.joined(stored))
		}
	}
	sort.Slice(tickets, func(i, j int) bool {
		if tickets[i].CreatedAt.Equal(tickets[j].CreatedAt) {
			return tickets[i].ID > tickets[j].ID
		}
		return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
	})
	return tickets, nil
}

func (m memoryTickets) ApplyUpdate(ctx context.Context, id string, mutation TicketMutation) (*domain.Ticket, domain.TicketStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stored, ok := m.s.tickets[id]
	if !ok {
		return nil, "", ErrNotFound
	}
	if mutation.AssignedTo.Set && mutation.AssignedTo.Value != nil {
		if _, ok := m.s.users[*mutation.AssignedTo.Value]; !ok {
			return nil, "", fmt.Errorf("%w: tickets_assigned_to_fkey", ErrInvalidReference)
		}
	}
	previous := stored.Status
	mutation.Apply(&stored)
	m.s.tickets[id] = stored
	ticket := m.s.joined(stored)
	return &ticket, previous, nil
}

func (m memoryTickets) Stats(ctx context.Context, scope policy.Scope) (domain.TicketStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.TicketStats{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var stats domain.TicketStats
	for _, stored := range m.s.tickets {
		if scope.Includes(stored.ClientID) {
			stats.Add(stored.Status)
		}
	}
	return stats, nil
}

type memoryComments struct{ s *MemoryStore }

func (m memoryComments) Create(ctx context.Context, comment *domain.Comment) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.tickets[comment.TicketID]; !ok {
		return fmt.Errorf("%w: comments_ticket_id_fkey", ErrInvalidReference)
	}
	author, ok := m.s.users[comment.AuthorID]
	if !ok {
		return fmt.Errorf("%w: comments_author_id_fkey", ErrInvalidReference)
	}
	stored := *comment
	stored.ID = uuid.NewString()
	stored.AuthorName = ""
	m.s.comments[stored.TicketID] = append(m.s.comments[stored.TicketID], stored)

	stored.AuthorName = author.FullName
	*comment = stored
	return nil
}

func (m memoryComments) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	stored := m.s.comments[ticketID]
	comments := make([]domain.Comment, 0, len(stored))
	for _, c := range stored {
		c.AuthorName = m.s.users[c.AuthorID].FullName
		comments = append(comments, c)
	}
	// insertion order breaks ties
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	return comments, nil
}

type memoryUsers struct{ s *MemoryStore }

func (m memoryUsers) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, exists := m.s.emails[key]; exists {
		return fmt.Errorf("%w: users_email_key", ErrDuplicate)
	}
	stored := *user
	stored.ID = uuid.NewString()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	m.s.users[stored.ID] = stored
	m.s.emails[key] = stored.ID
	*user = stored
	return nil
}

func (m memoryUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	user, ok := m.s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m memoryUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	id, ok := m.s.emails[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	user := m.s.users[id]
	return &user, nil
}

func (m memoryUsers) ListByRoles(ctx context.Context, roles ...domain.Role) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	wanted := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		wanted[role] = struct{}{}
	}
	users := []domain.User{}
	for _, user := range m.s.users {
		if _, ok := wanted[user.Role]; ok {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].FullName == users[j].FullName {
			return users[i].ID < users[j].ID
		}
		return users[i].FullName < users[j].FullName
	})
	return users, nil
}
