package persistence

import (
	"github.com/spec-kit/support-desk/internal/repository"
)

// Stores groups the repositories the services depend on.
type Stores struct {
	Tickets  repository.TicketRepository
	Comments repository.CommentRepository
	Users    repository.UserRepository
}

// NewStores returns Postgres-backed repositories, or in-memory ones when pg is nil.
func NewStores(pg *Postgres) Stores {
	if pg == nil || pg.Pool == nil {
		memory := repository.NewMemoryStore()
		return Stores{
			Tickets:  memory.Tickets(),
			Comments: memory.Comments(),
			Users:    memory.Users(),
		}
	}
	return Stores{
		Tickets:  repository.NewTicketRepository(pg.Pool),
		Comments: repository.NewCommentRepository(pg.Pool),
		Users:    repository.NewUserRepository(pg.Pool),
	}
}
