package service

import (
	"context"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// DirectoryCache holds a short-lived copy of the consultant directory.
type DirectoryCache interface {
	Get(ctx context.Context) ([]domain.User, bool, error)
	Set(ctx context.Context, users []domain.User) error
}

// DirectoryService lists the accounts tickets can be assigned to.
type DirectoryService struct {
	users repository.UserRepository
	cache DirectoryCache
}

// NewDirectoryService constructs the service. cache may be nil.
func NewDirectoryService(users repository.UserRepository, cache DirectoryCache) *DirectoryService {
	return &DirectoryService{users: users, cache: cache}
}

// ListConsultants returns consultants and admins ordered by name. Cache
// failures fall through to the store.
func (s *DirectoryService) ListConsultants(ctx context.Context, principal domain.Principal) (_ []domain.User, err error) {
	ctx, span := tracer.Start(ctx, "DirectoryService.ListConsultants")
	defer func() { endSpan(span, err) }()

	p, err := policyFor(principal)
	if err != nil {
		return nil, err
	}
	if !p.CanAssign() {
		return nil, apperrors.NewForbidden("role may not assign tickets")
	}

	if s.cache != nil {
		if users, ok, cacheErr := s.cache.Get(ctx); cacheErr == nil && ok {
			return users, nil
		} else if cacheErr != nil {
			span.RecordError(cacheErr)
		}
	}

	users, err := s.users.ListByRoles(ctx, domain.StaffRoles...)
	if err != nil {
		return nil, storeError("user", err)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}

	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, users); cacheErr != nil {
			span.RecordError(cacheErr)
		}
	}
	return users, nil
}
