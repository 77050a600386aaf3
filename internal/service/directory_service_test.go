package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

type fakeDirectoryCache struct {
	users  []domain.User
	hit    bool
	getErr error
	sets   int
}

func (c *fakeDirectoryCache) Get(context.Context) ([]domain.User, bool, error) {
	return c.users, c.hit, c.getErr
}

func (c *fakeDirectoryCache) Set(_ context.Context, users []domain.User) error {
	c.users, c.hit = users, true
	c.sets++
	return nil
}

func TestListConsultantsFillsCache(t *testing.T) {
	f := newFixture(t)
	cache := &fakeDirectoryCache{}
	svc := NewDirectoryService(f.store.Users(), cache)
	ctx := context.Background()

	users, err := svc.ListConsultants(ctx, f.consultant)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Admin", users[0].FullName)
	assert.Equal(t, "Consultant B", users[1].FullName)
	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}
	assert.Equal(t, 1, cache.sets)

	_, err = svc.ListConsultants(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
}

func TestListConsultantsServesCacheHit(t *testing.T) {
	f := newFixture(t)
	cache := &fakeDirectoryCache{hit: true, users: []domain.User{{ID: "cached", FullName: "Cached"}}}
	svc := NewDirectoryService(f.store.Users(), cache)

	users, err := svc.ListConsultants(context.Background(), f.admin)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "cached", users[0].ID)
}

func TestListConsultantsFallsThroughCacheErrors(t *testing.T) {
	f := newFixture(t)
	cache := &fakeDirectoryCache{getErr: errors.New("connection refused")}
	svc := NewDirectoryService(f.store.Users(), cache)

	users, err := svc.ListConsultants(context.Background(), f.admin)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestListConsultantsForbiddenForClients(t *testing.T) {
	f := newFixture(t)
	svc := NewDirectoryService(f.store.Users(), nil)

	_, err := svc.ListConsultants(context.Background(), f.clientA)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
