package user

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/brainvault/service-idea-core/internal/user/entity"
)

// fakeStore is an in-memory Store keyed by external identity id.
type fakeStore struct {
	users  map[string]*entity.User
	nextID int64
}

func newFakeStore() *fakeStore { return &fakeStore{users: map[string]*entity.User{}} }

func (f *fakeStore) Create(_ context.Context, u *entity.User) (int64, error) {
	f.nextID++
	u.ID = f.nextID
	cp := *u
	f.users[u.ExternalAuthID] = &cp
	return u.ID, nil
}

func (f *fakeStore) GetByExternalID(_ context.Context, externalID string) (*entity.User, error) {
	u, ok := f.users[externalID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) UpdateByExternalID(_ context.Context, externalID string, email, subscription *string) (int64, error) {
	u, ok := f.users[externalID]
	if !ok {
		return 0, nil
	}
	if email != nil {
		u.Email = *email
	}
	if subscription != nil {
		u.Subscription = *subscription
	}
	return 1, nil
}

func (f *fakeStore) DeleteByExternalID(_ context.Context, externalID string) (int64, error) {
	if _, ok := f.users[externalID]; !ok {
		return 0, nil
	}
	delete(f.users, externalID)
	return 1, nil
}

// fakePurger records cascade calls.
type fakePurger struct {
	purged []string
	count  int64
}

func (f *fakePurger) PurgeOwner(_ context.Context, userID string) (int64, error) {
	f.purged = append(f.purged, userID)
	return f.count, nil
}

func strPtr(s string) *string { return &s }

func TestCreateDefaultsSubscription(t *testing.T) {
	svc := NewService(newFakeStore(), nil, zap.NewNop().Sugar())

	u, err := svc.Create(context.Background(), "auth0|abc", "a@example.com", "")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "free", u.Subscription)

	_, err = svc.Create(context.Background(), "", "a@example.com", "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Create(context.Background(), "auth0|abc", "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetOrCreateRegistersOnFirstContact(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, zap.NewNop().Sugar())

	u, err := svc.GetOrCreate(context.Background(), "auth0|abc", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "free", u.Subscription)

	// second contact returns the existing record, not a new one
	again, err := svc.GetOrCreate(context.Background(), "auth0|abc", "changed@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "a@example.com", again.Email)
}

func TestUpdatePartialEdit(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, zap.NewNop().Sugar())

	_, err := svc.Create(context.Background(), "auth0|abc", "a@example.com", "")
	require.NoError(t, err)

	u, err := svc.Update(context.Background(), "auth0|abc", nil, strPtr("pro"))
	require.NoError(t, err)
	assert.Equal(t, "pro", u.Subscription)
	assert.Equal(t, "a@example.com", u.Email)

	// empty edit is a read
	u, err = svc.Update(context.Background(), "auth0|abc", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "pro", u.Subscription)

	_, err = svc.Update(context.Background(), "auth0|nobody", strPtr("x@example.com"), nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCascadesToIdeas(t *testing.T) {
	store := newFakeStore()
	purger := &fakePurger{count: 3}
	svc := NewService(store, purger, zap.NewNop().Sugar())

	_, err := svc.Create(context.Background(), "auth0|abc", "a@example.com", "")
	require.NoError(t, err)

	deleted, err := svc.Delete(context.Background(), "auth0|abc")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, []string{"auth0|abc"}, purger.purged)

	deleted, err = svc.Delete(context.Background(), "auth0|abc")
	require.NoError(t, err)
	assert.False(t, deleted)
}
