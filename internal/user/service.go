package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ovaphlow/brainvault/service-idea-core/internal/user/entity"
)

// sentinel errors for common failure modes
var (
	ErrNotFound   = errors.New("user not found")
	ErrValidation = errors.New("validation failed")
)

// Store is the persistence contract the service depends on.
type Store interface {
	Create(ctx context.Context, u *entity.User) (int64, error)
	GetByExternalID(ctx context.Context, externalID string) (*entity.User, error)
	UpdateByExternalID(ctx context.Context, externalID string, email, subscription *string) (int64, error)
	DeleteByExternalID(ctx context.Context, externalID string) (int64, error)
}

// IdeaPurger removes all ideas owned by a user; used by the delete cascade.
type IdeaPurger interface {
	PurgeOwner(ctx context.Context, userID string) (int64, error)
}

// Service manages minimal account records keyed by the external identity id.
type Service struct {
	store  Store
	ideas  IdeaPurger
	logger *zap.SugaredLogger
}

// NewService constructs a Service. ideas may be nil, which disables the
// delete cascade (ideas are then orphaned).
func NewService(store Store, ideas IdeaPurger, logger *zap.SugaredLogger) *Service {
	return &Service{store: store, ideas: ideas, logger: logger}
}

// Create registers a new account record explicitly.
func (s *Service) Create(ctx context.Context, externalID, email, subscription string) (*entity.User, error) {
	if externalID == "" {
		return nil, fmt.Errorf("%w: external_auth_id: must not be empty", ErrValidation)
	}
	if email == "" {
		return nil, fmt.Errorf("%w: email: must not be empty", ErrValidation)
	}
	if subscription == "" {
		subscription = "free"
	}
	u := &entity.User{ExternalAuthID: externalID, Email: email, Subscription: subscription}
	if _, err := s.store.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetOrCreate returns the account for an external identity, creating it with
// the default subscription on first authenticated contact.
func (s *Service) GetOrCreate(ctx context.Context, externalID, email string) (*entity.User, error) {
	u, err := s.store.GetByExternalID(ctx, externalID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	s.logger.Infow("registering account on first contact", "external_auth_id", externalID)
	return s.Create(ctx, externalID, email, "free")
}

// Update applies a partial profile edit. An empty update returns the current
// record unchanged.
func (s *Service) Update(ctx context.Context, externalID string, email, subscription *string) (*entity.User, error) {
	if email == nil && subscription == nil {
		return s.get(ctx, externalID)
	}
	rows, err := s.store.UpdateByExternalID(ctx, externalID, email, subscription)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	if rows == 0 {
		return nil, ErrNotFound
	}
	return s.get(ctx, externalID)
}

// Delete removes the account. The user's ideas are deleted as well: an
// orphaned idea would be unreachable anyway since every read is owner-scoped.
func (s *Service) Delete(ctx context.Context, externalID string) (bool, error) {
	if s.ideas != nil {
		n, err := s.ideas.PurgeOwner(ctx, externalID)
		if err != nil {
			return false, fmt.Errorf("purge ideas: %w", err)
		}
		if n > 0 {
			s.logger.Infow("cascade deleted ideas", "external_auth_id", externalID, "count", n)
		}
	}
	rows, err := s.store.DeleteByExternalID(ctx, externalID)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *Service) get(ctx context.Context, externalID string) (*entity.User, error) {
	u, err := s.store.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}
