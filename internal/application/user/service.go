package user

import (
	"context"
	"fmt"

	"github.com/shop-api-nosql/internal/domain"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldEmail     = "email"
	fieldPhone     = "phone"
	fieldFirstName = "first_name"
	fieldLastName  = "last_name"
	fieldRole      = "role"
	fieldActive    = "active"
	fieldVerified  = "verified"
)

type Service interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error)
	List(ctx context.Context, filter domain.UserFilter, limit int, cursor string) ([]domain.User, string, error)
	AdminUpdate(ctx context.Context, userID string, req domain.AdminUpdateUserRequest) (*domain.User, error)
	Disable(ctx context.Context, userID string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	Disable(ctx context.Context, userID string) error
	ScanPage(ctx context.Context, filter domain.UserFilter, limit int32, cursor string) ([]domain.User, string, error)
}

type service struct {
	repo userStore
}

func NewService(repo userStore) Service {
	return &service{repo: repo}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateUserRequest) (*domain.User, error) {
	updates, err := s.profileUpdates(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

func (s *service) List(ctx context.Context, filter domain.UserFilter, limit int, cursor string) ([]domain.User, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ScanPage(ctx, filter, int32(limit), cursor)
}

func (s *service) AdminUpdate(ctx context.Context, userID string, req domain.AdminUpdateUserRequest) (*domain.User, error) {
	updates, err := s.profileUpdates(ctx, userID, req.UpdateUserRequest)
	if err != nil {
		return nil, err
	}
	if req.Role != nil {
		updates[fieldRole] = *req.Role
	}
	if req.Active != nil {
		updates[fieldActive] = *req.Active
	}
	if req.Verified != nil {
		updates[fieldVerified] = *req.Verified
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no fields to update: %w", domain.ErrBadRequest)
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID)
}

func (s *service) Disable(ctx context.Context, userID string) error {
	return s.repo.Disable(ctx, userID)
}

// profileUpdates maps optional request fields to attribute updates,
// rejecting an email change that would collide with another account.
// Resubmitting the account's own current address is not a collision.
func (s *service) profileUpdates(ctx context.Context, userID string, req domain.UpdateUserRequest) (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if req.Email != nil {
		if existing, err := s.repo.GetByEmail(ctx, *req.Email); err == nil && existing != nil && existing.UserID != userID {
			return nil, fmt.Errorf("email already in use: %w", domain.ErrConflict)
		}
		updates[fieldEmail] = *req.Email
	}
	if req.Phone != nil {
		updates[fieldPhone] = *req.Phone
	}
	if req.FirstName != nil {
		updates[fieldFirstName] = *req.FirstName
	}
	if req.LastName != nil {
		updates[fieldLastName] = *req.LastName
	}
	return updates, nil
}
