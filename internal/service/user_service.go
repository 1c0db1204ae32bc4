package service

import (
	"context"

	"feira/internal/models"
	"feira/internal/repository"
)

// UserService handles account lookup and role management.
type UserService struct {
	userRepo repository.UserRepository
	gate     *Gate
}

// NewUserService returns a new UserService.
func NewUserService(userRepo repository.UserRepository, gate *Gate) *UserService {
	return &UserService{userRepo: userRepo, gate: gate}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// SyncByEmail returns the account for email, creating it with the USER
// role on first contact. Existing roles are never changed by a sync.
func (s *UserService) SyncByEmail(ctx context.Context, name, email string) (*models.User, error) {
	if email == "" {
		return nil, models.NewValidationError("Email is required")
	}
	return s.userRepo.UpsertByEmail(ctx, name, email)
}

// ListUsers returns a page of accounts. Admin only.
func (s *UserService) ListUsers(ctx context.Context, callerUserID uint, limit, offset int) ([]models.User, error) {
	grant, err := s.gate.Resolve(ctx, callerUserID, nil)
	if err != nil {
		return nil, err
	}
	if !grant.IsAdmin {
		return nil, models.NewPermissionDeniedError()
	}
	return s.userRepo.List(ctx, limit, offset)
}

// SetRole changes an account's role. Admin only; admins cannot demote
// themselves, which keeps at least one admin reachable.
func (s *UserService) SetRole(ctx context.Context, callerUserID, targetID uint, role string) (*models.User, error) {
	if role != models.RoleAdmin && role != models.RoleUser {
		return nil, models.NewValidationError("Unknown role")
	}

	grant, err := s.gate.Resolve(ctx, callerUserID, nil)
	if err != nil {
		return nil, err
	}
	if !grant.IsAdmin {
		return nil, models.NewPermissionDeniedError()
	}
	if callerUserID == targetID && role != models.RoleAdmin {
		return nil, models.NewValidationError("Admins cannot demote themselves")
	}

	if err := s.userRepo.SetRole(ctx, targetID, role); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, targetID)
}
