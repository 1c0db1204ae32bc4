// Package service contains the application's business logic.
package service

import (
	"context"
	"errors"
	"strings"

	"feira/internal/models"
	"feira/internal/repository"
)

// Grant is the resolved authorization context for one request. A caller
// holds admin rights through the ADMIN role, or ownership of a single
// listing when the account email matches the listing's contact email.
type Grant struct {
	IsAdmin     bool
	IsOwner     bool
	CallerEmail string
}

// CanModerate reports whether the caller may run admin-or-owner
// operations on the resolved listing.
func (g Grant) CanModerate() bool {
	return g.IsAdmin || g.IsOwner
}

// Gate resolves caller identity into a Grant.
type Gate struct {
	userRepo repository.UserRepository
}

// NewGate returns a Gate backed by the user store.
func NewGate(userRepo repository.UserRepository) *Gate {
	return &Gate{userRepo: userRepo}
}

// Resolve loads the caller's account and compares it against the target
// listing. An anonymous caller (userID zero) gets the zero Grant with no
// error; missing accounts behave the same way. Email comparison is
// case-insensitive, on the Listing.Email field only.
func (g *Gate) Resolve(ctx context.Context, callerUserID uint, listing *models.Listing) (Grant, error) {
	if callerUserID == 0 {
		return Grant{}, nil
	}

	user, err := g.userRepo.GetByID(ctx, callerUserID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "NOT_FOUND" {
			return Grant{}, nil
		}
		return Grant{}, err
	}

	grant := Grant{
		IsAdmin:     user.IsAdmin(),
		CallerEmail: user.Email,
	}
	if listing != nil && listing.Email != "" {
		grant.IsOwner = strings.EqualFold(listing.Email, user.Email)
	}
	return grant, nil
}
