package service

import (
	"context"
	"errors"
	"strings"

	"feira/internal/config"
	"feira/internal/models"
	"feira/internal/observability"
	"feira/internal/repository"

	"github.com/go-playground/validator/v10"
)

// SubmitListingInput is the payload for a new business submission.
type SubmitListingInput struct {
	Name        string `json:"name" validate:"required,max=160"`
	Category    string `json:"category" validate:"required"`
	Description string `json:"description" validate:"max=10000"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	Whatsapp    string `json:"whatsapp" validate:"max=40"`
	Instagram   string `json:"instagram" validate:"max=80"`
	Tiktok      string `json:"tiktok" validate:"max=80"`
	Email       string `json:"email" validate:"required,email"`
	Site        string `json:"site" validate:"omitempty,url"`
}

// UpdateListingInput carries the editable content fields. Moderation
// state (approved, suspended, deleted_at) is never writable here.
type UpdateListingInput struct {
	Name        string `json:"name" validate:"required,max=160"`
	Category    string `json:"category" validate:"required"`
	Description string `json:"description" validate:"max=10000"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
	Whatsapp    string `json:"whatsapp" validate:"max=40"`
	Instagram   string `json:"instagram" validate:"max=80"`
	Tiktok      string `json:"tiktok" validate:"max=80"`
	Site        string `json:"site" validate:"omitempty,url"`
}

// BrowseInput narrows the public directory listing. Random shuffles the
// page order, used by the home page rotation.
type BrowseInput struct {
	Category string
	Query    string
	Random   bool
	Limit    int
	Offset   int
}

// ListingService implements submission, browsing and moderation of
// directory listings.
type ListingService struct {
	listingRepo repository.ListingRepository
	gate        *Gate
	events      ModerationEvents
	validate    *validator.Validate
}

// NewListingService returns a ListingService. events may be nil in
// contexts that must not send notifications (seeders, tests).
func NewListingService(listingRepo repository.ListingRepository, gate *Gate, events ModerationEvents) *ListingService {
	return &ListingService{
		listingRepo: listingRepo,
		gate:        gate,
		events:      events,
		validate:    validator.New(),
	}
}

// Submit stores a new listing. Submissions always enter the review
// queue: approved, suspended and deleted_at are forced to their initial
// state regardless of the payload.
func (s *ListingService) Submit(ctx context.Context, in SubmitListingInput) (*models.Listing, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if !config.ValidCategory(in.Category) {
		return nil, models.NewValidationError("Unknown category")
	}

	listing := &models.Listing{
		Name:        strings.TrimSpace(in.Name),
		Category:    in.Category,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Whatsapp:    in.Whatsapp,
		Instagram:   in.Instagram,
		Tiktok:      in.Tiktok,
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		Site:        in.Site,
		Approved:    false,
		Suspended:   false,
	}

	if err := s.listingRepo.Create(ctx, listing); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.ListingSubmitted(ctx, *listing)
	}
	return listing, nil
}

// Browse returns the public directory page matching the filter.
func (s *ListingService) Browse(ctx context.Context, in BrowseInput) ([]models.Listing, error) {
	if in.Category != "" && !config.ValidCategory(in.Category) {
		return nil, models.NewValidationError("Unknown category")
	}
	return s.listingRepo.ListVisible(ctx, repository.ListingFilter{
		Category: in.Category,
		Query:    strings.TrimSpace(in.Query),
		Random:   in.Random,
		Limit:    in.Limit,
		Offset:   in.Offset,
	})
}

// Get returns one listing. Listings outside the public set are only
// served to admins and the owner; everyone else sees NOT_FOUND, so the
// response never reveals that a hidden listing exists. Views are counted
// on non-owner loads only.
func (s *ListingService) Get(ctx context.Context, callerUserID uint, id uint) (*models.Listing, error) {
	listing, err := s.listingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	grant := Grant{}
	if callerUserID != 0 {
		if grant, err = s.gate.Resolve(ctx, callerUserID, listing); err != nil {
			return nil, err
		}
	}

	if listing.Visible() {
		if !grant.IsOwner {
			if err := s.listingRepo.IncrementViews(ctx, id); err == nil {
				listing.Views++
			}
		}
		return listing, nil
	}

	if !grant.CanModerate() {
		return nil, models.NewNotFoundError("Listing", id)
	}
	return listing, nil
}

// Mine lists every listing tied to the caller's account email,
// whatever its moderation state.
func (s *ListingService) Mine(ctx context.Context, callerUserID uint, limit, offset int) ([]models.Listing, error) {
	grant, err := s.gate.Resolve(ctx, callerUserID, nil)
	if err != nil {
		return nil, err
	}
	if grant.CallerEmail == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	return s.listingRepo.ListByEmail(ctx, grant.CallerEmail, limit, offset)
}

// Update edits content fields on a listing. Admins may edit any
// listing, owners only their own. Moderation state is preserved: an
// edit never re-approves, un-approves or restores a listing.
func (s *ListingService) Update(ctx context.Context, callerUserID uint, id uint, in UpdateListingInput) (*models.Listing, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if !config.ValidCategory(in.Category) {
		return nil, models.NewValidationError("Unknown category")
	}

	listing, err := s.listingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	grant, err := s.gate.Resolve(ctx, callerUserID, listing)
	if err != nil {
		return nil, err
	}
	if !grant.CanModerate() {
		return nil, models.NewPermissionDeniedError()
	}

	listing.Name = strings.TrimSpace(in.Name)
	listing.Category = in.Category
	listing.Description = in.Description
	listing.ImageURL = in.ImageURL
	listing.Whatsapp = in.Whatsapp
	listing.Instagram = in.Instagram
	listing.Tiktok = in.Tiktok
	listing.Site = in.Site

	if err := s.listingRepo.Update(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// Pending returns the review queue, oldest first. Admin only.
func (s *ListingService) Pending(ctx context.Context, callerUserID uint, limit, offset int) ([]models.Listing, error) {
	if err := s.requireAdmin(ctx, callerUserID); err != nil {
		return nil, err
	}
	return s.listingRepo.ListPending(ctx, limit, offset)
}

// Trashed returns the trash, most recently trashed first. Admin only.
func (s *ListingService) Trashed(ctx context.Context, callerUserID uint, limit, offset int) ([]models.Listing, error) {
	if err := s.requireAdmin(ctx, callerUserID); err != nil {
		return nil, err
	}
	return s.listingRepo.ListTrashed(ctx, limit, offset)
}

// PendingCount returns the size of the review queue. Admin only.
func (s *ListingService) PendingCount(ctx context.Context, callerUserID uint) (int64, error) {
	if err := s.requireAdmin(ctx, callerUserID); err != nil {
		return 0, err
	}
	return s.listingRepo.CountPending(ctx)
}

func (s *ListingService) requireAdmin(ctx context.Context, callerUserID uint) error {
	grant, err := s.gate.Resolve(ctx, callerUserID, nil)
	if err != nil {
		return err
	}
	if !grant.IsAdmin {
		return models.NewPermissionDeniedError()
	}
	return nil
}

// Approve publishes listings: approved is set and any suspension or
// trash state is cleared, so approving straight out of the trash works.
// Admin only. Ids matching no row are skipped silently; an empty id set
// succeeds without touching the store. Owners are notified of every
// listing that actually transitioned.
func (s *ListingService) Approve(ctx context.Context, callerUserID uint, ids []uint) (int64, error) {
	if err := s.requireAdmin(ctx, callerUserID); err != nil {
		return 0, err
	}

	affected, err := s.listingRepo.Approve(ctx, ids)
	if err != nil {
		return 0, err
	}
	observability.ModerationTransitionsTotal.WithLabelValues("approve").Add(float64(affected))

	if affected > 0 && s.events != nil {
		approved, err := s.listingRepo.GetByIDs(ctx, ids)
		if err == nil {
			s.events.ListingsApproved(ctx, approved)
		}
	}
	return affected, nil
}

// Suspend hides listings from the public pages without touching their
// approval or trash state. Admin only.
func (s *ListingService) Suspend(ctx context.Context, callerUserID uint, ids []uint) (int64, error) {
	if err := s.requireAdmin(ctx, callerUserID); err != nil {
		return 0, err
	}

	affected, err := s.listingRepo.Suspend(ctx, ids)
	if err != nil {
		return 0, err
	}
	observability.ModerationTransitionsTotal.WithLabelValues("suspend").Add(float64(affected))
	return affected, nil
}

// Trash soft-deletes listings and pulls their approval, so a later
// restore lands back in the review queue rather than going straight
// public. Batches are admin only; a single id is also allowed for the
// listing's owner.
func (s *ListingService) Trash(ctx context.Context, callerUserID uint, ids []uint) (int64, error) {
	if err := s.requireAdminOrSingleOwner(ctx, callerUserID, ids); err != nil {
		return 0, err
	}

	affected, err := s.listingRepo.Trash(ctx, ids)
	if err != nil {
		return 0, err
	}
	observability.ModerationTransitionsTotal.WithLabelValues("trash").Add(float64(affected))
	return affected, nil
}

// Restore pulls listings out of the trash into the review queue.
// Admin only.
func (s *ListingService) Restore(ctx context.Context, callerUserID uint, ids []uint) (int64, error) {
	if err := s.requireAdmin(ctx, callerUserID); err != nil {
		return 0, err
	}

	affected, err := s.listingRepo.Restore(ctx, ids)
	if err != nil {
		return 0, err
	}
	observability.ModerationTransitionsTotal.WithLabelValues("restore").Add(float64(affected))
	return affected, nil
}

// Purge permanently deletes listings. Admin only, irreversible.
func (s *ListingService) Purge(ctx context.Context, callerUserID uint, ids []uint) (int64, error) {
	if err := s.requireAdmin(ctx, callerUserID); err != nil {
		return 0, err
	}

	affected, err := s.listingRepo.Purge(ctx, ids)
	if err != nil {
		return 0, err
	}
	observability.ModerationTransitionsTotal.WithLabelValues("purge").Add(float64(affected))
	return affected, nil
}

func (s *ListingService) requireAdminOrSingleOwner(ctx context.Context, callerUserID uint, ids []uint) error {
	if len(ids) != 1 {
		return s.requireAdmin(ctx, callerUserID)
	}

	listing, err := s.listingRepo.GetByID(ctx, ids[0])
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "NOT_FOUND" {
			// Missing ids are a silent no-op, so only the role check applies.
			return s.requireAdmin(ctx, callerUserID)
		}
		return err
	}

	grant, err := s.gate.Resolve(ctx, callerUserID, listing)
	if err != nil {
		return err
	}
	if !grant.CanModerate() {
		return models.NewPermissionDeniedError()
	}
	return nil
}
