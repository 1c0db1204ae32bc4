// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"feira/internal/cache"
	"feira/internal/models"
	"feira/internal/observability"

	"gorm.io/gorm"
)

// ListingFilter narrows List queries to one slice of the moderation
// lifecycle plus optional category and text search.
type ListingFilter struct {
	Category string
	Query    string
	Email    string
	Random   bool
	Limit    int
	Offset   int
}

// ListingRepository defines persistence operations for listings.
type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id uint) (*models.Listing, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Listing, error)
	Update(ctx context.Context, listing *models.Listing) error
	ListVisible(ctx context.Context, filter ListingFilter) ([]models.Listing, error)
	ListPending(ctx context.Context, limit, offset int) ([]models.Listing, error)
	ListTrashed(ctx context.Context, limit, offset int) ([]models.Listing, error)
	ListByEmail(ctx context.Context, email string, limit, offset int) ([]models.Listing, error)
	CountPending(ctx context.Context) (int64, error)
	IncrementViews(ctx context.Context, id uint) error

	Approve(ctx context.Context, ids []uint) (int64, error)
	Suspend(ctx context.Context, ids []uint) (int64, error)
	Trash(ctx context.Context, ids []uint) (int64, error)
	Restore(ctx context.Context, ids []uint) (int64, error)
	Purge(ctx context.Context, ids []uint) (int64, error)
}

type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository returns a new ListingRepository implementation.
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	defer observability.ObserveQuery("insert", "listings", time.Now())
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateListingCollections(ctx)
	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, id uint) (*models.Listing, error) {
	var listing models.Listing
	key := cache.ListingKey(id)

	err := cache.Aside(ctx, key, &listing, cache.ListingTTL, func() error {
		defer observability.ObserveQuery("select", "listings", time.Now())
		if err := r.db.WithContext(ctx).First(&listing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Listing", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Listing, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	defer observability.ObserveQuery("select", "listings", time.Now())

	var listings []models.Listing
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&listings).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}

func (r *listingRepository) Update(ctx context.Context, listing *models.Listing) error {
	defer observability.ObserveQuery("update", "listings", time.Now())
	if err := r.db.WithContext(ctx).Save(listing).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateListing(ctx, listing.ID)
	cache.InvalidateListingCollections(ctx)
	return nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// visibleScope matches listings that may appear on public pages:
// approved, not suspended, not in the trash.
func visibleScope(db *gorm.DB) *gorm.DB {
	return db.Where("approved = ? AND suspended = ? AND deleted_at IS NULL", true, false)
}

func (r *listingRepository) ListVisible(ctx context.Context, filter ListingFilter) ([]models.Listing, error) {
	limit, offset := clampPage(filter.Limit, filter.Offset)

	var listings []models.Listing
	fetch := func() error {
		defer observability.ObserveQuery("select", "listings", time.Now())
		q := visibleScope(r.db.WithContext(ctx))
		if filter.Category != "" {
			q = q.Where("category = ?", filter.Category)
		}
		if filter.Query != "" {
			// LOWER + LIKE works on both Postgres and the sqlite test driver.
			pattern := "%" + strings.ToLower(filter.Query) + "%"
			q = q.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
		}
		order := "created_at DESC"
		if filter.Random {
			order = "RANDOM()"
		}
		if err := q.Order(order).Limit(limit).Offset(offset).Find(&listings).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	}

	// Only the unsearched, deterministically ordered pages are worth caching.
	if filter.Query == "" && !filter.Random && offset%limit == 0 {
		page := offset/limit + 1
		key := cache.PublicListKey(filter.Category, page, limit)
		if err := cache.Aside(ctx, key, &listings, cache.PublicListTTL, fetch); err != nil {
			return nil, err
		}
		return listings, nil
	}

	if err := fetch(); err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *listingRepository) ListPending(ctx context.Context, limit, offset int) ([]models.Listing, error) {
	limit, offset = clampPage(limit, offset)
	defer observability.ObserveQuery("select", "listings", time.Now())

	var listings []models.Listing
	err := r.db.WithContext(ctx).
		Where("approved = ? AND deleted_at IS NULL", false).
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&listings).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}

func (r *listingRepository) ListTrashed(ctx context.Context, limit, offset int) ([]models.Listing, error) {
	limit, offset = clampPage(limit, offset)
	defer observability.ObserveQuery("select", "listings", time.Now())

	var listings []models.Listing
	err := r.db.WithContext(ctx).
		Where("deleted_at IS NOT NULL").
		Order("deleted_at DESC").
		Limit(limit).Offset(offset).
		Find(&listings).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}

func (r *listingRepository) ListByEmail(ctx context.Context, email string, limit, offset int) ([]models.Listing, error) {
	limit, offset = clampPage(limit, offset)
	defer observability.ObserveQuery("select", "listings", time.Now())

	var listings []models.Listing
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&listings).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}

func (r *listingRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := cache.Aside(ctx, cache.PendingCountKey, &count, cache.PendingCountTTL, func() error {
		defer observability.ObserveQuery("count", "listings", time.Now())
		if err := r.db.WithContext(ctx).Model(&models.Listing{}).
			Where("approved = ? AND deleted_at IS NULL", false).
			Count(&count).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *listingRepository) IncrementViews(ctx context.Context, id uint) error {
	defer observability.ObserveQuery("update", "listings", time.Now())
	err := r.db.WithContext(ctx).Model(&models.Listing{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateListing(ctx, id)
	return nil
}

// batchUpdate applies one UPDATE over the id set. Ids that match no row
// are silently skipped; the returned count reflects rows actually touched.
func (r *listingRepository) batchUpdate(ctx context.Context, ids []uint, values map[string]interface{}) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	defer observability.ObserveQuery("update", "listings", time.Now())

	res := r.db.WithContext(ctx).Model(&models.Listing{}).
		Where("id IN ?", ids).
		Updates(values)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	for _, id := range ids {
		cache.InvalidateListing(ctx, id)
	}
	cache.InvalidateListingCollections(ctx)
	return res.RowsAffected, nil
}

func (r *listingRepository) Approve(ctx context.Context, ids []uint) (int64, error) {
	return r.batchUpdate(ctx, ids, map[string]interface{}{
		"approved":   true,
		"suspended":  false,
		"deleted_at": nil,
	})
}

func (r *listingRepository) Suspend(ctx context.Context, ids []uint) (int64, error) {
	return r.batchUpdate(ctx, ids, map[string]interface{}{
		"suspended": true,
	})
}

func (r *listingRepository) Trash(ctx context.Context, ids []uint) (int64, error) {
	now := time.Now()
	return r.batchUpdate(ctx, ids, map[string]interface{}{
		"deleted_at": &now,
		"approved":   false,
	})
}

func (r *listingRepository) Restore(ctx context.Context, ids []uint) (int64, error) {
	return r.batchUpdate(ctx, ids, map[string]interface{}{
		"deleted_at": nil,
	})
}

func (r *listingRepository) Purge(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	defer observability.ObserveQuery("delete", "listings", time.Now())

	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Listing{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	for _, id := range ids {
		cache.InvalidateListing(ctx, id)
	}
	cache.InvalidateListingCollections(ctx)
	return res.RowsAffected, nil
}
