// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"feira/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		opts: opts,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateUser constructs and persists a sample account. Optional override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Name:  gofakeit.Name(),
		Email: strings.ToLower(gofakeit.Email()),
		Role:  models.RoleUser,
	}

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildListing constructs a listing struct without persisting it.
// Useful for batching. The moderation state is drawn so the review
// queue, trash and public directory all have material to show.
func (f *Factory) BuildListing(categories []string, ownerEmail string, overrides ...func(*models.Listing)) *models.Listing {
	company := gofakeit.Company()
	listing := &models.Listing{
		Name:        company,
		Category:    categories[f.rng.Intn(len(categories))],
		Description: gofakeit.Paragraph(1, 3, 8, "\n"),
		ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%s/800/600", gofakeit.UUID()),
		Whatsapp:    gofakeit.Phone(),
		Instagram:   "@" + strings.ToLower(strings.ReplaceAll(company, " ", "")),
		Email:       ownerEmail,
		Site:        gofakeit.URL(),
		Views:       int64(f.rng.Intn(500)),
	}

	// realistic created_at spread
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	daysBack := f.rng.Intn(maxDays)
	hoursBack := f.rng.Intn(24)
	listing.CreatedAt = time.Now().
		Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)

	// ~70% published, ~20% pending review, ~5% suspended, ~5% trashed
	switch roll := f.rng.Intn(100); {
	case roll < 70:
		listing.Approved = true
	case roll < 90:
		// pending: zero values already
	case roll < 95:
		listing.Approved = true
		listing.Suspended = true
	default:
		trashedAt := time.Now().Add(-time.Duration(f.rng.Intn(30)) * 24 * time.Hour)
		listing.DeletedAt = &trashedAt
	}

	for _, override := range overrides {
		override(listing)
	}
	return listing
}

// CreateListing constructs and persists a sample listing.
func (f *Factory) CreateListing(categories []string, ownerEmail string, overrides ...func(*models.Listing)) (*models.Listing, error) {
	listing := f.BuildListing(categories, ownerEmail, overrides...)
	if err := f.db.Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

// CreateListingsBatch persists multiple listings in a single DB call.
func (f *Factory) CreateListingsBatch(listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	return f.db.Create(&listings).Error
}

// CreateNotification constructs and persists a notification for user.
func (f *Factory) CreateNotification(user *models.User, overrides ...func(*models.Notification)) (*models.Notification, error) {
	messages := []string{
		"Recebemos seu cadastro. Ele está na fila de revisão.",
		"Seu cadastro foi aprovado e já aparece no diretório.",
		"Novo cadastro aguardando revisão.",
	}

	notification := &models.Notification{
		UserID:  user.ID,
		Message: messages[f.rng.Intn(len(messages))],
		Read:    f.rng.Intn(2) == 0,
	}

	for _, override := range overrides {
		override(notification)
	}

	if err := f.db.Create(notification).Error; err != nil {
		return nil, err
	}
	return notification, nil
}
