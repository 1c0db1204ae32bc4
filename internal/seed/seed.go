package seed

import (
	"fmt"
	"log"

	"feira/internal/config"
	"feira/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options controls how much data Seed generates.
type Options struct {
	Users    int
	Listings int
	// Clean wipes listings, notifications and users before seeding.
	Clean bool
	// SkipBcrypt stores the demo password in plaintext. Dev fast mode
	// only: hashing thousands of rows dominates seeding time otherwise.
	SkipBcrypt bool
	// MaxDays bounds how far in the past generated created_at spreads.
	MaxDays int
}

// DefaultOptions returns the seeding profile used by `go run ./cmd/seed`.
func DefaultOptions() Options {
	return Options{Users: 25, Listings: 120, Clean: true, MaxDays: 90}
}

// Seed populates the database with demo data: one well-known admin, a
// set of accounts and listings spread across every moderation state.
func Seed(db *gorm.DB, opts Options) error {
	log.Println("Starting database seeding...")

	if opts.Clean {
		if err := clearData(db); err != nil {
			return fmt.Errorf("failed to clear data: %w", err)
		}
	}

	categories, err := config.Categories()
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}

	f := NewFactory(db, opts)

	admin, err := ensureAdmin(db, opts)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	log.Printf("admin account ready: %s", admin.Email)

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("created %d users", len(users))

	owners := users
	if len(owners) == 0 {
		owners = []*models.User{admin}
	}
	listings := make([]*models.Listing, 0, opts.Listings)
	for i := 0; i < opts.Listings; i++ {
		owner := owners[i%len(owners)]
		listings = append(listings, f.BuildListing(categories, owner.Email))
	}
	if err := f.CreateListingsBatch(listings); err != nil {
		return fmt.Errorf("failed to create listings: %w", err)
	}
	log.Printf("created %d listings", len(listings))

	notifications := 0
	for _, user := range users {
		for i := 0; i < 1+f.rng.Intn(3); i++ {
			if _, err := f.CreateNotification(user); err != nil {
				return fmt.Errorf("failed to create notification: %w", err)
			}
			notifications++
		}
	}
	log.Printf("created %d notifications", notifications)

	log.Println("Database seeding completed successfully")
	return nil
}

// ensureAdmin creates (or keeps) the well-known development admin.
func ensureAdmin(db *gorm.DB, opts Options) (*models.User, error) {
	const adminEmail = "admin@feira.dev"

	var existing models.User
	if err := db.Where("email = ?", adminEmail).First(&existing).Error; err == nil {
		return &existing, nil
	}

	password := "password123"
	if !opts.SkipBcrypt {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			return nil, err
		}
		password = string(hashed)
	}

	admin := &models.User{
		Name:     "Administração Feira",
		Email:    adminEmail,
		Password: password,
		Role:     models.RoleAdmin,
	}
	if err := db.Create(admin).Error; err != nil {
		return nil, err
	}
	return admin, nil
}

func clearData(db *gorm.DB) error {
	log.Println("Clearing existing data...")

	// Delete in dependency order.
	if err := db.Exec("DELETE FROM notifications").Error; err != nil {
		return err
	}
	if err := db.Exec("DELETE FROM listings").Error; err != nil {
		return err
	}
	if err := db.Exec("DELETE FROM users").Error; err != nil {
		return err
	}
	return nil
}
