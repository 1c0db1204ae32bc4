package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"feira/internal/config"
	"feira/internal/models"
	"feira/internal/repository"
	"feira/internal/service"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupServerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	return db
}

// newTestServer builds a Server on in-memory sqlite with no Redis, no
// mailer fan-out and no object storage.
func newTestServer(t *testing.T) (*Server, *gorm.DB) {
	t.Helper()
	db := setupServerTestDB(t)

	userRepo := repository.NewUserRepository(db)
	listingRepo := repository.NewListingRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	gate := service.NewGate(userRepo)

	s := &Server{
		config:          &config.Config{JWTSecret: "test-secret"},
		db:              db,
		userRepo:        userRepo,
		listingRepo:     listingRepo,
		notifRepo:       notifRepo,
		listingService:  service.NewListingService(listingRepo, gate, nil),
		userService:     service.NewUserService(userRepo, gate),
		notifService:    service.NewNotificationService(notifRepo, userRepo),
		consumedTickets: make(map[string]consumedTicketEntry),
	}
	return s, db
}

func TestParsePagination(t *testing.T) {
	t.Parallel()
	app := fiber.New()

	var got Pagination
	app.Get("/page", func(c *fiber.Ctx) error {
		got = parsePagination(c, 20)
		return c.SendStatus(http.StatusOK)
	})

	tests := []struct {
		name       string
		url        string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "/page", 20, 0},
		{"explicit", "/page?limit=5&offset=10", 5, 10},
		{"limit clamped to 100", "/page?limit=500", 100, 0},
		{"negative values fall back", "/page?limit=-1&offset=-3", 20, 0},
		{"garbage falls back", "/page?limit=abc&offset=xyz", 20, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			if _, err := app.Test(req); err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if got.Limit != tc.wantLimit || got.Offset != tc.wantOffset {
				t.Errorf("got limit=%d offset=%d, want limit=%d offset=%d",
					got.Limit, got.Offset, tc.wantLimit, tc.wantOffset)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)
	app := fiber.New()

	app.Get("/things/:id", func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	t.Run("valid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/things/42", nil)
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
	})

	t.Run("non-numeric id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/things/abc", nil)
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("zero id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/things/0", nil)
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestMapServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", models.NewNotFoundError("Listing", 1), http.StatusNotFound},
		{"validation", models.NewValidationError("bad"), http.StatusBadRequest},
		{"unauthorized", models.NewUnauthorizedError("no"), http.StatusUnauthorized},
		{"permission denied", models.NewPermissionDeniedError(), http.StatusForbidden},
		{"internal", models.NewInternalError(errors.New("boom")), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := mapServiceError(tc.err); got != tc.want {
				t.Errorf("mapServiceError(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}
