package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"feira/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Correta!Forte123"

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func TestSignup(t *testing.T) {
	t.Parallel()
	s, db := newTestServer(t)

	app := fiber.New()
	app.Post("/auth/signup", s.Signup)

	t.Run("success", func(t *testing.T) {
		body := jsonBody(t, fiber.Map{
			"name":     "Ana Souza",
			"email":    "Ana@Feira.dev",
			"password": testPassword,
		})
		req := httptest.NewRequest(http.MethodPost, "/auth/signup", body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}

		var result authResponse
		json.NewDecoder(resp.Body).Decode(&result)
		if result.Token == "" {
			t.Errorf("expected a token in the response")
		}
		if result.User.Email != "ana@feira.dev" {
			t.Errorf("expected lowercased email, got %q", result.User.Email)
		}
		if result.User.Role != models.RoleUser {
			t.Errorf("new accounts must start as USER, got %q", result.User.Role)
		}

		var stored models.User
		if err := db.Where("email = ?", "ana@feira.dev").First(&stored).Error; err != nil {
			t.Fatalf("user not stored: %v", err)
		}
		if stored.Password == testPassword {
			t.Errorf("password stored in plaintext")
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		body := jsonBody(t, fiber.Map{
			"name":     "Ana de Novo",
			"email":    "ana@feira.dev",
			"password": testPassword,
		})
		req := httptest.NewRequest(http.MethodPost, "/auth/signup", body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("expected 409, got %d", resp.StatusCode)
		}
	})

	t.Run("weak password", func(t *testing.T) {
		body := jsonBody(t, fiber.Map{
			"name":     "Bia",
			"email":    "bia@feira.dev",
			"password": "curta",
		})
		req := httptest.NewRequest(http.MethodPost, "/auth/signup", body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		body := jsonBody(t, fiber.Map{"email": "x@feira.dev"})
		req := httptest.NewRequest(http.MethodPost, "/auth/signup", body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()
	s, db := newTestServer(t)

	hashed, _ := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	user := models.User{Name: "Davi", Email: "davi@feira.dev", Password: string(hashed)}
	db.Create(&user)

	app := fiber.New()
	app.Post("/auth/login", s.Login)

	t.Run("success", func(t *testing.T) {
		body := jsonBody(t, fiber.Map{"email": "davi@feira.dev", "password": testPassword})
		req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var result authResponse
		json.NewDecoder(resp.Body).Decode(&result)
		if result.Token == "" || result.User.ID != user.ID {
			t.Errorf("expected token and user, got %+v", result)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		body := jsonBody(t, fiber.Map{"email": "davi@feira.dev", "password": "Errada!Forte123"})
		req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		body := jsonBody(t, fiber.Map{"email": "ninguem@feira.dev", "password": testPassword})
		req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})
}

func TestRefreshRotatesToken(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	s, db := newTestServer(t)
	s.redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	user := models.User{Name: "Gal", Email: "gal@feira.dev", Password: "pw"}
	db.Create(&user)

	oldToken, err := s.generateToken(user.ID)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	app := fiber.New()
	app.Post("/auth/refresh", s.Refresh)
	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	// Refresh returns a fresh token.
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+oldToken)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Token == "" || result.Token == oldToken {
		t.Fatalf("expected a new token, got %q", result.Token)
	}

	// New token is accepted.
	req2 := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req2.Header.Set("Authorization", "Bearer "+result.Token)
	resp2, _ := app.Test(req2)
	if resp2.StatusCode != http.StatusOK {
		t.Errorf("new token rejected: %d", resp2.StatusCode)
	}

	// Old token was revoked.
	req3 := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req3.Header.Set("Authorization", "Bearer "+oldToken)
	resp3, _ := app.Test(req3)
	if resp3.StatusCode != http.StatusUnauthorized {
		t.Errorf("old token should be revoked after refresh, got %d", resp3.StatusCode)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	s, db := newTestServer(t)
	s.redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	user := models.User{Name: "Ivo", Email: "ivo@feira.dev", Password: "pw"}
	db.Create(&user)

	token, err := s.generateToken(user.ID)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	app := fiber.New()
	app.Post("/auth/logout", s.Logout)
	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req2.Header.Set("Authorization", "Bearer "+token)
	resp2, _ := app.Test(req2)
	if resp2.StatusCode != http.StatusUnauthorized {
		t.Errorf("token should be revoked after logout, got %d", resp2.StatusCode)
	}
}

func TestAuthRequired_RejectsBadTokens(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	app := fiber.New()
	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"malformed header", "Token abc"},
		{"garbage token", "Bearer not.a.jwt"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, _ := app.Test(req)
			if resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", resp.StatusCode)
			}
		})
	}
}
