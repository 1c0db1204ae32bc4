package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"feira/internal/models"
	"feira/internal/notifications"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func TestGetNotifications(t *testing.T) {
	t.Parallel()
	s, db := newTestServer(t)

	user := models.User{Name: "Ana", Email: "ana@feira.dev", Password: "pw"}
	db.Create(&user)
	other := models.User{Name: "Bia", Email: "bia@feira.dev", Password: "pw"}
	db.Create(&other)

	db.Create(&models.Notification{UserID: user.ID, Message: "Cadastro recebido."})
	db.Create(&models.Notification{UserID: user.ID, Message: "Cadastro aprovado.", Read: true})
	db.Create(&models.Notification{UserID: other.ID, Message: "De outra pessoa."})

	app := fiber.New()
	app.Get("/notifications", func(c *fiber.Ctx) error {
		c.Locals("userID", user.ID)
		return s.GetNotifications(c)
	})

	type feed struct {
		Notifications []models.Notification `json:"notifications"`
		UnreadCount   int64                 `json:"unread_count"`
	}

	t.Run("full feed with unread count", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var result feed
		json.NewDecoder(resp.Body).Decode(&result)
		if len(result.Notifications) != 2 {
			t.Errorf("expected 2 notifications, got %d", len(result.Notifications))
		}
		if result.UnreadCount != 1 {
			t.Errorf("expected 1 unread, got %d", result.UnreadCount)
		}
	})

	t.Run("unread filter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/notifications?unread=true", nil)
		resp, _ := app.Test(req)
		var result feed
		json.NewDecoder(resp.Body).Decode(&result)
		if len(result.Notifications) != 1 || result.Notifications[0].Read {
			t.Errorf("expected only the unread notification, got %+v", result.Notifications)
		}
	})
}

func TestMarkNotificationsRead(t *testing.T) {
	t.Parallel()
	s, db := newTestServer(t)

	user := models.User{Name: "Davi", Email: "davi@feira.dev", Password: "pw"}
	db.Create(&user)
	other := models.User{Name: "Gal", Email: "gal@feira.dev", Password: "pw"}
	db.Create(&other)

	n1 := models.Notification{UserID: user.ID, Message: "um"}
	n2 := models.Notification{UserID: user.ID, Message: "dois"}
	foreign := models.Notification{UserID: other.ID, Message: "alheia"}
	db.Create(&n1)
	db.Create(&n2)
	db.Create(&foreign)

	app := fiber.New()
	app.Patch("/notifications", func(c *fiber.Ctx) error {
		c.Locals("userID", user.ID)
		return s.MarkNotificationsRead(c)
	})
	app.Patch("/notifications/:id", func(c *fiber.Ctx) error {
		c.Locals("userID", user.ID)
		return s.MarkNotificationRead(c)
	})

	t.Run("by ids skips other users' rows", func(t *testing.T) {
		body := jsonBody(t, fiber.Map{"ids": []uint{n1.ID, foreign.ID}})
		req := httptest.NewRequest(http.MethodPatch, "/notifications", body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var got models.Notification
		db.First(&got, n1.ID)
		if !got.Read {
			t.Errorf("own notification should be read")
		}
		db.First(&got, foreign.ID)
		if got.Read {
			t.Errorf("foreign notification must not be touched")
		}
	})

	t.Run("single id route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/notifications/"+itoa(n2.ID), nil)
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var got models.Notification
		db.First(&got, n2.ID)
		if !got.Read {
			t.Errorf("notification should be read")
		}
	})

	t.Run("mark all", func(t *testing.T) {
		db.Create(&models.Notification{UserID: user.ID, Message: "tres"})

		body := jsonBody(t, fiber.Map{"all": true})
		req := httptest.NewRequest(http.MethodPatch, "/notifications", body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var unread int64
		db.Model(&models.Notification{}).Where("user_id = ? AND read = ?", user.ID, false).Count(&unread)
		if unread != 0 {
			t.Errorf("expected no unread left, got %d", unread)
		}
	})
}

func TestDeleteNotification(t *testing.T) {
	t.Parallel()
	s, db := newTestServer(t)

	user := models.User{Name: "Ivo", Email: "ivo@feira.dev", Password: "pw"}
	db.Create(&user)
	other := models.User{Name: "Lu", Email: "lu@feira.dev", Password: "pw"}
	db.Create(&other)

	own := models.Notification{UserID: user.ID, Message: "minha"}
	foreign := models.Notification{UserID: other.ID, Message: "alheia"}
	db.Create(&own)
	db.Create(&foreign)

	app := fiber.New()
	app.Delete("/notifications/:id", func(c *fiber.Ctx) error {
		c.Locals("userID", user.ID)
		return s.DeleteNotification(c)
	})

	t.Run("deletes own notification", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/notifications/"+itoa(own.ID), nil)
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		var count int64
		db.Model(&models.Notification{}).Where("id = ?", own.ID).Count(&count)
		if count != 0 {
			t.Errorf("notification still present")
		}
	})

	t.Run("cannot delete another user's notification", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/notifications/"+itoa(foreign.ID), nil)
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}

		var count int64
		db.Model(&models.Notification{}).Where("id = ?", foreign.ID).Count(&count)
		if count != 1 {
			t.Errorf("foreign notification must survive")
		}
	})
}

func TestAnnounce(t *testing.T) {
	s, _ := newTestServer(t)

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.notifier = notifications.NewNotifier(rdb)

	ctx := context.Background()
	sub := rdb.Subscribe(ctx, "notifications:broadcast")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	app := fiber.New()
	app.Post("/admin/announce", s.Announce)

	t.Run("publishes to the broadcast channel", func(t *testing.T) {
		body := jsonBody(t, fiber.Map{"message": "A feira abre mais cedo no sábado"})
		req := httptest.NewRequest(http.MethodPost, "/admin/announce", body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		select {
		case msg := <-sub.Channel():
			var payload map[string]string
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				t.Fatalf("broadcast payload not JSON: %v", err)
			}
			if payload["type"] != "announcement" || payload["message"] != "A feira abre mais cedo no sábado" {
				t.Errorf("unexpected broadcast payload: %s", msg.Payload)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("broadcast never arrived")
		}
	})

	t.Run("empty message rejected", func(t *testing.T) {
		body := jsonBody(t, fiber.Map{"message": "   "})
		req := httptest.NewRequest(http.MethodPost, "/admin/announce", body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("disabled without redis", func(t *testing.T) {
		bare := &Server{}
		offApp := fiber.New()
		offApp.Post("/admin/announce", bare.Announce)

		body := jsonBody(t, fiber.Map{"message": "olá"})
		req := httptest.NewRequest(http.MethodPost, "/admin/announce", body)
		req.Header.Set("Content-Type", "application/json")
		resp, _ := offApp.Test(req)
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", resp.StatusCode)
		}
	})
}
