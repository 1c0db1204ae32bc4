package server

import (
	"encoding/json"
	"strings"

	"feira/internal/models"
	"feira/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications
// @Summary List the caller's notifications, newest first
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread notifications"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Notification
// @Failure 401 {object} models.ErrorResponse
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	page := parsePagination(c, 10)

	notifications, err := s.notifService.List(c.UserContext(), userID,
		c.QueryBool("unread"), page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	unread, err := s.notifService.UnreadCount(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"unread_count":  unread,
	})
}

// MarkNotificationsRead handles PATCH /api/notifications
// @Summary Mark notifications as read
// @Description Pass ids to mark specific notifications, or all=true to clear the whole feed.
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.MarkReadInput true "Selector"
// @Success 200 {object} object{success=bool,affected=int}
// @Failure 400 {object} models.ErrorResponse
// @Router /notifications [patch]
func (s *Server) MarkNotificationsRead(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var in service.MarkReadInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	affected, err := s.notifService.MarkRead(c.UserContext(), userID, in)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(fiber.Map{"success": true, "affected": affected})
}

// MarkNotificationRead handles PATCH /api/notifications/:id
// @Summary Mark one notification as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} object{success=bool}
// @Failure 401 {object} models.ErrorResponse
// @Router /notifications/{id} [patch]
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, svcErr := s.notifService.MarkRead(c.UserContext(), userID,
		service.MarkReadInput{IDs: []uint{id}}); svcErr != nil {
		return models.RespondWithError(c, mapServiceError(svcErr), svcErr)
	}
	return c.JSON(fiber.Map{"success": true})
}

// DeleteNotification handles DELETE /api/notifications/:id
// @Summary Delete one of the caller's notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} object{success=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /notifications/{id} [delete]
func (s *Server) DeleteNotification(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if svcErr := s.notifService.Delete(c.UserContext(), userID, id); svcErr != nil {
		return models.RespondWithError(c, mapServiceError(svcErr), svcErr)
	}
	return c.JSON(fiber.Map{"success": true})
}

type announceRequest struct {
	Message string `json:"message"`
}

// Announce handles POST /api/admin/announce
// @Summary Broadcast an announcement to every connected user
// @Description Publishes a realtime announcement over the broadcast channel. Requires admin.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body announceRequest true "Announcement"
// @Success 200 {object} object{success=bool}
// @Failure 400 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /admin/announce [post]
func (s *Server) Announce(c *fiber.Ctx) error {
	if s.notifier == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			&models.AppError{Code: "SERVICE_UNAVAILABLE", Message: "Realtime delivery is disabled"})
	}

	var req announceRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("A message is required"))
	}

	payload, err := json.Marshal(fiber.Map{"type": "announcement", "message": message})
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	if err := s.notifier.PublishBroadcast(c.UserContext(), string(payload)); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{"success": true})
}
