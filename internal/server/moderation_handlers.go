package server

import (
	"feira/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetPendingListings handles GET /api/admin/pending
// @Summary List listings waiting for review
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Listing
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/pending [get]
func (s *Server) GetPendingListings(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	page := parsePagination(c, 20)

	listings, err := s.listingService.Pending(c.UserContext(), userID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(listings)
}

// GetTrashedListings handles GET /api/admin/trash
// @Summary List soft-deleted listings
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Listing
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/trash [get]
func (s *Server) GetTrashedListings(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	page := parsePagination(c, 20)

	listings, err := s.listingService.Trashed(c.UserContext(), userID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(listings)
}

// GetPendingCount handles GET /api/admin/count
// @Summary Count listings waiting for review
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{count=int}
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/count [get]
func (s *Server) GetPendingCount(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	count, err := s.listingService.PendingCount(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(fiber.Map{"count": count})
}

type moderationTarget struct {
	ID uint `json:"id"`
}

// ApproveListing handles POST /api/admin/approve
// @Summary Approve a single listing
// @Description Approval publishes the listing, clears any suspension and pulls it out of the trash.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body moderationTarget true "Target"
// @Success 200 {object} object{success=bool}
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/approve [post]
func (s *Server) ApproveListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var target moderationTarget
	if err := c.BodyParser(&target); err != nil || target.ID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("A listing id is required"))
	}

	if _, err := s.listingService.Approve(c.UserContext(), userID, []uint{target.ID}); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// ApproveListingsBatch handles POST /api/admin/approve/batch
// @Summary Approve many listings at once
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body idsPayload true "Targets"
// @Success 200 {object} object{success=bool,affected=int}
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/approve/batch [post]
func (s *Server) ApproveListingsBatch(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	ids, err := parseIDs(c)
	if err != nil {
		return nil
	}

	affected, svcErr := s.listingService.Approve(c.UserContext(), userID, ids)
	if svcErr != nil {
		return models.RespondWithError(c, mapServiceError(svcErr), svcErr)
	}
	return c.JSON(fiber.Map{"success": true, "affected": affected})
}

type adminActionRequest struct {
	ID   uint   `json:"id"`
	Type string `json:"type"`
}

// AdminAction handles POST /api/admin/action
// @Summary Apply a moderation action to one listing
// @Description type "suspend" hides the listing until re-approved, "remove" sends it to the trash.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body adminActionRequest true "Action"
// @Success 200 {object} object{success=bool}
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/action [post]
func (s *Server) AdminAction(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req adminActionRequest
	if err := c.BodyParser(&req); err != nil || req.ID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("A listing id is required"))
	}

	var svcErr error
	switch req.Type {
	case "suspend":
		_, svcErr = s.listingService.Suspend(c.UserContext(), userID, []uint{req.ID})
	case "remove":
		_, svcErr = s.listingService.Trash(c.UserContext(), userID, []uint{req.ID})
	default:
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unknown action type"))
	}
	if svcErr != nil {
		return models.RespondWithError(c, mapServiceError(svcErr), svcErr)
	}
	return c.JSON(fiber.Map{"success": true})
}

// TrashListingsBatch handles POST /api/admin/trash/batch
// @Summary Soft-delete many listings at once
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body idsPayload true "Targets"
// @Success 200 {object} object{success=bool,affected=int}
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/trash/batch [post]
func (s *Server) TrashListingsBatch(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	ids, err := parseIDs(c)
	if err != nil {
		return nil
	}

	affected, svcErr := s.listingService.Trash(c.UserContext(), userID, ids)
	if svcErr != nil {
		return models.RespondWithError(c, mapServiceError(svcErr), svcErr)
	}
	return c.JSON(fiber.Map{"success": true, "affected": affected})
}

// RestoreListingsBatch handles POST /api/admin/restore/batch
// @Summary Pull many listings back out of the trash
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body idsPayload true "Targets"
// @Success 200 {object} object{success=bool,affected=int}
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/restore/batch [post]
func (s *Server) RestoreListingsBatch(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	ids, err := parseIDs(c)
	if err != nil {
		return nil
	}

	affected, svcErr := s.listingService.Restore(c.UserContext(), userID, ids)
	if svcErr != nil {
		return models.RespondWithError(c, mapServiceError(svcErr), svcErr)
	}
	return c.JSON(fiber.Map{"success": true, "affected": affected})
}

// PurgeListingsBatch handles POST /api/admin/purge/batch
// @Summary Permanently delete many listings
// @Description Hard delete. Purged rows are gone for good.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body idsPayload true "Targets"
// @Success 200 {object} object{success=bool,affected=int}
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/purge/batch [post]
func (s *Server) PurgeListingsBatch(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	ids, err := parseIDs(c)
	if err != nil {
		return nil
	}

	affected, svcErr := s.listingService.Purge(c.UserContext(), userID, ids)
	if svcErr != nil {
		return models.RespondWithError(c, mapServiceError(svcErr), svcErr)
	}
	return c.JSON(fiber.Map{"success": true, "affected": affected})
}

// RestoreListing handles POST /api/admin/listings/:id/restore
// @Summary Pull one listing back out of the trash
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Success 200 {object} object{success=bool}
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/listings/{id}/restore [post]
func (s *Server) RestoreListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, svcErr := s.listingService.Restore(c.UserContext(), userID, []uint{id}); svcErr != nil {
		return models.RespondWithError(c, mapServiceError(svcErr), svcErr)
	}
	return c.JSON(fiber.Map{"success": true})
}

// PurgeListing handles DELETE /api/admin/listings/:id
// @Summary Permanently delete one listing
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Success 200 {object} object{success=bool}
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/listings/{id} [delete]
func (s *Server) PurgeListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, svcErr := s.listingService.Purge(c.UserContext(), userID, []uint{id}); svcErr != nil {
		return models.RespondWithError(c, mapServiceError(svcErr), svcErr)
	}
	return c.JSON(fiber.Map{"success": true})
}
