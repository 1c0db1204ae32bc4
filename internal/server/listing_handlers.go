package server

import (
	"strings"

	"feira/internal/config"
	"feira/internal/models"
	"feira/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetListings handles GET /api/listings
// @Summary Browse approved listings
// @Description List publicly visible listings, optionally filtered by category. sort=random shuffles the page.
// @Tags listings
// @Produce json
// @Param category query string false "Category filter"
// @Param sort query string false "Sort order (random)"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Listing
// @Failure 400 {object} models.ErrorResponse
// @Router /listings [get]
func (s *Server) GetListings(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	listings, err := s.listingService.Browse(c.UserContext(), service.BrowseInput{
		Category: strings.TrimSpace(c.Query("category")),
		Random:   c.Query("sort") == "random",
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(listings)
}

// SearchListings handles GET /api/listings/search?q=&category=
// @Summary Search approved listings
// @Tags listings
// @Produce json
// @Param q query string true "Search term"
// @Param category query string false "Category filter"
// @Success 200 {array} models.Listing
// @Failure 400 {object} models.ErrorResponse
// @Router /listings/search [get]
func (s *Server) SearchListings(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))
	if len(q) > 160 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Search term is too long"))
	}
	page := parsePagination(c, 20)

	listings, err := s.listingService.Browse(c.UserContext(), service.BrowseInput{
		Category: strings.TrimSpace(c.Query("category")),
		Query:    q,
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(listings)
}

// GetCategories handles GET /api/listings/categories
// @Summary List the known listing categories
// @Tags listings
// @Produce json
// @Success 200 {array} string
// @Router /listings/categories [get]
func (s *Server) GetCategories(c *fiber.Ctx) error {
	categories, err := config.Categories()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	return c.JSON(categories)
}

// GetListing handles GET /api/listings/:id
// @Summary Get one listing
// @Description Hidden listings are only served to admins and the owner; public views are counted.
// @Tags listings
// @Produce json
// @Param id path int true "Listing ID"
// @Success 200 {object} models.Listing
// @Failure 404 {object} models.ErrorResponse
// @Router /listings/{id} [get]
func (s *Server) GetListing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	// Browsing is anonymous; a bearer token only widens what is visible.
	callerID, _ := s.optionalUserID(c)

	listing, svcErr := s.listingService.Get(c.UserContext(), callerID, id)
	if svcErr != nil {
		return models.RespondWithError(c, mapServiceError(svcErr), svcErr)
	}
	return c.JSON(listing)
}

// CreateSubmission handles POST /api/submissions
// @Summary Submit a new listing
// @Description Submissions always enter the review queue pending approval.
// @Tags listings
// @Accept json
// @Produce json
// @Param request body service.SubmitListingInput true "Submission"
// @Success 201 {object} models.Listing
// @Failure 400 {object} models.ErrorResponse
// @Router /submissions [post]
func (s *Server) CreateSubmission(c *fiber.Ctx) error {
	var in service.SubmitListingInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	listing, err := s.listingService.Submit(c.UserContext(), in)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(listing)
}

// GetMyListings handles GET /api/listings/mine
// @Summary List the caller's own listings in every moderation state
// @Tags listings
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Listing
// @Failure 401 {object} models.ErrorResponse
// @Router /listings/mine [get]
func (s *Server) GetMyListings(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	page := parsePagination(c, 20)

	listings, err := s.listingService.Mine(c.UserContext(), userID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	return c.JSON(listings)
}

// UpdateListing handles PUT /api/listings/:id
// @Summary Edit a listing's content fields
// @Description Admins may edit any listing, owners only their own. Moderation state is preserved.
// @Tags listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Param request body service.UpdateListingInput true "Fields"
// @Success 200 {object} models.Listing
// @Failure 403 {object} models.ErrorResponse
// @Router /listings/{id} [put]
func (s *Server) UpdateListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var in service.UpdateListingInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	listing, svcErr := s.listingService.Update(c.UserContext(), userID, id, in)
	if svcErr != nil {
		return models.RespondWithError(c, mapServiceError(svcErr), svcErr)
	}
	return c.JSON(listing)
}

// DeleteListing handles DELETE /api/listings/:id (soft delete)
// @Summary Send a listing to the trash
// @Description Soft delete. Admins may trash any listing, owners only their own.
// @Tags listings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Listing ID"
// @Success 200 {object} object{success=bool}
// @Failure 403 {object} models.ErrorResponse
// @Router /listings/{id} [delete]
func (s *Server) DeleteListing(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, svcErr := s.listingService.Trash(c.UserContext(), userID, []uint{id}); svcErr != nil {
		return models.RespondWithError(c, mapServiceError(svcErr), svcErr)
	}
	return c.JSON(fiber.Map{"success": true})
}
