package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/onsil/backend/internal/middleware"
	"github.com/onsil/backend/internal/models"
	"github.com/onsil/backend/internal/services"
)

// LocationHandler handles walking course requests
type LocationHandler struct {
	locationService *services.LocationService
}

// NewLocationHandler creates a new LocationHandler
func NewLocationHandler(locationService *services.LocationService) *LocationHandler {
	return &LocationHandler{locationService: locationService}
}

func (h *LocationHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/locations", h.GetLocations)
	g.GET("/locations/nearby", h.GetNearby)
	g.GET("/locations/:id", h.GetLocation)
}

// RegisterLocationRoutes registers location routes that need an identity
func (h *LocationHandler) RegisterLocationRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.POST("/locations", h.CreateLocation, auth)
	g.PUT("/locations/:id", h.UpdateLocation, auth)
	g.DELETE("/locations/:id", h.DeleteLocation, auth)
}

// GetLocations returns every course ordered by name
func (h *LocationHandler) GetLocations(c echo.Context) error {
	locations, err := h.locationService.List(c.Request().Context())
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, locations)
}

// GetLocation returns a single course
func (h *LocationHandler) GetLocation(c echo.Context) error {
	location, err := h.locationService.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, location)
}

// GetNearby returns courses around ?lat=&lng=, optionally within ?radius= meters
func (h *LocationHandler) GetNearby(c echo.Context) error {
	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil {
		return badRequest("Invalid lat")
	}
	lng, err := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if err != nil {
		return badRequest("Invalid lng")
	}
	radius, _ := strconv.ParseFloat(c.QueryParam("radius"), 64)

	locations, err := h.locationService.Nearby(c.Request().Context(), lat, lng, radius)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, locations)
}

// CreateLocation registers a new course
func (h *LocationHandler) CreateLocation(c echo.Context) error {
	var req models.LocationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	location, err := h.locationService.Create(c.Request().Context(), middleware.Identity(c), req)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, location)
}

// UpdateLocation replaces a course's details
func (h *LocationHandler) UpdateLocation(c echo.Context) error {
	var req models.LocationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	location, err := h.locationService.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, location)
}

// DeleteLocation removes a course
func (h *LocationHandler) DeleteLocation(c echo.Context) error {
	if err := h.locationService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
