package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/onsil/backend/internal/apperrors"
	"github.com/onsil/backend/internal/middleware"
	"github.com/onsil/backend/internal/models"
	"github.com/onsil/backend/internal/repositories"
)

// MemberHandler serves the caller's own profile
type MemberHandler struct {
	memberRepository repositories.MemberRepository
}

// NewMemberHandler creates a new MemberHandler
func NewMemberHandler(memberRepo repositories.MemberRepository) *MemberHandler {
	return &MemberHandler{memberRepository: memberRepo}
}

// RegisterProfileRoutes registers member profile routes
func (h *MemberHandler) RegisterProfileRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.GET("/members/me", h.GetProfile, auth)
	g.PUT("/members/me", h.UpdateProfile, auth)
}

// GetProfile retrieves the authenticated member's profile
func (h *MemberHandler) GetProfile(c echo.Context) error {
	member, err := h.currentMember(c)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, member)
}

// UpdateProfile updates the authenticated member's nickname
func (h *MemberHandler) UpdateProfile(c echo.Context) error {
	var req models.UpdateMemberRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	member, err := h.currentMember(c)
	if err != nil {
		return httpError(c, err)
	}

	member.Nickname = req.Nickname
	if err := h.memberRepository.Update(c.Request().Context(), member); err != nil {
		return httpError(c, apperrors.Persistence("update member", err))
	}
	return c.JSON(http.StatusOK, member)
}

func (h *MemberHandler) currentMember(c echo.Context) (*models.Member, error) {
	identity := middleware.Identity(c)
	if identity == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	return h.memberRepository.GetByEmail(c.Request().Context(), identity)
}
