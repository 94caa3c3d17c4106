package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/onsil/backend/internal/middleware"
	"github.com/onsil/backend/internal/services"
)

// RecommendHandler handles board recommendations
type RecommendHandler struct {
	boardService *services.BoardService
}

func NewRecommendHandler(boardService *services.BoardService) *RecommendHandler {
	return &RecommendHandler{boardService: boardService}
}

// RecommendResponse reports the state after a recommendation change
type RecommendResponse struct {
	BoardID        uint `json:"board_id"`
	RecommendCount int  `json:"recommend_count"`
	Recommended    bool `json:"recommended"`
}

func (h *RecommendHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/boards/:id/recommend-status", h.RecommendStatus)
	g.GET("/boards/:id/recommend/:userId", h.HasRecommended)
}

func (h *RecommendHandler) RegisterRecommendRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.POST("/boards/:id/recommend", h.Recommend, auth)
	g.DELETE("/boards/:id/recommend", h.Unrecommend, auth)
	g.POST("/boards/:id/recommend-status/reconcile", h.Reconcile, auth)
}

func (h *RecommendHandler) Recommend(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	count, err := h.boardService.Recommend(c.Request().Context(), id, middleware.Identity(c))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, RecommendResponse{BoardID: id, RecommendCount: count, Recommended: true})
}

func (h *RecommendHandler) Unrecommend(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	count, err := h.boardService.Unrecommend(c.Request().Context(), id, middleware.Identity(c))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, RecommendResponse{BoardID: id, RecommendCount: count, Recommended: false})
}

// HasRecommended answers whether the given user currently recommends the board
func (h *RecommendHandler) HasRecommended(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	userID := c.Param("userId")

	ok, err := h.boardService.HasUserRecommended(c.Request().Context(), id, userID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"board_id": id, "user_id": userID, "recommended": ok})
}

func (h *RecommendHandler) RecommendStatus(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	status, err := h.boardService.RecommendStatus(c.Request().Context(), id)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

// Reconcile rewrites the counter from the ledger. Writer only.
func (h *RecommendHandler) Reconcile(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	status, err := h.boardService.ReconcileRecommendCount(c.Request().Context(), id, middleware.Identity(c))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}
