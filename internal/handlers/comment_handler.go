package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/onsil/backend/internal/middleware"
	"github.com/onsil/backend/internal/models"
	"github.com/onsil/backend/internal/services"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentService *services.CommentService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

func (h *CommentHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/boards/:id/comments", h.ListComments)
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.POST("/comments", h.CreateComment, auth)
	g.DELETE("/comments/:id", h.DeleteComment, auth)
}

// CreateComment creates a new comment on a board
func (h *CommentHandler) CreateComment(c echo.Context) error {
	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	comment, err := h.commentService.Create(c.Request().Context(), middleware.Identity(c), req.BoardID, req.Content)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusCreated, comment)
}

// ListComments returns a board's comments, oldest first
func (h *CommentHandler) ListComments(c echo.Context) error {
	boardID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	comments, err := h.commentService.ListByBoard(c.Request().Context(), boardID)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, comments)
}

// DeleteComment deletes a comment written by the caller
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	commentID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.commentService.Delete(c.Request().Context(), commentID, middleware.Identity(c)); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
