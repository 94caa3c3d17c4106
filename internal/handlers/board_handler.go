package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/onsil/backend/internal/middleware"
	"github.com/onsil/backend/internal/models"
	"github.com/onsil/backend/internal/services"
)

// BoardHandler handles HTTP requests related to boards
type BoardHandler struct {
	boardService *services.BoardService
	uploader     *ImageUploader
}

// NewBoardHandler creates a new BoardHandler
func NewBoardHandler(boardService *services.BoardService, uploader *ImageUploader) *BoardHandler {
	return &BoardHandler{boardService: boardService, uploader: uploader}
}

// RegisterPublicRoutes registers the read-only board routes
func (h *BoardHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/boards", h.ListBoards)
	g.GET("/boards/recommended", h.ListRecommended)
	g.GET("/boards/:id", h.GetBoard)
}

// RegisterBoardRoutes registers the board routes that need an identity
func (h *BoardHandler) RegisterBoardRoutes(g *echo.Group, auth echo.MiddlewareFunc) {
	g.POST("/boards", h.CreateBoard, auth)
	g.PUT("/boards/:id", h.UpdateBoard, auth)
	g.DELETE("/boards/:id", h.DeleteBoard, auth)
}

// CreateBoard accepts either JSON or multipart with a "json" part and an optional "image" part
func (h *BoardHandler) CreateBoard(c echo.Context) error {
	var req models.CreateBoardRequest
	if err := bindBoardRequest(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	image, err := h.upload(c)
	if err != nil {
		return err
	}

	board, err := h.boardService.Create(c.Request().Context(), middleware.Identity(c), services.BoardInput{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Image:    image,
	})
	if err != nil {
		h.discard(c, image)
		return httpError(c, err)
	}

	return c.JSON(http.StatusCreated, board)
}

// GetBoard retrieves a board by ID
func (h *BoardHandler) GetBoard(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	board, err := h.boardService.GetByID(c.Request().Context(), id)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, board)
}

// ListBoards serves the paged listing, the category listing and the title search
func (h *BoardHandler) ListBoards(c echo.Context) error {
	ctx := c.Request().Context()

	if _, ok := c.QueryParams()["title"]; ok {
		boards, err := h.boardService.Search(ctx, c.QueryParam("title"))
		if err != nil {
			return httpError(c, err)
		}
		return c.JSON(http.StatusOK, boards)
	}

	var (
		page models.Page[models.Board]
		err  error
	)
	if category := strings.TrimSpace(c.QueryParam("category")); category != "" {
		page, err = h.boardService.ListByCategory(ctx, models.Category(strings.ToUpper(category)), pageParams(c))
	} else {
		page, err = h.boardService.ListPaged(ctx, pageParams(c))
	}
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// ListRecommended lists boards with at least one recommendation, most recommended first
func (h *BoardHandler) ListRecommended(c echo.Context) error {
	page, err := h.boardService.ListRecommended(c.Request().Context(), pageParams(c))
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// UpdateBoard replaces title, content and category, and the image when one is sent
func (h *BoardHandler) UpdateBoard(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateBoardRequest
	if err := bindBoardRequest(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	image, err := h.upload(c)
	if err != nil {
		return err
	}

	board, err := h.boardService.Update(c.Request().Context(), id, services.BoardInput{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Image:    image,
	})
	if err != nil {
		h.discard(c, image)
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, board)
}

// DeleteBoard deletes a board with its recommendations and comments
func (h *BoardHandler) DeleteBoard(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.boardService.Delete(c.Request().Context(), id); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *BoardHandler) upload(c echo.Context) (string, error) {
	if h.uploader == nil || !isMultipart(c) {
		return "", nil
	}
	return h.uploader.FromRequest(c)
}

func (h *BoardHandler) discard(c echo.Context, image string) {
	if h.uploader != nil {
		h.uploader.Discard(c.Request().Context(), image)
	}
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// bindBoardRequest reads the metadata either from the "json" form part or from the body
func bindBoardRequest(c echo.Context, dst interface{}) error {
	if isMultipart(c) {
		raw := c.FormValue("json")
		if raw == "" {
			return badRequest("Missing json part")
		}
		if err := json.Unmarshal([]byte(raw), dst); err != nil {
			return badRequest("Invalid json part")
		}
		return nil
	}

	if err := c.Bind(dst); err != nil {
		return badRequest("Invalid request payload")
	}
	return nil
}
