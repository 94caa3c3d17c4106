package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/onsil/backend/internal/models"
)

func idParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, badRequest("Invalid " + name)
	}
	return uint(id), nil
}

// pageParams reads ?page= and ?size=; the service fills in defaults
func pageParams(c echo.Context) models.PageRequest {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	return models.PageRequest{Page: page, Size: size}
}
