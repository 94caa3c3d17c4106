package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/onsil/backend/internal/apperrors"
	"github.com/onsil/backend/pkg/logger"
)

var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{apperrors.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{apperrors.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
	{apperrors.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{apperrors.ErrUnknownWriter, http.StatusUnprocessableEntity, "UNKNOWN_WRITER"},
	{apperrors.ErrAlreadyRecommended, http.StatusConflict, "ALREADY_RECOMMENDED"},
	{apperrors.ErrNotRecommended, http.StatusConflict, "NOT_RECOMMENDED"},
	{apperrors.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
}

func errorBody(code, message string) echo.Map {
	return echo.Map{"error": code, "message": message}
}

// httpError turns a service error into the JSON error response
func httpError(c echo.Context, err error) error {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return echo.NewHTTPError(e.status, errorBody(e.code, err.Error()))
		}
	}

	logger.ErrorWithFields("request failed on store", logger.Fields{
		"path":       c.Path(),
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		"error":      err.Error(),
	})
	return echo.NewHTTPError(http.StatusInternalServerError, errorBody("PERSISTENCE_ERROR", "internal storage error"))
}

func badRequest(message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errorBody("INVALID_INPUT", message))
}
