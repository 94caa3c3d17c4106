package validators

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/onsil/backend/internal/models"
)

// CustomValidator plugs go-playground/validator into echo
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns a validator with the application's custom tags registered
func NewValidator() *CustomValidator {
	v := validator.New()
	// "category" accepts one of the board categories
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.Category(fl.Field().String()).Valid()
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
			"error":   "INVALID_INPUT",
			"message": err.Error(),
		})
	}
	return nil
}
