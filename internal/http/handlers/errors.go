package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"storefront/pkg/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements echo.Validator interface
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return models.NewValidationError(strings.ToLower(fe.Field()), "failed %s validation", fe.Tag())
		}
		return models.NewValidationError("", "%s", err.Error())
	}
	return nil
}

// bind decodes and validates a request body.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return models.NewValidationError("", "invalid request body")
	}
	return c.Validate(req)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}

// respondError maps domain errors to status codes. Anything unrecognized is
// logged and reported as a 500 with the fallback message.
func respondError(c echo.Context, err error, fallback string) error {
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &validationErr):
		body := map[string]string{"error": validationErr.Message}
		if validationErr.Field != "" {
			body["field"] = validationErr.Field
		}
		return c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, models.ErrValidation):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrProductNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "product not found"})
	case errors.Is(err, models.ErrNoImage),
		errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrDuplicate):
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrForbidden):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
	}

	zerolog.Ctx(c.Request().Context()).Error().Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg(fallback)
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": fallback})
}
