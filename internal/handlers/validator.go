package handlers

import (
	"bankfeed/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// requestValidator adapts go-playground/validator to echo. Beyond the
// standard struct tags it knows the category vocabulary, so DTOs can declare
// `validate:"category"` on category fields.
type requestValidator struct {
	validate *validator.Validate
}

// NewValidator builds the validator wired into echo for request DTOs.
func NewValidator() echo.Validator {
	v := validator.New()
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return models.IsValidCategory(fl.Field().String())
	})
	return &requestValidator{validate: v}
}

func (rv *requestValidator) Validate(i interface{}) error {
	return rv.validate.Struct(i)
}
