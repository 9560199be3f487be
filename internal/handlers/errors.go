package handlers

import (
	"errors"
	"reflect"
	"strings"

	"padelcentar/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// respondError maps a service error onto the HTTP error taxonomy. Server
// errors are logged and answered with serverMessage only.
func respondError(c *fiber.Ctx, err error, serverMessage string) error {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		body := fiber.Map{"error": ve.Message}
		if len(ve.Fields) > 0 {
			body["errors"] = ve.Fields
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.Is(err, services.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid credentials"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	log.WithError(err).WithFields(log.Fields{
		"method": c.Method(),
		"path":   c.Path(),
	}).Error(serverMessage)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": serverMessage})
}

func badRequestBody(c *fiber.Ctx, err error) error {
	log.WithError(err).WithField("path", c.Path()).Info("invalid request body")
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
}

// newValidator returns a validator that reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateRequest runs struct validation and converts failures into a
// *services.ValidationError.
func validateRequest(v *validator.Validate, req interface{}) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		fields[e.Field()] = fieldMessage(e)
	}
	return &services.ValidationError{Message: "Validation failed", Fields: fields}
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + e.Param()
	case "min":
		return "must be at least " + e.Param() + " characters"
	case "max":
		return "must be at most " + e.Param() + " characters"
	default:
		return "failed on the '" + e.Tag() + "' rule"
	}
}
