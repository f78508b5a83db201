// Figura - Deterministic Visual Generation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/figura

package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrValidation is the sentinel error wrapped by every construction-time
// validation failure in this package.
var ErrValidation = errors.New("schema validation failed")

// singleton validator instance
var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// hexColorRe matches exactly the #RRGGBB form. Shorthand (#RGB), alpha
// (#RRGGBBAA) and named colors are construction-time errors, not warnings.
var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// IsHexColor reports whether s is a six-digit hex color of the form #RRGGBB.
func IsHexColor(s string) bool { return hexColorRe.MatchString(s) }

// GetValidator returns the singleton validator instance with Figura's custom
// validators registered. Thread-safe; struct metadata is cached internally.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// hexcolor6: strict #RRGGBB color fields
		_ = validate.RegisterValidation("hexcolor6", func(fl validator.FieldLevel) bool {
			return IsHexColor(fl.Field().String())
		})

		// closed enum sets
		_ = validate.RegisterValidation("visualintent", func(fl validator.FieldLevel) bool {
			return VisualIntent(fl.Field().String()).Valid()
		})
		_ = validate.RegisterValidation("datatype", func(fl validator.FieldLevel) bool {
			return DataType(fl.Field().String()).Valid()
		})
		_ = validate.RegisterValidation("theme", func(fl validator.FieldLevel) bool {
			return Theme(fl.Field().String()).Valid()
		})
		_ = validate.RegisterValidation("renderpath", func(fl validator.FieldLevel) bool {
			return RenderingPath(fl.Field().String()).Valid()
		})
	})

	return validate
}

// ValidateStruct validates a struct using the singleton validator. Returns
// nil on success; otherwise an error wrapping ErrValidation with one message
// per failed field.
func ValidateStruct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: programmer error (nil or non-struct input)
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(messages, "; "))
}

// fieldMessage renders one field error in a stable, human-readable form.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be >= %s (got %v)", fe.Field(), fe.Param(), fe.Value())
	case "max":
		return fmt.Sprintf("%s must be <= %s (got %v)", fe.Field(), fe.Param(), fe.Value())
	case "gt":
		return fmt.Sprintf("%s must be > %s (got %v)", fe.Field(), fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be >= %s (got %v)", fe.Field(), fe.Param(), fe.Value())
	case "hexcolor6":
		return fmt.Sprintf("%s must be a #RRGGBB hex color (got %v)", fe.Field(), fe.Value())
	case "visualintent", "datatype", "theme", "renderpath":
		return fmt.Sprintf("%s has unknown value %v", fe.Field(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got %v)", fe.Field(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
