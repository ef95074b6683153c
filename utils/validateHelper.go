package utils

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// ValidationError keeps the per-field tags so callers can render them.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	var parts []string
	for field, tag := range e.Fields {
		switch tag {
		case "required":
			parts = append(parts, field+" is required")
		case "gt", "gte", "min":
			parts = append(parts, field+" is below the allowed minimum")
		case "dive":
			parts = append(parts, field+" has an invalid item")
		default:
			parts = append(parts, field+" failed "+tag)
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ValidateStruct runs validator/v10 `validate` tags on input.
func ValidateStruct(input any) error {
	if err := getValidator().Struct(input); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return err
		}
		return &ValidationError{Fields: ProcessValidationErrors(validationErrors)}
	}
	return nil
}

func ProcessValidationErrors(validationErrors validator.ValidationErrors) map[string]string {
	errorResponse := make(map[string]string, len(validationErrors))
	for _, ve := range validationErrors {
		errorResponse[ve.Namespace()] = ve.Tag()
	}
	return errorResponse
}

func ResourceCountWhere[T any](ctx context.Context, db *gorm.DB, condition string, value ...interface{}) (int64, error) {
	var model T
	var count int64
	if err := db.WithContext(ctx).Model(&model).Where(condition, value...).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
