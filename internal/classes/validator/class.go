package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"clubmanager/pkg/logger"
	"clubmanager/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type ClassValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewClassValidator(log *logger.Logger) *ClassValidator {
	return &ClassValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *ClassValidator) ValidateCreate(req *model.CreateClassRequest) error {
	if err := v.validate.Struct(req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) error {
	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "request", Message: err.Error()}}
	}

	out := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "datetime":
		if fe.Param() == "15:04" {
			return "must be a time in HH:MM format"
		}
		return "must be a date in YYYY-MM-DD format"
	default:
		return fmt.Sprintf("failed validation on '%s'", fe.Tag())
	}
}
