// Package validation builds the validator shared by every domain package:
// go-playground/validator with the clinic's custom tags, plus translation of
// its errors into field/message pairs for API responses.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"clinic/pkg/model"

	"github.com/go-playground/validator/v10"
)

var (
	hhmmRegex  = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{0,15}$`)
)

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

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
	messages := make([]string, 0, len(v))
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Details renders the errors for an AppError payload.
func (v ValidationErrors) Details() map[string]any {
	return map[string]any{"errors": []ValidationError(v)}
}

// New returns a validator with the hhmm, phone and weekday tags registered
// and JSON field names used in error output.
func New() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})

	custom := map[string]validator.Func{
		"hhmm":    isHHMM,
		"phone":   isPhone,
		"weekday": isWeekday,
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("register %q validator: %w", tag, err)
		}
	}

	v.RegisterStructValidation(validateTimeRange, model.TimeRange{})

	return v, nil
}

func isHHMM(fl validator.FieldLevel) bool {
	return hhmmRegex.MatchString(fl.Field().String())
}

func isPhone(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

func isWeekday(fl validator.FieldLevel) bool {
	return weekdays[fl.Field().String()]
}

// ValidHHMM reports whether s is a 24h HH:MM clock time.
func ValidHHMM(s string) bool {
	return hhmmRegex.MatchString(s)
}

func validateTimeRange(sl validator.StructLevel) {
	r := sl.Current().Interface().(model.TimeRange)
	if ValidHHMM(r.Start) && ValidHHMM(r.End) && r.End <= r.Start {
		sl.ReportError(r.End, "end", "End", "after_start", "")
	}
}

// Struct validates s and converts failures to ValidationErrors.
func Struct(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return Translate(validationErrs)
	}
	return err
}

func Translate(errs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, 0, len(errs))

	for _, err := range errs {
		field := fieldPath(err)
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s", field, err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", field, err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", field)
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", field)
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", field, err.Param())
		case "hhmm":
			message = fmt.Sprintf("%s must be a time in HH:MM format", field)
		case "phone":
			message = fmt.Sprintf("%s must be a valid phone number", field)
		case "weekday":
			message = fmt.Sprintf("%s must be a lowercase weekday name", field)
		case "url":
			message = fmt.Sprintf("%s must be a valid URL", field)
		case "unique":
			message = fmt.Sprintf("%s must not contain duplicates", field)
		case "after_start":
			message = fmt.Sprintf("%s must be after start", field)
		}

		out = append(out, ValidationError{
			Field:   field,
			Message: message,
		})
	}

	return out
}

// fieldPath drops the root struct name: "AppointmentRequest.patient.email"
// becomes "patient.email".
func fieldPath(err validator.FieldError) string {
	ns := err.Namespace()
	if _, rest, found := strings.Cut(ns, "."); found {
		return rest
	}
	return err.Field()
}
