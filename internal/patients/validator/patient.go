package validator

import (
	"clinic/pkg/logger"
	"clinic/pkg/model"
	"clinic/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type PatientValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewPatientValidator(log *logger.Logger) *PatientValidator {
	v, err := validation.New()
	if err != nil {
		log.Fatal("Failed to initialize patient validator", "error", err)
	}

	return &PatientValidator{
		validate: v,
		logger:   log,
	}
}

func (v *PatientValidator) ValidateVisit(visit *model.Visit) error {
	return validation.Struct(v.validate, visit)
}

func (v *PatientValidator) ValidateEmail(email string) error {
	return v.validate.Var(email, "required,email")
}
