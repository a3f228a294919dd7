package validator

import (
	"clinic/pkg/logger"
	"clinic/pkg/model"
	"clinic/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type DoctorValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewDoctorValidator(log *logger.Logger) *DoctorValidator {
	v, err := validation.New()
	if err != nil {
		log.Fatal("Failed to initialize doctor validator", "error", err)
	}

	log.Info("Doctor validator initialized successfully")

	return &DoctorValidator{
		validate: v,
		logger:   log,
	}
}

func (v *DoctorValidator) ValidateRequest(req *model.DoctorRequest) error {
	return validation.Struct(v.validate, req)
}

func (v *DoctorValidator) ValidateUpdate(update *model.DoctorUpdate) error {
	return validation.Struct(v.validate, update)
}

func (v *DoctorValidator) ValidateLogin(req *model.LoginRequest) error {
	return validation.Struct(v.validate, req)
}
