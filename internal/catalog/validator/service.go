package validator

import (
	"clinic/pkg/logger"
	"clinic/pkg/model"
	"clinic/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type ServiceValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewServiceValidator(log *logger.Logger) *ServiceValidator {
	v, err := validation.New()
	if err != nil {
		log.Fatal("Failed to initialize clinic service validator", "error", err)
	}

	return &ServiceValidator{
		validate: v,
		logger:   log,
	}
}

func (v *ServiceValidator) Validate(svc *model.Service) error {
	return validation.Struct(v.validate, svc)
}
