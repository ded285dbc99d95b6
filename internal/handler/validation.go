package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/hospitalward/ward-api/internal/model"
)

// RegisterValidations installs the domain tags on gin's binding
// engine so malformed enum values are rejected at bind time.
func RegisterValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	_ = v.RegisterValidation("bloodtype", func(fl validator.FieldLevel) bool {
		return model.BloodType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("insurance", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return value == "" || model.InsuranceType(value).Valid()
	})
}
