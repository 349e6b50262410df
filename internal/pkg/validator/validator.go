package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Media category validation
	validate.RegisterValidation("mediacategory", func(fl validator.FieldLevel) bool {
		category := fl.Field().String()
		validCategories := []string{"vehicle", "service", "blog", "testimonial", "banner", "gallery", "other"}
		for _, c := range validCategories {
			if category == c {
				return true
			}
		}
		return false
	})
}

// Validate validates a struct and returns field errors keyed by JSON name
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errs := make(map[string]string)
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errs["_"] = err.Error()
		return errs
	}

	for _, e := range validationErrors {
		errs[e.Field()] = messageForTag(e)
	}
	return errs
}

func messageForTag(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "max":
		return "Value is too long"
	case "min":
		return "Value is too short"
	case "mediacategory":
		return "Must be one of: vehicle, service, blog, testimonial, banner, gallery, other"
	default:
		return "Invalid value"
	}
}
