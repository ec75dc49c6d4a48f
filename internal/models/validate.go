package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("segment", func(fl validator.FieldLevel) bool {
			return IsValidSegment(fl.Field().String())
		})
	})
	return validate
}

// ValidateProfile returns field-keyed messages for every invalid profile field, or nil.
func ValidateProfile(p *Profile) map[string]string {
	return validateStruct(p, "profile")
}

// ValidateRegistration checks sign-up credentials the same way.
func ValidateRegistration(r *RegisterRequest) map[string]string {
	return validateStruct(r, "registration")
}

func validateStruct(v interface{}, name string) map[string]string {
	err := structValidator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{name: err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "business_name":
		return "Business name must be at least 2 characters"
	case "instagram_link":
		return "Please enter a valid Instagram URL"
	case "segment":
		return "Please select a business segment"
	case "primary_color":
		return "Please select a primary color"
	case "secondary_color":
		return "Please select a secondary color"
	case "logo_url":
		return "Logo URL must be a valid URL"
	case "email":
		return "Enter a valid email address"
	case "password":
		return "Password must be at least 6 characters"
	case "confirmPassword":
		return "Passwords do not match"
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
