package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aashari/go-selection-relay/internal/errors"
	"github.com/aashari/go-selection-relay/internal/utils"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate checks the configuration and reports the first problem
func Validate(cfg *AppConfig) *errors.APIError {
	if cfg == nil {
		return errors.NewConfigurationError("configuration is missing")
	}
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	if cfg.EnablePprof && utils.IsProduction() {
		apiErr := errors.NewConfigurationError("enable_pprof is not allowed in production")
		apiErr.Field = "enable_pprof"
		return apiErr
	}
	return nil
}

func formatValidationError(err error) *errors.APIError {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return errors.NewConfigurationError(err.Error())
	}

	e := validationErrors[0]
	var message string
	switch e.Tag() {
	case "required":
		message = fmt.Sprintf("%s is required", e.Field())
	case "oneof":
		message = fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param())
	case "url":
		message = fmt.Sprintf("%s must be a valid URL", e.Field())
	case "gt":
		message = fmt.Sprintf("%s must be greater than %s", e.Field(), e.Param())
	case "gte":
		message = fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
	default:
		message = fmt.Sprintf("%s failed validation: %s", e.Field(), e.Tag())
	}

	apiErr := errors.NewConfigurationError(message)
	apiErr.Field = e.Field()
	return apiErr
}
