package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate checks the configuration using struct tags plus the rules that
// tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

func validateCustomRules(cfg *Config) error {
	if cfg.FastTransfer.Port == cfg.Web.Port {
		return fmt.Errorf("fast_transfer.port: must differ from web.port (%d)", cfg.Web.Port)
	}

	if cfg.DropZone.Enabled && cfg.DropZone.Store == "s3" {
		required := []string{"bucket", "region"}
		for _, key := range required {
			if v, ok := cfg.DropZone.S3[key].(string); !ok || v == "" {
				return fmt.Errorf("dropzone.s3.%s: required when the s3 store is selected", key)
			}
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly
// messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
