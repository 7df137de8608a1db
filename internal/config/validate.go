package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the config for errors.
func Validate(cfg *Config) error {
	var errs []string

	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("config validation: %w", err)
		}
		for _, fe := range fieldErrs {
			errs = append(errs, describeFieldError(fe))
		}
	}

	if (cfg.Sheets.ServiceAccountEmail == "") != (cfg.Sheets.PrivateKey == "") {
		errs = append(errs, "sheets.serviceAccountEmail and sheets.privateKey must be set together")
	}

	if cfg.RateLimit.Enabled && cfg.RateLimit.Requests <= 0 {
		errs = append(errs, "rateLimit.requests must be positive when rate limiting is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// describeFieldError renders a validator error as "<yaml path> <problem>".
func describeFieldError(fe validator.FieldError) string {
	path := yamlPath(fe.StructNamespace())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", path)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s (got %q)", path, strings.ReplaceAll(fe.Param(), " ", ", "), fe.Value())
	case "hexadecimal":
		return fmt.Sprintf("%s must be hex encoded", path)
	case "len":
		return fmt.Sprintf("%s must be %s characters long", path, fe.Param())
	case "min", "max", "gt":
		return fmt.Sprintf("%s must satisfy %s=%s (got %v)", path, fe.Tag(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %q validation", path, fe.Tag())
	}
}

// yamlPath turns "Config.Discord.PublicKey" into "discord.publicKey".
func yamlPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToLower(p[:1]) + p[1:]
	}
	return strings.Join(parts, ".")
}
