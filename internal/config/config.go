package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// DefaultBranch is used when no branch has been configured yet.
const DefaultBranch = "main"

type Config struct {
	Owner  string `json:"owner" validate:"required"`
	Repo   string `json:"repo" validate:"required"`
	Token  string `json:"token" validate:"required"`
	Branch string `json:"branch" validate:"required"`
}

// Resolve returns a complete configuration. Each key is read from the store
// if present; missing keys are prompted for and persisted before returning.
// The branch gets a hardcoded default instead of a prompt.
func Resolve(store *Store, prompter Prompter, logger *zap.Logger) (*Config, error) {
	cfg, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("error reading config store: %w", err)
	}

	dirty := false

	if cfg.Owner == "" {
		value, err := prompter.Prompt("GitHub owner")
		if err != nil {
			return nil, fmt.Errorf("error resolving owner: %w", err)
		}
		cfg.Owner = strings.TrimSpace(value)
		dirty = true
	}

	if cfg.Repo == "" {
		value, err := prompter.Prompt("GitHub repository")
		if err != nil {
			return nil, fmt.Errorf("error resolving repository: %w", err)
		}
		cfg.Repo = strings.TrimSpace(value)
		dirty = true
	}

	if cfg.Token == "" {
		value, err := prompter.PromptSecret("GitHub token")
		if err != nil {
			return nil, fmt.Errorf("error resolving token: %w", err)
		}
		cfg.Token = strings.TrimSpace(value)
		dirty = true
	}

	if cfg.Branch == "" {
		cfg.Branch = DefaultBranch
		dirty = true
	}

	if dirty {
		if err := store.Save(cfg); err != nil {
			return nil, fmt.Errorf("error persisting config: %w", err)
		}
		logger.Debug("persisted config", zap.String("path", store.Path()))
	}

	if err := validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return nil, formatValidationErrors(validationErrors)
		}
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// formatValidationErrors formats validation errors into a user-friendly error message
func formatValidationErrors(errors validator.ValidationErrors) error {
	var errMsgs []string
	for _, err := range errors {
		errMsgs = append(errMsgs, fmt.Sprintf(
			"field '%s' failed validation: %s",
			err.Field(),
			err.Tag(),
		))
	}
	return fmt.Errorf("validation errors: %v", errMsgs)
}
