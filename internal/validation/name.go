package validation

import (
	"errors"
	"strings"
)

// ValidateDisplayName validates the name shown on the notebook.
func ValidateDisplayName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return errors.New("display name is required")
	}

	if len(trimmed) > 100 {
		return errors.New("display name is too long (max 100 characters)")
	}

	return nil
}
