package validation

import (
	"errors"
	"strings"
)

// ValidateName validates an optional display name; nil means "not provided"
func ValidateName(name *string) error {
	if name == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return errors.New("name must not be blank")
	}

	if len(trimmed) > 100 {
		return errors.New("name is too long (max 100 characters)")
	}

	return nil
}
