package service

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/Jeffreasy/mimo-auth/internal/auth"
)

var validate = validator.New()

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)

type emailField struct {
	Email string `validate:"required,email"`
}

type displayNameField struct {
	DisplayName string `validate:"omitempty,min=1,max=50"`
}

func validateEmail(email string) error {
	if err := validate.Struct(emailField{Email: email}); err != nil {
		return auth.New(auth.ValidationError, "invalid email format")
	}
	return nil
}

func validateDisplayName(name string) error {
	if name == "" {
		return nil
	}
	if err := validate.Struct(displayNameField{DisplayName: name}); err != nil {
		return auth.New(auth.ValidationError, "display name must be 1-50 characters")
	}
	return nil
}

func validateUserID(userID string) error {
	if !userIDPattern.MatchString(userID) {
		return auth.New(auth.ValidationError, "user id must be 3-32 characters of letters, digits, _ or -")
	}
	return nil
}

// validatePassword enforces the [8, 256]-byte bound the service layer owns
// per spec.md §4.B; the hasher itself performs no length validation.
func validatePassword(password string) error {
	n := len(password)
	if n < 8 || n > 256 {
		return auth.New(auth.ValidationError, "password must be between 8 and 256 bytes")
	}
	return nil
}

// validateCode checks the pending-verification code shape: exactly six
// decimal digits.
func validateCode(code string) error {
	if len(code) != 6 {
		return auth.New(auth.ValidationError, "verification code must be 6 digits")
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return auth.New(auth.ValidationError, "verification code must be 6 digits")
		}
	}
	return nil
}
