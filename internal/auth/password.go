package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"quiz-admin-service/internal/domain"
)

// Accepted password lengths in bytes; bcrypt refuses input past 72 bytes.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 72
)

var (
	// ErrWeakPassword is returned for passwords under MinPasswordLength.
	ErrWeakPassword = fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, MinPasswordLength)
	// ErrPasswordTooLong is returned for passwords over MaxPasswordLength bytes.
	ErrPasswordTooLong = fmt.Errorf("%w: password must be at most %d bytes", domain.ErrInvalidInput, MaxPasswordLength)
)

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	if len(password) > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
