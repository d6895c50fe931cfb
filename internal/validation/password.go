// Package validation provides input validation utilities
package validation

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"unicode"
)

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	// Check minimum length
	if len(password) < 12 {
		return fmt.Errorf("password must be at least 12 characters long")
	}

	// Check maximum length (prevent unreasonable inputs)
	if len(password) > 128 {
		return fmt.Errorf("password must not exceed 128 characters")
	}

	// Check for uppercase letter
	hasUpper := false
	for _, r := range password {
		if unicode.IsUpper(r) {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}

	// Check for lowercase letter
	hasLower := false
	for _, r := range password {
		if unicode.IsLower(r) {
			hasLower = true
			break
		}
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}

	// Check for digit
	hasDigit := regexp.MustCompile(`[0-9]`).MatchString(password)
	if !hasDigit {
		return fmt.Errorf("password must contain at least one digit")
	}

	// Check for special character
	hasSpecial := regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>\/?]`).MatchString(password)
	if !hasSpecial {
		return fmt.Errorf("password must contain at least one special character (!@#$%%^&*)")
	}

	return nil
}

// ValidateEmail checks basic email shape without attempting full RFC compliance.
func ValidateEmail(email string) error {
	if len(email) == 0 || len(email) > 254 {
		return fmt.Errorf("email address is required and must not exceed 254 characters")
	}
	if !regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`).MatchString(email) {
		return fmt.Errorf("email address is not valid")
	}
	return nil
}

const tempPasswordLen = 16

// Character classes for temporary passwords. One character from each class is
// guaranteed so the result always passes ValidatePassword.
var tempPasswordClasses = []string{
	"ABCDEFGHJKLMNPQRSTUVWXYZ",
	"abcdefghijkmnpqrstuvwxyz",
	"23456789",
	"!@#$%^&*",
}

// GenerateTempPassword produces a random password satisfying ValidatePassword.
// It is issued to supplier accounts created on application approval; the user
// must change it at first login.
func GenerateTempPassword() (string, error) {
	all := ""
	for _, class := range tempPasswordClasses {
		all += class
	}

	buf := make([]byte, tempPasswordLen)
	for i := range buf {
		var pool string
		if i < len(tempPasswordClasses) {
			pool = tempPasswordClasses[i]
		} else {
			pool = all
		}
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(pool))))
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		buf[i] = pool[n.Int64()]
	}

	// Shuffle so the guaranteed class characters are not always in front.
	for i := len(buf) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		j := n.Int64()
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf), nil
}
