package datagen

import (
	"regexp"
	"unicode/utf8"
)

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)
)

// IsValidEmail reports whether email is well formed.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsValidUsername allows 3-20 letters, digits, underscores and hyphens.
func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// IsStrongPassword requires at least 8 characters with an ASCII upper-case
// letter, an ASCII lower-case letter and an ASCII digit. Length counts
// characters, not bytes.
func IsStrongPassword(password string) bool {
	if utf8.RuneCountInString(password) < 8 {
		return false
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return upper && lower && digit
}
