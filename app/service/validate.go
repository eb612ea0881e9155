package service

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	emailPattern    = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

// IsValidUsername reports whether the username is 3-20 characters of
// letters, digits and underscores.
func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// IsValidEmail reports whether the address is RFC-shaped after trimming
// whitespace and stripping control characters.
func IsValidEmail(email string) bool {
	normalized := strings.TrimSpace(email)
	normalized = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, normalized)
	if normalized == "" {
		return false
	}
	return emailPattern.MatchString(normalized)
}
