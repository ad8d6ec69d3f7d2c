package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Length limits applied to user-submitted text.
const (
	MinPasswordLength  = 6
	MaxMissionLength   = 1000
	MaxEventDescLength = 1000
	MaxPostLength      = 5000
)

func IsValidEmail(email string) bool {
	return emailRe.MatchString(strings.TrimSpace(email))
}

// NormalizeEmail lowercases and trims an address for storage and comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func IsValidPassword(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength
}

// Required reports whether every value is non-blank.
func Required(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// MaxLen reports whether s has at most n characters.
func MaxLen(s string, n int) bool {
	return utf8.RuneCountInString(s) <= n
}
