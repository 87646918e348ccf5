package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// emailRe is the same loose email shape the front end checks.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// phoneRe allows digits with an optional leading +.
var phoneRe = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

// Account field limits.
const (
	UsernameMin     = 3
	UsernameMax     = 50
	PasswordMin     = 6
	PhoneMax        = 15
	FullnameMax     = 100
	AddressMax      = 500
	EmailMax        = 255
	ListingTitleMin = 10
	ListingTitleMax = 255
	DescriptionMin  = 50
	OrientationMax  = 50
	LegalStatusMax  = 100
)

func IsValidEmail(email string) bool {
	return len(email) <= EmailMax && emailRe.MatchString(email)
}

// IsValidPassword only enforces a minimum length.
func IsValidPassword(password string) bool {
	return utf8.RuneCountInString(password) >= PasswordMin
}

func IsValidUsername(username string) bool {
	n := utf8.RuneCountInString(username)
	return n >= UsernameMin && n <= UsernameMax && !strings.ContainsAny(username, " \t\n")
}

// IsValidPhone accepts an empty phone; profile phone numbers are optional.
func IsValidPhone(phone string) bool {
	return phone == "" || phoneRe.MatchString(phone)
}

// LengthBetween reports whether s has between min and max runes; max <= 0 means unbounded.
func LengthBetween(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	if n < min {
		return false
	}
	return max <= 0 || n <= max
}

// NormalizeEmail trims and lowercases an address before lookups and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
