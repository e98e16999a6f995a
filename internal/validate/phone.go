package validate

import (
	"errors"
	"regexp"
	"strings"
)

// Phone validation errors
var (
	ErrInvalidPhone = errors.New("invalid phone number")
)

// phonePattern accepts E.164 numbers (+ followed by 8 to 15 digits) and bare
// 10-digit Indian mobile numbers, which get the +91 prefix on normalization.
var (
	e164Pattern   = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)
	mobilePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)
)

// Phone validates and normalizes a phone number.
// Returns the number in E.164 form and an error if invalid.
func Phone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", ErrEmpty
	}

	// Strip separators commonly typed by users
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, phone)

	if e164Pattern.MatchString(cleaned) {
		return cleaned, nil
	}

	if mobilePattern.MatchString(cleaned) {
		return "+91" + cleaned, nil
	}

	return "", ErrInvalidPhone
}
