package validator

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// ErrInvalidEmail indicates the email is not of the form local@domain.tld
	ErrInvalidEmail = errors.New("please enter a valid email address")

	// ErrAddressTooShort indicates the address is under MinAddressLength characters
	ErrAddressTooShort = errors.New("address must be at least 5 characters")

	// ErrInvalidPhone indicates the phone has too few or too many digits
	ErrInvalidPhone = errors.New("phone number must contain 7 to 15 digits")

	// ErrInvalidPIN indicates the PIN is not exactly four digits
	ErrInvalidPIN = errors.New("PIN must be exactly 4 digits")
)

// MinAddressLength is the shortest address accepted
const MinAddressLength = 5

var (
	emailRegex  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	digitsRegex = regexp.MustCompile(`^\d+$`)
	pinRegex    = regexp.MustCompile(`^\d{4}$`)
)

// phoneSeparators are stripped before a phone number is stored
var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

// Contact holds the optional contact fields of a person record
type Contact struct {
	Email   string
	Address string
	Phone   string
}

// ContactValidator validates the contact fields administrators enter. Empty
// fields are always accepted.
type ContactValidator struct{}

// NewContactValidator creates a new contact validator instance
func NewContactValidator() *ContactValidator {
	return &ContactValidator{}
}

// Validate checks every non-empty field and returns the contact with the phone
// sanitized and surrounding whitespace trimmed.
func (v *ContactValidator) Validate(c Contact) (Contact, error) {
	out := Contact{
		Email:   strings.TrimSpace(c.Email),
		Address: strings.TrimSpace(c.Address),
	}

	if out.Email != "" && !v.IsValidEmail(out.Email) {
		return Contact{}, ErrInvalidEmail
	}

	if out.Address != "" && utf8.RuneCountInString(out.Address) < MinAddressLength {
		return Contact{}, ErrAddressTooShort
	}

	if strings.TrimSpace(c.Phone) != "" {
		phone, err := v.SanitizePhone(c.Phone)
		if err != nil {
			return Contact{}, err
		}
		out.Phone = phone
	}

	return out, nil
}

// IsValidEmail reports whether email looks like local@domain.tld
func (v *ContactValidator) IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// SanitizePhone removes common separators, keeping a leading + for an
// international prefix.
// Accepts: 0771234567, 077 123 4567, (077) 123-4567, +1 555 010 9999
func (v *ContactValidator) SanitizePhone(phone string) (string, error) {
	phone = phoneSeparators.Replace(strings.TrimSpace(phone))

	plus := strings.HasPrefix(phone, "+")
	digits := strings.TrimPrefix(phone, "+")

	if !digitsRegex.MatchString(digits) || len(digits) < 7 || len(digits) > 15 {
		return "", ErrInvalidPhone
	}

	if plus {
		return "+" + digits, nil
	}
	return digits, nil
}

// ValidatePIN checks the 4-digit admin PIN format
func (v *ContactValidator) ValidatePIN(pin string) error {
	if !pinRegex.MatchString(pin) {
		return ErrInvalidPIN
	}
	return nil
}
