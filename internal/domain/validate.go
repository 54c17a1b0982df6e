package domain

import (
	"regexp"
	"unicode"
)

// Account names start with a letter or digit so they can never be read as
// an option by the administration tool, and exclude every LDAP filter and
// shell metacharacter.
var accountNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,19}$`)

// Group names additionally allow single spaces ("Domain Admins") but no DN
// or filter specials.
var groupNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*( [A-Za-z0-9_.-]+)*$`)

const (
	maxGroupNameLen    = 64
	maxPasswordLen     = 128
	maxFreeTextLen     = 256
	DefaultPasswordMin = 8
)

// ValidateAccountName checks an account (sAMAccountName) identifier.
func ValidateAccountName(name string) error {
	if !accountNamePattern.MatchString(name) {
		return ErrValidation("invalid account name %q: use 1-20 letters, digits, '_', '.', or '-', starting with a letter or digit", name)
	}
	return nil
}

// ValidateGroupName checks a group common name.
func ValidateGroupName(name string) error {
	if len(name) == 0 || len(name) > maxGroupNameLen || !groupNamePattern.MatchString(name) {
		return ErrValidation("invalid group name %q", name)
	}
	return nil
}

// ValidatePassword applies the minimum strength policy. The password itself
// never appears in the returned error.
func ValidatePassword(password string, minLen int) error {
	if minLen <= 0 {
		minLen = DefaultPasswordMin
	}
	if len(password) < minLen {
		return ErrValidation("password must be at least %d characters", minLen)
	}
	if len(password) > maxPasswordLen {
		return ErrValidation("password must be at most %d characters", maxPasswordLen)
	}
	if hasControl(password) {
		return ErrValidation("password contains control characters")
	}
	return nil
}

// ValidateFreeText checks optional descriptive values passed to the
// administration tool (names, e-mail, descriptions).
func ValidateFreeText(field, value string) error {
	if len(value) > maxFreeTextLen {
		return ErrValidation("%s must be at most %d characters", field, maxFreeTextLen)
	}
	if hasControl(value) {
		return ErrValidation("%s contains control characters", field)
	}
	return nil
}

func hasControl(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}
