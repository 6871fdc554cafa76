// Package domain holds typed identifiers shared across the module. Values are
// constructed through Parse functions at trust boundaries; direct casting
// bypasses validation.
package domain

import (
	"strings"

	pkgerrors "carteirinha/pkg/errors"
)

// CPF is the national tax identifier in canonical `ddd.ddd.ddd-dd` form. It is
// the unique key of a student record and immutable once the record exists.
//
// Invariant: a CPF always holds exactly 11 digits and 3 mask characters
// (14 chars total). ParseCPF is the only sanctioned constructor.
type CPF string

// CanonicalCPFLength is the masked length the submission gate checks: 11
// digits plus two dots and a dash.
const CanonicalCPFLength = 14

// ParseCPF constructs a CPF from external input, masked or bare. Any character
// that is not a digit is ignored; exactly 11 digits must remain.
//
// Errors: CodeInvalidInput when the digit count is not 11.
func ParseCPF(s string) (CPF, error) {
	digits := onlyDigits(s)
	if len(digits) != 11 {
		return "", pkgerrors.New(pkgerrors.CodeInvalidInput, "cpf must contain exactly 11 digits")
	}
	return CPF(maskCPF(digits)), nil
}

// FormatCPF applies the progressive input mask: digits-only, truncated at 11,
// with dots and dash inserted as enough digits arrive. Mirrors the behavior of
// a masked text field, so partial input stays partial.
func FormatCPF(s string) string {
	digits := onlyDigits(s)
	if len(digits) > 11 {
		digits = digits[:11]
	}
	return maskCPF(digits)
}

// String returns the canonical masked form.
func (c CPF) String() string { return string(c) }

// Digits returns the 11 bare digits, used for storage object naming.
func (c CPF) Digits() string { return onlyDigits(string(c)) }

// IsZero reports whether the CPF is unset.
func (c CPF) IsZero() bool { return c == "" }

func maskCPF(digits string) string {
	switch {
	case len(digits) <= 3:
		return digits
	case len(digits) <= 6:
		return digits[:3] + "." + digits[3:]
	case len(digits) <= 9:
		return digits[:3] + "." + digits[3:6] + "." + digits[6:]
	default:
		return digits[:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:]
	}
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
