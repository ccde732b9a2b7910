// Package brdoc formats and validates Brazilian document and contact values:
// CPF (tax id), CEP (postal code) and mobile phone numbers.
package brdoc

import (
	"regexp"
	"strings"
)

var (
	nonDigit     = regexp.MustCompile(`\D`)
	phonePattern = regexp.MustCompile(`^(\d{2})(\d{5})(\d{4})$`)
)

const (
	taxIDLength      = 11
	postalCodeLength = 8
	phoneLength      = 11
)

// Digits strips every non-digit character from s.
func Digits(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// FormatPhone returns "(AA) PPPPP-LLLL" when input holds exactly eleven digits.
// Anything else is returned untouched so partial input survives while typing.
func FormatPhone(input string) string {
	m := phonePattern.FindStringSubmatch(Digits(input))
	if m == nil {
		return input
	}
	return "(" + m[1] + ") " + m[2] + "-" + m[3]
}

// FormatTaxID masks a CPF progressively as digits accumulate:
// "123" -> "123", "1234" -> "123.4", "1234567890" -> "123.456.789-0",
// "12345678901" -> "123.456.789-01". Digits beyond the eleventh are dropped.
func FormatTaxID(input string) string {
	d := Digits(input)
	if len(d) > taxIDLength {
		d = d[:taxIDLength]
	}

	var b strings.Builder
	b.Grow(len(d) + 3)
	for i, r := range d {
		switch i {
		case 3, 6:
			b.WriteByte('.')
		case 9:
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatPostalCode returns "NNNNN-NNN" for an eight digit CEP, otherwise the
// bare digits without any partial hyphenation.
func FormatPostalCode(input string) string {
	d := Digits(input)
	if len(d) != postalCodeLength {
		return d
	}
	return d[:5] + "-" + d[5:]
}
