package brdoc

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidTaxID reports whether taxID, raw or formatted, is a structurally
// valid CPF: eleven digits, not all equal, both check digits matching.
func IsValidTaxID(taxID string) bool {
	d := Digits(taxID)
	if len(d) != taxIDLength {
		return false
	}
	if allSame(d) {
		return false
	}
	if checkDigit(d[:9], 10) != int(d[9]-'0') {
		return false
	}
	return checkDigit(d[:10], 11) == int(d[10]-'0')
}

// checkDigit computes a CPF verifier over digits using weights that start at
// firstWeight and decrease by one per position.
func checkDigit(digits string, firstWeight int) int {
	sum := 0
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * (firstWeight - i)
	}
	rem := (sum * 10) % 11
	if rem == 10 || rem == 11 {
		return 0
	}
	return rem
}

func allSame(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}

// IsValidEmail is a deliberately loose local@domain.tld shape check.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsValidPostalCode reports whether cep carries exactly eight digits.
func IsValidPostalCode(cep string) bool {
	return len(Digits(cep)) == postalCodeLength
}

// IsCompletePhone reports whether phone carries area code, prefix and line.
func IsCompletePhone(phone string) bool {
	return len(Digits(phone)) == phoneLength
}

// RegisterValidations adds the "cpf", "cep" and "br_phone" tags to v.
func RegisterValidations(v *validator.Validate) error {
	tags := map[string]func(string) bool{
		"cpf":      IsValidTaxID,
		"cep":      IsValidPostalCode,
		"br_phone": IsCompletePhone,
	}
	for tag, fn := range tags {
		check := fn
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().String())
		}); err != nil {
			return err
		}
	}
	return nil
}
