package models

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"clientes/pkg/brdoc"
)

// Fold lowercases s and strips diacritics so "JOÃO" and "joao" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// RefreshSearchKey rebuilds the folded key used by list searches.
func (c *Customer) RefreshSearchKey() {
	c.SearchKey = Fold(strings.Join([]string{c.Name, c.Email, c.TaxID, brdoc.Digits(c.TaxID)}, " "))
}

// BeforeSave keeps SearchKey in sync on every GORM write.
func (c *Customer) BeforeSave(*gorm.DB) error {
	c.RefreshSearchKey()
	return nil
}
