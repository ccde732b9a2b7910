package models

import (
	"fmt"
	"strings"
	"time"

	"clientes/pkg/brdoc"
)

// Customer is a registered customer record (collection "clientes").
type Customer struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UID        string    `json:"uid" gorm:"type:varchar(36);index"` // credential issued at creation
	Name       string    `json:"name" gorm:"type:varchar(200);not null"`
	Email      string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	TaxID      string    `json:"tax_id" gorm:"column:tax_id;uniqueIndex;type:varchar(14);not null"` // formatted CPF
	Phone      string    `json:"phone" gorm:"type:varchar(11)"`                                     // digits only
	PostalCode string    `json:"postal_code" gorm:"type:varchar(8)"`                                // digits only
	State      string    `json:"state" gorm:"type:varchar(2)"`
	City       string    `json:"city" gorm:"type:varchar(100)"`
	District   string    `json:"district" gorm:"type:varchar(100)"`
	Street     string    `json:"street" gorm:"type:varchar(200)"`
	Number     string    `json:"number" gorm:"type:varchar(20)"`
	SearchKey  string    `json:"-" gorm:"type:varchar(600);index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName keeps the collection name the records were always stored under.
func (Customer) TableName() string {
	return "clientes"
}

// DisplayPhone returns the phone in "(AA) PPPPP-LLLL" form.
func (c Customer) DisplayPhone() string {
	return brdoc.FormatPhone(c.Phone)
}

// DisplayPostalCode returns the CEP in "NNNNN-NNN" form.
func (c Customer) DisplayPostalCode() string {
	return brdoc.FormatPostalCode(c.PostalCode)
}

// Summary is the human-readable confirmation shown after a save.
func (c Customer) Summary() string {
	lines := []string{
		"Nome: " + c.Name,
		"E-mail: " + c.Email,
		"CPF: " + c.TaxID,
		"Telefone: " + c.DisplayPhone(),
		"CEP: " + c.DisplayPostalCode(),
		fmt.Sprintf("Endereço: %s, %s - %s, %s/%s", c.Street, c.Number, c.District, c.City, c.State),
	}
	return strings.Join(lines, "\n")
}

// CustomerForm is the working form a customer is edited through. Every
// field holds whatever the user typed; the save flow normalizes it.
type CustomerForm struct {
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email"`
	TaxID      string `json:"tax_id"`
	Phone      string `json:"phone" validate:"omitempty,br_phone"`
	PostalCode string `json:"postal_code" validate:"omitempty,cep"`
	State      string `json:"state" validate:"max=2"`
	City       string `json:"city" validate:"max=100"`
	District   string `json:"district" validate:"max=100"`
	Street     string `json:"street" validate:"max=200"`
	Number     string `json:"number" validate:"max=20"`
}

// FormFromCustomer loads a stored record into a working form for editing.
func FormFromCustomer(c *Customer) CustomerForm {
	return CustomerForm{
		Name:       c.Name,
		Email:      c.Email,
		TaxID:      c.TaxID,
		Phone:      c.DisplayPhone(),
		PostalCode: c.DisplayPostalCode(),
		State:      c.State,
		City:       c.City,
		District:   c.District,
		Street:     c.Street,
		Number:     c.Number,
	}
}
