package services

import (
	"context"
	"fmt"
	"strings"

	"clientes/internal/models"
	"clientes/pkg/brdoc"
)

// Field names used as keys of a ValidationResult.
const (
	FieldName       = "name"
	FieldEmail      = "email"
	FieldTaxID      = "tax_id"
	FieldPhone      = "phone"
	FieldPostalCode = "postal_code"
)

// FieldResult is the validation state of one form field.
type FieldResult struct {
	IsValid        bool   `json:"is_valid"`
	ErrorMessage   string `json:"error_message,omitempty"`
	ExistsConflict bool   `json:"exists_conflict"`
}

// OK reports whether the field is well formed and free of conflicts.
func (r FieldResult) OK() bool {
	return r.IsValid && !r.ExistsConflict
}

// ValidationResult maps field names to their validation state.
type ValidationResult map[string]FieldResult

// Valid reports whether every field is OK.
func (r ValidationResult) Valid() bool {
	for _, f := range r {
		if !f.OK() {
			return false
		}
	}
	return true
}

// FieldValidator validates form fields one at a time, consulting the
// ExistenceChecker for tax id and e-mail once the value is well formed.
type FieldValidator struct {
	checker             ExistenceChecker
	allowOwnEmailOnEdit bool
}

// NewFieldValidator creates a new FieldValidator.
func NewFieldValidator(checker ExistenceChecker, allowOwnEmailOnEdit bool) *FieldValidator {
	return &FieldValidator{checker: checker, allowOwnEmailOnEdit: allowOwnEmailOnEdit}
}

var fieldOK = FieldResult{IsValid: true}

// ValidateField validates value as the named field. prior is the record
// being edited, or nil when creating.
func (v *FieldValidator) ValidateField(ctx context.Context, field, value string, prior *models.Customer) (FieldResult, error) {
	switch field {
	case FieldTaxID:
		return v.validateTaxID(ctx, value, prior)
	case FieldEmail:
		return v.validateEmail(ctx, value, prior)
	case FieldName:
		if strings.TrimSpace(value) == "" {
			return FieldResult{ErrorMessage: msgRequiredName}, nil
		}
		return fieldOK, nil
	case FieldPhone:
		if value != "" && !brdoc.IsCompletePhone(value) {
			return FieldResult{ErrorMessage: msgInvalidPhone}, nil
		}
		return fieldOK, nil
	case FieldPostalCode:
		if value != "" && !brdoc.IsValidPostalCode(value) {
			return FieldResult{ErrorMessage: msgInvalidPostalCode}, nil
		}
		return fieldOK, nil
	default:
		return FieldResult{}, fmt.Errorf("unknown field %q", field)
	}
}

func (v *FieldValidator) validateTaxID(ctx context.Context, raw string, prior *models.Customer) (FieldResult, error) {
	if !brdoc.IsValidTaxID(raw) {
		return FieldResult{ErrorMessage: msgInvalidTaxID}, nil
	}
	taxID := brdoc.FormatTaxID(raw)
	if prior != nil && prior.TaxID == taxID {
		return fieldOK, nil
	}

	var (
		exists bool
		err    error
	)
	if prior != nil {
		exists, err = v.checker.TaxIDExistsExcept(ctx, taxID, prior.ID)
	} else {
		exists, err = v.checker.TaxIDExists(ctx, taxID)
	}
	if err != nil {
		return FieldResult{}, fmt.Errorf("failed to check tax id: %w", err)
	}
	if exists {
		return FieldResult{IsValid: true, ExistsConflict: true, ErrorMessage: msgDuplicateTaxID}, nil
	}
	return fieldOK, nil
}

func (v *FieldValidator) validateEmail(ctx context.Context, email string, prior *models.Customer) (FieldResult, error) {
	if !brdoc.IsValidEmail(email) {
		return FieldResult{ErrorMessage: msgInvalidEmail}, nil
	}

	var (
		exists bool
		err    error
	)
	if prior != nil && v.allowOwnEmailOnEdit {
		exists, err = v.checker.EmailExistsExcept(ctx, email, prior.ID)
	} else {
		exists, err = v.checker.EmailExists(ctx, email)
	}
	if err != nil {
		return FieldResult{}, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return FieldResult{IsValid: true, ExistsConflict: true, ErrorMessage: msgDuplicateEmail}, nil
	}
	return fieldOK, nil
}

// ValidateForm validates every checked field of form.
func (v *FieldValidator) ValidateForm(ctx context.Context, form models.CustomerForm, prior *models.Customer) (ValidationResult, error) {
	values := map[string]string{
		FieldName:       form.Name,
		FieldEmail:      form.Email,
		FieldTaxID:      form.TaxID,
		FieldPhone:      form.Phone,
		FieldPostalCode: form.PostalCode,
	}

	result := make(ValidationResult, len(values))
	for field, value := range values {
		r, err := v.ValidateField(ctx, field, value, prior)
		if err != nil {
			return nil, err
		}
		result[field] = r
	}
	return result, nil
}
