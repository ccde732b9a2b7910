package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a save attempt failed.
type ErrorKind string

const (
	KindInvalidTaxID       ErrorKind = "InvalidTaxId"
	KindDuplicateTaxID     ErrorKind = "DuplicateTaxId"
	KindInvalidEmail       ErrorKind = "InvalidEmail"
	KindDuplicateEmail     ErrorKind = "DuplicateEmail"
	KindInvalidForm        ErrorKind = "InvalidForm"
	KindCredential         ErrorKind = "CredentialError"
	KindNotFound           ErrorKind = "NotFound"
	KindLookupFailure      ErrorKind = "LookupFailure"
	KindUnknownPersistence ErrorKind = "UnknownPersistenceError"
)

// SaveError is the single user-facing failure of a save attempt.
type SaveError struct {
	Kind    ErrorKind
	Code    string // credential error code, when Kind is KindCredential
	Message string // localized, ready to show
	Err     error
}

func (e *SaveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// Credential error codes emitted by the auth service.
const (
	CodeWeakPassword        = "auth/weak-password"
	CodeEmailAlreadyInUse   = "auth/email-already-in-use"
	CodeInvalidEmail        = "auth/invalid-email"
	CodeOperationNotAllowed = "auth/operation-not-allowed"
	CodeUserNotFound        = "auth/user-not-found"
	CodeWrongPassword       = "auth/wrong-password"
)

// CredentialError is a typed failure from credential issuance or sign-in.
type CredentialError struct {
	Code string
	Err  error
}

func (e *CredentialError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

// CredentialCode extracts the code of a *CredentialError in err's chain.
func CredentialCode(err error) (string, bool) {
	var ce *CredentialError
	if errors.As(err, &ce) {
		return ce.Code, true
	}
	return "", false
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)
