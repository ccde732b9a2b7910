package repositories

import (
	"context"
	"errors"

	"clientes/internal/models"
)

var (
	// ErrNotFound is returned when no record matches the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateTaxID is returned when another record already holds the CPF.
	ErrDuplicateTaxID = errors.New("tax id already registered")
	// ErrDuplicateEmail is returned when another record already holds the e-mail.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateID is returned when a record with the same id already exists.
	ErrDuplicateID = errors.New("id already exists")
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListQuery selects one page of customers, optionally filtered by a search term.
type ListQuery struct {
	Page     int
	PageSize int
	Search   string
}

// Normalize clamps page and page size into their valid ranges.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	return q
}

// Offset is the number of records skipped before the page.
func (q ListQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// CustomerRepository defines the interface for customer data access.
type CustomerRepository interface {
	// List returns one page ordered by name and the total number of matches.
	List(ctx context.Context, query ListQuery) ([]models.Customer, int64, error)
	// All returns every stored customer ordered by name.
	All(ctx context.Context) ([]models.Customer, error)
	GetByID(ctx context.Context, id string) (*models.Customer, error)
	// ExistsByTaxID reports whether a record other than exceptID holds taxID.
	ExistsByTaxID(ctx context.Context, taxID, exceptID string) (bool, error)
	// ExistsByEmail reports whether a record other than exceptID holds email.
	ExistsByEmail(ctx context.Context, email, exceptID string) (bool, error)
	// CreateUnique atomically re-checks tax id and e-mail uniqueness and
	// inserts the record, generating an id when none is set.
	CreateUnique(ctx context.Context, customer *models.Customer) error
	// Replace overwrites the record stored under customer.ID.
	Replace(ctx context.Context, customer *models.Customer) error
}
