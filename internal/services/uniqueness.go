package services

import (
	"context"

	"clientes/internal/repositories"
)

// ExistenceChecker answers whether a tax id or e-mail is already registered.
type ExistenceChecker interface {
	TaxIDExists(ctx context.Context, taxID string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	// The Except variants ignore the record identified by exceptID.
	TaxIDExistsExcept(ctx context.Context, taxID, exceptID string) (bool, error)
	EmailExistsExcept(ctx context.Context, email, exceptID string) (bool, error)
}

// UniquenessChecker is the repository-backed ExistenceChecker. Lookups are
// exact matches: tax ids must be formatted before asking.
type UniquenessChecker struct {
	repo repositories.CustomerRepository
}

// NewUniquenessChecker creates a new UniquenessChecker.
func NewUniquenessChecker(repo repositories.CustomerRepository) *UniquenessChecker {
	return &UniquenessChecker{repo: repo}
}

// TaxIDExists reports whether a customer holds the formatted taxID.
func (u *UniquenessChecker) TaxIDExists(ctx context.Context, taxID string) (bool, error) {
	return u.repo.ExistsByTaxID(ctx, taxID, "")
}

// EmailExists reports whether a customer holds email.
func (u *UniquenessChecker) EmailExists(ctx context.Context, email string) (bool, error) {
	return u.repo.ExistsByEmail(ctx, email, "")
}

// TaxIDExistsExcept is TaxIDExists ignoring the customer exceptID.
func (u *UniquenessChecker) TaxIDExistsExcept(ctx context.Context, taxID, exceptID string) (bool, error) {
	return u.repo.ExistsByTaxID(ctx, taxID, exceptID)
}

// EmailExistsExcept is EmailExists ignoring the customer exceptID.
func (u *UniquenessChecker) EmailExistsExcept(ctx context.Context, email, exceptID string) (bool, error) {
	return u.repo.ExistsByEmail(ctx, email, exceptID)
}
