package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clientes/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCustomerRepository is a GORM implementation of CustomerRepository.
type GORMCustomerRepository struct {
	db *gorm.DB
}

// NewGORMCustomerRepository creates a new instance of GORMCustomerRepository.
func NewGORMCustomerRepository(db *gorm.DB) *GORMCustomerRepository {
	return &GORMCustomerRepository{
		db: db,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// List retrieves one page of customers matching the folded search term.
func (r *GORMCustomerRepository) List(ctx context.Context, query ListQuery) ([]models.Customer, int64, error) {
	query = query.Normalize()
	q := r.db.WithContext(ctx).Model(&models.Customer{})
	if term := models.Fold(strings.TrimSpace(query.Search)); term != "" {
		q = q.Where(`search_key LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(term)+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	var customers []models.Customer
	if err := q.Order("name ASC, id ASC").Offset(query.Offset()).Limit(query.PageSize).Find(&customers).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, total, nil
}

// All retrieves every customer ordered by name.
func (r *GORMCustomerRepository) All(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	if err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&customers).Error; err != nil {
		return nil, fmt.Errorf("failed to get all customers: %w", err)
	}
	return customers, nil
}

// GetByID retrieves a single customer by its ID.
func (r *GORMCustomerRepository) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("customer with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get customer by ID %s: %w", id, err)
	}
	return &customer, nil
}

// ExistsByTaxID reports whether another customer holds taxID.
func (r *GORMCustomerRepository) ExistsByTaxID(ctx context.Context, taxID, exceptID string) (bool, error) {
	return exists(r.db.WithContext(ctx), "tax_id", taxID, exceptID)
}

// ExistsByEmail reports whether another customer holds email.
func (r *GORMCustomerRepository) ExistsByEmail(ctx context.Context, email, exceptID string) (bool, error) {
	return exists(r.db.WithContext(ctx), "email", email, exceptID)
}

func exists(db *gorm.DB, column, value, exceptID string) (bool, error) {
	var count int64
	q := db.Model(&models.Customer{}).Where(column+" = ?", value)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check customer %s: %w", column, err)
	}
	return count > 0, nil
}

// conflicts returns the uniqueness error the customer would violate, if any.
func conflicts(db *gorm.DB, customer *models.Customer, exceptID string) error {
	taken, err := exists(db, "tax_id", customer.TaxID, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateTaxID
	}
	taken, err = exists(db, "email", customer.Email, exceptID)
	if err != nil {
		return err
	}
	if taken {
		return ErrDuplicateEmail
	}
	return nil
}

// CreateUnique checks uniqueness and inserts the customer in one transaction.
// The unique indexes on tax_id and email catch writers racing past the check.
func (r *GORMCustomerRepository) CreateUnique(ctx context.Context, customer *models.Customer) error {
	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Customer{}).Where("id = ?", customer.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check customer id: %w", err)
		}
		if count > 0 {
			return ErrDuplicateID
		}
		if err := conflicts(tx, customer, ""); err != nil {
			return err
		}
		return tx.Create(customer).Error
	})
	return r.translate(ctx, customer, "", "create", err)
}

// Replace overwrites every field of the customer stored under customer.ID.
func (r *GORMCustomerRepository) Replace(ctx context.Context, customer *models.Customer) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored models.Customer
		if err := tx.First(&stored, "id = ?", customer.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("customer with ID %s not found for update: %w", customer.ID, ErrNotFound)
			}
			return err
		}
		if err := conflicts(tx, customer, customer.ID); err != nil {
			return err
		}
		customer.CreatedAt = stored.CreatedAt
		return tx.Save(customer).Error
	})
	return r.translate(ctx, customer, customer.ID, "update", err)
}

// translate maps a unique index violation back to the field that caused it.
func (r *GORMCustomerRepository) translate(ctx context.Context, customer *models.Customer, exceptID, op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrDuplicateTaxID), errors.Is(err, ErrDuplicateEmail),
		errors.Is(err, ErrDuplicateID), errors.Is(err, ErrNotFound):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		if cerr := conflicts(r.db.WithContext(ctx), customer, exceptID); cerr != nil {
			return cerr
		}
		return ErrDuplicateID
	default:
		return fmt.Errorf("failed to %s customer: %w", op, err)
	}
}
