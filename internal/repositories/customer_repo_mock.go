package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"clientes/internal/models"

	"github.com/google/uuid"
)

// MockCustomerRepository is an in-memory implementation of CustomerRepository.
type MockCustomerRepository struct {
	customers map[string]models.Customer
	mu        sync.RWMutex
}

// NewMockCustomerRepository creates a new instance of MockCustomerRepository.
func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{
		customers: make(map[string]models.Customer),
	}
}

func (r *MockCustomerRepository) sorted() []models.Customer {
	list := make([]models.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// List returns one page of customers whose search key contains the folded term.
func (r *MockCustomerRepository) List(_ context.Context, query ListQuery) ([]models.Customer, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query = query.Normalize()
	term := models.Fold(strings.TrimSpace(query.Search))

	matches := make([]models.Customer, 0)
	for _, c := range r.sorted() {
		if term == "" || strings.Contains(c.SearchKey, term) {
			matches = append(matches, c)
		}
	}

	total := int64(len(matches))
	start := query.Offset()
	if start >= len(matches) {
		return []models.Customer{}, total, nil
	}
	end := start + query.PageSize
	if end > len(matches) {
		end = len(matches)
	}
	return matches[start:end], total, nil
}

// All returns every customer ordered by name.
func (r *MockCustomerRepository) All(_ context.Context) ([]models.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(), nil
}

// GetByID returns a customer by its ID.
func (r *MockCustomerRepository) GetByID(_ context.Context, id string) (*models.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customer, ok := r.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer with ID %s: %w", id, ErrNotFound)
	}
	return &customer, nil
}

// ExistsByTaxID reports whether another customer holds taxID.
func (r *MockCustomerRepository) ExistsByTaxID(_ context.Context, taxID, exceptID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.holds(func(c models.Customer) bool { return c.TaxID == taxID }, exceptID), nil
}

// ExistsByEmail reports whether another customer holds email.
func (r *MockCustomerRepository) ExistsByEmail(_ context.Context, email, exceptID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.holds(func(c models.Customer) bool { return c.Email == email }, exceptID), nil
}

func (r *MockCustomerRepository) holds(match func(models.Customer) bool, exceptID string) bool {
	for id, c := range r.customers {
		if id != exceptID && match(c) {
			return true
		}
	}
	return false
}

func (r *MockCustomerRepository) conflicts(customer *models.Customer, exceptID string) error {
	if r.holds(func(c models.Customer) bool { return c.TaxID == customer.TaxID }, exceptID) {
		return ErrDuplicateTaxID
	}
	if r.holds(func(c models.Customer) bool { return c.Email == customer.Email }, exceptID) {
		return ErrDuplicateEmail
	}
	return nil
}

// CreateUnique checks uniqueness and stores the customer under one lock.
func (r *MockCustomerRepository) CreateUnique(_ context.Context, customer *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}
	if _, ok := r.customers[customer.ID]; ok {
		return ErrDuplicateID
	}
	if err := r.conflicts(customer, ""); err != nil {
		return err
	}

	now := time.Now()
	customer.CreatedAt = now
	customer.UpdatedAt = now
	customer.RefreshSearchKey()
	r.customers[customer.ID] = *customer
	return nil
}

// Replace overwrites an existing customer.
func (r *MockCustomerRepository) Replace(_ context.Context, customer *models.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.customers[customer.ID]
	if !ok {
		return fmt.Errorf("customer with ID %s not found for update: %w", customer.ID, ErrNotFound)
	}
	if err := r.conflicts(customer, customer.ID); err != nil {
		return err
	}

	customer.CreatedAt = stored.CreatedAt
	customer.UpdatedAt = time.Now()
	customer.RefreshSearchKey()
	r.customers[customer.ID] = *customer
	return nil
}
