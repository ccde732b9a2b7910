package services

import (
	"context"
	"fmt"

	"clientes/internal/models"
	"clientes/internal/repositories"
	"clientes/pkg/observer"

	"go.uber.org/zap"
)

// CustomerFeed pushes the full customer list to subscribers whenever it changes.
type CustomerFeed struct {
	repo   repositories.CustomerRepository
	hub    *observer.Hub[[]models.Customer]
	logger *zap.Logger
}

// NewCustomerFeed creates a feed over repo.
func NewCustomerFeed(repo repositories.CustomerRepository, logger *zap.Logger) *CustomerFeed {
	return &CustomerFeed{
		repo:   repo,
		hub:    observer.New[[]models.Customer](),
		logger: logger,
	}
}

// Subscribe registers onChange for every future snapshot.
func (f *CustomerFeed) Subscribe(onChange func([]models.Customer)) (unsubscribe func()) {
	return f.hub.Subscribe(onChange)
}

// Snapshot returns the current list without notifying anyone.
func (f *CustomerFeed) Snapshot(ctx context.Context) ([]models.Customer, error) {
	customers, err := f.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer snapshot: %w", err)
	}
	return customers, nil
}

// Refresh reloads the list and publishes it to all subscribers.
func (f *CustomerFeed) Refresh(ctx context.Context) error {
	if f.hub.Len() == 0 {
		return nil
	}
	customers, err := f.Snapshot(ctx)
	if err != nil {
		return err
	}
	f.hub.Publish(customers)
	f.logger.Debug("customer feed refreshed", zap.Int("customers", len(customers)))
	return nil
}

// Subscribers returns the number of active subscribers.
func (f *CustomerFeed) Subscribers() int {
	return f.hub.Len()
}
