package repositories

import (
	"context"

	"clientes/internal/models"
)

// UserRepository defines the interface for credential data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// Delete permanently removes the user so the e-mail can be reused.
	Delete(ctx context.Context, id string) error
}
