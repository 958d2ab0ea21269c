package customer

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence interface for customers
type Repository interface {
	// FindByID finds a customer by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindByEmail finds a customer by email (case-insensitive)
	FindByEmail(ctx context.Context, email string) (*Customer, error)

	// FindByIDs finds customers by a set of IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Customer, error)

	// Save creates or updates a customer
	Save(ctx context.Context, c *Customer) error
}
