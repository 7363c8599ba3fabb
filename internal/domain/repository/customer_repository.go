package repository

import (
	"context"
	"errors"

	"github.com/sangkips/mini-crm/internal/domain/entity"
)

// ErrDuplicateEmail is returned when the unique email index rejects a write
var ErrDuplicateEmail = errors.New("customer email violates unique index")

// CustomerRepository defines the interface for customer data operations
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id uint64) (*entity.Customer, error)
	// List returns customers newest first.
	List(ctx context.Context, limit, offset int) ([]entity.Customer, error)
	// Search matches term as a case-insensitive substring of name or email.
	Search(ctx context.Context, term string, limit, offset int) ([]entity.Customer, error)
	// Count counts all customers, or only those matching term when it is non-empty.
	Count(ctx context.Context, term string) (int64, error)
	// Update replaces name, email and phone. It reports false when no row matched.
	Update(ctx context.Context, customer *entity.Customer) (bool, error)
	// Delete reports false when no row matched.
	Delete(ctx context.Context, id uint64) (bool, error)
	// EmailExists checks for the email on any row other than excludeID (0 excludes nothing).
	EmailExists(ctx context.Context, email string, excludeID uint64) (bool, error)
}
