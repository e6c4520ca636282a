// Package owners stores vault owners.
package owners

import (
	"context"

	"github.com/dmitrijs2005/credvault/internal/server/models"
)

// Repository persists owners. Lookups return common.ErrorNotFound for an
// unknown owner and Create returns common.ErrorAlreadyExists when the
// username or email is taken.
type Repository interface {
	Create(ctx context.Context, owner *models.Owner) (*models.Owner, error)
	GetByID(ctx context.Context, id string) (*models.Owner, error)
	GetByUsername(ctx context.Context, username string) (*models.Owner, error)
	GetByEmail(ctx context.Context, email string) (*models.Owner, error)
	// Delete removes an owner. An unknown id yields common.ErrorNotFound.
	Delete(ctx context.Context, id string) error
}
