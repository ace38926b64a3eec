package users

import (
	"context"

	"github.com/dmitrijs2005/authkit/internal/server/models"
)

// Repository is the credential store. Lookups return common.ErrorNotFound
// for missing users; Create returns common.ErrorAlreadyExists for a taken email.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// Update persists profile name, role and active flag.
	Update(ctx context.Context, user *models.User) (*models.User, error)
	// List returns users newest first.
	List(ctx context.Context, skip, limit int) ([]*models.User, error)
	// SoftDelete stamps deleted_at and deactivates the user.
	SoftDelete(ctx context.Context, id int64) error
}
