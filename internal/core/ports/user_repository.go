package ports

import (
	"context"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

// UserRepository defines the persistence contract for user credentials.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
