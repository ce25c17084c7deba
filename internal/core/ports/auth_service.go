package ports

import (
	"context"
	"time"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

// LoginResult is returned on successful authentication: the signed session
// token plus a snapshot of the roles and validity window it encodes.
type LoginResult struct {
	Token     string
	Username  string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AuthService defines registration and login use cases.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
}
