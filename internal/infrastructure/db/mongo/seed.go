package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

// EnsureIndexes creates all collection indexes. Called once at startup,
// before the server accepts traffic.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := NewUserRepository(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	if err := NewSweetRepository(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("sweet indexes: %w", err)
	}
	return nil
}

// SeedDevAdmin creates the development admin account (admin/admin123 with
// roles USER+ADMIN) when it does not exist yet. Only wired up when
// SEED_ADMIN=true; never enable it in production.
func SeedDevAdmin(ctx context.Context, db *mongo.Database) error {
	repo := NewUserRepository(db)

	if _, err := repo.FindByUsername(ctx, "admin"); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = repo.Create(ctx, &domain.User{
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Roles:        []string{domain.RoleUser, domain.RoleAdmin},
		CreatedAt:    time.Now().UTC(),
	})
	if errors.Is(err, domain.ErrUsernameTaken) || errors.Is(err, domain.ErrEmailTaken) {
		// Lost a race with another instance seeding the same account.
		return nil
	}
	return err
}
