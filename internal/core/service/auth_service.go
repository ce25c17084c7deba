package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
	"github.com/sweetshop/sweetshop-api/internal/core/token"
)

// AuthService implements registration and login.
type AuthService struct {
	repo  ports.UserRepository
	codec *token.Codec
	log   zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, codec *token.Codec, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, codec: codec, log: log}
}

// Register hashes the password, assigns the default USER role, and persists
// the new account. Username and email uniqueness are checked independently
// so the conflict message names the offending field; the storage layer's
// unique indexes back-stop concurrent registrations.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	if username == "" || email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if taken, err := s.repo.ExistsByUsername(ctx, username); err != nil {
		return nil, err
	} else if taken {
		return nil, domain.ErrUsernameTaken
	}
	if taken, err := s.repo.ExistsByEmail(ctx, email); err != nil {
		return nil, err
	} else if taken {
		return nil, domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Roles:        []string{domain.RoleUser},
		CreatedAt:    time.Now().UTC(),
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("username", created.Username).Msg("user registered")
	return created, nil
}

// Login verifies the credentials and issues a session token. Unknown user
// and wrong password both return ErrInvalidCredentials so the response never
// reveals which check failed.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	signed, issuedAt, expiresAt, err := s.codec.Issue(user.Username, user.Roles, time.Now())
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("username", user.Username).Msg("login succeeded")

	return &ports.LoginResult{
		Token:     signed,
		Username:  user.Username,
		Roles:     user.Roles,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}
