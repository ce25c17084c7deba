package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

// SweetInput carries the caller-supplied fields for create and full-replace
// update operations.
type SweetInput struct {
	Name     string
	Category string
	Price    decimal.Decimal
	Quantity int
}

// SweetService defines the inventory use cases.
type SweetService interface {
	Create(ctx context.Context, input SweetInput) (*domain.Sweet, error)
	Update(ctx context.Context, id string, input SweetInput) (*domain.Sweet, error)
	GetByID(ctx context.Context, id string) (*domain.Sweet, error)
	Purchase(ctx context.Context, id string, quantity int) (*domain.Sweet, error)
	Restock(ctx context.Context, id string, quantity int) (*domain.Sweet, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, criteria SearchCriteria) ([]domain.Sweet, error)
}
