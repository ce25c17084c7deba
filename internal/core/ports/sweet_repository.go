package ports

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
)

// SearchCriteria is a transient value: every field is independently optional
// and absent fields impose no constraint. Name matches as a case-insensitive
// substring, Category matches exactly, price bounds are inclusive.
type SearchCriteria struct {
	Name     string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// IsEmpty reports whether the criteria match everything.
func (c SearchCriteria) IsEmpty() bool {
	return c.Name == "" && c.Category == "" && c.MinPrice == nil && c.MaxPrice == nil
}

// CacheKey returns a stable key describing the criteria. Name is lowercased
// because the substring match is case-insensitive anyway.
func (c SearchCriteria) CacheKey() string {
	min, max := "", ""
	if c.MinPrice != nil {
		min = c.MinPrice.String()
	}
	if c.MaxPrice != nil {
		max = c.MaxPrice.String()
	}
	return fmt.Sprintf("name=%s&category=%s&min=%s&max=%s",
		strings.ToLower(c.Name), c.Category, min, max)
}

// SweetRepository defines persistence operations for sweets.
//
// DecrementStock and IncrementStock must apply their arithmetic atomically:
// two concurrent decrements on the same sweet may never both succeed when
// their combined quantity exceeds the available stock.
type SweetRepository interface {
	Create(ctx context.Context, s *domain.Sweet) (*domain.Sweet, error)
	FindByID(ctx context.Context, id string) (*domain.Sweet, error)
	FindByName(ctx context.Context, name string) (*domain.Sweet, error)
	Update(ctx context.Context, s *domain.Sweet) (*domain.Sweet, error)
	Delete(ctx context.Context, id string) error
	// DecrementStock subtracts qty if and only if the current quantity covers
	// it, returning the updated record. Fails with domain.ErrSweetNotFound or
	// domain.ErrInsufficientStock, leaving the record untouched.
	DecrementStock(ctx context.Context, id string, qty int) (*domain.Sweet, error)
	// IncrementStock adds qty and returns the updated record.
	IncrementStock(ctx context.Context, id string, qty int) (*domain.Sweet, error)
	Search(ctx context.Context, criteria SearchCriteria) ([]domain.Sweet, error)
}
