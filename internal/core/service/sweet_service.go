package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

// CatalogCache abstracts the search-result cache (Redis). Implementations
// must treat failures as misses; caching never breaks a search.
type CatalogCache interface {
	Get(ctx context.Context, key string) ([]domain.Sweet, bool)
	Set(ctx context.Context, key string, sweets []domain.Sweet)
	// InvalidateAll drops every cached search result.
	InvalidateAll(ctx context.Context)
}

// SweetService enforces the inventory invariants: unique name, non-negative
// fixed-point price, non-negative stock, and guarded purchase/restock
// arithmetic. The atomicity of concurrent stock mutations is delegated to
// the repository's conditional updates.
type SweetService struct {
	repo  ports.SweetRepository
	cache CatalogCache // nil disables caching
	log   zerolog.Logger
}

func NewSweetService(repo ports.SweetRepository, cache CatalogCache, log zerolog.Logger) *SweetService {
	return &SweetService{repo: repo, cache: cache, log: log}
}

// validateInput re-asserts boundary checks defensively: the transport layer
// validates first, but the service never trusts it.
func validateInput(input ports.SweetInput) error {
	// Rounding must not change the value: trailing zeros (4.500) are fine,
	// sub-cent precision (3.141) is not.
	if input.Price.IsNegative() || !input.Price.Equal(input.Price.Round(2)) {
		return domain.ErrInvalidPrice
	}
	if input.Quantity < 0 {
		return domain.ErrNegativeQuantity
	}
	return nil
}

func (s *SweetService) Create(ctx context.Context, input ports.SweetInput) (*domain.Sweet, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	// Exact, case-sensitive name uniqueness. The unique index catches races.
	if _, err := s.repo.FindByName(ctx, input.Name); err == nil {
		return nil, domain.ErrSweetExists
	} else if !errors.Is(err, domain.ErrSweetNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.Sweet{
		Name:      input.Name,
		Category:  input.Category,
		Price:     input.Price,
		Quantity:  input.Quantity,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.Info().Str("name", created.Name).Str("category", created.Category).Msg("sweet created")
	return created, nil
}

// Update is a full replace. Renaming to a name held by a different record is
// a conflict; renaming to the record's own name is allowed.
func (s *SweetService) Update(ctx context.Context, id string, input ports.SweetInput) (*domain.Sweet, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if byName, err := s.repo.FindByName(ctx, input.Name); err == nil {
		if byName.ID != existing.ID {
			return nil, domain.ErrSweetExists
		}
	} else if !errors.Is(err, domain.ErrSweetNotFound) {
		return nil, err
	}

	existing.Name = input.Name
	existing.Category = input.Category
	existing.Price = input.Price
	existing.Quantity = input.Quantity
	existing.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return updated, nil
}

func (s *SweetService) GetByID(ctx context.Context, id string) (*domain.Sweet, error) {
	return s.repo.FindByID(ctx, id)
}

// Purchase decrements stock by quantity. Insufficient stock is a business
// rejection that leaves the record untouched.
func (s *SweetService) Purchase(ctx context.Context, id string, quantity int) (*domain.Sweet, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	updated, err := s.repo.DecrementStock(ctx, id, quantity)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.Info().Str("id", id).Int("quantity", quantity).Int("remaining", updated.Quantity).Msg("sweet purchased")
	return updated, nil
}

// Restock increments stock by quantity (>= 1). Admin-only; the authorization
// gate enforces the role before this runs.
func (s *SweetService) Restock(ctx context.Context, id string, quantity int) (*domain.Sweet, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	updated, err := s.repo.IncrementStock(ctx, id, quantity)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.Info().Str("id", id).Int("quantity", quantity).Int("stock", updated.Quantity).Msg("sweet restocked")
	return updated, nil
}

// Delete permanently removes the record. No soft-delete.
func (s *SweetService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.log.Info().Str("id", id).Msg("sweet deleted")
	return nil
}

// Search builds a conjunctive filter from the present criteria fields only.
// Results for identical criteria are served from the catalog cache until the
// next inventory mutation.
func (s *SweetService) Search(ctx context.Context, criteria ports.SearchCriteria) ([]domain.Sweet, error) {
	key := criteria.CacheKey()
	if s.cache != nil {
		if sweets, ok := s.cache.Get(ctx, key); ok {
			return sweets, nil
		}
	}

	sweets, err := s.repo.Search(ctx, criteria)
	if err != nil {
		return nil, err
	}
	if sweets == nil {
		sweets = []domain.Sweet{}
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, sweets)
	}
	return sweets, nil
}

func (s *SweetService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateAll(ctx)
	}
}
