package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository
// ---------------------------------------------------------------------------

type stubSweetRepo struct {
	byID   map[string]*domain.Sweet
	nextID int
}

func newStubSweetRepo() *stubSweetRepo {
	return &stubSweetRepo{byID: make(map[string]*domain.Sweet)}
}

func cloneSweet(s *domain.Sweet) *domain.Sweet {
	clone := *s
	return &clone
}

func (r *stubSweetRepo) Create(_ context.Context, s *domain.Sweet) (*domain.Sweet, error) {
	for _, existing := range r.byID {
		if existing.Name == s.Name {
			return nil, domain.ErrSweetExists
		}
	}
	r.nextID++
	clone := cloneSweet(s)
	clone.ID = fmt.Sprintf("sweet-%d", r.nextID)
	r.byID[clone.ID] = cloneSweet(clone)
	return clone, nil
}

func (r *stubSweetRepo) FindByID(_ context.Context, id string) (*domain.Sweet, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	return cloneSweet(s), nil
}

func (r *stubSweetRepo) FindByName(_ context.Context, name string) (*domain.Sweet, error) {
	for _, s := range r.byID {
		if s.Name == name {
			return cloneSweet(s), nil
		}
	}
	return nil, domain.ErrSweetNotFound
}

func (r *stubSweetRepo) Update(_ context.Context, s *domain.Sweet) (*domain.Sweet, error) {
	if _, ok := r.byID[s.ID]; !ok {
		return nil, domain.ErrSweetNotFound
	}
	r.byID[s.ID] = cloneSweet(s)
	return cloneSweet(s), nil
}

func (r *stubSweetRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrSweetNotFound
	}
	delete(r.byID, id)
	return nil
}

// DecrementStock mirrors the real repo's atomic conditional update.
func (r *stubSweetRepo) DecrementStock(_ context.Context, id string, qty int) (*domain.Sweet, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	if s.Quantity < qty {
		return nil, domain.ErrInsufficientStock
	}
	s.Quantity -= qty
	s.UpdatedAt = time.Now().UTC()
	return cloneSweet(s), nil
}

func (r *stubSweetRepo) IncrementStock(_ context.Context, id string, qty int) (*domain.Sweet, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrSweetNotFound
	}
	s.Quantity += qty
	s.UpdatedAt = time.Now().UTC()
	return cloneSweet(s), nil
}

// Search applies the same conjunctive filter the real Mongo repo builds.
func (r *stubSweetRepo) Search(_ context.Context, c ports.SearchCriteria) ([]domain.Sweet, error) {
	var matched []domain.Sweet
	for _, s := range r.byID {
		if c.Name != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(c.Name)) {
			continue
		}
		if c.Category != "" && s.Category != c.Category {
			continue
		}
		if c.MinPrice != nil && s.Price.LessThan(*c.MinPrice) {
			continue
		}
		if c.MaxPrice != nil && s.Price.GreaterThan(*c.MaxPrice) {
			continue
		}
		matched = append(matched, *cloneSweet(s))
	}
	return matched, nil
}

// ---------------------------------------------------------------------------
// Stub cache
// ---------------------------------------------------------------------------

type stubCache struct {
	entries     map[string][]domain.Sweet
	invalidated int
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string][]domain.Sweet)}
}

func (c *stubCache) Get(_ context.Context, key string) ([]domain.Sweet, bool) {
	sweets, ok := c.entries[key]
	return sweets, ok
}

func (c *stubCache) Set(_ context.Context, key string, sweets []domain.Sweet) {
	c.entries[key] = sweets
}

func (c *stubCache) InvalidateAll(_ context.Context) {
	c.invalidated++
	c.entries = make(map[string][]domain.Sweet)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pricePtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func input(name, category, priceStr string, qty int) ports.SweetInput {
	return ports.SweetInput{Name: name, Category: category, Price: price(priceStr), Quantity: qty}
}

func newSweetService(repo ports.SweetRepository, cache CatalogCache) *SweetService {
	return NewSweetService(repo, cache, zerolog.Nop())
}

// seedShop creates the worked-example inventory.
func seedShop(t *testing.T, svc *SweetService) map[string]string {
	t.Helper()
	ids := make(map[string]string)
	for _, in := range []ports.SweetInput{
		input("Gummy Bears", "Gummy", "2.00", 50),
		input("Dark Chocolate", "Choco", "4.50", 10),
		input("White Chocolate", "Choco", "6.00", 5),
	} {
		created, err := svc.Create(context.Background(), in)
		if err != nil {
			t.Fatalf("seed %q: %v", in.Name, err)
		}
		ids[created.Name] = created.ID
	}
	return ids
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestSweetService_Create_Success(t *testing.T) {
	svc := newSweetService(newStubSweetRepo(), nil)

	created, err := svc.Create(context.Background(), input("Fudge", "Choco", "3.25", 7))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Error("expected server-assigned id")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("timestamps must be set")
	}
	if !created.Price.Equal(price("3.25")) {
		t.Errorf("price %s, want 3.25", created.Price)
	}
}

func TestSweetService_Create_DuplicateName(t *testing.T) {
	svc := newSweetService(newStubSweetRepo(), nil)

	if _, err := svc.Create(context.Background(), input("Fudge", "Choco", "3.25", 7)); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(context.Background(), input("Fudge", "Other", "1.00", 1)); !errors.Is(err, domain.ErrSweetExists) {
		t.Fatalf("expected ErrSweetExists, got %v", err)
	}
}

func TestSweetService_Create_CaseSensitiveNames(t *testing.T) {
	svc := newSweetService(newStubSweetRepo(), nil)

	_, _ = svc.Create(context.Background(), input("Fudge", "Choco", "3.25", 7))
	// Equality is case-sensitive: "fudge" is a different name.
	if _, err := svc.Create(context.Background(), input("fudge", "Choco", "3.25", 7)); err != nil {
		t.Fatalf("case-variant name rejected: %v", err)
	}
}

func TestSweetService_Create_InvalidPrice(t *testing.T) {
	svc := newSweetService(newStubSweetRepo(), nil)

	for _, p := range []string{"-1.00", "3.141"} {
		in := ports.SweetInput{Name: "X", Category: "Y", Price: price(p), Quantity: 1}
		if _, err := svc.Create(context.Background(), in); !errors.Is(err, domain.ErrInvalidPrice) {
			t.Fatalf("price %s: expected ErrInvalidPrice, got %v", p, err)
		}
	}
}

func TestSweetService_Create_TrailingZeroPriceAccepted(t *testing.T) {
	svc := newSweetService(newStubSweetRepo(), nil)

	// 4.500 is numerically 4.50: extra zeros carry no sub-cent precision.
	in := ports.SweetInput{Name: "X", Category: "Y", Price: price("4.500"), Quantity: 1}
	if _, err := svc.Create(context.Background(), in); err != nil {
		t.Fatalf("trailing-zero price rejected: %v", err)
	}
}

func TestSweetService_Create_NegativeQuantity(t *testing.T) {
	svc := newSweetService(newStubSweetRepo(), nil)

	if _, err := svc.Create(context.Background(), input("X", "Y", "1.00", -1)); !errors.Is(err, domain.ErrNegativeQuantity) {
		t.Fatalf("expected ErrNegativeQuantity, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestSweetService_Update_NotFound(t *testing.T) {
	svc := newSweetService(newStubSweetRepo(), nil)

	if _, err := svc.Update(context.Background(), "missing", input("X", "Y", "1.00", 1)); !errors.Is(err, domain.ErrSweetNotFound) {
		t.Fatalf("expected ErrSweetNotFound, got %v", err)
	}
}

func TestSweetService_Update_NameCollision(t *testing.T) {
	repo := newStubSweetRepo()
	svc := newSweetService(repo, nil)
	ids := seedShop(t, svc)

	_, err := svc.Update(context.Background(), ids["Gummy Bears"], input("Dark Chocolate", "Gummy", "2.00", 50))
	if !errors.Is(err, domain.ErrSweetExists) {
		t.Fatalf("expected ErrSweetExists on rename collision, got %v", err)
	}
}

func TestSweetService_Update_SelfRenameAllowed(t *testing.T) {
	repo := newStubSweetRepo()
	svc := newSweetService(repo, nil)
	ids := seedShop(t, svc)

	updated, err := svc.Update(context.Background(), ids["Dark Chocolate"], input("Dark Chocolate", "Choco", "4.75", 12))
	if err != nil {
		t.Fatalf("self-rename rejected: %v", err)
	}
	if !updated.Price.Equal(price("4.75")) || updated.Quantity != 12 {
		t.Errorf("full replace not applied: %+v", updated)
	}
}

// ---------------------------------------------------------------------------
// Purchase / Restock
// ---------------------------------------------------------------------------

func TestSweetService_Purchase_DecrementsExactly(t *testing.T) {
	repo := newStubSweetRepo()
	svc := newSweetService(repo, nil)
	ids := seedShop(t, svc)

	updated, err := svc.Purchase(context.Background(), ids["Dark Chocolate"], 3)
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if updated.Quantity != 7 {
		t.Fatalf("quantity %d, want 7", updated.Quantity)
	}
}

func TestSweetService_Purchase_InsufficientStock_LeavesRecordUntouched(t *testing.T) {
	repo := newStubSweetRepo()
	svc := newSweetService(repo, nil)
	ids := seedShop(t, svc)

	_, err := svc.Purchase(context.Background(), ids["White Chocolate"], 6)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if got := repo.byID[ids["White Chocolate"]].Quantity; got != 5 {
		t.Fatalf("failed purchase mutated stock: %d", got)
	}
}

func TestSweetService_Purchase_ExactStockReachesZero(t *testing.T) {
	repo := newStubSweetRepo()
	svc := newSweetService(repo, nil)
	ids := seedShop(t, svc)

	updated, err := svc.Purchase(context.Background(), ids["White Chocolate"], 5)
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if updated.Quantity != 0 {
		t.Fatalf("quantity %d, want 0", updated.Quantity)
	}
}

func TestSweetService_Purchase_NonPositiveQuantity(t *testing.T) {
	repo := newStubSweetRepo()
	svc := newSweetService(repo, nil)
	ids := seedShop(t, svc)

	for _, q := range []int{0, -4} {
		if _, err := svc.Purchase(context.Background(), ids["Gummy Bears"], q); !errors.Is(err, domain.ErrInvalidQuantity) {
			t.Fatalf("quantity %d: expected ErrInvalidQuantity, got %v", q, err)
		}
	}
	if got := repo.byID[ids["Gummy Bears"]].Quantity; got != 50 {
		t.Fatalf("rejected purchase mutated stock: %d", got)
	}
}

func TestSweetService_Purchase_NotFound(t *testing.T) {
	svc := newSweetService(newStubSweetRepo(), nil)

	if _, err := svc.Purchase(context.Background(), "missing", 1); !errors.Is(err, domain.ErrSweetNotFound) {
		t.Fatalf("expected ErrSweetNotFound, got %v", err)
	}
}

func TestSweetService_Restock_IncrementsExactly(t *testing.T) {
	repo := newStubSweetRepo()
	svc := newSweetService(repo, nil)
	ids := seedShop(t, svc)

	updated, err := svc.Restock(context.Background(), ids["White Chocolate"], 20)
	if err != nil {
		t.Fatalf("Restock: %v", err)
	}
	if updated.Quantity != 25 {
		t.Fatalf("quantity %d, want 25", updated.Quantity)
	}
}

func TestSweetService_Restock_RejectsBelowOne(t *testing.T) {
	repo := newStubSweetRepo()
	svc := newSweetService(repo, nil)
	ids := seedShop(t, svc)

	for _, q := range []int{0, -1} {
		if _, err := svc.Restock(context.Background(), ids["Gummy Bears"], q); !errors.Is(err, domain.ErrInvalidQuantity) {
			t.Fatalf("quantity %d: expected ErrInvalidQuantity, got %v", q, err)
		}
	}
	if got := repo.byID[ids["Gummy Bears"]].Quantity; got != 50 {
		t.Fatalf("rejected restock mutated stock: %d", got)
	}
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestSweetService_Delete(t *testing.T) {
	repo := newStubSweetRepo()
	svc := newSweetService(repo, nil)
	ids := seedShop(t, svc)

	if err := svc.Delete(context.Background(), ids["Gummy Bears"]); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), ids["Gummy Bears"]); !errors.Is(err, domain.ErrSweetNotFound) {
		t.Fatalf("record still present after delete: %v", err)
	}
	if err := svc.Delete(context.Background(), ids["Gummy Bears"]); !errors.Is(err, domain.ErrSweetNotFound) {
		t.Fatalf("expected ErrSweetNotFound on second delete, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Search
// ---------------------------------------------------------------------------

func names(sweets []domain.Sweet) map[string]bool {
	set := make(map[string]bool, len(sweets))
	for _, s := range sweets {
		set[s.Name] = true
	}
	return set
}

func TestSweetService_Search_NoCriteriaReturnsAll(t *testing.T) {
	svc := newSweetService(newStubSweetRepo(), nil)
	seedShop(t, svc)

	results, err := svc.Search(context.Background(), ports.SearchCriteria{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected all 3 sweets, got %d", len(results))
	}
}

func TestSweetService_Search_CategoryExactMatch(t *testing.T) {
	svc := newSweetService(newStubSweetRepo(), nil)
	seedShop(t, svc)

	results, err := svc.Search(context.Background(), ports.SearchCriteria{Category: "Choco"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	got := names(results)
	if len(got) != 2 || !got["Dark Chocolate"] || !got["White Chocolate"] {
		t.Fatalf("category filter returned %v", got)
	}
}

func TestSweetService_Search_NameSubstringCaseInsensitive(t *testing.T) {
	svc := newSweetService(newStubSweetRepo(), nil)
	seedShop(t, svc)

	results, err := svc.Search(context.Background(), ports.SearchCriteria{Name: "CHOCO"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 substring matches, got %d", len(results))
	}
}

func TestSweetService_Search_CombinedCriteria(t *testing.T) {
	svc := newSweetService(newStubSweetRepo(), nil)
	seedShop(t, svc)

	// Worked example: name="choco", category="Choco", price in [3.50, 5.00]
	// must return exactly Dark Chocolate at 4.50.
	results, err := svc.Search(context.Background(), ports.SearchCriteria{
		Name:     "choco",
		Category: "Choco",
		MinPrice: pricePtr("3.50"),
		MaxPrice: pricePtr("5.00"),
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Name != "Dark Chocolate" {
		t.Fatalf("expected exactly Dark Chocolate, got %v", names(results))
	}
	if !results[0].Price.Equal(price("4.50")) {
		t.Fatalf("price %s, want 4.50", results[0].Price)
	}
}

func TestSweetService_Search_PriceBoundsInclusive(t *testing.T) {
	svc := newSweetService(newStubSweetRepo(), nil)
	seedShop(t, svc)

	results, err := svc.Search(context.Background(), ports.SearchCriteria{
		MinPrice: pricePtr("4.50"),
		MaxPrice: pricePtr("6.00"),
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	got := names(results)
	if len(got) != 2 || !got["Dark Chocolate"] || !got["White Chocolate"] {
		t.Fatalf("inclusive bounds returned %v", got)
	}
}

// ---------------------------------------------------------------------------
// Cache interaction
// ---------------------------------------------------------------------------

func TestSweetService_Search_ServesFromCache(t *testing.T) {
	repo := newStubSweetRepo()
	cache := newStubCache()
	svc := newSweetService(repo, cache)
	seedShop(t, svc)

	criteria := ports.SearchCriteria{Category: "Choco"}
	first, err := svc.Search(context.Background(), criteria)
	if err != nil {
		t.Fatalf("first search: %v", err)
	}

	// Bypass the service to mutate the repo: a cached criteria hit must not
	// see the change until invalidation.
	for _, s := range repo.byID {
		s.Category = "Renamed"
	}

	second, err := svc.Search(context.Background(), criteria)
	if err != nil {
		t.Fatalf("second search: %v", err)
	}
	if len(second) != len(first) {
		t.Fatalf("expected cached result, got %d items", len(second))
	}
}

func TestSweetService_Mutations_InvalidateCache(t *testing.T) {
	repo := newStubSweetRepo()
	cache := newStubCache()
	svc := newSweetService(repo, cache)
	ids := seedShop(t, svc)

	before := cache.invalidated
	if _, err := svc.Purchase(context.Background(), ids["Gummy Bears"], 1); err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if _, err := svc.Restock(context.Background(), ids["Gummy Bears"], 1); err != nil {
		t.Fatalf("Restock: %v", err)
	}
	if err := svc.Delete(context.Background(), ids["White Chocolate"]); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if cache.invalidated != before+3 {
		t.Fatalf("expected 3 invalidations, got %d", cache.invalidated-before)
	}
}
