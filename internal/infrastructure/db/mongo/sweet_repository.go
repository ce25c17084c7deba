package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sweetshop/sweetshop-api/internal/core/domain"
	"github.com/sweetshop/sweetshop-api/internal/core/ports"
)

const sweetsCollection = "sweets"

// SweetRepository persists sweets in MongoDB. Prices are stored as integer
// cents so range filters compare exactly, with no floating representation in
// between. Stock arithmetic uses single-document conditional updates, which
// MongoDB applies atomically; that serializes conflicting purchase/restock
// mutations on the same sweet.
type SweetRepository struct {
	coll *mongo.Collection
}

func NewSweetRepository(db *mongo.Database) *SweetRepository {
	return &SweetRepository{coll: db.Collection(sweetsCollection)}
}

type sweetDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Name       string             `bson:"name"`
	Category   string             `bson:"category"`
	PriceCents int64              `bson:"price_cents"`
	Quantity   int                `bson:"quantity"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

func toDoc(s *domain.Sweet) sweetDoc {
	return sweetDoc{
		Name:       s.Name,
		Category:   s.Category,
		PriceCents: priceToCents(s.Price),
		Quantity:   s.Quantity,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

func (d *sweetDoc) toDomain() *domain.Sweet {
	return &domain.Sweet{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Category:  d.Category,
		Price:     decimal.New(d.PriceCents, -2),
		Quantity:  d.Quantity,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func priceToCents(p decimal.Decimal) int64 {
	return p.Shift(2).IntPart()
}

func (r *SweetRepository) Create(ctx context.Context, s *domain.Sweet) (*domain.Sweet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toDoc(s)
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrSweetExists
		}
		return nil, fmt.Errorf("insert sweet: %w", err)
	}

	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *SweetRepository) FindByID(ctx context.Context, id string) (*domain.Sweet, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrSweetNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc sweetDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSweetNotFound
		}
		return nil, fmt.Errorf("find sweet: %w", err)
	}
	return doc.toDomain(), nil
}

// FindByName matches the name exactly (case-sensitive).
func (r *SweetRepository) FindByName(ctx context.Context, name string) (*domain.Sweet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc sweetDoc
	if err := r.coll.FindOne(ctx, bson.M{"name": name}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSweetNotFound
		}
		return nil, fmt.Errorf("find sweet by name: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *SweetRepository) Update(ctx context.Context, s *domain.Sweet) (*domain.Sweet, error) {
	oid, err := primitive.ObjectIDFromHex(s.ID)
	if err != nil {
		return nil, domain.ErrSweetNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"name":        s.Name,
		"category":    s.Category,
		"price_cents": priceToCents(s.Price),
		"quantity":    s.Quantity,
		"updated_at":  s.UpdatedAt,
	}}

	res, err := r.coll.UpdateByID(ctx, oid, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrSweetExists
		}
		return nil, fmt.Errorf("update sweet: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrSweetNotFound
	}
	return r.FindByID(ctx, s.ID)
}

func (r *SweetRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrSweetNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete sweet: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrSweetNotFound
	}
	return nil
}

// DecrementStock applies the purchase as one conditional update: the filter
// only matches while quantity still covers qty, so concurrent purchases can
// never drive the counter below zero.
func (r *SweetRepository) DecrementStock(ctx context.Context, id string, qty int) (*domain.Sweet, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrSweetNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": oid, "quantity": bson.M{"$gte": qty}}
	update := bson.M{
		"$inc": bson.M{"quantity": -qty},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc sweetDoc
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Either the sweet is missing or the stock did not cover qty.
			if _, findErr := r.FindByID(ctx, id); findErr != nil {
				return nil, findErr
			}
			return nil, domain.ErrInsufficientStock
		}
		return nil, fmt.Errorf("decrement stock: %w", err)
	}
	return doc.toDomain(), nil
}

// IncrementStock adds qty atomically and returns the updated record.
func (r *SweetRepository) IncrementStock(ctx context.Context, id string, qty int) (*domain.Sweet, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrSweetNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{
		"$inc": bson.M{"quantity": qty},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc sweetDoc
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSweetNotFound
		}
		return nil, fmt.Errorf("increment stock: %w", err)
	}
	return doc.toDomain(), nil
}

// Search builds a conjunctive bson filter from the present criteria fields
// only. Absent fields impose no constraint; empty criteria match everything.
func (r *SweetRepository) Search(ctx context.Context, criteria ports.SearchCriteria) ([]domain.Sweet, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := buildSearchFilter(criteria)

	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search sweets: %w", err)
	}
	defer cur.Close(ctx)

	sweets := []domain.Sweet{}
	for cur.Next(ctx) {
		var doc sweetDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode sweet: %w", err)
		}
		sweets = append(sweets, *doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("search sweets: %w", err)
	}
	return sweets, nil
}

func buildSearchFilter(c ports.SearchCriteria) bson.M {
	filter := bson.M{}
	if c.Name != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(c.Name), "$options": "i"}
	}
	if c.Category != "" {
		filter["category"] = c.Category
	}
	// Bounds finer than a cent round toward the interval's inside (min up,
	// max down) so the comparison stays as strict as the decimal one.
	price := bson.M{}
	if c.MinPrice != nil {
		price["$gte"] = c.MinPrice.Shift(2).Ceil().IntPart()
	}
	if c.MaxPrice != nil {
		price["$lte"] = c.MaxPrice.Shift(2).Floor().IntPart()
	}
	if len(price) > 0 {
		filter["price_cents"] = price
	}
	return filter
}

// EnsureIndexes creates the unique name index backing sweet-name conflicts.
func (r *SweetRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
