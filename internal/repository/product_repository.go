// internal/repository/product_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/javajoker/shop-backend/internal/models"
	"github.com/javajoker/shop-backend/internal/query"
)

const ProductCollection = "products"

var (
	ErrNotFound          = errors.New("document not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductRepository is the catalog's document store.
type ProductRepository interface {
	// Find runs a composed listing query.
	Find(ctx context.Context, q query.Descriptor) ([]models.Product, error)
	// Count counts documents matching a predicate, ignoring pagination.
	Count(ctx context.Context, filter bson.M) (int64, error)
	FindAll(ctx context.Context) ([]models.Product, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	// Update replaces the editable fields and returns the stored document.
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	// SaveReviews writes reviews, ratings and numOfReviews in one update.
	SaveReviews(ctx context.Context, product *models.Product) (*models.Product, error)
	// AdjustStock adds delta to stock, refusing to go below zero.
	AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type mongoProductRepository struct {
	coll *mongo.Collection
}

func NewProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepository{coll: db.Collection(ProductCollection)}
}

func (r *mongoProductRepository) Find(ctx context.Context, q query.Descriptor) ([]models.Product, error) {
	opts := options.Find()
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	if len(q.Sort) > 0 {
		opts.SetSort(q.Sort)
	}

	filter := q.Filter
	if filter == nil {
		filter = bson.M{}
	}
	return r.find(ctx, filter, opts)
}

func (r *mongoProductRepository) Count(ctx context.Context, filter bson.M) (int64, error) {
	if filter == nil {
		filter = bson.M{}
	}
	n, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *mongoProductRepository) FindAll(ctx context.Context) ([]models.Product, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *mongoProductRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Product, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func (r *mongoProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product %s: %w", id.Hex(), err)
	}
	return &product, nil
}

func (r *mongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	if product.Reviews == nil {
		product.Reviews = []models.Review{}
	}
	if product.Images == nil {
		product.Images = []models.Image{}
	}

	if _, err := r.coll.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *mongoProductRepository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	return r.setAndReturn(ctx, product.ID, bson.M{
		"name":        product.Name,
		"description": product.Description,
		"price":       product.Price,
		"category":    product.Category,
		"stock":       product.Stock,
		"images":      product.Images,
	})
}

func (r *mongoProductRepository) SaveReviews(ctx context.Context, product *models.Product) (*models.Product, error) {
	return r.setAndReturn(ctx, product.ID, bson.M{
		"reviews":      product.Reviews,
		"ratings":      product.Ratings,
		"numOfReviews": product.NumOfReviews,
	})
}

func (r *mongoProductRepository) setAndReturn(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Product, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Product
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update product %s: %w", id.Hex(), err)
	}
	return &updated, nil
}

func (r *mongoProductRepository) AdjustStock(ctx context.Context, id primitive.ObjectID, delta int) error {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}

	res, err := r.coll.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"stock": delta}})
	if err != nil {
		return fmt.Errorf("adjust stock of %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		// Either the product is gone or the guard rejected the decrement.
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("adjust stock of %s: %w", id.Hex(), err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrInsufficientStock
	}
	return nil
}

func (r *mongoProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
