// internal/services/review_service.go
package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/javajoker/shop-backend/internal/i18n"
	"github.com/javajoker/shop-backend/internal/models"
	"github.com/javajoker/shop-backend/internal/repository"
	"github.com/javajoker/shop-backend/internal/utils"
)

// ReviewService keeps a product's embedded reviews and the ratings derived
// from them. Every write stores reviews, ratings and numOfReviews together.
type ReviewService struct {
	repo repository.ProductRepository
}

type ReviewRequest struct {
	ProductID string `json:"productId" validate:"required,objectid"`
	Rating    int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

func NewReviewService(repo repository.ProductRepository) *ReviewService {
	return &ReviewService{repo: repo}
}

func (s *ReviewService) findProduct(ctx context.Context, id string) (*models.Product, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	product, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return nil, productError(err)
	}
	return product, nil
}

// UpsertReview adds the actor's review or replaces their earlier one.
func (s *ReviewService) UpsertReview(ctx context.Context, actor Actor, req *ReviewRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, utils.InvalidInput(err)
	}

	product, err := s.findProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	review := product.UpsertReview(actor.ID, actor.Name, req.Rating, req.Comment)

	saved, err := s.repo.SaveReviews(ctx, product)
	if err != nil {
		return nil, productError(err)
	}

	logrus.WithFields(logrus.Fields{
		"product_id": product.ID.Hex(),
		"review_id":  review.ID.Hex(),
		"ratings":    saved.Ratings,
	}).Debug("Review saved")
	return saved, nil
}

func (s *ReviewService) ListReviews(ctx context.Context, productID string) ([]models.Review, error) {
	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Reviews == nil {
		return []models.Review{}, nil
	}
	return product.Reviews, nil
}

// DeleteReview removes one review. An unknown review id succeeds without
// writing. Only the author or an admin may delete a review.
func (s *ReviewService) DeleteReview(ctx context.Context, actor Actor, productID, reviewID string) (*models.Product, error) {
	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	rid, err := primitive.ObjectIDFromHex(reviewID)
	if err != nil {
		return product, nil
	}
	review, ok := product.FindReview(rid)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"product_id": product.ID.Hex(),
			"review_id":  reviewID,
		}).Debug("Review to delete not found, nothing to do")
		return product, nil
	}
	if review.User != actor.ID && !actor.IsAdmin() {
		return nil, utils.Forbidden(i18n.KeyReviewForbidden)
	}

	product.DeleteReview(rid)

	saved, err := s.repo.SaveReviews(ctx, product)
	if err != nil {
		return nil, productError(err)
	}
	return saved, nil
}
