// internal/models/product.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is stored as a single document in the catalog collection with its
// reviews embedded. Ratings and NumOfReviews are derived from Reviews and
// must only be changed through the review methods below.
type Product struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Description  string             `json:"description" bson:"description"`
	Price        float64            `json:"price" bson:"price"`
	Ratings      float64            `json:"ratings" bson:"ratings"`
	Images       []Image            `json:"images" bson:"images"`
	Category     string             `json:"category" bson:"category"`
	Stock        int                `json:"stock" bson:"stock"`
	NumOfReviews int                `json:"numOfReviews" bson:"numOfReviews"`
	Reviews      []Review           `json:"reviews" bson:"reviews"`
	User         string             `json:"user" bson:"user"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
}

type Review struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id"`
	User    string             `json:"user" bson:"user"`
	Name    string             `json:"name" bson:"name"`
	Rating  int                `json:"rating" bson:"rating"`
	Comment string             `json:"comment" bson:"comment"`
}

const (
	MinRating       = 1
	MaxRating       = 5
	DefaultStock    = 1
	MaxProductStock = 9999
)

// UpsertReview replaces the rating and comment of the author's existing
// review in place, or appends a new review. Derived fields are recomputed.
func (p *Product) UpsertReview(authorID, authorName string, rating int, comment string) Review {
	var review Review
	if idx := p.reviewIndexByAuthor(authorID); idx >= 0 {
		p.Reviews[idx].Rating = rating
		p.Reviews[idx].Comment = comment
		review = p.Reviews[idx]
	} else {
		review = Review{
			ID:      primitive.NewObjectID(),
			User:    authorID,
			Name:    authorName,
			Rating:  rating,
			Comment: comment,
		}
		p.Reviews = append(p.Reviews, review)
	}

	p.RecalculateRatings()
	return review
}

// DeleteReview removes the review with the given id. It reports false and
// leaves the product untouched when no review matches.
func (p *Product) DeleteReview(reviewID primitive.ObjectID) bool {
	remaining := make([]Review, 0, len(p.Reviews))
	for _, rev := range p.Reviews {
		if rev.ID != reviewID {
			remaining = append(remaining, rev)
		}
	}
	if len(remaining) == len(p.Reviews) {
		return false
	}

	p.Reviews = remaining
	p.RecalculateRatings()
	return true
}

// FindReview returns the review with the given id, if any.
func (p *Product) FindReview(reviewID primitive.ObjectID) (Review, bool) {
	for _, rev := range p.Reviews {
		if rev.ID == reviewID {
			return rev, true
		}
	}
	return Review{}, false
}

// RecalculateRatings derives Ratings and NumOfReviews from the full review
// set. An empty set yields 0 for both.
func (p *Product) RecalculateRatings() {
	if p.Reviews == nil {
		p.Reviews = []Review{}
	}

	p.NumOfReviews = len(p.Reviews)
	if p.NumOfReviews == 0 {
		p.Ratings = 0
		return
	}

	sum := 0
	for _, rev := range p.Reviews {
		sum += rev.Rating
	}
	p.Ratings = float64(sum) / float64(p.NumOfReviews)
}

func (p *Product) reviewIndexByAuthor(authorID string) int {
	for i, rev := range p.Reviews {
		if rev.User == authorID {
			return i
		}
	}
	return -1
}

func (p *Product) PublicIDs() []string {
	ids := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img.PublicID != "" {
			ids = append(ids, img.PublicID)
		}
	}
	return ids
}
