package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestProduct_UpsertReview_DistinctAuthors(t *testing.T) {
	p := &Product{}

	ratings := map[string]int{"a": 5, "b": 4, "c": 1, "d": 2}
	sum := 0
	for author, rating := range ratings {
		p.UpsertReview(author, "name-"+author, rating, "ok")
		sum += rating
	}

	assert.Equal(t, len(ratings), p.NumOfReviews)
	assert.Len(t, p.Reviews, len(ratings))
	assert.InDelta(t, float64(sum)/float64(len(ratings)), p.Ratings, 1e-9)
}

func TestProduct_UpsertReview_SameAuthorReplacesInPlace(t *testing.T) {
	p := &Product{}
	p.UpsertReview("a", "Alice", 2, "meh")
	first := p.UpsertReview("b", "Bob", 4, "good")

	updated := p.UpsertReview("b", "Robert", 5, "great")

	require.Equal(t, 2, p.NumOfReviews)
	assert.Equal(t, first.ID, updated.ID)
	assert.Equal(t, "b", p.Reviews[1].User)
	assert.Equal(t, 5, p.Reviews[1].Rating)
	assert.Equal(t, "great", p.Reviews[1].Comment)
	// the author name is a snapshot from the first submission
	assert.Equal(t, "Bob", p.Reviews[1].Name)
	assert.InDelta(t, 3.5, p.Ratings, 1e-9)
}

func TestProduct_DeleteReview_Scenario(t *testing.T) {
	p := &Product{}
	a := p.UpsertReview("A", "Alice", 4, "")
	b := p.UpsertReview("B", "Bob", 2, "")

	assert.Equal(t, 3.0, p.Ratings)
	assert.Equal(t, 2, p.NumOfReviews)

	require.True(t, p.DeleteReview(b.ID))
	assert.Equal(t, 4.0, p.Ratings)
	assert.Equal(t, 1, p.NumOfReviews)

	require.True(t, p.DeleteReview(a.ID))
	assert.Equal(t, 0.0, p.Ratings)
	assert.Equal(t, 0, p.NumOfReviews)
	assert.NotNil(t, p.Reviews)
	assert.Empty(t, p.Reviews)
}

func TestProduct_DeleteReview_UnknownIDIsNoop(t *testing.T) {
	p := &Product{}
	p.UpsertReview("A", "Alice", 3, "")
	before := *p

	assert.False(t, p.DeleteReview(primitive.NewObjectID()))
	assert.Equal(t, before.Reviews, p.Reviews)
	assert.Equal(t, before.Ratings, p.Ratings)
	assert.Equal(t, before.NumOfReviews, p.NumOfReviews)
}

func TestProduct_RecalculateRatings_RederivesFromSet(t *testing.T) {
	p := &Product{
		Ratings:      4.9,
		NumOfReviews: 17,
		Reviews: []Review{
			{ID: primitive.NewObjectID(), User: "x", Rating: 1},
			{ID: primitive.NewObjectID(), User: "y", Rating: 2},
		},
	}

	p.RecalculateRatings()

	assert.Equal(t, 2, p.NumOfReviews)
	assert.Equal(t, 1.5, p.Ratings)
}

func TestProduct_RecalculateRatings_Empty(t *testing.T) {
	p := &Product{Ratings: 3}
	p.RecalculateRatings()

	assert.Equal(t, 0.0, p.Ratings)
	assert.Equal(t, 0, p.NumOfReviews)
	assert.NotNil(t, p.Reviews)
}

func TestProduct_RatingsAreNotRounded(t *testing.T) {
	p := &Product{}
	p.UpsertReview("a", "", 5, "")
	p.UpsertReview("b", "", 4, "")
	p.UpsertReview("c", "", 4, "")

	assert.InDelta(t, 13.0/3.0, p.Ratings, 1e-12)
}

func TestProduct_FindReviewAndPublicIDs(t *testing.T) {
	p := &Product{Images: []Image{{PublicID: "products/1", URL: "u1"}, {URL: "external"}, {PublicID: "products/2"}}}
	rev := p.UpsertReview("a", "Alice", 5, "")

	got, ok := p.FindReview(rev.ID)
	assert.True(t, ok)
	assert.Equal(t, rev, got)

	_, ok = p.FindReview(primitive.NewObjectID())
	assert.False(t, ok)

	assert.Equal(t, []string{"products/1", "products/2"}, p.PublicIDs())
}
