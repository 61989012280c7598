// internal/handlers/review.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/shop-backend/internal/i18n"
	"github.com/javajoker/shop-backend/internal/services"
	"github.com/javajoker/shop-backend/internal/utils"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
	}
}

// PUT /review
func (h *ReviewHandler) UpsertReview(c *gin.Context) {
	var req services.ReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.reviewService.UpsertReview(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"product":      product,
		"ratings":      product.Ratings,
		"numOfReviews": product.NumOfReviews,
	})
}

// GET /reviews?id=
func (h *ReviewHandler) GetReviews(c *gin.Context) {
	reviews, err := h.reviewService.ListReviews(c.Request.Context(), c.Query("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"reviews": reviews})
}

// DELETE /review?productId=&id=
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	product, err := h.reviewService.DeleteReview(c.Request.Context(), currentActor(c), c.Query("productId"), c.Query("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message":      i18n.T(utils.GetLangFromContext(c), i18n.KeyReviewDeleted),
		"ratings":      product.Ratings,
		"numOfReviews": product.NumOfReviews,
	})
}
