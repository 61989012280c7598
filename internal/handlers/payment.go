// internal/handlers/payment.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/shop-backend/internal/services"
	"github.com/javajoker/shop-backend/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// POST /payment/process
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	var req services.ProcessPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	intent, err := h.paymentService.ProcessPayment(c.Request.Context(), currentActor(c).ID, &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"client_secret": intent.ClientSecret})
}

// GET /stripeapikey
func (h *PaymentHandler) SendStripeAPIKey(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{"stripeApiKey": h.paymentService.PublishableKey()})
}

// POST /payment/confirm
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	var req services.ConfirmPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.paymentService.ConfirmOrderPayment(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"order": order})
}

// POST /admin/payment/refund
func (h *PaymentHandler) RefundOrder(c *gin.Context) {
	var req services.RefundRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.paymentService.RefundOrder(c.Request.Context(), &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"order": order})
}
