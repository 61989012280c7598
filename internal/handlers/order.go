// internal/handlers/order.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/shop-backend/internal/i18n"
	"github.com/javajoker/shop-backend/internal/services"
	"github.com/javajoker/shop-backend/internal/utils"
)

type OrderHandler struct {
	orderService   *services.OrderService
	paymentService *services.PaymentService
}

func NewOrderHandler(orderService *services.OrderService, paymentService *services.PaymentService) *OrderHandler {
	return &OrderHandler{
		orderService:   orderService,
		paymentService: paymentService,
	}
}

// newOrderRequest lets the storefront pass the payment intent it already
// confirmed client-side together with the order.
type newOrderRequest struct {
	services.CreateOrderRequest
	PaymentInfo *struct {
		ID string `json:"id"`
	} `json:"paymentInfo,omitempty"`
}

// POST /order/new
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req newOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	actor := currentActor(c)
	order, err := h.orderService.CreateOrder(c.Request.Context(), actor, &req.CreateOrderRequest)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	if req.PaymentInfo != nil && req.PaymentInfo.ID != "" {
		paid, err := h.paymentService.ConfirmOrderPayment(c.Request.Context(), actor, &services.ConfirmPaymentRequest{
			OrderID:         order.ID,
			PaymentIntentID: req.PaymentInfo.ID,
		})
		if err != nil {
			// The order stays pending; the client can retry /payment/confirm.
			logrus.WithError(err).WithField("order_id", order.ID).Warn("Payment not confirmed for new order")
		} else {
			order = paid
		}
	}

	utils.CreatedResponse(c, gin.H{"order": order})
}

// GET /order/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), currentActor(c), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"order": order})
}

// GET /orders/me
func (h *OrderHandler) MyOrders(c *gin.Context) {
	orders, err := h.orderService.MyOrders(c.Request.Context(), currentActor(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"orders": orders})
}

// GET /admin/orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	page := utils.GetPageRequest(c, defaultPageSize, maxPageSize)

	list, err := h.orderService.ListOrders(c.Request.Context(), page)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	info := utils.NewPageInfo(list.Total, page)
	utils.SetPaginationHeaders(c, info)
	utils.SuccessResponse(c, gin.H{
		"orders":      list.Orders,
		"totalAmount": list.TotalAmount,
		"pagination":  info,
	})
}

// PUT /admin/order/:id
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	var req services.UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.UpdateOrderStatus(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"order": order})
}

// DELETE /admin/order/:id
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	if err := h.orderService.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyOrderDeleted),
	})
}
