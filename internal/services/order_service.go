// internal/services/order_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/shop-backend/internal/i18n"
	"github.com/javajoker/shop-backend/internal/models"
	"github.com/javajoker/shop-backend/internal/repository"
	"github.com/javajoker/shop-backend/internal/utils"
)

type OrderService struct {
	db         *gorm.DB
	products   repository.ProductRepository
	taxPercent float64
}

type OrderItemRequest struct {
	Product  string `json:"product" validate:"required,objectid"`
	Quantity int    `json:"quantity" validate:"required,gte=1"`
}

type CreateOrderRequest struct {
	ShippingInfo models.ShippingInfo `json:"shippingInfo" validate:"required"`
	OrderItems   []OrderItemRequest  `json:"orderItems" validate:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

type OrderList struct {
	Orders      []models.Order  `json:"orders"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Total       int64           `json:"total"`
}

func NewOrderService(db *gorm.DB, products repository.ProductRepository, taxPercent float64) *OrderService {
	return &OrderService{
		db:         db,
		products:   products,
		taxPercent: taxPercent,
	}
}

// CreateOrder snapshots each product's name, price and first image from
// the catalog and prices the order server-side.
func (s *OrderService) CreateOrder(ctx context.Context, actor Actor, req *CreateOrderRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, utils.InvalidInput(err)
	}
	userID, err := parseUUID(actor.ID)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(req.OrderItems))
	for _, line := range req.OrderItems {
		oid, err := parseObjectID(line.Product)
		if err != nil {
			return nil, err
		}
		product, err := s.products.FindByID(ctx, oid)
		if err != nil {
			return nil, productError(err)
		}
		if line.Quantity > product.Stock {
			return nil, utils.Validation(i18n.KeyProductInsufficientStock, product.Name)
		}

		item := models.OrderItem{
			ProductID: product.ID.Hex(),
			Name:      product.Name,
			Price:     decimal.NewFromFloat(product.Price),
			Quantity:  line.Quantity,
		}
		if len(product.Images) > 0 {
			item.Image = product.Images[0].URL
		}
		items = append(items, item)
	}

	order := &models.Order{
		UserID:       userID,
		ShippingInfo: req.ShippingInfo,
		OrderItems:   items,
		PaymentInfo:  models.PaymentInfo{Status: models.PaymentStatusPending},
		OrderStatus:  models.OrderStatusProcessing,
	}
	order.CalculatePrices(s.taxPercent)

	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, utils.Internal(fmt.Errorf("failed to create order: %w", err))
	}

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  actor.ID,
		"total":    order.TotalPrice.String(),
	}).Info("Order created")
	return order, nil
}

func (s *OrderService) findOrder(ctx context.Context, id string, preloadUser bool) (*models.Order, error) {
	orderID, err := parseUUID(id)
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Preload("OrderItems")
	if preloadUser {
		query = query.Preload("User")
	}

	var order models.Order
	if err := query.First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound(i18n.KeyOrderNotFound)
		}
		return nil, utils.Internal(fmt.Errorf("failed to load order: %w", err))
	}
	return &order, nil
}

// GetOrder returns an order to its owner or to an admin.
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, id string) (*models.Order, error) {
	order, err := s.findOrder(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && order.UserID.String() != actor.ID {
		return nil, utils.Forbidden(i18n.KeyOrderForbidden)
	}
	return order, nil
}

func (s *OrderService) MyOrders(ctx context.Context, actor Actor) ([]models.Order, error) {
	userID, err := parseUUID(actor.ID)
	if err != nil {
		return nil, err
	}

	orders := []models.Order{}
	if err := s.db.WithContext(ctx).Preload("OrderItems").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, utils.Internal(fmt.Errorf("failed to fetch orders: %w", err))
	}
	return orders, nil
}

// ListOrders pages through every order. TotalAmount sums all orders, not
// just the page.
func (s *OrderService) ListOrders(ctx context.Context, page utils.PageRequest) (*OrderList, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Order{}).Count(&total).Error; err != nil {
		return nil, utils.Internal(fmt.Errorf("failed to count orders: %w", err))
	}

	totalAmount := decimal.Zero
	if err := db.Model(&models.Order{}).Select("COALESCE(SUM(total_price), 0)").Row().Scan(&totalAmount); err != nil {
		return nil, utils.Internal(fmt.Errorf("failed to sum orders: %w", err))
	}

	orders := []models.Order{}
	if err := page.Apply(db.Preload("OrderItems"), "created_at", "total_price", "order_status").
		Find(&orders).Error; err != nil {
		return nil, utils.Internal(fmt.Errorf("failed to fetch orders: %w", err))
	}

	return &OrderList{Orders: orders, TotalAmount: totalAmount, Total: total}, nil
}

// UpdateOrderStatus moves an order along. Leaving Processing, for Shipped
// or straight to Delivered, takes every item out of stock; stock already
// taken is not restored if a later item fails.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id string, req *UpdateOrderStatusRequest) (*models.Order, error) {
	order, err := s.findOrder(ctx, id, false)
	if err != nil {
		return nil, err
	}

	takeStock := order.TakesStock(req.Status)
	if err := order.TransitionTo(req.Status, time.Now()); err != nil {
		switch {
		case errors.Is(err, models.ErrOrderAlreadyDelivered):
			return nil, utils.Validation(i18n.KeyOrderAlreadyDelivered)
		case errors.Is(err, models.ErrOrderAlreadyShipped):
			return nil, utils.Validation(i18n.KeyOrderAlreadyShipped)
		default:
			return nil, utils.Validation(i18n.KeyOrderInvalidStatus, string(req.Status))
		}
	}

	if takeStock {
		for _, item := range order.OrderItems {
			if err := s.takeStock(ctx, item); err != nil {
				return nil, err
			}
		}
	}

	if err := s.db.WithContext(ctx).Model(order).
		Select("order_status", "delivered_at").
		Updates(order).Error; err != nil {
		return nil, utils.Internal(fmt.Errorf("failed to update order: %w", err))
	}
	return order, nil
}

func (s *OrderService) takeStock(ctx context.Context, item models.OrderItem) error {
	oid, err := parseObjectID(item.ProductID)
	if err != nil {
		return err
	}

	err = s.products.AdjustStock(ctx, oid, -item.Quantity)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrInsufficientStock):
		return utils.Validation(i18n.KeyProductInsufficientStock, item.Name)
	default:
		return productError(err)
	}
}

func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	order, err := s.findOrder(ctx, id, false)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Select("OrderItems").Delete(order).Error; err != nil {
		return utils.Internal(fmt.Errorf("failed to delete order: %w", err))
	}
	return nil
}
