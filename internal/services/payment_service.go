// internal/services/payment_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"gorm.io/gorm"

	"github.com/javajoker/shop-backend/internal/config"
	"github.com/javajoker/shop-backend/internal/i18n"
	"github.com/javajoker/shop-backend/internal/models"
	"github.com/javajoker/shop-backend/internal/utils"
)

type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// PaymentGateway is the card processor. Amounts are in minor units.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*PaymentIntent, error)
	Refund(ctx context.Context, intentID string, amount int64) (string, error)
}

type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

func toPaymentIntent(pi *stripe.PaymentIntent) *PaymentIntent {
	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return toPaymentIntent(pi), nil
}

func (g *StripeGateway) GetIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}
	return toPaymentIntent(pi), nil
}

func (g *StripeGateway) Refund(ctx context.Context, intentID string, amount int64) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
		Amount:        stripe.Int64(amount),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx

	r, err := g.api.Refunds.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to process refund: %w", err)
	}
	return r.ID, nil
}

type PaymentService struct {
	db      *gorm.DB
	gateway PaymentGateway
	cfg     config.PaymentConfig
}

type ProcessPaymentRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

type ConfirmPaymentRequest struct {
	OrderID         uuid.UUID `json:"orderId" validate:"required"`
	PaymentIntentID string    `json:"paymentIntentId" validate:"required"`
}

type RefundRequest struct {
	OrderID uuid.UUID `json:"orderId" validate:"required"`
}

func NewPaymentService(db *gorm.DB, gateway PaymentGateway, cfg config.PaymentConfig) *PaymentService {
	return &PaymentService{
		db:      db,
		gateway: gateway,
		cfg:     cfg,
	}
}

func (s *PaymentService) PublishableKey() string {
	return s.cfg.StripePublishableKey
}

// ProcessPayment opens a payment intent the storefront then confirms
// client-side.
func (s *PaymentService) ProcessPayment(ctx context.Context, userID string, req *ProcessPaymentRequest) (*PaymentIntent, error) {
	if req.Amount <= 0 {
		return nil, utils.Validation(i18n.KeyPaymentInvalidAmount)
	}

	pi, err := s.gateway.CreateIntent(ctx, req.Amount, s.cfg.Currency, map[string]string{
		"company": "Ecommerce",
		"user_id": userID,
	})
	if err != nil {
		return nil, utils.Upstream(i18n.KeyPaymentFailed, err)
	}
	return pi, nil
}

// ConfirmOrderPayment checks a succeeded intent against the order total
// and marks the order paid.
func (s *PaymentService) ConfirmOrderPayment(ctx context.Context, actor Actor, req *ConfirmPaymentRequest) (*models.Order, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, utils.InvalidInput(err)
	}

	order, err := s.findOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && order.UserID.String() != actor.ID {
		return nil, utils.Forbidden(i18n.KeyOrderForbidden)
	}
	if err := order.CanRecordPayment(); err != nil {
		return nil, utils.Conflict(i18n.KeyPaymentAlreadyPaid)
	}

	pi, err := s.gateway.GetIntent(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, utils.Upstream(i18n.KeyPaymentFailed, err)
	}
	if pi.Status != string(stripe.PaymentIntentStatusSucceeded) {
		return nil, utils.Validation(i18n.KeyPaymentNotSucceeded)
	}
	if pi.Amount != order.MinorUnits() {
		logrus.WithFields(logrus.Fields{
			"order_id": order.ID,
			"intent":   pi.ID,
			"paid":     pi.Amount,
			"expected": order.MinorUnits(),
		}).Warn("Payment amount does not match order total")
		return nil, utils.Validation(i18n.KeyPaymentInvalidAmount)
	}

	var claimed int64
	if err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("payment_id = ? AND id <> ?", pi.ID, order.ID).
		Count(&claimed).Error; err != nil {
		return nil, utils.Internal(fmt.Errorf("failed to check payment intent: %w", err))
	}
	if claimed > 0 {
		return nil, utils.Conflict(i18n.KeyPaymentIntentUsed)
	}

	now := time.Now()
	order.PaymentInfo = models.PaymentInfo{ID: pi.ID, Status: models.PaymentStatusSucceeded}
	order.PaidAt = &now
	// Only one confirmation can move the order off pending.
	result := s.db.WithContext(ctx).Model(order).
		Where("payment_status NOT IN ?", []models.PaymentStatus{models.PaymentStatusSucceeded, models.PaymentStatusRefunded}).
		Select("payment_id", "payment_status", "paid_at").
		Updates(order)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return nil, utils.Conflict(i18n.KeyPaymentIntentUsed)
		}
		return nil, utils.Internal(fmt.Errorf("failed to update order payment: %w", result.Error))
	}
	if result.RowsAffected == 0 {
		return nil, utils.Conflict(i18n.KeyPaymentAlreadyPaid)
	}
	return order, nil
}

// RefundOrder returns the full amount of a paid order.
func (s *PaymentService) RefundOrder(ctx context.Context, req *RefundRequest) (*models.Order, error) {
	order, err := s.findOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentInfo.Status != models.PaymentStatusSucceeded || order.PaymentInfo.ID == "" {
		return nil, utils.Validation(i18n.KeyPaymentNotPaid)
	}

	refundID, err := s.gateway.Refund(ctx, order.PaymentInfo.ID, order.MinorUnits())
	if err != nil {
		return nil, utils.Upstream(i18n.KeyPaymentFailed, err)
	}

	order.PaymentInfo.Status = models.PaymentStatusRefunded
	if err := s.db.WithContext(ctx).Model(order).Update("payment_status", models.PaymentStatusRefunded).Error; err != nil {
		return nil, utils.Internal(fmt.Errorf("failed to update order payment: %w", err))
	}

	logrus.WithFields(logrus.Fields{"order_id": order.ID, "refund_id": refundID}).Info("Order refunded")
	return order, nil
}

func (s *PaymentService) findOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NotFound(i18n.KeyOrderNotFound)
		}
		return nil, utils.Internal(fmt.Errorf("failed to load order: %w", err))
	}
	return &order, nil
}
