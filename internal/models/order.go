// internal/models/order.go
package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderAlreadyDelivered = errors.New("order has already been delivered")
	ErrInvalidOrderStatus    = errors.New("invalid order status")
	ErrOrderAlreadyShipped   = errors.New("order has already left processing")
	ErrOrderAlreadyPaid      = errors.New("order payment already recorded")
)

// Orders above this items total ship for free.
var (
	FreeShippingThreshold = decimal.NewFromInt(1000)
	StandardShippingPrice = decimal.NewFromInt(200)
)

type ShippingInfo struct {
	Address string `json:"address" gorm:"size:255;not null" validate:"required"`
	City    string `json:"city" gorm:"size:100;not null" validate:"required"`
	State   string `json:"state" gorm:"size:100;not null" validate:"required"`
	Country string `json:"country" gorm:"size:100;not null" validate:"required"`
	PinCode string `json:"pinCode" gorm:"size:20;not null" validate:"required"`
	PhoneNo string `json:"phoneNo" gorm:"size:20;not null" validate:"required"`
}

type PaymentInfo struct {
	ID     string        `json:"id" gorm:"size:255;uniqueIndex:idx_orders_payment_id,where:payment_id <> ''"`
	Status PaymentStatus `json:"status" gorm:"type:varchar(20);default:'pending'"`
}

type Order struct {
	BaseModel
	UserID        uuid.UUID       `json:"user" gorm:"type:uuid;not null;index"`
	ShippingInfo  ShippingInfo    `json:"shippingInfo" gorm:"embedded;embeddedPrefix:shipping_"`
	OrderItems    []OrderItem     `json:"orderItems" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PaymentInfo   PaymentInfo     `json:"paymentInfo" gorm:"embedded;embeddedPrefix:payment_"`
	PaidAt        *time.Time      `json:"paidAt"`
	ItemsPrice    decimal.Decimal `json:"itemsPrice" gorm:"type:decimal(12,2);not null;default:0"`
	TaxPrice      decimal.Decimal `json:"taxPrice" gorm:"type:decimal(12,2);not null;default:0"`
	ShippingPrice decimal.Decimal `json:"shippingPrice" gorm:"type:decimal(12,2);not null;default:0"`
	TotalPrice    decimal.Decimal `json:"totalPrice" gorm:"type:decimal(12,2);not null;default:0"`
	OrderStatus   OrderStatus     `json:"orderStatus" gorm:"type:varchar(20);not null;default:'Processing';index"`
	DeliveredAt   *time.Time      `json:"deliveredAt"`

	// Relationships
	User *User `json:"userInfo,omitempty" gorm:"foreignKey:UserID"`
}

type OrderItem struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrderID   uuid.UUID       `json:"-" gorm:"type:uuid;not null;index"`
	ProductID string          `json:"product" gorm:"size:24;not null;index"`
	Name      string          `json:"name" gorm:"size:255;not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Image     string          `json:"image" gorm:"size:1024"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CalculatePrices derives every price field from the order items.
func (o *Order) CalculatePrices(taxPercent float64) {
	items := decimal.Zero
	for _, item := range o.OrderItems {
		items = items.Add(item.Subtotal())
	}

	shipping := StandardShippingPrice
	if items.GreaterThan(FreeShippingThreshold) || items.IsZero() {
		shipping = decimal.Zero
	}

	tax := items.Mul(decimal.NewFromFloat(taxPercent)).Div(decimal.NewFromInt(100)).Round(2)

	o.ItemsPrice = items.Round(2)
	o.ShippingPrice = shipping
	o.TaxPrice = tax
	o.TotalPrice = o.ItemsPrice.Add(shipping).Add(tax)
}

// TakesStock reports whether moving to status takes the items out of
// stock. That happens once, when the order first leaves Processing.
func (o *Order) TakesStock(status OrderStatus) bool {
	return o.OrderStatus == OrderStatusProcessing && status != OrderStatusProcessing
}

// TransitionTo moves the order to status. Orders only move forward and a
// delivered order is final.
func (o *Order) TransitionTo(status OrderStatus, now time.Time) error {
	if o.OrderStatus == OrderStatusDelivered {
		return ErrOrderAlreadyDelivered
	}
	if !status.Valid() {
		return ErrInvalidOrderStatus
	}
	if o.OrderStatus == OrderStatusShipped && status == OrderStatusProcessing {
		return ErrOrderAlreadyShipped
	}

	o.OrderStatus = status
	if status == OrderStatusDelivered {
		o.DeliveredAt = &now
	}
	return nil
}

// CanRecordPayment rejects orders whose payment is already settled or
// refunded.
func (o *Order) CanRecordPayment() error {
	switch o.PaymentInfo.Status {
	case PaymentStatusSucceeded, PaymentStatusRefunded:
		return ErrOrderAlreadyPaid
	}
	return nil
}

// MinorUnits converts the order total into the smallest currency unit.
func (o *Order) MinorUnits() int64 {
	return o.TotalPrice.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
