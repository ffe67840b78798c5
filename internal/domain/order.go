package domain

import (
	"fmt"
	"strings"
	"time"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s *OrderStatus) UnmarshalText(b []byte) error {
	v := OrderStatus(b)
	if !v.Valid() {
		return fmt.Errorf("%w: unknown order status %q", ErrValidation, string(b))
	}
	*s = v
	return nil
}

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentUPI          PaymentMethod = "upi"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentUPI, PaymentBankTransfer:
		return true
	}
	return false
}

func (m *PaymentMethod) UnmarshalText(b []byte) error {
	v := PaymentMethod(b)
	if v == "" {
		v = PaymentCash
	}
	if !v.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", ErrValidation, string(b))
	}
	*m = v
	return nil
}

const MaxOrderNotesLen = 500

// Order prices are snapshotted at creation; UnitPrice, Quantity and TotalPrice never change afterwards.
type Order struct {
	ID              uint64        `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductId       uint64        `json:"productId" gorm:"not null;index"`
	BuyerID         uint64        `json:"buyerId" gorm:"not null;index"`
	FarmerID        uint64        `json:"farmerId" gorm:"not null;index"`
	BidID           *uint64       `json:"bidId,omitempty"`
	Quantity        int           `json:"quantity" gorm:"not null"`
	UnitPrice       int64         `json:"unitPrice" gorm:"not null"`
	TotalPrice      int64         `json:"totalPrice" gorm:"not null"`
	DeliveryAddress string        `json:"deliveryAddress" gorm:"type:varchar(500);not null"`
	PaymentMethod   PaymentMethod `json:"paymentMethod" gorm:"type:varchar(16);not null;default:'cash'"`
	Notes           string        `json:"notes,omitempty" gorm:"type:varchar(500)"`
	Status          OrderStatus   `json:"status" gorm:"type:varchar(16);not null;default:'pending';index"`
	Version         int           `json:"version" gorm:"not null;default:1"`
	CreatedAt       time.Time     `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// OrderRequest carries what a buyer supplies to buy a product outright.
type OrderRequest struct {
	ProductID       uint64
	Quantity        int
	DeliveryAddress string
	PaymentMethod   PaymentMethod
	Notes           string
	// UnitPriceOverride is set when the order comes from an accepted bid.
	UnitPriceOverride *int64
	BidID             *uint64
}

func (r *OrderRequest) Validate() error {
	if r.ProductID == 0 {
		return fmt.Errorf("%w: productId is required", ErrValidation)
	}
	if r.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}
	if r.PaymentMethod == "" {
		r.PaymentMethod = PaymentCash
	}
	if err := ValidateDelivery(r.DeliveryAddress, r.PaymentMethod); err != nil {
		return err
	}
	if len([]rune(r.Notes)) > MaxOrderNotesLen {
		return fmt.Errorf("%w: notes cannot exceed %d characters", ErrValidation, MaxOrderNotesLen)
	}
	if r.UnitPriceOverride != nil && *r.UnitPriceOverride <= 0 {
		return fmt.Errorf("%w: negotiated price must be positive", ErrValidation)
	}
	return nil
}

// ValidateDelivery checks the fields every order of a checkout shares.
func ValidateDelivery(address string, method PaymentMethod) error {
	if strings.TrimSpace(address) == "" {
		return fmt.Errorf("%w: delivery address is required", ErrValidation)
	}
	if !method.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", ErrValidation, method)
	}
	return nil
}
