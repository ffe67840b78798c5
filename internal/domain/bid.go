package domain

import (
	"fmt"
	"time"
)

type BidStatus string

const (
	BidPending  BidStatus = "pending"
	BidAccepted BidStatus = "accepted"
	BidRejected BidStatus = "rejected"
	BidExpired  BidStatus = "expired"
)

func (s BidStatus) Valid() bool {
	switch s {
	case BidPending, BidAccepted, BidRejected, BidExpired:
		return true
	}
	return false
}

func (s BidStatus) Terminal() bool {
	return s != BidPending
}

func (s *BidStatus) UnmarshalText(b []byte) error {
	v := BidStatus(b)
	if !v.Valid() {
		return fmt.Errorf("%w: unknown bid status %q", ErrValidation, string(b))
	}
	*s = v
	return nil
}

// BidDecision is what a farmer may answer to a pending bid.
type BidDecision string

const (
	DecisionAccept BidDecision = "accepted"
	DecisionReject BidDecision = "rejected"
)

func (d BidDecision) Valid() bool {
	return d == DecisionAccept || d == DecisionReject
}

func (d *BidDecision) UnmarshalText(b []byte) error {
	v := BidDecision(b)
	if !v.Valid() {
		return fmt.Errorf("%w: decision must be accepted or rejected, got %q", ErrValidation, string(b))
	}
	*d = v
	return nil
}

const MaxBidMessageLen = 200

type Bid struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID uint64    `json:"productId" gorm:"not null;index:idx_bid_product_buyer"`
	BuyerID   uint64    `json:"buyerId" gorm:"not null;index:idx_bid_product_buyer;index"`
	Amount    int64     `json:"amount" gorm:"not null"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	Message   string    `json:"message,omitempty" gorm:"type:varchar(200)"`
	Status    BidStatus `json:"status" gorm:"type:varchar(16);not null;default:'pending';index"`
	OrderID   *uint64   `json:"orderId,omitempty"`
	Version   int       `json:"version" gorm:"not null;default:1"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Delivery terms travel with the offer so acceptance can create the order directly.
	DeliveryAddress string        `json:"deliveryAddress" gorm:"type:varchar(500);not null"`
	PaymentMethod   PaymentMethod `json:"paymentMethod" gorm:"type:varchar(16);not null;default:'cash'"`
}

// ExpiredAt reports whether a pending bid has outlived ttl. A zero ttl never expires.
func (b *Bid) ExpiredAt(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return b.IdleSince(now.Add(-ttl))
}

// IdleSince reports whether a pending bid was last touched at or before cutoff.
// A zero cutoff matches nothing.
func (b *Bid) IdleSince(cutoff time.Time) bool {
	return b.Status == BidPending && !cutoff.IsZero() && !b.UpdatedAt.After(cutoff)
}

func ValidateBidTerms(amount int64, quantity int, message string) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidBid)
	}
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidBid)
	}
	if len([]rune(message)) > MaxBidMessageLen {
		return fmt.Errorf("%w: message cannot exceed %d characters", ErrInvalidBid, MaxBidMessageLen)
	}
	return nil
}
