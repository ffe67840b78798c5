package domain

import "time"

type EventType string

const (
	EventBidPlaced          EventType = "bid.placed"
	EventBidResolved        EventType = "bid.resolved"
	EventOrderCreated       EventType = "order.created"
	EventOrderStatusChanged EventType = "order.status_changed"
)

// Event is what the engine hands to the notification/audit collaborator.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

func (e Event) EventID() string { return e.ID }

type BidPlacedEvent struct {
	BidID     uint64 `json:"bidId"`
	ProductID uint64 `json:"productId"`
	BuyerID   uint64 `json:"buyerId"`
	Amount    int64  `json:"amount"`
	Quantity  int    `json:"quantity"`
	Revised   bool   `json:"revised"`
}

type BidResolvedEvent struct {
	BidID     uint64    `json:"bidId"`
	ProductID uint64    `json:"productId"`
	BuyerID   uint64    `json:"buyerId"`
	Status    BidStatus `json:"status"`
	OrderID   *uint64   `json:"orderId,omitempty"`
}

type OrderCreatedEvent struct {
	OrderID    uint64    `json:"orderId"`
	ProductId  uint64    `json:"productId"`
	BuyerID    uint64    `json:"buyerId"`
	FarmerID   uint64    `json:"farmerId"`
	Quantity   int       `json:"quantity"`
	UnitPrice  int64     `json:"unitPrice"`
	TotalPrice int64     `json:"totalPrice"`
	BidID      *uint64   `json:"bidId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type OrderStatusChangedEvent struct {
	OrderID   uint64      `json:"orderId"`
	ProductId uint64      `json:"productId"`
	From      OrderStatus `json:"from"`
	To        OrderStatus `json:"to"`
	ActorID   uint64      `json:"actorId"`
}

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID:    o.ID,
		ProductId:  o.ProductId,
		BuyerID:    o.BuyerID,
		FarmerID:   o.FarmerID,
		Quantity:   o.Quantity,
		UnitPrice:  o.UnitPrice,
		TotalPrice: o.TotalPrice,
		BidID:      o.BidID,
		CreatedAt:  o.CreatedAt,
	}
}
