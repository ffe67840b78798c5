package http

import "marketplace-service/internal/domain"

type ProductRequest struct {
	Name         string `json:"name" binding:"required"`
	Category     string `json:"category" binding:"required"`
	Description  string `json:"description"`
	Location     string `json:"location"`
	Price        int64  `json:"price" binding:"min=0"`
	Unit         string `json:"unit"`
	Stock        int    `json:"stock" binding:"min=0"`
	IsNegotiable bool   `json:"isNegotiable"`
}

type RestockRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type PlaceBidRequest struct {
	ProductID       uint64               `json:"productId" binding:"required"`
	Amount          int64                `json:"amount"`
	Quantity        int                  `json:"quantity"`
	Message         string               `json:"message"`
	DeliveryAddress string               `json:"deliveryAddress"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod"`
}

type ResolveBidRequest struct {
	Status domain.BidDecision `json:"status" binding:"required"`
}

type CreateOrderRequest struct {
	ProductID       uint64               `json:"productId" binding:"required"`
	Quantity        int                  `json:"quantity" binding:"required,min=1"`
	DeliveryAddress string               `json:"deliveryAddress"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod"`
	Notes           string               `json:"notes"`
}

type UpdateOrderStatusRequest struct {
	Status domain.OrderStatus `json:"status" binding:"required"`
}

type CartItemRequest struct {
	ProductID uint64 `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type CartQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

type CheckoutRequest struct {
	Items           []domain.CartEntry   `json:"items"`
	DeliveryAddress string               `json:"deliveryAddress"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod"`
}

type CartCheckoutRequest struct {
	DeliveryAddress string               `json:"deliveryAddress"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod"`
}

type CheckoutResponse struct {
	OrderIDs []uint64        `json:"orderIds"`
	Orders   []*domain.Order `json:"orders"`
}
