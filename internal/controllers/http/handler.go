package http

import (
	"net/http"
	"strconv"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/services"
	"marketplace-service/pkg/jwtutil"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	market *services.Marketplace
	jwt    *jwtutil.JWTUtil
}

func NewHandler(m *services.Marketplace, jwt *jwtutil.JWTUtil) *Handler {
	return &Handler{market: m, jwt: jwt}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)

	auth := r.Group("/", Auth(h.jwt))

	auth.POST("/products", h.CreateProduct)
	auth.PUT("/products/:id", h.UpdateProduct)
	auth.POST("/products/:id/restock", h.RestockProduct)
	auth.POST("/products/:id/delist", h.DelistProduct)
	auth.GET("/products/:id/bids", h.ListProductBids)
	auth.GET("/products/:id/orders", h.GetOrderByProduct)

	auth.POST("/bids", h.PlaceBid)
	auth.GET("/bids/mine", h.ListMyBids)
	auth.GET("/bids/:id", h.GetBid)
	auth.PUT("/bids/:id", h.ResolveBid)

	auth.POST("/orders", h.CreateOrder)
	auth.GET("/orders", h.ListOrders)
	auth.GET("/orders/:id", h.GetOrder)
	auth.PUT("/orders/:id", h.UpdateOrderStatus)

	auth.GET("/cart", h.GetCart)
	auth.POST("/cart/items", h.AddCartItem)
	auth.PUT("/cart/items/:productId", h.SetCartQuantity)
	auth.DELETE("/cart/items/:productId", h.RemoveCartItem)
	auth.DELETE("/cart", h.ClearCart)
	auth.POST("/cart/checkout", h.CheckoutCart)
	auth.POST("/checkout", h.Checkout)
}

func idParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation", Message: name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := h.market.Orders.CreateOrder(c.Request.Context(), actorFrom(c), domain.OrderRequest{
		ProductID:       req.ProductID,
		Quantity:        req.Quantity,
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.market.Orders.ListOrders(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	order, err := h.market.Orders.GetOrder(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	order, err := h.market.Orders.UpdateStatus(c.Request.Context(), actorFrom(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) GetOrderByProduct(c *gin.Context) {
	productId, ok := idParam(c, "id")
	if !ok {
		return
	}
	orders, err := h.market.Orders.GetOrderByProductId(c.Request.Context(), actorFrom(c), productId)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	orders, err := h.market.Checkout(c.Request.Context(), actorFrom(c), req.Items, req.DeliveryAddress, req.PaymentMethod)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CheckoutResponse{OrderIDs: services.OrderIDs(orders), Orders: orders})
}

func (h *Handler) CheckoutCart(c *gin.Context) {
	var req CartCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	orders, err := h.market.CheckoutCart(c.Request.Context(), actorFrom(c), req.DeliveryAddress, req.PaymentMethod)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CheckoutResponse{OrderIDs: services.OrderIDs(orders), Orders: orders})
}
