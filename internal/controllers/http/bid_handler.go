package http

import (
	"net/http"

	"marketplace-service/internal/services"

	"github.com/gin-gonic/gin"
)

// PlaceBid opens a bid or revises the caller's pending one on the product.
func (h *Handler) PlaceBid(c *gin.Context) {
	var req PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	bid, err := h.market.Bids.PlaceBid(c.Request.Context(), actorFrom(c), services.BidInput{
		ProductID:       req.ProductID,
		Amount:          req.Amount,
		Quantity:        req.Quantity,
		Message:         req.Message,
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bid)
}

func (h *Handler) ResolveBid(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req ResolveBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	bid, err := h.market.Bids.ResolveBid(c.Request.Context(), actorFrom(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bid)
}

func (h *Handler) GetBid(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	bid, err := h.market.Bids.GetBid(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bid)
}

func (h *Handler) ListMyBids(c *gin.Context) {
	bids, err := h.market.Bids.ListMyBids(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bids)
}

func (h *Handler) ListProductBids(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	bids, err := h.market.Bids.ListProductBids(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bids)
}
