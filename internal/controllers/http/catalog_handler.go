package http

import (
	"fmt"
	"net/http"
	"strconv"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/services"

	"github.com/gin-gonic/gin"
)

func (r ProductRequest) input() services.ProductInput {
	return services.ProductInput{
		Name:         r.Name,
		Category:     r.Category,
		Description:  r.Description,
		Location:     r.Location,
		Price:        r.Price,
		Unit:         r.Unit,
		Stock:        r.Stock,
		IsNegotiable: r.IsNegotiable,
	}
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	p, err := h.market.Catalog.CreateProduct(c.Request.Context(), actorFrom(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	p, err := h.market.Catalog.UpdateProduct(c.Request.Context(), actorFrom(c), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) RestockProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	p, err := h.market.Catalog.Restock(c.Request.Context(), actorFrom(c), id, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DelistProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, err := h.market.Catalog.Delist(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, err := h.market.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) ListProducts(c *gin.Context) {
	f, err := productFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	products, err := h.market.Catalog.ListProducts(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func productFilter(c *gin.Context) (domain.ProductFilter, error) {
	f := domain.ProductFilter{
		Category: c.Query("category"),
		Status:   domain.ProductStatus(c.Query("status")),
	}
	if v := c.Query("farmerId"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return f, fmt.Errorf("%w: farmerId must be an integer", domain.ErrValidation)
		}
		f.FarmerID = id
	}
	if v := c.Query("negotiable"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("%w: negotiable must be true or false", domain.ErrValidation)
		}
		f.Negotiable = &b
	}
	for key, dst := range map[string]**int64{"minPrice": &f.MinPrice, "maxPrice": &f.MaxPrice} {
		v := c.Query(key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, key)
		}
		*dst = &n
	}
	return f, nil
}
