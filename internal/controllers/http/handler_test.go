package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/repository/memory"
	"marketplace-service/internal/services"
	"marketplace-service/pkg/jwtutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	router *gin.Engine
	jwt    *jwtutil.JWTUtil
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	catalog := services.NewCatalogService(memory.NewProductRepository(), nil, log)
	orders := services.NewOrderService(memory.NewOrderRepository(), catalog, nil, log)
	bids := services.NewBidService(memory.NewBidRepository(), catalog, orders, nil, time.Hour, log)
	carts := services.NewCartService(memory.NewCartStore(), catalog, log)
	market := services.NewMarketplace(catalog, bids, orders, carts, nil, log)

	jwt := jwtutil.NewJWTUtil("test-signing-key", 1)
	r := gin.New()
	r.Use(RequestID(log), Metrics())
	NewHandler(market, jwt).RegisterRoutes(r)
	return &testServer{router: r, jwt: jwt}
}

func (s *testServer) token(t *testing.T, userID uint64, role domain.Role) string {
	t.Helper()
	tok, err := s.jwt.GenerateToken(userID, string(role))
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) createProduct(t *testing.T, farmerTok string, stock int, negotiable bool) domain.Product {
	t.Helper()
	w := s.do(t, http.MethodPost, "/products", farmerTok, ProductRequest{
		Name:         "Tomatoes",
		Category:     "vegetables",
		Price:        100,
		Stock:        stock,
		IsNegotiable: negotiable,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[domain.Product](t, w)
}

func TestHandler_RequiresAuth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/orders", "", CreateOrderRequest{ProductID: 1, Quantity: 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/orders", "garbage", CreateOrderRequest{ProductID: 1, Quantity: 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/products", "", nil)
	assert.Equal(t, http.StatusOK, w.Code, "catalog reads are public")
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestHandler_ProductLifecycle(t *testing.T) {
	s := newTestServer(t)
	farmerTok := s.token(t, 1, domain.RoleFarmer)
	buyerTok := s.token(t, 2, domain.RoleBuyer)

	p := s.createProduct(t, farmerTok, 5, false)
	assert.Equal(t, domain.ProductActive, p.Status)

	w := s.do(t, http.MethodPost, "/products", buyerTok, ProductRequest{Name: "x", Category: "y"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/products/%d", p.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Tomatoes", decode[domain.Product](t, w).Name)

	w = s.do(t, http.MethodPost, fmt.Sprintf("/products/%d/restock", p.ID), farmerTok, RestockRequest{Quantity: 3})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 8, decode[domain.Product](t, w).Stock)

	w = s.do(t, http.MethodGet, "/products?category=vegetables&maxPrice=150", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Product](t, w), 1)

	w = s.do(t, http.MethodGet, "/products?minPrice=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, fmt.Sprintf("/products/%d/delist", p.ID), farmerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.ProductDelisted, decode[domain.Product](t, w).Status)

	w = s.do(t, http.MethodGet, "/products/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, w).Error)

	w = s.do(t, http.MethodGet, "/products/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_OrderFlow(t *testing.T) {
	s := newTestServer(t)
	farmerTok := s.token(t, 1, domain.RoleFarmer)
	buyerTok := s.token(t, 2, domain.RoleBuyer)
	p := s.createProduct(t, farmerTok, 5, false)

	w := s.do(t, http.MethodPost, "/orders", buyerTok, CreateOrderRequest{
		ProductID:       p.ID,
		Quantity:        2,
		DeliveryAddress: "7 Market Lane",
		PaymentMethod:   domain.PaymentBankTransfer,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[domain.Order](t, w)
	assert.Equal(t, int64(200), order.TotalPrice)

	w = s.do(t, http.MethodPost, "/orders", buyerTok, CreateOrderRequest{ProductID: p.ID, Quantity: 9, DeliveryAddress: "7 Market Lane"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "out_of_stock", decode[ErrorResponse](t, w).Error)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/orders/%d", order.ID), buyerTok, UpdateOrderStatusRequest{Status: domain.StatusConfirmed})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/orders/%d", order.ID), farmerTok, map[string]string{"status": "teleported"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/orders/%d", order.ID), farmerTok, UpdateOrderStatusRequest{Status: domain.StatusConfirmed})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StatusConfirmed, decode[domain.Order](t, w).Status)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/orders/%d", order.ID), farmerTok, UpdateOrderStatusRequest{Status: domain.StatusDelivered})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_transition", decode[ErrorResponse](t, w).Error)

	w = s.do(t, http.MethodGet, "/orders", buyerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Order](t, w), 1)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/products/%d/orders", p.ID), farmerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Order](t, w), 1)
}

func TestHandler_BidFlow(t *testing.T) {
	s := newTestServer(t)
	farmerTok := s.token(t, 1, domain.RoleFarmer)
	buyerTok := s.token(t, 2, domain.RoleBuyer)
	p := s.createProduct(t, farmerTok, 10, true)

	w := s.do(t, http.MethodPost, "/bids", buyerTok, PlaceBidRequest{ProductID: p.ID, Amount: -5, Quantity: 1, DeliveryAddress: "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_bid", decode[ErrorResponse](t, w).Error)

	w = s.do(t, http.MethodPost, "/bids", buyerTok, PlaceBidRequest{ProductID: p.ID, Amount: 90, Quantity: 5, DeliveryAddress: "7 Market Lane"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bid := decode[domain.Bid](t, w)
	assert.Equal(t, domain.BidPending, bid.Status)

	w = s.do(t, http.MethodGet, "/bids/mine", buyerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Bid](t, w), 1)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/bids/%d", bid.ID), farmerTok, map[string]string{"status": "expired"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPut, fmt.Sprintf("/bids/%d", bid.ID), farmerTok, ResolveBidRequest{Status: domain.DecisionAccept})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	accepted := decode[domain.Bid](t, w)
	assert.Equal(t, domain.BidAccepted, accepted.Status)
	require.NotNil(t, accepted.OrderID)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/orders/%d", *accepted.OrderID), buyerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(90), decode[domain.Order](t, w).UnitPrice)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/products/%d/bids", p.ID), s.token(t, 3, domain.RoleFarmer), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_CheckoutFailureListsProducts(t *testing.T) {
	s := newTestServer(t)
	farmerTok := s.token(t, 1, domain.RoleFarmer)
	buyerTok := s.token(t, 2, domain.RoleBuyer)
	a := s.createProduct(t, farmerTok, 5, false)
	b := s.createProduct(t, farmerTok, 1, false)

	w := s.do(t, http.MethodPost, "/checkout", buyerTok, CheckoutRequest{
		Items:           []domain.CartEntry{{ProductID: a.ID, Quantity: 2}, {ProductID: b.ID, Quantity: 2}},
		DeliveryAddress: "7 Market Lane",
	})
	require.Equal(t, http.StatusConflict, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "checkout_failed", resp.Error)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, b.ID, resp.Failures[0].ProductID)
	assert.Equal(t, "out_of_stock", resp.Failures[0].Error)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/products/%d", a.ID), "", nil)
	assert.Equal(t, 5, decode[domain.Product](t, w).Stock)
}

func TestHandler_CartCheckout(t *testing.T) {
	s := newTestServer(t)
	farmerTok := s.token(t, 1, domain.RoleFarmer)
	buyerTok := s.token(t, 2, domain.RoleBuyer)
	p := s.createProduct(t, farmerTok, 5, false)

	w := s.do(t, http.MethodPost, "/cart/items", buyerTok, CartItemRequest{ProductID: p.ID, Quantity: 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPut, fmt.Sprintf("/cart/items/%d", p.ID), buyerTok, CartQuantityRequest{Quantity: 3})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decode[domain.Cart](t, w).Entries[0].Quantity)

	w = s.do(t, http.MethodPost, "/cart/checkout", buyerTok, CartCheckoutRequest{DeliveryAddress: "7 Market Lane"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[CheckoutResponse](t, w)
	assert.Len(t, resp.OrderIDs, 1)

	w = s.do(t, http.MethodGet, "/cart", buyerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[domain.Cart](t, w).Entries)

	w = s.do(t, http.MethodDelete, "/cart", buyerTok, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
