package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/infra/metrics"
	"marketplace-service/internal/repository"
	"marketplace-service/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ProductInput is the farmer-editable part of a listing. Stock is only read on create.
type ProductInput struct {
	Name         string
	Category     string
	Description  string
	Location     string
	Price        int64
	Unit         string
	Stock        int
	IsNegotiable bool
}

func (in *ProductInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if in.Name == "" {
		return fmt.Errorf("%w: product name is required", domain.ErrValidation)
	}
	if in.Category == "" {
		return fmt.Errorf("%w: category is required", domain.ErrValidation)
	}
	if in.Price < 0 {
		return fmt.Errorf("%w: price cannot be negative", domain.ErrValidation)
	}
	if in.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", domain.ErrValidation)
	}
	if len([]rune(in.Description)) > 500 {
		return fmt.Errorf("%w: description cannot exceed 500 characters", domain.ErrValidation)
	}
	if strings.TrimSpace(in.Unit) == "" {
		in.Unit = domain.DefaultUnit
	}
	return nil
}

// CatalogService owns listings and is the only writer of stock.
type CatalogService struct {
	repo  repository.ProductRepository
	cache ProductCache
	loads singleflight.Group
	log   *zap.Logger
}

func NewCatalogService(repo repository.ProductRepository, cache ProductCache, log *zap.Logger) *CatalogService {
	if cache == nil {
		cache = noopCache{}
	}
	return &CatalogService{repo: repo, cache: cache, log: log}
}

func (s *CatalogService) CreateProduct(ctx context.Context, farmer domain.Actor, in ProductInput) (*domain.Product, error) {
	if err := domain.RequireRole(farmer, domain.RoleFarmer); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &domain.Product{
		FarmerID:     farmer.ID,
		Name:         in.Name,
		Category:     in.Category,
		Description:  in.Description,
		Location:     in.Location,
		Price:        in.Price,
		Unit:         in.Unit,
		Stock:        in.Stock,
		IsNegotiable: in.IsNegotiable,
		Status:       domain.ProductActive,
	}
	if p.Stock == 0 {
		p.Status = domain.ProductSold
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	logger.FromContext(ctx, s.log).Info("product listed",
		zap.Uint64("product_id", p.ID),
		zap.Uint64("farmer_id", p.FarmerID),
		zap.Int("stock", p.Stock))
	return p, nil
}

// UpdateProduct edits listing details. Existing orders keep their snapshotted prices.
func (s *CatalogService) UpdateProduct(ctx context.Context, farmer domain.Actor, id uint64, in ProductInput) (*domain.Product, error) {
	p, err := s.owned(ctx, farmer, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	p.Name, p.Category, p.Description, p.Location = in.Name, in.Category, in.Description, in.Location
	p.Price, p.Unit, p.IsNegotiable = in.Price, in.Unit, in.IsNegotiable
	if err := s.repo.UpdateDetails(ctx, p); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, id)
	return s.Product(ctx, id)
}

// Restock adds units to a listing through the same path as compensation.
func (s *CatalogService) Restock(ctx context.Context, farmer domain.Actor, id uint64, qty int) (*domain.Product, error) {
	if _, err := s.owned(ctx, farmer, id); err != nil {
		return nil, err
	}
	if qty < 1 {
		return nil, fmt.Errorf("%w: restock quantity must be at least 1", domain.ErrValidation)
	}
	p, err := s.repo.IncrementStock(ctx, id, qty)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, id)
	return p, nil
}

func (s *CatalogService) Delist(ctx context.Context, farmer domain.Actor, id uint64) (*domain.Product, error) {
	if _, err := s.owned(ctx, farmer, id); err != nil {
		return nil, err
	}
	if err := s.repo.SetStatus(ctx, id, domain.ProductDelisted); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, id)
	logger.FromContext(ctx, s.log).Info("product delisted", zap.Uint64("product_id", id))
	return s.Product(ctx, id)
}

// GetProduct serves catalog reads, from the cache when possible.
func (s *CatalogService) GetProduct(ctx context.Context, id uint64) (*domain.Product, error) {
	if p, ok := s.cache.Get(ctx, id); ok {
		return p, nil
	}
	v, err, _ := s.loads.Do(strconv.FormatUint(id, 10), func() (any, error) {
		p, err := s.Product(ctx, id)
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	cp := *v.(*domain.Product)
	return &cp, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown product status %q", domain.ErrValidation, f.Status)
	}
	return s.repo.List(ctx, f)
}

func (s *CatalogService) Product(ctx context.Context, id uint64) (*domain.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	return p, nil
}

// ReserveStock takes qty units or fails; it never hands out fewer than asked.
func (s *CatalogService) ReserveStock(ctx context.Context, productID uint64, qty int) (*domain.Reservation, error) {
	if qty < 1 {
		return nil, fmt.Errorf("%w: reservation quantity must be at least 1", domain.ErrValidation)
	}
	p, err := s.repo.DecrementStock(ctx, productID, qty)
	if err != nil {
		metrics.RecordReservation(reservationOutcome(err))
		return nil, err
	}
	metrics.RecordReservation("reserved")
	s.cache.Invalidate(ctx, productID)
	log := logger.FromContext(ctx, s.log)
	log.Debug("stock reserved",
		zap.Uint64("product_id", productID),
		zap.Int("quantity", qty),
		zap.Int("remaining", p.Stock))
	if p.Status == domain.ProductSold {
		log.Info("product sold out", zap.Uint64("product_id", productID))
	}
	return &domain.Reservation{ProductID: productID, Quantity: qty, Remaining: p.Stock}, nil
}

func (s *CatalogService) ReleaseStock(ctx context.Context, productID uint64, qty int) error {
	if qty < 1 {
		return fmt.Errorf("%w: release quantity must be at least 1", domain.ErrValidation)
	}
	if _, err := s.repo.IncrementStock(ctx, productID, qty); err != nil {
		return err
	}
	metrics.RecordRelease(qty)
	s.cache.Invalidate(ctx, productID)
	logger.FromContext(ctx, s.log).Debug("stock released",
		zap.Uint64("product_id", productID),
		zap.Int("quantity", qty))
	return nil
}

// MarkSold flags a listing with no stock left as sold. Calling it again, or on
// a listing that still has stock, changes nothing.
func (s *CatalogService) MarkSold(ctx context.Context, productID uint64) error {
	if err := s.repo.MarkSold(ctx, productID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, productID)
	return nil
}

func (s *CatalogService) owned(ctx context.Context, farmer domain.Actor, id uint64) (*domain.Product, error) {
	p, err := s.Product(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(farmer, p.FarmerID, "product"); err != nil {
		return nil, err
	}
	return p, nil
}

func reservationOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrOutOfStock):
		return "out_of_stock"
	case errors.Is(err, domain.ErrProductUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
