package mysql

import (
	"context"
	"errors"
	"fmt"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type productRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewProductRepository(db *gorm.DB, log *zap.Logger) repository.ProductRepository {
	return &productRepo{db: db, log: log}
}

func (r *productRepo) Create(ctx context.Context, p *domain.Product) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		r.log.Error("product create failed", zap.Error(err))
		return err
	}
	if p.ID == 0 {
		return errors.New("failed to assign product ID")
	}
	return nil
}

func (r *productRepo) UpdateDetails(ctx context.Context, p *domain.Product) error {
	res := r.db.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", p.ID).Updates(map[string]any{
		"name":          p.Name,
		"category":      p.Category,
		"description":   p.Description,
		"location":      p.Location,
		"price":         p.Price,
		"unit":          p.Unit,
		"is_negotiable": p.IsNegotiable,
	})
	if res.Error != nil {
		r.log.Error("product update failed", zap.Uint64("product_id", p.ID), zap.Error(res.Error))
	}
	return res.Error
}

func (r *productRepo) FindByID(ctx context.Context, id uint64) (*domain.Product, error) {
	var p domain.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.log.Error("product lookup failed", zap.Uint64("product_id", id), zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	status := f.Status
	if status == "" {
		status = domain.ProductActive
	}
	q := r.db.WithContext(ctx).Where("status = ?", status)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.FarmerID != 0 {
		q = q.Where("farmer_id = ?", f.FarmerID)
	}
	if f.Negotiable != nil {
		q = q.Where("is_negotiable = ?", *f.Negotiable)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	var out []domain.Product
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		r.log.Error("product list failed", zap.Error(err))
		return nil, err
	}
	return out, nil
}

// lockProduct reads the row under SELECT ... FOR UPDATE so concurrent
// reservations against the same product serialize on the row lock.
func lockProduct(tx *gorm.DB, id uint64) (*domain.Product, error) {
	var p domain.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: product %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) DecrementStock(ctx context.Context, id uint64, qty int) (*domain.Product, error) {
	var out domain.Product
	err := withRetry(ctx, func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			p, err := lockProduct(tx, id)
			if err != nil {
				return err
			}
			if p.Status == domain.ProductDelisted {
				return fmt.Errorf("%w: product %d is delisted", domain.ErrProductUnavailable, id)
			}
			if p.Stock < qty {
				return fmt.Errorf("%w: product %d has %d left, %d requested", domain.ErrOutOfStock, id, p.Stock, qty)
			}
			p.Stock -= qty
			if p.Stock == 0 {
				p.Status = domain.ProductSold
			}
			if err := tx.Model(&domain.Product{}).Where("id = ?", id).Updates(map[string]any{
				"stock":  p.Stock,
				"status": p.Status,
			}).Error; err != nil {
				return err
			}
			out = *p
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *productRepo) IncrementStock(ctx context.Context, id uint64, qty int) (*domain.Product, error) {
	var out domain.Product
	err := withRetry(ctx, func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			p, err := lockProduct(tx, id)
			if err != nil {
				return err
			}
			p.Stock += qty
			if p.Status == domain.ProductSold && p.Stock > 0 {
				p.Status = domain.ProductActive
			}
			if err := tx.Model(&domain.Product{}).Where("id = ?", id).Updates(map[string]any{
				"stock":  p.Stock,
				"status": p.Status,
			}).Error; err != nil {
				return err
			}
			out = *p
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *productRepo) MarkSold(ctx context.Context, id uint64) error {
	return withRetry(ctx, func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			p, err := lockProduct(tx, id)
			if err != nil {
				return err
			}
			if p.Stock != 0 || p.Status != domain.ProductActive {
				return nil
			}
			return tx.Model(&domain.Product{}).Where("id = ?", id).Update("status", domain.ProductSold).Error
		})
	})
}

func (r *productRepo) SetStatus(ctx context.Context, id uint64, status domain.ProductStatus) error {
	return withRetry(ctx, func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if _, err := lockProduct(tx, id); err != nil {
				return err
			}
			return tx.Model(&domain.Product{}).Where("id = ?", id).Update("status", status).Error
		})
	})
}
